package student

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/dailyq/dailyq/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("student not found")
	ErrWrongPIN       = core.NewAuthError("incorrect PIN")
	ErrFieldsRequired = core.Invalid("please fill in every field")
	ErrNotNumeric     = core.Invalid("grade, class and number must be numbers")
	ErrGradeRange     = core.Invalid("grade must be between 1 and 6")
	ErrPINFormat      = core.Invalid("PIN must be exactly 4 digits")
	ErrNoStudents     = core.Invalid("please select at least one student")
	ErrInvalidTarget  = core.Invalid("invalid target")

	msgNewStudent = "Welcome! Please set a 4-digit PIN."
	msgNoPINYet   = "Your PIN has not been set yet. Please set a 4-digit PIN."
	msgEnterPIN   = "Please enter your PIN."

	pinRange = big.NewInt(9000) // 1000..9999
)

type (
	Repository interface {
		GetStudentByID(ctx context.Context, id int) (Student, error)
		GetStudentByKey(ctx context.Context, key Key) (Student, error)
		CreateStudent(ctx context.Context, s Student) (Student, error)
		// UpdateStudentPINs applies all updates in a single transaction and
		// returns how many students exist among them.
		UpdateStudentPINs(ctx context.Context, updates ...PINUpdate) (int, error)
		QueryStudents(ctx context.Context, withoutPINOnly bool) ([]Student, error)
		QueryCountedStudents(ctx context.Context) ([]CountedStudent, error)
	}

	Service struct {
		repo     Repository
		hashCost int
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, hashCost: conf.PINHashCost}
}

// ParseCredentials validates the login form and returns the student key.
func ParseCredentials(creds Credentials) (Key, error) {
	name := core.CleanString(creds.Name)
	fields := []string{
		core.CleanString(creds.Grade),
		core.CleanString(creds.ClassNum),
		core.CleanString(creds.StudentNum),
	}
	if name == "" || fields[0] == "" || fields[1] == "" || fields[2] == "" {
		return Key{}, ErrFieldsRequired
	}

	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Key{}, ErrNotNumeric
		}
		nums[i] = n
	}
	if nums[0] < MinGrade || nums[0] > MaxGrade {
		return Key{}, ErrGradeRange
	}
	return Key{Grade: nums[0], ClassNum: nums[1], StudentNum: nums[2], Name: name}, nil
}

// Login authenticates a student, registering them on their first visit.
func (svc *Service) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	key, err := ParseCredentials(creds)
	if err != nil {
		return LoginResult{}, err
	}
	pin := core.CleanString(creds.PIN)

	stu, err := svc.repo.GetStudentByKey(ctx, key)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return LoginResult{}, errors.Wrap(err, "finding student")
		}
		// first visit: PIN setup required
		if pin == "" {
			return LoginResult{Status: StatusNeedPINSetup, Message: msgNewStudent}, nil
		}
		if !core.IsPIN(pin) {
			return LoginResult{}, ErrPINFormat
		}
		hash, err := core.HashSecret(pin, svc.hashCost)
		if err != nil {
			return LoginResult{}, err
		}
		stu, err = svc.repo.CreateStudent(ctx, Student{
			Grade:      key.Grade,
			ClassNum:   key.ClassNum,
			StudentNum: key.StudentNum,
			Name:       key.Name,
			PIN:        null.StringFrom(pin),
			PINHash:    null.StringFrom(hash),
			CreatedAt:  core.NowFunc().UTC(),
		})
		if err != nil {
			return LoginResult{}, errors.Wrap(err, "creating student")
		}
		return LoginResult{Status: StatusOK, Student: stu}, nil
	}

	if !stu.HasPIN() {
		if pin == "" {
			return LoginResult{Status: StatusNeedPINSetup, Message: msgNoPINYet}, nil
		}
		if !core.IsPIN(pin) {
			return LoginResult{}, ErrPINFormat
		}
		if err = svc.setPIN(ctx, &stu, pin); err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Status: StatusOK, Student: stu}, nil
	}

	if pin == "" {
		return LoginResult{Status: StatusNeedPIN, Message: msgEnterPIN}, nil
	}
	if err = svc.verifyPIN(ctx, &stu, pin); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Status: StatusOK, Student: stu}, nil
}

// verifyPIN compares the plaintext PIN when there is one, else the hash.
// Hash-only records get their plaintext PIN backfilled on success.
func (svc *Service) verifyPIN(ctx context.Context, stu *Student, pin string) error {
	if stu.PIN.Valid {
		if subtle.ConstantTimeCompare([]byte(stu.PIN.String), []byte(pin)) != 1 {
			return ErrWrongPIN
		}
		if _, legacy := core.CheckSecret(stu.PINHash.String, pin); legacy || !stu.PINHash.Valid {
			return svc.setPIN(ctx, stu, pin)
		}
		return nil
	}

	ok, _ := core.CheckSecret(stu.PINHash.String, pin)
	if !ok {
		return ErrWrongPIN
	}
	return svc.setPIN(ctx, stu, pin)
}

func (svc *Service) setPIN(ctx context.Context, stu *Student, pin string) error {
	hash, err := core.HashSecret(pin, svc.hashCost)
	if err != nil {
		return err
	}
	upd := PINUpdate{ID: stu.ID, PIN: null.StringFrom(pin), PINHash: null.StringFrom(hash)}
	if _, err = svc.repo.UpdateStudentPINs(ctx, upd); err != nil {
		return errors.Wrap(err, "updating student PIN")
	}
	stu.PIN, stu.PINHash = upd.PIN, upd.PINHash
	return nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

// ResetPIN clears a student's PIN so that they choose a new one at next login.
func (svc *Service) ResetPIN(ctx context.Context, id int) (Student, error) {
	stu, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if _, err = svc.repo.UpdateStudentPINs(ctx, PINUpdate{ID: id}); err != nil {
		return Student{}, errors.Wrap(err, "clearing student PIN")
	}
	stu.PIN, stu.PINHash = null.String{}, null.String{}
	return stu, nil
}

// GeneratePINs assigns a random PIN to every student of `target`.
func (svc *Service) GeneratePINs(ctx context.Context, target string) ([]PINAssignment, error) {
	target = core.CleanString(target, true /* lower */)
	if target == "" {
		target = TargetNoPIN
	}
	if target != TargetNoPIN && target != TargetAll {
		return nil, ErrInvalidTarget
	}

	students, err := svc.repo.QueryStudents(ctx, target == TargetNoPIN)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	assignments := make([]PINAssignment, 0, len(students))
	updates := make([]PINUpdate, 0, len(students))
	for _, s := range students {
		pin, err := RandomPIN()
		if err != nil {
			return nil, err
		}
		hash, err := core.HashSecret(pin, svc.hashCost)
		if err != nil {
			return nil, err
		}
		updates = append(updates, PINUpdate{ID: s.ID, PIN: null.StringFrom(pin), PINHash: null.StringFrom(hash)})
		assignments = append(assignments, PINAssignment{
			ID:         s.ID,
			Grade:      s.Grade,
			ClassNum:   s.ClassNum,
			StudentNum: s.StudentNum,
			Name:       s.Name,
			PIN:        pin,
		})
	}
	if len(updates) > 0 {
		if _, err = svc.repo.UpdateStudentPINs(ctx, updates...); err != nil {
			return nil, errors.Wrap(err, "storing generated PINs")
		}
	}
	return assignments, nil
}

// SetPINs gives the same PIN to every listed student; unknown ids are skipped.
func (svc *Service) SetPINs(ctx context.Context, ids []int, pin string) (int, error) {
	if len(ids) == 0 {
		return 0, ErrNoStudents
	}
	pin = strings.TrimSpace(pin)
	if !core.IsPIN(pin) {
		return 0, ErrPINFormat
	}
	hash, err := core.HashSecret(pin, svc.hashCost)
	if err != nil {
		return 0, err
	}

	updates := make([]PINUpdate, 0, len(ids))
	for _, id := range ids {
		updates = append(updates, PINUpdate{ID: id, PIN: null.StringFrom(pin), PINHash: null.StringFrom(hash)})
	}
	n, err := svc.repo.UpdateStudentPINs(ctx, updates...)
	return n, errors.Wrap(err, "setting student PINs")
}

// List returns every student ordered by grade, class and number.
func (svc *Service) List(ctx context.Context) ([]Summary, error) {
	rows, err := svc.repo.QueryCountedStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	summaries := make([]Summary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, NewSummary(r))
	}
	return summaries, nil
}

// RandomPIN returns a 4 digit PIN in 1000..9999.
func RandomPIN() (string, error) {
	n, err := rand.Int(rand.Reader, pinRange)
	if err != nil {
		return "", errors.Wrap(err, "generating PIN")
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}
