package student

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
)

// Login outcomes
const (
	StatusOK           = "ok"
	StatusNeedPINSetup = "need_pin_setup"
	StatusNeedPIN      = "need_pin"
)

// PIN generation targets
const (
	TargetNoPIN = "no_pin"
	TargetAll   = "all"
)

const (
	MinGrade = 1
	MaxGrade = 6
)

// Key identifies a student; the four fields are unique together.
type Key struct {
	Grade      int    `db:"grade"`
	ClassNum   int    `db:"class_num"`
	StudentNum int    `db:"student_num"`
	Name       string `db:"name"`
}

type Student struct {
	ID         int         `json:"id" db:"id"`
	Grade      int         `json:"grade" db:"grade"`
	ClassNum   int         `json:"class_num" db:"class_num"`
	StudentNum int         `json:"student_num" db:"student_num"`
	Name       string      `json:"name" db:"name"`
	PIN        null.String `json:"-" db:"pin"`
	PINHash    null.String `json:"-" db:"pin_hash"`
	CreatedAt  time.Time   `json:"-" db:"created_at"`
}

func (s Student) Key() Key {
	return Key{Grade: s.Grade, ClassNum: s.ClassNum, StudentNum: s.StudentNum, Name: s.Name}
}

// HasPIN reports whether either the plaintext PIN or its hash is set.
func (s Student) HasPIN() bool {
	return s.PIN.Valid || s.PINHash.Valid
}

// Label is the short "grade-class name" form shown next to questions.
func (s Student) Label() string {
	return fmt.Sprintf("%d-%d %s", s.Grade, s.ClassNum, s.Name)
}

// Credentials is the raw login form. The numeric fields are kept as text
// so that "abc" can be told apart from a missing value.
type Credentials struct {
	Grade      string
	ClassNum   string
	StudentNum string
	Name       string
	PIN        string
}

type LoginResult struct {
	Status  string
	Message string
	Student Student
}

// PINUpdate sets (or clears, with null values) a student's PIN.
type PINUpdate struct {
	ID      int
	PIN     null.String
	PINHash null.String
}

// PINAssignment is a freshly generated PIN, shown once to the admin.
type PINAssignment struct {
	ID         int    `json:"id"`
	Grade      int    `json:"grade"`
	ClassNum   int    `json:"class_num"`
	StudentNum int    `json:"student_num"`
	Name       string `json:"name"`
	PIN        string `json:"pin"`
}

// CountedStudent is a Student with the number of questions they have not deleted.
type CountedStudent struct {
	Student
	QuestionCount int `db:"question_count"`
}

// Summary is a row of the admin student list.
type Summary struct {
	ID            int     `json:"id"`
	Grade         int     `json:"grade"`
	ClassNum      int     `json:"class_num"`
	StudentNum    int     `json:"student_num"`
	Name          string  `json:"name"`
	PIN           *string `json:"pin"`
	HasPIN        bool    `json:"has_pin"`
	PINViewable   bool    `json:"pin_viewable"`
	QuestionCount int     `json:"question_count"`
}

func NewSummary(cs CountedStudent) Summary {
	sum := Summary{
		ID:            cs.ID,
		Grade:         cs.Grade,
		ClassNum:      cs.ClassNum,
		StudentNum:    cs.StudentNum,
		Name:          cs.Name,
		HasPIN:        cs.HasPIN(),
		PINViewable:   cs.PIN.Valid,
		QuestionCount: cs.QuestionCount,
	}
	if cs.PIN.Valid && cs.PIN.String != "" {
		pin := cs.PIN.String
		sum.PIN = &pin
	}
	return sum
}
