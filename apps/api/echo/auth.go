package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/admin"
	"github.com/dailyq/dailyq/core/student"
)

const contextClaimsKey = "session"

// StudentIdentity is the logged in student as stored in the session.
type StudentIdentity struct {
	ID         int    `json:"id"`
	Grade      int    `json:"grade"`
	ClassNum   int    `json:"class_num"`
	StudentNum int    `json:"student_num"`
	Name       string `json:"name"`
}

type AdminIdentity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Claims is the content of the session cookie. A session may carry a student, an admin or both.
type Claims struct {
	jwt.RegisteredClaims
	Student *StudentIdentity `json:"student,omitempty"`
	Admin   *AdminIdentity   `json:"admin,omitempty"`
}

func (c Claims) empty() bool {
	return c.Student == nil && c.Admin == nil
}

// identity is what gets reported along with server errors.
func (c Claims) identity() core.Identity {
	switch {
	case c.Admin != nil:
		return core.Identity{ID: "admin:" + c.Admin.Username, Username: c.Admin.Username}
	case c.Student != nil:
		s := c.Student
		return core.Identity{ID: "student:" + strconv.Itoa(s.ID), Username: student.Student{Grade: s.Grade, ClassNum: s.ClassNum, Name: s.Name}.Label()}
	}
	return core.Identity{}
}

func newStudentIdentity(stu student.Student) *StudentIdentity {
	return &StudentIdentity{
		ID:         stu.ID,
		Grade:      stu.Grade,
		ClassNum:   stu.ClassNum,
		StudentNum: stu.StudentNum,
		Name:       stu.Name,
	}
}

func newAdminIdentity(adm admin.Admin) *AdminIdentity {
	return &AdminIdentity{ID: adm.ID, Username: adm.Username}
}

// sessions reads and writes the signed session cookie.
type sessions struct {
	key    []byte
	cookie string
	maxAge time.Duration
	secure bool
	issuer string
}

func newSessions(conf *core.Config) *sessions {
	maxAge := conf.Server.SessionMaxAge
	if maxAge <= 0 {
		maxAge = 31 * 24 * time.Hour
	}
	name := conf.Server.SessionCookie
	if name == "" {
		name = "dailyq_session"
	}
	return &sessions{
		key:    []byte(conf.SecretKey),
		cookie: name,
		maxAge: maxAge,
		secure: conf.Server.SecureCookie,
		issuer: conf.AppName,
	}
}

// GenerateToken signs the claims with HS256.
func (s *sessions) GenerateToken(claims Claims) (string, error) {
	now := core.NowFunc()
	claims.Issuer = s.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.maxAge))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(s.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (s *sessions) parseToken(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(core.NowFunc))
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// save writes the claims to the session cookie, or deletes the cookie when they are empty.
func (s *sessions) save(ctx echo.Context, claims Claims) error {
	if claims.empty() {
		s.clear(ctx)
		return nil
	}
	token, err := s.GenerateToken(claims)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     s.cookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Set(contextClaimsKey, claims)
	return nil
}

func (s *sessions) clear(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Set(contextClaimsKey, Claims{})
}

// getContextClaims returns the session loaded by loadSession; it is empty for anonymous requests.
func getContextClaims(ctx echo.Context) Claims {
	if claims, ok := ctx.Get(contextClaimsKey).(Claims); ok {
		return claims
	}
	return Claims{}
}
