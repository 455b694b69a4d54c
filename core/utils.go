package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

const DateLayout = "2006-01-02"

var NowFunc = time.Now // mockable

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CharCount counts characters, not bytes.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// Clock tells the time in the school's timezone.
type Clock struct {
	Loc *time.Location
}

func NewClock(conf *Config) Clock {
	return Clock{Loc: conf.Location()}
}

func (c Clock) Location() *time.Location {
	if c.Loc == nil {
		return time.Local
	}
	return c.Loc
}

func (c Clock) Now() time.Time {
	return NowFunc().In(c.Location())
}

// Today returns the current calendar day as YYYY-MM-DD.
func (c Clock) Today() string {
	return c.Now().Format(DateLayout)
}

// ParseDate reports whether s is a valid YYYY-MM-DD day.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, s)
	return t, err == nil
}
