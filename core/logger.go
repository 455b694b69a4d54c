package core

// Logger is any logging service; extra args may be errors, maps of fields or an Identity.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Identity is who a log line is about.
type Identity struct {
	ID       string
	Username string
}
