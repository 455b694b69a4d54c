package database

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/dailyq/dailyq/core"
	appfs "github.com/dailyq/dailyq/fs"
)

const (
	EngineSQLite   = "sqlite3"
	EnginePostgres = "postgres"

	sqliteFile = "questions.db"
)

// SQLitePath is where the sqlite database lives: the configured path, or `questions.db` in the data dir.
func SQLitePath(conf *core.Config) string {
	if conf.Database.Path != "" {
		return conf.Database.Path
	}
	return filepath.Join(conf.DataDir, sqliteFile)
}

func postgresURL(dbName string, conf *core.Config) string {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   EnginePostgres,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func openSQLite(path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating database dir")
	}
	q := make(url.Values)
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "5000")

	db, err := sqlx.Open(EngineSQLite, fmt.Sprintf("file:%s?%s", path, q.Encode()))
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	return db, nil
}

// Open connects to the configured database engine.
func Open(conf *core.Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch conf.Database.Engine {
	case EngineSQLite, "":
		db, err = openSQLite(SQLitePath(conf))
	case EnginePostgres:
		db, err = sqlx.Open(EnginePostgres, postgresURL(conf.Database.Name, conf))
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// CreateIfNotExist creates the postgres database of the app user when missing.
// sqlite files are created on open, so it does nothing for them.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.Engine != EnginePostgres {
		return nil
	}
	db, err := sqlx.Open(EnginePostgres, postgresURL("postgres", conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	if err = ping(db.DB); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	var exists bool
	err = db.Get(&exists, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %q", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

func init() {
	goose.SetBaseFS(appfs.FS)
	goose.SetLogger(log.New(io.Discard, "", 0))
}

func migrationsDir(engine string) string {
	return "migrations/" + engine
}

// Migrate brings the schema up to date.
func Migrate(db *sqlx.DB) error {
	engine := db.DriverName()
	if engine == EngineSQLite {
		if err := addLegacyColumns(db); err != nil {
			return errors.Wrap(err, "migrating legacy students table")
		}
	}
	return RunMigrations(db, "up")
}

// RunMigrations runs a goose command ("up", "down", "status", "version", ...) against the embedded migrations.
func RunMigrations(db *sqlx.DB, command string, args ...string) error {
	engine := db.DriverName()
	if err := goose.SetDialect(engine); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.Run(command, db.DB, migrationsDir(engine), args...); err != nil {
		return errors.Wrapf(err, "running migration command %q", command)
	}
	return nil
}

// addLegacyColumns upgrades students tables created before PINs existed.
func addLegacyColumns(db *sqlx.DB) error {
	var cols []struct {
		Name string `db:"name"`
	}
	if err := db.Select(&cols, "SELECT name FROM pragma_table_info('students')"); err != nil {
		return err
	}
	if len(cols) == 0 { // fresh database
		return nil
	}
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c.Name] = true
	}
	for _, col := range []string{"pin_hash", "pin"} {
		if have[col] {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("ALTER TABLE students ADD COLUMN %s TEXT DEFAULT NULL", col)); err != nil {
			return err
		}
	}
	return nil
}
