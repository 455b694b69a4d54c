package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type (
	ServerConfig struct {
		Address         string
		DebugHost       string
		Host            string
		ShutdownTimeout time.Duration
		SessionCookie   string
		SessionMaxAge   time.Duration
		SecureCookie    bool
	}

	DatabaseConfig struct {
		Engine     string // sqlite3 | postgres
		Path       string // sqlite3 only
		Host       string
		Port       int
		User       string
		Password   string
		Name       string
		DisableTLS bool
	}

	Config struct {
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		Env          string
		LogLevel     string
		DataDir      string
		SecretKey    string
		Timezone     string
		DefaultTopic string
		PINHashCost  int
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
	}
)

// Address returns the database "host:port".
func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

// Location resolves the configured timezone, falling back to the local one.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", false)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "DailyQ")
	conf.SetDefault("build", "develop")
	conf.SetDefault("logLevel", "info")
	conf.SetDefault("dataDir", "data")
	conf.SetDefault("secretKey", "")
	conf.SetDefault("timezone", "Local")
	conf.SetDefault("defaultTopic", "Nature")
	conf.SetDefault("pinHashCost", bcrypt.DefaultCost)
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.address", ":3000")
	conf.SetDefault("server.debugHost", "localhost:4000")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.sessionCookie", "dailyq_session")
	conf.SetDefault("server.sessionMaxAge", 31*24*time.Hour)
	conf.SetDefault("server.secureCookie", false)

	conf.SetDefault("database.engine", "sqlite3")
	conf.SetDefault("database.path", "")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.user", "dailyq")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.name", "dailyq")
	conf.SetDefault("database.disableTLS", false)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
		conf.SetDefault("debug", true)
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	// the secret key may also come from the unprefixed SECRET_KEY variable
	secretKey := conf.GetString("secretKey")
	if secretKey == "" {
		secretKey = os.Getenv("SECRET_KEY")
	}

	return &Config{
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		Env:          env,
		LogLevel:     conf.GetString("logLevel"),
		DataDir:      conf.GetString("dataDir"),
		SecretKey:    secretKey,
		Timezone:     conf.GetString("timezone"),
		DefaultTopic: conf.GetString("defaultTopic"),
		PINHashCost:  conf.GetInt("pinHashCost"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:         conf.GetString("server.address"),
			DebugHost:       conf.GetString("server.debugHost"),
			Host:            conf.GetString("server.host"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			SessionCookie:   conf.GetString("server.sessionCookie"),
			SessionMaxAge:   conf.GetDuration("server.sessionMaxAge"),
			SecureCookie:    conf.GetBool("server.secureCookie"),
		},
		Database: DatabaseConfig{
			Engine:     conf.GetString("database.engine"),
			Path:       conf.GetString("database.path"),
			Host:       conf.GetString("database.host"),
			Port:       conf.GetInt("database.port"),
			User:       conf.GetString("database.user"),
			Password:   conf.GetString("database.password"),
			Name:       conf.GetString("database.name"),
			DisableTLS: conf.GetBool("database.disableTLS"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: sqlite in `dir`, cheap hashing.
func NewTestConfig(dir string) *Config {
	return &Config{
		TestMode:     true,
		AppName:      "DailyQ",
		Build:        "test",
		Env:          "TEST",
		LogLevel:     "error",
		DataDir:      dir,
		SecretKey:    "test-secret-key",
		Timezone:     "UTC",
		DefaultTopic: "Nature",
		PINHashCost:  bcrypt.MinCost,
		Server: ServerConfig{
			Address:         ":0",
			ShutdownTimeout: time.Second,
			SessionCookie:   "dailyq_session",
			SessionMaxAge:   time.Hour,
		},
		Database: DatabaseConfig{
			Engine: "sqlite3",
			Path:   filepath.Join(dir, "questions.db"),
		},
	}
}
