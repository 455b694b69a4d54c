package dig_container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/dailyq/dailyq/apps/api/echo"
	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/admin"
	"github.com/dailyq/dailyq/core/hall"
	"github.com/dailyq/dailyq/core/question"
	"github.com/dailyq/dailyq/core/report"
	"github.com/dailyq/dailyq/core/settings"
	"github.com/dailyq/dailyq/core/stats"
	"github.com/dailyq/dailyq/core/student"
	logsvc "github.com/dailyq/dailyq/services/logger"
	"github.com/dailyq/dailyq/services/metrics"
	"github.com/dailyq/dailyq/storage/database"
	"github.com/dailyq/dailyq/storage/database/sqlxrepos"
)

// ServerParams is everything the API needs, resolved by the container.
type ServerParams struct {
	dig.In

	Conf        *core.Config
	Logger      core.Logger
	Metrics     *metrics.Metrics
	StudentSvc  *student.Service
	QuestionSvc *question.Service
	HallSvc     *hall.Service
	SettingsSvc *settings.Service
	AdminSvc    *admin.Service
	StatsSvc    *stats.Service
	ReportSvc   *report.Service
	Validate    *validator.Validate
	Translator  ut.Translator
}

// newConfig loads the config and makes sure sessions have a signing key.
func newConfig() (*core.Config, error) {
	conf := core.NewConfig()
	if conf.SecretKey == "" {
		key, err := core.LoadOrCreateSecretKey(conf.DataDir)
		if err != nil {
			return nil, err
		}
		conf.SecretKey = key
	}
	return conf, nil
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewConsole(os.Stdout, conf), conf)
}

func newDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newMetrics(db *sqlx.DB) *metrics.Metrics {
	m := metrics.New()
	m.WatchDB(db.DB)
	return m
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	admin.InitValidators(validate, translator)
	return validate, translator
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Metrics:     p.Metrics,
		StudentSvc:  p.StudentSvc,
		QuestionSvc: p.QuestionSvc,
		HallSvc:     p.HallSvc,
		SettingsSvc: p.SettingsSvc,
		AdminSvc:    p.AdminSvc,
		StatsSvc:    p.StatsSvc,
		ReportSvc:   p.ReportSvc,
		Validate:    p.Validate,
		Translator:  p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDB))
	must(c.Provide(newMetrics))
	must(c.Provide(newValidator))
	must(c.Provide(core.NewClock))
	must(c.Provide(sqlxrepos.NewRepositories))

	// services
	must(c.Provide(func(r *sqlxrepos.Repositories, conf *core.Config) *settings.Service {
		return settings.NewService(r.Settings, conf)
	}))
	must(c.Provide(func(r *sqlxrepos.Repositories, conf *core.Config) *student.Service {
		return student.NewService(r.Students, conf)
	}))
	must(c.Provide(func(r *sqlxrepos.Repositories, clock core.Clock) *question.Service {
		return question.NewService(r.Questions, clock)
	}))
	must(c.Provide(func(r *sqlxrepos.Repositories, settingsSvc *settings.Service, clock core.Clock) *hall.Service {
		return hall.NewService(r.Hall, settingsSvc, clock)
	}))
	must(c.Provide(func(r *sqlxrepos.Repositories, settingsSvc *settings.Service, clock core.Clock) *stats.Service {
		return stats.NewService(r.Stats, settingsSvc, clock)
	}))
	must(c.Provide(func(r *sqlxrepos.Repositories, clock core.Clock) *report.Service {
		return report.NewService(r.Reports, clock)
	}))
	must(c.Provide(func(r *sqlxrepos.Repositories, validate *validator.Validate) *admin.Service {
		return admin.NewService(r.Admins, validate)
	}))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
