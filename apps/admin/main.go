package main

import (
	"os"

	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/admin"
	"github.com/dailyq/dailyq/core/student"
	logsvc "github.com/dailyq/dailyq/services/logger"
	"github.com/dailyq/dailyq/storage/database"
	"github.com/dailyq/dailyq/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewConsole(os.Stderr, conf).WithField("app", "admin")

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.WithError(err).Fatal("setting up database")
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.WithError(err).Fatal("opening database")
	}
	defer func() { _ = db.Close() }()

	validate, translator := core.NewValidator()
	admin.InitValidators(validate, translator)
	repos := sqlxrepos.NewRepositories(db)

	// start CLI
	cli := commandLine{
		db:         db,
		adminSvc:   admin.NewService(repos.Admins, validate),
		studentSvc: student.NewService(repos.Students, conf),
		translator: translator,
		out:        os.Stdout,
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(cli.describeError(err))
		}
		_ = db.Close()
		os.Exit(1)
	}
}
