package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/dig"

	dig_container "github.com/dailyq/dailyq/apps/api/di/dig"
	echoapi "github.com/dailyq/dailyq/apps/api/echo"
	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/admin"
)

type appParams struct {
	dig.In

	Conf     *core.Config
	Logger   core.Logger
	DB       *sqlx.DB
	AdminSvc *admin.Service
	Server   *echoapi.Server
}

func main() {
	c := dig_container.New()
	if err := c.Invoke(run); err != nil {
		log.Fatal(err)
	}
}

func run(p appParams) {
	conf, logger, server := p.Conf, p.Logger, p.Server

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	defer func() {
		if err := p.DB.Close(); err != nil {
			logger.Error("Failed to close database", err)
		}
	}()

	created, err := p.AdminSvc.EnsureDefault(context.Background())
	if err != nil {
		logger.Fatal(fmt.Sprintf("creating default admin: %v", err), err)
	}
	if created {
		logger.Warn(fmt.Sprintf("created admin %q with the default password, change it with `admin resetpassword`", admin.DefaultUsername))
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	if conf.Server.DebugHost != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
