package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
	eventsvc "github.com/trezcool/ratiba/services/events"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	repos, err := database.Open(context.Background(), conf, dbLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.Close(context.Background()); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()
	logger.Info(fmt.Sprintf("Using %s database engine", repos.Engine))

	// set up events
	var events timetable.EventPublisher = eventsvc.Discard{}
	if conf.Nats.URL != "" {
		pub, pErr := eventsvc.NewNatsPublisher(conf, logger)
		if pErr != nil {
			logger.Fatal(fmt.Sprintf("setting up events: %v", pErr), pErr)
		}
		defer func() {
			if cErr := pub.Close(); cErr != nil {
				logger.Error("Failed to drain nats connection", cErr)
			}
		}()
		events = pub
	}

	// set up services
	ttSvc := timetable.NewService(repos.Timetable, user.NewTeacherDirectory(repos.Users), events, logger)
	usrSvc := user.NewService(repos.Users, ttSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	timetable.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("dbEngine").Set(repos.Engine)

	go func() {
		if dErr := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); dErr != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", dErr), dErr)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			UserSvc:      usrSvc,
			TimetableSvc: ttSvc,
			Validate:     validate,
			Translator:   translator,
		},
	)

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

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
