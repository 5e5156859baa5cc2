package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
	eventsvc "github.com/trezcool/ratiba/services/events"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	// set up DB
	repos, err := database.Open(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal("setting up database", err)
	}

	// start CLI
	cli := newCommandLine(repos, logger)
	err = cli.run(os.Args)
	if cErr := repos.Close(context.Background()); cErr != nil {
		logger.Error("Failed to close database", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("\nerror: "+err.Error(), err)
		}
		os.Exit(1)
	}
}

func newCommandLine(repos *database.Repositories, logger core.Logger) *commandLine {
	ttSvc := timetable.NewService(repos.Timetable, user.NewTeacherDirectory(repos.Users), eventsvc.Discard{}, logger)

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	timetable.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	return &commandLine{
		repos:    repos,
		usrSvc:   user.NewService(repos.Users, ttSvc),
		ttSvc:    ttSvc,
		validate: validate,
	}
}
