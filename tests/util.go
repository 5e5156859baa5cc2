package testutil

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
	logsvc "github.com/trezcool/ratiba/services/logger"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
)

// Password satisfies the password policy.
const Password = "Secr3t#Pass"

func NewConfig() *core.Config {
	return &core.Config{
		AppName:   "Ratiba",
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		SecretKey: "test-secret-key",
		Server: core.ServerConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Database: core.DatabaseConfig{Engine: core.EngineMemory},
	}
}

// NewLogger returns a silent logger that never reports.
func NewLogger() *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), NewConfig())
	logger.Enable(false)
	return logger
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	timetable.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// EventRecorder keeps every published event.
type EventRecorder struct {
	mu     sync.Mutex
	events []timetable.Event
}

var _ timetable.EventPublisher = (*EventRecorder)(nil)

func (r *EventRecorder) Publish(_ context.Context, evt timetable.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *EventRecorder) Kinds() []timetable.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]timetable.EventKind, 0, len(r.events))
	for _, evt := range r.events {
		kinds = append(kinds, evt.Kind)
	}
	return kinds
}

// Env wires the services on top of fresh in-memory repositories.
type Env struct {
	UserRepo      user.Repository
	TimetableRepo timetable.Repository
	UserSvc       *user.Service
	TimetableSvc  *timetable.Service
	Events        *EventRecorder
}

func NewEnv() *Env {
	db := inmemdb.Open()
	env := &Env{
		UserRepo:      inmemdb.NewUserRepository(db),
		TimetableRepo: inmemdb.NewTimetableRepository(db),
		Events:        new(EventRecorder),
	}
	env.TimetableSvc = timetable.NewService(env.TimetableRepo, user.NewTeacherDirectory(env.UserRepo), env.Events, NewLogger())
	env.UserSvc = user.NewService(env.UserRepo, env.TimetableSvc)
	return env
}

func CreateUser(t *testing.T, repo user.Repository, name, uname string, role core.Role, isApproved bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		ID:         uname + "-id",
		Name:       name,
		Username:   uname,
		Role:       role,
		IsApproved: isApproved,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateTeacher creates an approved teacher with the given lunch settings.
func CreateTeacher(t *testing.T, repo user.Repository, name, uname string, lunch timetable.LunchConfig) user.User {
	t.Helper()
	usr := CreateUser(t, repo, name, uname, core.RoleTeacher, true)
	usr.LunchConfig = lunch
	usr, err := repo.UpdateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createTeacher() failed: %v", err)
	}
	return usr
}

// AddEntry stores `e` directly, bypassing validation.
func AddEntry(t *testing.T, repo timetable.Repository, e timetable.Entry) {
	t.Helper()
	ctx := context.Background()
	entries, version, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("addEntry() failed: %v", err)
	}
	if err = repo.SaveAll(ctx, append(entries, e), version); err != nil {
		t.Fatalf("addEntry() failed: %v", err)
	}
}
