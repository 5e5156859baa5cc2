package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage/database/inmem"
	"github.com/trezcool/ratiba/storage/database/migrations"
	"github.com/trezcool/ratiba/storage/database/mongodb"
	"github.com/trezcool/ratiba/storage/database/sqldb"
)

// Repositories are the stores of the engine that was opened.
type Repositories struct {
	Engine    string
	Timetable timetable.Repository
	Users     user.Repository

	// SQL is set for the postgres and sqlite engines.
	SQL     *sqlx.DB
	dialect string
	close   func(ctx context.Context) error
}

func (r *Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// Migrate runs a goose command against the SQL engine.
func (r *Repositories) Migrate(command string, args ...string) error {
	if r.SQL == nil {
		return errors.Errorf("migrations do not apply to the %s engine", r.Engine)
	}
	return Migrate(r.SQL.DB, r.dialect, command, args...)
}

// Open opens the configured engine.
// When mongo or postgres cannot be reached and the fallback is enabled, the sqlite file is opened instead.
func Open(ctx context.Context, conf *core.Config, logger core.Logger) (*Repositories, error) {
	var (
		repos *Repositories
		err   error
	)
	switch conf.Database.Engine {
	case core.EngineMongo:
		repos, err = openMongo(ctx, conf)
	case core.EnginePostgres:
		repos, err = openPostgres(ctx, conf)
	case core.EngineSQLite:
		return openSQLite(ctx, conf.Database.SQLitePath)
	case core.EngineMemory:
		return openMemory(), nil
	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}

	if err != nil {
		if !conf.Database.FallbackEnabled {
			return nil, err
		}
		logger.Warn(
			fmt.Sprintf("%s unavailable, falling back to %s", conf.Database.Engine, conf.Database.SQLitePath),
			err,
		)
		return openSQLite(ctx, conf.Database.SQLitePath)
	}
	return repos, nil
}

func openMemory() *Repositories {
	db := inmemdb.Open()
	return &Repositories{
		Engine:    core.EngineMemory,
		Timetable: inmemdb.NewTimetableRepository(db),
		Users:     inmemdb.NewUserRepository(db),
	}
}

func openMongo(ctx context.Context, conf *core.Config) (*Repositories, error) {
	db, err := mongorepos.Open(ctx, conf.Database.MongoURI, conf.Database.MongoName, conf.Database.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Engine:    core.EngineMongo,
		Timetable: mongorepos.NewTimetableRepository(db),
		Users:     mongorepos.NewUserRepository(db),
		close:     db.Close,
	}, nil
}

func openPostgres(ctx context.Context, conf *core.Config) (*Repositories, error) {
	if err := CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("postgres", postgresURL(conf.Database.Name, false, conf))
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres")
	}
	if err = ping(ctx, db.DB, conf.Database.ConnectTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLRepositories(core.EnginePostgres, "postgres", db)
}

func openSQLite(ctx context.Context, path string) (*Repositories, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating sqlite directory")
		}
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	// a single connection serializes writers
	sqlDB.SetMaxOpenConns(1)
	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "pinging sqlite")
	}
	// sqlx picks "?" bindvars from the driver name
	return newSQLRepositories(core.EngineSQLite, "sqlite3", sqlx.NewDb(sqlDB, "sqlite3"))
}

func newSQLRepositories(engine, dialect string, db *sqlx.DB) (*Repositories, error) {
	if err := Migrate(db.DB, dialect, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repositories{
		Engine:    engine,
		Timetable: sqlrepos.NewTimetableRepository(db),
		Users:     sqlrepos.NewUserRepository(db),
		SQL:       db,
		dialect:   dialect,
		close:     func(context.Context) error { return db.Close() },
	}, nil
}

// Migrate runs the goose `command` with the embedded migrations.
func Migrate(db *sql.DB, dialect, command string, args ...string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	if err := goose.Run(command, db, ".", args...); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

func postgresURL(dbName string, admin bool, conf *core.Config) string {
	usr := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		usr = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     usr,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// ping waits for the database to be ready, backing off exponentially until `timeout`.
func ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = timeout
	if err := backoff.Retry(func() error { return db.PingContext(ctx) }, backoff.WithContext(retryBackoff, ctx)); err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}
