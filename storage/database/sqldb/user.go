package sqlrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

type userRow struct {
	ID                  string         `db:"id"`
	Name                string         `db:"name"`
	Username            string         `db:"username"`
	Email               string         `db:"email"`
	Role                string         `db:"role"`
	IsApproved          bool           `db:"is_approved"`
	PasswordHash        string         `db:"password_hash"`
	LunchBreakStart     null.String    `db:"lunch_break_start"`
	LunchBreakEnd       null.String    `db:"lunch_break_end"`
	LunchBreakOverrides types.JSONText `db:"lunch_break_overrides"`
	CreatedAt           string         `db:"created_at"`
	UpdatedAt           string         `db:"updated_at"`
	LastLogin           null.String    `db:"last_login"`
}

func newUserRow(usr user.User) (userRow, error) {
	overrides := usr.Overrides
	if overrides == nil {
		overrides = map[string]timetable.Window{}
	}
	raw, err := json.Marshal(overrides)
	if err != nil {
		return userRow{}, errors.Wrap(err, "marshalling lunch break overrides")
	}
	return userRow{
		ID:                  usr.ID,
		Name:                usr.Name,
		Username:            usr.Username,
		Email:               usr.Email,
		Role:                string(usr.Role),
		IsApproved:          usr.IsApproved,
		PasswordHash:        string(usr.PasswordHash),
		LunchBreakStart:     null.NewString(usr.Start, usr.Start != ""),
		LunchBreakEnd:       null.NewString(usr.End, usr.End != ""),
		LunchBreakOverrides: types.JSONText(raw),
		CreatedAt:           formatTime(usr.CreatedAt),
		UpdatedAt:           formatTime(usr.UpdatedAt),
		LastLogin:           formatNullTime(usr.LastLogin),
	}, nil
}

func (row userRow) user() (user.User, error) {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		Role:         core.Role(row.Role),
		IsApproved:   row.IsApproved,
		PasswordHash: []byte(row.PasswordHash),
		LunchConfig: timetable.LunchConfig{
			Start: row.LunchBreakStart.String,
			End:   row.LunchBreakEnd.String,
		},
	}
	if len(row.LunchBreakOverrides) > 0 {
		var overrides map[string]timetable.Window
		if err := row.LunchBreakOverrides.Unmarshal(&overrides); err != nil {
			return user.User{}, errors.Wrap(err, "unmarshalling lunch break overrides")
		}
		if len(overrides) > 0 {
			usr.Overrides = overrides
		}
	}

	var err error
	if usr.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
		return user.User{}, err
	}
	if usr.UpdatedAt, err = parseTime(row.UpdatedAt); err != nil {
		return user.User{}, err
	}
	if usr.LastLogin, err = parseNullTime(row.LastLogin); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) getUser(ctx context.Context, q string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(q), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.user()
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row, err := newUserRow(usr)
	if err != nil {
		return user.User{}, err
	}
	q := `INSERT INTO users
		(id, name, username, email, role, is_approved, password_hash,
		 lunch_break_start, lunch_break_end, lunch_break_overrides, created_at, updated_at, last_login)
		VALUES
		(:id, :name, :username, :email, :role, :is_approved, :password_hash,
		 :lunch_break_start, :lunch_break_end, :lunch_break_overrides, :created_at, :updated_at, :last_login)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM users ORDER BY created_at, username`); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		usr, err := row.user()
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE id = ?`, id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE username = ?`, username)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row, err := newUserRow(usr)
	if err != nil {
		return user.User{}, err
	}
	q := `UPDATE users SET
		name = :name, username = :username, email = :email, role = :role, is_approved = :is_approved,
		password_hash = :password_hash, lunch_break_start = :lunch_break_start, lunch_break_end = :lunch_break_end,
		lunch_break_overrides = :lunch_break_overrides, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	} else if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
