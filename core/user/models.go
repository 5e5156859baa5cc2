package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
)

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	Role         core.Role `json:"role" bson:"role"`
	IsApproved   bool      `json:"is_approved" bson:"is_approved"`
	PasswordHash []byte    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login" bson:"last_login"` // UTC

	// teachers only
	timetable.LunchConfig `bson:",inline"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == core.RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == core.RoleTeacher }
func (u User) IsStudent() bool { return u.Role == core.RoleStudent }

// CanLogin reports whether the account is allowed in. Teachers wait for an admin approval.
func (u User) CanLogin() bool {
	return !u.IsTeacher() || u.IsApproved
}

func (u User) Identity() core.Identity {
	return core.Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (u User) Teacher() timetable.Teacher {
	return timetable.Teacher{ID: u.ID, Name: u.Name, Username: u.Username, Lunch: u.LunchConfig}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string    `json:"name" validate:"required"`
	Username        string    `json:"username" validate:"required,min=3,max=50"`
	Email           string    `json:"email" validate:"omitempty,email"`
	Role            core.Role `json:"role" validate:"required,role"`
	IsApproved      bool      `json:"is_approved"`
	Password        string    `json:"password" validate:"required"`
	PasswordConfirm string    `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.Role(core.CleanString(string(nu.Role)))
}

// LunchUpdate defines the lunch-break settings a teacher may change.
// Nil fields are left untouched, an empty bound clears it, and a non-nil Overrides map replaces all overrides.
type LunchUpdate struct {
	Start     *string                     `json:"lunch_break_start"`
	End       *string                     `json:"lunch_break_end"`
	Overrides map[string]timetable.Window `json:"lunch_break_overrides"`
}
