package core

// Roles
const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

type Role string

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Identity is the authenticated caller as seen by the services.
type Identity struct {
	ID       string
	Username string
	Role     Role
}

func (id Identity) IsAdmin() bool   { return id.Role == RoleAdmin }
func (id Identity) IsTeacher() bool { return id.Role == RoleTeacher }
func (id Identity) IsStudent() bool { return id.Role == RoleStudent }
