package domain

// UserRole is the account-level role stored on users.role.
type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleCreator UserRole = "creator"
	RoleCoach   UserRole = "coach"
	RoleAdmin   UserRole = "admin"
)

var UserRoles = []UserRole{RoleUser, RoleCreator, RoleCoach, RoleAdmin}

func ParseUserRole(raw string) (UserRole, bool) { return parse(raw, UserRoles) }

func (r UserRole) Valid() bool { _, ok := ParseUserRole(string(r)); return ok }

func (r *UserRole) UnmarshalJSON(data []byte) (err error) {
	*r, err = unmarshal(data, UserRoles, "role")
	return err
}
