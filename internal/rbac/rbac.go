package rbac

import "jerrygfit/api/internal/domain"

type Action string

const (
	// ActionOwnContent covers CRUD on rows the caller owns.
	ActionOwnContent Action = "own_content"
	ActionGenerate   Action = "generate"
	ActionExport     Action = "export"
	ActionListUsers  Action = "list_users"
)

func Can(role domain.UserRole, action Action) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleCreator, domain.RoleCoach, domain.RoleUser:
		return action == ActionOwnContent || action == ActionGenerate || action == ActionExport
	default:
		return false
	}
}

// Normalize maps a stored role onto the closed set; superusers are admins
// regardless of the stored role.
func Normalize(role string, superuser bool) domain.UserRole {
	if superuser {
		return domain.RoleAdmin
	}
	if parsed, ok := domain.ParseUserRole(role); ok {
		return parsed
	}
	return domain.RoleUser
}
