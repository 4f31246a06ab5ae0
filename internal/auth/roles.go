package auth

import "github.com/ironvault/ironvault/internal/models"

// Action is a capability checked by the authorization gate before every
// mutating or privileged operation.
type Action string

const (
	ActionTransfer             Action = "transfer"
	ActionDeposit              Action = "deposit"
	ActionViewOwnAccounts      Action = "view_own_accounts"
	ActionViewCustomerAccounts Action = "view_customer_accounts"
	ActionViewAuditLogs        Action = "view_audit_logs"
	ActionViewAllUsers         Action = "view_all_users"
	ActionUpdateUser           Action = "update_user"
	ActionDeleteUser           Action = "delete_user"
)

var rolePermissions = map[models.Role]map[Action]bool{
	models.RoleCustomer: {
		ActionTransfer:        true,
		ActionDeposit:         true,
		ActionViewOwnAccounts: true,
	},
	models.RoleManager: {
		ActionViewOwnAccounts:      true,
		ActionViewCustomerAccounts: true,
		ActionDeleteUser:           true,
	},
	models.RoleAdmin: {
		ActionViewOwnAccounts: true,
		ActionViewAuditLogs:   true,
		ActionViewAllUsers:    true,
		ActionUpdateUser:      true,
	},
}

// CanPerform is the stateless authorization predicate. Unknown roles and
// unknown actions are denied.
func CanPerform(role models.Role, action Action) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return perms[action]
}
