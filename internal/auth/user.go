package auth

import (
	"context"
	"errors"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

var ErrForbidden = errors.New("forbidden")

// Clinic roles. Permissions are what gates access, the role is kept for
// display and seeding.
const (
	RolePetugas   = "petugas"
	RoleBendahara = "bendahara"
	RoleManajer   = "manajer"
	RoleAdmin     = "admin"
)

const (
	PermValidateTransactions = "validate_transactions"
	PermApproveHighValue     = "approve_high_value"
	PermManager              = "manager"
	PermAdmin                = "admin"
)

type User struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) HasAnyPermission(permissions []string) bool {
	for _, userPerm := range u.Permissions {
		for _, requiredPerm := range permissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

// CanValidateTransactions reports whether the user may approve, reject
// or request revision on pending transactions.
func (u *User) CanValidateTransactions() bool {
	return u.HasAnyPermission([]string{PermValidateTransactions, PermManager, PermAdmin})
}

// CanApproveHighValue reports whether the user may validate transactions
// above the high value threshold.
func (u *User) CanApproveHighValue() bool {
	return u.HasAnyPermission([]string{PermApproveHighValue, PermManager, PermAdmin})
}

func (u *User) IsManager() bool {
	return u.HasAnyPermission([]string{PermManager, PermAdmin})
}

func (u *User) IsAdmin() bool {
	return u.HasPermission(PermAdmin)
}
