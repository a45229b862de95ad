package auth

import "context"

type PermissionChecker interface {
	CanValidateTransactions(userPermissions []string) bool
	CanApproveHighValue(userPermissions []string) bool
	CanViewAllTransactions(userPermissions []string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	IsManager(userPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(ctx context.Context, userPermissions []string, permission string) (bool, error) {
	return c.HasAnyPermission(userPermissions, []string{permission}), nil
}

func (c *DefaultPermissionChecker) CanValidateTransactionsCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanValidateTransactions(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanApproveHighValueCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanApproveHighValue(userPermissions), nil
}

func (c *DefaultPermissionChecker) IsManagerCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.IsManager(userPermissions), nil
}

func (c *DefaultPermissionChecker) IsAdminCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.IsAdmin(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanValidateTransactions(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermValidateTransactions, PermManager, PermAdmin})
}

func (c *DefaultPermissionChecker) CanApproveHighValue(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermApproveHighValue, PermManager, PermAdmin})
}

func (c *DefaultPermissionChecker) CanViewAllTransactions(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermValidateTransactions, PermManager, PermAdmin})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsManager(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManager, PermAdmin})
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermAdmin})
}
