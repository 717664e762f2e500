// Package policy decides which operations a role may invoke.
package policy

import (
	"pizzastore/apperr"
	"pizzastore/models"
)

// Operation is a gated capability.
type Operation int

const (
	ViewOwn Operation = iota + 1
	ViewOthers
	UpdateOwnProfile
	UpdateOrderStatus
	OverrideOrderStatus
	UpdateMenu
	UpdateUsers
)

var operationNames = map[Operation]string{
	ViewOwn:             "view own records",
	ViewOthers:          "view other users' records",
	UpdateOwnProfile:    "update own profile",
	UpdateOrderStatus:   "update order status",
	OverrideOrderStatus: "override order status",
	UpdateMenu:          "update the menu",
	UpdateUsers:         "update users",
}

func (op Operation) String() string {
	if s, ok := operationNames[op]; ok {
		return s
	}
	return "unknown operation"
}

// Principal is the identity an operation is evaluated against.
type Principal struct {
	Login string          `json:"login"`
	Role  models.UserRole `json:"role"`
}

var grants = map[models.UserRole]map[Operation]bool{
	models.RoleCustomer: {
		ViewOwn:          true,
		UpdateOwnProfile: true,
	},
	models.RoleDriver: {
		ViewOwn:           true,
		ViewOthers:        true,
		UpdateOwnProfile:  true,
		UpdateOrderStatus: true,
	},
	models.RoleManager: {
		ViewOwn:             true,
		ViewOthers:          true,
		UpdateOwnProfile:    true,
		UpdateOrderStatus:   true,
		OverrideOrderStatus: true,
		UpdateMenu:          true,
		UpdateUsers:         true,
	},
}

// Permits reports whether role may perform op. Unknown roles get nothing.
func Permits(role models.UserRole, op Operation) bool {
	r, err := models.ParseRole(string(role))
	if err != nil {
		return false
	}
	return grants[r][op]
}

// Require returns an Unauthorized error unless p may perform op.
func Require(p Principal, op Operation) error {
	if Permits(p.Role, op) {
		return nil
	}
	return apperr.Errorf(apperr.Unauthorized, "policy.Require",
		"role %q is not allowed to %s", p.Role, op)
}

// CanAccessUser allows a principal to read its own records, or anyone's with ViewOthers.
func CanAccessUser(p Principal, login string) error {
	if p.Login != "" && p.Login == login && Permits(p.Role, ViewOwn) {
		return nil
	}
	if Permits(p.Role, ViewOthers) {
		return nil
	}
	return apperr.Errorf(apperr.Unauthorized, "policy.CanAccessUser",
		"%s may not view records of %s", p.Login, login)
}
