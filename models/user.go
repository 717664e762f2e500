package models

import (
	"fmt"
	"strings"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleCustomer UserRole = "Customer"
	RoleDriver   UserRole = "Driver"
	RoleManager  UserRole = "Manager"
)

// Roles lists every role in ascending order of privilege.
var Roles = []UserRole{RoleCustomer, RoleDriver, RoleManager}

// ParseRole accepts any casing and surrounding padding; legacy rows were stored
// in fixed-width char columns.
func ParseRole(s string) (UserRole, error) {
	v := strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(v, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q (expected Customer, Driver or Manager)", s)
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Normalize returns the canonical spelling, or r unchanged when it is unknown.
func (r UserRole) Normalize() UserRole {
	if p, err := ParseRole(string(r)); err == nil {
		return p
	}
	return r
}

type User struct {
	Login         string   `json:"login" gorm:"column:login;primaryKey;size:50" validate:"required,max=50"`
	Password      string   `json:"-" gorm:"column:password;not null;size:100" validate:"required"`
	Role          UserRole `json:"role" gorm:"column:role;not null;size:20;default:'Customer'"`
	FavoriteItems string   `json:"favorite_items" gorm:"column:favoriteitems;size:400" validate:"max=400"`
	PhoneNum      string   `json:"phone_num" gorm:"column:phonenum;size:20" validate:"max=20"`
}

func (User) TableName() string { return "users" }
