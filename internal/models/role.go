package models

import (
	"fmt"
	"strings"
)

// Role identifies who is logged in
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleVet      Role = "vet"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// StaffRoles are the roles that log in with a shared role password
var StaffRoles = []Role{RoleAdmin, RoleVet, RoleStaff}

// ParseRole parses a role name case-insensitively
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleVet, RoleStaff, RoleCustomer:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

// Title returns the display name of the role
func (r Role) Title() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleVet:
		return "Veterinarian"
	case RoleStaff:
		return "Staff Member"
	default:
		return "Customer"
	}
}
