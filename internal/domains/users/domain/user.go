package domain

import (
	"errors"
	"strings"
	"time"
)

// Role is the closed set of platform roles.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleDispatcher Role = "DISPATCHER"
	RoleDriver     Role = "DRIVER"
)

var (
	ErrEmptyName   = errors.New("name is required")
	ErrInvalidMail = errors.New("email must contain '@'")
	ErrInvalidRole = errors.New("role is invalid")
)

// User represents a platform account. Credentials live with the external
// identity provider; this record only carries what the core needs.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser builds a user ensuring required invariants.
func NewUser(id, name, email string, role Role) (*User, error) {
	user := &User{ID: id, IsActive: true}
	if err := user.SetName(name); err != nil {
		return nil, err
	}
	if err := user.SetEmail(email); err != nil {
		return nil, err
	}
	if err := user.SetRole(role); err != nil {
		return nil, err
	}
	return user, nil
}

// SetName trims and validates the display name.
func (u *User) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	u.Name = name
	return nil
}

// SetEmail validates the address shape if present.
func (u *User) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if email != "" && !strings.Contains(email, "@") {
		return ErrInvalidMail
	}
	u.Email = email
	return nil
}

// SetRole rejects roles outside the closed set.
func (u *User) SetRole(role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	u.Role = role
	return nil
}

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDispatcher, RoleDriver:
		return true
	default:
		return false
	}
}
