package mapper

import (
	"time"

	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/users/ports"
)

// CreateUserRequest is the POST /users body.
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role" binding:"required"`
}

// SetActiveRequest is the PATCH /users/:id/active body.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// User is the transport representation of a user.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToCreateInput converts the creation request into the service input.
func ToCreateInput(req CreateUserRequest) ports.CreateUserInput {
	return ports.CreateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Role:  usersdomain.Role(req.Role),
	}
}

// FromDomainUser converts a domain user to the transport shape.
func FromDomainUser(u *usersdomain.User) User {
	if u == nil {
		return User{}
	}
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// FromDomainUsers converts a result list.
func FromDomainUsers(users []*usersdomain.User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, FromDomainUser(u))
	}
	return out
}
