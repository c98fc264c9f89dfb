package ports

import (
	"context"

	"github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
)

// CreateUserInput carries the fields needed to register a user.
type CreateUserInput struct {
	Name  string
	Email string
	Phone string
	Role  domain.Role
}

// Service exposes the users use cases to adapters.
type Service interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.User, error)
}
