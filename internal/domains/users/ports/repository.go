package ports

import (
	"context"
	"errors"

	"github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
)

var ErrNotFound = errors.New("user not found")

// Repository persists platform users.
type Repository interface {
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
}
