package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/users/ports"
)

// Service orchestrates the users bounded context use cases.
type Service struct {
	repo ports.Repository
}

// NewService wires the users service with its dependencies.
func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new user.
func (s *Service) Create(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	user, err := domain.NewUser(uuid.NewString(), input.Name, input.Email, input.Role)
	if err != nil {
		return nil, mapError(err)
	}
	user.Phone = input.Phone
	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// GetByID loads a single user.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

// ListByRole returns users holding the given role.
func (s *Service) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	users, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

// SetActive toggles the active flag. Inactive drivers stop being eligible
// for shipment assignment.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	user.IsActive = active
	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

var _ ports.Service = (*Service)(nil)
