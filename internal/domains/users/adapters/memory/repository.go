package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/users/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory user persistence adapter.
type Repository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	now   func() time.Time
}

func NewRepository() *Repository {
	return &Repository{users: map[string]*domain.User{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	clone := *user
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[clone.ID]; ok {
		clone.CreatedAt = existing.CreatedAt
	} else {
		clone.CreatedAt = r.now()
	}
	clone.UpdatedAt = r.now()
	r.users[clone.ID] = &clone
	saved := clone
	return &saved, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *Repository) ListByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.User, 0)
	for _, user := range r.users {
		if role != "" && user.Role != role {
			continue
		}
		clone := *user
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}
