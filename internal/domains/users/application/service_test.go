package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parceltrack/parcel-api-server/internal/domains/users/adapters/memory"
	"github.com/parceltrack/parcel-api-server/internal/domains/users/application"
	"github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/users/ports"
)

func TestService_Create_Success(t *testing.T) {
	svc := application.NewService(memory.NewRepository())

	user, err := svc.Create(context.Background(), ports.CreateUserInput{
		Name:  "  Maya Ortiz  ",
		Email: "maya@example.com",
		Phone: "+1-555-0134",
		Role:  domain.RoleDriver,
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "Maya Ortiz", user.Name)
	require.Equal(t, domain.RoleDriver, user.Role)
	require.True(t, user.IsActive)
	require.False(t, user.CreatedAt.IsZero())
}

func TestService_Create_InvalidInput(t *testing.T) {
	svc := application.NewService(memory.NewRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, ports.CreateUserInput{Name: "", Role: domain.RoleAdmin})
	require.ErrorIs(t, err, application.ErrInvalidInput)

	_, err = svc.Create(ctx, ports.CreateUserInput{Name: "Sam", Email: "not-an-address", Role: domain.RoleAdmin})
	require.ErrorIs(t, err, application.ErrInvalidInput)

	_, err = svc.Create(ctx, ports.CreateUserInput{Name: "Sam", Role: domain.Role("SUPERUSER")})
	require.ErrorIs(t, err, application.ErrInvalidInput)
}

func TestService_ListByRole(t *testing.T) {
	svc := application.NewService(memory.NewRepository())
	ctx := context.Background()

	for _, in := range []ports.CreateUserInput{
		{Name: "Bea", Role: domain.RoleDriver},
		{Name: "Ada", Role: domain.RoleDriver},
		{Name: "Cem", Role: domain.RoleDispatcher},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	drivers, err := svc.ListByRole(ctx, domain.RoleDriver)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	require.Equal(t, "Ada", drivers[0].Name)
	require.Equal(t, "Bea", drivers[1].Name)

	all, err := svc.ListByRole(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestService_SetActive(t *testing.T) {
	svc := application.NewService(memory.NewRepository())
	ctx := context.Background()

	user, err := svc.Create(ctx, ports.CreateUserInput{Name: "Ida", Role: domain.RoleDriver})
	require.NoError(t, err)

	updated, err := svc.SetActive(ctx, user.ID, false)
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	fetched, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, fetched.IsActive)

	_, err = svc.SetActive(ctx, "missing", true)
	require.ErrorIs(t, err, ports.ErrNotFound)
}
