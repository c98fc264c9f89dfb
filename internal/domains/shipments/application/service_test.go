package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	shipmentsmemory "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/memory"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
	usersmemory "github.com/parceltrack/parcel-api-server/internal/domains/users/adapters/memory"
	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
)

type fixture struct {
	svc   *Service
	repo  *shipmentsmemory.Repository
	users *usersmemory.Repository
	idem  *shipmentsmemory.IdempotencyStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := shipmentsmemory.NewRepository()
	users := usersmemory.NewRepository()
	idem := shipmentsmemory.NewIdempotencyStore()
	svc := NewService(repo, users, WithIdempotencyStore(idem))
	return fixture{svc: svc, repo: repo, users: users, idem: idem}
}

func (f fixture) addUser(t *testing.T, id string, role usersdomain.Role, active bool) {
	t.Helper()
	_, err := f.users.Save(context.Background(), &usersdomain.User{
		ID:       id,
		Name:     "User " + id,
		Email:    id + "@example.com",
		Role:     role,
		IsActive: active,
	})
	require.NoError(t, err)
}

func createInput() ports.CreateShipmentInput {
	return ports.CreateShipmentInput{
		Sender: domain.Party{Name: "Acme Warehouse", Address: "1 Depot Rd"},
		Recipient: domain.Recipient{
			Party: domain.Party{Name: "Jamie Doe", Address: "42 Elm St"},
		},
		Package: domain.PackageInfo{Size: domain.SizeMedium},
	}
}

var (
	admin  = ports.Actor{ID: "admin-1", Role: usersdomain.RoleAdmin}
	driver = ports.Actor{ID: "driver-1", Role: usersdomain.RoleDriver}
)

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)

	shipment, err := f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, shipment.Status)
	require.True(t, domain.ValidTrackingNumber(shipment.TrackingNumber))
	require.Equal(t, admin.ID, shipment.CreatedByID)
	require.Empty(t, shipment.DeliveryCode)

	require.Len(t, shipment.History, 1)
	require.Equal(t, domain.StatusPending, shipment.History[0].Status)
	require.Equal(t, domain.NoteShipmentCreated, shipment.History[0].Note)
}

func TestCreate_WithDeliveryCode(t *testing.T) {
	f := newFixture(t)

	input := createInput()
	input.GenerateDeliveryCode = true
	shipment, err := f.svc.Create(context.Background(), input, admin.ID)
	require.NoError(t, err)
	require.Len(t, shipment.DeliveryCode, 6)
}

func TestCreate_ValidationFailure(t *testing.T) {
	f := newFixture(t)

	input := createInput()
	input.Sender.Name = ""
	_, err := f.svc.Create(context.Background(), input, admin.ID)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreate_WithIneligibleDriver(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "dispatcher-1", usersdomain.RoleDispatcher, true)
	f.addUser(t, "driver-idle", usersdomain.RoleDriver, false)

	input := createInput()
	dispatcherID := "dispatcher-1"
	input.DriverID = &dispatcherID
	_, err := f.svc.Create(context.Background(), input, admin.ID)
	require.ErrorIs(t, err, ErrDriverNotEligible)

	inactiveID := "driver-idle"
	input.DriverID = &inactiveID
	_, err = f.svc.Create(context.Background(), input, admin.ID)
	require.ErrorIs(t, err, ErrDriverNotEligible)

	missingID := "nobody"
	input.DriverID = &missingID
	_, err = f.svc.Create(context.Background(), input, admin.ID)
	require.ErrorIs(t, err, ErrDriverNotFound)
}

func TestUpdateStatus_FullLifecycle(t *testing.T) {
	f := newFixture(t)

	shipment, err := f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)

	steps := []domain.Status{
		domain.StatusPickedUp,
		domain.StatusInTransit,
		domain.StatusOutForDelivery,
		domain.StatusDelivered,
	}
	for _, target := range steps {
		shipment, err = f.svc.UpdateStatus(context.Background(), shipment.ID, ports.UpdateStatusInput{Status: target}, admin)
		require.NoError(t, err)
		require.Equal(t, target, shipment.Status)
		// The ledger head always matches the projected status.
		require.Equal(t, target, shipment.History[0].Status)
	}
	require.Len(t, shipment.History, 5)
	require.NotNil(t, shipment.DeliveredAt)
}

func TestUpdateStatus_TerminalRejected(t *testing.T) {
	f := newFixture(t)

	for _, terminal := range []domain.Status{domain.StatusDelivered, domain.StatusFailed, domain.StatusReturned} {
		shipment, err := f.svc.Create(context.Background(), createInput(), admin.ID)
		require.NoError(t, err)

		shipment, err = f.svc.UpdateStatus(context.Background(), shipment.ID, ports.UpdateStatusInput{Status: terminal}, admin)
		require.NoError(t, err)

		_, err = f.svc.UpdateStatus(context.Background(), shipment.ID, ports.UpdateStatusInput{Status: domain.StatusInTransit}, admin)
		require.ErrorIs(t, err, ErrInvalidTransition, "terminal state %s", terminal)

		// No partial writes: the rejection leaves the ledger untouched.
		current, err := f.svc.GetByID(context.Background(), shipment.ID)
		require.NoError(t, err)
		require.Equal(t, terminal, current.Status)
		require.Len(t, current.History, 2)
	}
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newFixture(t)

	shipment, err := f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), shipment.ID, ports.UpdateStatusInput{Status: "TELEPORTED"}, admin)
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateStatus_DriverOwnership(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, driver.ID, usersdomain.RoleDriver, true)

	shipment, err := f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)

	// Unassigned: the driver may not touch it.
	_, err = f.svc.UpdateStatus(context.Background(), shipment.ID, ports.UpdateStatusInput{Status: domain.StatusPickedUp}, driver)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.AssignDriver(context.Background(), shipment.ID, driver.ID)
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), shipment.ID, ports.UpdateStatusInput{Status: domain.StatusPickedUp}, driver)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPickedUp, updated.Status)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), "missing", ports.UpdateStatusInput{Status: domain.StatusPickedUp}, admin)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDeliver_Success(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, driver.ID, usersdomain.RoleDriver, true)

	input := createInput()
	input.GenerateDeliveryCode = true
	driverID := driver.ID
	input.DriverID = &driverID
	shipment, err := f.svc.Create(context.Background(), input, admin.ID)
	require.NoError(t, err)

	delivered, err := f.svc.Deliver(context.Background(), shipment.ID, ports.DeliverInput{
		DeliveryCode: shipment.DeliveryCode,
		SignatureURL: "https://files.example.com/sig.png",
		PhotoURL:     "https://files.example.com/door.jpg",
	}, driver)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	require.Equal(t, "https://files.example.com/sig.png", delivered.SignatureURL)
	require.Equal(t, "https://files.example.com/door.jpg", delivered.PhotoURL)
	require.Equal(t, domain.NoteDelivered, delivered.History[0].Note)
}

func TestDeliver_WrongCodeLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, driver.ID, usersdomain.RoleDriver, true)

	input := createInput()
	input.GenerateDeliveryCode = true
	driverID := driver.ID
	input.DriverID = &driverID
	shipment, err := f.svc.Create(context.Background(), input, admin.ID)
	require.NoError(t, err)

	wrong := "000000"
	if shipment.DeliveryCode == wrong {
		wrong = "999999"
	}
	_, err = f.svc.Deliver(context.Background(), shipment.ID, ports.DeliverInput{DeliveryCode: wrong}, driver)
	require.ErrorIs(t, err, ErrInvalidDeliveryCode)

	current, err := f.svc.GetByID(context.Background(), shipment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, current.Status)
	require.Len(t, current.History, 1)
	require.Nil(t, current.DeliveredAt)
}

func TestDeliver_NotAssigned(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, driver.ID, usersdomain.RoleDriver, true)
	f.addUser(t, "driver-2", usersdomain.RoleDriver, true)

	input := createInput()
	driverID := driver.ID
	input.DriverID = &driverID
	shipment, err := f.svc.Create(context.Background(), input, admin.ID)
	require.NoError(t, err)

	_, err = f.svc.Deliver(context.Background(), shipment.ID, ports.DeliverInput{}, ports.Actor{ID: "driver-2", Role: usersdomain.RoleDriver})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestDeliver_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, driver.ID, usersdomain.RoleDriver, true)

	input := createInput()
	driverID := driver.ID
	input.DriverID = &driverID
	shipment, err := f.svc.Create(context.Background(), input, admin.ID)
	require.NoError(t, err)

	deliverInput := ports.DeliverInput{
		SignatureURL:   "https://files.example.com/sig.png",
		IdempotencyKey: "replay-key-1",
	}
	first, err := f.svc.Deliver(context.Background(), shipment.ID, deliverInput, driver)
	require.NoError(t, err)

	// The offline queue replays the identical request after a connectivity
	// blip; the server must answer without re-applying side effects.
	second, err := f.svc.Deliver(context.Background(), shipment.ID, deliverInput, driver)
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)
	require.Len(t, second.History, len(first.History))
}

func TestDeliver_IdempotencyKeyConflict(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, driver.ID, usersdomain.RoleDriver, true)

	input := createInput()
	driverID := driver.ID
	input.DriverID = &driverID
	shipment, err := f.svc.Create(context.Background(), input, admin.ID)
	require.NoError(t, err)

	other, err := f.svc.Create(context.Background(), input, admin.ID)
	require.NoError(t, err)

	_, err = f.svc.Deliver(context.Background(), shipment.ID, ports.DeliverInput{IdempotencyKey: "key-1"}, driver)
	require.NoError(t, err)

	_, err = f.svc.Deliver(context.Background(), other.ID, ports.DeliverInput{IdempotencyKey: "key-1"}, driver)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestUpdateStatus_IdempotentReplay(t *testing.T) {
	f := newFixture(t)

	shipment, err := f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)

	input := ports.UpdateStatusInput{Status: domain.StatusPickedUp, IdempotencyKey: "key-pickup"}
	first, err := f.svc.UpdateStatus(context.Background(), shipment.ID, input, admin)
	require.NoError(t, err)
	require.Len(t, first.History, 2)

	second, err := f.svc.UpdateStatus(context.Background(), shipment.ID, input, admin)
	require.NoError(t, err)
	require.Len(t, second.History, 2)
}

func TestUpdateStatus_IdempotentReplayIntoTerminal(t *testing.T) {
	f := newFixture(t)

	shipment, err := f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)

	input := ports.UpdateStatusInput{Status: domain.StatusFailed, Note: "Recipient unreachable", IdempotencyKey: "key-failed"}
	first, err := f.svc.UpdateStatus(context.Background(), shipment.ID, input, admin)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, first.Status)

	// The shipment is now terminal, but a retry carrying the same key must
	// be answered with the applied result, not a transition error.
	second, err := f.svc.UpdateStatus(context.Background(), shipment.ID, input, admin)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, second.Status)
	require.Len(t, second.History, len(first.History))

	// Without a key the retry is a genuine conflict.
	_, err = f.svc.UpdateStatus(context.Background(), shipment.ID, ports.UpdateStatusInput{Status: domain.StatusFailed}, admin)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAssignDriver_RejectedOnTerminal(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, driver.ID, usersdomain.RoleDriver, true)

	shipment, err := f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), shipment.ID, ports.UpdateStatusInput{Status: domain.StatusReturned}, admin)
	require.NoError(t, err)

	_, err = f.svc.AssignDriver(context.Background(), shipment.ID, driver.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAssignDriver_Reassignment(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, driver.ID, usersdomain.RoleDriver, true)
	f.addUser(t, "driver-2", usersdomain.RoleDriver, true)

	shipment, err := f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)

	assigned, err := f.svc.AssignDriver(context.Background(), shipment.ID, driver.ID)
	require.NoError(t, err)
	require.Equal(t, driver.ID, *assigned.DriverID)

	reassigned, err := f.svc.AssignDriver(context.Background(), shipment.ID, "driver-2")
	require.NoError(t, err)
	require.Equal(t, "driver-2", *reassigned.DriverID)
}

func TestList_DriverScopedToOwnShipments(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, driver.ID, usersdomain.RoleDriver, true)

	mine, err := f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)
	_, err = f.svc.AssignDriver(context.Background(), mine.ID, driver.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)

	// Even an explicit filter for another driver is overridden.
	shipments, total, err := f.svc.List(context.Background(), ports.ListFilter{DriverID: "someone-else"}, driver)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, shipments, 1)
	require.Equal(t, mine.ID, shipments[0].ID)

	shipments, total, err = f.svc.List(context.Background(), ports.ListFilter{}, admin)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, shipments, 2)
}

func TestDelete_DeliveredShipmentKept(t *testing.T) {
	f := newFixture(t)

	shipment, err := f.svc.Create(context.Background(), createInput(), admin.ID)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), shipment.ID, ports.UpdateStatusInput{Status: domain.StatusDelivered}, admin)
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), shipment.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}
