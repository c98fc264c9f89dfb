package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validShipment() *Shipment {
	return &Shipment{
		ID:     "ship-1",
		Status: StatusPending,
		Sender: Party{Name: "Acme Warehouse", Address: "1 Depot Rd"},
		Recipient: Recipient{
			Party: Party{Name: "Jamie Doe", Address: "42 Elm St"},
		},
		Package: PackageInfo{Size: SizeSmall},
	}
}

func TestValidate_Success(t *testing.T) {
	require.NoError(t, validShipment().Validate())
}

func TestValidate_RequiresSenderAndRecipient(t *testing.T) {
	s := validShipment()
	s.Sender.Name = "  "
	require.ErrorIs(t, s.Validate(), ErrEmptySender)

	s = validShipment()
	s.Recipient.Address = ""
	require.ErrorIs(t, s.Validate(), ErrEmptyRecipient)
}

func TestValidate_RejectsUnknownPackageSize(t *testing.T) {
	s := validShipment()
	s.Package.Size = "GIGANTIC"
	require.ErrorIs(t, s.Validate(), ErrInvalidPackageSize)
}

func TestStatus_Terminal(t *testing.T) {
	for _, status := range []Status{StatusDelivered, StatusFailed, StatusReturned} {
		require.True(t, status.Terminal(), "expected %s to be terminal", status)
	}
	for _, status := range []Status{StatusPending, StatusPickedUp, StatusInTransit, StatusOutForDelivery} {
		require.False(t, status.Terminal(), "expected %s to be non-terminal", status)
	}
}

func TestCanTransitionTo_TerminalShipment(t *testing.T) {
	s := validShipment()
	s.Status = StatusDelivered
	require.ErrorIs(t, s.CanTransitionTo(StatusInTransit), ErrShipmentFinalized)

	s.Status = StatusFailed
	require.ErrorIs(t, s.CanTransitionTo(StatusPending), ErrShipmentFinalized)
}

func TestCanTransitionTo_UnknownStatus(t *testing.T) {
	s := validShipment()
	require.ErrorIs(t, s.CanTransitionTo("LOST_IN_SPACE"), ErrInvalidStatus)
}

func TestCanTransitionTo_AnyValidTargetWhileActive(t *testing.T) {
	s := validShipment()
	s.Status = StatusOutForDelivery
	for _, target := range []Status{StatusPending, StatusInTransit, StatusDelivered, StatusFailed, StatusReturned} {
		require.NoError(t, s.CanTransitionTo(target))
	}
}

func TestVerifyDeliveryCode(t *testing.T) {
	s := validShipment()
	s.DeliveryCode = "042913"
	require.NoError(t, s.VerifyDeliveryCode("042913"))
	require.ErrorIs(t, s.VerifyDeliveryCode("000000"), ErrDeliveryCodeMismatch)
	require.ErrorIs(t, s.VerifyDeliveryCode("42913"), ErrDeliveryCodeMismatch)
}

func TestVerifyDeliveryCode_NoCodeAssigned(t *testing.T) {
	s := validShipment()
	require.NoError(t, s.VerifyDeliveryCode(""))
	require.NoError(t, s.VerifyDeliveryCode("123456"))
}

func TestAssignedTo(t *testing.T) {
	s := validShipment()
	require.False(t, s.AssignedTo("driver-1"))

	driverID := "driver-1"
	s.DriverID = &driverID
	require.True(t, s.AssignedTo("driver-1"))
	require.False(t, s.AssignedTo("driver-2"))
}
