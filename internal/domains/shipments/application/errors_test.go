package application

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
)

func TestMapError_WrapsDomainSentinels(t *testing.T) {
	err := mapError(domain.ErrShipmentFinalized)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.ErrorIs(t, err, domain.ErrShipmentFinalized)
	require.Equal(t, "transition not allowed: shipment already finalized", err.Error())

	err = mapError(domain.ErrDeliveryCodeMismatch)
	require.ErrorIs(t, err, ErrInvalidDeliveryCode)
	require.Equal(t, "delivery code rejected: invalid delivery code", err.Error())

	err = mapError(domain.ErrEmptySender)
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, mapError(nil))
}
