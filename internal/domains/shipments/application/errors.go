package application

import (
	"errors"
	"fmt"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
)

var (
	// ErrValidation signals the request violated a domain invariant.
	ErrValidation = errors.New("invalid shipment input")
	// ErrInvalidTransition signals a mutation attempt on a finalized shipment.
	ErrInvalidTransition = errors.New("transition not allowed")
	// ErrForbidden signals the actor lacks rights over this shipment.
	ErrForbidden = errors.New("action not permitted")
	// ErrInvalidDeliveryCode signals the presented code did not match.
	ErrInvalidDeliveryCode = errors.New("delivery code rejected")
	// ErrDriverNotFound signals the assignment candidate does not exist.
	ErrDriverNotFound = errors.New("driver not found")
	// ErrDriverNotEligible signals the candidate is not an active driver.
	ErrDriverNotEligible = errors.New("driver not eligible")
	// ErrTrackingExhausted signals the tracking number retry cap was hit.
	ErrTrackingExhausted = errors.New("could not allocate a unique tracking number")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrEmptySender),
		errors.Is(err, domain.ErrEmptyRecipient),
		errors.Is(err, domain.ErrInvalidPackageSize),
		errors.Is(err, domain.ErrInvalidStatus):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, domain.ErrShipmentFinalized):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, domain.ErrDeliveryCodeMismatch):
		return fmt.Errorf("%w: %w", ErrInvalidDeliveryCode, err)
	}
	return err
}
