package parcelserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	shipmentsapp "github.com/parceltrack/parcel-api-server/internal/domains/shipments/application"
	shipmentsports "github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
	usersapp "github.com/parceltrack/parcel-api-server/internal/domains/users/application"
	usersports "github.com/parceltrack/parcel-api-server/internal/domains/users/ports"
	"github.com/parceltrack/parcel-api-server/internal/shared/response"
)

// shipmentErrorMapper translates shipment application errors into the
// envelope's status/message pairs.
func shipmentErrorMapper(err error) (response.APIError, bool) {
	switch {
	case errors.Is(err, shipmentsports.ErrNotFound):
		return response.NewAPIError(http.StatusNotFound, "Shipment not found"), true
	case errors.Is(err, shipmentsapp.ErrDriverNotFound):
		return response.NewAPIError(http.StatusNotFound, "Driver not found"), true
	case errors.Is(err, shipmentsapp.ErrForbidden):
		return response.NewAPIError(http.StatusForbidden, "Not allowed to modify this shipment"), true
	case errors.Is(err, shipmentsapp.ErrInvalidDeliveryCode):
		return response.NewAPIError(http.StatusForbidden, "Invalid delivery code"), true
	case errors.Is(err, shipmentsapp.ErrInvalidTransition):
		return response.NewAPIError(http.StatusBadRequest, "Shipment is already in a final state"), true
	case errors.Is(err, shipmentsapp.ErrDriverNotEligible):
		return response.NewAPIError(http.StatusBadRequest, "User is not an active driver"), true
	case errors.Is(err, shipmentsapp.ErrValidation):
		return response.NewAPIError(http.StatusBadRequest, "Invalid shipment data: %v", err), true
	case errors.Is(err, shipmentsports.ErrIdempotencyConflict):
		return response.NewAPIError(http.StatusConflict, "Idempotency key already used with a different request"), true
	}
	return response.APIError{}, false
}

// userErrorMapper translates users application errors.
func userErrorMapper(err error) (response.APIError, bool) {
	switch {
	case errors.Is(err, usersports.ErrNotFound):
		return response.NewAPIError(http.StatusNotFound, "User not found"), true
	case errors.Is(err, usersapp.ErrInvalidInput):
		return response.NewAPIError(http.StatusBadRequest, "Invalid user data: %v", err), true
	}
	return response.APIError{}, false
}

var defaultResponder = response.NewResponder(shipmentErrorMapper, userErrorMapper)

func respondServiceError(c *gin.Context, err error) {
	defaultResponder.RespondError(c, err)
}
