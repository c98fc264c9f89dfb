// Package response implements the JSON envelope every endpoint returns:
// {success, message, data?, pagination?}. Clients, including the driver app's
// offline replay loop, parse this shape to tell domain rejections apart from
// transport failures.
package response

import (
	"fmt"
	"net/http"
)

// Pagination describes the page of a list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Envelope is the wire shape of every response body.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// APIError is a domain or validation failure carrying the HTTP status it
// should be reported with.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e APIError) Error() string {
	return e.Message
}

// NewAPIError builds an APIError with a formatted message.
func NewAPIError(status int, format string, args ...any) APIError {
	return APIError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// Common failure templates.
var (
	ErrNotFound = APIError{Status: http.StatusNotFound, Message: "Resource not found"}
	ErrInternal = APIError{Status: http.StatusInternalServerError, Message: "Internal server error"}
)
