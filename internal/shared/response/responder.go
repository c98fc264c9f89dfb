package response

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// OK writes a success envelope with the given payload.
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// OKPage writes a success envelope carrying pagination metadata.
func OKPage(c *gin.Context, status int, message string, data any, page Pagination) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data, Pagination: &page})
}

// Fail writes a failure envelope with the given status and message.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Message: message})
}

// ErrorMapper translates a domain or application error into an APIError.
// It reports false when it does not recognize the error.
type ErrorMapper func(err error) (APIError, bool)

// Responder turns errors into failure envelopes through a mapper chain.
type Responder struct {
	mappers []ErrorMapper
}

// NewResponder builds a responder with the given mapper chain.
func NewResponder(mappers ...ErrorMapper) *Responder {
	return &Responder{mappers: mappers}
}

// AddMapper appends an error mapper to the chain.
func (r *Responder) AddMapper(mapper ErrorMapper) {
	r.mappers = append(r.mappers, mapper)
}

// RespondError tries each mapper in order, then falls back to an opaque 500.
// Unmapped errors never leak their detail to the caller.
func (r *Responder) RespondError(c *gin.Context, err error) {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		Fail(c, apiErr.Status, apiErr.Message)
		return
	}
	for _, mapper := range r.mappers {
		if mapped, ok := mapper(err); ok {
			Fail(c, mapped.Status, mapped.Message)
			return
		}
	}
	Fail(c, ErrInternal.Status, ErrInternal.Message)
}
