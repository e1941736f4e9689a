package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"payments/internal/processor"
	"payments/internal/repository"
	"payments/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository/processor errors to HTTP
// status codes. Raw processor payloads never reach callers; only the
// translated sentinel errors do.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, processor.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOwnerID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrUnsupportedCurrency),
		errors.Is(err, service.ErrInvalidInstrumentRef),
		errors.Is(err, service.ErrInvalidPaymentID),
		errors.Is(err, service.ErrInvalidCardID),
		errors.Is(err, service.ErrInvalidBankAccountID),
		errors.Is(err, service.ErrInvalidEncryptedData),
		errors.Is(err, service.ErrEmptyPatch):
		return http.StatusBadRequest

	// Ownership mismatch
	case errors.Is(err, service.ErrInstrumentOwnerMismatch):
		return http.StatusForbidden

	// Precondition unmet: valid id, wrong state
	case errors.Is(err, service.ErrInstructionsNotReady):
		return http.StatusConflict

	// Processor explicitly rejected; not retryable
	case errors.Is(err, service.ErrPaymentRejected),
		errors.Is(err, processor.ErrDeclined):
		return http.StatusUnprocessableEntity

	// Timeout talking to the processor; retryable with the same
	// idempotency key
	case errors.Is(err, processor.ErrTimeout):
		return http.StatusGatewayTimeout

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
