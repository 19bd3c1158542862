package dto

import (
	"net/http"

	"github.com/erp/salescore/internal/domain/shared"
)

// Codes produced by the HTTP layer itself. Domain codes come from
// shared.DomainError and pass through unchanged.
const (
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeInvalidJSON = "INVALID_JSON"
	ErrCodeRateLimited = "RATE_LIMITED"
	ErrCodeTooLarge    = "PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// input problems, including states that make an edit impossible
	shared.CodeValidation:        http.StatusBadRequest,
	shared.CodeInvalidInput:      http.StatusBadRequest,
	shared.CodeInvalidState:      http.StatusBadRequest,
	shared.CodeVoidInstead:       http.StatusBadRequest,
	shared.CodeNothingToTransfer: http.StatusBadRequest,
	shared.CodeQuantityExceeded:  http.StatusBadRequest,
	ErrCodeBadRequest:            http.StatusBadRequest,
	ErrCodeInvalidJSON:           http.StatusBadRequest,

	shared.CodeUnauthorized: http.StatusUnauthorized,
	shared.CodeForbidden:    http.StatusForbidden,
	shared.CodeNotFound:     http.StatusNotFound,

	shared.CodeAlreadyExists:      http.StatusConflict,
	shared.CodeConflict:           http.StatusConflict,
	shared.CodeConcurrentModified: http.StatusConflict,
	shared.CodeAlreadyPosted:      http.StatusConflict,
	shared.CodePeriodLocked:       http.StatusConflict,

	ErrCodeTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the status for code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
