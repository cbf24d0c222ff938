package dto

import (
	"net/http"
	"strings"
)

// API error codes. Every code sent to clients has the ERR_ prefix; the
// domain raises the same names without it (PERIOD_ALREADY_PAID).
const (
	ErrCodeInternal           = "ERR_INTERNAL"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeBodyTooLarge = "ERR_BODY_TOO_LARGE"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeTokenRevoked is sent after logout or deactivation of the user
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"

	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Membership codes
const (
	ErrCodeClientNotFound    = "ERR_CLIENT_NOT_FOUND"
	ErrCodeCardNotFound      = "ERR_CARD_NOT_FOUND"
	ErrCodeCardImageNotFound = "ERR_CARD_IMAGE_NOT_FOUND"
	ErrCodePaymentNotFound   = "ERR_PAYMENT_NOT_FOUND"
	ErrCodePeriodAlreadyPaid = "ERR_PERIOD_ALREADY_PAID"
	ErrCodeInvalidPeriod     = "ERR_INVALID_PERIOD"
	ErrCodeInvalidAmount     = "ERR_INVALID_AMOUNT"
	ErrCodeInvalidMethod     = "ERR_INVALID_METHOD"
	ErrCodeInvalidDate       = "ERR_INVALID_DATE"

	ErrCodeTemplateNotFound   = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeRenderFailure      = "ERR_RENDER_FAILURE"
	ErrCodeStorageUnavailable = "ERR_STORAGE_UPLOAD_FAILURE"
)

// statusByCode lists the API codes whose status is not derived from
// their name. ERR_INVALID_* codes missing here are 400, anything else 500.
var statusByCode = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeClientNotFound:      http.StatusNotFound,
	ErrCodeCardNotFound:        http.StatusNotFound,
	ErrCodeCardImageNotFound:   http.StatusNotFound,
	ErrCodePaymentNotFound:     http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodePeriodAlreadyPaid:   http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	ErrCodeTemplateNotFound:   http.StatusInternalServerError,
	ErrCodeRenderFailure:      http.StatusInternalServerError,
	ErrCodeStorageUnavailable: http.StatusServiceUnavailable,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// domainAliases are domain codes whose API name is not just ERR_<code>
var domainAliases = map[string]string{
	"VALIDATION_ERROR":      ErrCodeValidation,
	"INTERNAL_ERROR":        ErrCodeInternal,
	"PASSWORD_HASH_ERROR":   ErrCodeInternal,
	"MESSAGE_RENDER_FAILED": ErrCodeInternal,
}

// NormalizeErrorCode turns a domain code into its API code. Codes that
// already carry the ERR_ prefix are returned unchanged.
func NormalizeErrorCode(code string) string {
	switch {
	case code == "":
		return ErrCodeInternal
	case strings.HasPrefix(code, "ERR_"):
		return code
	}
	if alias, ok := domainAliases[code]; ok {
		return alias
	}
	return "ERR_" + code
}

// GetHTTPStatus returns the status sent with an API code
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "ERR_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
