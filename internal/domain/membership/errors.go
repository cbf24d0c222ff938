package membership

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
)

// Error codes raised by the membership domain
const (
	CodeInvalidPeriod        = "INVALID_PERIOD"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInvalidMethod        = "INVALID_METHOD"
	CodePeriodAlreadyPaid    = "PERIOD_ALREADY_PAID"
	CodeClientNotFound       = "CLIENT_NOT_FOUND"
	CodeCardNotFound         = "CARD_NOT_FOUND"
	CodePaymentNotFound      = "PAYMENT_NOT_FOUND"
	CodeTemplateNotFound     = "TEMPLATE_NOT_FOUND"
	CodeRenderFailure        = "RENDER_FAILURE"
	CodeStorageUploadFailure = "STORAGE_UPLOAD_FAILURE"
)

// Sentinels for errors.Is checks. DomainError matches on code, so the
// detailed errors built below compare equal to these.
var (
	ErrInvalidPeriod        = shared.NewDomainError(CodeInvalidPeriod, "Invalid period")
	ErrInvalidAmount        = shared.NewDomainError(CodeInvalidAmount, "Amount must be greater than zero")
	ErrInvalidMethod        = shared.NewDomainError(CodeInvalidMethod, "Unknown payment method")
	ErrPeriodAlreadyPaid    = shared.NewDomainError(CodePeriodAlreadyPaid, "Period is already paid")
	ErrClientNotFound       = shared.NewDomainError(CodeClientNotFound, "Client not found")
	ErrCardNotFound         = shared.NewDomainError(CodeCardNotFound, "Card not found")
	ErrPaymentNotFound      = shared.NewDomainError(CodePaymentNotFound, "Payment not found")
	ErrTemplateNotFound     = shared.NewDomainError(CodeTemplateNotFound, "Card template not found")
	ErrRenderFailure        = shared.NewDomainError(CodeRenderFailure, "Card render failed")
	ErrStorageUploadFailure = shared.NewDomainError(CodeStorageUploadFailure, "Card upload failed")
)

// NewInvalidPeriodError reports a month outside 1-12 or a half-specified period
func NewInvalidPeriodError(detail string) error {
	return shared.NewDomainError(CodeInvalidPeriod, "Invalid period: "+detail)
}

// NewPeriodAlreadyPaidError is the anti-double-billing conflict
func NewPeriodAlreadyPaidError(period Period) error {
	return shared.NewDomainError(CodePeriodAlreadyPaid, fmt.Sprintf("Period %s is already paid", period.Key()))
}

// NewClientNotFoundError is returned when a client lookup has no row
func NewClientNotFoundError(id uuid.UUID) error {
	return shared.NewDomainError(CodeClientNotFound, fmt.Sprintf("Client %s not found", id))
}

// NewCardNotFoundError is returned when a client has no active card
func NewCardNotFoundError(clientID uuid.UUID) error {
	return shared.NewDomainError(CodeCardNotFound, fmt.Sprintf("Client %s has no active card", clientID))
}

// NewPaymentNotFoundError is returned when a payment lookup has no row
func NewPaymentNotFoundError(id uuid.UUID) error {
	return shared.NewDomainError(CodePaymentNotFound, fmt.Sprintf("Payment %s not found", id))
}

// NewInvalidDateError reports a date that is not YYYY-MM-DD
func NewInvalidDateError(value string) error {
	return shared.NewDomainError("INVALID_DATE", fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", value))
}
