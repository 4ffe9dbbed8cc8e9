package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryOutcome is the terminal state of one notification try.
type DeliveryOutcome string

const (
	DeliveryOutcomeSent   DeliveryOutcome = "sent"
	DeliveryOutcomeFailed DeliveryOutcome = "failed"
)

// DeliveryAttempt is an immutable audit record of one notification try.
// Every fulfillment or resend that reaches the notification step appends
// exactly one row, success or failure.
type DeliveryAttempt struct {
	ID                uuid.UUID       `json:"id"`
	TransactionRef    string          `json:"transaction_ref"`
	Gateway           string          `json:"gateway"`
	Outcome           DeliveryOutcome `json:"outcome"`
	ProviderMessageID *string         `json:"provider_message_id,omitempty"`
	ErrorDetail       *string         `json:"error_detail,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// DeliveryResult is the structured outcome of a single Notifier.Send
// call. Transport failures are mapped into Success=false with a
// descriptive error; Send never panics across the contract boundary.
type DeliveryResult struct {
	Success           bool   `json:"success"`
	Gateway           string `json:"gateway"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}
