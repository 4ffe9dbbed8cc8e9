package ports

import (
	"context"
	"time"

	"hotspot-fulfillment/internal/core/domain"
)

// FulfillStatus is the terminal outcome of one Fulfill invocation.
type FulfillStatus string

const (
	FulfillStatusFulfilled        FulfillStatus = "FULFILLED"
	FulfillStatusAlreadyFulfilled FulfillStatus = "ALREADY_FULFILLED"
	FulfillStatusNoVoucher        FulfillStatus = "NO_VOUCHER"
	FulfillStatusNotYetCompleted  FulfillStatus = "NOT_YET_COMPLETED"
)

// FulfillResult is the structured outcome returned to every trigger
// adapter.
type FulfillResult struct {
	Status   FulfillStatus          `json:"status"`
	Voucher  *domain.Voucher        `json:"voucher,omitempty"`
	Delivery *domain.DeliveryResult `json:"delivery,omitempty"`
}

// FulfillmentService is the uniform entry point used by every trigger
// adapter (webhook callback, periodic sweep, manual operator action).
// Fulfill is safe to invoke repeatedly and concurrently for the same
/// reference: at most one voucher is ever bound, and duplicate calls
// re-notify the same voucher.
type FulfillmentService interface {
	Fulfill(ctx context.Context, ref string) (*FulfillResult, error)
	// Resend re-delivers the already-bound voucher. It never touches
	// voucher or transaction state.
	Resend(ctx context.Context, ref string) (*domain.DeliveryResult, error)
	// RecordNotification ingests a payment-gateway notification.
	RecordNotification(ctx context.Context, n domain.PaymentNotification) error
	// Attempts returns the delivery audit trail for a transaction.
	Attempts(ctx context.Context, ref string) (*domain.Transaction, []domain.DeliveryAttempt, error)
}

// Notifier abstracts one SMS delivery gateway. Send blocks with a
// bounded timeout and maps every transport failure into the result —
// callers only ever see the structured outcome.
type Notifier interface {
	Send(ctx context.Context, phone string, msg domain.VoucherMessage) domain.DeliveryResult
	Name() string
}

// VoucherImport is one row of a bulk voucher upload.
type VoucherImport struct {
	Code     string
	Username string
	Password string
}

// ImportResult summarises a bulk voucher upload.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"` // duplicate codes, left untouched
}

// VoucherService manages the voucher pool (restock and stock checks).
type VoucherService interface {
	Import(ctx context.Context, packageID, resellerID int64, batch []VoucherImport) (*ImportResult, error)
	Availability(ctx context.Context, packageID, resellerID int64) (int64, error)
}

// AuthService authenticates the configured operator.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// TokenService handles JWT token operations for operator sessions.
type TokenService interface {
	Generate(username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Username string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}
