package ports

import (
	"context"

	"hotspot-fulfillment/internal/core/domain"
)

// VoucherRepository defines persistence operations for the voucher pool.
type VoucherRepository interface {
	// Claim atomically selects the oldest active voucher in the
	// (package, reseller) partition and transitions it to used, setting
	// used_at. Returns (nil, nil) when the partition is exhausted —
	// an expected condition, not an error. Under concurrent callers each
	// voucher is returned to at most one of them.
	Claim(ctx context.Context, packageID, resellerID int64) (*domain.Voucher, error)
	// Release returns a claimed voucher to the active pool, clearing
	// used_at. Used only by the orchestrator when it loses the bind race
	// and its claimed voucher was never exposed to anyone.
	Release(ctx context.Context, voucherID int64) error
	// BindCustomer sets the customer phone on a used voucher.
	BindCustomer(ctx context.Context, voucherID int64, phone string) error
	GetByCode(ctx context.Context, code string) (*domain.Voucher, error)
	// Insert adds a new active voucher to the pool. Returns false when a
	// voucher with the same code already exists (the row is left untouched).
	Insert(ctx context.Context, v *domain.Voucher) (bool, error)
	CountActive(ctx context.Context, packageID, resellerID int64) (int64, error)
}

// TransactionRepository defines persistence operations for payment
// transactions.
type TransactionRepository interface {
	GetByRef(ctx context.Context, ref string) (*domain.Transaction, error)
	// Upsert records a payment notification. Status moves are monotonic:
	// a completed transaction is never demoted by a replayed notification.
	Upsert(ctx context.Context, n domain.PaymentNotification) error
	// BindVoucher writes the claimed voucher onto the transaction only if
	// no voucher is currently bound. Returns false when a concurrent run
	// already bound one — the caller must discard its claim and re-read.
	BindVoucher(ctx context.Context, ref string, voucherID int64, code string) (bool, error)
	SetNote(ctx context.Context, ref string, note string) error
	// ListUnfulfilled returns completed transactions with no voucher
	// bound, oldest first, for the periodic sweep.
	ListUnfulfilled(ctx context.Context, limit int) ([]domain.Transaction, error)
}

// DeliveryRepository stores the append-only notification audit trail.
type DeliveryRepository interface {
	Append(ctx context.Context, attempt *domain.DeliveryAttempt) error
	ListByRef(ctx context.Context, ref string) ([]domain.DeliveryAttempt, error)
}

// PackageRepository is a read-only lookup used for SMS rendering.
type PackageRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Package, error)
}
