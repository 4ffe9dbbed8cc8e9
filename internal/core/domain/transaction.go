package domain

import "time"

// TransactionStatus represents the payment lifecycle state reported by
// the external gateway.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// NoteNoVoucher marks a completed transaction whose partition had no
// active voucher at fulfillment time. The transaction stays eligible for
// retry once the pool is restocked.
const NoteNoVoucher = "NO_VOUCHER"

// Transaction records one payment event and its fulfillment outcome.
// The reference is the gateway's checkout request id and is the sole
// external identity of the row.
type Transaction struct {
	Ref         string            `json:"ref"`
	Phone       string            `json:"phone"`
	PackageID   int64             `json:"package_id"`
	ResellerID  int64             `json:"reseller_id"`
	Amount      int64             `json:"amount"` // In smallest unit (e.g., KES cents)
	Status      TransactionStatus `json:"status"`
	Receipt     *string           `json:"receipt,omitempty"` // Gateway receipt identifier
	VoucherID   *int64            `json:"voucher_id,omitempty"`
	VoucherCode *string           `json:"voucher_code,omitempty"`
	Note        *string           `json:"note,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// IsCompleted returns true if the gateway confirmed the payment.
func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}

// IsFulfilled returns true if a voucher has been bound to this transaction.
func (t *Transaction) IsFulfilled() bool {
	return t.VoucherCode != nil && *t.VoucherCode != ""
}

// PaymentNotification is the record the payment-gateway collaborator
// hands to the pipeline on charge initiation or confirmation.
type PaymentNotification struct {
	Ref        string
	Status     TransactionStatus
	Phone      string
	PackageID  int64
	ResellerID int64
	Amount     int64
	Receipt    *string
}
