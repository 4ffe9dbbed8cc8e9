package dto

import (
	"time"

	"hotspot-fulfillment/internal/core/domain"
	"hotspot-fulfillment/internal/core/ports"
)

// PaymentCallbackRequest is the gateway notification payload posted to
// the public callback endpoint.
type PaymentCallbackRequest struct {
	Ref        string `json:"ref" binding:"required"`
	Status     string `json:"status" binding:"required,oneof=pending completed failed"`
	Phone      string `json:"phone" binding:"required"`
	PackageID  int64  `json:"package_id" binding:"required,gt=0"`
	ResellerID int64  `json:"reseller_id" binding:"required,gt=0"`
	Amount     int64  `json:"amount" binding:"gte=0"`
	Receipt    string `json:"receipt"`
}

// LoginRequest is the operator login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// VoucherImportRequest is a bulk voucher upload.
type VoucherImportRequest struct {
	PackageID  int64              `json:"package_id" binding:"required,gt=0"`
	ResellerID int64              `json:"reseller_id" binding:"required,gt=0"`
	Vouchers   []VoucherImportRow `json:"vouchers" binding:"required,min=1,dive"`
}

// VoucherImportRow is one voucher in a bulk upload. Username and
// password default to the code when omitted.
type VoucherImportRow struct {
	Code     string `json:"code" binding:"required"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AvailabilityQuery selects the voucher partition to count.
type AvailabilityQuery struct {
	PackageID  int64 `form:"package_id" binding:"required,gt=0"`
	ResellerID int64 `form:"reseller_id" binding:"required,gt=0"`
}

// AvailabilityResponse reports the claimable stock of a partition.
type AvailabilityResponse struct {
	PackageID  int64 `json:"package_id"`
	ResellerID int64 `json:"reseller_id"`
	Available  int64 `json:"available"`
}

// CallbackResponse acknowledges a notification whose status did not
// trigger fulfillment.
type CallbackResponse struct {
	Ref      string `json:"ref"`
	Recorded bool   `json:"recorded"`
}

// FulfillResponse is the uniform fulfillment outcome.
type FulfillResponse struct {
	Ref      string            `json:"ref"`
	Status   string            `json:"status"`
	Voucher  *VoucherResponse  `json:"voucher,omitempty"`
	Delivery *DeliveryResponse `json:"delivery,omitempty"`
}

// VoucherResponse is the customer-visible slice of a voucher.
type VoucherResponse struct {
	Code     string `json:"code"`
	Username string `json:"username"`
}

// DeliveryResponse is the outcome of one SMS send.
type DeliveryResponse struct {
	Success           bool   `json:"success"`
	Gateway           string `json:"gateway"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

// TransactionResponse is the operator view of a transaction.
type TransactionResponse struct {
	Ref         string  `json:"ref"`
	Phone       string  `json:"phone"`
	PackageID   int64   `json:"package_id"`
	ResellerID  int64   `json:"reseller_id"`
	Amount      int64   `json:"amount"`
	Status      string  `json:"status"`
	Receipt     *string `json:"receipt,omitempty"`
	VoucherCode *string `json:"voucher_code,omitempty"`
	Note        *string `json:"note,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// DeliveryAttemptResponse is one audit row.
type DeliveryAttemptResponse struct {
	ID                string  `json:"id"`
	Gateway           string  `json:"gateway"`
	Outcome           string  `json:"outcome"`
	ProviderMessageID *string `json:"provider_message_id,omitempty"`
	ErrorDetail       *string `json:"error_detail,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// AttemptsResponse pairs a transaction with its delivery trail.
type AttemptsResponse struct {
	Transaction TransactionResponse       `json:"transaction"`
	Attempts    []DeliveryAttemptResponse `json:"attempts"`
}

// FromFulfillResult maps a service result onto the wire shape.
func FromFulfillResult(ref string, r *ports.FulfillResult) FulfillResponse {
	resp := FulfillResponse{Ref: ref, Status: string(r.Status)}
	if r.Voucher != nil {
		username, _ := r.Voucher.Credentials()
		resp.Voucher = &VoucherResponse{Code: r.Voucher.Code, Username: username}
	}
	if r.Delivery != nil {
		resp.Delivery = &DeliveryResponse{
			Success:           r.Delivery.Success,
			Gateway:           r.Delivery.Gateway,
			ProviderMessageID: r.Delivery.ProviderMessageID,
			Error:             r.Delivery.Error,
		}
	}
	return resp
}

// FromTransaction maps a domain transaction onto the wire shape.
func FromTransaction(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		Ref:         tx.Ref,
		Phone:       tx.Phone,
		PackageID:   tx.PackageID,
		ResellerID:  tx.ResellerID,
		Amount:      tx.Amount,
		Status:      string(tx.Status),
		Receipt:     tx.Receipt,
		VoucherCode: tx.VoucherCode,
		Note:        tx.Note,
		CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   tx.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// FromDeliveryAttempts maps audit rows onto the wire shape.
func FromDeliveryAttempts(attempts []domain.DeliveryAttempt) []DeliveryAttemptResponse {
	out := make([]DeliveryAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, DeliveryAttemptResponse{
			ID:                a.ID.String(),
			Gateway:           a.Gateway,
			Outcome:           string(a.Outcome),
			ProviderMessageID: a.ProviderMessageID,
			ErrorDetail:       a.ErrorDetail,
			CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
