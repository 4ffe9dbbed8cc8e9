package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVoucher_Credentials_Defaults(t *testing.T) {
	v := &Voucher{Code: "V001"}
	user, pass := v.Credentials()
	assert.Equal(t, "V001", user)
	assert.Equal(t, "V001", pass)
}

func TestVoucher_Credentials_Explicit(t *testing.T) {
	v := &Voucher{Code: "V001", Username: "wifi-user", Password: "s3cret"}
	user, pass := v.Credentials()
	assert.Equal(t, "wifi-user", user)
	assert.Equal(t, "s3cret", pass)
}

func TestVoucher_Credentials_PartialDefault(t *testing.T) {
	v := &Voucher{Code: "V001", Username: "wifi-user"}
	user, pass := v.Credentials()
	assert.Equal(t, "wifi-user", user)
	assert.Equal(t, "V001", pass)
}

func TestTransaction_IsCompleted(t *testing.T) {
	tx := &Transaction{Status: TransactionStatusPending}
	assert.False(t, tx.IsCompleted())

	tx.Status = TransactionStatusCompleted
	assert.True(t, tx.IsCompleted())

	tx.Status = TransactionStatusFailed
	assert.False(t, tx.IsCompleted())
}

func TestTransaction_IsFulfilled(t *testing.T) {
	tx := &Transaction{
		Ref:       "ABC123",
		Status:    TransactionStatusCompleted,
		CreatedAt: time.Now(),
	}
	assert.False(t, tx.IsFulfilled())

	empty := ""
	tx.VoucherCode = &empty
	assert.False(t, tx.IsFulfilled())

	code := "V001"
	tx.VoucherCode = &code
	assert.True(t, tx.IsFulfilled())
}
