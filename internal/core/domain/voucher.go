package domain

import "time"

// VoucherStatus represents the lifecycle state of a voucher.
type VoucherStatus string

const (
	VoucherStatusActive  VoucherStatus = "active"
	VoucherStatusUsed    VoucherStatus = "used"
	VoucherStatusExpired VoucherStatus = "expired"
)

// Voucher is a single-use WiFi access credential tied to a
// (package, reseller) partition. A voucher transitions active -> used
// exactly once; once used, customer_phone and used_at are immutable.
type Voucher struct {
	ID            int64         `json:"id"`
	Code          string        `json:"code"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"-"`
	PackageID     int64         `json:"package_id"`
	ResellerID    int64         `json:"reseller_id"`
	Status        VoucherStatus `json:"status"`
	CustomerPhone *string       `json:"customer_phone,omitempty"`
	UsedAt        *time.Time    `json:"used_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Credentials returns the login username and password, falling back to
// the voucher code when either is unset.
func (v *Voucher) Credentials() (username, password string) {
	username = v.Username
	if username == "" {
		username = v.Code
	}
	password = v.Password
	if password == "" {
		password = v.Code
	}
	return username, password
}

// VoucherMessage carries everything the notifier needs to render the
// delivery SMS.
type VoucherMessage struct {
	Code        string
	Username    string
	Password    string
	PackageName string
	Duration    string
}
