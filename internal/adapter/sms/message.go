package sms

import (
	"strings"

	"hotspot-fulfillment/internal/core/domain"
)

// RenderVoucherMessage builds the customer-facing SMS body for a
// voucher delivery. The duration line is included only when the
// package carries one.
func RenderVoucherMessage(msg domain.VoucherMessage) string {
	var b strings.Builder
	b.WriteString("Payment Successful!\n\n")
	b.WriteString("Your WiFi Voucher Details:\n")
	b.WriteString("Code: " + msg.Code + "\n")
	b.WriteString("Username: " + msg.Username + "\n")
	b.WriteString("Password: " + msg.Password + "\n")
	b.WriteString("Package: " + msg.PackageName + "\n")
	if msg.Duration != "" {
		b.WriteString("Duration: " + msg.Duration + "\n")
	}
	b.WriteString("\nConnect to WiFi and use these details to access the internet.")
	b.WriteString("\n\nThank you for your payment!")
	return b.String()
}
