package sms

import "strings"

// Kenyan MSISDNs arrive in several shapes: "0712345678", "712345678",
// "254712345678", "+254712345678". Each gateway wants exactly one of
// the local or international forms, so both normalizers are exported
// to the gateway clients in this package.

// digitsOnly strips everything that is not a decimal digit.
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeIntl converts a phone number to international format
// (254XXXXXXXXX).
func NormalizeIntl(phone string) string {
	p := digitsOnly(phone)
	if strings.HasPrefix(p, "0") {
		return "254" + p[1:]
	}
	// Bare subscriber number without country code or trunk prefix
	if len(p) == 9 && (p[0] == '7' || p[0] == '1') {
		return "254" + p
	}
	return p
}

// NormalizeLocal converts a phone number to local format (07XXXXXXXX).
func NormalizeLocal(phone string) string {
	p := digitsOnly(phone)
	if strings.HasPrefix(p, "254") {
		return "0" + p[3:]
	}
	if len(p) == 9 && (p[0] == '7' || p[0] == '1') {
		return "0" + p
	}
	return p
}
