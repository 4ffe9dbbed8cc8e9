package sms

import (
	"testing"

	"hotspot-fulfillment/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestRenderVoucherMessage(t *testing.T) {
	t.Run("includes all credential lines", func(t *testing.T) {
		out := RenderVoucherMessage(domain.VoucherMessage{
			Code:        "WIFI-1234",
			Username:    "WIFI-1234",
			Password:    "secret99",
			PackageName: "Daily Unlimited",
			Duration:    "24 Hours",
		})
		assert.Contains(t, out, "Code: WIFI-1234")
		assert.Contains(t, out, "Username: WIFI-1234")
		assert.Contains(t, out, "Password: secret99")
		assert.Contains(t, out, "Package: Daily Unlimited")
		assert.Contains(t, out, "Duration: 24 Hours")
	})

	t.Run("omits duration line when empty", func(t *testing.T) {
		out := RenderVoucherMessage(domain.VoucherMessage{
			Code:        "WIFI-1234",
			Username:    "WIFI-1234",
			Password:    "WIFI-1234",
			PackageName: "Weekly",
		})
		assert.NotContains(t, out, "Duration:")
	})
}
