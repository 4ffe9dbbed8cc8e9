package sms

import (
	"fmt"
	"net/http"

	"hotspot-fulfillment/config"
	"hotspot-fulfillment/internal/core/ports"
)

// Gateway names accepted by config sms.gateway.
const (
	GatewayUmeskia      = "umeskia"
	GatewayTextSMS      = "textsms"
	GatewayHostPinnacle = "hostpinnacle"
)

// NewNotifier builds the configured delivery gateway client. An
// unknown gateway name is a startup error, not a runtime fallback.
func NewNotifier(cfg config.SMSConfig) (ports.Notifier, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Gateway {
	case GatewayUmeskia:
		return NewUmeskiaNotifier(cfg.Umeskia, client), nil
	case GatewayTextSMS:
		return NewTextSMSNotifier(cfg.TextSMS, client), nil
	case GatewayHostPinnacle:
		return NewHostPinnacleNotifier(cfg.HostPinnacle, client), nil
	default:
		return nil, fmt.Errorf("unknown sms gateway %q", cfg.Gateway)
	}
}
