package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"hotspot-fulfillment/config"
	"hotspot-fulfillment/internal/core/domain"
)

// UmeskiaNotifier delivers vouchers through the Umeskia SMS API.
// The provider expects form-encoded POST bodies and local-format
// (07XXXXXXXX) phone numbers.
type UmeskiaNotifier struct {
	cfg    config.UmeskiaConfig
	client *http.Client
}

// NewUmeskiaNotifier creates an Umeskia gateway client.
func NewUmeskiaNotifier(cfg config.UmeskiaConfig, client *http.Client) *UmeskiaNotifier {
	return &UmeskiaNotifier{cfg: cfg, client: client}
}

// Name returns the gateway identifier recorded on delivery attempts.
func (n *UmeskiaNotifier) Name() string { return GatewayUmeskia }

type umeskiaResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
}

// Send posts the rendered voucher message. Success requires both an
// HTTP 200 and status == "success" in the response body; the provider
// reports some failures inside a 200 response.
func (n *UmeskiaNotifier) Send(ctx context.Context, phone string, msg domain.VoucherMessage) domain.DeliveryResult {
	form := url.Values{
		"api_key":   {n.cfg.APIKey},
		"app_id":    {n.cfg.AppID},
		"sender_id": {n.cfg.SenderID},
		"message":   {RenderVoucherMessage(msg)},
		"phone":     {NormalizeLocal(phone)},
	}

	endpoint := strings.TrimRight(n.cfg.BaseURL, "/") + "/api/v1/sms/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return failure(GatewayUmeskia, fmt.Sprintf("building request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return failure(GatewayUmeskia, fmt.Sprintf("sending request: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(GatewayUmeskia, fmt.Sprintf("reading response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		return failure(GatewayUmeskia, fmt.Sprintf("http %d: %s", resp.StatusCode, truncate(body)))
	}

	var parsed umeskiaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failure(GatewayUmeskia, fmt.Sprintf("malformed response: %s", truncate(body)))
	}
	if parsed.Status != "success" {
		detail := parsed.Message
		if detail == "" {
			detail = "unknown provider error"
		}
		return failure(GatewayUmeskia, detail)
	}

	return domain.DeliveryResult{
		Success:           true,
		Gateway:           GatewayUmeskia,
		ProviderMessageID: parsed.MessageID,
	}
}

func failure(gateway, detail string) domain.DeliveryResult {
	return domain.DeliveryResult{Gateway: gateway, Error: detail}
}

// truncate keeps provider error bodies short enough for audit rows.
func truncate(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}
