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

// HostPinnacleNotifier delivers vouchers through the HostPinnacle SMS
// portal. The provider takes a GET request with query parameters and
// international-format (254...) phone numbers.
type HostPinnacleNotifier struct {
	cfg    config.HostPinnacleConfig
	client *http.Client
}

// NewHostPinnacleNotifier creates a HostPinnacle gateway client.
func NewHostPinnacleNotifier(cfg config.HostPinnacleConfig, client *http.Client) *HostPinnacleNotifier {
	return &HostPinnacleNotifier{cfg: cfg, client: client}
}

// Name returns the gateway identifier recorded on delivery attempts.
func (n *HostPinnacleNotifier) Name() string { return GatewayHostPinnacle }

type hostPinnacleResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	Reason        string `json:"reason"`
}

func (n *HostPinnacleNotifier) Send(ctx context.Context, phone string, msg domain.VoucherMessage) domain.DeliveryResult {
	q := url.Values{
		"userid":         {n.cfg.UserID},
		"password":       {n.cfg.Password},
		"mobile":         {NormalizeIntl(phone)},
		"msg":            {RenderVoucherMessage(msg)},
		"senderid":       {n.cfg.SenderID},
		"msgType":        {"text"},
		"duplicatecheck": {"true"},
		"output":         {"json"},
		"sendMethod":     {"quick"},
	}

	endpoint := strings.TrimRight(n.cfg.BaseURL, "/") + "/SMSApi/send?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return failure(GatewayHostPinnacle, fmt.Sprintf("building request: %v", err))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return failure(GatewayHostPinnacle, fmt.Sprintf("sending request: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(GatewayHostPinnacle, fmt.Sprintf("reading response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return failure(GatewayHostPinnacle, fmt.Sprintf("http %d: %s", resp.StatusCode, truncate(body)))
	}

	var parsed hostPinnacleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failure(GatewayHostPinnacle, fmt.Sprintf("malformed response: %s", truncate(body)))
	}
	if !strings.EqualFold(parsed.Status, "success") {
		detail := parsed.Reason
		if detail == "" {
			detail = "unknown provider error"
		}
		return failure(GatewayHostPinnacle, detail)
	}

	return domain.DeliveryResult{
		Success:           true,
		Gateway:           GatewayHostPinnacle,
		ProviderMessageID: parsed.TransactionID,
	}
}
