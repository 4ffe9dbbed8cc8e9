package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hotspot-fulfillment/config"
	"hotspot-fulfillment/internal/core/domain"
)

// TextSMSNotifier delivers vouchers through the TextSMS bulk API.
// The provider takes a JSON POST and international-format (254...)
// phone numbers.
type TextSMSNotifier struct {
	cfg    config.TextSMSConfig
	client *http.Client
}

// NewTextSMSNotifier creates a TextSMS gateway client.
func NewTextSMSNotifier(cfg config.TextSMSConfig, client *http.Client) *TextSMSNotifier {
	return &TextSMSNotifier{cfg: cfg, client: client}
}

// Name returns the gateway identifier recorded on delivery attempts.
func (n *TextSMSNotifier) Name() string { return GatewayTextSMS }

type textSMSRequest struct {
	APIKey    string `json:"apikey"`
	PartnerID string `json:"partnerID"`
	Message   string `json:"message"`
	Shortcode string `json:"shortcode"`
	Mobile    string `json:"mobile"`
}

// Field names follow the provider's wire format, typos included:
// the per-message status code is spelled "respose-code".
type textSMSResponse struct {
	Responses []struct {
		ResponseCode        int    `json:"respose-code"`
		ResponseDescription string `json:"response-description"`
		MessageID           any    `json:"messageid"`
	} `json:"responses"`
}

func (n *TextSMSNotifier) Send(ctx context.Context, phone string, msg domain.VoucherMessage) domain.DeliveryResult {
	payload := textSMSRequest{
		APIKey:    n.cfg.APIKey,
		PartnerID: n.cfg.PartnerID,
		Message:   RenderVoucherMessage(msg),
		Shortcode: n.cfg.SenderID,
		Mobile:    NormalizeIntl(phone),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return failure(GatewayTextSMS, fmt.Sprintf("encoding request: %v", err))
	}

	endpoint := strings.TrimRight(n.cfg.BaseURL, "/") + "/api/services/sendsms/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return failure(GatewayTextSMS, fmt.Sprintf("building request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return failure(GatewayTextSMS, fmt.Sprintf("sending request: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(GatewayTextSMS, fmt.Sprintf("reading response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return failure(GatewayTextSMS, fmt.Sprintf("http %d: %s", resp.StatusCode, truncate(respBody)))
	}

	var parsed textSMSResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Responses) == 0 {
		return failure(GatewayTextSMS, fmt.Sprintf("malformed response: %s", truncate(respBody)))
	}

	first := parsed.Responses[0]
	if first.ResponseCode != 200 {
		detail := first.ResponseDescription
		if detail == "" {
			detail = fmt.Sprintf("provider code %d", first.ResponseCode)
		}
		return failure(GatewayTextSMS, detail)
	}

	return domain.DeliveryResult{
		Success:           true,
		Gateway:           GatewayTextSMS,
		ProviderMessageID: stringifyMessageID(first.MessageID),
	}
}

// stringifyMessageID tolerates the provider returning messageid as
// either a JSON number or a string.
func stringifyMessageID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
