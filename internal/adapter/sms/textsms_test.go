package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotspot-fulfillment/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSMSNotifier_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("success with numeric messageid", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/services/sendsms/", r.URL.Path)

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "key-2", body["apikey"])
			assert.Equal(t, "13361", body["partnerID"])
			// International format expected by this provider
			assert.Equal(t, "254712345678", body["mobile"])

			w.Write([]byte(`{"responses":[{"respose-code":200,"response-description":"Success","messageid":75085465,"mobile":"254712345678"}]}`))
		}))
		defer srv.Close()

		n := NewTextSMSNotifier(config.TextSMSConfig{
			BaseURL: srv.URL, APIKey: "key-2", PartnerID: "13361", SenderID: "TextSMS",
		}, srv.Client())

		result := n.Send(ctx, "0712345678", testVoucherMessage())
		assert.True(t, result.Success)
		assert.Equal(t, "textsms", result.Gateway)
		assert.Equal(t, "75085465", result.ProviderMessageID)
	})

	t.Run("provider rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"responses":[{"respose-code":1004,"response-description":"Low credit units"}]}`))
		}))
		defer srv.Close()

		n := NewTextSMSNotifier(config.TextSMSConfig{BaseURL: srv.URL}, srv.Client())
		result := n.Send(ctx, "0712345678", testVoucherMessage())
		assert.False(t, result.Success)
		assert.Equal(t, "Low credit units", result.Error)
	})

	t.Run("empty responses array", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"responses":[]}`))
		}))
		defer srv.Close()

		n := NewTextSMSNotifier(config.TextSMSConfig{BaseURL: srv.URL}, srv.Client())
		result := n.Send(ctx, "0712345678", testVoucherMessage())
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "malformed response")
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		n := NewTextSMSNotifier(config.TextSMSConfig{BaseURL: srv.URL}, srv.Client())
		result := n.Send(ctx, "0712345678", testVoucherMessage())
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "http 503")
	})
}
