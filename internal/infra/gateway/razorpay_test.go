package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tradegate/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRazorpayServer(t *testing.T, handler http.HandlerFunc) *razorpayGateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw, err := NewRazorpayGateway(&config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "rzp_test_secret",
		WebhookSecret: "whsec_test",
		BaseURL:       server.URL,
	}, discardLogger())
	require.NoError(t, err)

	return gw.(*razorpayGateway)
}

func TestRazorpayGateway_FetchPayment(t *testing.T) {
	gw := newRazorpayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/pay_ABC123", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "pay_ABC123",
			"order_id": "order_XYZ789",
			"status": "captured",
			"amount": 50000,
			"currency": "INR",
			"email": "buyer@example.com",
			"created_at": 1704067200
		}`))
	})

	txn, err := gw.FetchPayment(context.Background(), "pay_ABC123")
	require.NoError(t, err)

	assert.Equal(t, "pay_ABC123", txn.PaymentID)
	assert.Equal(t, "order_XYZ789", txn.OrderID)
	assert.True(t, txn.Captured())
	assert.Equal(t, int64(50000), txn.Amount)
	assert.Equal(t, "INR", txn.Currency)
	assert.Equal(t, "buyer@example.com", txn.Customer.Email)
}

func TestRazorpayGateway_FetchPayment_FailedStatus(t *testing.T) {
	gw := newRazorpayServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "pay_ABC123", "status": "failed", "amount": 50000, "currency": "INR"}`))
	})

	txn, err := gw.FetchPayment(context.Background(), "pay_ABC123")
	require.NoError(t, err)
	assert.False(t, txn.Captured())
}

func TestRazorpayGateway_FetchPayment_APIError(t *testing.T) {
	gw := newRazorpayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": "BAD_REQUEST_ERROR", "description": "The id provided does not exist"}}`))
	})

	_, err := gw.FetchPayment(context.Background(), "pay_missing")
	assert.Error(t, err)
}

func TestRazorpayGateway_CreateOrder(t *testing.T) {
	gw := newRazorpayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(50000), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, float64(1), body["payment_capture"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "order_XYZ789",
			"amount": 50000,
			"currency": "INR",
			"receipt": "receipt_1",
			"status": "created"
		}`))
	})

	order, err := gw.CreateOrder(context.Background(), 50000, "INR")
	require.NoError(t, err)

	assert.Equal(t, "order_XYZ789", order.ID)
	assert.Equal(t, int64(50000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "created", order.Status)
}

func TestRazorpayGateway_VerifyCheckoutSignature(t *testing.T) {
	gw := newRazorpayServer(t, nil)

	mac := hmac.New(sha256.New, []byte("rzp_test_secret"))
	mac.Write([]byte("order_XYZ789|pay_ABC123"))
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, gw.VerifyCheckoutSignature("order_XYZ789", "pay_ABC123", valid))
	assert.False(t, gw.VerifyCheckoutSignature("order_XYZ789", "pay_OTHER", valid))
	assert.False(t, gw.VerifyCheckoutSignature("order_XYZ789", "pay_ABC123", "deadbeef"))
	assert.False(t, gw.VerifyCheckoutSignature("order_XYZ789", "pay_ABC123", ""))
}

func TestRazorpayGateway_VerifyWebhookSignature(t *testing.T) {
	gw := newRazorpayServer(t, nil)

	body := []byte(`{"event":"payment.captured","payload":{}}`)

	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, gw.VerifyWebhookSignature(body, valid))
	assert.False(t, gw.VerifyWebhookSignature(body, "deadbeef"))
	assert.False(t, gw.VerifyWebhookSignature([]byte(`{"event":"payment.failed"}`), valid))
}

func TestRazorpayGateway_VerifyWebhookSignature_NoSecretConfigured(t *testing.T) {
	gw, err := NewRazorpayGateway(&config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
	}, discardLogger())
	require.NoError(t, err)

	body := []byte(`{"event":"payment.captured","payload":{}}`)

	// A forged signature computed with the empty key must not pass.
	mac := hmac.New(sha256.New, []byte(""))
	mac.Write(body)
	forged := hex.EncodeToString(mac.Sum(nil))

	assert.False(t, gw.VerifyWebhookSignature(body, forged))
	assert.False(t, gw.VerifyWebhookSignature(body, ""))
}

func TestRazorpayGateway_RequiresCredentials(t *testing.T) {
	_, err := NewRazorpayGateway(&config.RazorpayConfig{KeyID: "rzp_test_key"}, discardLogger())
	assert.Error(t, err)

	_, err = NewRazorpayGateway(nil, discardLogger())
	assert.Error(t, err)
}
