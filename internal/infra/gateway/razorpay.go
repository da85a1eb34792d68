package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tradegate/config"
	"tradegate/internal/domain/entity"
	"tradegate/internal/domain/service"

	"github.com/pkg/errors"
)

const defaultRazorpayBaseURL = "https://api.razorpay.com"

// razorpayGateway implements PaymentGateway against the Razorpay API.
// Checkout signatures are HMAC-SHA256 over "order_id|payment_id" keyed with
// the key secret; webhook signatures are HMAC-SHA256 over the raw body keyed
// with the webhook secret.
type razorpayGateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewRazorpayGateway is the constructor for razorpayGateway.
func NewRazorpayGateway(cfg *config.RazorpayConfig, logger *slog.Logger) (service.PaymentGateway, error) {
	if cfg == nil || cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, errors.New("razorpay key id and key secret must be provided")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultRazorpayBaseURL
	}

	return &razorpayGateway{
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		baseURL:       baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}, nil
}

type razorpayPayment struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Email      string `json:"email"`
	CreatedAt  int64  `json:"created_at"`
	CapturedAt int64  `json:"captured_at"`
}

type razorpayOrder struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// VerifyTransaction treats the reference as a Razorpay payment id and fetches it.
func (g *razorpayGateway) VerifyTransaction(ctx context.Context, reference string) (*service.Transaction, error) {
	return g.FetchPayment(ctx, reference)
}

// FetchPayment looks up a payment by id, the double check behind the checkout
// signature validation.
func (g *razorpayGateway) FetchPayment(ctx context.Context, paymentID string) (*service.Transaction, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", g.baseURL, paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)

	body, err := g.do(req)
	if err != nil {
		return nil, err
	}

	var payment razorpayPayment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, errors.Wrap(err, "malformed razorpay payment response")
	}

	paidAt := time.Time{}
	if payment.CapturedAt > 0 {
		paidAt = time.Unix(payment.CapturedAt, 0).UTC()
	}

	return &service.Transaction{
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Reference: payment.ID,
		Status:    payment.Status,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		PaidAt:    paidAt,
		Customer:  entity.Customer{Email: payment.Email},
	}, nil
}

// CreateOrder registers a checkout order with immediate payment capture.
func (g *razorpayGateway) CreateOrder(ctx context.Context, amount int64, currency string) (*entity.Order, error) {
	payload, err := json.Marshal(map[string]any{
		"amount":          amount,
		"currency":        currency,
		"receipt":         fmt.Sprintf("receipt_%d", time.Now().UnixMilli()),
		"payment_capture": 1,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	body, err := g.do(req)
	if err != nil {
		return nil, err
	}

	var order razorpayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, errors.Wrap(err, "malformed razorpay order response")
	}

	return &entity.Order{
		ID:        order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Receipt:   order.Receipt,
		Status:    order.Status,
		CreatedAt: time.Unix(order.CreatedAt, 0).UTC(),
	}, nil
}

// VerifyCheckoutSignature checks the signature the checkout widget returned
// for a completed payment.
func (g *razorpayGateway) VerifyCheckoutSignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature Razorpay sends in
// the X-Razorpay-Signature header, computed over the raw request body.
// Without a configured webhook secret every signature is rejected, otherwise
// an empty key would let anyone forge a valid signature.
func (g *razorpayGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if g.webhookSecret == "" {
		g.logger.Warn("webhook signature rejected, no webhook secret configured")

		return false
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *razorpayGateway) do(req *http.Request) ([]byte, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "razorpay request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read razorpay response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Warn("Razorpay API error",
			slog.Int("status_code", resp.StatusCode),
			slog.String("path", req.URL.Path),
		)

		return nil, errors.Errorf("razorpay returned status %d", resp.StatusCode)
	}

	return body, nil
}
