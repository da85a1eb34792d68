// Package gateway contains the server-to-server payment processor clients.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tradegate/config"
	"tradegate/internal/domain/entity"
	"tradegate/internal/domain/service"

	"github.com/pkg/errors"
)

const defaultPaystackBaseURL = "https://api.paystack.co"

// paystackGateway implements PaymentGateway against the Paystack API.
// The secret key authenticates every server-to-server call and never leaves
// this process.
type paystackGateway struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewPaystackGateway is the constructor for paystackGateway.
func NewPaystackGateway(cfg *config.PaystackConfig, logger *slog.Logger) (service.PaymentGateway, error) {
	if cfg == nil || cfg.SecretKey == "" {
		return nil, errors.New("paystack secret key must be provided")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultPaystackBaseURL
	}

	// Paystack signs webhook bodies with the account secret key unless a
	// dedicated webhook secret is configured.
	webhookSecret := cfg.WebhookSecret
	if webhookSecret == "" {
		webhookSecret = cfg.SecretKey
	}

	return &paystackGateway{
		secretKey:     cfg.SecretKey,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}, nil
}

// paystackEnvelope is the outer response shape of every Paystack endpoint.
type paystackEnvelope struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Data    paystackTransaction `json:"data"`
}

type paystackTransaction struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference"`
	PaidAt    string          `json:"paid_at"`
	Customer  entity.Customer `json:"customer"`
}

// VerifyTransaction asks Paystack to verify a transaction by its reference.
func (g *paystackGateway) VerifyTransaction(ctx context.Context, reference string) (*service.Transaction, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", g.baseURL, reference)

	return g.fetchTransaction(ctx, url)
}

// FetchPayment looks up a transaction by Paystack's numeric transaction id.
func (g *paystackGateway) FetchPayment(ctx context.Context, paymentID string) (*service.Transaction, error) {
	url := fmt.Sprintf("%s/transaction/%s", g.baseURL, paymentID)

	return g.fetchTransaction(ctx, url)
}

func (g *paystackGateway) fetchTransaction(ctx context.Context, url string) (*service.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "paystack request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read paystack response")
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap(err, "malformed paystack response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Warn("Paystack API error",
			slog.Int("status_code", resp.StatusCode),
			slog.String("message", envelope.Message),
		)

		return nil, errors.Errorf("paystack returned status %d: %s", resp.StatusCode, envelope.Message)
	}

	if !envelope.Status {
		return nil, errors.Errorf("paystack verification failed: %s", envelope.Message)
	}

	return toTransaction(&envelope.Data), nil
}

// CreateOrder has no Paystack equivalent; a locally-minted order carries the
// checkout metadata for the hosted widget.
func (g *paystackGateway) CreateOrder(_ context.Context, amount int64, currency string) (*entity.Order, error) {
	now := time.Now()

	return &entity.Order{
		ID:        fmt.Sprintf("order_%d", now.UnixMilli()),
		Amount:    amount,
		Currency:  currency,
		Receipt:   fmt.Sprintf("receipt_%d", now.UnixMilli()),
		Status:    "created",
		CreatedAt: now,
	}, nil
}

// VerifyCheckoutSignature is unsupported for Paystack; the hosted widget does
// not attach a client-side signature.
func (g *paystackGateway) VerifyCheckoutSignature(_, _, _ string) bool {
	return false
}

// VerifyWebhookSignature checks the HMAC-SHA512 signature Paystack sends in
// the x-paystack-signature header, computed over the raw request body.
func (g *paystackGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(g.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func toTransaction(data *paystackTransaction) *service.Transaction {
	paidAt, err := time.Parse(time.RFC3339, data.PaidAt)
	if err != nil {
		paidAt = time.Time{}
	}

	return &service.Transaction{
		PaymentID: strconv.FormatInt(data.ID, 10),
		Reference: data.Reference,
		Status:    data.Status,
		Amount:    data.Amount,
		Currency:  data.Currency,
		PaidAt:    paidAt,
		Customer:  data.Customer,
	}
}
