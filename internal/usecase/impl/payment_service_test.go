package impl

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"tradegate/config"
	"tradegate/internal/domain/entity"
	domainerrors "tradegate/internal/domain/errors"
	"tradegate/internal/domain/repository"
	"tradegate/internal/domain/service"
	"tradegate/internal/infra/auth"
	"tradegate/internal/infra/gateway"
	"tradegate/internal/infra/persistence/memory"
	"tradegate/internal/infra/qrcode"
	"tradegate/internal/infra/ratelimit"
	"tradegate/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProcessorSecret = "sk_test_secret"

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []*service.PaymentEvent
}

func (p *capturingPublisher) PublishPaymentEvent(_ context.Context, event *service.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)

	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) published() []*service.PaymentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]*service.PaymentEvent(nil), p.events...)
}

type paymentFixture struct {
	svc       usecase.PaymentUsecase
	tokens    service.TokenService
	repo      repository.PaymentRepository
	publisher *capturingPublisher
}

func testClient() usecase.ClientInfo {
	return usecase.ClientInfo{
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent",
		RequestID: "req_test",
	}
}

func newPaymentFixture(t *testing.T, handler http.HandlerFunc) *paymentFixture {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.Env.Env = config.EnvDevelopment
	cfg.SecretKey.Encryption = strings.Repeat("ab", 32)
	cfg.SecretKey.Signing = "signing-secret"
	cfg.SecretKey.Salt = "checksum-salt"
	cfg.Auth = &config.AuthConfig{
		TokenFormat:     "sealed",
		SessionTokenTTL: 7 * 24 * time.Hour,
		PaymentTokenTTL: 24 * time.Hour,
	}
	cfg.Payment = &config.PaymentConfig{
		Provider:        "paystack",
		ExpectedAmount:  300000,
		Currency:        "NGN",
		CheckoutBaseURL: "https://pay.example.com/checkout",
		Paystack: &config.PaystackConfig{
			SecretKey: testProcessorSecret,
			BaseURL:   server.URL,
		},
	}
	cfg.RateLimit = &config.RateLimitConfig{
		Verify:   config.RateLimitRule{MaxRequests: 3, Window: time.Minute},
		Validate: config.RateLimitRule{MaxRequests: 10, Window: time.Minute},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gw, err := gateway.NewPaystackGateway(cfg.Payment.Paystack, logger)
	require.NoError(t, err)

	cipher, err := auth.NewCipherService(cfg, logger)
	require.NoError(t, err)
	tokens, err := auth.NewSealedTokenService(cfg, cipher, logger)
	require.NoError(t, err)

	repo := memory.NewPaymentRepository()
	publisher := &capturingPublisher{}
	qr := qrcode.NewQRCodeService(cfg.Payment.CheckoutBaseURL, 128, "M")

	svc := NewPaymentService(cfg, ratelimit.NewMemoryLimiter(), gw, tokens, repo, publisher, qr, logger)

	return &paymentFixture{
		svc:       svc,
		tokens:    tokens,
		repo:      repo,
		publisher: publisher,
	}
}

func successfulVerifyHandler(amount int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"id": 4099260516,
				"status": "success",
				"amount": ` + strconv.FormatInt(amount, 10) + `,
				"currency": "NGN",
				"reference": "ref_123",
				"paid_at": "2024-01-01T00:00:00Z",
				"customer": {"email": "a@b.com"}
			}
		}`))
	}
}

func TestVerifyPayment_EndToEnd(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	out, err := fix.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
		Reference: "ref_123",
		Client:    testClient(),
	})
	require.NoError(t, err)

	// Amount comes back in major units.
	assert.Equal(t, int64(3000), out.Receipt.Amount)
	assert.Equal(t, "ref_123", out.Receipt.Reference)
	assert.Equal(t, "success", out.Receipt.Status)
	assert.Equal(t, "a@b.com", out.Receipt.Customer.Email)
	assert.NotEmpty(t, out.UserID)

	// The minted session token is immediately valid.
	claims, err := fix.tokens.ValidateSessionToken(out.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, out.UserID, claims.UserID)
	assert.True(t, claims.PaymentVerified)

	// Exactly one record, keyed by the processor payment id, in minor units.
	record, err := fix.repo.FindPaymentByID(context.Background(), "4099260516")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusVerified, record.Status)
	assert.Equal(t, int64(300000), record.Amount)
	assert.Equal(t, "203.0.113.7", record.IPAddress)
	assert.Equal(t, "test-agent", record.UserAgent)

	events := fix.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, "4099260516", events[0].PaymentID)
	assert.Equal(t, "verified", events[0].Status)
	assert.Equal(t, "req_test", events[0].RequestID)
}

func TestVerifyPayment_Idempotent(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	first, err := fix.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
		Reference: "ref_123",
		Client:    testClient(),
	})
	require.NoError(t, err)

	second, err := fix.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
		Reference: "ref_123",
		Client:    testClient(),
	})
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, first.Receipt.Amount, second.Receipt.Amount)

	claims, err := fix.tokens.ValidateSessionToken(second.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, claims.UserID)
}

func TestVerifyPayment_MissingReference(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	_, err := fix.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
		Reference: "  ",
		Client:    testClient(),
	})
	assert.ErrorIs(t, err, domainerrors.ErrMissingReference)
}

func TestVerifyPayment_RateLimited(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))
	client := testClient()

	for i := 0; i < 3; i++ {
		_, err := fix.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
			Reference: "ref_123",
			Client:    client,
		})
		require.NoError(t, err)
	}

	_, err := fix.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
		Reference: "ref_123",
		Client:    client,
	})
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)

	// A different client still has its own budget.
	other := client
	other.IPAddress = "198.51.100.9"
	_, err = fix.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
		Reference: "ref_123",
		Client:    other,
	})
	assert.NoError(t, err)
}

func TestVerifyPayment_NotCaptured(t *testing.T) {
	fix := newPaymentFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {"id": 77, "status": "abandoned", "amount": 300000, "currency": "NGN", "reference": "ref_123"}
		}`))
	})

	_, err := fix.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
		Reference: "ref_123",
		Client:    testClient(),
	})
	assert.ErrorIs(t, err, domainerrors.ErrPaymentNotSuccessful)
}

func TestVerifyPayment_AmountMismatch(t *testing.T) {
	// Captured, but cheaper than the product price.
	fix := newPaymentFixture(t, successfulVerifyHandler(250000))

	_, err := fix.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
		Reference: "ref_123",
		Client:    testClient(),
	})
	assert.ErrorIs(t, err, domainerrors.ErrAmountMismatch)

	_, err = fix.repo.FindPaymentByID(context.Background(), "4099260516")
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
	assert.Empty(t, fix.publisher.published())
}

func TestVerifyPayment_ProcessorError(t *testing.T) {
	fix := newPaymentFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := fix.svc.VerifyPayment(context.Background(), &usecase.VerifyPaymentInput{
		Reference: "ref_123",
		Client:    testClient(),
	})
	assert.ErrorIs(t, err, domainerrors.ErrProcessorError)
}

func TestCreateOrder_DefaultsToConfiguredPrice(t *testing.T) {
	fix := newPaymentFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("paystack order creation is local")
	})

	order, err := fix.svc.CreateOrder(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(300000), order.Amount)
	assert.Equal(t, "NGN", order.Currency)
	assert.Equal(t, "created", order.Status)
}

func signWebhook(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testProcessorSecret))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

func TestHandleWebhook_InvalidSignatureDoesNotMutate(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	body := []byte(`{"event":"charge.success","data":{"id":55,"reference":"ref_55","amount":300000,"currency":"NGN","email":"a@b.com"}}`)

	err := fix.svc.HandleWebhook(context.Background(), body, "deadbeef", testClient())
	assert.ErrorIs(t, err, domainerrors.ErrInvalidSignature)

	_, err = fix.repo.FindPaymentByID(context.Background(), "55")
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
	assert.Empty(t, fix.publisher.published())
}

func TestHandleWebhook_CapturedCreatesVerifiedRecord(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	body := []byte(`{"event":"charge.success","data":{"id":55,"reference":"ref_55","amount":300000,"currency":"NGN","email":"a@b.com"}}`)

	require.NoError(t, fix.svc.HandleWebhook(context.Background(), body, signWebhook(body), testClient()))

	record, err := fix.repo.FindPaymentByID(context.Background(), "55")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusVerified, record.Status)
	assert.Equal(t, "ref_55", record.Reference)
	assert.NotEmpty(t, record.UserID)

	events := fix.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, "verified", events[0].Status)
}

func TestHandleWebhook_FailedMarksPendingRecordFailed(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	require.NoError(t, fix.repo.CreatePayment(context.Background(), &entity.PaymentRecord{
		PaymentID: "pay_9",
		UserID:    "user_9",
		Reference: "ref_9",
		Status:    entity.PaymentStatusPending,
	}))

	body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_9","status":"failed"}}}}`)
	require.NoError(t, fix.svc.HandleWebhook(context.Background(), body, signWebhook(body), testClient()))

	record, err := fix.repo.FindPaymentByID(context.Background(), "pay_9")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusFailed, record.Status)
}

func TestHandleWebhook_FailedCannotDemoteVerifiedRecord(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	require.NoError(t, fix.repo.CreatePayment(context.Background(), &entity.PaymentRecord{
		PaymentID: "pay_9",
		UserID:    "user_9",
		Status:    entity.PaymentStatusVerified,
	}))

	body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_9","status":"failed"}}}}`)
	require.NoError(t, fix.svc.HandleWebhook(context.Background(), body, signWebhook(body), testClient()))

	record, err := fix.repo.FindPaymentByID(context.Background(), "pay_9")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusVerified, record.Status)
}

func TestHandleWebhook_RedeliveryIsNoOp(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	body := []byte(`{"event":"charge.success","data":{"id":55,"reference":"ref_55","amount":300000,"currency":"NGN","email":"a@b.com"}}`)

	require.NoError(t, fix.svc.HandleWebhook(context.Background(), body, signWebhook(body), testClient()))
	require.NoError(t, fix.svc.HandleWebhook(context.Background(), body, signWebhook(body), testClient()))

	record, err := fix.repo.FindPaymentByID(context.Background(), "55")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusVerified, record.Status)

	// The redelivered webhook must not emit a second event.
	assert.Len(t, fix.publisher.published(), 1)
}

func TestHandleWebhook_PayloadsWithoutReferenceCreateDistinctRecords(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	first := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","status":"captured","amount":50000,"currency":"INR"}}}}`)
	second := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_2","status":"captured","amount":50000,"currency":"INR"}}}}`)

	require.NoError(t, fix.svc.HandleWebhook(context.Background(), first, signWebhook(first), testClient()))
	require.NoError(t, fix.svc.HandleWebhook(context.Background(), second, signWebhook(second), testClient()))

	for _, id := range []string{"pay_1", "pay_2"} {
		record, err := fix.repo.FindPaymentByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, entity.PaymentStatusVerified, record.Status)
		assert.Empty(t, record.Reference)
	}

	// Records without a reference are not addressable by one.
	_, err := fix.repo.FindPaymentByReference(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

func TestHandleWebhook_UnknownEventIgnored(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	body := []byte(`{"event":"subscription.create","data":{"id":1}}`)
	require.NoError(t, fix.svc.HandleWebhook(context.Background(), body, signWebhook(body), testClient()))
	assert.Empty(t, fix.publisher.published())
}

func TestCheckoutQR(t *testing.T) {
	fix := newPaymentFixture(t, successfulVerifyHandler(300000))

	png, err := fix.svc.CheckoutQR("order_1")
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	_, err = fix.svc.CheckoutQR("")
	assert.ErrorIs(t, err, domainerrors.ErrOrderNotFound)
}
