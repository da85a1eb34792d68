// Package impl contains the concrete use case implementations.
package impl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tradegate/config"
	"tradegate/internal/domain/constants"
	"tradegate/internal/domain/entity"
	domainerrors "tradegate/internal/domain/errors"
	"tradegate/internal/domain/repository"
	"tradegate/internal/domain/service"
	"tradegate/internal/errors"
	"tradegate/internal/usecase"
)

// minorUnitsPerMajor converts processor amounts (kobo, paise, cents) to the
// major currency unit for client-facing receipts.
const minorUnitsPerMajor = 100

type paymentService struct {
	cfg         *config.Config
	limiter     service.RateLimiter
	gateway     service.PaymentGateway
	tokens      service.TokenService
	paymentRepo repository.PaymentRepository
	publisher   service.EventPublisher
	qrcode      service.QRCodeService
	logger      *slog.Logger
	now         func() time.Time
}

// NewPaymentService creates a new payment verification service instance
func NewPaymentService(
	cfg *config.Config,
	limiter service.RateLimiter,
	gateway service.PaymentGateway,
	tokens service.TokenService,
	paymentRepo repository.PaymentRepository,
	publisher service.EventPublisher,
	qrcode service.QRCodeService,
	logger *slog.Logger,
) usecase.PaymentUsecase {
	return &paymentService{
		cfg:         cfg,
		limiter:     limiter,
		gateway:     gateway,
		tokens:      tokens,
		paymentRepo: paymentRepo,
		publisher:   publisher,
		qrcode:      qrcode,
		logger:      logger,
		now:         time.Now,
	}
}

// VerifyPayment verifies a transaction by reference against the processor.
func (s *paymentService) VerifyPayment(ctx context.Context, input *usecase.VerifyPaymentInput) (*usecase.VerifyPaymentOutput, error) {
	rule := s.cfg.RateLimit.Verify
	identifier := constants.RateLimitPurposePaymentVerify + ":" + input.Client.IPAddress
	if !s.limiter.Allow(identifier, rule.MaxRequests, rule.Window) {
		s.logRejection(ctx, "verification rate limit exceeded", input.Reference, input.Client)

		return nil, domainerrors.ErrRateLimited
	}

	if strings.TrimSpace(input.Reference) == "" {
		return nil, domainerrors.ErrMissingReference
	}

	txn, err := s.gateway.VerifyTransaction(ctx, input.Reference)
	if err != nil {
		s.logger.ErrorContext(ctx, "Processor verification call failed",
			slog.String("reference", input.Reference),
			slog.String("client_ip", input.Client.IPAddress),
			slog.String("user_agent", input.Client.UserAgent),
			slog.Any("error", err),
		)

		return nil, domainerrors.ErrProcessorError
	}

	if !txn.Captured() {
		s.logRejection(ctx, "payment not captured", input.Reference, input.Client,
			slog.String("processor_status", txn.Status),
		)

		return nil, domainerrors.ErrPaymentNotSuccessful
	}

	// Exact match in the minor currency unit, so a smaller unrelated
	// transaction cannot be replayed against this product.
	if txn.Amount != s.cfg.Payment.ExpectedAmount {
		s.logRejection(ctx, "payment amount mismatch", input.Reference, input.Client,
			slog.Int64("captured_amount", txn.Amount),
			slog.Int64("expected_amount", s.cfg.Payment.ExpectedAmount),
		)

		return nil, domainerrors.ErrAmountMismatch
	}

	userID, err := s.recordVerifiedPayment(ctx, txn, input.Client, deriveUserID(txn.Customer.Email, txn.PaymentID))
	if err != nil {
		return nil, err
	}

	sessionToken, err := s.tokens.GenerateSessionToken(userID, true)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to mint session token", slog.Any("error", err))

		return nil, domainerrors.ErrInternalError
	}

	s.publishEvent(ctx, &service.PaymentEvent{
		RequestID: input.Client.RequestID,
		PaymentID: txn.PaymentID,
		UserID:    userID,
		OrderID:   txn.OrderID,
		Reference: txn.Reference,
		Amount:    txn.Amount,
		Currency:  txn.Currency,
		Status:    string(entity.PaymentStatusVerified),
	})

	return &usecase.VerifyPaymentOutput{
		Receipt: &entity.Receipt{
			Status:    txn.Status,
			Amount:    txn.Amount / minorUnitsPerMajor,
			Reference: txn.Reference,
			PaidAt:    txn.PaidAt,
			Customer:  txn.Customer,
		},
		SessionToken: sessionToken,
		UserID:       userID,
	}, nil
}

// VerifyPaymentSecure verifies a checkout completion by its processor signature.
func (s *paymentService) VerifyPaymentSecure(ctx context.Context, input *usecase.VerifyPaymentSecureInput) (*usecase.VerifyPaymentSecureOutput, error) {
	rule := s.cfg.RateLimit.Verify
	identifier := constants.RateLimitPurposePaymentVerify + ":" + input.Client.IPAddress
	if !s.limiter.Allow(identifier, rule.MaxRequests, rule.Window) {
		s.logRejection(ctx, "verification rate limit exceeded", input.PaymentID, input.Client)

		return nil, domainerrors.ErrRateLimited
	}

	if input.OrderID == "" || input.PaymentID == "" || input.Signature == "" {
		return nil, domainerrors.ErrMissingPaymentData
	}

	if !s.gateway.VerifyCheckoutSignature(input.OrderID, input.PaymentID, input.Signature) {
		s.logRejection(ctx, "checkout signature mismatch", input.PaymentID, input.Client,
			slog.String("order_id", input.OrderID),
		)

		return nil, domainerrors.ErrInvalidSignature
	}

	record := &entity.PaymentRecord{
		PaymentID: input.PaymentID,
		OrderID:   input.OrderID,
		Amount:    s.cfg.Payment.ExpectedAmount,
		Currency:  s.cfg.Payment.Currency,
	}

	// Double check against the processor when it answers; the signature has
	// already proven the completion data authentic.
	if txn, err := s.gateway.FetchPayment(ctx, input.PaymentID); err == nil {
		if !txn.Captured() {
			s.logRejection(ctx, "payment not captured", input.PaymentID, input.Client,
				slog.String("processor_status", txn.Status),
			)

			return nil, domainerrors.ErrPaymentNotSuccessful
		}
		record.Amount = txn.Amount
		record.Currency = txn.Currency
		record.Reference = txn.Reference
	} else {
		s.logger.WarnContext(ctx, "Payment fetch double-check unavailable",
			slog.String("payment_id", input.PaymentID),
			slog.Any("error", err),
		)
	}

	userID, err := s.recordVerifiedPaymentRecord(ctx, record, input.Client, deriveTimedUserID(input.Email, s.now()))
	if err != nil {
		return nil, err
	}

	sessionToken, err := s.tokens.GenerateSessionToken(userID, true)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to mint session token", slog.Any("error", err))

		return nil, domainerrors.ErrInternalError
	}

	s.publishEvent(ctx, &service.PaymentEvent{
		RequestID: input.Client.RequestID,
		PaymentID: input.PaymentID,
		UserID:    userID,
		OrderID:   input.OrderID,
		Reference: record.Reference,
		Amount:    record.Amount,
		Currency:  record.Currency,
		Status:    string(entity.PaymentStatusVerified),
	})

	return &usecase.VerifyPaymentSecureOutput{
		SessionToken: sessionToken,
		UserID:       userID,
	}, nil
}

// CreateOrder registers a checkout order with the processor.
func (s *paymentService) CreateOrder(ctx context.Context, amount int64, currency string) (*entity.Order, error) {
	if amount <= 0 {
		amount = s.cfg.Payment.ExpectedAmount
	}
	if currency == "" {
		currency = s.cfg.Payment.Currency
	}

	order, err := s.gateway.CreateOrder(ctx, amount, currency)
	if err != nil {
		s.logger.ErrorContext(ctx, "Order creation failed",
			slog.Int64("amount", amount),
			slog.String("currency", currency),
			slog.Any("error", err),
		)

		return nil, domainerrors.ErrOrderCreationFailed
	}

	return order, nil
}

// webhookBody is the envelope the processor posts to the webhook endpoint.
// Paystack nests the payment under "data", Razorpay under
// "payload.payment.entity"; both shapes are accepted.
type webhookBody struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Payload struct {
		Payment struct {
			Entity json.RawMessage `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type webhookPayment struct {
	ID        json.RawMessage `json:"id"`
	Reference string          `json:"reference"`
	OrderID   string          `json:"order_id"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Email     string          `json:"email"`
}

// HandleWebhook verifies the raw-body signature and applies the event.
func (s *paymentService) HandleWebhook(ctx context.Context, body []byte, signature string, client usecase.ClientInfo) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		s.logRejection(ctx, "webhook signature mismatch", "", client)

		return domainerrors.ErrInvalidSignature
	}

	var envelope webhookBody
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domainerrors.ErrMissingPaymentData.WrapMessage("malformed webhook body")
	}

	raw := envelope.Data
	if len(raw) == 0 {
		raw = envelope.Payload.Payment.Entity
	}

	var payment webhookPayment
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payment); err != nil {
			return domainerrors.ErrMissingPaymentData.WrapMessage("malformed webhook payload")
		}
	}

	paymentID := rawIDString(payment.ID)
	if paymentID == "" {
		return domainerrors.ErrMissingPaymentData.WrapMessage("webhook payload has no payment id")
	}

	switch envelope.Event {
	case constants.WebhookEventPaymentCaptured, "charge.success":
		return s.finalizePayment(ctx, paymentID, &payment, client, entity.PaymentStatusVerified)
	case constants.WebhookEventPaymentFailed, "charge.failed":
		return s.finalizePayment(ctx, paymentID, &payment, client, entity.PaymentStatusFailed)
	default:
		s.logger.DebugContext(ctx, "Ignoring webhook event", slog.String("event", envelope.Event))

		return nil
	}
}

// CheckoutQR renders a QR code PNG for the hosted checkout page of an order.
func (s *paymentService) CheckoutQR(orderID string) ([]byte, error) {
	if orderID == "" {
		return nil, domainerrors.ErrOrderNotFound
	}

	png, err := s.qrcode.GenerateCheckoutQR(orderID)
	if err != nil {
		s.logger.Error("Checkout QR generation failed",
			slog.String("order_id", orderID),
			slog.Any("error", err),
		)

		return nil, domainerrors.ErrInternalError
	}

	return png, nil
}

// finalizePayment moves an existing record to the given terminal status, or
// creates it when the webhook arrives before any synchronous verification.
func (s *paymentService) finalizePayment(ctx context.Context, paymentID string, payment *webhookPayment, client usecase.ClientInfo, status entity.PaymentStatus) error {
	record, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	switch {
	case err == nil:
		// Processors redeliver webhooks; a settled record stays as is and
		// no event goes out again.
		if record.Status.IsTerminal() {
			s.logger.DebugContext(ctx, "Webhook redelivery ignored",
				slog.String("payment_id", paymentID),
				slog.String("status", string(record.Status)),
			)

			return nil
		}

		record, err = s.paymentRepo.UpdatePaymentStatus(ctx, paymentID, status)
		if err != nil {
			return domainerrors.NewDatabaseExecuteError(err, "failed to update payment status")
		}
		if record.Status != status {
			// A concurrent writer settled the record first.
			return nil
		}
	case errors.Is(err, repository.ErrPaymentNotFound):
		record = &entity.PaymentRecord{
			PaymentID: paymentID,
			UserID:    deriveUserID(payment.Email, paymentID),
			OrderID:   payment.OrderID,
			Reference: payment.Reference,
			Amount:    payment.Amount,
			Currency:  payment.Currency,
			Status:    status,
			IPAddress: client.IPAddress,
			UserAgent: client.UserAgent,
		}
		if createErr := s.paymentRepo.CreatePayment(ctx, record); createErr != nil {
			if errors.Is(createErr, repository.ErrPaymentAlreadyExists) {
				return nil
			}

			return domainerrors.NewDatabaseExecuteError(createErr, "failed to create payment record")
		}
	default:
		return domainerrors.NewDatabaseExecuteError(err, "failed to load payment record")
	}

	s.logger.InfoContext(ctx, "Webhook applied",
		slog.String("payment_id", paymentID),
		slog.String("status", string(record.Status)),
	)

	s.publishEvent(ctx, &service.PaymentEvent{
		RequestID: client.RequestID,
		PaymentID: record.PaymentID,
		UserID:    record.UserID,
		OrderID:   record.OrderID,
		Reference: record.Reference,
		Amount:    record.Amount,
		Currency:  record.Currency,
		Status:    string(record.Status),
	})

	return nil
}

// recordVerifiedPayment persists a verified record for a processor
// transaction, reusing the stored user id when the payment was seen before.
func (s *paymentService) recordVerifiedPayment(ctx context.Context, txn *service.Transaction, client usecase.ClientInfo, userID string) (string, error) {
	record := &entity.PaymentRecord{
		PaymentID: txn.PaymentID,
		OrderID:   txn.OrderID,
		Reference: txn.Reference,
		Amount:    txn.Amount,
		Currency:  txn.Currency,
	}

	return s.recordVerifiedPaymentRecord(ctx, record, client, userID)
}

func (s *paymentService) recordVerifiedPaymentRecord(ctx context.Context, record *entity.PaymentRecord, client usecase.ClientInfo, userID string) (string, error) {
	if existing, err := s.paymentRepo.FindPaymentByID(ctx, record.PaymentID); err == nil {
		return existing.UserID, nil
	}

	record.UserID = userID
	record.Status = entity.PaymentStatusVerified
	record.IPAddress = client.IPAddress
	record.UserAgent = client.UserAgent

	if err := s.paymentRepo.CreatePayment(ctx, record); err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyExists) {
			// Lost a create race; the stored record wins.
			existing, findErr := s.paymentRepo.FindPaymentByID(ctx, record.PaymentID)
			if findErr != nil {
				return "", domainerrors.NewDatabaseExecuteError(findErr, "failed to load payment record")
			}

			return existing.UserID, nil
		}

		return "", domainerrors.NewDatabaseExecuteError(err, "failed to create payment record")
	}

	return userID, nil
}

func (s *paymentService) publishEvent(ctx context.Context, event *service.PaymentEvent) {
	// Publishing is best-effort; a broker outage must not fail the request.
	if err := s.publisher.PublishPaymentEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish payment event",
			slog.String("payment_id", event.PaymentID),
			slog.Any("error", err),
		)
	}
}

func (s *paymentService) logRejection(ctx context.Context, reason, reference string, client usecase.ClientInfo, extra ...any) {
	attrs := []any{
		slog.String("reference", reference),
		slog.String("client_ip", client.IPAddress),
		slog.String("user_agent", client.UserAgent),
	}
	attrs = append(attrs, extra...)
	s.logger.WarnContext(ctx, "Payment verification rejected: "+reason, attrs...)
}

// deriveUserID produces a stable pseudonymous user id for a payment, so
// re-verifying the same payment grants access to the same identity.
func deriveUserID(email, paymentID string) string {
	sum := sha256.Sum256([]byte(email + ":" + paymentID))

	return "user_" + hex.EncodeToString(sum[:])[:16]
}

// deriveTimedUserID produces a fresh pseudonymous user id from the customer
// email and the verification time.
func deriveTimedUserID(email string, now time.Time) string {
	sum := sha256.Sum256([]byte(email + ":" + strconv.FormatInt(now.UnixMilli(), 10)))

	return "user_" + hex.EncodeToString(sum[:])[:16]
}

// rawIDString normalizes a webhook payment id, which Paystack reports as a
// number and Razorpay as a string.
func rawIDString(raw json.RawMessage) string {
	trimmed := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if trimmed == "null" {
		return ""
	}

	return trimmed
}
