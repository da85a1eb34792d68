// Package usecase defines the application-level interfaces that the delivery
// layer depends on.
package usecase

import (
	"context"

	"tradegate/internal/domain/entity"
)

// ClientInfo identifies the calling client for rate limiting and fraud review.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// VerifyPaymentInput carries a transaction reference to verify.
type VerifyPaymentInput struct {
	Reference string
	Client    ClientInfo
}

// VerifyPaymentOutput is the result of a successful reference verification.
type VerifyPaymentOutput struct {
	Receipt      *entity.Receipt
	SessionToken string
	UserID       string
}

// VerifyPaymentSecureInput carries the checkout widget's signed completion data.
type VerifyPaymentSecureInput struct {
	OrderID   string
	PaymentID string
	Signature string
	Email     string
	Name      string
	Client    ClientInfo
}

// VerifyPaymentSecureOutput is the result of a successful signed verification.
type VerifyPaymentSecureOutput struct {
	SessionToken string
	UserID       string
}

// PaymentUsecase defines the interface for payment verification use cases
type PaymentUsecase interface {
	// VerifyPayment verifies a transaction by reference against the processor
	// and mints a session token on success. Verifying the same payment twice
	// returns an equivalent success result both times.
	VerifyPayment(ctx context.Context, input *VerifyPaymentInput) (*VerifyPaymentOutput, error)

	// VerifyPaymentSecure verifies a checkout completion by its processor
	// signature, persists the payment and mints a session token.
	VerifyPaymentSecure(ctx context.Context, input *VerifyPaymentSecureInput) (*VerifyPaymentSecureOutput, error)

	// CreateOrder registers a checkout order with the processor. Zero amount
	// or empty currency fall back to the configured product price.
	CreateOrder(ctx context.Context, amount int64, currency string) (*entity.Order, error)

	// HandleWebhook verifies the raw-body HMAC signature and applies the
	// event to the payment store. Nothing is mutated on signature mismatch.
	HandleWebhook(ctx context.Context, body []byte, signature string, client ClientInfo) error

	// CheckoutQR renders a QR code PNG linking to the hosted checkout page.
	CheckoutQR(orderID string) ([]byte, error)
}
