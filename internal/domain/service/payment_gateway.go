package service

import (
	"context"
	"time"

	"tradegate/internal/domain/entity"
)

// Transaction is what the payment processor reports about one payment,
// normalized across providers. Amount stays in the minor currency unit so the
// caller can compare it exactly against the expected price.
type Transaction struct {
	PaymentID string
	OrderID   string
	Reference string
	Status    string // Provider capture status, e.g. "success" or "captured".
	Amount    int64
	Currency  string
	PaidAt    time.Time
	Customer  entity.Customer
}

// Captured reports whether the processor considers the payment fully captured.
func (t *Transaction) Captured() bool {
	return t.Status == "success" || t.Status == "captured"
}

// PaymentGateway is the server-to-server surface of the payment processor.
// All calls carry the server-held secret credential; nothing here is ever
// exposed to the client. Outbound calls must observe the context deadline, and
// a timeout is reported as an ordinary error (retryable by the client, never
// retried here).
type PaymentGateway interface {
	// VerifyTransaction asks the processor to verify a transaction by reference.
	VerifyTransaction(ctx context.Context, reference string) (*Transaction, error)

	// FetchPayment looks up a payment by the processor's payment id.
	FetchPayment(ctx context.Context, paymentID string) (*Transaction, error)

	// CreateOrder registers a checkout order with the processor.
	CreateOrder(ctx context.Context, amount int64, currency string) (*entity.Order, error)

	// VerifyCheckoutSignature checks the signature the hosted checkout widget
	// attached to a completed payment.
	VerifyCheckoutSignature(orderID, paymentID, signature string) bool

	// VerifyWebhookSignature checks the HMAC signature over a raw webhook body.
	VerifyWebhookSignature(body []byte, signature string) bool
}
