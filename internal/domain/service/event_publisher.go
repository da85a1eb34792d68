package service

import (
	"context"
)

// PaymentEvent is published whenever a payment record reaches a terminal
// status, for downstream consumers (fulfilment, accounting, fraud review).
type PaymentEvent struct {
	RequestID string `json:"request_id,omitempty"` // For distributed tracing
	PaymentID string `json:"payment_id"`
	UserID    string `json:"user_id"`
	OrderID   string `json:"order_id,omitempty"`
	Reference string `json:"reference,omitempty"`
	Amount    int64  `json:"amount"` // Minor currency unit.
	Currency  string `json:"currency"`
	Status    string `json:"status"` // "verified" or "failed".
}

// EventPublisher defines the interface for publishing payment lifecycle events
type EventPublisher interface {
	// PublishPaymentEvent publishes a payment event for async processing.
	// Failures are a downstream concern; callers log them and carry on.
	PublishPaymentEvent(ctx context.Context, event *PaymentEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
