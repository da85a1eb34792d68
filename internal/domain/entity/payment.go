// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "time"

// PaymentStatus tracks a payment record through its lifecycle.
type PaymentStatus string

const (
	// PaymentStatusPending marks a record created before the processor confirmed capture.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusVerified marks a record whose capture was confirmed against the processor.
	PaymentStatusVerified PaymentStatus = "verified"
	// PaymentStatusFailed marks a record the processor reported as failed.
	PaymentStatusFailed PaymentStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusVerified || s == PaymentStatusFailed
}

// PaymentRecord is the durable evidence that one processor payment completed
// verification. Records are keyed by the processor's payment identifier; once
// a record reaches a terminal status it is never mutated again.
type PaymentRecord struct {
	PaymentID string        // The processor's unique payment identifier, primary key.
	UserID    string        // The derived user identity this payment grants access to.
	OrderID   string        // The processor order this payment settled, if any.
	Reference string        // The client-facing transaction reference used for verification.
	Amount    int64         // Captured amount in the processor's minor currency unit.
	Currency  string        // ISO currency code reported by the processor.
	Status    PaymentStatus // Lifecycle state: pending, verified or failed.
	IPAddress string        // Client IP recorded at verification time, for fraud review.
	UserAgent string        // Client user agent recorded at verification time.
	CreatedAt time.Time     // When the record was first persisted.
	UpdatedAt time.Time     // When the record last changed status.
}

// Order mirrors a checkout order created with the payment processor.
type Order struct {
	ID        string    `json:"id"`       // The processor's order identifier.
	Amount    int64     `json:"amount"`   // Order amount in the minor currency unit.
	Currency  string    `json:"currency"` // ISO currency code.
	Receipt   string    `json:"receipt"`  // Merchant-side receipt reference.
	Status    string    `json:"status"`   // Processor order status, e.g. "created".
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Customer carries the customer identity the processor reported for a payment.
type Customer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Receipt is the normalized success result returned to the client after a
// payment passes verification. Amount is converted to major currency units.
type Receipt struct {
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	Reference string    `json:"reference"`
	PaidAt    time.Time `json:"paidAt"`
	Customer  Customer  `json:"customer"`
}
