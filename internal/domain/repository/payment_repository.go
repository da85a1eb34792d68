// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"tradegate/internal/domain/entity"

	"github.com/pkg/errors"
)

// Domain-specific errors for payment persistence.
var (
	// ErrPaymentNotFound is returned when no record exists for a payment id.
	ErrPaymentNotFound = errors.New("payment record not found")
	// ErrPaymentAlreadyExists is returned when a record for the payment id was already created.
	ErrPaymentAlreadyExists = errors.New("payment record already exists")
)

// PaymentRepository defines the interface for payment record storage.
// Records are keyed by the processor's payment identifier, which is what makes
// re-verification of the same payment idempotent. The in-memory implementation
// is correct for a single-instance deployment only; multi-instance deployments
// swap in the postgres implementation without touching the callers.
type PaymentRepository interface {
	// CreatePayment persists a new payment record. It returns
	// ErrPaymentAlreadyExists when a record for the payment id is present.
	CreatePayment(ctx context.Context, record *entity.PaymentRecord) error

	// FindPaymentByID retrieves a payment record by the processor payment id.
	FindPaymentByID(ctx context.Context, paymentID string) (*entity.PaymentRecord, error)

	// FindPaymentByReference retrieves a payment record by its transaction reference.
	FindPaymentByReference(ctx context.Context, reference string) (*entity.PaymentRecord, error)

	// UpdatePaymentStatus transitions a record to the given status. Terminal
	// records are left untouched and the stored record is returned as-is.
	UpdatePaymentStatus(ctx context.Context, paymentID string, status entity.PaymentStatus) (*entity.PaymentRecord, error)
}
