// Package memory provides an in-process payment store for single-instance
// deployments and tests. All state is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"tradegate/internal/domain/entity"
	"tradegate/internal/domain/repository"
)

type paymentRepository struct {
	mu    sync.RWMutex
	byID  map[string]*entity.PaymentRecord
	byRef map[string]string // reference -> payment id
	now   func() time.Time
}

// NewPaymentRepository creates an empty in-memory payment store.
func NewPaymentRepository() repository.PaymentRepository {
	return &paymentRepository{
		byID:  make(map[string]*entity.PaymentRecord),
		byRef: make(map[string]string),
		now:   time.Now,
	}
}

func (r *paymentRepository) CreatePayment(_ context.Context, record *entity.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[record.PaymentID]; ok {
		return repository.ErrPaymentAlreadyExists
	}

	stored := *record
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}

	r.byID[stored.PaymentID] = &stored
	if stored.Reference != "" {
		r.byRef[stored.Reference] = stored.PaymentID
	}

	return nil
}

func (r *paymentRepository) FindPaymentByID(_ context.Context, paymentID string) (*entity.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.byID[paymentID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}

	copied := *record
	return &copied, nil
}

func (r *paymentRepository) FindPaymentByReference(_ context.Context, reference string) (*entity.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paymentID, ok := r.byRef[reference]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}

	copied := *r.byID[paymentID]
	return &copied, nil
}

func (r *paymentRepository) UpdatePaymentStatus(_ context.Context, paymentID string, status entity.PaymentStatus) (*entity.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.byID[paymentID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}

	// Terminal records never change again; callers get the stored state back.
	if record.Status.IsTerminal() {
		copied := *record
		return &copied, nil
	}

	record.Status = status
	record.UpdatedAt = r.now()

	copied := *record
	return &copied, nil
}
