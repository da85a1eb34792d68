// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"tradegate/internal/domain/entity"
	domainerrors "tradegate/internal/domain/errors"
	"tradegate/internal/domain/repository"
	"tradegate/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// paymentRepository implements the repository.PaymentRepository interface.
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository is the constructor for paymentRepository.
func NewPaymentRepository(db *gorm.DB) repository.PaymentRepository {
	return &paymentRepository{
		db: db,
	}
}

// CreatePayment persists a new payment record.
func (repo *paymentRepository) CreatePayment(ctx context.Context, record *entity.PaymentRecord) error {
	recordM := fromPaymentDomain(record)

	if err := repo.db.WithContext(ctx).Create(recordM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrPaymentAlreadyExists
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrInternalError.WrapMessage("missing required payment information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create payment record")
	}

	// Carry back the generated timestamps
	record.CreatedAt = recordM.CreatedAt
	record.UpdatedAt = recordM.UpdatedAt

	return nil
}

// FindPaymentByID retrieves a payment record by the processor payment id.
func (repo *paymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*entity.PaymentRecord, error) {
	var recordM model.PaymentRecordModel

	if err := repo.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&recordM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPaymentNotFound
		}

		return nil, errors.Wrap(err, "failed to find payment by id")
	}

	return toPaymentDomain(&recordM), nil
}

// FindPaymentByReference retrieves a payment record by its transaction
// reference. Records created without one are not addressable this way.
func (repo *paymentRepository) FindPaymentByReference(ctx context.Context, reference string) (*entity.PaymentRecord, error) {
	if reference == "" {
		return nil, repository.ErrPaymentNotFound
	}

	var recordM model.PaymentRecordModel

	if err := repo.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&recordM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPaymentNotFound
		}

		return nil, errors.Wrap(err, "failed to find payment by reference")
	}

	return toPaymentDomain(&recordM), nil
}

// UpdatePaymentStatus transitions a record to the given status. The WHERE
// clause excludes terminal rows so a late webhook can never demote a record
// that already settled; in that case the stored row is returned unchanged.
func (repo *paymentRepository) UpdatePaymentStatus(ctx context.Context, paymentID string, status entity.PaymentStatus) (*entity.PaymentRecord, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.PaymentRecordModel{}).
		Where("payment_id = ? AND status = ?", paymentID, string(entity.PaymentStatusPending)).
		Update("status", string(status))

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to update payment status")
	}

	return repo.FindPaymentByID(ctx, paymentID)
}

// --- Mapper Functions ---

// toPaymentDomain converts a GORM PaymentRecordModel to a domain PaymentRecord entity.
func toPaymentDomain(data *model.PaymentRecordModel) *entity.PaymentRecord {
	if data == nil {
		return nil
	}

	return &entity.PaymentRecord{
		PaymentID: data.PaymentID,
		UserID:    data.UserID,
		OrderID:   data.OrderID,
		Reference: data.Reference,
		Amount:    data.Amount,
		Currency:  data.Currency,
		Status:    entity.PaymentStatus(data.Status),
		IPAddress: data.IPAddress,
		UserAgent: data.UserAgent,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

// fromPaymentDomain converts a domain PaymentRecord entity to a GORM PaymentRecordModel.
func fromPaymentDomain(data *entity.PaymentRecord) *model.PaymentRecordModel {
	if data == nil {
		return nil
	}

	return &model.PaymentRecordModel{
		PaymentID: data.PaymentID,
		UserID:    data.UserID,
		OrderID:   data.OrderID,
		Reference: data.Reference,
		Amount:    data.Amount,
		Currency:  data.Currency,
		Status:    string(data.Status),
		IPAddress: data.IPAddress,
		UserAgent: data.UserAgent,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
