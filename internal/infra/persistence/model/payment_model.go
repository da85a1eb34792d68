package model

import "time"

// PaymentRecordModel is the GORM-specific struct for the 'payment_records' table.
// It stores one row per processor payment that went through verification.
type PaymentRecordModel struct {
	PaymentID string `gorm:"type:text;primary_key"`
	UserID    string `gorm:"type:text;not null;index"`
	OrderID   string `gorm:"type:text"`
	// Webhook payloads may carry no reference, so uniqueness only holds
	// for non-empty values.
	Reference string `gorm:"type:text;uniqueIndex:idx_payment_records_reference,where:reference <> ''"`
	Amount    int64  `gorm:"not null"`
	Currency  string `gorm:"type:text;not null"`
	Status    string `gorm:"type:text;not null;default:'pending'"`
	IPAddress string `gorm:"type:text"`
	UserAgent string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (PaymentRecordModel) TableName() string {
	return "payment_records"
}
