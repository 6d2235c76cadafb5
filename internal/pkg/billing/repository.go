package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ManuelReschke/recurpay/app/models"
)

// ErrDuplicateTransaction is returned when a record with the same transaction
// key already exists.
var ErrDuplicateTransaction = errors.New("payment record for transaction already exists")

// Repository provides DB operations used by the billing service.
type Repository interface {
	CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM. The handle should
// be opened with TranslateError so unique violations map to gorm.ErrDuplicatedKey.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error {
	if record == nil {
		return errors.New("payment record is required")
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid payment record: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: transaction_key=%s", ErrDuplicateTransaction, record.TransactionKey)
		}
		return err
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Handles drivers opened without TranslateError.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint failed")
}
