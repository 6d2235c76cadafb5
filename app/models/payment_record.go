package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	PaymentStatusPaid      = "Paid"
	PaymentStatusCancelled = "Cancelled"
)

// PaymentRecord is one completed charge together with the billing window it
// opens and the reference of the follow-up charge registered with the provider.
// Rows are insert-only.
type PaymentRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TransactionKey string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_payment_records_transaction_key" json:"transaction_key" validate:"required,max=191"`
	PaymentID      string    `gorm:"type:varchar(191);not null;index" json:"payment_id" validate:"required,max=191"`
	CustomerID     string    `gorm:"type:varchar(191);default:'';index" json:"customer_id" validate:"max=191"`
	Amount         int64     `gorm:"not null" json:"amount" validate:"gte=0"`
	Currency       string    `gorm:"type:varchar(3);not null;default:'KRW'" json:"currency" validate:"required,len=3"`
	Status         string    `gorm:"type:varchar(32);not null" json:"status" validate:"required,oneof=Paid"`
	StartAt        time.Time `gorm:"not null" json:"start_at" validate:"required"`
	EndAt          time.Time `gorm:"not null;index" json:"end_at" validate:"required,gtfield=StartAt"`
	EndGraceAt     time.Time `gorm:"not null" json:"end_grace_at" validate:"required,gtfield=EndAt"`
	NextScheduleAt time.Time `gorm:"not null" json:"next_schedule_at" validate:"required,gtfield=EndAt"`
	NextScheduleID string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_payment_records_next_schedule_id" json:"next_schedule_id" validate:"required,max=64"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *PaymentRecord) Validate() error {
	v := validator.New()
	return v.Struct(r)
}
