package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/recurpay/app/models"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PaymentRecord{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestRecord(txKey, scheduleID string) *models.PaymentRecord {
	w := ComputeBillingWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), fixedMinute(7))
	return &models.PaymentRecord{
		TransactionKey: txKey,
		PaymentID:      "pay_1",
		CustomerID:     "cust_1",
		Amount:         9900,
		Currency:       Currency,
		Status:         models.PaymentStatusPaid,
		StartAt:        w.StartAt,
		EndAt:          w.EndAt,
		EndGraceAt:     w.EndGraceAt,
		NextScheduleAt: w.NextScheduleAt,
		NextScheduleID: scheduleID,
	}
}

func TestGormRepository_CreatePaymentRecord(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewRepository(db)

	rec := newTestRecord("tx_1", "sched-1")
	require.NoError(t, repo.CreatePaymentRecord(context.Background(), rec))
	assert.NotZero(t, rec.ID)

	var stored models.PaymentRecord
	require.NoError(t, db.Where("transaction_key = ?", "tx_1").First(&stored).Error)
	assert.Equal(t, int64(9900), stored.Amount)
	assert.Equal(t, models.PaymentStatusPaid, stored.Status)
	assert.True(t, stored.EndAt.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
}

func TestGormRepository_DuplicateTransactionKey(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.CreatePaymentRecord(context.Background(), newTestRecord("tx_dup", "sched-a")))
	err := repo.CreatePaymentRecord(context.Background(), newTestRecord("tx_dup", "sched-b"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateTransaction))

	var count int64
	require.NoError(t, db.Model(&models.PaymentRecord{}).Where("transaction_key = ?", "tx_dup").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormRepository_RejectsInvalidRecord(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewRepository(db)

	rec := newTestRecord("tx_neg", "sched-neg")
	rec.Amount = -5
	err := repo.CreatePaymentRecord(context.Background(), rec)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateTransaction))
}
