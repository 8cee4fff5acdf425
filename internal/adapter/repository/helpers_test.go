package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "payment.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedPayment(t *testing.T, db *gorm.DB, providerPaymentID string, paymentType billing.PaymentType) *model.Payment {
	t.Helper()
	payment := &model.Payment{
		ProviderPaymentID: providerPaymentID,
		ReferenceID:       "ref-" + providerPaymentID,
		Provider:          "xendit",
		UserID:            "user-1",
		Status:            billing.PaymentStatusPending,
		Amount:            80000,
		Currency:          "IDR",
		PaymentType:       paymentType,
		PaymentMethod:     billing.PaymentMethodQRIS,
		Credits:           300,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(payment).Error)
	return payment
}
