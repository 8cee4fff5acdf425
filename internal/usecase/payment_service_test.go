package usecase_test

import (
	"context"
	"testing"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	customErr "github.com/Posteriot/makalah-app-sub005/internal/domain/errors"
	infraProvider "github.com/Posteriot/makalah-app-sub005/internal/infrastructure/provider"
	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPaymentService(h *harness) *usecase.PaymentService {
	cache := infraProvider.NewConfigCache(h.repos.ProviderConfig, nil, 0, zap.NewNop())
	return usecase.NewPaymentService(h.repos.Payment, cache, zap.NewNop())
}

func TestPaymentService_CreatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("paper top-up gets package defaults", func(t *testing.T) {
		h := newHarness(t)
		service := newPaymentService(h)

		payment, err := service.CreatePayment(ctx, &usecase.CreatePaymentRequest{
			ProviderPaymentID: "pr-1",
			UserID:            "u1",
			PaymentType:       "credit_topup",
			PaymentMethod:     "QRIS",
		})
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusPending, payment.Status)
		assert.Equal(t, "xendit", payment.Provider)
		assert.Equal(t, int64(billing.PaperCredits), payment.Credits)
		assert.Equal(t, int64(billing.PaperPriceIDR), payment.Amount)
		assert.Equal(t, billing.DefaultPackageType, payment.PackageType)
		assert.Regexp(t, `^pay_[0-9a-z]{16}$`, payment.ReferenceID)

		found, err := service.GetByReferenceID(ctx, payment.ReferenceID)
		require.NoError(t, err)
		assert.Equal(t, payment.ID, found.ID)
	})

	t.Run("subscription takes the plan price", func(t *testing.T) {
		h := newHarness(t)
		service := newPaymentService(h)

		payment, err := service.CreatePayment(ctx, &usecase.CreatePaymentRequest{
			ProviderPaymentID: "pr-2",
			Provider:          "midtrans",
			UserID:            "u1",
			PaymentType:       "subscription_initial",
			PlanType:          "pro_yearly",
		})
		require.NoError(t, err)
		assert.Equal(t, "midtrans", payment.Provider)
		assert.Equal(t, int64(2_000_000), payment.Amount)
	})

	t.Run("idempotency key returns the first payment", func(t *testing.T) {
		h := newHarness(t)
		service := newPaymentService(h)

		req := &usecase.CreatePaymentRequest{
			ProviderPaymentID: "pr-3",
			UserID:            "u1",
			PaymentType:       "credit_topup",
			IdempotencyKey:    "checkout-abc",
		}
		first, err := service.CreatePayment(ctx, req)
		require.NoError(t, err)
		second, err := service.CreatePayment(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("validation", func(t *testing.T) {
		h := newHarness(t)
		service := newPaymentService(h)

		tests := []struct {
			name string
			req  *usecase.CreatePaymentRequest
		}{
			{"missing provider payment id", &usecase.CreatePaymentRequest{UserID: "u1", PaymentType: "credit_topup"}},
			{"unknown payment type", &usecase.CreatePaymentRequest{ProviderPaymentID: "x", UserID: "u1", PaymentType: "gift_card"}},
			{"unknown method", &usecase.CreatePaymentRequest{ProviderPaymentID: "x", UserID: "u1", PaymentType: "credit_topup", PaymentMethod: "CASH"}},
			{"zero amount", &usecase.CreatePaymentRequest{ProviderPaymentID: "x", UserID: "u1", PaymentType: "paper_completion"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := service.CreatePayment(ctx, tt.req)
				assert.ErrorIs(t, err, usecase.ErrInvalidPayment)
			})
		}
	})
}

func TestPaymentService_Reads(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	service := newPaymentService(h)

	_, err := service.GetByReferenceID(ctx, "missing")
	assert.ErrorIs(t, err, customErr.ErrPaymentNotFound)

	_, err = service.GetUserPayments(ctx, "", 10)
	assert.Error(t, err)

	for _, id := range []string{"a", "b", "c"} {
		_, err := service.CreatePayment(ctx, &usecase.CreatePaymentRequest{ProviderPaymentID: id, UserID: "u1", PaymentType: "credit_topup"})
		require.NoError(t, err)
	}

	payments, err := service.GetUserPayments(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	stats, err := service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(3), stats.ByStatus["PENDING"])
}
