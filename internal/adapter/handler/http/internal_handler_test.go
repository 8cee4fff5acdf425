package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternalHandler(t *testing.T) {
	t.Run("requires the internal key", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(http.MethodPost, "/internal/payments", `{}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = f.do(http.MethodPost, "/internal/reconcile", ``, map[string]string{"X-Internal-Key": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("creates and reads a payment", func(t *testing.T) {
		f := newFixture(t)

		rec := f.asInternal(http.MethodPost, "/internal/payments",
			`{"provider_payment_id":"pr-300","reference_id":"order-300","user_id":"user-3","payment_type":"credit_topup","payment_method":"QRIS"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created model.Payment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, billing.PaymentStatusPending, created.Status)
		assert.Equal(t, "xendit", created.Provider)
		assert.Equal(t, int64(300), created.Credits)

		rec = f.asInternal(http.MethodGet, "/internal/payments/order-300", ``)
		require.Equal(t, http.StatusOK, rec.Code)
		var fetched model.Payment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
		assert.Equal(t, "pr-300", fetched.ProviderPaymentID)
	})

	t.Run("invalid payment is a bad request", func(t *testing.T) {
		f := newFixture(t)

		rec := f.asInternal(http.MethodPost, "/internal/payments", `{"provider_payment_id":"pr-301","payment_type":"gift"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing payment is not found", func(t *testing.T) {
		f := newFixture(t)

		rec := f.asInternal(http.MethodGet, "/internal/payments/nope", ``)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("reconcile reports the sweep", func(t *testing.T) {
		f := newFixture(t)

		rec := f.asInternal(http.MethodPost, "/internal/reconcile?limit=10", ``)

		require.Equal(t, http.StatusOK, rec.Code)
		var report usecase.ReconcileReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Zero(t, report.Scanned)
	})

	t.Run("subscription sweep expires a scheduled cancellation", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "user-5")
		sub := &model.Subscription{
			UserID:             "user-5",
			PlanType:           billing.PlanProMonthly,
			Status:             model.SubscriptionStatusActive,
			PriceIDR:           200_000,
			CurrentPeriodStart: time.Now().AddDate(0, -1, -1),
			CurrentPeriodEnd:   time.Now().AddDate(0, 0, -1),
			CancelAtPeriodEnd:  true,
		}
		require.NoError(t, f.db.Create(sub).Error)

		rec := f.asInternal(http.MethodPost, "/internal/subscriptions/sweep", ``)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var report usecase.SweepReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, 1, report.Expired)
		assert.Zero(t, report.PastDue)

		stored, err := f.repos.Subscription.GetByID(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusExpired, stored.Status)
	})
}

func TestAdminHandler(t *testing.T) {
	t.Run("reads the default provider config", func(t *testing.T) {
		f := newFixture(t)

		rec := f.asInternal(http.MethodGet, "/admin/provider-config", ``)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"xendit"`)
	})

	t.Run("updates the active provider", func(t *testing.T) {
		f := newFixture(t)

		rec := f.asInternal(http.MethodPut, "/admin/provider-config",
			`{"active_provider":"midtrans","enabled_methods":["QRIS"],"updated_by":"admin@makalah.ai"}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"midtrans"`)
	})

	t.Run("rejects an invalid update", func(t *testing.T) {
		f := newFixture(t)

		rec := f.asInternal(http.MethodPut, "/admin/provider-config",
			`{"active_provider":"paypal","enabled_methods":["QRIS"],"updated_by":"admin"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("secret without an encryption key is unavailable", func(t *testing.T) {
		f := newFixture(t)

		rec := f.asInternal(http.MethodPut, "/admin/provider-config",
			`{"active_provider":"xendit","enabled_methods":["QRIS"],"webhook_secret":"super-secret","updated_by":"admin"}`)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("payment stats", func(t *testing.T) {
		f := newFixture(t)
		f.seedTopup(t, "user-4", "pr-400")

		rec := f.asInternal(http.MethodGet, "/admin/payments/stats", ``)

		require.Equal(t, http.StatusOK, rec.Code)
		var stats model.PaymentStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, int64(1), stats.Total)
	})
}
