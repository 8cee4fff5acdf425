package usecase_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	customErr "github.com/Posteriot/makalah-app-sub005/internal/domain/errors"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a monthly period and sets pro", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)

		before := time.Now()
		id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 11)
		require.NoError(t, err)

		sub, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, sub)
		assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
		assert.Equal(t, int64(200_000), sub.PriceIDR)
		assert.False(t, sub.CurrentPeriodStart.Before(before.Add(-time.Second)))
		assert.WithinDuration(t, sub.CurrentPeriodStart.AddDate(0, 1, 0), sub.CurrentPeriodEnd, time.Hour)
		require.NotNil(t, sub.LastPaymentID)
		assert.Equal(t, uint(11), *sub.LastPaymentID)
		assert.Equal(t, billing.TierPro, h.user(t, "u1").SubscriptionStatus)
	})

	t.Run("returns the existing active subscription", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)

		first, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)
		second, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProYearly, 2)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		history, err := h.subscriptions.GetSubscriptionHistory(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("rejects an unknown plan", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)

		_, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", "pro_weekly", 1)
		assert.ErrorIs(t, err, customErr.ErrUnknownPlan)
	})
}

func TestSubscriptionService_Renew(t *testing.T) {
	ctx := context.Background()

	t.Run("new period starts at the old period end", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)
		original, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)

		result, err := h.subscriptions.RenewSubscriptionInternal(ctx, id, 2)
		require.NoError(t, err)
		assert.False(t, result.AlreadyApplied)
		assert.True(t, result.NewPeriodStart.Equal(original.CurrentPeriodEnd))
		assert.True(t, result.NewPeriodEnd.Equal(original.CurrentPeriodEnd.AddDate(0, 1, 0)))

		renewed, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, renewed.CurrentPeriodEnd.Equal(result.NewPeriodEnd))
		require.NotNil(t, renewed.LastPaymentID)
		assert.Equal(t, uint(2), *renewed.LastPaymentID)
	})

	t.Run("same payment renews once", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)

		first, err := h.subscriptions.RenewSubscriptionInternal(ctx, id, 2)
		require.NoError(t, err)
		again, err := h.subscriptions.RenewSubscriptionInternal(ctx, id, 2)
		require.NoError(t, err)
		assert.True(t, again.AlreadyApplied)
		assert.True(t, again.NewPeriodEnd.Equal(first.NewPeriodEnd))
	})

	t.Run("concurrent renewals with one payment extend once", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)
		original, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)

		var wg sync.WaitGroup
		var applied atomic.Int32
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := h.subscriptions.RenewSubscriptionInternal(ctx, id, 2)
				if err == nil && !result.AlreadyApplied {
					applied.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), applied.Load())
		renewed, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, renewed.CurrentPeriodEnd.Equal(original.CurrentPeriodEnd.AddDate(0, 1, 0)))
	})

	t.Run("renewal clears a pending cancellation", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)
		_, err = h.subscriptions.CancelSubscription(ctx, "u1", "too expensive", true)
		require.NoError(t, err)

		_, err = h.subscriptions.RenewSubscriptionInternal(ctx, id, 2)
		require.NoError(t, err)

		sub, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, sub.CancelAtPeriodEnd)
		assert.Nil(t, sub.CanceledAt)
		assert.Nil(t, sub.CancelReason)
	})

	t.Run("missing subscription", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.subscriptions.RenewSubscriptionInternal(ctx, uuid.New(), 2)
		assert.ErrorIs(t, err, customErr.ErrSubscriptionNotFound)
	})
}

func TestSubscriptionService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("at period end keeps access", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)

		result, err := h.subscriptions.CancelSubscription(ctx, "u1", "", true)
		require.NoError(t, err)
		assert.True(t, result.CancelAtPeriodEnd)

		sub, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
		assert.True(t, sub.CancelAtPeriodEnd)
		assert.NotNil(t, sub.CanceledAt)
		assert.True(t, result.EffectiveEndDate.Equal(sub.CurrentPeriodEnd))
		assert.Equal(t, billing.TierPro, h.user(t, "u1").SubscriptionStatus)

		status, err := h.subscriptions.CheckSubscriptionStatus(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, status.IsActive)
		assert.True(t, status.CancelAtPeriodEnd)
	})

	t.Run("immediately downgrades to bpp with credits left", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		_, err := h.credits.AddCredits(ctx, "u1", 300, "paper", 99)
		require.NoError(t, err)
		id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)

		_, err = h.subscriptions.CancelSubscription(ctx, "u1", "switching", false)
		require.NoError(t, err)

		sub, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusCanceled, sub.Status)
		require.NotNil(t, sub.CancelReason)
		assert.Equal(t, "switching", *sub.CancelReason)
		assert.Equal(t, billing.TierBPP, h.user(t, "u1").SubscriptionStatus)
	})

	t.Run("immediately downgrades to free without credits", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		_, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)

		_, err = h.subscriptions.CancelSubscription(ctx, "u1", "", false)
		require.NoError(t, err)
		assert.Equal(t, billing.TierFree, h.user(t, "u1").SubscriptionStatus)

		active, err := h.subscriptions.GetActiveSubscription(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	t.Run("no active subscription", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		_, err := h.subscriptions.CancelSubscription(ctx, "u1", "", true)
		assert.ErrorIs(t, err, customErr.ErrNoActiveSubscription)
	})
}

func TestSubscriptionService_Reactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("clears a pending cancellation", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)
		_, err = h.subscriptions.CancelSubscription(ctx, "u1", "later", true)
		require.NoError(t, err)

		require.NoError(t, h.subscriptions.ReactivateForUser(ctx, "u1"))

		sub, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, sub.CancelAtPeriodEnd)
		assert.Nil(t, sub.CanceledAt)
	})

	t.Run("past due becomes active again", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)
		require.NoError(t, h.subscriptions.MarkPastDue(ctx, id))

		status, err := h.subscriptions.CheckSubscriptionStatus(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, status.HasSubscription)
		assert.Equal(t, model.SubscriptionStatusPastDue, status.Status)
		assert.False(t, status.IsActive)

		require.NoError(t, h.subscriptions.ReactivateSubscription(ctx, id))
		sub, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
	})

	t.Run("period already ended", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		ended := &model.Subscription{
			UserID:             "u1",
			PlanType:           billing.PlanProMonthly,
			Status:             model.SubscriptionStatusActive,
			PriceIDR:           200_000,
			CurrentPeriodStart: time.Now().AddDate(0, -2, 0),
			CurrentPeriodEnd:   time.Now().AddDate(0, -1, 0),
			CancelAtPeriodEnd:  true,
		}
		require.NoError(t, h.db.Create(ended).Error)

		err := h.subscriptions.ReactivateSubscription(ctx, ended.ID)
		assert.ErrorIs(t, err, customErr.ErrSubscriptionPeriodEnded)
	})

	t.Run("canceled subscription cannot be reactivated", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "u1", billing.TierFree)
		id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
		require.NoError(t, err)
		_, err = h.subscriptions.CancelSubscription(ctx, "u1", "", false)
		require.NoError(t, err)

		err = h.subscriptions.ReactivateSubscription(ctx, id)
		assert.ErrorIs(t, err, customErr.ErrNoActiveSubscription)
	})
}

func TestSubscriptionService_ExpireAndStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seedUser(t, "u1", billing.TierFree)

	status, err := h.subscriptions.CheckSubscriptionStatus(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, status.HasSubscription)

	id, err := h.subscriptions.CreateSubscriptionInternal(ctx, "u1", billing.PlanProMonthly, 1)
	require.NoError(t, err)

	status, err = h.subscriptions.CheckSubscriptionStatus(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, status.HasSubscription)
	assert.True(t, status.IsActive)
	assert.Equal(t, "Pro Bulanan", status.PlanLabel)
	assert.GreaterOrEqual(t, status.DaysRemaining, 28)
	assert.LessOrEqual(t, status.DaysRemaining, 31)

	tier, err := h.subscriptions.ExpireSubscription(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, billing.TierFree, tier)
	assert.Equal(t, billing.TierFree, h.user(t, "u1").SubscriptionStatus)

	status, err = h.subscriptions.CheckSubscriptionStatus(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, status.HasSubscription)

	assert.ErrorIs(t, h.subscriptions.MarkPastDue(ctx, uuid.New()), customErr.ErrSubscriptionNotFound)
}

func TestSubscriptionService_SweepPeriodEnds(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		h.seedUser(t, id, billing.TierPro)
	}

	seed := func(userID string, status model.SubscriptionStatus, end time.Time, cancelAtEnd bool) uuid.UUID {
		sub := &model.Subscription{
			UserID:             userID,
			PlanType:           billing.PlanProMonthly,
			Status:             status,
			PriceIDR:           200_000,
			CurrentPeriodStart: end.AddDate(0, -1, 0),
			CurrentPeriodEnd:   end,
			CancelAtPeriodEnd:  cancelAtEnd,
		}
		require.NoError(t, h.db.Create(sub).Error)
		return sub.ID
	}

	canceled := seed("u1", model.SubscriptionStatusActive, time.Now().Add(-time.Hour), true)
	unrenewed := seed("u2", model.SubscriptionStatusActive, time.Now().Add(-time.Hour), false)
	overdue := seed("u3", model.SubscriptionStatusPastDue, time.Now().Add(-96*time.Hour), false)
	current := seed("u4", model.SubscriptionStatusActive, time.Now().Add(24*time.Hour), false)

	report, err := h.subscriptions.SweepPeriodEnds(ctx, 72*time.Hour, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Expired)
	assert.Equal(t, 1, report.PastDue)
	assert.Equal(t, 0, report.Failed)

	statusOf := func(id uuid.UUID) model.SubscriptionStatus {
		sub, err := h.repos.Subscription.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, sub)
		return sub.Status
	}
	assert.Equal(t, model.SubscriptionStatusExpired, statusOf(canceled))
	assert.Equal(t, model.SubscriptionStatusPastDue, statusOf(unrenewed))
	assert.Equal(t, model.SubscriptionStatusExpired, statusOf(overdue))
	assert.Equal(t, model.SubscriptionStatusActive, statusOf(current))

	assert.Equal(t, billing.TierFree, h.user(t, "u1").SubscriptionStatus)
	assert.Equal(t, billing.TierPro, h.user(t, "u2").SubscriptionStatus)
	assert.Equal(t, billing.TierFree, h.user(t, "u3").SubscriptionStatus)
	assert.Equal(t, billing.TierPro, h.user(t, "u4").SubscriptionStatus)

	t.Run("second sweep inside the grace window changes nothing", func(t *testing.T) {
		report, err := h.subscriptions.SweepPeriodEnds(ctx, 72*time.Hour, 100)
		require.NoError(t, err)
		assert.Equal(t, &usecase.SweepReport{}, report)
		assert.Equal(t, model.SubscriptionStatusPastDue, statusOf(unrenewed))
	})

	t.Run("renewal reactivates a past due subscription", func(t *testing.T) {
		sub, err := h.subscriptions.GetRenewableSubscription(ctx, "u2")
		require.NoError(t, err)
		require.NotNil(t, sub)
		assert.Equal(t, unrenewed, sub.ID)

		result, err := h.subscriptions.RenewSubscriptionInternal(ctx, sub.ID, 42)
		require.NoError(t, err)
		assert.False(t, result.AlreadyApplied)
		assert.Equal(t, model.SubscriptionStatusActive, statusOf(unrenewed))
	})

	t.Run("expired subscription is not renewable", func(t *testing.T) {
		sub, err := h.subscriptions.GetRenewableSubscription(ctx, "u3")
		require.NoError(t, err)
		assert.Nil(t, sub)
	})
}
