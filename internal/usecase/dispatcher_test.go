package usecase_test

import (
	"context"
	"testing"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockCreditLedger is a mock implementation of CreditLedger
type MockCreditLedger struct {
	mock.Mock
}

func (m *MockCreditLedger) AddCredits(ctx context.Context, userID string, credits int64, packageType string, paymentID uint) (*usecase.AddCreditsResult, error) {
	args := m.Called(ctx, userID, credits, packageType, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AddCreditsResult), args.Error(1)
}

// MockSubscriptionLifecycle is a mock implementation of SubscriptionLifecycle
type MockSubscriptionLifecycle struct {
	mock.Mock
}

func (m *MockSubscriptionLifecycle) CreateSubscriptionInternal(ctx context.Context, userID string, planType billing.PlanType, paymentID uint) (uuid.UUID, error) {
	args := m.Called(ctx, userID, planType, paymentID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockSubscriptionLifecycle) RenewSubscriptionInternal(ctx context.Context, subscriptionID uuid.UUID, paymentID uint) (*usecase.RenewResult, error) {
	args := m.Called(ctx, subscriptionID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RenewResult), args.Error(1)
}

func (m *MockSubscriptionLifecycle) GetRenewableSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

// MockQuotaInitializer is a mock implementation of QuotaInitializer
type MockQuotaInitializer struct {
	mock.Mock
}

func (m *MockQuotaInitializer) InitializeQuota(ctx context.Context, userID string, paymentID uint) (*model.UserQuota, error) {
	args := m.Called(ctx, userID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserQuota), args.Error(1)
}

func newMockDispatcher() (*usecase.Dispatcher, *MockCreditLedger, *MockSubscriptionLifecycle, *MockQuotaInitializer) {
	ledger := new(MockCreditLedger)
	subs := new(MockSubscriptionLifecycle)
	quotas := new(MockQuotaInitializer)
	return usecase.NewDispatcher(ledger, subs, quotas, zap.NewNop()), ledger, subs, quotas
}

func TestDispatcher_HandlesEveryPaymentType(t *testing.T) {
	dispatcher, _, _, _ := newMockDispatcher()
	for _, paymentType := range billing.PaymentTypes {
		assert.True(t, dispatcher.Handles(paymentType), "no handler for %s", paymentType)
	}
	assert.False(t, dispatcher.Handles("gift_card"))
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("credit top-up goes to the ledger", func(t *testing.T) {
		dispatcher, ledger, _, _ := newMockDispatcher()
		ledger.On("AddCredits", ctx, "u1", int64(300), "paper", uint(9)).
			Return(&usecase.AddCreditsResult{NewTotalCredits: 600, RemainingCredits: 550}, nil)

		result, err := dispatcher.Dispatch(ctx, &model.Payment{
			ID: 9, UserID: "u1", PaymentType: billing.PaymentTypeCreditTopup, Credits: 300, PackageType: "paper",
		})
		require.NoError(t, err)
		assert.Equal(t, model.EntitlementStatusGranted, result.Status)
		assert.Equal(t, int64(300), result.Credits)
		assert.Equal(t, int64(600), result.NewTotalCredits)
		ledger.AssertExpectations(t)
	})

	t.Run("top-up without credits is skipped", func(t *testing.T) {
		dispatcher, ledger, _, _ := newMockDispatcher()

		result, err := dispatcher.Dispatch(ctx, &model.Payment{
			ID: 9, UserID: "u1", PaymentType: billing.PaymentTypeCreditTopup,
		})
		require.NoError(t, err)
		assert.Equal(t, model.EntitlementStatusSkipped, result.Status)
		ledger.AssertNotCalled(t, "AddCredits", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("initial subscription defaults to monthly plan", func(t *testing.T) {
		dispatcher, _, subs, quotas := newMockDispatcher()
		subID := uuid.New()
		subs.On("CreateSubscriptionInternal", ctx, "u1", billing.PlanProMonthly, uint(3)).Return(subID, nil)
		quotas.On("InitializeQuota", ctx, "u1", uint(3)).Return(&model.UserQuota{UserID: "u1"}, nil)

		result, err := dispatcher.Dispatch(ctx, &model.Payment{
			ID: 3, UserID: "u1", PaymentType: billing.PaymentTypeSubscriptionInitial,
		})
		require.NoError(t, err)
		assert.Equal(t, model.EntitlementStatusGranted, result.Status)
		assert.Equal(t, subID, result.SubscriptionID)
		assert.Equal(t, "Pro Bulanan", result.PlanLabel)
		subs.AssertExpectations(t)
		quotas.AssertExpectations(t)
	})

	t.Run("renewal extends the active subscription", func(t *testing.T) {
		dispatcher, _, subs, quotas := newMockDispatcher()
		sub := &model.Subscription{ID: uuid.New(), UserID: "u1", PlanType: billing.PlanProYearly}
		subs.On("GetRenewableSubscription", ctx, "u1").Return(sub, nil)
		subs.On("RenewSubscriptionInternal", ctx, sub.ID, uint(4)).Return(&usecase.RenewResult{SubscriptionID: sub.ID}, nil)
		quotas.On("InitializeQuota", ctx, "u1", uint(4)).Return(&model.UserQuota{UserID: "u1"}, nil)

		result, err := dispatcher.Dispatch(ctx, &model.Payment{
			ID: 4, UserID: "u1", PaymentType: billing.PaymentTypeSubscriptionRenewal,
		})
		require.NoError(t, err)
		assert.Equal(t, model.EntitlementStatusGranted, result.Status)
		assert.Equal(t, "Pro Tahunan (Hemat 2 bulan)", result.PlanLabel)
		subs.AssertExpectations(t)
	})

	t.Run("renewal without subscription is skipped", func(t *testing.T) {
		dispatcher, _, subs, quotas := newMockDispatcher()
		subs.On("GetRenewableSubscription", ctx, "u2").Return(nil, nil)

		result, err := dispatcher.Dispatch(ctx, &model.Payment{
			ID: 5, UserID: "u2", PaymentType: billing.PaymentTypeSubscriptionRenewal,
		})
		require.NoError(t, err)
		assert.Equal(t, model.EntitlementStatusSkipped, result.Status)
		subs.AssertNotCalled(t, "RenewSubscriptionInternal", mock.Anything, mock.Anything, mock.Anything)
		quotas.AssertNotCalled(t, "InitializeQuota", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("paper completion is skipped", func(t *testing.T) {
		dispatcher, _, _, _ := newMockDispatcher()

		result, err := dispatcher.Dispatch(ctx, &model.Payment{
			ID: 6, UserID: "u1", PaymentType: billing.PaymentTypePaperCompletion,
		})
		require.NoError(t, err)
		assert.Equal(t, model.EntitlementStatusSkipped, result.Status)
	})

	t.Run("unknown payment type is skipped", func(t *testing.T) {
		dispatcher, _, _, _ := newMockDispatcher()

		result, err := dispatcher.Dispatch(ctx, &model.Payment{ID: 7, UserID: "u1", PaymentType: "gift_card"})
		require.NoError(t, err)
		assert.Equal(t, model.EntitlementStatusSkipped, result.Status)
		assert.Contains(t, result.Reason, "gift_card")
	})

	t.Run("handler panic becomes an error", func(t *testing.T) {
		dispatcher, ledger, _, _ := newMockDispatcher()
		ledger.On("AddCredits", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { panic("boom") })

		result, err := dispatcher.Dispatch(ctx, &model.Payment{
			ID: 8, UserID: "u1", PaymentType: billing.PaymentTypeCreditTopup, Credits: 100,
		})
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "panicked")
	})
}
