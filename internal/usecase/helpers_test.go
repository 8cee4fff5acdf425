package usecase_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/provider"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/database"
	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recordingNotifier captures queued emails.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []usecase.SuccessNotice
	failures  []usecase.FailureNotice
}

func (n *recordingNotifier) NotifySuccess(notice usecase.SuccessNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, notice)
}

func (n *recordingNotifier) NotifyFailure(notice usecase.FailureNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, notice)
}

func (n *recordingNotifier) Successes() []usecase.SuccessNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]usecase.SuccessNotice(nil), n.successes...)
}

func (n *recordingNotifier) Failures() []usecase.FailureNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]usecase.FailureNotice(nil), n.failures...)
}

type harness struct {
	db            *gorm.DB
	repos         *database.Repositories
	credits       *usecase.CreditService
	subscriptions *usecase.SubscriptionService
	quotas        *usecase.QuotaService
	dispatcher    *usecase.Dispatcher
	notifier      *recordingNotifier
	webhooks      *usecase.WebhookService
	reconcile     *usecase.ReconcileService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "payment.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repos := database.NewRepositories(db, logger)
	h := &harness{
		db:       db,
		repos:    repos,
		notifier: &recordingNotifier{},
	}
	h.credits = usecase.NewCreditService(repos.Credit, repos.User, logger)
	h.subscriptions = usecase.NewSubscriptionService(repos.Subscription, repos.Credit, repos.User, logger)
	h.quotas = usecase.NewQuotaService(repos.Quota, repos.User, logger)
	h.dispatcher = usecase.NewDispatcher(h.credits, h.subscriptions, h.quotas, logger)
	h.webhooks = usecase.NewWebhookService(repos.Payment, repos.WebhookEvent, h.dispatcher, h.notifier, logger)
	h.reconcile = usecase.NewReconcileService(repos.Payment, h.dispatcher, 0, 50, logger)
	return h
}

func (h *harness) seedUser(t *testing.T, id string, tier billing.Tier) *model.User {
	t.Helper()
	user := &model.User{
		ID:                 id,
		Email:              id + "@example.com",
		FirstName:          "Rina",
		SubscriptionStatus: tier,
		CreatedAt:          time.Now().AddDate(0, -2, 0),
	}
	require.NoError(t, h.db.Create(user).Error)
	return user
}

func (h *harness) seedPayment(t *testing.T, payment *model.Payment) *model.Payment {
	t.Helper()
	if payment.ReferenceID == "" {
		payment.ReferenceID = "ref-" + payment.ProviderPaymentID
	}
	if payment.Provider == "" {
		payment.Provider = "xendit"
	}
	if payment.Amount == 0 {
		payment.Amount = billing.PaperPriceIDR
	}
	require.NoError(t, h.repos.Payment.Create(context.Background(), payment))
	return payment
}

func (h *harness) payment(t *testing.T, providerPaymentID string) *model.Payment {
	t.Helper()
	payment, err := h.repos.Payment.GetByProviderPaymentID(context.Background(), providerPaymentID)
	require.NoError(t, err)
	require.NotNil(t, payment)
	return payment
}

func (h *harness) user(t *testing.T, id string) *model.User {
	t.Helper()
	user, err := h.repos.User.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func (h *harness) balance(t *testing.T, userID string) *model.CreditBalance {
	t.Helper()
	balance, err := h.repos.Credit.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return balance
}

func event(providerPaymentID string, status billing.PaymentStatus) *provider.WebhookEvent {
	return &provider.WebhookEvent{
		Provider:          provider.ProviderTypeXendit,
		ProviderPaymentID: providerPaymentID,
		Status:            status,
		ChannelCode:       "QRIS",
		EventType:         "payment.capture",
		ProviderStatus:    "SUCCEEDED",
	}
}
