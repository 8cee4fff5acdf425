package http_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	handler "github.com/Posteriot/makalah-app-sub005/internal/adapter/handler/http"
	"github.com/Posteriot/makalah-app-sub005/internal/config"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/database"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/notification"
	infraProvider "github.com/Posteriot/makalah-app-sub005/internal/infrastructure/provider"
	"github.com/Posteriot/makalah-app-sub005/internal/middleware/auth"
	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testWebhookToken = "xnd-callback-token"
	testInternalKey  = "internal-key-0123456789abcdef0123456789"
	testUserHeader   = "X-Test-User"
)

type fixture struct {
	db            *gorm.DB
	repos         *database.Repositories
	subscriptions *usecase.SubscriptionService
	quotas        *usecase.QuotaService
	echo          *echo.Echo
}

// fakeUser authenticates the user named in testUserHeader.
func fakeUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id := c.Request().Header.Get(testUserHeader); id != "" {
			ctx := auth.WithUser(c.Request().Context(), &auth.AuthUser{UserID: id})
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}

func newFixture(t *testing.T) *fixture {
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

	cache := infraProvider.NewConfigCache(repos.ProviderConfig, nil, time.Minute, logger)
	factory := infraProvider.NewFactory(&config.ProvidersConfig{
		Xendit: config.XenditConfig{WebhookToken: testWebhookToken},
	}, cache, logger)

	credits := usecase.NewCreditService(repos.Credit, repos.User, logger)
	subscriptions := usecase.NewSubscriptionService(repos.Subscription, repos.Credit, repos.User, logger)
	quotas := usecase.NewQuotaService(repos.Quota, repos.User, logger)
	dispatcher := usecase.NewDispatcher(credits, subscriptions, quotas, logger)
	notifier := usecase.NewNotificationService(notification.NewNoopNotifier(), repos.User, time.Second, logger)
	t.Cleanup(notifier.Wait)
	webhooks := usecase.NewWebhookService(repos.Payment, repos.WebhookEvent, dispatcher, notifier, logger)
	payments := usecase.NewPaymentService(repos.Payment, cache, logger)
	reconcile := usecase.NewReconcileService(repos.Payment, dispatcher, 0, 50, logger)
	configs := usecase.NewProviderConfigService(repos.ProviderConfig, cache, nil, nil, logger)

	e := echo.New()
	handler.RegisterRoutes(e, &handler.Handlers{
		Webhook:      handler.NewWebhookHandler(factory, webhooks, 5*time.Second, logger),
		Internal:     handler.NewInternalHandler(payments, reconcile, subscriptions, 72*time.Hour, logger),
		Admin:        handler.NewAdminHandler(configs, payments, logger),
		Subscription: handler.NewSubscriptionHandler(logger, subscriptions),
		Account:      handler.NewAccountHandler(credits, quotas, payments, logger),
	}, handler.RouteGuards{
		User:             fakeUser,
		Internal:         auth.InternalKeyMiddleware(testInternalKey, logger),
		WebhookBodyLimit: "64K",
	})

	return &fixture{
		db:            db,
		repos:         repos,
		subscriptions: subscriptions,
		quotas:        quotas,
		echo:          e,
	}
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) asUser(method, path, body, userID string) *httptest.ResponseRecorder {
	return f.do(method, path, body, map[string]string{testUserHeader: userID})
}

func (f *fixture) asInternal(method, path, body string) *httptest.ResponseRecorder {
	return f.do(method, path, body, map[string]string{auth.InternalKeyHeader: testInternalKey})
}

func (f *fixture) seedUser(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.db.Create(&model.User{
		ID:                 id,
		Email:              id + "@example.com",
		FirstName:          "Dewi",
		SubscriptionStatus: billing.TierFree,
	}).Error)
}

func (f *fixture) seedTopup(t *testing.T, userID, providerPaymentID string) {
	t.Helper()
	require.NoError(t, f.repos.Payment.Create(context.Background(), &model.Payment{
		ProviderPaymentID: providerPaymentID,
		ReferenceID:       "ref-" + providerPaymentID,
		Provider:          "xendit",
		UserID:            userID,
		Status:            billing.PaymentStatusPending,
		Amount:            billing.PaperPriceIDR,
		Currency:          "IDR",
		PaymentType:       billing.PaymentTypeCreditTopup,
		Credits:           300,
	}))
}

func (f *fixture) payment(t *testing.T, providerPaymentID string) *model.Payment {
	t.Helper()
	payment, err := f.repos.Payment.GetByProviderPaymentID(context.Background(), providerPaymentID)
	require.NoError(t, err)
	require.NotNil(t, payment)
	return payment
}

func xenditCapture(paymentRequestID string) string {
	return `{"event":"payment.capture","business_id":"biz-1","data":{"payment_request_id":"` +
		paymentRequestID + `","status":"SUCCEEDED","request_amount":80000,"currency":"IDR","channel_code":"QRIS"}}`
}

func xenditHeaders(token string) map[string]string {
	return map[string]string{"x-callback-token": token}
}
