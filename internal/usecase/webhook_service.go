package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	customErr "github.com/Posteriot/makalah-app-sub005/internal/domain/errors"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/provider"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// PaymentNotifier queues customer emails for payment outcomes.
type PaymentNotifier interface {
	NotifySuccess(notice SuccessNotice)
	NotifyFailure(notice FailureNotice)
}

// WebhookService applies verified provider events to payments.
type WebhookService struct {
	paymentRepo domainRepo.PaymentRepository
	eventRepo   domainRepo.WebhookEventRepository
	dispatcher  EntitlementDispatcher
	notifier    PaymentNotifier
	logger      *zap.Logger
	now         func() time.Time
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	paymentRepo domainRepo.PaymentRepository,
	eventRepo domainRepo.WebhookEventRepository,
	dispatcher EntitlementDispatcher,
	notifier PaymentNotifier,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		dispatcher:  dispatcher,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

// Process applies event and returns how it was disposed of. Business
// failures are logged and reported through the outcome only; the provider
// must not retry them.
func (s *WebhookService) Process(ctx context.Context, providerName string, event *provider.WebhookEvent) model.WebhookOutcome {
	log := s.logger.With(
		zap.String("provider", providerName),
		zap.String("provider_payment_id", event.ProviderPaymentID),
		zap.String("status", string(event.Status)))

	logID := s.record(ctx, providerName, event, log)

	outcome, errMsg := s.apply(ctx, event, log)

	if logID != 0 {
		if err := s.eventRepo.SetOutcome(ctx, logID, outcome, errMsg); err != nil {
			log.Warn("Failed to finalize webhook event log", zap.Error(err))
		}
	}
	return outcome
}

func (s *WebhookService) record(ctx context.Context, providerName string, event *provider.WebhookEvent, log *zap.Logger) uint {
	payload := datatypes.JSONMap{
		"provider_status": event.ProviderStatus,
		"raw_amount":      event.RawAmount,
		"ignored":         event.Ignored,
	}
	if event.ChannelCode != "" {
		payload["channel_code"] = event.ChannelCode
	}
	if event.FailureCode != "" {
		payload["failure_code"] = event.FailureCode
	}
	if event.PaidAt != nil {
		payload["paid_at"] = event.PaidAt.Format(time.RFC3339)
	}

	entry := &model.WebhookEventLog{
		Provider:          providerName,
		ProviderPaymentID: event.ProviderPaymentID,
		EventType:         event.EventType,
		EventStatus:       string(event.Status),
		Payload:           payload,
		ReceivedAt:        s.now(),
	}
	if err := s.eventRepo.Record(ctx, entry); err != nil {
		log.Error("Failed to record webhook event", zap.Error(err))
		return 0
	}
	return entry.ID
}

func (s *WebhookService) apply(ctx context.Context, event *provider.WebhookEvent, log *zap.Logger) (model.WebhookOutcome, string) {
	if event.Ignored {
		log.Info("Webhook event type carries no status change", zap.String("event_type", event.EventType))
		return model.WebhookOutcomeIgnored, ""
	}

	payment, err := s.paymentRepo.GetByProviderPaymentID(ctx, event.ProviderPaymentID)
	if err != nil {
		log.Error("Failed to look up payment", zap.Error(err))
		return model.WebhookOutcomeError, err.Error()
	}
	if payment == nil {
		log.Warn("Webhook for unknown payment")
		return model.WebhookOutcomeUnknownPayment, ""
	}
	log = log.With(
		zap.Uint("payment_id", payment.ID),
		zap.String("user_id", payment.UserID),
		zap.String("payment_type", string(payment.PaymentType)))

	switch event.Status {
	case billing.PaymentStatusSucceeded:
		return s.succeeded(ctx, payment, event, log)
	case billing.PaymentStatusFailed:
		return s.failed(ctx, payment, event, log)
	case billing.PaymentStatusExpired:
		return s.expired(ctx, payment, event, log)
	case billing.PaymentStatusPending:
		if event.FailureCode != "" {
			log.Info("Payment attempt declined, awaiting retry",
				zap.String("failure_code", event.FailureCode))
			return model.WebhookOutcomeIgnored, event.FailureCode
		}
		log.Info("Payment still pending")
		return model.WebhookOutcomeIgnored, ""
	default:
		log.Warn("Unhandled webhook status")
		return model.WebhookOutcomeIgnored, ""
	}
}

func (s *WebhookService) succeeded(ctx context.Context, payment *model.Payment, event *provider.WebhookEvent, log *zap.Logger) (model.WebhookOutcome, string) {
	if payment.Status == billing.PaymentStatusSucceeded {
		log.Info("Payment already succeeded, duplicate webhook")
		return model.WebhookOutcomeDuplicate, ""
	}

	paidAt := event.PaidAtOr(s.now())
	metadata := map[string]interface{}{
		"providerStatus": event.ProviderStatus,
		"paymentMethod":  event.ChannelCode,
	}

	transition, outcome, errMsg := s.transition(ctx, event, billing.PaymentStatusSucceeded, &paidAt, metadata, log)
	if transition == nil {
		return outcome, errMsg
	}
	payment.Status = billing.PaymentStatusSucceeded
	payment.PaidAt = &paidAt

	result, err := settleEntitlement(ctx, s.dispatcher, s.paymentRepo, log, payment)
	if err != nil {
		return model.WebhookOutcomeDispatchFailed, err.Error()
	}

	amount := event.RawAmount
	if amount <= 0 {
		amount = payment.Amount
	}
	s.notifier.NotifySuccess(SuccessNotice{
		UserID:          payment.UserID,
		Amount:          amount,
		Credits:         result.Credits,
		NewTotalCredits: result.NewTotalCredits,
		PlanLabel:       result.PlanLabel,
		TransactionID:   payment.ProviderPaymentID,
		PaidAt:          paidAt,
	})

	log.Info("Payment succeeded",
		zap.String("entitlement_status", string(result.Status)))
	return model.WebhookOutcomeProcessed, ""
}

func (s *WebhookService) failed(ctx context.Context, payment *model.Payment, event *provider.WebhookEvent, log *zap.Logger) (model.WebhookOutcome, string) {
	metadata := map[string]interface{}{
		"failureCode":    event.FailureCode,
		"providerStatus": event.ProviderStatus,
	}

	transition, outcome, errMsg := s.transition(ctx, event, billing.PaymentStatusFailed, nil, metadata, log)
	if transition == nil {
		return outcome, errMsg
	}

	amount := event.RawAmount
	if amount <= 0 {
		amount = payment.Amount
	}
	s.notifier.NotifyFailure(FailureNotice{
		UserID:        payment.UserID,
		Amount:        amount,
		FailureReason: event.FailureCode,
		TransactionID: payment.ProviderPaymentID,
	})

	log.Info("Payment failed", zap.String("failure_code", event.FailureCode))
	return model.WebhookOutcomeProcessed, ""
}

func (s *WebhookService) expired(ctx context.Context, payment *model.Payment, event *provider.WebhookEvent, log *zap.Logger) (model.WebhookOutcome, string) {
	metadata := map[string]interface{}{
		"providerStatus": event.ProviderStatus,
	}

	transition, outcome, errMsg := s.transition(ctx, event, billing.PaymentStatusExpired, nil, metadata, log)
	if transition == nil {
		return outcome, errMsg
	}

	log.Info("Payment expired")
	return model.WebhookOutcomeProcessed, ""
}

// transition returns a non-nil StatusTransition only when this delivery
// moved the payment. Otherwise it returns the outcome to record.
func (s *WebhookService) transition(
	ctx context.Context,
	event *provider.WebhookEvent,
	status billing.PaymentStatus,
	paidAt *time.Time,
	metadata map[string]interface{},
	log *zap.Logger,
) (*model.StatusTransition, model.WebhookOutcome, string) {
	transition, err := s.paymentRepo.UpdateStatus(ctx, event.ProviderPaymentID, status, paidAt, metadata)
	switch {
	case errors.Is(err, customErr.ErrInvalidTransition) && status == billing.PaymentStatusSucceeded:
		log.Error("Provider captured payment already in a terminal state, entitlement not granted",
			zap.String("provider_status", event.ProviderStatus),
			zap.Error(err))
		return nil, model.WebhookOutcomePaidAfterTerminal, err.Error()
	case errors.Is(err, customErr.ErrInvalidTransition):
		log.Warn("Rejected status change on terminal payment", zap.Error(err))
		return nil, model.WebhookOutcomeIgnored, err.Error()
	case errors.Is(err, customErr.ErrPaymentNotFound):
		log.Warn("Payment disappeared before status update")
		return nil, model.WebhookOutcomeUnknownPayment, ""
	case err != nil:
		log.Error("Failed to update payment status", zap.Error(err))
		return nil, model.WebhookOutcomeError, err.Error()
	}

	if !transition.Applied {
		log.Info("Duplicate webhook, status already applied")
		return nil, model.WebhookOutcomeDuplicate, ""
	}
	return transition, "", ""
}
