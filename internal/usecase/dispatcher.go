package usecase

import (
	"context"
	"fmt"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreditLedger grants credits at most once per payment.
type CreditLedger interface {
	AddCredits(ctx context.Context, userID string, credits int64, packageType string, paymentID uint) (*AddCreditsResult, error)
}

// SubscriptionLifecycle is the part of the subscription service the
// dispatcher drives.
type SubscriptionLifecycle interface {
	CreateSubscriptionInternal(ctx context.Context, userID string, planType billing.PlanType, paymentID uint) (uuid.UUID, error)
	RenewSubscriptionInternal(ctx context.Context, subscriptionID uuid.UUID, paymentID uint) (*RenewResult, error)
	GetRenewableSubscription(ctx context.Context, userID string) (*model.Subscription, error)
}

// QuotaInitializer resets a user's allowance for the current period.
type QuotaInitializer interface {
	InitializeQuota(ctx context.Context, userID string, paymentID uint) (*model.UserQuota, error)
}

// DispatchResult is the entitlement outcome of one succeeded payment.
type DispatchResult struct {
	Status          model.EntitlementStatus
	Credits         int64
	NewTotalCredits int64
	PlanLabel       string
	SubscriptionID  uuid.UUID
	// Reason explains a skipped entitlement
	Reason string
}

type entitlementHandler func(ctx context.Context, payment *model.Payment) (*DispatchResult, error)

// Dispatcher routes a succeeded payment to the entitlement for its type.
type Dispatcher struct {
	ledger        CreditLedger
	subscriptions SubscriptionLifecycle
	quotas        QuotaInitializer
	logger        *zap.Logger
	handlers      map[billing.PaymentType]entitlementHandler
}

// NewDispatcher creates a new entitlement dispatcher
func NewDispatcher(
	ledger CreditLedger,
	subscriptions SubscriptionLifecycle,
	quotas QuotaInitializer,
	logger *zap.Logger,
) *Dispatcher {
	d := &Dispatcher{
		ledger:        ledger,
		subscriptions: subscriptions,
		quotas:        quotas,
		logger:        logger,
	}
	d.handlers = map[billing.PaymentType]entitlementHandler{
		billing.PaymentTypeCreditTopup:         d.creditTopup,
		billing.PaymentTypeSubscriptionInitial: d.subscriptionInitial,
		billing.PaymentTypeSubscriptionRenewal: d.subscriptionRenewal,
		billing.PaymentTypePaperCompletion:     d.paperCompletion,
	}
	return d
}

// Handles reports whether paymentType has an entitlement handler.
func (d *Dispatcher) Handles(paymentType billing.PaymentType) bool {
	_, ok := d.handlers[paymentType]
	return ok
}

// Dispatch grants the entitlement for payment. A panic inside a handler is
// returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, payment *model.Payment) (result *DispatchResult, err error) {
	handler, ok := d.handlers[payment.PaymentType]
	if !ok {
		d.logger.Warn("No entitlement handler for payment type, skipping",
			zap.Uint("payment_id", payment.ID),
			zap.String("payment_type", string(payment.PaymentType)))
		return &DispatchResult{
			Status: model.EntitlementStatusSkipped,
			Reason: fmt.Sprintf("unknown payment type %q", payment.PaymentType),
		}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Entitlement handler panicked",
				zap.Uint("payment_id", payment.ID),
				zap.String("payment_type", string(payment.PaymentType)),
				zap.Any("panic", r))
			result = nil
			err = fmt.Errorf("entitlement handler for %s panicked: %v", payment.PaymentType, r)
		}
	}()

	return handler(ctx, payment)
}

func (d *Dispatcher) creditTopup(ctx context.Context, payment *model.Payment) (*DispatchResult, error) {
	if payment.Credits <= 0 {
		d.logger.Warn("Top-up payment carries no credits, skipping",
			zap.Uint("payment_id", payment.ID),
			zap.String("user_id", payment.UserID))
		return &DispatchResult{Status: model.EntitlementStatusSkipped, Reason: "no credits on payment"}, nil
	}

	res, err := d.ledger.AddCredits(ctx, payment.UserID, payment.Credits, payment.PackageType, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to add credits: %w", err)
	}

	d.logger.Info("Credits granted",
		zap.Uint("payment_id", payment.ID),
		zap.String("user_id", payment.UserID),
		zap.Int64("credits", payment.Credits),
		zap.Int64("new_total_credits", res.NewTotalCredits),
		zap.Bool("already_applied", res.AlreadyApplied))

	return &DispatchResult{
		Status:          model.EntitlementStatusGranted,
		Credits:         payment.Credits,
		NewTotalCredits: res.NewTotalCredits,
	}, nil
}

func (d *Dispatcher) subscriptionInitial(ctx context.Context, payment *model.Payment) (*DispatchResult, error) {
	planType := payment.PlanType
	if planType == "" {
		planType = billing.PlanProMonthly
	}

	subID, err := d.subscriptions.CreateSubscriptionInternal(ctx, payment.UserID, planType, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	if _, err := d.quotas.InitializeQuota(ctx, payment.UserID, payment.ID); err != nil {
		return nil, fmt.Errorf("failed to initialize quota: %w", err)
	}

	return &DispatchResult{
		Status:         model.EntitlementStatusGranted,
		PlanLabel:      billing.PlanLabel(planType),
		SubscriptionID: subID,
	}, nil
}

func (d *Dispatcher) subscriptionRenewal(ctx context.Context, payment *model.Payment) (*DispatchResult, error) {
	sub, err := d.subscriptions.GetRenewableSubscription(ctx, payment.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get renewable subscription: %w", err)
	}
	if sub == nil {
		d.logger.Warn("Renewal payment without an active subscription",
			zap.Uint("payment_id", payment.ID),
			zap.String("user_id", payment.UserID))
		return &DispatchResult{Status: model.EntitlementStatusSkipped, Reason: "no active subscription"}, nil
	}

	if _, err := d.subscriptions.RenewSubscriptionInternal(ctx, sub.ID, payment.ID); err != nil {
		return nil, fmt.Errorf("failed to renew subscription: %w", err)
	}
	if _, err := d.quotas.InitializeQuota(ctx, payment.UserID, payment.ID); err != nil {
		return nil, fmt.Errorf("failed to initialize quota: %w", err)
	}

	return &DispatchResult{
		Status:         model.EntitlementStatusGranted,
		PlanLabel:      billing.PlanLabel(sub.PlanType),
		SubscriptionID: sub.ID,
	}, nil
}

// TODO: unlock the paper once the paper service exposes an internal completion endpoint.
func (d *Dispatcher) paperCompletion(ctx context.Context, payment *model.Payment) (*DispatchResult, error) {
	d.logger.Info("Paper completion payment received, unlock not implemented",
		zap.Uint("payment_id", payment.ID),
		zap.String("user_id", payment.UserID))
	return &DispatchResult{Status: model.EntitlementStatusSkipped, Reason: "paper unlock not implemented"}, nil
}
