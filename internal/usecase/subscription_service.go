package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	customErr "github.com/Posteriot/makalah-app-sub005/internal/domain/errors"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RenewResult is the period written by a renewal.
type RenewResult struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	NewPeriodStart time.Time `json:"new_period_start"`
	NewPeriodEnd   time.Time `json:"new_period_end"`
	// AlreadyApplied is true when this payment had renewed the period before
	AlreadyApplied bool `json:"already_applied"`
}

// CancelResult describes when a cancellation takes effect.
type CancelResult struct {
	CanceledAt        time.Time `json:"canceled_at"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
	EffectiveEndDate  time.Time `json:"effective_end_date"`
}

// SubscriptionService manages the Pro subscription lifecycle.
type SubscriptionService struct {
	subscriptionRepo domainRepo.SubscriptionRepository
	creditRepo       domainRepo.CreditRepository
	userRepo         domainRepo.UserRepository
	logger           *zap.Logger
	now              func() time.Time
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	subscriptionRepo domainRepo.SubscriptionRepository,
	creditRepo domainRepo.CreditRepository,
	userRepo domainRepo.UserRepository,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		creditRepo:       creditRepo,
		userRepo:         userRepo,
		logger:           logger,
		now:              time.Now,
	}
}

// CreateSubscriptionInternal opens a subscription for a paid initial payment.
// An existing active subscription is returned instead of creating a second one.
func (s *SubscriptionService) CreateSubscriptionInternal(ctx context.Context, userID string, planType billing.PlanType, paymentID uint) (uuid.UUID, error) {
	plan, ok := billing.LookupPlan(planType)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", customErr.ErrUnknownPlan, planType)
	}

	now := s.now()
	sub := &model.Subscription{
		UserID:             userID,
		PlanType:           plan.Type,
		Status:             model.SubscriptionStatusActive,
		PriceIDR:           plan.Price.IntPart(),
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   plan.AddInterval(now),
	}
	if paymentID != 0 {
		sub.LastPaymentID = &paymentID
	}

	result, created, err := s.subscriptionRepo.CreateIfNoneActive(ctx, sub)
	if err != nil {
		return uuid.Nil, err
	}

	if !created {
		s.logger.Warn("User already has an active subscription, skipping create",
			zap.String("user_id", userID),
			zap.String("subscription_id", result.ID.String()),
			zap.Uint("payment_id", paymentID))
	} else {
		s.logger.Info("Subscription created",
			zap.String("user_id", userID),
			zap.String("subscription_id", result.ID.String()),
			zap.String("plan_type", string(plan.Type)),
			zap.Time("current_period_end", result.CurrentPeriodEnd))
	}

	if err := s.userRepo.UpdateTier(ctx, userID, billing.TierPro); err != nil {
		return result.ID, fmt.Errorf("failed to set user tier: %w", err)
	}

	return result.ID, nil
}

// RenewSubscriptionInternal extends the period from the current period end,
// not from now, so early or late renewals neither lose nor gain days. A
// payment that already renewed the subscription is not applied again.
func (s *SubscriptionService) RenewSubscriptionInternal(ctx context.Context, subscriptionID uuid.UUID, paymentID uint) (*RenewResult, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, customErr.ErrSubscriptionNotFound
	}

	if paymentID != 0 && sub.LastPaymentID != nil && *sub.LastPaymentID == paymentID {
		return s.renewalAlreadyApplied(sub, paymentID), nil
	}

	plan, ok := billing.LookupPlan(sub.PlanType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", customErr.ErrUnknownPlan, sub.PlanType)
	}

	newStart := sub.CurrentPeriodEnd
	newEnd := plan.AddInterval(newStart)

	updates := map[string]interface{}{
		"status":               model.SubscriptionStatusActive,
		"current_period_start": newStart,
		"current_period_end":   newEnd,
		"cancel_at_period_end": false,
		"canceled_at":          nil,
		"cancel_reason":        nil,
		"updated_at":           s.now(),
	}
	if paymentID != 0 {
		updates["last_payment_id"] = paymentID
	}

	applied, err := s.subscriptionRepo.ApplyRenewal(ctx, sub.ID, paymentID, updates)
	if err != nil {
		return nil, err
	}
	if !applied {
		current, err := s.subscriptionRepo.GetByID(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, customErr.ErrSubscriptionNotFound
		}
		return s.renewalAlreadyApplied(current, paymentID), nil
	}

	s.logger.Info("Subscription renewed",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("user_id", sub.UserID),
		zap.Time("new_period_start", newStart),
		zap.Time("new_period_end", newEnd))

	return &RenewResult{
		SubscriptionID: sub.ID,
		NewPeriodStart: newStart,
		NewPeriodEnd:   newEnd,
	}, nil
}

func (s *SubscriptionService) renewalAlreadyApplied(sub *model.Subscription, paymentID uint) *RenewResult {
	s.logger.Info("Renewal already applied for payment",
		zap.String("subscription_id", sub.ID.String()),
		zap.Uint("payment_id", paymentID))
	return &RenewResult{
		SubscriptionID: sub.ID,
		NewPeriodStart: sub.CurrentPeriodStart,
		NewPeriodEnd:   sub.CurrentPeriodEnd,
		AlreadyApplied: true,
	}
}

// CancelSubscription cancels the user's active subscription, either at the
// end of the current period or immediately.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, userID, reason string, cancelAtPeriodEnd bool) (*CancelResult, error) {
	sub, err := s.subscriptionRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, customErr.ErrNoActiveSubscription
	}

	now := s.now()
	updates := map[string]interface{}{
		"canceled_at":          now,
		"cancel_at_period_end": cancelAtPeriodEnd,
		"updated_at":           now,
	}
	if reason != "" {
		updates["cancel_reason"] = reason
	}
	if !cancelAtPeriodEnd {
		updates["status"] = model.SubscriptionStatusCanceled
	}

	if err := s.subscriptionRepo.Update(ctx, sub.ID, updates); err != nil {
		return nil, err
	}

	result := &CancelResult{
		CanceledAt:        now,
		CancelAtPeriodEnd: cancelAtPeriodEnd,
		EffectiveEndDate:  sub.CurrentPeriodEnd,
	}

	if !cancelAtPeriodEnd {
		result.EffectiveEndDate = now
		tier, err := s.downgrade(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Subscription canceled immediately",
			zap.String("user_id", userID),
			zap.String("subscription_id", sub.ID.String()),
			zap.String("downgraded_to", string(tier)))
	} else {
		s.logger.Info("Subscription set to cancel at period end",
			zap.String("user_id", userID),
			zap.String("subscription_id", sub.ID.String()),
			zap.Time("current_period_end", sub.CurrentPeriodEnd))
	}

	return result, nil
}

// ReactivateSubscription undoes a pending cancellation while the period is
// still running, and restores a past due subscription.
func (s *SubscriptionService) ReactivateSubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	sub, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		return customErr.ErrSubscriptionNotFound
	}

	switch sub.Status {
	case model.SubscriptionStatusActive, model.SubscriptionStatusPastDue:
	default:
		return customErr.ErrNoActiveSubscription
	}
	now := s.now()
	if !now.Before(sub.CurrentPeriodEnd) {
		return customErr.ErrSubscriptionPeriodEnded
	}

	err = s.subscriptionRepo.Update(ctx, sub.ID, map[string]interface{}{
		"status":               model.SubscriptionStatusActive,
		"cancel_at_period_end": false,
		"canceled_at":          nil,
		"cancel_reason":        nil,
		"updated_at":           now,
	})
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdateTier(ctx, sub.UserID, billing.TierPro); err != nil {
		return fmt.Errorf("failed to set user tier: %w", err)
	}

	s.logger.Info("Subscription reactivated",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("user_id", sub.UserID))
	return nil
}

// ReactivateForUser reactivates the user's current subscription.
func (s *SubscriptionService) ReactivateForUser(ctx context.Context, userID string) error {
	sub, err := s.subscriptionRepo.GetLatestByUser(ctx, userID)
	if err != nil {
		return err
	}
	if sub == nil {
		return customErr.ErrSubscriptionNotFound
	}
	return s.ReactivateSubscription(ctx, sub.ID)
}

// GetActiveSubscription returns nil when the user has no active subscription.
func (s *SubscriptionService) GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	return s.subscriptionRepo.GetActiveByUser(ctx, userID)
}

// GetRenewableSubscription returns the subscription a renewal payment extends:
// the active one, or the latest one if it is past due. nil when neither exists.
func (s *SubscriptionService) GetRenewableSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.subscriptionRepo.GetActiveByUser(ctx, userID)
	if err != nil || sub != nil {
		return sub, err
	}

	latest, err := s.subscriptionRepo.GetLatestByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.Status == model.SubscriptionStatusPastDue {
		return latest, nil
	}
	return nil, nil
}

// ExpireSubscription ends a subscription and downgrades the user.
func (s *SubscriptionService) ExpireSubscription(ctx context.Context, subscriptionID uuid.UUID) (billing.Tier, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return "", customErr.ErrSubscriptionNotFound
	}

	err = s.subscriptionRepo.Update(ctx, sub.ID, map[string]interface{}{
		"status":     model.SubscriptionStatusExpired,
		"updated_at": s.now(),
	})
	if err != nil {
		return "", err
	}

	tier, err := s.downgrade(ctx, sub.UserID)
	if err != nil {
		return "", err
	}

	s.logger.Info("Subscription expired",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("user_id", sub.UserID),
		zap.String("downgraded_to", string(tier)))
	return tier, nil
}

// MarkPastDue flags a subscription whose recurring payment failed.
func (s *SubscriptionService) MarkPastDue(ctx context.Context, subscriptionID uuid.UUID) error {
	err := s.subscriptionRepo.Update(ctx, subscriptionID, map[string]interface{}{
		"status":     model.SubscriptionStatusPastDue,
		"updated_at": s.now(),
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return customErr.ErrSubscriptionNotFound
	}
	return err
}

// SweepReport summarizes one period end sweep.
type SweepReport struct {
	Expired int `json:"expired"`
	PastDue int `json:"past_due"`
	Failed  int `json:"failed"`
}

// SweepPeriodEnds applies period end transitions. Past due subscriptions
// whose period ended more than grace ago expire. Active subscriptions whose
// period ended expire when cancellation was scheduled and become past due
// otherwise. limit bounds each of the two scans.
func (s *SubscriptionService) SweepPeriodEnds(ctx context.Context, grace time.Duration, limit int) (*SweepReport, error) {
	now := s.now()
	report := &SweepReport{}

	overdue, err := s.subscriptionRepo.ListPeriodEnded(ctx,
		[]model.SubscriptionStatus{model.SubscriptionStatusPastDue}, now.Add(-grace), limit)
	if err != nil {
		return nil, err
	}
	for _, sub := range overdue {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, err := s.ExpireSubscription(ctx, sub.ID); err != nil {
			s.logger.Error("Failed to expire past due subscription",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			report.Failed++
			continue
		}
		report.Expired++
	}

	ended, err := s.subscriptionRepo.ListPeriodEnded(ctx,
		[]model.SubscriptionStatus{model.SubscriptionStatusActive}, now, limit)
	if err != nil {
		return report, err
	}
	for _, sub := range ended {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if sub.CancelAtPeriodEnd {
			if _, err := s.ExpireSubscription(ctx, sub.ID); err != nil {
				s.logger.Error("Failed to expire canceled subscription",
					zap.String("subscription_id", sub.ID.String()),
					zap.Error(err))
				report.Failed++
				continue
			}
			report.Expired++
			continue
		}

		if err := s.MarkPastDue(ctx, sub.ID); err != nil {
			s.logger.Error("Failed to mark subscription past due",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			report.Failed++
			continue
		}
		s.logger.Info("Subscription past due",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("user_id", sub.UserID),
			zap.Time("current_period_end", sub.CurrentPeriodEnd))
		report.PastDue++
	}

	s.logger.Info("Subscription period sweep finished",
		zap.Int("expired", report.Expired),
		zap.Int("past_due", report.PastDue),
		zap.Int("failed", report.Failed))
	return report, nil
}

// GetSubscriptionHistory returns every subscription of the user, newest first.
func (s *SubscriptionService) GetSubscriptionHistory(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return s.subscriptionRepo.ListByUser(ctx, userID)
}

// CheckSubscriptionStatus summarizes the user's current subscription.
func (s *SubscriptionService) CheckSubscriptionStatus(ctx context.Context, userID string) (*model.SubscriptionStatusSummary, error) {
	sub, err := s.subscriptionRepo.GetLatestByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil || (sub.Status != model.SubscriptionStatusActive && sub.Status != model.SubscriptionStatusPastDue) {
		return &model.SubscriptionStatusSummary{HasSubscription: false}, nil
	}

	now := s.now()
	end := sub.CurrentPeriodEnd
	summary := &model.SubscriptionStatusSummary{
		HasSubscription:   true,
		IsActive:          sub.IsActive(now),
		Status:            sub.Status,
		PlanType:          sub.PlanType,
		PlanLabel:         billing.PlanLabel(sub.PlanType),
		CurrentPeriodEnd:  &end,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if end.After(now) {
		summary.DaysRemaining = int(math.Ceil(end.Sub(now).Hours() / 24))
	}
	return summary, nil
}

// downgrade moves the user to bpp when credits remain, otherwise to free.
func (s *SubscriptionService) downgrade(ctx context.Context, userID string) (billing.Tier, error) {
	balance, err := s.creditRepo.GetBalance(ctx, userID)
	if err != nil {
		return "", err
	}

	tier := billing.TierFree
	if balance.RemainingCredits > 0 {
		tier = billing.TierBPP
	}
	if err := s.userRepo.UpdateTier(ctx, userID, tier); err != nil {
		return "", fmt.Errorf("failed to downgrade user tier: %w", err)
	}
	return tier, nil
}
