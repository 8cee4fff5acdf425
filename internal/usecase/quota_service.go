package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
)

// QuotaService resets a user's periodic allowance.
type QuotaService struct {
	quotaRepo domainRepo.QuotaRepository
	userRepo  domainRepo.UserRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewQuotaService creates a new quota service
func NewQuotaService(
	quotaRepo domainRepo.QuotaRepository,
	userRepo domainRepo.UserRepository,
	logger *zap.Logger,
) *QuotaService {
	return &QuotaService{
		quotaRepo: quotaRepo,
		userRepo:  userRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// InitializeQuota writes a fresh quota row for the user's current tier and
// billing period, zeroing all usage counters. A non-zero paymentID resets the
// row at most once; a repeat returns the current row untouched.
func (s *QuotaService) InitializeQuota(ctx context.Context, userID string, paymentID uint) (*model.UserQuota, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user not found: %s", userID)
	}

	now := s.now()
	tier := user.SubscriptionStatus
	if tier == "" {
		tier = billing.TierFree
	}
	limits := billing.LimitsFor(tier)
	start, end := billing.PeriodBoundaries(user.CreatedAt, now)

	quota := &model.UserQuota{
		UserID:          userID,
		Tier:            tier,
		PeriodStart:     start,
		PeriodEnd:       end,
		AllottedTokens:  limits.MonthlyTokens,
		RemainingTokens: limits.MonthlyTokens,
		AllottedPapers:  limits.PapersPerMonth,
		LastDailyReset:  now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if paymentID != 0 {
		quota.LastPaymentID = &paymentID
	}

	applied, err := s.quotaRepo.Upsert(ctx, quota)
	if err != nil {
		return nil, err
	}
	if !applied {
		s.logger.Info("Quota already initialized for payment",
			zap.String("user_id", userID),
			zap.Uint("payment_id", paymentID))
		return s.quotaRepo.GetByUser(ctx, userID)
	}

	s.logger.Info("Quota initialized",
		zap.String("user_id", userID),
		zap.String("tier", string(tier)),
		zap.Time("period_start", start),
		zap.Time("period_end", end),
		zap.Int64("allotted_tokens", limits.MonthlyTokens))

	return quota, nil
}

// GetQuota returns nil when the user has no quota row.
func (s *QuotaService) GetQuota(ctx context.Context, userID string) (*model.UserQuota, error) {
	return s.quotaRepo.GetByUser(ctx, userID)
}
