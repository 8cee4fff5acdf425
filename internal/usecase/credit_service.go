package usecase

import (
	"context"
	"fmt"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	customErr "github.com/Posteriot/makalah-app-sub005/internal/domain/errors"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
)

// AddCreditsResult is the ledger outcome of a top-up.
type AddCreditsResult struct {
	NewTotalCredits  int64 `json:"new_total_credits"`
	RemainingCredits int64 `json:"remaining_credits"`
	// AlreadyApplied is true when the payment had been credited before
	AlreadyApplied bool `json:"already_applied"`
}

// CreditService is the credit ledger.
type CreditService struct {
	creditRepo domainRepo.CreditRepository
	userRepo   domainRepo.UserRepository
	logger     *zap.Logger
}

// NewCreditService creates a new credit service instance
func NewCreditService(
	creditRepo domainRepo.CreditRepository,
	userRepo domainRepo.UserRepository,
	logger *zap.Logger,
) *CreditService {
	return &CreditService{
		creditRepo: creditRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// AddCredits credits userID once per paymentID and moves free users to the
// credit based tier.
func (s *CreditService) AddCredits(ctx context.Context, userID string, credits int64, packageType string, paymentID uint) (*AddCreditsResult, error) {
	if credits <= 0 {
		return nil, customErr.ErrInvalidCreditAmount
	}
	if packageType == "" {
		packageType = billing.DefaultPackageType
	}

	balance, applied, err := s.creditRepo.AddCredits(ctx, userID, credits, packageType, paymentID)
	if err != nil {
		return nil, err
	}

	if applied {
		if err := s.userRepo.UpgradeTier(ctx, userID, billing.TierBPP, billing.TierFree); err != nil {
			// The balance is already committed; the tier catches up on the next grant.
			s.logger.Error("Failed to upgrade user tier after top-up",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	} else {
		s.logger.Info("Credits already applied for payment",
			zap.String("user_id", userID),
			zap.Uint("payment_id", paymentID))
	}

	return &AddCreditsResult{
		NewTotalCredits:  balance.TotalCredits,
		RemainingCredits: balance.RemainingCredits,
		AlreadyApplied:   !applied,
	}, nil
}

// GetBalance returns the user's balance, zero valued when none exists.
func (s *CreditService) GetBalance(ctx context.Context, userID string) (*model.CreditBalance, error) {
	balance, err := s.creditRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit balance: %w", err)
	}
	return balance, nil
}

// GetCreditHistory returns the user's most recent credit grants.
func (s *CreditService) GetCreditHistory(ctx context.Context, userID string, limit int) ([]*model.CreditGrant, error) {
	if limit < 1 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	grants, err := s.creditRepo.ListGrantsByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit history: %w", err)
	}
	return grants, nil
}
