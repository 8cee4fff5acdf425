package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// creditRepository implements the CreditRepository interface
type creditRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCreditRepository creates a new credit repository instance
func NewCreditRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CreditRepository {
	return &creditRepository{
		db:     db,
		logger: logger,
	}
}

// GetBalance retrieves the current credit balance for a user
func (r *creditRepository) GetBalance(ctx context.Context, userID string) (*model.CreditBalance, error) {
	var balance model.CreditBalance

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&balance).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.CreditBalance{UserID: userID}, nil
		}
		r.logger.Error("Failed to get credit balance",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get credit balance: %w", err)
	}

	return &balance, nil
}

func (r *creditRepository) GetGrantByPaymentID(ctx context.Context, paymentID uint) (*model.CreditGrant, error) {
	return r.grantByPayment(r.db.WithContext(ctx), paymentID)
}

func (r *creditRepository) ListGrantsByUser(ctx context.Context, userID string, limit int) ([]*model.CreditGrant, error) {
	var grants []*model.CreditGrant
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&grants).Error; err != nil {
		r.logger.Error("Failed to list credit grants",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list credit grants: %w", err)
	}
	return grants, nil
}

func (r *creditRepository) grantByPayment(tx *gorm.DB, paymentID uint) (*model.CreditGrant, error) {
	var grant model.CreditGrant
	err := tx.Where("payment_id = ?", paymentID).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credit grant: %w", err)
	}
	return &grant, nil
}

// AddCredits adds credits to a user's balance atomically. The balance row is
// locked before the grant lookup so concurrent grants for one payment serialize.
func (r *creditRepository) AddCredits(ctx context.Context, userID string, credits int64, packageType string, paymentID uint) (*model.CreditBalance, bool, error) {
	var balance *model.CreditBalance
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.CreditBalance
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			FirstOrCreate(&current, model.CreditBalance{UserID: userID}).Error
		if err != nil {
			return fmt.Errorf("failed to lock balance: %w", err)
		}

		existing, err := r.grantByPayment(tx, paymentID)
		if err != nil {
			return err
		}
		if existing != nil {
			r.logger.Info("Credit grant already applied",
				zap.Uint("payment_id", paymentID),
				zap.String("user_id", userID))
			balance = &current
			return nil
		}

		now := time.Now()
		current.TotalCredits += credits
		current.RemainingCredits += credits
		current.TotalPurchasedCredits += credits
		current.LastPurchaseAt = &now
		current.LastPurchaseType = &packageType
		current.LastPurchaseCredits = &credits

		if err := tx.Save(&current).Error; err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		grant := &model.CreditGrant{
			PaymentID:    paymentID,
			UserID:       userID,
			Credits:      credits,
			PackageType:  packageType,
			BalanceAfter: current.RemainingCredits,
		}
		if err := tx.Create(grant).Error; err != nil {
			return fmt.Errorf("failed to record credit grant: %w", err)
		}

		balance = &current
		applied = true
		return nil
	})

	if err != nil {
		// A concurrent transaction may have inserted the grant or the balance
		// row first; if the grant is there, this call is a duplicate.
		if grant, lookupErr := r.GetGrantByPaymentID(ctx, paymentID); lookupErr == nil && grant != nil {
			current, balErr := r.GetBalance(ctx, userID)
			if balErr == nil {
				return current, false, nil
			}
		}

		r.logger.Error("Failed to add credits",
			zap.String("user_id", userID),
			zap.Int64("credits", credits),
			zap.Uint("payment_id", paymentID),
			zap.Error(err))
		return nil, false, fmt.Errorf("failed to add credits: %w", err)
	}

	if applied {
		r.logger.Info("Credits added",
			zap.String("user_id", userID),
			zap.Int64("credits", credits),
			zap.Int64("remaining_credits", balance.RemainingCredits),
			zap.Uint("payment_id", paymentID))
	}

	return balance, applied, nil
}
