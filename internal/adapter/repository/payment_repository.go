package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	domainErrors "github.com/Posteriot/makalah-app-sub005/internal/domain/errors"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	if payment.Status == "" {
		payment.Status = billing.PaymentStatusPending
	}
	if payment.Currency == "" {
		payment.Currency = "IDR"
	}

	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		r.logger.Error("Failed to create payment",
			zap.String("provider_payment_id", payment.ProviderPaymentID),
			zap.String("reference_id", payment.ReferenceID),
			zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*model.Payment, error) {
	return r.first(ctx, "provider_payment_id = ?", providerPaymentID)
}

func (r *paymentRepository) GetByReferenceID(ctx context.Context, referenceID string) (*model.Payment, error) {
	return r.first(ctx, "reference_id = ?", referenceID)
}

func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*model.Payment, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *paymentRepository) first(ctx context.Context, query string, arg interface{}) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).Where(query, arg).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Payment, error) {
	var payments []*model.Payment

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// UpdateStatus applies the transition as UPDATE ... WHERE status = 'PENDING'.
// Only the caller whose write affected the row sees Applied=true.
func (r *paymentRepository) UpdateStatus(ctx context.Context, providerPaymentID string, status billing.PaymentStatus, paidAt *time.Time, metadata map[string]interface{}) (*model.StatusTransition, error) {
	current, err := r.GetByProviderPaymentID(ctx, providerPaymentID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domainErrors.ErrPaymentNotFound
	}
	if current.Status != billing.PaymentStatusPending {
		return r.classify(current, status)
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, domainErrors.NewTransitionError(providerPaymentID, string(current.Status), string(status))
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	if status == billing.PaymentStatusExpired {
		updates["expired_at"] = now
	}
	if len(metadata) > 0 {
		merged := datatypes.JSONMap{}
		for k, v := range current.Metadata {
			merged[k] = v
		}
		for k, v := range metadata {
			merged[k] = v
		}
		updates["metadata"] = merged
	}

	result := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("provider_payment_id = ? AND status = ?", providerPaymentID, billing.PaymentStatusPending).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to update payment status",
			zap.String("provider_payment_id", providerPaymentID),
			zap.String("status", string(status)),
			zap.Error(result.Error))
		return nil, fmt.Errorf("failed to update payment status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Lost the race to a concurrent delivery.
		latest, err := r.GetByProviderPaymentID(ctx, providerPaymentID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return r.classify(latest, status)
	}

	r.logger.Info("Payment status updated",
		zap.Uint("payment_id", current.ID),
		zap.String("provider_payment_id", providerPaymentID),
		zap.String("previous_status", string(current.Status)),
		zap.String("status", string(status)))

	return &model.StatusTransition{
		PaymentID:      current.ID,
		PreviousStatus: current.Status,
		NewStatus:      status,
		Applied:        true,
	}, nil
}

func (r *paymentRepository) classify(current *model.Payment, requested billing.PaymentStatus) (*model.StatusTransition, error) {
	if current.Status == requested {
		return &model.StatusTransition{
			PaymentID:      current.ID,
			PreviousStatus: current.Status,
			NewStatus:      current.Status,
			Applied:        false,
		}, nil
	}
	return nil, domainErrors.NewTransitionError(current.ProviderPaymentID, string(current.Status), string(requested))
}

func (r *paymentRepository) MarkEntitlement(ctx context.Context, paymentID uint, status model.EntitlementStatus, errMsg string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"entitlement_status": status,
		"entitlement_at":     now,
		"updated_at":         now,
		"entitlement_error":  nil,
	}
	if errMsg != "" {
		updates["entitlement_error"] = errMsg
	}

	result := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to mark entitlement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrPaymentNotFound
	}
	return nil
}

func (r *paymentRepository) ListEntitlementPending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error) {
	var payments []*model.Payment

	query := r.db.WithContext(ctx).
		Where("status = ? AND entitlement_status IN (?, ?) AND updated_at <= ?",
			billing.PaymentStatusSucceeded,
			model.EntitlementStatusNone,
			model.EntitlementStatusFailed,
			olderThan).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments pending entitlement: %w", err)
	}
	return payments, nil
}

type groupCount struct {
	GroupKey string
	Count    int64
}

func (r *paymentRepository) Stats(ctx context.Context) (*model.PaymentStats, error) {
	stats := &model.PaymentStats{
		ByStatus: map[string]int64{},
		ByType:   map[string]int64{},
		ByMethod: map[string]int64{},
	}

	groups := []struct {
		column string
		into   map[string]int64
	}{
		{"status", stats.ByStatus},
		{"payment_type", stats.ByType},
		{"payment_method", stats.ByMethod},
	}

	for _, g := range groups {
		var rows []groupCount
		err := r.db.WithContext(ctx).
			Model(&model.Payment{}).
			Select(g.column + " AS group_key, COUNT(*) AS count").
			Group(g.column).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count payments by %s: %w", g.column, err)
		}
		for _, row := range rows {
			key := row.GroupKey
			if key == "" {
				key = "unknown"
			}
			g.into[key] += row.Count
			if g.column == "status" {
				stats.Total += row.Count
			}
		}
	}

	var succeeded struct{ Sum int64 }
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS sum").
		Where("status = ?", billing.PaymentStatusSucceeded).
		Scan(&succeeded).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum succeeded payments: %w", err)
	}
	stats.SucceededIDR = succeeded.Sum

	err = r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("status = ? AND entitlement_status IN (?, ?)",
			billing.PaymentStatusSucceeded, model.EntitlementStatusNone, model.EntitlementStatusFailed).
		Count(&stats.UngrantedPaid).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count ungranted payments: %w", err)
	}

	return stats, nil
}
