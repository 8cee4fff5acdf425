package usecase

import (
	"context"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
)

// EntitlementDispatcher grants the entitlement of a succeeded payment.
type EntitlementDispatcher interface {
	Dispatch(ctx context.Context, payment *model.Payment) (*DispatchResult, error)
}

// settleEntitlement dispatches payment and records the outcome on the payment
// row. A failed mark leaves the payment visible to the reconciliation sweep.
func settleEntitlement(
	ctx context.Context,
	dispatcher EntitlementDispatcher,
	paymentRepo domainRepo.PaymentRepository,
	logger *zap.Logger,
	payment *model.Payment,
) (*DispatchResult, error) {
	result, dispatchErr := dispatcher.Dispatch(ctx, payment)
	if dispatchErr != nil {
		logger.Error("Entitlement dispatch failed",
			zap.Uint("payment_id", payment.ID),
			zap.String("user_id", payment.UserID),
			zap.String("payment_type", string(payment.PaymentType)),
			zap.Error(dispatchErr))

		if err := paymentRepo.MarkEntitlement(ctx, payment.ID, model.EntitlementStatusFailed, dispatchErr.Error()); err != nil {
			logger.Error("Failed to record entitlement failure",
				zap.Uint("payment_id", payment.ID),
				zap.Error(err))
		}
		return nil, dispatchErr
	}

	if err := paymentRepo.MarkEntitlement(ctx, payment.ID, result.Status, result.Reason); err != nil {
		logger.Error("Failed to record entitlement",
			zap.Uint("payment_id", payment.ID),
			zap.String("entitlement_status", string(result.Status)),
			zap.Error(err))
	}
	return result, nil
}
