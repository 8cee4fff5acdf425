package usecase

import (
	"context"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"go.uber.org/zap"
)

// ReconcileReport summarizes one sweep.
type ReconcileReport struct {
	Scanned int `json:"scanned"`
	Granted int `json:"granted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ReconcileService re-dispatches succeeded payments whose entitlement never
// landed. It is run on demand, not on a timer.
type ReconcileService struct {
	paymentRepo domainRepo.PaymentRepository
	dispatcher  EntitlementDispatcher
	staleAfter  time.Duration
	batchSize   int
	logger      *zap.Logger
	now         func() time.Time
}

// NewReconcileService creates a new reconciliation service
func NewReconcileService(
	paymentRepo domainRepo.PaymentRepository,
	dispatcher EntitlementDispatcher,
	staleAfter time.Duration,
	batchSize int,
	logger *zap.Logger,
) *ReconcileService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ReconcileService{
		paymentRepo: paymentRepo,
		dispatcher:  dispatcher,
		staleAfter:  staleAfter,
		batchSize:   batchSize,
		logger:      logger,
		now:         time.Now,
	}
}

// Run dispatches up to limit pending entitlements once each. A limit of
// zero uses the configured batch size.
func (s *ReconcileService) Run(ctx context.Context, limit int) (*ReconcileReport, error) {
	if limit <= 0 {
		limit = s.batchSize
	}
	olderThan := s.now().Add(-s.staleAfter)

	payments, err := s.paymentRepo.ListEntitlementPending(ctx, olderThan, limit)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Scanned: len(payments)}
	for _, payment := range payments {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Reconciliation interrupted",
				zap.Int("scanned", report.Scanned),
				zap.Error(err))
			return report, err
		}

		result, err := settleEntitlement(ctx, s.dispatcher, s.paymentRepo, s.logger, payment)
		switch {
		case err != nil:
			report.Failed++
		case result.Status == model.EntitlementStatusSkipped:
			report.Skipped++
		default:
			report.Granted++
		}
	}

	s.logger.Info("Reconciliation sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("granted", report.Granted),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	return report, nil
}
