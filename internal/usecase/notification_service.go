package usecase

import (
	"context"
	"sync"
	"time"

	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/notification"
	"go.uber.org/zap"
)

// SuccessNotice is what the webhook flow knows about a settled payment.
type SuccessNotice struct {
	UserID          string
	Amount          int64
	Credits         int64
	NewTotalCredits int64
	PlanLabel       string
	TransactionID   string
	PaidAt          time.Time
}

// FailureNotice is what the webhook flow knows about a failed payment.
type FailureNotice struct {
	UserID        string
	Amount        int64
	FailureReason string
	TransactionID string
}

// NotificationService sends payment emails off the request path. Failures
// are logged and never reach the caller.
type NotificationService struct {
	notifier notification.Notifier
	userRepo domainRepo.UserRepository
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notifier notification.Notifier,
	userRepo domainRepo.UserRepository,
	timeout time.Duration,
	logger *zap.Logger,
) *NotificationService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &NotificationService{
		notifier: notifier,
		userRepo: userRepo,
		timeout:  timeout,
		logger:   logger,
	}
}

// NotifySuccess queues a payment confirmation email.
func (s *NotificationService) NotifySuccess(notice SuccessNotice) {
	s.goSend("payment_success", notice.UserID, func(ctx context.Context, to, name string) error {
		return s.notifier.SendPaymentSuccess(ctx, notification.PaymentSuccessEmail{
			To:              to,
			UserName:        name,
			Amount:          notice.Amount,
			Credits:         notice.Credits,
			NewTotalCredits: notice.NewTotalCredits,
			PlanLabel:       notice.PlanLabel,
			TransactionID:   notice.TransactionID,
			PaidAt:          notice.PaidAt,
		})
	})
}

// NotifyFailure queues a payment failure email.
func (s *NotificationService) NotifyFailure(notice FailureNotice) {
	s.goSend("payment_failed", notice.UserID, func(ctx context.Context, to, name string) error {
		return s.notifier.SendPaymentFailed(ctx, notification.PaymentFailedEmail{
			To:            to,
			UserName:      name,
			Amount:        notice.Amount,
			FailureReason: notice.FailureReason,
			TransactionID: notice.TransactionID,
		})
	})
}

// Wait blocks until queued emails have been attempted.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) goSend(kind, userID string, send func(ctx context.Context, to, name string) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Notification panicked",
					zap.String("kind", kind),
					zap.String("user_id", userID),
					zap.Any("panic", r))
			}
		}()

		// Detached from the request so a returned webhook response does not cancel delivery.
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			s.logger.Error("Failed to load user for notification",
				zap.String("kind", kind),
				zap.String("user_id", userID),
				zap.Error(err))
			return
		}
		if user == nil || user.Email == "" {
			s.logger.Warn("No email address for notification",
				zap.String("kind", kind),
				zap.String("user_id", userID))
			return
		}

		if err := send(ctx, user.Email, user.FirstName); err != nil {
			s.logger.Error("Failed to send payment email",
				zap.String("kind", kind),
				zap.String("user_id", userID),
				zap.Error(err))
			return
		}

		s.logger.Info("Payment email sent",
			zap.String("kind", kind),
			zap.String("user_id", userID))
	}()
}
