package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Posteriot/makalah-app-sub005/internal/domain/billing"
	customErr "github.com/Posteriot/makalah-app-sub005/internal/domain/errors"
	"github.com/Posteriot/makalah-app-sub005/internal/domain/model"
	domainRepo "github.com/Posteriot/makalah-app-sub005/internal/domain/repository"
	infraProvider "github.com/Posteriot/makalah-app-sub005/internal/infrastructure/provider"
	"github.com/go-playground/validator/v10"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// CreatePaymentRequest registers a checkout with the payment core.
type CreatePaymentRequest struct {
	ProviderPaymentID string `json:"provider_payment_id" validate:"required,max=128"`
	ReferenceID       string `json:"reference_id,omitempty" validate:"omitempty,max=128"`
	Provider          string `json:"provider,omitempty" validate:"omitempty,oneof=xendit midtrans stripe"`
	UserID            string `json:"user_id" validate:"required,max=64"`
	Amount            int64  `json:"amount" validate:"gte=0"`
	PaymentType       string `json:"payment_type" validate:"required,oneof=credit_topup paper_completion subscription_initial subscription_renewal"`
	PaymentMethod     string `json:"payment_method,omitempty" validate:"omitempty,oneof=QRIS VIRTUAL_ACCOUNT EWALLET"`
	PaymentChannel    string `json:"payment_channel,omitempty" validate:"omitempty,max=64"`
	PackageType       string `json:"package_type,omitempty" validate:"omitempty,max=32"`
	Credits           int64  `json:"credits" validate:"gte=0"`
	PlanType          string `json:"plan_type,omitempty" validate:"omitempty,oneof=pro_monthly pro_yearly"`
	SessionID         string `json:"session_id,omitempty" validate:"omitempty,max=128"`
	Description       string `json:"description,omitempty"`
	IdempotencyKey    string `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
}

// PaymentService records checkouts and serves payment reads. It never
// changes a payment's status.
type PaymentService struct {
	paymentRepo domainRepo.PaymentRepository
	configs     infraProvider.ConfigCache
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo domainRepo.PaymentRepository,
	configs infraProvider.ConfigCache,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		configs:     configs,
		validate:    validator.New(),
		logger:      logger,
	}
}

const referenceAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newReferenceID returns an order reference such as pay_k3v9x0c2m7qa8d1e.
func newReferenceID() (string, error) {
	id, err := gonanoid.Generate(referenceAlphabet, 16)
	if err != nil {
		return "", fmt.Errorf("failed to generate reference id: %w", err)
	}
	return "pay_" + id, nil
}

// ErrInvalidPayment wraps request validation failures.
var ErrInvalidPayment = errors.New("invalid payment request")

// CreatePayment stores a PENDING payment. A repeated idempotency key returns
// the payment created first.
func (s *PaymentService) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*model.Payment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayment, err)
	}

	if req.IdempotencyKey != "" {
		if existing, err := s.paymentRepo.GetByReferenceID(ctx, req.IdempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			return existing, nil
		}
	}

	payment := &model.Payment{
		ProviderPaymentID: req.ProviderPaymentID,
		ReferenceID:       req.ReferenceID,
		Provider:          req.Provider,
		UserID:            req.UserID,
		Status:            billing.PaymentStatusPending,
		Amount:            req.Amount,
		Currency:          "IDR",
		PaymentType:       billing.PaymentType(req.PaymentType),
		PaymentMethod:     billing.PaymentMethod(req.PaymentMethod),
		PaymentChannel:    req.PaymentChannel,
		PackageType:       req.PackageType,
		Credits:           req.Credits,
		PlanType:          billing.PlanType(req.PlanType),
		Description:       req.Description,
	}
	if req.SessionID != "" {
		payment.SessionID = &req.SessionID
	}
	if req.IdempotencyKey != "" {
		payment.IdempotencyKey = &req.IdempotencyKey
		if payment.ReferenceID == "" {
			payment.ReferenceID = req.IdempotencyKey
		}
	}
	if payment.ReferenceID == "" {
		ref, err := newReferenceID()
		if err != nil {
			return nil, err
		}
		payment.ReferenceID = ref
	}

	if payment.Provider == "" {
		active, err := s.configs.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", customErr.ErrNoProviderConfigured, err)
		}
		payment.Provider = active.ActiveProvider
	}

	switch payment.PaymentType {
	case billing.PaymentTypeCreditTopup:
		if payment.PackageType == "" {
			payment.PackageType = billing.DefaultPackageType
		}
		if payment.Credits == 0 && payment.PackageType == billing.DefaultPackageType {
			payment.Credits = billing.PaperCredits
		}
		if payment.Amount == 0 && payment.PackageType == billing.DefaultPackageType {
			payment.Amount = billing.PaperPriceIDR
		}
	case billing.PaymentTypeSubscriptionInitial, billing.PaymentTypeSubscriptionRenewal:
		if payment.PlanType == "" {
			payment.PlanType = billing.PlanProMonthly
		}
		if payment.Amount == 0 {
			if plan, ok := billing.LookupPlan(payment.PlanType); ok {
				payment.Amount = plan.Price.IntPart()
			}
		}
	}
	if payment.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("Payment created",
		zap.Uint("payment_id", payment.ID),
		zap.String("provider", payment.Provider),
		zap.String("provider_payment_id", payment.ProviderPaymentID),
		zap.String("user_id", payment.UserID),
		zap.String("payment_type", string(payment.PaymentType)),
		zap.Int64("amount", payment.Amount))

	return payment, nil
}

// GetByReferenceID returns ErrPaymentNotFound when no payment matches.
func (s *PaymentService) GetByReferenceID(ctx context.Context, referenceID string) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByReferenceID(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, customErr.ErrPaymentNotFound
	}
	return payment, nil
}

// GetUserPayments returns the user's most recent payments.
func (s *PaymentService) GetUserPayments(ctx context.Context, userID string, limit int) ([]*model.Payment, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	if limit < 1 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	return s.paymentRepo.ListByUser(ctx, userID, limit)
}

// Stats aggregates payments for the admin dashboard.
func (s *PaymentService) Stats(ctx context.Context) (*model.PaymentStats, error) {
	return s.paymentRepo.Stats(ctx)
}
