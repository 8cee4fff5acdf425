package errors

import (
	"errors"
	"fmt"

	apperrors "github.com/Posteriot/makalah-app-sub005/pkg/errors"
)

var (
	// ErrPaymentNotFound indicates no payment row exists for the provider id
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidTransition indicates a status change out of a terminal state
	ErrInvalidTransition = errors.New("invalid payment status transition")

	// ErrNoProviderConfigured indicates the active provider could not be resolved
	ErrNoProviderConfigured = errors.New("no payment provider configured")

	// ErrUnknownProvider indicates a provider name with no adapter
	ErrUnknownProvider = errors.New("unknown payment provider")
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	ProviderPaymentID string
	From              string
	To                string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("payment %s cannot move from %s to %s", e.ProviderPaymentID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// NewTransitionError creates a new TransitionError
func NewTransitionError(providerPaymentID, from, to string) *TransitionError {
	return &TransitionError{
		ProviderPaymentID: providerPaymentID,
		From:              from,
		To:                to,
	}
}

// ToAppError maps domain errors onto coded application errors.
func ToAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPaymentNotFound),
		errors.Is(err, ErrSubscriptionNotFound),
		errors.Is(err, ErrNoActiveSubscription):
		return apperrors.NewAppError(apperrors.ErrNotFound, err.Error(), err)
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrActiveSubscriptionExists),
		errors.Is(err, ErrSubscriptionPeriodEnded):
		return apperrors.NewAppError(apperrors.ErrConflict, err.Error(), err)
	case errors.Is(err, ErrInvalidCreditAmount),
		errors.Is(err, ErrUnknownPlan),
		errors.Is(err, ErrUnknownProvider):
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, err.Error(), err)
	case errors.Is(err, ErrNoProviderConfigured):
		return apperrors.NewAppError(apperrors.ErrUnavailable, err.Error(), err)
	default:
		return apperrors.Wrap(err, "internal error")
	}
}
