package errors

import "errors"

var (
	// ErrNoActiveSubscription indicates that the user has no active subscription
	ErrNoActiveSubscription = errors.New("no active subscription found")

	// ErrSubscriptionNotFound indicates that the specified subscription was not found
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrActiveSubscriptionExists indicates the user already holds an active subscription
	ErrActiveSubscriptionExists = errors.New("active subscription already exists")

	// ErrSubscriptionPeriodEnded indicates the current period is over
	ErrSubscriptionPeriodEnded = errors.New("subscription period has ended")

	// ErrUnknownPlan indicates a plan type with no pricing entry
	ErrUnknownPlan = errors.New("unknown subscription plan")
)
