package errors

import "errors"

// ErrInvalidCreditAmount is returned when a grant is not strictly positive
var ErrInvalidCreditAmount = errors.New("credit amount must be positive")
