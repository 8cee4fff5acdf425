package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrNotImplemented  = "NOT_IMPLEMENTED"
	ErrUnavailable     = "UNAVAILABLE"
)

// statusPair is the transport status of one error code.
type statusPair struct {
	http int
	grpc codes.Code
}

var statusByCode = map[string]statusPair{
	ErrInternal:        {http.StatusInternalServerError, codes.Internal},
	ErrNotFound:        {http.StatusNotFound, codes.NotFound},
	ErrInvalidArgument: {http.StatusBadRequest, codes.InvalidArgument},
	ErrUnauthenticated: {http.StatusUnauthorized, codes.Unauthenticated},
	ErrUnauthorized:    {http.StatusForbidden, codes.PermissionDenied},
	ErrConflict:        {http.StatusConflict, codes.FailedPrecondition},
	ErrTimeout:         {http.StatusGatewayTimeout, codes.DeadlineExceeded},
	ErrNotImplemented:  {http.StatusNotImplemented, codes.Unimplemented},
	ErrUnavailable:     {http.StatusServiceUnavailable, codes.Unavailable},
}

func lookup(code string) statusPair {
	if pair, ok := statusByCode[code]; ok {
		return pair
	}
	return statusByCode[ErrInternal]
}
