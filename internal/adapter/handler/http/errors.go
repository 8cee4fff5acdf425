package http

import (
	"errors"

	domainErrors "github.com/Posteriot/makalah-app-sub005/internal/domain/errors"
	"github.com/Posteriot/makalah-app-sub005/internal/infrastructure/crypto"
	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	apperrors "github.com/Posteriot/makalah-app-sub005/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// httpError maps a usecase error onto an echo error and logs it.
func httpError(logger *zap.Logger, err error, msg string, fields ...zap.Field) *echo.HTTPError {
	var validationErrs validator.ValidationErrors
	var appErr error
	switch {
	case errors.Is(err, usecase.ErrInvalidPayment), errors.As(err, &validationErrs):
		appErr = apperrors.NewAppError(apperrors.ErrInvalidArgument, err.Error(), err)
	case errors.Is(err, crypto.ErrNoKey):
		appErr = apperrors.NewAppError(apperrors.ErrUnavailable, err.Error(), err)
	default:
		appErr = domainErrors.ToAppError(err)
	}

	apperrors.LogError(logger, appErr, msg, fields...)
	return apperrors.ToHTTPError(appErr)
}
