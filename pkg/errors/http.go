package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTPStatus converts an error code to an HTTP status.
func ToHTTPStatus(code string) int {
	return lookup(code).http
}

// ToHTTPError converts err into an echo HTTP error. Internal causes are not
// exposed to the client.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		return echoErr
	}

	var appErr *AppError
	if !As(err, &appErr) {
		return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
	}

	code := ToHTTPStatus(appErr.code)
	message := appErr.message
	if code >= http.StatusInternalServerError {
		message = http.StatusText(code)
	}
	return echo.NewHTTPError(code, message).SetInternal(err)
}
