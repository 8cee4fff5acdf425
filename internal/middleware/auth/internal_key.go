package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InternalKeyHeader carries the shared key of trusted callers.
const InternalKeyHeader = "X-Internal-Key"

// InternalKeyMiddleware admits requests whose X-Internal-Key matches key.
// An empty key rejects every request.
func InternalKeyMiddleware(key string, logger *zap.Logger) echo.MiddlewareFunc {
	expected := []byte(key)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get(InternalKeyHeader)
			if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
				logger.Warn("Rejected internal request",
					zap.String("path", c.Request().URL.Path),
					zap.String("remote_ip", c.RealIP()),
					zap.Bool("key_present", provided != ""))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Unauthorized",
					"code":  "INVALID_INTERNAL_KEY",
				})
			}
			return next(c)
		}
	}
}
