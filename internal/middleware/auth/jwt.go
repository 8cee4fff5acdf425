package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthUser is the end user named by a verified token.
type AuthUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type contextKey string

const userContextKey contextKey = "authenticated_user"

// UserClaims are the claims issued by the auth provider for app users.
type UserClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig configures JWTMiddleware.
type JWTConfig struct {
	Secret string
	Logger *zap.Logger
	// SkipPaths are path prefixes served without a token
	SkipPaths []string
	// Issuer, when set, must match the iss claim
	Issuer string
}

// JWTMiddleware admits requests carrying an HS256 bearer token with an
// expiry and a subject, and stores the user in the request context. An empty
// secret rejects every token.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	parser := jwt.NewParser(opts...)
	secret := []byte(config.Secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			tokenString, code := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if code != "" {
				config.Logger.Warn("Rejected request without bearer token",
					zap.String("path", path),
					zap.String("code", code))
				return unauthorized(c, code)
			}

			var claims UserClaims
			_, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
				if len(secret) == 0 {
					return nil, errors.New("jwt secret not configured")
				}
				return secret, nil
			})
			if err != nil {
				config.Logger.Warn("JWT validation failed",
					zap.Error(err),
					zap.String("path", path))
				return unauthorized(c, "INVALID_TOKEN")
			}
			if claims.Subject == "" {
				config.Logger.Warn("JWT without subject", zap.String("path", path))
				return unauthorized(c, "MISSING_SUBJECT")
			}

			user := &AuthUser{
				UserID: claims.Subject,
				Email:  claims.Email,
				Role:   claims.Role,
			}
			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
			c.Set("user_id", user.UserID)

			return next(c)
		}
	}
}

var unauthorizedMessages = map[string]string{
	"MISSING_AUTH_HEADER": "Authorization header required",
	"INVALID_AUTH_FORMAT": "Invalid authorization header format. Expected: Bearer <token>",
	"INVALID_TOKEN":       "Invalid or expired token",
	"MISSING_SUBJECT":     "Token subject required",
	"AUTH_REQUIRED":       "Authentication required",
}

// bearerToken extracts the token, or returns a rejection code.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "MISSING_AUTH_HEADER"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", "INVALID_AUTH_FORMAT"
	}
	return strings.TrimSpace(token), ""
}

func unauthorized(c echo.Context, code string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"error": unauthorizedMessages[code],
		"code":  code,
	})
}

// GetUserFromContext returns the user stored by JWTMiddleware or WithUser.
func GetUserFromContext(c echo.Context) (*AuthUser, error) {
	user, ok := c.Request().Context().Value(userContextKey).(*AuthUser)
	if !ok || user == nil {
		return nil, errors.New("no authenticated user found in context")
	}
	return user, nil
}

// RequireAuth returns the signed-in user, or a 401 error for the handler to return.
func RequireAuth(c echo.Context) (*AuthUser, error) {
	user, err := GetUserFromContext(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
			"error": unauthorizedMessages["AUTH_REQUIRED"],
			"code":  "AUTH_REQUIRED",
		}).SetInternal(err)
	}
	return user, nil
}

// WithUser returns ctx carrying user.
func WithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
