package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createJWT(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return tokenString
}

func validClaims(userID string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   userID,
		"email": "test@example.com",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func runJWT(t *testing.T, authHeader string, path string, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	config := JWTConfig{
		Secret:    "test-secret",
		Logger:    zap.NewNop(),
		SkipPaths: []string{"/health"},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := JWTMiddleware(config)(handler)(c)
	assert.NoError(t, err)
	return rec
}

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func TestJWTMiddleware_SuccessfulAuthentication(t *testing.T) {
	token := createJWT(t, "test-secret", validClaims("user-123"))

	rec := runJWT(t, "Bearer "+token, "/api/v1/subscription", func(c echo.Context) error {
		user, err := GetUserFromContext(c)
		assert.NoError(t, err)
		assert.Equal(t, "user-123", user.UserID)
		assert.Equal(t, "test@example.com", user.Email)
		assert.Equal(t, "authenticated", user.Role)
		assert.Equal(t, "user-123", c.Get("user_id"))
		return okHandler(c)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	expired := validClaims("user-123")
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	noSubject := validClaims("")
	delete(noSubject, "sub")

	tests := []struct {
		name       string
		authHeader string
		code       string
	}{
		{"missing header", "", "MISSING_AUTH_HEADER"},
		{"not bearer", "Basic abc", "INVALID_AUTH_FORMAT"},
		{"wrong secret", "Bearer " + createJWT(t, "other-secret", validClaims("user-123")), "INVALID_TOKEN"},
		{"expired", "Bearer " + createJWT(t, "test-secret", expired), "INVALID_TOKEN"},
		{"garbage", "Bearer not.a.token", "INVALID_TOKEN"},
		{"no subject", "Bearer " + createJWT(t, "test-secret", noSubject), "MISSING_SUBJECT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := runJWT(t, tt.authHeader, "/api/v1/subscription", func(c echo.Context) error {
				t.Fatal("handler must not run")
				return nil
			})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	rec := runJWT(t, "", "/health", okHandler)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	user, err := RequireAuth(c)
	assert.Nil(t, user)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c = e.NewContext(req.WithContext(WithUser(req.Context(), &AuthUser{UserID: "u1"})), httptest.NewRecorder())
	user, err = RequireAuth(c)
	assert.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
}

func TestJWTMiddleware_EmptySecretRejects(t *testing.T) {
	token := createJWT(t, "any-secret", validClaims("user-123"))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	err := JWTMiddleware(JWTConfig{Logger: zap.NewNop()})(okHandler)(e.NewContext(req, rec))

	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_Issuer(t *testing.T) {
	claims := validClaims("user-123")
	claims["iss"] = "https://other.example.com"
	token := createJWT(t, "test-secret", claims)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	config := JWTConfig{Secret: "test-secret", Logger: zap.NewNop(), Issuer: "https://auth.makalah.ai"}
	err := JWTMiddleware(config)(okHandler)(e.NewContext(req, rec))

	assert.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
}
