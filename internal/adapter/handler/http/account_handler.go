package http

import (
	"net/http"
	"strconv"

	"github.com/Posteriot/makalah-app-sub005/internal/middleware/auth"
	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AccountHandler serves the signed-in user's balance, quota and payments.
type AccountHandler struct {
	creditService  *usecase.CreditService
	quotaService   *usecase.QuotaService
	paymentService *usecase.PaymentService
	logger         *zap.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(
	creditService *usecase.CreditService,
	quotaService *usecase.QuotaService,
	paymentService *usecase.PaymentService,
	logger *zap.Logger,
) *AccountHandler {
	return &AccountHandler{
		creditService:  creditService,
		quotaService:   quotaService,
		paymentService: paymentService,
		logger:         logger,
	}
}

func (h *AccountHandler) GetCredits(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	balance, err := h.creditService.GetBalance(c.Request().Context(), user.UserID)
	if err != nil {
		return httpError(h.logger, err, "Failed to get credit balance", zap.String("user_id", user.UserID))
	}
	return c.JSON(http.StatusOK, balance)
}

// GetCreditHistory lists the grants that built the user's balance.
func (h *AccountHandler) GetCreditHistory(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	grants, err := h.creditService.GetCreditHistory(c.Request().Context(), user.UserID, limit)
	if err != nil {
		return httpError(h.logger, err, "Failed to get credit history", zap.String("user_id", user.UserID))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"grants": grants,
		"count":  len(grants),
	})
}

func (h *AccountHandler) GetQuota(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	quota, err := h.quotaService.GetQuota(c.Request().Context(), user.UserID)
	if err != nil {
		return httpError(h.logger, err, "Failed to get quota", zap.String("user_id", user.UserID))
	}
	if quota == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Quota not initialized"})
	}
	return c.JSON(http.StatusOK, quota)
}

func (h *AccountHandler) ListPayments(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	payments, err := h.paymentService.GetUserPayments(c.Request().Context(), user.UserID, limit)
	if err != nil {
		return httpError(h.logger, err, "Failed to list payments", zap.String("user_id", user.UserID))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"payments": payments,
		"count":    len(payments),
	})
}
