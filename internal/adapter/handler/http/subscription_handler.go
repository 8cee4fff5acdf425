package http

import (
	"net/http"

	"github.com/Posteriot/makalah-app-sub005/internal/middleware/auth"
	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type cancelSubscriptionRequest struct {
	Reason            string `json:"reason"`
	CancelAtPeriodEnd *bool  `json:"cancelAtPeriodEnd"`
}

type SubscriptionHandler struct {
	logger              *zap.Logger
	subscriptionService *usecase.SubscriptionService
}

func NewSubscriptionHandler(logger *zap.Logger, subscriptionService *usecase.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		logger:              logger,
		subscriptionService: subscriptionService,
	}
}

// GetCurrentSubscription returns the status summary and the active row.
func (h *SubscriptionHandler) GetCurrentSubscription(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	status, err := h.subscriptionService.CheckSubscriptionStatus(ctx, user.UserID)
	if err != nil {
		return httpError(h.logger, err, "Failed to check subscription", zap.String("user_id", user.UserID))
	}
	active, err := h.subscriptionService.GetActiveSubscription(ctx, user.UserID)
	if err != nil {
		return httpError(h.logger, err, "Failed to get subscription", zap.String("user_id", user.UserID))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":       status,
		"subscription": active,
	})
}

// CancelSubscription cancels at period end unless cancelAtPeriodEnd is false.
func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req cancelSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	atPeriodEnd := true
	if req.CancelAtPeriodEnd != nil {
		atPeriodEnd = *req.CancelAtPeriodEnd
	}

	result, err := h.subscriptionService.CancelSubscription(c.Request().Context(), user.UserID, req.Reason, atPeriodEnd)
	if err != nil {
		return httpError(h.logger, err, "Failed to cancel subscription", zap.String("user_id", user.UserID))
	}

	h.logger.Info("Subscription cancel requested",
		zap.String("user_id", user.UserID),
		zap.Bool("cancel_at_period_end", atPeriodEnd))

	return c.JSON(http.StatusOK, result)
}

func (h *SubscriptionHandler) ReactivateSubscription(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	if err := h.subscriptionService.ReactivateForUser(c.Request().Context(), user.UserID); err != nil {
		return httpError(h.logger, err, "Failed to reactivate subscription", zap.String("user_id", user.UserID))
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "reactivated"})
}

func (h *SubscriptionHandler) GetSubscriptionHistory(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	history, err := h.subscriptionService.GetSubscriptionHistory(c.Request().Context(), user.UserID)
	if err != nil {
		return httpError(h.logger, err, "Failed to get subscription history", zap.String("user_id", user.UserID))
	}
	return c.JSON(http.StatusOK, echo.Map{"subscriptions": history})
}
