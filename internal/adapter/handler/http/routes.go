package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Handlers groups every HTTP handler of the payment core.
type Handlers struct {
	Webhook      *WebhookHandler
	Internal     *InternalHandler
	Admin        *AdminHandler
	Subscription *SubscriptionHandler
	Account      *AccountHandler
}

// RouteGuards are the middlewares protecting each route group.
type RouteGuards struct {
	// User authenticates end users, usually auth.JWTMiddleware
	User echo.MiddlewareFunc
	// Internal authenticates trusted services and admins
	Internal echo.MiddlewareFunc
	// WebhookBodyLimit is an echo body limit such as "64K". Empty disables it.
	WebhookBodyLimit string
}

// RegisterRoutes mounts the handlers on e.
func RegisterRoutes(e *echo.Echo, h *Handlers, guards RouteGuards) {
	var webhookMW []echo.MiddlewareFunc
	if guards.WebhookBodyLimit != "" {
		webhookMW = append(webhookMW, middleware.BodyLimit(guards.WebhookBodyLimit))
	}

	e.POST("/webhooks/:provider", h.Webhook.HandleProviderWebhook, webhookMW...)
	e.POST("/api/webhooks/payment", h.Webhook.HandleLegacyWebhook, webhookMW...)

	internal := e.Group("/internal", guards.Internal)
	internal.POST("/payments", h.Internal.CreatePayment)
	internal.GET("/payments/:referenceId", h.Internal.GetPayment)
	internal.POST("/reconcile", h.Internal.Reconcile)
	internal.POST("/subscriptions/sweep", h.Internal.SweepSubscriptions)

	admin := e.Group("/admin", guards.Internal)
	admin.GET("/provider-config", h.Admin.GetProviderConfig)
	admin.PUT("/provider-config", h.Admin.UpdateProviderConfig)
	admin.GET("/payments/stats", h.Admin.PaymentStats)

	api := e.Group("/api/v1", guards.User)
	api.GET("/subscription", h.Subscription.GetCurrentSubscription)
	api.GET("/subscription/history", h.Subscription.GetSubscriptionHistory)
	api.POST("/subscription/cancel", h.Subscription.CancelSubscription)
	api.POST("/subscription/reactivate", h.Subscription.ReactivateSubscription)
	api.GET("/credits", h.Account.GetCredits)
	api.GET("/credits/history", h.Account.GetCreditHistory)
	api.GET("/quota", h.Account.GetQuota)
	api.GET("/payments", h.Account.ListPayments)
}
