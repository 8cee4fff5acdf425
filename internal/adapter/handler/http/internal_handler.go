package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InternalHandler serves trusted service-to-service calls.
type InternalHandler struct {
	paymentService      *usecase.PaymentService
	reconcileService    *usecase.ReconcileService
	subscriptionService *usecase.SubscriptionService
	pastDueGrace        time.Duration
	logger              *zap.Logger
}

// NewInternalHandler creates a new internal handler
func NewInternalHandler(
	paymentService *usecase.PaymentService,
	reconcileService *usecase.ReconcileService,
	subscriptionService *usecase.SubscriptionService,
	pastDueGrace time.Duration,
	logger *zap.Logger,
) *InternalHandler {
	return &InternalHandler{
		paymentService:      paymentService,
		reconcileService:    reconcileService,
		subscriptionService: subscriptionService,
		pastDueGrace:        pastDueGrace,
		logger:              logger,
	}
}

// CreatePayment records a PENDING checkout.
func (h *InternalHandler) CreatePayment(c echo.Context) error {
	var req usecase.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	payment, err := h.paymentService.CreatePayment(c.Request().Context(), &req)
	if err != nil {
		return httpError(h.logger, err, "Failed to create payment",
			zap.String("provider_payment_id", req.ProviderPaymentID))
	}

	return c.JSON(http.StatusCreated, payment)
}

// GetPayment returns a payment by its reference id.
func (h *InternalHandler) GetPayment(c echo.Context) error {
	payment, err := h.paymentService.GetByReferenceID(c.Request().Context(), c.Param("referenceId"))
	if err != nil {
		return httpError(h.logger, err, "Failed to get payment")
	}
	return c.JSON(http.StatusOK, payment)
}

// Reconcile runs one reconciliation sweep.
func (h *InternalHandler) Reconcile(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	report, err := h.reconcileService.Run(c.Request().Context(), limit)
	if err != nil {
		return httpError(h.logger, err, "Reconciliation failed")
	}
	return c.JSON(http.StatusOK, report)
}

// SweepSubscriptions applies period end transitions: scheduled cancellations
// and past due grace expiry.
func (h *InternalHandler) SweepSubscriptions(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	report, err := h.subscriptionService.SweepPeriodEnds(c.Request().Context(), h.pastDueGrace, limit)
	if err != nil {
		return httpError(h.logger, err, "Subscription sweep failed")
	}
	return c.JSON(http.StatusOK, report)
}
