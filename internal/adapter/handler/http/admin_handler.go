package http

import (
	"net/http"

	"github.com/Posteriot/makalah-app-sub005/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminHandler serves the provider configuration and payment dashboard.
type AdminHandler struct {
	configService  *usecase.ProviderConfigService
	paymentService *usecase.PaymentService
	logger         *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(configService *usecase.ProviderConfigService, paymentService *usecase.PaymentService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		configService:  configService,
		paymentService: paymentService,
		logger:         logger,
	}
}

func (h *AdminHandler) GetProviderConfig(c echo.Context) error {
	active, err := h.configService.Get(c.Request().Context())
	if err != nil {
		return httpError(h.logger, err, "Failed to load provider config")
	}
	return c.JSON(http.StatusOK, active)
}

func (h *AdminHandler) UpdateProviderConfig(c echo.Context) error {
	var req usecase.UpdateProviderConfigRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	active, err := h.configService.Update(c.Request().Context(), &req)
	if err != nil {
		return httpError(h.logger, err, "Failed to update provider config",
			zap.String("active_provider", req.ActiveProvider))
	}
	return c.JSON(http.StatusOK, active)
}

func (h *AdminHandler) PaymentStats(c echo.Context) error {
	stats, err := h.paymentService.Stats(c.Request().Context())
	if err != nil {
		return httpError(h.logger, err, "Failed to load payment stats")
	}
	return c.JSON(http.StatusOK, stats)
}
