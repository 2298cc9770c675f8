package handler

import (
	"errors"
	"net/http"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/notify"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SMSRequest is the body of POST /api/notifications/sms
type SMSRequest struct {
	Phone    string `json:"phone"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

// TemplateRequest is the body of POST /api/notifications/:template
type TemplateRequest struct {
	Phone    string            `json:"phone"`
	Provider string            `json:"provider,omitempty"`
	Params   map[string]string `json:"params"`
}

func notificationStatus(result notify.Result) int {
	if result.Success {
		return http.StatusOK
	}
	return http.StatusBadGateway
}

// SendSMS sends a free-form message
func (h *Handler) SendSMS(c echo.Context) error {
	var req SMSRequest
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Error("Failed to parse SMS request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Phone == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone and message are required"})
	}

	result := h.cfg.Notify.SendSMS(c.Request().Context(), req.Phone, req.Message, notify.Options{Provider: req.Provider})
	return c.JSON(notificationStatus(result), result)
}

// SendTemplate sends one of the predefined messages
func (h *Handler) SendTemplate(c echo.Context) error {
	var req TemplateRequest
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Error("Failed to parse template request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone is required"})
	}

	result, err := h.cfg.Notify.SendTemplate(c.Request().Context(), c.Param("template"), req.Phone, req.Params,
		notify.Options{Provider: req.Provider})
	if errors.Is(err, notify.ErrUnknownTemplate) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown template"})
	}
	return c.JSON(notificationStatus(result), result)
}
