package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/notify"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/otp"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/jwtutil"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InitStatus reports which setup modal a fresh installation should open
func (h *Handler) InitStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cfg.Init.Check(c.Request().Context()))
}

// WorkflowStep returns the onboarding step of the user in the path. Only
// admins may look at other users.
func (h *Handler) WorkflowStep(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	target := c.Param("userId")
	if target != "" && target != userID {
		claims, _ := c.Get("user").(*jwtutil.UserClaims)
		if claims == nil || (claims.Role != model.RoleAdmin && claims.Role != model.RoleSuperAdmin) {
			logger.FromContext(c).Warn("Workflow lookup of another user denied", zap.String("target", target))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		userID = target
	}

	result := h.cfg.Workflow.Resolve(c.Request().Context(), userID)
	body := echo.Map{"step": result.Step, "data": result.Data}
	if result.Gate != "" {
		body["gate"] = result.Gate
	}
	if result.Err != nil {
		body["error"] = "workflow check failed"
	}
	return c.JSON(http.StatusOK, body)
}

// SelectPlan stores the subscription plan of the caller
func (h *Handler) SelectPlan(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req struct {
		Plan string `json:"plan"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse plan request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Plan = strings.TrimSpace(req.Plan)
	if req.Plan == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan is required"})
	}

	if err := h.cfg.Plans.SelectPlan(c.Request().Context(), userID, req.Plan); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		log.Error("Failed to select plan", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	log.Info("Plan selected", zap.String("plan", req.Plan))
	return c.JSON(http.StatusOK, echo.Map{"message": "plan selected", "plan": req.Plan})
}

// SendOTP issues a validation code to the caller's phone
func (h *Handler) SendOTP(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req struct {
		Phone    string `json:"phone"`
		Provider string `json:"provider"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Phone) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone is required"})
	}

	result, err := h.cfg.OTP.Issue(c.Request().Context(), userID, req.Phone, notify.Options{Provider: req.Provider})
	if err != nil {
		log.Error("Failed to issue validation code", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue code"})
	}
	if !result.Success {
		return c.JSON(http.StatusBadGateway, result)
	}
	return c.JSON(http.StatusAccepted, result)
}

// VerifyOTP checks a validation code
func (h *Handler) VerifyOTP(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
	}

	err := h.cfg.OTP.Verify(c.Request().Context(), userID, req.Code)
	switch {
	case errors.Is(err, otp.ErrInvalidCode):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case err != nil:
		log.Error("Failed to verify validation code", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify code"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "phone validated"})
}
