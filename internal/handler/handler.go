// Package handler exposes the dashboard core over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/bootstrap"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/crud"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/entity"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/mirror"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/notify"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/otp"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/repository"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/session"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/theme"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/workflow"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PlanStore records the subscription plan picked by a user
type PlanStore interface {
	SelectPlan(ctx context.Context, userID, plan string) error
}

// Config lists the collaborators of the handlers
type Config struct {
	ServiceName  string
	Entities     *entity.Registry
	Remote       func(entity.Spec) repository.Repository
	MirrorStore  mirror.Store
	MirrorPrefix string
	Policy       crud.Policy
	Sessions     *session.Registry
	Init         *bootstrap.Checker
	Workflow     *workflow.Runner
	Plans        PlanStore
	Notify       *notify.Dispatcher
	OTP          *otp.Service
	Themes       *theme.Registry
}

// Handler serves the HTTP API
type Handler struct {
	cfg Config
}

// New creates the handlers
func New(cfg Config) *Handler {
	return &Handler{cfg: cfg}
}

// currentUser returns the user id stored by the auth middleware
func currentUser(c echo.Context) (string, bool) {
	userID, ok := c.Get("user_id").(string)
	return userID, ok && userID != ""
}

func unauthorized(c echo.Context) error {
	logger.FromContext(c).Error("Failed to get user ID from context")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
}

// HealthCheck handles the health check endpoint
func (h *Handler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": h.cfg.ServiceName,
	})
}

// Logout ends the caller's session so the tenant is resolved again on the
// next request
func (h *Handler) Logout(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	h.cfg.Sessions.Invalidate(userID)
	logger.FromContext(c).Info("User logged out")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
