package handler

import (
	"github.com/labstack/echo/v4"
)

// Register mounts the API on e. auth guards every route except health,
// the initialization status and the themes.
func (h *Handler) Register(e *echo.Echo, auth echo.MiddlewareFunc) {
	// Public routes - no authentication required
	e.GET("/health", h.HealthCheck)

	api := e.Group("/api")
	api.GET("/init/status", h.InitStatus)
	api.GET("/theme", h.ListThemes)
	api.GET("/theme/:name", h.GetTheme)
	api.GET("/theme/:name/css", h.GetThemeCSS)

	// Everything else needs a signed-in user
	private := api.Group("", auth)
	private.POST("/auth/logout", h.Logout)

	private.GET("/entities", h.ListEntityTypes)
	private.GET("/entities/:entity", h.ListEntities)
	private.POST("/entities/:entity", h.CreateEntity)
	private.PUT("/entities/:entity/:id", h.UpdateEntity)
	private.DELETE("/entities/:entity/:id", h.DeleteEntity)

	private.GET("/workflow/me", h.WorkflowStep)
	private.GET("/workflow/:userId", h.WorkflowStep)
	private.PUT("/profile/plan", h.SelectPlan)
	private.POST("/otp/send", h.SendOTP)
	private.POST("/otp/verify", h.VerifyOTP)

	private.POST("/notifications/sms", h.SendSMS)
	private.POST("/notifications/:template", h.SendTemplate)
}
