package handler

import (
	"net/http"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/theme"

	"github.com/labstack/echo/v4"
)

// ListThemes returns the known theme names
func (h *Handler) ListThemes(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"themes": h.cfg.Themes.Names()})
}

// GetTheme returns the tokens of a theme; unknown names get the default theme
func (h *Handler) GetTheme(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cfg.Themes.Resolve(c.Param("name")))
}

// GetThemeCSS returns a theme as a :root stylesheet
func (h *Handler) GetThemeCSS(c echo.Context) error {
	t := h.cfg.Themes.Resolve(c.Param("name"))
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(theme.CSS(t.Tokens)))
}
