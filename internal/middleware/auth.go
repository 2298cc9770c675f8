package middleware

import (
	"net/http"
	"strings"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/tenant"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/jwtutil"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the bearer token and makes the user available to
// handlers (echo context keys "user", "user_id") and to core code (request
// context, see tenant.UserFromContext)
func AuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			userLog := log.With(zap.String("user_id", claims.UserID))
			c.Set("user", claims)
			c.Set("user_id", claims.UserID)
			c.Set("logger", userLog)

			ctx := tenant.WithUser(c.Request().Context(), claims.UserID)
			ctx = logger.WithLogger(ctx, userLog)
			c.SetRequest(c.Request().WithContext(ctx))

			userLog.Debug("JWT token validated", zap.String("email", claims.Email))
			return next(c)
		}
	}
}
