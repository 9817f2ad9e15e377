package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"vitalnotes/internal/application"
	"vitalnotes/internal/domain"
	"vitalnotes/internal/infrastructure/metrics"
)

// RequireRoles renders the wrapped route only when the session holds one
// of roles. With no roles, any authenticated identity passes.
func RequireRoles(guard *application.AccessGuard, roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return deny(c, guard.Decide(roles...), next)
		}
	}
}

func RequireAction(guard *application.AccessGuard, action domain.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return deny(c, guard.DecideAction(action), next)
		}
	}
}

func deny(c echo.Context, decision domain.Decision, next echo.HandlerFunc) error {
	metrics.GuardDecisionsTotal.WithLabelValues(decision.String()).Inc()
	switch decision {
	case domain.Allow:
		return next(c)
	case domain.DenyNotLoggedIn:
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": decision.Message()})
	default:
		return c.JSON(http.StatusForbidden, map[string]string{"error": decision.Message()})
	}
}
