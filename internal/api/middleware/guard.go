package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAuthenticated short-circuits anonymous callers with 401 before the
// handler runs. It is the coarse first gate on protected route groups; the
// policy engine still makes the fine-grained ownership and role decision
// inside every handler path, so a route wired without this guard stays safe.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CallerIdentity(c).IsAnonymous() {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}
