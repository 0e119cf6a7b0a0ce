package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/courtside/academy-platform/internal/api/metrics"
	"github.com/courtside/academy-platform/internal/core/domain"
	"github.com/courtside/academy-platform/internal/ratelimit"
)

// RateLimit bounds how often one principal may hit a sensitive route. The
// action label distinguishes limiters sharing a backend. A limiter backend
// failure lets the request through; availability wins over strictness here
// because the permission checks behind the route still fail closed.
func RateLimit(limiter ratelimit.Limiter, action string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principalID, _ := c.Get("principal_id").(string)
			if principalID == "" {
				return domain.ErrUnauthenticated
			}

			limited, err := limiter.IsRateLimited(c.Request().Context(), action+":"+principalID)
			if err != nil {
				log.Warn().Err(err).Str("action", action).Msg("rate limiter unavailable, request allowed")
				return next(c)
			}
			if limited {
				metrics.RateLimitedTotal.WithLabelValues(action).Inc()
				return domain.ErrRateLimited
			}
			return next(c)
		}
	}
}
