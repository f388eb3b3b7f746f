package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Limiter decides whether a client identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// RateLimit rejects requests with 429 once the client's bucket is empty.
// Clients are keyed by real IP; paths in skip are never limited.
func RateLimit(l Limiter, skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skipped[c.Path()]; ok {
				return next(c)
			}
			if !l.Allow(c.RealIP()) {
				c.Response().Header().Set(echo.HeaderRetryAfter, "1")
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}
