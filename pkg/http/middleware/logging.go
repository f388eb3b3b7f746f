package middleware

import (
	"time"

	applogger "TechMart/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs every request at debug and server errors at error.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Duration("latency_ms", time.Since(start)),
			}
			if res.Status >= 500 {
				l.Error("http request failed", fields...)
			} else {
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
