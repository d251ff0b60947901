package middleware

import (
	"log"
	"time"

	applogger "FinScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one line per request at debug level. Scrape and
// probe endpoints are skipped; they fire every few seconds and carry no
// information.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if path == "/metrics" || path == "/healthz" {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if l != nil {
				l.Debug("http request",
					applogger.String("method", c.Request().Method),
					applogger.String("path", path),
					applogger.String("remote", c.RealIP()),
					applogger.Int("status", c.Response().Status),
					applogger.Duration("latency_ms", latency))
			} else {
				log.Printf("[%s] %s %s - %d (%s)",
					c.Request().Method, path, c.RealIP(), c.Response().Status, latency)
			}
			return err
		}
	}
}
