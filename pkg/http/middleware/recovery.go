// Package middleware holds the echo middleware chain of the scanner
// API server.
package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	applogger "FinScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns handler panics into 500 responses. A nil logger falls
// back to the standard log package.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					if l != nil {
						l.Error("http handler panic",
							applogger.String("path", c.Path()),
							applogger.String("stack", string(debug.Stack())),
							applogger.Error(err))
					} else {
						log.Printf("http handler panic: %v\n%s", err, debug.Stack())
					}
					_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}
