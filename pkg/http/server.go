package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"FinScan/pkg/http/middleware"
	applogger "FinScan/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler registers its routes on the shared echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

type serverConfig struct {
	port            int
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	logger          *applogger.Logger
}

// ServerOption configures the API server.
type ServerOption func(*serverConfig)

func WithPort(port int) ServerOption {
	return func(c *serverConfig) {
		if port > 0 {
			c.port = port
		}
	}
}

func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *serverConfig) {
		c.readTimeout = read
		c.writeTimeout = write
		c.shutdownTimeout = shutdown
	}
}

// WithLogger routes request, panic and slow-request logs through the
// structured logger instead of the standard log package.
func WithLogger(l *applogger.Logger) ServerOption {
	return func(c *serverConfig) { c.logger = l }
}

// Server is the echo instance behind the scanner API, with recovery,
// request logging, prometheus metrics and permissive CORS applied, and
// /metrics exposed for scraping.
type Server struct {
	echo            *echo.Echo
	port            int
	shutdownTimeout time.Duration
}

func NewServer(handler Handler, opts ...ServerOption) *Server {
	cfg := &serverConfig{
		port:            8080,
		readTimeout:     10 * time.Second,
		writeTimeout:    10 * time.Second,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.readTimeout
	e.Server.WriteTimeout = cfg.writeTimeout

	e.Use(middleware.Recover(cfg.logger))
	e.Use(middleware.RequestLogging(cfg.logger))
	e.Use(middleware.Metrics(cfg.logger, 2*time.Second))
	e.Use(middleware.CORS())

	if handler != nil {
		handler.RegisterRoutes(e)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{
		echo:            e,
		port:            cfg.port,
		shutdownTimeout: cfg.shutdownTimeout,
	}
}

// Start listens in the background; startup errors other than a clean
// shutdown are logged, not returned.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	go func() {
		log.Printf("http server: listening on %s", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()
	return nil
}

// Stop drains in-flight requests. When ctx carries no deadline the
// configured shutdown timeout applies.
func (s *Server) Stop(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Echo exposes the instance so the websocket hub can attach its routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
