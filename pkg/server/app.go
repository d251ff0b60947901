package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	domrepo "FinScan/internal/domain/repository"
	"FinScan/internal/handler/ws"
	mid "FinScan/internal/middleware"
	"FinScan/internal/usecase"
	pkgch "FinScan/pkg/clickhouse"
	"FinScan/pkg/config"
	xhttp "FinScan/pkg/http"
	pkgkafka "FinScan/pkg/kafka"
	applogger "FinScan/pkg/logger"
)

// App owns the process lifecycle: the scan loop, the dispatch pipeline, the
// outcome tracker, the optional kafka leg, and the HTTP surface. Run blocks
// until a termination signal, then drains in reverse order.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	scanner  *usecase.Scanner
	pipeline *mid.DispatchPipeline
	hub      *ws.Hub
	store    domrepo.SignalStore
	chClient *pkgch.Client

	tracker   *usecase.OutcomeTracker
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	publisher domrepo.SignalPublisher

	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

func New(
	cfg *config.Config,
	log *applogger.Logger,
	scanner *usecase.Scanner,
	pipeline *mid.DispatchPipeline,
	hub *ws.Hub,
	store domrepo.SignalStore,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		scanner:  scanner,
		pipeline: pipeline,
		hub:      hub,
		store:    store,
		chClient: chClient,
	}
}

// SetHTTPHandler injects the REST handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetTracker enables outcome resolution.
func (a *App) SetTracker(t *usecase.OutcomeTracker) { a.tracker = t }

// SetKafka attaches the kafka dispatch leg: the producer-side publisher and
// the in-process consumer that feeds signals back into the sink pipeline.
func (a *App) SetKafka(consumer *pkgkafka.Consumer, kh pkgkafka.MessageHandler, pub domrepo.SignalPublisher) {
	a.consumer = consumer
	a.kh = kh
	a.publisher = pub
}

// Run starts every component and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.pipeline.Start()

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	go func() {
		if err := a.scanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("scan loop stopped", applogger.Error(err))
		}
	}()
	a.log.Info("scanner started",
		applogger.Strings("symbols", a.cfg.Scanner.Symbols),
		applogger.Duration("interval", a.cfg.Scanner.Interval),
		applogger.String("dispatch", a.cfg.Dispatch.Backend))

	if a.tracker != nil {
		go func() {
			if err := a.tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("outcome tracker stopped", applogger.Error(err))
			}
		}()
		a.log.Info("outcome tracker started",
			applogger.Duration("interval", a.cfg.Outcome.Interval),
			applogger.Duration("max_age", a.cfg.Outcome.MaxAge))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)
	if a.hub != nil {
		a.hub.RegisterRoutes(a.httpServer.Echo())
	}
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops intake first, drains the pipeline, then closes the sinks
// and infrastructure clients. Individual failures are logged, not fatal.
func (a *App) shutdown() error {
	a.pipeline.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}
	if a.hub != nil {
		if err := a.hub.Close(); err != nil {
			a.log.Warn("websocket hub close error", applogger.Error(err))
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("kafka publisher close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("signal store close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
