package di

import (
	"context"
	"fmt"
	"time"

	domrepo "FinScan/internal/domain/repository"
	domsvc "FinScan/internal/domain/service"
	"FinScan/internal/handler/api"
	"FinScan/internal/handler/ws"
	mid "FinScan/internal/middleware"
	internalrepo "FinScan/internal/repository"
	icache "FinScan/internal/service/cache"
	"FinScan/internal/service/exchange"
	"FinScan/internal/service/ratelimit"
	"FinScan/internal/service/telegram"
	"FinScan/internal/services/levels"
	"FinScan/internal/services/regime"
	"FinScan/internal/services/scoring"
	"FinScan/internal/usecase"
	pkgcache "FinScan/pkg/cache"
	pkgch "FinScan/pkg/clickhouse"
	"FinScan/pkg/config"
	xhttp "FinScan/pkg/http"
	pkgkafka "FinScan/pkg/kafka"
	applogger "FinScan/pkg/logger"
	"FinScan/pkg/metrics"
	"FinScan/pkg/server"
)

// ProvideLogger builds the structured logger from the log config block.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideRateLimiter creates the shared limiter for outbound exchange calls.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideCandleCache selects the candle cache backend. The "none" backend
// returns nil, which leaves the exchange client unwrapped.
func ProvideCandleCache(cfg *config.Config) (pkgcache.Service, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return pkgcache.NewRedisCache(redisOptions(cfg)...)
	case "layered":
		rc, err := pkgcache.NewRedisCache(redisOptions(cfg)...)
		if err != nil {
			return nil, err
		}
		return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize)), nil
	case "none":
		return nil, nil
	default:
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)), nil
	}
}

func redisOptions(cfg *config.Config) []pkgcache.RedisOption {
	r := cfg.Cache.Redis
	return []pkgcache.RedisOption{
		pkgcache.WithRedisHost(r.Host),
		pkgcache.WithRedisPort(r.Port),
		pkgcache.WithRedisPassword(r.Password),
		pkgcache.WithRedisDB(r.DB),
		pkgcache.WithRedisPrefix(r.Prefix),
	}
}

// ProvideCandleSource builds the exchange client and wraps it with the candle
// cache when one is configured.
func ProvideCandleSource(
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	log *applogger.Logger,
	m domrepo.Metrics,
	c pkgcache.Service,
) domrepo.CandleSource {
	client := exchange.New(cfg.Exchange, limiter, log, m)
	if c == nil {
		return client
	}
	return internalrepo.NewCachedCandleSource(client, c, cfg.Cache.TTL, log)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.Username, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSignalStore creates the ClickHouse-backed signal store and prepares
// its tables.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config, log *applogger.Logger) (domrepo.SignalStore, error) {
	store := internalrepo.NewSignalStore(chClient, cfg.ClickHouse.Database, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal store schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer when the kafka dispatch
// backend is selected.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Dispatch.Backend != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(requiredAcks(cfg.Kafka.RequiredAcks)),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// requiredAcks maps the yaml ack names onto kafka-go's numeric levels.
func requiredAcks(name string) int {
	switch name {
	case "none":
		return 0
	case "one":
		return 1
	default:
		return -1
	}
}

// ProvideSignalPublisher wraps the producer for the signal topic.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the dispatch consumer in kafka mode.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Dispatch.Backend != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.MaxRetries, 50*time.Millisecond, 2*time.Second),
		pkgkafka.WithConsumerCommitInterval(cfg.Kafka.Consumer.CommitInterval),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetHook(pkgkafka.HookFuncs{
		After: func(_ context.Context, topic string, err error, elapsed time.Duration) {
			if err != nil {
				log.Warn("signal consume failed",
					applogger.String("topic", topic),
					applogger.Duration("elapsed", elapsed),
					applogger.Error(err))
			}
		},
	})
	return consumer, nil
}

// ProvideKafkaSignalsHandler registers the pipeline as the consumer of the
// signal topic.
func ProvideKafkaSignalsHandler(cfg *config.Config, pipe *mid.DispatchPipeline) *usecase.KafkaSignalsHandler {
	return usecase.NewKafkaSignalsHandler(cfg.Kafka.Topic, pipe)
}

// ProvideRegimeClassifier creates the trend regime classifier.
func ProvideRegimeClassifier(cfg *config.Config) domsvc.RegimeClassifier {
	return regime.New(cfg.Regime)
}

// ProvideConfluenceScorer creates the veto-first confluence scorer.
func ProvideConfluenceScorer(cfg *config.Config) domsvc.ConfluenceScorer {
	return scoring.New(cfg.Scoring, cfg.Scanner.DangerousHours)
}

// ProvideLevelCalculator creates the ATR trade-level calculator.
func ProvideLevelCalculator(cfg *config.Config) domsvc.LevelCalculator {
	return levels.New(cfg.Levels)
}

// ProvideHub creates the websocket fan-out hub.
func ProvideHub(log *applogger.Logger) *ws.Hub {
	return ws.NewHub(log)
}

// ProvideSinks assembles the delivery sinks behind the dispatch pipeline.
// Telegram joins only when enabled; the store sink and websocket hub always do.
func ProvideSinks(cfg *config.Config, log *applogger.Logger, hub *ws.Hub, store domrepo.SignalStore) []domrepo.SignalSink {
	sinks := make([]domrepo.SignalSink, 0, 3)
	if cfg.Telegram.Enabled {
		sinks = append(sinks, telegram.NewSender(cfg.Telegram, log))
	}
	sinks = append(sinks, hub, internalrepo.NewStoreSink(store))
	return sinks
}

// ProvidePipeline creates the rate-limited dispatch pipeline in front of the
// sinks.
func ProvidePipeline(sinks []domrepo.SignalSink, m domrepo.Metrics, log *applogger.Logger, cfg *config.Config) *mid.DispatchPipeline {
	return mid.NewDispatchPipeline(sinks, m, log,
		mid.WithMaxRPS(cfg.Dispatch.MaxRPS),
		mid.WithBufferSize(cfg.Dispatch.BufferSize),
	)
}

// ProvideEmitter selects where accepted signals go: straight into the
// pipeline, or through Kafka first.
func ProvideEmitter(cfg *config.Config, pipe *mid.DispatchPipeline, pub domrepo.SignalPublisher) usecase.SignalEmitter {
	if cfg.Dispatch.Backend == "kafka" {
		return usecase.NewKafkaEmitter(pub)
	}
	return usecase.NewDirectEmitter(pipe)
}

// ProvideEvaluator creates the per-symbol evaluation chain.
func ProvideEvaluator(
	candles domrepo.CandleSource,
	classifier domsvc.RegimeClassifier,
	scorer domsvc.ConfluenceScorer,
	calc domsvc.LevelCalculator,
	m domrepo.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) usecase.Evaluator {
	return usecase.NewSymbolEvaluator(candles, classifier, scorer, calc, m, log, cfg.Scanner, cfg.Scoring)
}

// ProvideScanner creates the scan orchestrator.
func ProvideScanner(
	cfg *config.Config,
	evaluator usecase.Evaluator,
	emitter usecase.SignalEmitter,
	candles domrepo.CandleSource,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.Scanner {
	return usecase.NewScanner(cfg.Scanner, evaluator, emitter, candles, m, log)
}

// ProvideOutcomeTracker creates the open-signal resolver, or nil when outcome
// tracking is disabled.
func ProvideOutcomeTracker(
	cfg *config.Config,
	store domrepo.SignalStore,
	candles domrepo.CandleSource,
	log *applogger.Logger,
) *usecase.OutcomeTracker {
	if !cfg.Outcome.Enabled {
		return nil
	}
	return usecase.NewOutcomeTracker(store, candles, cfg.Outcome, cfg.Scanner, log)
}

// ProvideHTTPHandler creates the REST handler with response caching.
func ProvideHTTPHandler(log *applogger.Logger, scanner *usecase.Scanner, store domrepo.SignalStore) xhttp.Handler {
	h := api.NewScannerEchoHandler(log, scanner, store)
	h.SetCache(icache.NewTTLCache())
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	scanner *usecase.Scanner,
	pipeline *mid.DispatchPipeline,
	hub *ws.Hub,
	store domrepo.SignalStore,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	tracker *usecase.OutcomeTracker,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSignalsHandler,
	publisher domrepo.SignalPublisher,
) *server.App {
	app := server.New(cfg, log, scanner, pipeline, hub, store, chClient)
	app.SetHTTPHandler(handler)
	app.SetTracker(tracker)
	app.SetKafka(consumer, kh, publisher)
	return app
}
