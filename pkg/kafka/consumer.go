package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

type consumerConfig struct {
	brokers        []string
	groupID        string
	workers        int
	bufferSize     int
	retryMax       int
	backoffMin     time.Duration
	backoffMax     time.Duration
	dlqTopic       string
	commitInterval time.Duration
}

// ConsumerOption configures the consumer.
type ConsumerOption func(*consumerConfig)

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *consumerConfig) { c.brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *consumerConfig) { c.groupID = groupID }
}

// WithConsumerWorkers sets how many goroutines run handlers.
func WithConsumerWorkers(n int) ConsumerOption {
	return func(c *consumerConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithConsumerRetry bounds handler retries and the jittered backoff
// between attempts.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *consumerConfig) {
		c.retryMax = max
		c.backoffMin = backoffMin
		c.backoffMax = backoffMax
	}
}

// WithConsumerDLQ routes messages that exhaust their retries to topic.
// Without a DLQ a poison message blocks its partition forever, so the
// scanner deployments always set one.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *consumerConfig) { c.dlqTopic = topic }
}

// WithConsumerCommitInterval batches offset commits. Zero commits after
// every message.
func WithConsumerCommitInterval(d time.Duration) ConsumerOption {
	return func(c *consumerConfig) { c.commitInterval = d }
}

type inbound struct {
	topic string
	km    kafka.Message
}

// Consumer reads registered topics with one reader per topic and fans
// messages out to a worker pool. Per-partition locks keep at most one
// handler in flight per partition, preserving the per-symbol order the
// producer's hash balancer established.
type Consumer struct {
	cfg      *consumerConfig
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	hook     ConsumerHook

	msgChan  chan *inbound
	dlq      *kafka.Writer
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	partMu    sync.Mutex
	partLocks map[string]map[int]*sync.Mutex
}

// NewConsumer builds a consumer; readers start on Start.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &consumerConfig{
		groupID:    "finscan",
		workers:    1,
		bufferSize: 64,
		retryMax:   3,
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: brokers are required")
	}

	c := &Consumer{
		cfg:       cfg,
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		hook:      NoopHook{},
		msgChan:   make(chan *inbound, cfg.bufferSize),
		stopChan:  make(chan struct{}),
		partLocks: make(map[string]map[int]*sync.Mutex),
	}
	if cfg.dlqTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.brokers...), Balancer: &kafka.LeastBytes{}}
	}
	initConsumerMetrics()
	return c, nil
}

// SetHook installs the handling observer. Call before Start.
func (c *Consumer) SetHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler binds a handler to its topic. Call before Start.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		log.Printf("kafka consumer: handler already registered for topic %s", topic)
		return
	}
	c.handlers[topic] = handler
}

// Start spawns the worker pool and one read loop per registered topic.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers: c.cfg.brokers,
			Topic:   topic,
			GroupID: c.cfg.groupID,
			// Signal messages are small and latency matters more than
			// fetch efficiency.
			MinBytes:       1,
			MaxBytes:       1 << 20,
			MaxWait:        time.Second,
			CommitInterval: c.cfg.commitInterval,
		})
		log.Printf("kafka consumer: subscribed topic=%s group=%s", topic, c.cfg.groupID)
	}

	for i := 0; i < c.cfg.workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	for topic, reader := range c.readers {
		c.wg.Add(1)
		go c.readLoop(topic, reader)
	}
	log.Printf("kafka consumer: started workers=%d topics=%d", c.cfg.workers, len(c.readers))
	return nil
}

// Stop halts readers and workers. Buffered messages that have not been
// handled are not committed, so they are redelivered on the next start.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		close(c.stopChan)

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			stopErr = fmt.Errorf("kafka consumer stop: %w", ctx.Err())
		}

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				log.Printf("kafka consumer: close reader topic=%s: %v", topic, err)
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				log.Printf("kafka consumer: close dlq writer: %v", err)
			}
		}
	})
	return stopErr
}

func (c *Consumer) readLoop(topic string, reader *kafka.Reader) {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		// Bounded read so the loop re-checks stopChan while idle.
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		km, err := reader.ReadMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				log.Printf("kafka consumer: read topic=%s: %v", topic, err)
			}
			continue
		}

		select {
		case c.msgChan <- &inbound{topic: topic, km: km}:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
		case <-c.stopChan:
			return
		}
	}
}

func (c *Consumer) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopChan:
			return
		case msg := <-c.msgChan:
			consumerQueueDepth.WithLabelValues(msg.topic).Set(float64(len(c.msgChan)))
			c.process(msg)
		}
	}
}

// process runs the handler with retries, then commits or dead-letters.
func (c *Consumer) process(msg *inbound) {
	handler, ok := c.handlers[msg.topic]
	if !ok {
		return
	}

	lock := c.partitionLock(msg.topic, msg.km.Partition)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("kafka consumer: handler panic topic=%s: %v", msg.topic, r)
		}
	}()

	start := time.Now()
	ctx := c.hook.BeforeHandle(context.Background(), msg.topic)

	var err error
	for attempt := 1; ; attempt++ {
		err = handler.Handle(ctx, msg.km.Value)
		if err == nil || attempt > c.cfg.retryMax {
			break
		}
		select {
		case <-time.After(backoffWithJitter(c.cfg.backoffMin, c.cfg.backoffMax, attempt)):
		case <-c.stopChan:
			return
		}
	}

	result := "ok"
	if err != nil {
		result = "error"
		log.Printf("kafka consumer: handler failed topic=%s after %d attempts: %v",
			msg.topic, c.cfg.retryMax+1, err)
		c.deadLetter(msg)
	}

	// Commit on success, or after dead-lettering so a poison message
	// cannot wedge its partition.
	if err == nil || c.dlq != nil {
		if reader := c.readers[msg.topic]; reader != nil {
			c.commitWithRetry(reader, msg.km)
		}
	}

	elapsed := time.Since(start)
	c.hook.AfterHandle(ctx, msg.topic, err, elapsed)
	consumerHandled.WithLabelValues(msg.topic, result).Inc()
	consumerHandleLatency.WithLabelValues(msg.topic).Observe(elapsed.Seconds())
}

func (c *Consumer) deadLetter(msg *inbound) {
	if c.dlq == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic:   c.cfg.dlqTopic,
		Key:     msg.km.Key,
		Value:   msg.km.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(msg.topic)}},
	})
	if err != nil {
		log.Printf("kafka consumer: dlq write topic=%s: %v", c.cfg.dlqTopic, err)
	}
}

func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message) {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	log.Printf("kafka consumer: commit failed: %v", err)
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.partMu.Lock()
	defer c.partMu.Unlock()
	m, ok := c.partLocks[topic]
	if !ok {
		m = make(map[int]*sync.Mutex)
		c.partLocks[topic] = m
	}
	l, ok := m[partition]
	if !ok {
		l = &sync.Mutex{}
		m[partition] = l
	}
	return l
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := min * time.Duration(1<<uint(attempt-1))
	if d > max || d <= 0 {
		d = max
	}
	// Up to half the delay shaved off so retrying consumers spread out.
	return d - time.Duration(rand.Int63n(int64(d)/2+1))
}

var (
	consumerMetricsOnce   sync.Once
	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandled       *prometheus.CounterVec
	consumerHandleLatency *prometheus.HistogramVec
)

func initConsumerMetrics() {
	consumerMetricsOnce.Do(func() {
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finscan_kafka_consumer_queue_depth",
				Help: "Messages waiting in the worker queue",
			},
			[]string{"topic"},
		)
		consumerHandled = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscan_kafka_consumer_messages_total",
				Help: "Messages handled, by final result",
			},
			[]string{"topic", "result"},
		)
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finscan_kafka_consumer_handle_seconds",
				Help:    "Handling time per message including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"topic"},
		)
	})
}
