package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinScan/internal/domain/models"
	domrepo "FinScan/internal/domain/repository"
	"FinScan/pkg/logger"
)

const deliverTimeout = 10 * time.Second

// DispatchPipeline sits between the scanner and the delivery sinks. Accepted
// signals are queued without blocking the scan loop; a background worker
// paces them out and fans each one to every sink. Sink failures are logged
// and counted, never retried, so a dead sink cannot stall or duplicate
// notifications.
type DispatchPipeline struct {
	sinks   []domrepo.SignalSink
	metrics domrepo.Metrics
	log     *logger.Logger
	maxRPS  int
	bufCh   chan *models.ScoredSignal
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	mu      sync.Mutex
}

type PipelineOption func(*DispatchPipeline)

// WithMaxRPS caps how many signals per second leave the pipeline.
func WithMaxRPS(n int) PipelineOption {
	return func(p *DispatchPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the queue depth before new signals are dropped.
func WithBufferSize(n int) PipelineOption {
	return func(p *DispatchPipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.ScoredSignal, n)
		}
	}
}

func NewDispatchPipeline(sinks []domrepo.SignalSink, metrics domrepo.Metrics, log *logger.Logger, opts ...PipelineOption) *DispatchPipeline {
	p := &DispatchPipeline{
		sinks:   sinks,
		metrics: metrics,
		log:     log,
		maxRPS:  5,
		bufCh:   make(chan *models.ScoredSignal, 64),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the delivery worker. Dispatch before Start only queues.
func (p *DispatchPipeline) Start() {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run()
}

func (p *DispatchPipeline) run() {
	defer close(p.doneCh)
	var interval time.Duration
	if p.maxRPS > 0 {
		interval = time.Second / time.Duration(p.maxRPS)
	}
	var lastOut time.Time
	for {
		select {
		case <-p.stopCh:
			p.drain()
			return
		case sig := <-p.bufCh:
			if sig == nil {
				continue
			}
			if wait := interval - time.Since(lastOut); wait > 0 {
				select {
				case <-time.After(wait):
				case <-p.stopCh:
					p.deliver(sig)
					p.drain()
					return
				}
			}
			p.deliver(sig)
			lastOut = time.Now()
		}
	}
}

// drain flushes whatever is still queued at shutdown, unpaced.
func (p *DispatchPipeline) drain() {
	for {
		select {
		case sig := <-p.bufCh:
			if sig != nil {
				p.deliver(sig)
			}
		default:
			return
		}
	}
}

// deliver fans one signal out to every sink. Each delivery is bounded on
// its own so the drain at shutdown still reaches the sinks after the app
// context is gone.
func (p *DispatchPipeline) deliver(sig *models.ScoredSignal) {
	for _, sink := range p.sinks {
		sctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		err := sink.Deliver(sctx, sig)
		cancel()
		if err != nil {
			p.metrics.RecordDelivery(sink.Name(), false)
			p.log.Error("signal delivery failed",
				logger.String("sink", sink.Name()),
				logger.String("symbol", sig.Symbol),
				logger.String("signal_id", sig.ID),
				logger.Error(err))
			continue
		}
		p.metrics.RecordDelivery(sink.Name(), true)
	}
}

// Stop ends the worker after flushing queued signals and waits for it.
func (p *DispatchPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.doneCh
}

// Dispatch queues a signal for delivery. It never blocks: when the queue is
// full the signal is dropped and counted, because a stalled sink must not
// hold up the scan loop.
func (p *DispatchPipeline) Dispatch(sig *models.ScoredSignal) error {
	if err := validateSignal(sig); err != nil {
		return err
	}
	select {
	case p.bufCh <- sig:
	default:
		p.metrics.RecordSuppression("dispatch_overflow")
		p.log.Warn("dispatch queue full, signal dropped",
			logger.String("symbol", sig.Symbol),
			logger.String("signal_id", sig.ID))
	}
	return nil
}

func validateSignal(sig *models.ScoredSignal) error {
	if sig == nil {
		return fmt.Errorf("signal nil")
	}
	if sig.Symbol == "" {
		return fmt.Errorf("signal symbol empty")
	}
	if sig.Direction != models.Long && sig.Direction != models.Short {
		return fmt.Errorf("signal direction invalid: %q", sig.Direction)
	}
	return nil
}
