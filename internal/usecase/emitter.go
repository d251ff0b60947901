package usecase

import (
	"context"

	"FinScan/internal/domain/models"
	domrepo "FinScan/internal/domain/repository"
	mid "FinScan/internal/middleware"
	"FinScan/internal/repository"
	pkgkafka "FinScan/pkg/kafka"
)

// DirectEmitter hands accepted signals straight to the in-process dispatch
// pipeline.
type DirectEmitter struct {
	pipe *mid.DispatchPipeline
}

func NewDirectEmitter(pipe *mid.DispatchPipeline) *DirectEmitter {
	return &DirectEmitter{pipe: pipe}
}

func (e *DirectEmitter) Emit(ctx context.Context, sig *models.ScoredSignal) error {
	return e.pipe.Dispatch(sig)
}

// KafkaEmitter produces accepted signals to the signal topic. Delivery to
// sinks then happens wherever the topic is consumed.
type KafkaEmitter struct {
	pub domrepo.SignalPublisher
}

func NewKafkaEmitter(pub domrepo.SignalPublisher) *KafkaEmitter {
	return &KafkaEmitter{pub: pub}
}

func (e *KafkaEmitter) Emit(ctx context.Context, sig *models.ScoredSignal) error {
	return e.pub.Publish(ctx, sig)
}

// KafkaSignalsHandler consumes the signal topic and feeds the dispatch
// pipeline, closing the loop for the kafka backend. Decode errors are
// returned so the consumer can route the message to the DLQ.
type KafkaSignalsHandler struct {
	topic string
	pipe  *mid.DispatchPipeline
}

func NewKafkaSignalsHandler(topic string, pipe *mid.DispatchPipeline) *KafkaSignalsHandler {
	return &KafkaSignalsHandler{topic: topic, pipe: pipe}
}

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	sig, err := repository.DecodeSignal(b)
	if err != nil {
		return err
	}
	return h.pipe.Dispatch(sig)
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
