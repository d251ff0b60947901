package repository

import (
	"context"

	"FinScan/internal/domain/models"
	domrepo "FinScan/internal/domain/repository"
	pkgkafka "FinScan/pkg/kafka"
)

// KafkaSignalPublisher pushes accepted signals onto the signal topic, keyed
// by symbol so per-symbol ordering survives partitioning.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) domrepo.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig *models.ScoredSignal) error {
	b, err := EncodeSignal(sig)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), b)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
