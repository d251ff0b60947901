package repository

import (
	"context"

	"FinScan/internal/domain/models"
	domrepo "FinScan/internal/domain/repository"
)

// StoreSink adapts the signal store into a delivery sink so persistence
// shares the best-effort fan-out with the notification channels.
type StoreSink struct {
	store domrepo.SignalStore
}

var _ domrepo.SignalSink = (*StoreSink)(nil)

func NewStoreSink(store domrepo.SignalStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Name() string { return "clickhouse" }

func (s *StoreSink) Deliver(ctx context.Context, sig *models.ScoredSignal) error {
	return s.store.Store(ctx, sig)
}
