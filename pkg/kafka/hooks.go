package kafka

import (
	"context"
	"time"
)

// ConsumerHook observes message handling. BeforeHandle may derive a new
// context (deadlines, trace values); AfterHandle sees the handler error
// and elapsed time once retries are exhausted or the message succeeded.
// Implementations must not panic; they run on the worker goroutines.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string) context.Context
	AfterHandle(ctx context.Context, topic string, err error, elapsed time.Duration)
}

// NoopHook is the default hook.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string) context.Context { return ctx }

func (NoopHook) AfterHandle(context.Context, string, error, time.Duration) {}

// HookFuncs adapts plain functions to ConsumerHook. Nil functions are
// no-ops.
type HookFuncs struct {
	Before func(ctx context.Context, topic string) context.Context
	After  func(ctx context.Context, topic string, err error, elapsed time.Duration)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string) context.Context {
	if h.Before == nil {
		return ctx
	}
	return h.Before(ctx, topic)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, err error, elapsed time.Duration) {
	if h.After != nil {
		h.After(ctx, topic, err, elapsed)
	}
}
