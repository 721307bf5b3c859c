package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/ratelimit"
)

// ResilientConfig holds settings for the resilience wrapper
type ResilientConfig struct {
	// MaxConcurrent bounds simultaneous sandbox invocations (default 3)
	MaxConcurrent int
	// QueueTimeout bounds how long an invocation waits for a slot
	QueueTimeout time.Duration
	// RatePerSecond caps invocations per caller key; 0 disables
	RatePerSecond int
	Logger        *slog.Logger
}

// ResilientExecutor wraps an Executor with a bulkhead (bounded
// concurrent runs) and an optional per-key rate limiter, so a burst of
// submissions cannot exhaust the host.
type ResilientExecutor struct {
	inner     Executor
	bulkhead  bulkhead.Bulkhead[*InvokeResult]
	rateLimit ratelimit.RateLimiter
	logger    *slog.Logger
}

// NewResilientExecutor wraps an executor with resilience patterns
func NewResilientExecutor(inner Executor, cfg ResilientConfig) *ResilientExecutor {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	queueTimeout := cfg.QueueTimeout
	if queueTimeout <= 0 {
		queueTimeout = 30 * time.Second
	}

	re := &ResilientExecutor{
		inner:  inner,
		logger: cfg.Logger,
		bulkhead: bulkhead.New[*InvokeResult](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 2,
			QueueTimeout:  queueTimeout,
		}),
	}

	if cfg.RatePerSecond > 0 {
		re.rateLimit = ratelimit.New(&ratelimit.Config{
			Rate:     cfg.RatePerSecond,
			Burst:    cfg.RatePerSecond * 3,
			Interval: time.Second,
		})
	}

	return re
}

func (e *ResilientExecutor) Check(ctx context.Context, lang Language, code string) error {
	_, err := e.bulkhead.Execute(ctx, func(ctx context.Context) (*InvokeResult, error) {
		return nil, e.inner.Check(ctx, lang, code)
	})
	return err
}

func (e *ResilientExecutor) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	return e.bulkhead.Execute(ctx, func(ctx context.Context) (*InvokeResult, error) {
		return e.inner.Invoke(ctx, req)
	})
}

// Allow reports whether the caller key is within its submission rate.
// The daemon checks this before dispatching a run.
func (e *ResilientExecutor) Allow(ctx context.Context, key string) error {
	if e.rateLimit == nil {
		return nil
	}
	if !e.rateLimit.Allow(ctx, key) {
		if e.logger != nil {
			e.logger.Warn("submission rate limit exceeded", "key", key)
		}
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

func (e *ResilientExecutor) Close() error {
	return e.inner.Close()
}
