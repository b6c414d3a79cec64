// Package generate decorates the text generation provider.
package generate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thoughtflow/mindmap/internal/domain"
)

// Throttled enforces a minimum interval between successive generation
// calls. The whole pipeline shares one rate-limited backend, so this is
// deliberate backpressure: without it, provider-side throttling failures
// become indistinguishable from content-quality failures upstream.
type Throttled struct {
	inner       domain.Generator
	minInterval time.Duration
	logger      *zap.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewThrottled wraps a generator with an inter-call delay.
func NewThrottled(inner domain.Generator, minInterval time.Duration, logger *zap.Logger) *Throttled {
	return &Throttled{inner: inner, minInterval: minInterval, logger: logger}
}

// Generate waits out the remaining interval since the previous call, then
// delegates. Waiting respects context cancellation.
func (t *Throttled) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if err := t.wait(ctx); err != nil {
		return domain.GenerationResult{}, err
	}

	start := time.Now()
	result, err := t.inner.Generate(ctx, prompt)
	duration := time.Since(start)

	if err != nil {
		t.logger.Warn("Generation request failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}

	t.logger.Debug("Generation request completed",
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

func (t *Throttled) wait(ctx context.Context) error {
	if t.minInterval <= 0 {
		return nil
	}

	t.mu.Lock()
	now := time.Now()
	next := t.lastCall.Add(t.minInterval)
	if next.Before(now) {
		next = now
	}
	t.lastCall = next
	t.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("throttle wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
