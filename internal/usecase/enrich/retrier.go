package enrich

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/thoughtflow/mindmap/internal/domain"
	"github.com/thoughtflow/mindmap/internal/metrics"
)

// Retrier wraps the generation provider with response cleaning,
// validation, and bounded retries over the identical prompt. The system
// relies on sampling variance between attempts, not prompt repair.
type Retrier struct {
	gen        domain.Generator
	validator  Validator
	maxRetries int
	logger     *zap.Logger
}

// NewRetrier creates a validating retrier. maxRetries is the number of
// additional attempts after the first.
func NewRetrier(gen domain.Generator, validator Validator, maxRetries int, logger *zap.Logger) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrier{gen: gen, validator: validator, maxRetries: maxRetries, logger: logger}
}

// GenerateValidated issues the prompt until a response passes validation
// or attempts run out. On exhaustion it returns a
// domain.ErrGenerationExhausted wrapper (never an empty accepted string),
// leaving the deterministic fallback to the caller.
func (r *Retrier) GenerateValidated(
	ctx context.Context, prompt string, lang domain.Language,
) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("generation cancelled: %w", err)
		}

		result, err := r.gen.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			r.logger.Warn("Generation attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		cleaned := Clean(result.Text)
		if err := r.validator.Validate(cleaned, lang); err != nil {
			lastErr = err
			var inv *domain.InvalidResponseError
			if errors.As(err, &inv) {
				metrics.GenerationValidationFailures.WithLabelValues(inv.Rule).Inc()
			}
			r.logger.Debug("Generation response rejected",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		polished := Polish(cleaned)
		if polished == "" {
			lastErr = domain.NewInvalidResponse("empty after polish")
			continue
		}
		if attempt > 0 {
			metrics.GenerationRetriesTotal.Add(float64(attempt))
		}
		return polished, nil
	}

	return "", fmt.Errorf("%w after %d attempts: %w",
		domain.ErrGenerationExhausted, r.maxRetries+1, lastErr)
}
