package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput signals an empty or too-short document. Never retried,
	// surfaced directly to the caller.
	ErrEmptyInput = errors.New("empty input")
	// ErrEmbeddingDimMismatch signals embeddings of inconsistent dimensionality.
	ErrEmbeddingDimMismatch = errors.New("embedding dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a text generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrGenerationInvalid signals a generation response that failed
	// content validation for a single attempt.
	ErrGenerationInvalid = errors.New("invalid generation response")
	// ErrGenerationExhausted signals that every generation attempt failed
	// validation. Callers must apply a deterministic fallback.
	ErrGenerationExhausted = errors.New("generation retries exhausted")
	// ErrClusterDegenerate signals that partitioning cannot proceed, e.g.
	// duplicate points. Recovered locally by demoting the node to a leaf.
	ErrClusterDegenerate = errors.New("degenerate cluster input")
	// ErrTreeInvariant signals a structural invariant violation in a built
	// tree. Should never occur when fallbacks are correct; tests fail loudly on it.
	ErrTreeInvariant = errors.New("tree invariant violation")
)

// InvalidResponseError wraps ErrGenerationInvalid with the validation rule
// that rejected the candidate response.
type InvalidResponseError struct {
	Rule string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrGenerationInvalid.Error(), e.Rule)
}

func (e *InvalidResponseError) Unwrap() error { return ErrGenerationInvalid }

// NewInvalidResponse creates a validation failure error for one rule.
func NewInvalidResponse(rule string) error {
	return &InvalidResponseError{Rule: rule}
}
