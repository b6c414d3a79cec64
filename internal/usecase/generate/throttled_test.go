package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/thoughtflow/mindmap/internal/domain"
)

type mockGenerator struct {
	result domain.GenerationResult
	err    error
	calls  int
}

func (m *mockGenerator) Generate(context.Context, string) (domain.GenerationResult, error) {
	m.calls++
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	return m.result, nil
}

func TestThrottled_Passthrough(t *testing.T) {
	inner := &mockGenerator{result: domain.GenerationResult{Text: "ok", TotalTokens: 3}}
	th := NewThrottled(inner, 0, zap.NewNop())

	result, err := th.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Text != "ok" || result.TotalTokens != 3 {
		t.Errorf("result not forwarded: %+v", result)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
}

func TestThrottled_EnforcesInterval(t *testing.T) {
	inner := &mockGenerator{result: domain.GenerationResult{Text: "ok"}}
	interval := 50 * time.Millisecond
	th := NewThrottled(inner, interval, zap.NewNop())

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := th.Generate(context.Background(), "p"); err != nil {
			t.Fatalf("Generate %d failed: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// First call is immediate, the next two each wait one interval.
	if elapsed < 2*interval {
		t.Errorf("3 calls finished in %v, expected at least %v", elapsed, 2*interval)
	}
}

func TestThrottled_WaitRespectsCancellation(t *testing.T) {
	inner := &mockGenerator{result: domain.GenerationResult{Text: "ok"}}
	th := NewThrottled(inner, time.Minute, zap.NewNop())

	if _, err := th.Generate(context.Background(), "p"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := th.Generate(ctx, "p")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("cancelled wait must not reach the provider, got %d calls", inner.calls)
	}
}

func TestThrottled_WrapsInnerError(t *testing.T) {
	inner := &mockGenerator{err: domain.ErrGenerationProviderError}
	th := NewThrottled(inner, 0, zap.NewNop())

	_, err := th.Generate(context.Background(), "p")
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected provider error to surface, got %v", err)
	}
}
