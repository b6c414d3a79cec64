package enrich

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/thoughtflow/mindmap/internal/domain"
	"github.com/thoughtflow/mindmap/internal/prompt"
)

// mockGenerator replays canned responses (or errors) in call order. The
// last entry repeats once the script runs out.
type mockGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (m *mockGenerator) Generate(_ context.Context, p string) (domain.GenerationResult, error) {
	i := m.calls
	m.calls++
	m.prompts = append(m.prompts, p)

	if len(m.errs) > 0 {
		if i >= len(m.errs) {
			i = len(m.errs) - 1
		}
		if err := m.errs[i]; err != nil {
			return domain.GenerationResult{}, err
		}
	}

	j := m.calls - 1
	if j >= len(m.responses) {
		j = len(m.responses) - 1
	}
	if j < 0 {
		return domain.GenerationResult{}, nil
	}
	return domain.GenerationResult{Text: m.responses[j], TotalTokens: 7}, nil
}

// mockValidated answers label and description requests by prompt marker.
// Prompts rendered by testPromptStore start with "LABEL" or "DESC".
type mockValidated struct {
	label    string
	desc     string
	err      error
	requests []string
}

func (m *mockValidated) GenerateValidated(
	_ context.Context, p string, _ domain.Language,
) (string, error) {
	m.requests = append(m.requests, p)
	if m.err != nil {
		return "", m.err
	}
	if len(p) >= 4 && p[:4] == "DESC" {
		return m.desc, nil
	}
	return m.label, nil
}

// testPromptStore writes minimal prompt templates into a temp dir.
func testPromptStore(t *testing.T) *prompt.Store {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		prompt.LabelPrompt:       "system_prompt: \"LABEL {{.Language}} {{.Text}}\"\n",
		prompt.DescriptionPrompt: "system_prompt: \"DESC {{.Language}} {{.Label}} {{.Text}}\"\n",
		prompt.TitlePrompt:       "system_prompt: \"TITLE {{.Language}} {{.Outline}}\"\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write prompt %s: %v", name, err)
		}
	}
	return prompt.NewStore(dir)
}

// testTree builds a labeled-ready tree: root with two leaf children.
func testTree(t *testing.T) *domain.Node {
	t.Helper()
	c0, err := domain.NewLeaf("root_0", 1, []int{0, 1})
	if err != nil {
		t.Fatalf("NewLeaf: %v", err)
	}
	c1, err := domain.NewLeaf("root_1", 1, []int{2})
	if err != nil {
		t.Fatalf("NewLeaf: %v", err)
	}
	root, err := domain.NewInternal("root", 0, []int{0, 1, 2}, []*domain.Node{c0, c1})
	if err != nil {
		t.Fatalf("NewInternal: %v", err)
	}
	return root
}

func testSegments(t *testing.T) []domain.Segment {
	t.Helper()
	segments, err := domain.NewSegments([]string{
		"goroutines are lightweight threads managed by the go runtime itself",
		"channels provide typed communication between goroutines",
		"the select statement waits on multiple channel operations",
	})
	if err != nil {
		t.Fatalf("NewSegments: %v", err)
	}
	return segments
}
