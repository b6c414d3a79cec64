package cluster

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/thoughtflow/mindmap/internal/domain"
)

func newTestBuilder() *Builder {
	return NewBuilder(Config{
		BaseMaxDepth:  3,
		BaseMinSize:   2,
		SVDComponents: 8,
		MinSizeRatio:  0.15,
	}, zap.NewNop())
}

func TestBuilder_EmptyInput(t *testing.T) {
	b := newTestBuilder()
	_, err := b.Build(nil)
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestBuilder_SingleSegment(t *testing.T) {
	b := newTestBuilder()
	root, err := b.Build([][]float32{{0.1, 0.2, 0.3}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !root.IsLeaf() {
		t.Error("single segment must produce a leaf root")
	}
	if root.ID != domain.RootID || len(root.Members) != 1 || root.Members[0] != 0 {
		t.Errorf("unexpected root: %+v", root)
	}
}

func TestBuilder_IdenticalEmbeddingsDemoteToLeaf(t *testing.T) {
	b := newTestBuilder()
	vec := []float32{0.5, 0.5, 0.5, 0.5}
	embeddings := [][]float32{vec, vec, vec, vec, vec, vec}

	root, err := b.Build(embeddings)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !root.IsLeaf() {
		t.Error("degenerate input must demote the root to a leaf")
	}
	if len(root.Members) != 6 {
		t.Errorf("leaf root must keep all %d members, got %d", 6, len(root.Members))
	}
}

func TestBuilder_SplitsSeparatedClusters(t *testing.T) {
	b := newTestBuilder()
	a := []float32{1, 0, 0, 0}
	c := []float32{0, 1, 0, 0}
	embeddings := [][]float32{a, a, a, c, c, c}

	root, err := b.Build(embeddings)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := root.Validate(false); err != nil {
		t.Fatalf("built tree violates invariants: %v", err)
	}
	if root.IsLeaf() {
		t.Fatal("expected root to split")
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}

	first, second := root.Children[0], root.Children[1]
	if first.ID != "root_0" || second.ID != "root_1" {
		t.Errorf("unexpected child IDs: %s, %s", first.ID, second.ID)
	}
	assertMembers(t, first, []int{0, 1, 2})
	assertMembers(t, second, []int{3, 4, 5})
	if !first.IsLeaf() || !second.IsLeaf() {
		t.Error("identical intra-group vectors must leave the children as leaves")
	}
}

func TestBuilder_DepthCeilingStopsRecursion(t *testing.T) {
	b := newTestBuilder()
	embeddings := [][]float32{
		{1, 0, 0, 0},
		{0.9, 0.1, 0, 0},
		{0, 1, 0, 0},
		{0, 0.9, 0.1, 0},
	}

	root, err := b.BuildWithLimits(embeddings, 1, 1)
	if err != nil {
		t.Fatalf("BuildWithLimits failed: %v", err)
	}
	if root.IsLeaf() {
		t.Fatal("expected root to split at depth 0")
	}
	for _, child := range root.Children {
		if !child.IsLeaf() {
			t.Errorf("child %s exceeded depth ceiling", child.ID)
		}
	}
}

func TestBuilder_NonPositiveOverridesUseDefaults(t *testing.T) {
	b := NewBuilder(Config{
		BaseMaxDepth:  3,
		BaseMinSize:   100,
		SVDComponents: 8,
		MinSizeRatio:  0.15,
	}, zap.NewNop())

	embeddings := [][]float32{
		{1, 0}, {0.9, 0.1}, {0, 1}, {0.1, 0.9},
	}
	root, err := b.BuildWithLimits(embeddings, 0, 0)
	if err != nil {
		t.Fatalf("BuildWithLimits failed: %v", err)
	}
	if !root.IsLeaf() {
		t.Error("configured min size should keep the root a leaf")
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	b := newTestBuilder()
	embeddings := [][]float32{
		{1, 0, 0}, {0.9, 0.1, 0}, {0.8, 0.2, 0},
		{0, 1, 0}, {0.1, 0.9, 0}, {0, 0.8, 0.2},
		{0, 0, 1}, {0.1, 0, 0.9},
	}

	shape := func(root *domain.Node) []string {
		var ids []string
		root.Walk(func(n *domain.Node) { ids = append(ids, n.ID) })
		return ids
	}

	first, err := b.Build(embeddings)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	firstShape := shape(first)

	for run := 0; run < 3; run++ {
		root, err := b.Build(embeddings)
		if err != nil {
			t.Fatalf("Build failed on run %d: %v", run, err)
		}
		got := shape(root)
		if len(got) != len(firstShape) {
			t.Fatalf("run %d produced %d nodes, first run %d", run, len(got), len(firstShape))
		}
		for i := range got {
			if got[i] != firstShape[i] {
				t.Fatalf("run %d shape %v differs from %v", run, got, firstShape)
			}
		}
	}
}

func assertMembers(t *testing.T, n *domain.Node, expected []int) {
	t.Helper()
	if len(n.Members) != len(expected) {
		t.Fatalf("node %s has members %v, expected %v", n.ID, n.Members, expected)
	}
	for i, m := range expected {
		if n.Members[i] != m {
			t.Fatalf("node %s has members %v, expected %v", n.ID, n.Members, expected)
		}
	}
}
