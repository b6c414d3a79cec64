package mindmap

import (
	"context"
	"fmt"

	"github.com/thoughtflow/mindmap/internal/domain"
	"github.com/thoughtflow/mindmap/internal/usecase/enrich"
)

// fakeEmbedder returns one fixed-dimension vector per text.
type fakeEmbedder struct {
	batchTexts []string
	shortBy    int
	err        error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batchTexts = texts
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	count := len(texts) - f.shortBy
	embeddings := make([][]float32, 0, count)
	for i := 0; i < count; i++ {
		embeddings = append(embeddings, []float32{float32(i), 1})
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: count}, nil
}

// fakeBuilder records the requested limits and returns a two-leaf tree.
type fakeBuilder struct {
	maxDepth int
	minSize  int
	err      error
}

func (f *fakeBuilder) BuildWithLimits(embeddings [][]float32, maxDepth, minSize int) (*domain.Node, error) {
	f.maxDepth, f.minSize = maxDepth, minSize
	if f.err != nil {
		return nil, f.err
	}

	n := len(embeddings)
	members := make([]int, n)
	for i := range members {
		members[i] = i
	}
	if n == 1 {
		return domain.NewLeaf(domain.RootID, 0, members)
	}

	left, err := domain.NewLeaf("root_0", 1, members[:n-1])
	if err != nil {
		return nil, err
	}
	right, err := domain.NewLeaf("root_1", 1, members[n-1:])
	if err != nil {
		return nil, err
	}
	return domain.NewInternal(domain.RootID, 0, members, []*domain.Node{left, right})
}

// fakeEnricher labels every node unless told to skip.
type fakeEnricher struct {
	skipLabels bool
	err        error
	lang       domain.Language
}

func (f *fakeEnricher) Enrich(
	_ context.Context, root *domain.Node, _ []domain.Segment, lang domain.Language,
) error {
	f.lang = lang
	if f.err != nil {
		return f.err
	}
	if f.skipLabels {
		return nil
	}
	root.Walk(func(n *domain.Node) {
		n.Label = "Label " + n.ID
		n.Description = fmt.Sprintf("Description of %s", n.ID)
	})
	return nil
}

// fakeAnnotator adds one relationship to every eligible leaf.
type fakeAnnotator struct {
	annotated int
}

func (f *fakeAnnotator) Annotate(root *domain.Node, _ [][]float32) {
	root.Walk(func(n *domain.Node) {
		if !n.IsLeaf() || len(n.Members) < 2 {
			return
		}
		rel, err := domain.NewRelationship(n.Members[0], n.Members[1], 0.9)
		if err != nil {
			return
		}
		n.Relationships = []domain.Relationship{rel}
		f.annotated++
	})
}

// fakeNamer returns a fixed name.
type fakeNamer struct {
	name enrich.TreeName
}

func (f *fakeNamer) Name(context.Context, *domain.Node, domain.Language) enrich.TreeName {
	return f.name
}
