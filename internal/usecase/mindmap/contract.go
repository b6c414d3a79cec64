package mindmap

import (
	"context"

	"github.com/thoughtflow/mindmap/internal/domain"
	"github.com/thoughtflow/mindmap/internal/usecase/enrich"
)

// TreeBuilder grows the unlabeled cluster tree.
type TreeBuilder interface {
	BuildWithLimits(embeddings [][]float32, maxDepth, minSize int) (*domain.Node, error)
}

// Enricher assigns labels and descriptions to every node.
type Enricher interface {
	Enrich(ctx context.Context, root *domain.Node, segments []domain.Segment, lang domain.Language) error
}

// RelationAnnotator fills leaf relationships.
type RelationAnnotator interface {
	Annotate(root *domain.Node, embeddings [][]float32)
}

// TreeNamer produces the whole-tree title and overview.
type TreeNamer interface {
	Name(ctx context.Context, root *domain.Node, lang domain.Language) enrich.TreeName
}
