// Package mindmap orchestrates the full pipeline: segment, embed,
// cluster, enrich, relate, name.
package mindmap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thoughtflow/mindmap/internal/domain"
	"github.com/thoughtflow/mindmap/internal/metrics"
)

// Request is one mindmap generation invocation.
type Request struct {
	// Texts are the raw input segments in document order.
	Texts []string
	// Language is the target output language code, e.g. "en", "ar".
	Language string
	// MaxDepth / MinSize override the configured base limits when
	// positive.
	MaxDepth int
	MinSize  int
}

// Mindmap is the finished result.
type Mindmap struct {
	Title    string    `json:"title"`
	Overview string    `json:"overview"`
	Language string    `json:"language"`
	Root     *NodeView `json:"root"`
}

// NodeView is the serialized tree node.
type NodeView struct {
	ID            string             `json:"id"`
	Label         string             `json:"label"`
	Description   string             `json:"description,omitempty"`
	Members       []int              `json:"members"`
	Relationships []RelationshipView `json:"relationships,omitempty"`
	Children      []*NodeView        `json:"children,omitempty"`
}

// RelationshipView is one directed related-to edge between segments.
type RelationshipView struct {
	SourceIndex int     `json:"sourceIndex"`
	TargetIndex int     `json:"targetIndex"`
	Confidence  float64 `json:"confidence"`
	Kind        string  `json:"kind"`
}

// Service runs the pipeline stages in order. Stages are strictly
// sequential: every generation call depends on one shared rate-limited
// backend, so parallelism would only trade slow-but-correct for
// provider-throttled.
type Service struct {
	embedder  domain.Embedder
	builder   TreeBuilder
	enricher  Enricher
	relations RelationAnnotator
	namer     TreeNamer
	logger    *zap.Logger
}

// New creates the pipeline service.
func New(
	embedder domain.Embedder,
	builder TreeBuilder,
	enricher Enricher,
	relations RelationAnnotator,
	namer TreeNamer,
	logger *zap.Logger,
) *Service {
	return &Service{
		embedder:  embedder,
		builder:   builder,
		enricher:  enricher,
		relations: relations,
		namer:     namer,
		logger:    logger,
	}
}

// Generate runs the whole pipeline for one request. Partial trees are
// never returned: any stage failure before enrichment fails the request,
// and enrichment itself degrades per node rather than failing.
func (s *Service) Generate(ctx context.Context, req Request) (Mindmap, error) {
	start := time.Now()

	segments, err := domain.NewSegments(req.Texts)
	if err != nil {
		return Mindmap{}, fmt.Errorf("segment input: %w", err)
	}
	lang := domain.NormalizeLanguage(req.Language)

	embeddings, err := s.embed(ctx, segments)
	if err != nil {
		return Mindmap{}, err
	}

	root, err := s.builder.BuildWithLimits(embeddings, req.MaxDepth, req.MinSize)
	if err != nil {
		return Mindmap{}, fmt.Errorf("build tree: %w", err)
	}
	if err := root.Validate(false); err != nil {
		return Mindmap{}, fmt.Errorf("cluster tree: %w", err)
	}

	if err := s.enricher.Enrich(ctx, root, segments, lang); err != nil {
		return Mindmap{}, fmt.Errorf("enrich tree: %w", err)
	}
	if err := root.Validate(true); err != nil {
		return Mindmap{}, fmt.Errorf("enriched tree: %w", err)
	}

	s.relations.Annotate(root, embeddings)

	name := s.namer.Name(ctx, root, lang)

	nodes := 0
	root.Walk(func(*domain.Node) { nodes++ })
	metrics.MindmapBuildDuration.Observe(time.Since(start).Seconds())
	metrics.MindmapSegmentsTotal.Add(float64(len(segments)))
	metrics.MindmapNodesPerTree.Observe(float64(nodes))

	s.logger.Info("Generated mindmap",
		zap.Int("segments", len(segments)),
		zap.Int("nodes", nodes),
		zap.String("language", string(lang)),
		zap.Duration("duration", time.Since(start)),
	)

	return Mindmap{
		Title:    name.Title,
		Overview: name.Summary,
		Language: string(lang),
		Root:     toView(root),
	}, nil
}

// embed produces one vector per segment and checks alignment.
func (s *Service) embed(ctx context.Context, segments []domain.Segment) ([][]float32, error) {
	texts := domain.Texts(segments)

	var result domain.BatchEmbeddingResult
	var err error
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		result, err = be.BatchEmbed(ctx, texts)
	} else {
		result, err = domain.BatchFallback(ctx, s.embedder, texts)
	}
	if err != nil {
		return nil, fmt.Errorf("embed segments: %w", err)
	}

	if err := domain.ValidateEmbeddings(segments, result.Embeddings); err != nil {
		return nil, fmt.Errorf("embed segments: %w", err)
	}
	return result.Embeddings, nil
}

func toView(n *domain.Node) *NodeView {
	view := &NodeView{
		ID:          n.ID,
		Label:       n.Label,
		Description: n.Description,
		Members:     n.Members,
	}
	for _, rel := range n.Relationships {
		view.Relationships = append(view.Relationships, RelationshipView{
			SourceIndex: rel.SourceIndex,
			TargetIndex: rel.TargetIndex,
			Confidence:  rel.Confidence,
			Kind:        string(rel.Kind),
		})
	}
	for _, child := range n.Children {
		view.Children = append(view.Children, toView(child))
	}
	return view
}
