package cluster

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/thoughtflow/mindmap/internal/domain"
)

// Config holds the tree construction parameters.
type Config struct {
	BaseMaxDepth  int
	BaseMinSize   int
	SVDComponents int
	MinSizeRatio  float64
}

// Builder grows the mindmap tree depth-first: reduce dimensionality,
// partition, recurse per group with adaptively tightened limits.
type Builder struct {
	cfg     Config
	policy  Policy
	reducer Reducer
	logger  *zap.Logger
}

// NewBuilder creates a tree builder.
func NewBuilder(cfg Config, logger *zap.Logger) *Builder {
	return &Builder{
		cfg:     cfg,
		policy:  Policy{MinSizeRatio: cfg.MinSizeRatio},
		reducer: Reducer{Components: cfg.SVDComponents},
		logger:  logger,
	}
}

// Build constructs the unlabeled cluster tree over all embeddings using
// the configured base limits.
func (b *Builder) Build(embeddings [][]float32) (*domain.Node, error) {
	return b.BuildWithLimits(embeddings, b.cfg.BaseMaxDepth, b.cfg.BaseMinSize)
}

// BuildWithLimits constructs the tree with per-request base limits.
// Non-positive overrides fall back to the configured defaults. The
// returned tree satisfies the member-partition and depth invariants;
// clustering failures degrade nodes to leaves and are never fatal.
func (b *Builder) BuildWithLimits(embeddings [][]float32, maxDepth, minSize int) (*domain.Node, error) {
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings: %w", domain.ErrEmptyInput)
	}
	if maxDepth <= 0 {
		maxDepth = b.cfg.BaseMaxDepth
	}
	if minSize <= 0 {
		minSize = b.cfg.BaseMinSize
	}
	indices := make([]int, len(embeddings))
	for i := range indices {
		indices[i] = i
	}
	return b.build(embeddings, indices, 0, domain.RootID, maxDepth, minSize)
}

// build recurses over a subtree. The parent owns `indices` (positions
// into the shared embedding slice); children receive fresh index slices,
// never aliased views of the parent's.
func (b *Builder) build(
	embeddings [][]float32, indices []int,
	depth int, id string,
	baseMaxDepth, baseMinSize int,
) (*domain.Node, error) {
	n := len(indices)
	effMaxDepth, effMinSize := b.policy.Limits(n, depth, baseMaxDepth, baseMinSize)

	if n < effMinSize || depth >= effMaxDepth {
		return domain.NewLeaf(id, depth, indices)
	}

	rows := make([][]float32, n)
	for i, idx := range indices {
		rows[i] = embeddings[idx]
	}

	reduced, err := b.reducer.Reduce(rows)
	if err != nil {
		b.logger.Warn("Dimensionality reduction failed, demoting to leaf",
			zap.String("cluster_id", id), zap.Int("samples", n), zap.Error(err))
		return domain.NewLeaf(id, depth, indices)
	}

	k := 2 + depth
	if k > n {
		k = n
	}
	if k < 2 {
		k = 2
	}

	labels, err := Partition(reduced, k)
	if err != nil {
		if !errors.Is(err, domain.ErrClusterDegenerate) {
			b.logger.Warn("Partitioning failed, demoting to leaf",
				zap.String("cluster_id", id), zap.Error(err))
		}
		return domain.NewLeaf(id, depth, indices)
	}

	groups := make([][]int, k)
	for pos, g := range labels {
		groups[g] = append(groups[g], indices[pos])
	}

	children := make([]*domain.Node, 0, k)
	for g, members := range groups {
		if len(members) == 0 {
			continue
		}
		child, err := b.build(
			embeddings, members,
			depth+1, domain.ChildID(id, g),
			effMaxDepth, effMinSize,
		)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	b.logger.Debug("Partitioned cluster",
		zap.String("cluster_id", id),
		zap.Int("depth", depth),
		zap.Int("samples", n),
		zap.Int("groups", len(children)),
	)

	return domain.NewInternal(id, depth, indices, children)
}
