// Package relation extracts directed semantic links inside leaf clusters.
package relation

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/thoughtflow/mindmap/internal/domain"
	"github.com/thoughtflow/mindmap/internal/metrics"
)

// Extractor computes pairwise cosine similarity among the members of each
// leaf cluster and records directed related-to edges above a confidence
// threshold. Bounded per source concept so the relationship set stays
// meaningful for display rather than exhaustive.
type Extractor struct {
	threshold     float64
	maxPerConcept int
	logger        *zap.Logger
}

// NewExtractor creates a relationship extractor.
func NewExtractor(threshold float64, maxPerConcept int, logger *zap.Logger) *Extractor {
	return &Extractor{threshold: threshold, maxPerConcept: maxPerConcept, logger: logger}
}

// Annotate walks the tree and fills Relationships on every leaf with at
// least two members. Embeddings are indexed by global segment index.
func (e *Extractor) Annotate(root *domain.Node, embeddings [][]float32) {
	root.Walk(func(n *domain.Node) {
		if !n.IsLeaf() || len(n.Members) < 2 {
			return
		}
		n.Relationships = e.extract(n.Members, embeddings)

		density := domain.RelationshipDensity(len(n.Relationships), len(n.Members))
		metrics.RelationshipsTotal.Add(float64(len(n.Relationships)))
		e.logger.Debug("Extracted leaf relationships",
			zap.String("cluster_id", n.ID),
			zap.Int("members", len(n.Members)),
			zap.Int("relationships", len(n.Relationships)),
			zap.Float64("density", density),
		)
	})
}

// extract emits, for each member, up to maxPerConcept directed edges to
// the most similar other members at or above the threshold.
func (e *Extractor) extract(members []int, embeddings [][]float32) []domain.Relationship {
	m := len(members)
	sims := make([][]float64, m)
	for i := range sims {
		sims[i] = make([]float64, m)
	}
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			s := cosine(embeddings[members[i]], embeddings[members[j]])
			sims[i][j] = s
			sims[j][i] = s
		}
	}

	type candidate struct {
		local int
		sim   float64
	}

	var relationships []domain.Relationship
	for i := 0; i < m; i++ {
		candidates := make([]candidate, 0, m-1)
		for j := 0; j < m; j++ {
			if i != j && sims[i][j] >= e.threshold {
				candidates = append(candidates, candidate{local: j, sim: sims[i][j]})
			}
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].sim > candidates[b].sim
		})
		if len(candidates) > e.maxPerConcept {
			candidates = candidates[:e.maxPerConcept]
		}
		for _, c := range candidates {
			rel, err := domain.NewRelationship(members[i], members[c.local], clamp01(c.sim))
			if err != nil {
				continue
			}
			relationships = append(relationships, rel)
		}
	}
	return relationships
}

// cosine computes cosine similarity in float64 for stable thresholding.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
