package domain

import "fmt"

// RelationshipKind enumerates the supported relationship types.
type RelationshipKind string

// KindSemanticSimilarity is the only relationship kind currently emitted.
const KindSemanticSimilarity RelationshipKind = "semantic_similarity"

// Relationship is a directed, confidence-scored semantic link between two
// segments within the same leaf cluster. Directed and possibly asymmetric:
// A->B with confidence c does not imply B->A.
type Relationship struct {
	SourceIndex int
	TargetIndex int
	Confidence  float64
	Kind        RelationshipKind
}

// NewRelationship validates and creates a Relationship.
func NewRelationship(source, target int, confidence float64) (Relationship, error) {
	if source == target {
		return Relationship{}, fmt.Errorf("self relationship for segment %d", source)
	}
	if confidence < 0 || confidence > 1 {
		return Relationship{}, fmt.Errorf("confidence %f out of [0,1]", confidence)
	}
	return Relationship{
		SourceIndex: source,
		TargetIndex: target,
		Confidence:  confidence,
		Kind:        KindSemanticSimilarity,
	}, nil
}

// RelationshipDensity is the ratio of emitted edges to the maximum number
// of directed edges among memberCount segments. Reporting only.
func RelationshipDensity(relationshipCount, memberCount int) float64 {
	if memberCount < 2 {
		return 0
	}
	return float64(relationshipCount) / float64(memberCount*(memberCount-1))
}
