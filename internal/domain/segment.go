package domain

import (
	"fmt"
	"strings"
)

// Segment is one unit of input text carried through the pipeline.
// Created once during ingestion, immutable afterwards.
type Segment struct {
	Index   int
	Raw     string
	Cleaned string
}

// NewSegments builds segments from pre-split, pre-cleaned input lines.
// Blank lines are dropped; indices are assigned after filtering so they
// stay aligned with the embedding batch.
func NewSegments(raw []string) ([]Segment, error) {
	segments := make([]Segment, 0, len(raw))
	for _, text := range raw {
		cleaned := strings.Join(strings.Fields(text), " ")
		if cleaned == "" {
			continue
		}
		segments = append(segments, Segment{
			Index:   len(segments),
			Raw:     text,
			Cleaned: cleaned,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("no non-empty segments: %w", ErrEmptyInput)
	}
	return segments, nil
}

// Texts returns the cleaned text of every segment, in index order.
func Texts(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Cleaned
	}
	return out
}

// ValidateEmbeddings checks the 1:1 alignment and dimensional consistency
// of an embedding batch against its segments.
func ValidateEmbeddings(segments []Segment, embeddings [][]float32) error {
	if len(embeddings) != len(segments) {
		return fmt.Errorf("got %d embeddings for %d segments: %w",
			len(embeddings), len(segments), ErrEmbeddingDimMismatch)
	}
	if len(embeddings) == 0 {
		return fmt.Errorf("empty embedding batch: %w", ErrEmptyInput)
	}
	dim := len(embeddings[0])
	if dim == 0 {
		return fmt.Errorf("zero-length embedding at index 0: %w", ErrEmbeddingDimMismatch)
	}
	for i, v := range embeddings {
		if len(v) != dim {
			return fmt.Errorf("embedding %d has dimension %d, want %d: %w",
				i, len(v), dim, ErrEmbeddingDimMismatch)
		}
	}
	return nil
}
