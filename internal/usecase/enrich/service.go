package enrich

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/thoughtflow/mindmap/internal/domain"
	"github.com/thoughtflow/mindmap/internal/metrics"
	"github.com/thoughtflow/mindmap/internal/prompt"
)

// Sentinel texts assigned when a node fails enrichment entirely.
const (
	sentinelLabel       = "Unnamed Cluster"
	sentinelDescription = "No description available."
)

// validatedGenerator is the consumer interface for the retrier.
type validatedGenerator interface {
	GenerateValidated(ctx context.Context, prompt string, lang domain.Language) (string, error)
}

// Config holds the enrichment parameters.
type Config struct {
	// SampleTexts bounds how many member texts feed one prompt.
	SampleTexts int
	// LabelTextBudget / DescriptionTextBudget cap the concatenated
	// sample, in runes.
	LabelTextBudget       int
	DescriptionTextBudget int
}

// Enricher walks the finished tree and assigns a label and description to
// every node. Every node always ends up with a non-empty label: retry
// exhaustion falls back to deterministic text derived from member
// content, and any node-level failure is isolated with sentinel text so
// siblings and the rest of the tree still get enriched.
type Enricher struct {
	gen     validatedGenerator
	prompts *prompt.Store
	cfg     Config
	logger  *zap.Logger
}

// NewEnricher creates a label/description enricher.
func NewEnricher(gen validatedGenerator, prompts *prompt.Store, cfg Config, logger *zap.Logger) *Enricher {
	return &Enricher{gen: gen, prompts: prompts, cfg: cfg, logger: logger}
}

// Enrich fills label and description on the node and all descendants,
// depth-first. Only context cancellation aborts the walk.
func (e *Enricher) Enrich(
	ctx context.Context, root *domain.Node, segments []domain.Segment, lang domain.Language,
) error {
	return e.enrich(ctx, root, segments, lang, "")
}

func (e *Enricher) enrich(
	ctx context.Context, node *domain.Node, segments []domain.Segment,
	lang domain.Language, parentLabel string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.enrichNode(ctx, node, segments, lang, parentLabel)

	for _, child := range node.Children {
		if err := e.enrich(ctx, child, segments, lang, node.Label); err != nil {
			return err
		}
	}
	return nil
}

// enrichNode labels and describes a single node. Panics and template
// failures are contained here: the node gets sentinel text and the walk
// continues.
func (e *Enricher) enrichNode(
	ctx context.Context, node *domain.Node, segments []domain.Segment,
	lang domain.Language, parentLabel string,
) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Node enrichment panicked",
				zap.String("cluster_id", node.ID), zap.Any("panic", r))
			if node.Label == "" {
				node.Label = sentinelLabel
			}
			if node.Description == "" {
				node.Description = sentinelDescription
			}
		}
	}()

	texts := e.sampleTexts(node, segments)

	node.Label = e.generateLabel(ctx, node, texts, lang, parentLabel)
	node.Description = e.generateDescription(ctx, node, texts, lang)
}

func (e *Enricher) generateLabel(
	ctx context.Context, node *domain.Node, texts []string,
	lang domain.Language, parentLabel string,
) string {
	sample := truncateRunes(strings.Join(texts, "\n"), e.cfg.LabelTextBudget)

	p, err := e.prompts.Render(prompt.LabelPrompt, prompt.LabelData{
		Language:    string(lang),
		Text:        sample,
		ParentLabel: parentLabel,
		Depth:       node.Depth,
	})
	if err != nil {
		e.logger.Error("Label prompt render failed",
			zap.String("cluster_id", node.ID), zap.Error(err))
		return fallbackLabel(texts)
	}

	label, err := e.gen.GenerateValidated(ctx, p, lang)
	if err != nil {
		metrics.GenerationFallbacksTotal.WithLabelValues("label").Inc()
		e.logger.Warn("Label generation exhausted, using fallback",
			zap.String("cluster_id", node.ID), zap.Error(err))
		return fallbackLabel(texts)
	}
	return label
}

func (e *Enricher) generateDescription(
	ctx context.Context, node *domain.Node, texts []string, lang domain.Language,
) string {
	sample := truncateRunes(strings.Join(texts, "\n"), e.cfg.DescriptionTextBudget)

	p, err := e.prompts.Render(prompt.DescriptionPrompt, prompt.DescriptionData{
		Language: string(lang),
		Label:    node.Label,
		Text:     sample,
		Depth:    node.Depth,
	})
	if err != nil {
		e.logger.Error("Description prompt render failed",
			zap.String("cluster_id", node.ID), zap.Error(err))
		return fallbackDescription(node.Label)
	}

	desc, err := e.gen.GenerateValidated(ctx, p, lang)
	if err != nil {
		metrics.GenerationFallbacksTotal.WithLabelValues("description").Inc()
		e.logger.Warn("Description generation exhausted, using fallback",
			zap.String("cluster_id", node.ID), zap.Error(err))
		return fallbackDescription(node.Label)
	}
	return desc
}

// sampleTexts returns the first SampleTexts member texts of the node.
func (e *Enricher) sampleTexts(node *domain.Node, segments []domain.Segment) []string {
	limit := e.cfg.SampleTexts
	if limit <= 0 || limit > len(node.Members) {
		limit = len(node.Members)
	}
	texts := make([]string, 0, limit)
	for _, idx := range node.Members[:limit] {
		if idx >= 0 && idx < len(segments) {
			texts = append(texts, segments[idx].Cleaned)
		}
	}
	return texts
}

// fallbackLabel derives a deterministic label from the first member text:
// the first few words, capitalized and truncated.
func fallbackLabel(texts []string) string {
	if len(texts) == 0 {
		return sentinelLabel
	}
	words := strings.Fields(texts[0])
	if len(words) == 0 {
		return sentinelLabel
	}
	const maxWords = 8
	truncated := len(words) > maxWords
	if truncated {
		words = words[:maxWords]
	}
	label := capitalize(strings.Join(words, " "))
	if truncated {
		label += "..."
	}
	return label
}

// fallbackDescription synthesizes a generic sentence referencing the
// (possibly fallback) label.
func fallbackDescription(label string) string {
	if strings.TrimSpace(label) == "" {
		return sentinelDescription
	}
	return "Content related to " + strings.TrimSuffix(label, "...") + "."
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// truncateRunes cuts s to at most limit runes without splitting one.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
