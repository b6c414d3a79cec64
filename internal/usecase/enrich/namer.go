package enrich

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/thoughtflow/mindmap/internal/domain"
	"github.com/thoughtflow/mindmap/internal/metrics"
	"github.com/thoughtflow/mindmap/internal/prompt"
)

// TreeName is the whole-tree title and overview.
type TreeName struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// fallbackTitle is used when naming cannot produce a usable result.
const fallbackTitle = "Untitled Mindmap"

// noOverviewByLanguage localizes the fallback overview message.
var noOverviewByLanguage = map[domain.Language]string{
	"Arabic":  "لا يوجد ملخص متاح.",
	"English": "No overview available.",
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Namer summarizes the enriched tree into a single title and overview.
// Naming never aborts the pipeline: any failure yields the fixed
// fallback title with a localized no-overview message.
type Namer struct {
	gen     domain.Generator
	prompts *prompt.Store
	logger  *zap.Logger
}

// NewNamer creates a root namer.
func NewNamer(gen domain.Generator, prompts *prompt.Store, logger *zap.Logger) *Namer {
	return &Namer{gen: gen, prompts: prompts, logger: logger}
}

// Name serializes the labeled tree into an outline and requests a short
// title plus a one-to-two-sentence summary in the target language.
func (n *Namer) Name(ctx context.Context, root *domain.Node, lang domain.Language) TreeName {
	outline := root.Outline()
	if strings.TrimSpace(outline) == "" {
		return fallbackName(lang)
	}

	p, err := n.prompts.Render(prompt.TitlePrompt, prompt.TitleData{
		Language: string(lang),
		Outline:  outline,
	})
	if err != nil {
		n.logger.Error("Title prompt render failed", zap.Error(err))
		return fallbackName(lang)
	}

	result, err := n.gen.Generate(ctx, p)
	if err != nil {
		metrics.GenerationFallbacksTotal.WithLabelValues("title").Inc()
		n.logger.Warn("Tree naming failed, using fallback", zap.Error(err))
		return fallbackName(lang)
	}

	name, ok := parseTreeName(result.Text)
	if !ok {
		metrics.GenerationFallbacksTotal.WithLabelValues("title").Inc()
		n.logger.Warn("Tree naming returned unparseable result",
			zap.String("response", truncateRunes(result.Text, 200)))
		return fallbackName(lang)
	}

	n.logger.Info("Named mindmap", zap.String("title", name.Title))
	return name
}

// parseTreeName locates a well-formed {title, summary} object in the raw
// response: strict parse first, then brace extraction from surrounding
// scaffolding.
func parseTreeName(raw string) (TreeName, bool) {
	cleaned := Clean(raw)

	var name TreeName
	if err := json.Unmarshal([]byte(cleaned), &name); err != nil {
		match := jsonObjectRe.FindString(cleaned)
		if match == "" {
			return TreeName{}, false
		}
		if err := json.Unmarshal([]byte(match), &name); err != nil {
			return TreeName{}, false
		}
	}

	name.Title = Polish(name.Title)
	name.Summary = strings.TrimSpace(name.Summary)
	if name.Title == "" {
		return TreeName{}, false
	}
	return name, true
}

func fallbackName(lang domain.Language) TreeName {
	msg, ok := noOverviewByLanguage[lang]
	if !ok {
		msg = noOverviewByLanguage["English"]
	}
	return TreeName{Title: fallbackTitle, Summary: msg}
}
