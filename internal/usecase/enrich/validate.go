package enrich

import (
	"regexp"
	"strings"

	"github.com/thoughtflow/mindmap/internal/domain"
)

var (
	reasoningTagRe = regexp.MustCompile(`(?is)<(think|thinking|reasoning|reflection)>.*?</\s*[a-z]+\s*>`)
	markupTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	emphasisRe     = regexp.MustCompile("[*_`#~]+")
)

// preamblePrefixes are openings that indicate the model echoed the
// instructions instead of answering.
var preamblePrefixes = []string{
	"this section",
	"this cluster",
	"the following",
	"description:",
	"label:",
	"topic:",
	"caption:",
	"output:",
	"here is",
	"here's",
	"sure,",
	"certainly",
}

// Clean strips reasoning-tag blocks from a raw provider response and
// trims surrounding whitespace. Further polish happens only after the
// response has passed validation, so quality signals (stray markup,
// markdown noise) are still visible to the validator.
func Clean(raw string) string {
	return strings.TrimSpace(reasoningTagRe.ReplaceAllString(raw, ""))
}

// Polish normalizes an accepted response: drops known boilerplate
// prefixes, removes markdown emphasis characters, and collapses
// whitespace.
func Polish(text string) string {
	cleaned := strings.TrimSpace(text)
	lowered := strings.ToLower(cleaned)
	for _, prefix := range []string{"label:", "topic:", "caption:", "output:", "description:"} {
		if strings.HasPrefix(lowered, prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
			lowered = strings.ToLower(cleaned)
		}
	}
	cleaned = emphasisRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
}

// Validator applies the structural and language-consistency rules to
// cleaned candidate responses. Any violation triggers a retry upstream.
type Validator struct {
	// MaxWords is the word-count ceiling; responses beyond it signal the
	// model ignored length constraints.
	MaxWords int
}

// markdownRatioLimit is the maximum share of emphasis/heading characters
// tolerated in a response before it counts as formatting noise.
const markdownRatioLimit = 0.10

// Validate checks a cleaned candidate in rule order and returns a
// domain.ErrGenerationInvalid wrapper naming the violated rule.
func (v Validator) Validate(cleaned string, lang domain.Language) error {
	if cleaned == "" {
		return domain.NewInvalidResponse("empty response")
	}
	if markupTagRe.MatchString(cleaned) {
		return domain.NewInvalidResponse("residual markup tags")
	}
	lowered := strings.ToLower(cleaned)
	for _, prefix := range preamblePrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return domain.NewInvalidResponse("explanatory preamble")
		}
	}
	if lang.RequiresScript() && !lang.ContainsScript(cleaned) {
		return domain.NewInvalidResponse("missing target-language script")
	}
	if markdownRatio(cleaned) > markdownRatioLimit {
		return domain.NewInvalidResponse("markdown noise")
	}
	if v.MaxWords > 0 && len(strings.Fields(cleaned)) > v.MaxWords {
		return domain.NewInvalidResponse("word count exceeds ceiling")
	}
	return nil
}

func markdownRatio(s string) float64 {
	total := 0
	markdown := 0
	for _, r := range s {
		total++
		switch r {
		case '*', '_', '#', '`', '~':
			markdown++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(markdown) / float64(total)
}
