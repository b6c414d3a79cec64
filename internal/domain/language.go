package domain

import "unicode"

// Language is a normalized target-language name, e.g. "English", "Arabic".
type Language string

var languageByCode = map[string]Language{
	"ar": "Arabic",
	"en": "English",
	"fr": "French",
	"es": "Spanish",
	"de": "German",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ru": "Russian",
	"pt": "Portuguese",
	"he": "Hebrew",
}

// NormalizeLanguage maps a language code or name to a Language.
// Unknown inputs default to English.
func NormalizeLanguage(s string) Language {
	if s == "" {
		return "English"
	}
	if lang, ok := languageByCode[lower(s)]; ok {
		return lang
	}
	for _, lang := range languageByCode {
		if lower(string(lang)) == lower(s) {
			return lang
		}
	}
	return "English"
}

func lower(s string) string {
	b := []rune(s)
	for i, r := range b {
		b[i] = unicode.ToLower(r)
	}
	return string(b)
}

// script tables for languages whose script is distinguishable from Latin.
var scriptByLanguage = map[Language]*unicode.RangeTable{
	"Arabic":   unicode.Arabic,
	"Hebrew":   unicode.Hebrew,
	"Russian":  unicode.Cyrillic,
	"Chinese":  unicode.Han,
	"Japanese": unicode.Hiragana,
	"Korean":   unicode.Hangul,
}

// RequiresScript reports whether the language uses a non-Latin script
// that response validation must check for.
func (l Language) RequiresScript() bool {
	_, ok := scriptByLanguage[l]
	return ok
}

// ContainsScript reports whether text contains at least one character of
// the language's script. Always true for Latin-script languages.
func (l Language) ContainsScript(text string) bool {
	table, ok := scriptByLanguage[l]
	if !ok {
		return true
	}
	for _, r := range text {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}
