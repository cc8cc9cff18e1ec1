package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeProvider folds a provider name for case-insensitive comparison.
// Surrounding whitespace is removed. A Caser keeps state, so one is built per
// call and never shared between goroutines.
func NormalizeProvider(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return cases.Fold().String(name)
}

// NormalizeToken lowercases and trims a free-form token such as a declared
// content type.
func NormalizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return cases.Lower(language.Und).String(value)
}

// Label converts a token into a title-cased label for display.
func Label(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return cases.Title(language.Und).String(value)
}

// ContainsWhitespace reports whether value contains any Unicode whitespace.
func ContainsWhitespace(value string) bool {
	return strings.IndexFunc(value, unicode.IsSpace) >= 0
}
