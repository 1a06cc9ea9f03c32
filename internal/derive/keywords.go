// Package derive holds the pure string heuristics that turn raw order data
// into search keywords, parsed options and the custom-order flag. Everything
// here is I/O-free so the rules can be unit-tested and evolved without
// touching orchestration.
package derive

import (
	"strings"
	"unicode"

	"github.com/grayfield/photodex/internal/models"
)

// stopWords are never emitted as keywords. Articles, conjunctions and the
// common prepositions, pronouns and auxiliary verbs that show up in product
// names without carrying search value.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"and": true, "or": true, "but": true, "nor": true, "so": true, "yet": true,
	"for": true, "of": true, "in": true, "on": true, "at": true, "to": true,
	"with": true, "by": true, "from": true, "as": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
	"you": true, "your": true, "we": true, "our": true,
}

// Keywords derives the search keyword set for an order: tokens from the
// product name plus, for each option, the whole option value and its
// space-split sub-tokens. Tokens shorter than two characters and stop-words
// are dropped; duplicates are removed case-insensitively, first form wins.
func Keywords(productName string, options []models.Option) []string {
	var keywords []string
	seen := make(map[string]bool)

	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		if !validKeyword(kw) {
			return
		}
		lower := strings.ToLower(kw)
		if stopWords[lower] || seen[lower] {
			return
		}
		seen[lower] = true
		keywords = append(keywords, kw)
	}

	for _, tok := range tokenize(productName) {
		add(strings.ToLower(tok))
	}
	for _, opt := range options {
		add(opt.Value)
		for _, tok := range tokenize(opt.Value) {
			add(strings.ToLower(tok))
		}
	}

	return keywords
}

// tokenize splits on whitespace, hyphens, quotes and commas.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '"' || r == '\'' || r == ','
	})
}

// validKeyword keeps tokens longer than one rune that contain at least one
// letter or digit (filters out stray punctuation like a lone dash).
func validKeyword(s string) bool {
	if len([]rune(s)) < 2 {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
