// Package normalize canonicalizes raw visitor queries before keyword
// extraction: lowercasing, unit-spelling rewrites, synonym expansion, and
// phrase injection for known trigger combinations.
package normalize

import (
	"regexp"
	"strings"
)

// SynonymRule appends related terms to the query when the trigger word is
// present, so downstream keyword matching can hit on any spelling the site
// content uses. Terms are appended, never substituted.
type SynonymRule struct {
	Trigger string
	Terms   []string
}

// PhraseRule appends a fixed phrase when every trigger is present. Rules are
// enumerated explicitly so each one is individually testable.
type PhraseRule struct {
	Triggers []string
	Phrase   string
}

// UnitRule collapses spelling variants to a single canonical token.
type UnitRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Rules is the complete normalization rule table. The table is closed at
// build time; tests substitute smaller fixtures.
type Rules struct {
	Units    []UnitRule
	Synonyms []SynonymRule
	Phrases  []PhraseRule
}

// Normalizer applies a rule table to raw query text.
type Normalizer struct {
	rules Rules
}

// New creates a Normalizer with the given rule table.
func New(rules Rules) *Normalizer {
	return &Normalizer{rules: rules}
}

// Default returns a Normalizer using the production rule table.
func Default() *Normalizer {
	return New(DefaultRules())
}

// Normalize canonicalizes raw query text. It is a total function: empty
// input yields an empty string, and no input can fail.
func (n *Normalizer) Normalize(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return ""
	}

	for _, u := range n.rules.Units {
		text = u.Pattern.ReplaceAllString(text, u.Replacement)
	}

	// Synonym expansion appends to the text so the original wording still
	// matches content that uses it verbatim.
	for _, s := range n.rules.Synonyms {
		if strings.Contains(text, s.Trigger) {
			text += " " + strings.Join(s.Terms, " ")
		}
	}

	for _, p := range n.rules.Phrases {
		if containsAll(text, p.Triggers) {
			text += " " + p.Phrase
		}
	}

	return text
}

func containsAll(text string, triggers []string) bool {
	for _, t := range triggers {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}
