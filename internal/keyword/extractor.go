// Package keyword turns normalized query text into a deduplicated keyword
// set and flags gear-related intent via a closed equipment vocabulary.
package keyword

import (
	"sort"
	"strings"
)

// Set is a deduplicated keyword set. Callers must treat it as unordered;
// Sorted exists only for stable logging and test output.
type Set map[string]struct{}

// NewSet builds a Set from the given terms.
func NewSet(terms ...string) Set {
	s := make(Set, len(terms))
	for _, t := range terms {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether term is in the set.
func (s Set) Has(term string) bool {
	_, ok := s[term]
	return ok
}

// Add inserts term into the set.
func (s Set) Add(term string) {
	s[term] = struct{}{}
}

// Sorted returns the set's members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Vocabulary holds the closed word lists driving extraction. Versioned
// static data injected at construction; tests substitute smaller fixtures.
type Vocabulary struct {
	// Topics are known subject terms (locations, technical concepts, course
	// format words) matched by substring against the normalized text.
	Topics []string
	// StopWords are dropped from generic tokenization regardless of length.
	StopWords []string
	// Acronyms may pass tokenization below the minimum token length.
	Acronyms []string
	// Equipment are single-token gear terms matched against extracted
	// keywords.
	Equipment []string
	// EquipmentPhrases are multi-word gear terms matched by substring
	// containment against the full normalized text. Tokenization alone
	// would never reassemble "depth of field" from its parts.
	EquipmentPhrases []string
}

const minTokenLen = 3

// Extractor extracts keywords and equipment keywords from normalized text.
type Extractor struct {
	vocab     Vocabulary
	stopWords Set
	acronyms  Set
	equipment Set
}

// New creates an Extractor over the given vocabulary.
func New(vocab Vocabulary) *Extractor {
	return &Extractor{
		vocab:     vocab,
		stopWords: NewSet(vocab.StopWords...),
		acronyms:  NewSet(vocab.Acronyms...),
		equipment: NewSet(vocab.Equipment...),
	}
}

// Default returns an Extractor using the production vocabulary.
func Default() *Extractor {
	return New(DefaultVocabulary())
}

// Extract returns the keyword set and the gear-related subset for the given
// normalized text. Deterministic: the same input always yields the same
// sets. Empty input yields empty sets.
func (e *Extractor) Extract(normalized string) (keywords, equipment Set) {
	keywords = make(Set)
	equipment = make(Set)
	if normalized == "" {
		return keywords, equipment
	}

	// Topic keywords: closed vocabulary, substring match so multi-word
	// topics like "depth of field" land as a single keyword.
	for _, topic := range e.vocab.Topics {
		if strings.Contains(normalized, topic) {
			keywords.Add(topic)
		}
	}

	// Generic tokens: split on non-letter/digit/hyphen boundaries, drop
	// stop words and short tokens outside the acronym allow-list.
	for _, tok := range tokenize(normalized) {
		if e.stopWords.Has(tok) {
			continue
		}
		if len(tok) < minTokenLen && !e.acronyms.Has(tok) {
			continue
		}
		keywords.Add(tok)
	}

	// Equipment detection: single-token terms against extracted keywords,
	// multi-word phrases against the full text.
	for kw := range keywords {
		if e.equipment.Has(kw) {
			equipment.Add(kw)
		}
	}
	for _, phrase := range e.vocab.EquipmentPhrases {
		if strings.Contains(normalized, phrase) {
			equipment.Add(phrase)
			keywords.Add(phrase)
		}
	}

	return keywords, equipment
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		case r == '-':
			return false
		}
		return true
	})
}
