package normalize

import "regexp"

// bnbPattern matches any spelling of "B&B" / "bed and breakfast", tolerant
// of spacing around the ampersand.
var bnbPattern = regexp.MustCompile(`\bbed\s*(?:&|and|'?n'?)\s*breakfast\b|\bb\s*(?:&|and|'?n'?)\s*b\b`)

// DefaultRules returns the production normalization rule table for the
// photography site. Closed at build time; not user-extensible at runtime.
func DefaultRules() Rules {
	return Rules{
		Units: []UnitRule{
			{Pattern: bnbPattern, Replacement: "bnb"},
		},
		Synonyms: []SynonymRule{
			{Trigger: "weekend", Terms: []string{"residential", "short break", "two day"}},
			{Trigger: "group", Terms: []string{"small group", "tuition", "workshop"}},
			{Trigger: "advanced", Terms: []string{"intermediate", "masterclass", "next level"}},
			{Trigger: "equipment", Terms: []string{"camera", "lens", "gear", "kit"}},
			{Trigger: "beginner", Terms: []string{"introduction", "basics", "fundamentals"}},
			{Trigger: "holiday", Terms: []string{"residential", "tour", "break"}},
		},
		Phrases: []PhraseRule{
			{Triggers: []string{"group", "workshop"}, Phrase: "photography workshop residential multi day"},
			{Triggers: []string{"private", "tuition"}, Phrase: "one to one photography tuition"},
			{Triggers: []string{"stay", "bnb"}, Phrase: "photography break bnb accommodation"},
			{Triggers: []string{"gift", "voucher"}, Phrase: "photography course gift voucher"},
		},
	}
}
