package normalize

import (
	"regexp"
	"strings"
	"testing"
)

func TestNormalize_Lowercase(t *testing.T) {
	n := New(Rules{})
	if got := n.Normalize("  What Is ISO?  "); got != "what is iso?" {
		t.Errorf("Normalize() = %q", got)
	}
}

func TestNormalize_Empty(t *testing.T) {
	n := Default()
	if got := n.Normalize(""); got != "" {
		t.Errorf("Normalize(\"\") = %q, want empty", got)
	}
	if got := n.Normalize("   "); got != "" {
		t.Errorf("Normalize(whitespace) = %q, want empty", got)
	}
}

func TestNormalize_BnBVariants(t *testing.T) {
	n := Default()
	tests := []string{
		"do you run a b&b",
		"do you run a B & B",
		"do you run a bed and breakfast",
		"do you run a bed & breakfast",
		"do you run a b and b",
	}
	for _, in := range tests {
		got := n.Normalize(in)
		if !strings.Contains(got, "bnb") {
			t.Errorf("Normalize(%q) = %q, want bnb token", in, got)
		}
		if strings.Contains(got, "breakfast") {
			t.Errorf("Normalize(%q) = %q, variant not collapsed", in, got)
		}
	}
}

func TestNormalize_SynonymAppendsNotReplaces(t *testing.T) {
	rules := Rules{
		Synonyms: []SynonymRule{
			{Trigger: "weekend", Terms: []string{"residential", "two day"}},
		},
	}
	n := New(rules)

	got := n.Normalize("weekend workshop")
	if !strings.Contains(got, "weekend") {
		t.Errorf("trigger word removed: %q", got)
	}
	if !strings.Contains(got, "residential") || !strings.Contains(got, "two day") {
		t.Errorf("synonyms not appended: %q", got)
	}
}

func TestNormalize_PhraseInjection(t *testing.T) {
	rules := Rules{
		Phrases: []PhraseRule{
			{Triggers: []string{"group", "workshop"}, Phrase: "photography workshop residential multi day"},
		},
	}
	n := New(rules)

	got := n.Normalize("do you do group workshop bookings")
	if !strings.Contains(got, "photography workshop residential multi day") {
		t.Errorf("phrase not injected: %q", got)
	}

	// A single trigger must not fire the rule.
	got = n.Normalize("group discounts")
	if strings.Contains(got, "residential multi day") {
		t.Errorf("phrase injected with missing trigger: %q", got)
	}
}

func TestNormalize_UnitRuleFixture(t *testing.T) {
	rules := Rules{
		Units: []UnitRule{
			{Pattern: regexp.MustCompile(`\bcolour\b`), Replacement: "color"},
		},
	}
	n := New(rules)
	if got := n.Normalize("Colour balance"); got != "color balance" {
		t.Errorf("Normalize() = %q", got)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	n := Default()
	const q = "advanced weekend group workshop with equipment hire"
	first := n.Normalize(q)
	for i := 0; i < 5; i++ {
		if got := n.Normalize(q); got != first {
			t.Fatalf("Normalize() not deterministic: %q vs %q", got, first)
		}
	}
}
