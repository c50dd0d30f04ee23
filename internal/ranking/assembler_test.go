package ranking

import (
	"testing"

	"github.com/shutterbot/shutterbot/internal/content"
	"github.com/shutterbot/shutterbot/internal/keyword"
)

func TestAssemble_DedupeByCanonicalURL(t *testing.T) {
	s := testScorer()
	candidates := []content.Entity{
		{Title: "First", URL: "https://example.com/blog/iso/"},
		{Title: "Duplicate", URL: "https://example.com/blog/iso"},
		{Title: "Other", URL: "https://example.com/blog/aperture"},
	}

	got := s.Assemble(candidates, keyword.Set{}, keyword.Set{}, 10)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, se := range got {
		if se.Entity.Title == "Duplicate" {
			t.Error("later duplicate kept instead of first occurrence")
		}
	}
}

func TestAssemble_SortsDescending(t *testing.T) {
	s := testScorer()
	keywords := keyword.NewSet("aperture")
	candidates := []content.Entity{
		{Title: "Unrelated", URL: "https://example.com/a"},
		{Title: "What is aperture", URL: "https://example.com/what-is-aperture"},
		{Title: "Aperture mentioned once", URL: "https://example.com/b"},
	}

	got := s.Assemble(candidates, keywords, keyword.Set{}, 10)
	for i := 1; i < len(got); i++ {
		if got[i-1].Score.Less(got[i].Score) {
			t.Fatalf("not sorted descending at %d: %+v", i, got)
		}
	}
	if got[0].Entity.Title != "What is aperture" {
		t.Errorf("best match = %q", got[0].Entity.Title)
	}
}

func TestAssemble_EquipmentFilter(t *testing.T) {
	s := testScorer()
	equipment := keyword.NewSet("tripod")
	candidates := []content.Entity{
		{Title: "Choosing a tripod", URL: "https://example.com/tripod-guide"},
		{Title: "Spring newsletter", URL: "https://example.com/news"},
	}

	got := s.Assemble(candidates, keyword.NewSet("tripod"), equipment, 10)
	if len(got) != 1 || got[0].Entity.Title != "Choosing a tripod" {
		t.Errorf("equipment filter not applied: %+v", got)
	}
}

// If the equipment filter would remove every candidate, it is discarded:
// the unfiltered score-sorted list comes back instead of nothing.
func TestAssemble_EquipmentFilterFallback(t *testing.T) {
	s := testScorer()
	equipment := keyword.NewSet("drone")
	candidates := []content.Entity{
		{Title: "Spring newsletter", URL: "https://example.com/news"},
		{Title: "Autumn colours gallery", URL: "https://example.com/gallery"},
	}

	got := s.Assemble(candidates, keyword.NewSet("drone"), equipment, 10)
	if len(got) != 2 {
		t.Fatalf("fallback not applied, len = %d, want 2", len(got))
	}
}

func TestAssemble_Truncates(t *testing.T) {
	s := testScorer()
	candidates := []content.Entity{
		{Title: "a", URL: "https://example.com/a"},
		{Title: "b", URL: "https://example.com/b"},
		{Title: "c", URL: "https://example.com/c"},
	}
	got := s.Assemble(candidates, keyword.Set{}, keyword.Set{}, 2)
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

// Assembling the same candidate list twice yields the same order.
func TestAssemble_Idempotent(t *testing.T) {
	s := testScorer()
	keywords := keyword.NewSet("landscape", "workshop")
	candidates := []content.Entity{
		{Title: "Landscape workshop", URL: "https://example.com/w1"},
		{Title: "Landscape masterclass", URL: "https://example.com/w2"},
		{Title: "Workshop calendar", URL: "https://example.com/w3"},
		{Title: "Landscape workshop", URL: "https://example.com/w1/"},
	}

	first := s.Assemble(candidates, keywords, keyword.Set{}, 10)
	second := s.Assemble(candidates, keywords, keyword.Set{}, 10)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Entity.URL != second[i].Entity.URL {
			t.Errorf("order differs at %d: %q vs %q", i, first[i].Entity.URL, second[i].Entity.URL)
		}
	}
}
