package ranking

import (
	"testing"
	"time"

	"github.com/shutterbot/shutterbot/internal/content"
	"github.com/shutterbot/shutterbot/internal/keyword"
)

var testNow = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func testScorer() *Scorer {
	return NewScorerAt(func() time.Time { return testNow })
}

func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func TestScore_TitleAndURLKeywords(t *testing.T) {
	s := testScorer()
	e := content.Entity{
		Title: "Aperture basics for beginners",
		URL:   "https://example.com/blog/aperture-basics",
	}
	keywords := keyword.NewSet("aperture", "basics")

	got := s.Score(e, keywords, keyword.Set{})
	// aperture: +3 title, +1 URL; basics: +3 title, +1 URL; concept
	// "aperture" matched: URL contains slug "aperture" → +3.
	if got.Base != 11 {
		t.Errorf("Base = %d, want 11", got.Base)
	}
}

func TestScore_EquipmentGatePenalty(t *testing.T) {
	s := testScorer()
	equipment := keyword.NewSet("tripod")

	miss := content.Entity{Title: "Spring newsletter", URL: "https://example.com/news/spring"}
	hit := content.Entity{Title: "Choosing a tripod", URL: "https://example.com/blog/choosing-a-tripod"}

	missScore := s.Score(miss, keyword.NewSet("tripod"), equipment)
	hitScore := s.Score(hit, keyword.NewSet("tripod"), equipment)

	if missScore.Base != -equipmentGatePenalty {
		t.Errorf("gated entity Base = %d, want %d", missScore.Base, -equipmentGatePenalty)
	}
	if !missScore.Less(hitScore) {
		t.Errorf("gated entity outranked matching one: %+v vs %+v", missScore, hitScore)
	}
}

// Gate failure must suppress the curriculum boost, otherwise an off-topic
// curriculum page can outrank a directly on-topic entity.
func TestScore_GateSuppressesCurriculumBoost(t *testing.T) {
	s := testScorer()
	gated := content.Entity{
		Title:      "Module 3 homework",
		URL:        "https://example.com/course/module-3",
		Categories: []string{"Online Photography Course"},
	}
	keywords := keyword.NewSet("white balance", "camera")
	equipment := keyword.NewSet("white balance", "camera")

	got := s.Score(gated, keywords, equipment)
	// Penalty only: no keyword hits, and the +25 must not apply.
	if got.Base != -equipmentGatePenalty {
		t.Errorf("Base = %d, want %d (curriculum boost must be suppressed)", got.Base, -equipmentGatePenalty)
	}
}

func TestScore_ConceptBoosts(t *testing.T) {
	s := testScorer()
	keywords := keyword.NewSet("iso")

	tests := []struct {
		name  string
		title string
		url   string
		want  int
	}{
		{
			name:  "title prefix and slug path",
			title: "What is ISO in photography",
			url:   "https://example.com/blog/what-is-iso",
			// iso: +3 title +1 url; prefix +20; /what-is-iso +12
			want: 36,
		},
		{
			name:  "title anywhere and bare slug",
			title: "Beginners guide: what is iso",
			url:   "https://example.com/blog/iso-guide",
			// iso: +3 title +1 url; anywhere +10; slug +3
			want: 17,
		},
		{
			name:  "no concept phrase",
			title: "Exposure triangle",
			url:   "https://example.com/blog/exposure-triangle",
			// iso in neither title nor url
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := content.Entity{Title: tt.title, URL: tt.url}
			if got := s.Score(e, keywords, keyword.Set{}); got.Base != tt.want {
				t.Errorf("Base = %d, want %d", got.Base, tt.want)
			}
		})
	}
}

func TestScore_GenericContentPenalty(t *testing.T) {
	s := testScorer()
	keywords := keyword.NewSet("exposure")

	plain := content.Entity{Title: "Understanding exposure", URL: "https://example.com/blog/understanding-exposure"}
	generic := content.Entity{Title: "What's new in Lightroom: exposure tools", URL: "https://example.com/blog/lightroom-update"}

	plainScore := s.Score(plain, keywords, keyword.Set{})
	genericScore := s.Score(generic, keywords, keyword.Set{})

	if !genericScore.Less(plainScore) {
		t.Errorf("generic content not demoted: %+v vs %+v", genericScore, plainScore)
	}
}

func TestScore_TipsBoostRequiresConcept(t *testing.T) {
	s := testScorer()
	e := content.Entity{
		Title:      "Ten composition tips",
		URL:        "https://example.com/blog/composition-tips",
		Categories: []string{"photography-tips"},
	}

	withConcept := s.Score(e, keyword.NewSet("composition"), keyword.Set{})
	withoutConcept := s.Score(e, keyword.NewSet("tips"), keyword.Set{})

	// composition: +3 title +1 url, slug +3, tips +5 = 12; tips keyword: +3 title +1 url = 4.
	if withConcept.Base != 12 {
		t.Errorf("Base with concept = %d, want 12", withConcept.Base)
	}
	if withoutConcept.Base != 4 {
		t.Errorf("Base without concept = %d, want 4", withoutConcept.Base)
	}
}

func TestRecencyBonusBuckets(t *testing.T) {
	s := testScorer()
	tests := []struct {
		age  int
		want int
	}{
		{0, 20}, {7, 20}, {8, 10}, {30, 10}, {31, 5}, {90, 5}, {91, 0}, {400, 0},
	}
	for _, tt := range tests {
		e := content.Entity{PublishDate: daysAgo(tt.age)}
		if got := s.Score(e, keyword.Set{}, keyword.Set{}); got.Recency != tt.want {
			t.Errorf("age %dd: Recency = %d, want %d", tt.age, got.Recency, tt.want)
		}
	}

	// No date at all: no bonus.
	if got := s.Score(content.Entity{}, keyword.Set{}, keyword.Set{}); got.Recency != 0 {
		t.Errorf("undated entity Recency = %d, want 0", got.Recency)
	}
}

// Recency is a tie-breaker only: a maximal recency bonus must never lift an
// entity over one with a higher base score.
func TestScore_RecencyNeverBeatsBase(t *testing.T) {
	higher := Score{Base: 100, Recency: 0}
	lower := Score{Base: 90, Recency: 20}
	if higher.Less(lower) {
		t.Errorf("recency bonus overrode base score: %+v vs %+v", lower, higher)
	}
	if !lower.Less(higher) {
		t.Errorf("lower base should sort below: %+v vs %+v", lower, higher)
	}

	// Equal base: recency decides.
	older := Score{Base: 50, Recency: 5}
	newer := Score{Base: 50, Recency: 20}
	if !older.Less(newer) {
		t.Errorf("recency should break the tie: %+v vs %+v", older, newer)
	}
}

// The worked example from the site content: a curriculum explainer must
// outrank an assignment page lacking the curriculum categories, regardless
// of publish dates.
func TestScore_DepthOfFieldExample(t *testing.T) {
	s := testScorer()
	keywords := keyword.NewSet("depth of field", "depth", "field")
	equipment := keyword.NewSet("depth of field")

	explainer := content.Entity{
		Title:       "09 What is DEPTH OF FIELD in Photography: A Beginners Guide",
		URL:         "https://example.com/course/what-is-depth-of-field-in-photography",
		Categories:  []string{"online photography course", "photography-tips"},
		PublishDate: daysAgo(200),
	}
	assignment := content.Entity{
		Title:       "Aperture and Depth of Field Photography Assignment",
		URL:         "https://example.com/assignments/aperture-depth-of-field",
		PublishDate: daysAgo(2), // fresher, must not matter
	}

	exScore := s.Score(explainer, keywords, equipment)
	asScore := s.Score(assignment, keywords, equipment)

	if !asScore.Less(exScore) {
		t.Errorf("assignment outranked curriculum explainer: %+v vs %+v", asScore, exScore)
	}
}
