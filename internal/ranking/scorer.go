// Package ranking scores candidate content entities against an extracted
// keyword set and assembles the final ranked result list.
package ranking

import (
	"strings"
	"time"

	"github.com/shutterbot/shutterbot/internal/content"
	"github.com/shutterbot/shutterbot/internal/keyword"
)

// Score is a two-field sort key compared lexicographically: Base carries all
// keyword/category signal, Recency is a bounded tie-breaker. A fresher entity
// can never outrank one with a higher base score.
type Score struct {
	Base    int
	Recency int
}

// Less reports whether s sorts below o (i.e. o ranks higher).
func (s Score) Less(o Score) bool {
	if s.Base != o.Base {
		return s.Base < o.Base
	}
	return s.Recency < o.Recency
}

// ScoredEntity pairs a candidate with its computed score. Ephemeral: built
// during ranking, discarded once the ranked slice is returned.
type ScoredEntity struct {
	Entity content.Entity
	Score  Score
}

// Scoring weights. These are tuned against the live site's content and move
// together: the equipment penalty must exceed the curriculum boost plus the
// largest concept boost so a gated-out entity cannot claw its way back.
const (
	titleKeywordWeight   = 3
	urlKeywordWeight     = 1
	equipmentGatePenalty = 50
	curriculumBoost      = 25
	conceptTitlePrefix   = 20
	conceptTitleAnywhere = 10
	conceptURLSlugPath   = 12
	conceptURLSlug       = 3
	genericPenalty       = 12
	tipsBoost            = 5
)

// coreConcepts are the curriculum topics that earn category and
// concept-specific boosts when present in the keyword set.
var coreConcepts = []string{
	"iso", "aperture", "shutter speed", "white balance", "depth of field",
	"metering", "exposure", "composition", "macro", "landscape", "portrait",
	"street", "wildlife", "raw", "jpeg", "hdr", "focal length",
	"long exposure",
}

// genericMarkers demote boilerplate/changelog content relative to
// substantive explainers.
var genericMarkers = []string{"lightroom", "what's new", "whats-new", "release notes"}

const (
	curriculumCategory = "photography course"
	tipsCategory       = "photography-tips"
)

// Scorer computes relevance scores. The zero value is not usable; construct
// with NewScorer.
type Scorer struct {
	now func() time.Time
}

// NewScorer returns a Scorer using the real clock.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// NewScorerAt returns a Scorer with a fixed clock, for tests.
func NewScorerAt(now func() time.Time) *Scorer {
	return &Scorer{now: now}
}

// Score computes the relevance score of one entity for the given keyword
// sets. Pure apart from the clock used by the recency tie-breaker.
func (s *Scorer) Score(e content.Entity, keywords, equipment keyword.Set) Score {
	title := strings.ToLower(e.Title)
	url := strings.ToLower(e.URL)

	base := 0

	// Equipment gate: a gear-related query demotes entities whose title and
	// URL never mention the gear. Demoted, not excluded: the assembler may
	// still need them if filtering would empty the results.
	gateFailed := false
	if len(equipment) > 0 && !matchesAny(title, url, equipment) {
		base -= equipmentGatePenalty
		gateFailed = true
	}

	for kw := range keywords {
		if strings.Contains(title, kw) {
			base += titleKeywordWeight
		}
		if strings.Contains(url, kw) {
			base += urlKeywordWeight
		}
	}

	conceptMatched := false
	for _, concept := range coreConcepts {
		if !keywords.Has(concept) {
			continue
		}
		conceptMatched = true

		phrase := "what is " + concept
		if strings.HasPrefix(title, phrase) {
			base += conceptTitlePrefix
		} else if strings.Contains(title, phrase) {
			base += conceptTitleAnywhere
		}

		slug := strings.ReplaceAll(concept, " ", "-")
		if strings.Contains(url, "/what-is-"+slug) {
			base += conceptURLSlugPath
		} else if strings.Contains(url, slug) {
			base += conceptURLSlug
		}
	}

	// Curriculum boost. Suppressed when the equipment gate failed:
	// without the suppression a gated-out curriculum page can still
	// outrank a directly on-topic entity on the category bonus alone.
	if conceptMatched && !gateFailed && e.HasCategoryContaining(curriculumCategory) {
		base += curriculumBoost
	}

	for _, marker := range genericMarkers {
		if strings.Contains(title, marker) || strings.Contains(url, marker) {
			base -= genericPenalty
			break
		}
	}

	if conceptMatched && hasTag(e, tipsCategory) {
		base += tipsBoost
	}

	return Score{Base: base, Recency: s.recencyBonus(e)}
}

// recencyBonus is bounded at 20 and only ever breaks ties between equal
// base scores.
func (s *Scorer) recencyBonus(e content.Entity) int {
	date := e.EffectiveDate()
	if date.IsZero() {
		return 0
	}
	days := int(s.now().Sub(date).Hours() / 24)
	switch {
	case days <= 7:
		return 20
	case days <= 30:
		return 10
	case days <= 90:
		return 5
	}
	return 0
}

func matchesAny(title, url string, terms keyword.Set) bool {
	for term := range terms {
		if strings.Contains(title, term) || strings.Contains(url, term) {
			return true
		}
	}
	return false
}

func hasTag(e content.Entity, tag string) bool {
	if e.HasCategory(tag) {
		return true
	}
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
