// Package intent assigns one discrete intent to a raw visitor query using a
// strict priority cascade of pattern groups. Classification is a pure
// function of the query text: no store lookups, no session state.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the discrete category assigned to a query. It decides which
// content kinds are fetched and whether the visitor is asked to clarify.
type Intent string

const (
	CourseClarification  Intent = "course_clarification"
	ContactPolicy        Intent = "contact_policy"
	WorkshopEvent        Intent = "workshop_event"
	DirectAnswer         Intent = "direct_answer"
	BroadClarification   Intent = "broad_clarification"
	DefaultClarification Intent = "default_clarification"
)

// NeedsClarification reports whether the intent requires a clarification
// turn before content can be ranked.
func (i Intent) NeedsClarification() bool {
	switch i {
	case CourseClarification, BroadClarification, DefaultClarification:
		return true
	}
	return false
}

// tierPattern is one row of the priority table. Lower tiers win: evaluation
// walks the table in order and stops at the first match, independent of how
// specific or long the pattern is.
type tierPattern struct {
	tier    int
	pattern *regexp.Regexp
	intent  Intent
}

// The priority table. Ordering is load-bearing: many real queries match
// several groups at once ("what equipment do I need to bring to a workshop"
// hits both the contact-policy and the workshop group), and tier order is
// the only mechanism that resolves such overlaps deterministically. New
// patterns must be added to the correct tier, never appended at the end.
var patterns = compile([]rawPattern{
	// Tier 1: explicit course-catalogue questions.
	{1, `what (courses|classes|workshops) (do you|are) (offer|run|have|available)`, CourseClarification},
	{1, `^(courses|classes)[?!.]*$`, CourseClarification},
	{1, `tell me about your (courses|classes|workshops)`, CourseClarification},

	// Tier 2: booking, cancellation, and logistics questions. These must
	// bypass the generic workshop group even though most of them contain
	// the word "workshop" or "course".
	{2, `(cancel|cancellation|refund|rearrange|reschedule)`, ContactPolicy},
	{2, `(book|booking|reserve|deposit|pay|payment|price|cost|how much)`, ContactPolicy},
	{2, `(minimum age|age limit|old enough|how old|under 18|under 16)`, ContactPolicy},
	{2, `certificate`, ContactPolicy},
	{2, `(gift voucher|voucher)`, ContactPolicy},
	{2, `(what (should|do) i (bring|wear)|what to bring|need to bring|need to take)`, ContactPolicy},
	{2, `(parking|directions|how do i get there|where are you based|where (is|are) (it|the workshop|the course) held)`, ContactPolicy},
	{2, `(contact|phone|ring|email) you`, ContactPolicy},
	{2, `(bad weather|weather|postponed)`, ContactPolicy},
	{2, `(fitness|walking|accessib)`, ContactPolicy},

	// Tier 3: workshops, courses, and the events calendar.
	{3, `(workshop|course|class|training|masterclass|tuition)`, WorkshopEvent},
	{3, `(upcoming|calendar|dates|next event|this (spring|summer|autumn|winter))`, WorkshopEvent},
	{3, `(bluebell|autumn colour|dark skies)`, WorkshopEvent},

	// Tier 4: questions answerable immediately, without clarification.
	{4, `what is (iso|aperture|shutter speed|white balance|depth of field|exposure|composition|metering|focal length|hdr)`, DirectAnswer},
	{4, `how (do|to|can) i`, DirectAnswer},
	{4, `(explain|difference between)`, DirectAnswer},
	{4, `(recommend|best|which) (camera|lens|tripod|filter|bag|drone|kit)`, DirectAnswer},
	{4, `what (camera|lens|tripod|filter) (should|do)`, DirectAnswer},
	{4, `(who are you|about (you|your business|the business)|how long have you been)`, DirectAnswer},
	{4, `(opening hours|where do you (teach|operate))`, DirectAnswer},

	// Tier 5: too broad to answer directly, but the topic is recognizable.
	{5, `^photography (services|equipment|advice|help|lessons)[?!.]*$`, BroadClarification},
	{5, `^(equipment|gear|advice|help)[?!.]*$`, BroadClarification},
	{5, `(looking for|interested in) photography`, BroadClarification},
})

type rawPattern struct {
	tier   int
	expr   string
	intent Intent
}

func compile(raws []rawPattern) []tierPattern {
	out := make([]tierPattern, len(raws))
	for i, r := range raws {
		out[i] = tierPattern{tier: r.tier, pattern: regexp.MustCompile(r.expr), intent: r.intent}
	}
	return out
}

// Classify assigns an intent to the raw query. Total function: empty or
// whitespace-only input classifies as DefaultClarification, never an error.
func Classify(raw string) Intent {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return DefaultClarification
	}
	for _, p := range patterns {
		if p.pattern.MatchString(text) {
			return p.intent
		}
	}
	return DefaultClarification
}
