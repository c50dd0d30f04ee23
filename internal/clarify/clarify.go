// Package clarify implements the clarification dialogue: when a query is too
// ambiguous to rank content for, the engine asks a disambiguating question
// with a fixed option set, and on the next turn maps the visitor's reply back
// to a concrete query and intent.
package clarify

import (
	"strings"

	"github.com/shutterbot/shutterbot/internal/intent"
)

// Option is one selectable answer in a clarification prompt. Each option
// carries the concrete query and intent the engine re-issues when the
// visitor picks it.
type Option struct {
	Label        string
	MappedQuery  string
	MappedIntent intent.Intent
}

// State is a pending clarification turn.
type State struct {
	Type     string // coarse topic tag the template was selected by
	Question string
	Options  []Option
}

// Resolution is the outcome of a successfully resolved follow-up reply.
type Resolution struct {
	Query  string
	Intent intent.Intent
}

// remapRule routes free-text replies that match no option literally.
// Evaluated top to bottom, first match wins; if two triggers both appear in
// a reply, table order decides.
type remapRule struct {
	trigger string
	query   string
	intent  intent.Intent
}

var remapTable = []remapRule{
	{"online", "online photography courses", intent.DirectAnswer},
	{"bluebell", "bluebell woodland photography events", intent.WorkshopEvent},
	{"beginner", "beginner photography course", intent.WorkshopEvent},
	{"advanced", "advanced photography workshop", intent.WorkshopEvent},
	{"voucher", "photography course gift voucher", intent.ContactPolicy},
	{"gift", "photography course gift voucher", intent.ContactPolicy},
	{"camera", "best camera for beginners", intent.DirectAnswer},
	{"lens", "which lens to buy", intent.DirectAnswer},
	{"tripod", "choosing a tripod", intent.DirectAnswer},
	{"book", "how to book a workshop", intent.ContactPolicy},
	{"price", "workshop prices", intent.ContactPolicy},
}

// Generate selects the clarification prompt and option set for the raw
// query, keyed by the coarse topic present in the text.
func Generate(raw string) State {
	text := strings.ToLower(raw)

	switch {
	case strings.Contains(text, "equipment") || strings.Contains(text, "gear"):
		return State{
			Type:     "equipment",
			Question: "What kind of equipment advice are you after?",
			Options: []Option{
				{"Camera recommendations", "best camera for beginners", intent.DirectAnswer},
				{"Lenses and filters", "which lens to buy", intent.DirectAnswer},
				{"Tripods and supports", "choosing a tripod", intent.DirectAnswer},
				{"What to bring to a workshop", "what to bring to a workshop", intent.ContactPolicy},
			},
		}
	case strings.Contains(text, "course") || strings.Contains(text, "workshop") ||
		strings.Contains(text, "class") || strings.Contains(text, "training") ||
		strings.Contains(text, "event"):
		return State{
			Type:     "training",
			Question: "Which of these are you interested in?",
			Options: []Option{
				{"Beginner courses", "beginner photography course", intent.WorkshopEvent},
				{"Advanced workshops", "advanced photography workshop", intent.WorkshopEvent},
				{"Residential weekends", "residential weekend photography workshop", intent.WorkshopEvent},
				{"Upcoming events", "upcoming photography events", intent.WorkshopEvent},
			},
		}
	default:
		return State{
			Type:     "general",
			Question: "I can help with a few things — which is closest?",
			Options: []Option{
				{"Courses and workshops", "photography courses and workshops", intent.WorkshopEvent},
				{"Advice and tutorials", "photography tips and tutorials", intent.DirectAnswer},
				{"Bookings and vouchers", "how to book a workshop", intent.ContactPolicy},
			},
		}
	}
}

// ResolveFollowup maps the visitor's reply to the previous clarification
// back to a concrete query and intent. It first tries a case-insensitive
// substring match against each option's label and mapped query, then falls
// through to the free-text remap table. The second return value is false
// when nothing matched; callers must treat that as "could not resolve" and
// handle the reply as a fresh query rather than re-asking the same question.
func ResolveFollowup(reply string, prev State) (Resolution, bool) {
	text := strings.ToLower(strings.TrimSpace(reply))
	if text == "" {
		return Resolution{}, false
	}

	for _, opt := range prev.Options {
		label := strings.ToLower(opt.Label)
		mapped := strings.ToLower(opt.MappedQuery)
		if strings.Contains(text, label) || strings.Contains(label, text) ||
			strings.Contains(text, mapped) || strings.Contains(mapped, text) {
			return Resolution{Query: opt.MappedQuery, Intent: opt.MappedIntent}, true
		}
	}

	for _, rule := range remapTable {
		if strings.Contains(text, rule.trigger) {
			return Resolution{Query: rule.query, Intent: rule.intent}, true
		}
	}

	return Resolution{}, false
}
