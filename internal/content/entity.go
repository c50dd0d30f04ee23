package content

import (
	"strings"
	"time"
)

// Kind classifies a piece of site content.
type Kind string

const (
	KindArticle Kind = "article"
	KindEvent   Kind = "event"
	KindProduct Kind = "product"
	KindService Kind = "service"
	KindLanding Kind = "landing"
)

// AllKinds lists every content kind, in the order candidate fetches are issued.
var AllKinds = []Kind{KindArticle, KindEvent, KindProduct, KindService, KindLanding}

// ParseKind returns the Kind for s, or false if s is not a known kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindArticle:
		return KindArticle, true
	case KindEvent:
		return KindEvent, true
	case KindProduct:
		return KindProduct, true
	case KindService:
		return KindService, true
	case KindLanding:
		return KindLanding, true
	}
	return "", false
}

// Entity is a piece of site content: an advice article, a scheduled
// event/course, a product, a service page, or a landing page. Entities are
// materialized by the ingestion pipelines and read-only for the ranking
// engine.
type Entity struct {
	Kind        Kind
	Title       string
	URL         string // canonical URL, identity key (see CanonicalURL)
	Categories  []string
	Tags        []string
	PublishDate time.Time // zero when the source carried no date
	LastSeen    time.Time
	Raw         string // opaque source payload, kept for citation
}

// CanonicalURL strips trailing slashes and lowercases the URL. Two entities
// with the same canonical URL are the same entity.
func CanonicalURL(url string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(url), "/"))
}

// HasCategory reports whether the entity carries the given category
// (case-insensitive).
func (e Entity) HasCategory(category string) bool {
	for _, c := range e.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// HasCategoryContaining reports whether any of the entity's categories
// contains the given substring (case-insensitive).
func (e Entity) HasCategoryContaining(substr string) bool {
	substr = strings.ToLower(substr)
	for _, c := range e.Categories {
		if strings.Contains(strings.ToLower(c), substr) {
			return true
		}
	}
	return false
}

// EffectiveDate is the date recency bonuses are computed from: the publish
// date when known, the last crawl sighting otherwise.
func (e Entity) EffectiveDate() time.Time {
	if !e.PublishDate.IsZero() {
		return e.PublishDate
	}
	return e.LastSeen
}
