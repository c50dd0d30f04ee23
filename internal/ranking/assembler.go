package ranking

import (
	"sort"
	"strings"

	"github.com/shutterbot/shutterbot/internal/content"
	"github.com/shutterbot/shutterbot/internal/keyword"
)

// Assemble deduplicates, scores, filters, and ranks candidate entities:
//
//  1. Dedupe by canonical URL, keeping the first occurrence.
//  2. Score every unique candidate and sort descending by (base, recency).
//  3. For gear-related queries, keep only entities whose title or URL
//     mentions an equipment keyword, unless that would remove every
//     candidate, in which case the filter is discarded: an empty result is
//     worse than a loosely matched one.
//  4. Truncate to limit.
func (s *Scorer) Assemble(candidates []content.Entity, keywords, equipment keyword.Set, limit int) []ScoredEntity {
	unique := dedupe(candidates)

	scored := make([]ScoredEntity, len(unique))
	for i, e := range unique {
		scored[i] = ScoredEntity{Entity: e, Score: s.Score(e, keywords, equipment)}
	}

	// Stable sort so equal scores keep first-seen order and repeated
	// assembly of the same candidate list yields the same ranking.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[j].Score.Less(scored[i].Score)
	})

	if len(equipment) > 0 {
		filtered := make([]ScoredEntity, 0, len(scored))
		for _, se := range scored {
			if entityMentionsEquipment(se.Entity, equipment) {
				filtered = append(filtered, se)
			}
		}
		if len(filtered) > 0 {
			scored = filtered
		}
	}

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func dedupe(candidates []content.Entity) []content.Entity {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]content.Entity, 0, len(candidates))
	for _, e := range candidates {
		key := content.CanonicalURL(e.URL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

func entityMentionsEquipment(e content.Entity, equipment keyword.Set) bool {
	return matchesAny(strings.ToLower(e.Title), strings.ToLower(e.URL), equipment)
}
