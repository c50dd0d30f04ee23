// Package pipeline orchestrates a full query turn: normalization, keyword
// extraction, intent classification, clarification, candidate fetching, and
// relevance ranking.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shutterbot/shutterbot/internal/clarify"
	"github.com/shutterbot/shutterbot/internal/content"
	"github.com/shutterbot/shutterbot/internal/intent"
	"github.com/shutterbot/shutterbot/internal/keyword"
	"github.com/shutterbot/shutterbot/internal/normalize"
	"github.com/shutterbot/shutterbot/internal/ranking"
)

// ContentStore supplies candidate entities per content kind. Implemented by
// the SQLite store; tests use in-memory fakes.
type ContentStore interface {
	FetchCandidates(ctx context.Context, kind content.Kind, keywords []string) ([]content.Entity, error)
}

// Query is one inbound visitor turn.
type Query struct {
	RawText       string
	SessionID     string
	PreviousQuery string // set on follow-up turns after a clarification
	PageContext   string // opaque caller-supplied hint
}

// Response is the outcome of a turn: either ranked results or a
// clarification prompt.
type Response struct {
	Intent        intent.Intent
	Clarification *clarify.State         // non-nil when the visitor must disambiguate
	Results       []ranking.ScoredEntity // ranked entities, nil when clarifying
	// Unresolved is set when PreviousQuery indicated a follow-up turn but
	// the reply matched no clarification option or remap rule. The reply
	// was then handled as a fresh query; callers may prefer to re-prompt.
	Unresolved bool
}

// kindsByIntent maps each direct intent to the content kinds worth
// fetching. Intents absent from the map fetch every kind.
var kindsByIntent = map[intent.Intent][]content.Kind{
	intent.WorkshopEvent: {content.KindEvent, content.KindProduct},
	intent.ContactPolicy: {content.KindService, content.KindLanding},
	intent.DirectAnswer:  {content.KindArticle, content.KindService},
}

const defaultFetchTimeout = 3 * time.Second

// Engine is the query understanding and ranking engine. The single entry
// point is ClassifyAndRank.
type Engine struct {
	normalizer   *normalize.Normalizer
	extractor    *keyword.Extractor
	scorer       *ranking.Scorer
	store        ContentStore
	fetchTimeout time.Duration
	maxResults   int
	logger       *slog.Logger
}

// New creates an Engine with production vocabularies. maxResults caps the
// ranked list (default 5 if <= 0).
func New(store ContentStore, maxResults int, fetchTimeout time.Duration) *Engine {
	if maxResults <= 0 {
		maxResults = 5
	}
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &Engine{
		normalizer:   normalize.Default(),
		extractor:    keyword.Default(),
		scorer:       ranking.NewScorer(),
		store:        store,
		fetchTimeout: fetchTimeout,
		maxResults:   maxResults,
		logger:       slog.Default(),
	}
}

// ClassifyAndRank runs a full turn. It never returns an error: every
// component degrades. Classification falls back to default clarification,
// failed fetches contribute empty candidate lists, and an unresolvable
// follow-up is surfaced via Response.Unresolved rather than failing.
func (e *Engine) ClassifyAndRank(ctx context.Context, q Query) Response {
	raw := q.RawText
	detected := intent.Classify(raw)
	unresolved := false

	// Follow-up turn: try to resolve the reply against the clarification
	// that the previous query would have produced.
	if q.PreviousQuery != "" {
		if prev := intent.Classify(q.PreviousQuery); prev.NeedsClarification() {
			state := clarify.Generate(q.PreviousQuery)
			if res, ok := clarify.ResolveFollowup(q.RawText, state); ok {
				raw = res.Query
				detected = res.Intent
			} else {
				// No match: the reply is handled as a fresh query, and the
				// caller is told resolution failed so it can re-prompt
				// instead of silently guessing.
				unresolved = true
			}
		}
	}

	if detected.NeedsClarification() {
		state := clarify.Generate(raw)
		e.logger.Debug("clarification required", "intent", detected, "type", state.Type)
		return Response{Intent: detected, Clarification: &state, Unresolved: unresolved}
	}

	keywords, equipment := e.extractor.Extract(e.normalizer.Normalize(raw))
	candidates := e.fetchCandidates(ctx, detected, keywords)
	results := e.scorer.Assemble(candidates, keywords, equipment, e.maxResults)

	e.logger.Debug("query ranked",
		"intent", detected,
		"keywords", len(keywords),
		"candidates", len(candidates),
		"results", len(results),
	)

	return Response{Intent: detected, Results: results, Unresolved: unresolved}
}

// fetchCandidates issues one fetch per content kind, concurrently when the
// intent does not narrow the kind to a single one. Each fetch is isolated: a
// failure or timeout yields an empty list for that kind only.
func (e *Engine) fetchCandidates(ctx context.Context, detected intent.Intent, keywords keyword.Set) []content.Entity {
	kinds, ok := kindsByIntent[detected]
	if !ok {
		kinds = content.AllKinds
	}
	kwList := keywords.Sorted()

	perKind := make([][]content.Entity, len(kinds))
	g, gCtx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gCtx, e.fetchTimeout)
			defer cancel()

			entities, err := e.store.FetchCandidates(fetchCtx, kind, kwList)
			if err != nil {
				// Partial-result degradation: log and move on.
				e.logger.Warn("candidate fetch failed", "kind", kind, "error", err)
				return nil
			}
			perKind[i] = entities
			return nil
		})
	}
	// Fetch errors never surface: each one was consumed above.
	_ = g.Wait()

	var all []content.Entity
	for _, entities := range perKind {
		all = append(all, entities...)
	}
	return all
}
