package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shutterbot/shutterbot/internal/clarify"
	"github.com/shutterbot/shutterbot/internal/content"
	"github.com/shutterbot/shutterbot/internal/ingest"
	"github.com/shutterbot/shutterbot/internal/pipeline"
	"github.com/shutterbot/shutterbot/internal/ranking"
	"github.com/shutterbot/shutterbot/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxIngestBodySize = 10 << 20 // 10MB

type AppDeps struct {
	Store  *storage.Store
	Engine *pipeline.Engine
}

// NewHandler returns the REST API handler.
func NewHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/v1/ask", handleAsk(deps))
	r.Post("/ingest", handleIngest(deps))
	r.Get("/entities", handleListEntities(deps))
	r.Get("/interactions", handleListInteractions(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type AskRequest struct {
	Query         string `json:"query"`
	SessionID     string `json:"session_id"`
	PreviousQuery string `json:"previous_query"`
	PageContext   string `json:"page_context"`
}

type AskResponse struct {
	Intent        string         `json:"intent"`
	Clarification *Clarification `json:"clarification,omitempty"`
	Results       []Result       `json:"results,omitempty"`
	Unresolved    bool           `json:"unresolved,omitempty"`
}

type Clarification struct {
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Kind        string `json:"kind"`
	Score       int    `json:"score"`
	RecencyRank int    `json:"recency_rank"`
}

func handleAsk(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "query is required")
			return
		}

		resp := deps.Engine.ClassifyAndRank(r.Context(), pipeline.Query{
			RawText:       req.Query,
			SessionID:     req.SessionID,
			PreviousQuery: req.PreviousQuery,
			PageContext:   req.PageContext,
		})

		interaction := storage.Interaction{
			ID:            uuid.New().String(),
			CreatedAt:     time.Now().UTC(),
			SessionID:     req.SessionID,
			Query:         req.Query,
			Intent:        string(resp.Intent),
			ResultCount:   len(resp.Results),
			Clarification: resp.Clarification != nil,
		}
		if err := deps.Store.SaveInteraction(interaction); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to record interaction: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(toAskResponse(resp))
	}
}

func toAskResponse(resp pipeline.Response) AskResponse {
	out := AskResponse{
		Intent:     string(resp.Intent),
		Unresolved: resp.Unresolved,
	}
	if resp.Clarification != nil {
		out.Clarification = toClarification(*resp.Clarification)
	}
	for _, se := range resp.Results {
		out.Results = append(out.Results, toResult(se))
	}
	return out
}

func toClarification(st clarify.State) *Clarification {
	c := &Clarification{Type: st.Type, Question: st.Question}
	for _, opt := range st.Options {
		c.Options = append(c.Options, opt.Label)
	}
	return c
}

func toResult(se ranking.ScoredEntity) Result {
	return Result{
		Title:       se.Entity.Title,
		URL:         se.Entity.URL,
		Kind:        string(se.Entity.Kind),
		Score:       se.Score.Base,
		RecencyRank: se.Score.Recency,
	}
}

type IngestRequest struct {
	Type      string `json:"type"` // "csv", "url" or "pdf"
	CSV       string `json:"csv,omitempty"`
	URL       string `json:"url,omitempty"`
	Path      string `json:"path,omitempty"`
	Title     string `json:"title,omitempty"`
	TargetURL string `json:"target_url,omitempty"`
}

func handleIngest(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxIngestBodySize)
		defer r.Body.Close()

		var req IngestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		var jobType string
		payload := ingest.Payload{
			CSV:       req.CSV,
			URL:       req.URL,
			Path:      req.Path,
			Title:     req.Title,
			TargetURL: req.TargetURL,
		}
		switch req.Type {
		case "csv":
			if req.CSV == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "csv content is required")
				return
			}
			jobType = ingest.JobTypeCSV
		case "url":
			if req.URL == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "url is required")
				return
			}
			jobType = ingest.JobTypeURL
		case "pdf":
			if req.Path == "" || req.TargetURL == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "path and target_url are required")
				return
			}
			jobType = ingest.JobTypePDF
		default:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "type must be one of csv, url, pdf")
			return
		}

		body, err := json.Marshal(payload)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create job payload: %v", err)
			return
		}
		job := storage.Job{
			ID:          uuid.New().String(),
			Type:        jobType,
			PayloadJSON: string(body),
		}
		if err := deps.Store.EnqueueJob(job); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to enqueue job: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":     job.ID,
			"status": "queued",
		})
	}
}

func handleListEntities(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		kind := content.Kind("")
		if s := r.URL.Query().Get("kind"); s != "" {
			k, ok := content.ParseKind(s)
			if !ok {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown kind %q", s)
				return
			}
			kind = k
		}

		entities, err := deps.Store.ListEntities(r.Context(), kind, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list entities: %v", err)
			return
		}
		if entities == nil {
			entities = []content.Entity{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entities)
	}
}

func handleListInteractions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		interactions, err := deps.Store.GetRecentInteractions(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list interactions: %v", err)
			return
		}
		if interactions == nil {
			interactions = []storage.Interaction{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interactions)
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
