package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shutterbot/shutterbot/internal/content"
	"github.com/shutterbot/shutterbot/internal/pipeline"
	"github.com/shutterbot/shutterbot/internal/storage"
)

func setupHandler(t *testing.T) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine := pipeline.New(store, 5, time.Second)
	handler := NewHandler(AppDeps{Store: store, Engine: engine})
	return handler, store
}

func seedEntity(t *testing.T, store *storage.Store, e content.Entity) {
	t.Helper()
	if e.LastSeen.IsZero() {
		e.LastSeen = time.Now().UTC()
	}
	if err := store.UpsertEntity(e); err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}
}

func postJSON(t *testing.T, h http.Handler, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h, _ := setupHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestAsk_DirectAnswer(t *testing.T) {
	h, store := setupHandler(t)
	seedEntity(t, store, content.Entity{
		Kind:  content.KindArticle,
		Title: "Understanding Aperture",
		URL:   "https://example.com/blog/understanding-aperture",
	})

	rr := postJSON(t, h, "/v1/ask", `{"query":"what is aperture","session_id":"s1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var resp AskResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Intent != "direct_answer" {
		t.Errorf("intent = %q, want direct_answer", resp.Intent)
	}
	if len(resp.Results) != 1 || resp.Results[0].URL != "https://example.com/blog/understanding-aperture" {
		t.Errorf("results = %+v", resp.Results)
	}
	if resp.Clarification != nil {
		t.Errorf("unexpected clarification: %+v", resp.Clarification)
	}

	// The turn must be recorded.
	interactions, err := store.GetRecentInteractions(10)
	if err != nil {
		t.Fatalf("GetRecentInteractions: %v", err)
	}
	if len(interactions) != 1 || interactions[0].Query != "what is aperture" {
		t.Errorf("interactions = %+v", interactions)
	}
	if interactions[0].SessionID != "s1" || interactions[0].ResultCount != 1 {
		t.Errorf("interaction = %+v", interactions[0])
	}
}

func TestAsk_Clarification(t *testing.T) {
	h, store := setupHandler(t)

	rr := postJSON(t, h, "/v1/ask", `{"query":"photography equipment"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var resp AskResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Clarification == nil {
		t.Fatalf("expected clarification, got %+v", resp)
	}
	if len(resp.Clarification.Options) == 0 {
		t.Error("clarification has no options")
	}
	if len(resp.Results) != 0 {
		t.Errorf("results = %+v, want none while clarifying", resp.Results)
	}

	interactions, err := store.GetRecentInteractions(10)
	if err != nil {
		t.Fatalf("GetRecentInteractions: %v", err)
	}
	if len(interactions) != 1 || !interactions[0].Clarification {
		t.Errorf("interactions = %+v", interactions)
	}
}

func TestAsk_EmptyQuery(t *testing.T) {
	h, _ := setupHandler(t)

	rr := postJSON(t, h, "/v1/ask", `{"query":"   "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAsk_InvalidBody(t *testing.T) {
	h, _ := setupHandler(t)

	rr := postJSON(t, h, "/v1/ask", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestIngest_CSV(t *testing.T) {
	h, store := setupHandler(t)

	body := `{"type":"csv","csv":"title,url,kind\nWhat is ISO,https://example.com/blog/what-is-iso,article\n"}`
	rr := postJSON(t, h, "/ingest", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["status"] != "queued" || resp["id"] == "" {
		t.Fatalf("response = %v", resp)
	}

	job, err := store.ClaimNextJob([]string{"ingest_csv"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if job == nil || job.ID != resp["id"] {
		t.Errorf("job = %+v, want id %s", job, resp["id"])
	}
}

func TestIngest_UnknownType(t *testing.T) {
	h, _ := setupHandler(t)

	rr := postJSON(t, h, "/ingest", `{"type":"ftp","url":"ftp://example.com"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestIngest_MissingPayload(t *testing.T) {
	h, _ := setupHandler(t)

	rr := postJSON(t, h, "/ingest", `{"type":"url"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListEntities(t *testing.T) {
	h, store := setupHandler(t)
	seedEntity(t, store, content.Entity{
		Kind:  content.KindEvent,
		Title: "Bluebell Woodland Workshop",
		URL:   "https://example.com/events/bluebell",
	})
	seedEntity(t, store, content.Entity{
		Kind:  content.KindArticle,
		Title: "What is ISO",
		URL:   "https://example.com/blog/what-is-iso",
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/entities?kind=event", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var entities []content.Entity
	if err := json.NewDecoder(rr.Body).Decode(&entities); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(entities) != 1 || entities[0].Kind != content.KindEvent {
		t.Errorf("entities = %+v", entities)
	}
}

func TestListEntities_UnknownKind(t *testing.T) {
	h, _ := setupHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/entities?kind=widget", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListInteractions_Empty(t *testing.T) {
	h, _ := setupHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/interactions", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	body, _ := io.ReadAll(rr.Body)
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}
