package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shutterbot/shutterbot/internal/content"
	"github.com/shutterbot/shutterbot/internal/storage"
)

// memQueue is a single-job in-memory JobStore.
type memQueue struct {
	job       *storage.Job
	completed []string
	failed    map[string]string
}

func (q *memQueue) ClaimNextJob(types []string) (*storage.Job, error) {
	j := q.job
	q.job = nil
	return j, nil
}

func (q *memQueue) CompleteJob(id string) error {
	q.completed = append(q.completed, id)
	return nil
}

func (q *memQueue) FailJob(id, errMsg string) error {
	if q.failed == nil {
		q.failed = make(map[string]string)
	}
	q.failed[id] = errMsg
	return nil
}

type memWriter struct {
	mu       sync.Mutex
	entities []content.Entity
}

func (w *memWriter) UpsertEntity(e content.Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities = append(w.entities, e)
	return nil
}

func payloadJSON(t *testing.T, p Payload) string {
	t.Helper()
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestRunOnce_EmptyQueue(t *testing.T) {
	w := NewWorker(&memQueue{}, &memWriter{}, time.Millisecond)
	done, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if done {
		t.Error("done = true for empty queue")
	}
}

func TestRunOnce_CSVJob(t *testing.T) {
	csv := "title,url,kind\nWhat is ISO,https://example.com/blog/what-is-iso,article\n"
	q := &memQueue{job: &storage.Job{
		ID:          "j1",
		Type:        JobTypeCSV,
		PayloadJSON: payloadJSON(t, Payload{CSV: csv}),
	}}
	writer := &memWriter{}
	w := NewWorker(q, writer, time.Millisecond)

	done, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !done {
		t.Fatal("done = false")
	}
	if len(q.completed) != 1 || q.completed[0] != "j1" {
		t.Errorf("completed = %v", q.completed)
	}
	if len(writer.entities) != 1 || writer.entities[0].Title != "What is ISO" {
		t.Errorf("entities = %+v", writer.entities)
	}
}

func TestRunOnce_URLJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(eventPage))
	}))
	t.Cleanup(srv.Close)

	q := &memQueue{job: &storage.Job{
		ID:          "j2",
		Type:        JobTypeURL,
		PayloadJSON: payloadJSON(t, Payload{URL: srv.URL}),
	}}
	writer := &memWriter{}
	w := NewWorker(q, writer, time.Millisecond)

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(q.completed) != 1 {
		t.Fatalf("job not completed: failed=%v", q.failed)
	}
	if len(writer.entities) != 1 || writer.entities[0].Kind != content.KindEvent {
		t.Errorf("entities = %+v", writer.entities)
	}
}

func TestRunOnce_FetchFailureFailsJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	q := &memQueue{job: &storage.Job{
		ID:          "j3",
		Type:        JobTypeURL,
		PayloadJSON: payloadJSON(t, Payload{URL: srv.URL}),
	}}
	w := NewWorker(q, &memWriter{}, time.Millisecond)

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if _, ok := q.failed["j3"]; !ok {
		t.Errorf("job not failed: %v", q.failed)
	}
}

func TestRunOnce_BadPayload(t *testing.T) {
	q := &memQueue{job: &storage.Job{ID: "j4", Type: JobTypeCSV, PayloadJSON: "{{{"}}
	w := NewWorker(q, &memWriter{}, time.Millisecond)

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if _, ok := q.failed["j4"]; !ok {
		t.Errorf("bad payload not failed: %v", q.failed)
	}
}
