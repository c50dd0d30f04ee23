package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shutterbot/shutterbot/internal/content"
	"github.com/shutterbot/shutterbot/internal/storage"
)

// Job types the worker claims.
const (
	JobTypeCSV = "ingest_csv"
	JobTypeURL = "ingest_url"
	JobTypePDF = "ingest_pdf"
)

var jobTypes = []string{JobTypeCSV, JobTypeURL, JobTypePDF}

// Payload is the JSON body of an ingestion job.
type Payload struct {
	// CSV: the raw export content.
	CSV string `json:"csv,omitempty"`
	// URL: the page to fetch and scrape for JSON-LD.
	URL string `json:"url,omitempty"`
	// PDF: local path of the brochure plus the page it describes.
	Path      string `json:"path,omitempty"`
	Title     string `json:"title,omitempty"`
	TargetURL string `json:"target_url,omitempty"`
}

// JobStore abstracts the job queue operations.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
}

// EntityWriter persists materialized entities.
type EntityWriter interface {
	UpsertEntity(e content.Entity) error
}

const maxPageFetchSize = 5 << 20 // 5MB

// Worker processes ingestion jobs from the job queue.
type Worker struct {
	jobs   JobStore
	writer EntityWriter
	client *http.Client
	poll   time.Duration
	logger *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(jobs JobStore, writer EntityWriter, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		jobs:   jobs,
		writer: writer,
		client: &http.Client{Timeout: 15 * time.Second},
		poll:   pollInterval,
		logger: slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single job. Returns true when a job was
// processed (successfully or not), false when the queue was empty.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.jobs.ClaimNextJob(jobTypes)
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	var payload Payload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		// Unparseable payloads can never succeed; fail permanently.
		w.logger.Error("bad job payload", "job", job.ID, "error", err)
		return true, w.jobs.FailJob(job.ID, fmt.Sprintf("bad payload: %v", err))
	}

	if err := w.process(ctx, job.Type, payload); err != nil {
		w.logger.Warn("ingestion job failed", "job", job.ID, "type", job.Type, "error", err)
		return true, w.jobs.FailJob(job.ID, err.Error())
	}
	return true, w.jobs.CompleteJob(job.ID)
}

func (w *Worker) process(ctx context.Context, jobType string, payload Payload) error {
	switch jobType {
	case JobTypeCSV:
		return w.processCSV(ctx, payload)
	case JobTypeURL:
		return w.processURL(ctx, payload)
	case JobTypePDF:
		return w.processPDF(payload)
	}
	return fmt.Errorf("unknown job type %q", jobType)
}

func (w *Worker) processCSV(ctx context.Context, payload Payload) error {
	entities, rowErrs := ParseCSV(strings.NewReader(payload.CSV))
	for _, err := range rowErrs {
		w.logger.Warn("CSV row skipped", "error", err)
	}
	if len(entities) == 0 && len(rowErrs) > 0 {
		return fmt.Errorf("no usable rows (%d errors)", len(rowErrs))
	}
	return w.writeAll(ctx, entities)
}

func (w *Worker) processURL(ctx context.Context, payload Payload) error {
	if payload.URL == "" {
		return fmt.Errorf("url job has no url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.URL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", payload.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: HTTP %d", payload.URL, resp.StatusCode)
	}

	entities, err := ExtractJSONLD(io.LimitReader(resp.Body, maxPageFetchSize), payload.URL)
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		return fmt.Errorf("no JSON-LD content found at %s", payload.URL)
	}
	return w.writeAll(ctx, entities)
}

func (w *Worker) processPDF(payload Payload) error {
	e, err := ParsePDFBrochure(payload.Path, payload.Title, payload.TargetURL)
	if err != nil {
		return err
	}
	return w.writer.UpsertEntity(e)
}

// writeAll upserts entities with bounded concurrency. The SQLite store
// serializes writes anyway, but other EntityWriter implementations benefit.
func (w *Worker) writeAll(ctx context.Context, entities []content.Entity) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, e := range entities {
		g.Go(func() error {
			if err := w.writer.UpsertEntity(e); err != nil {
				return fmt.Errorf("storing %s: %w", e.URL, err)
			}
			return nil
		})
	}
	return g.Wait()
}
