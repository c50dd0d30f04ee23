// Package ingest materializes content entities from the site's export
// formats: CSV dumps, scraped pages carrying JSON-LD, and PDF brochures.
// Jobs are queued in storage and processed by a polling Worker, so a bad
// source never fails a visitor-facing request.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shutterbot/shutterbot/internal/content"
)

// ParseCSV reads a headered CSV export into entities. Recognized columns:
// title, url, kind, categories, tags, published. Category and tag cells are
// split on "|". Rows missing a URL are skipped with a row error; one bad row
// does not abort the rest.
func ParseCSV(r io.Reader) ([]content.Entity, []error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("reading CSV header: %w", err)}
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["url"]; !ok {
		return nil, []error{fmt.Errorf("CSV has no url column")}
	}

	var entities []content.Entity
	var rowErrs []error
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: %w", row, err))
			continue
		}

		e, err := entityFromRecord(cols, record)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: %w", row, err))
			continue
		}
		entities = append(entities, e)
	}
	return entities, rowErrs
}

func entityFromRecord(cols map[string]int, record []string) (content.Entity, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	url := field("url")
	if url == "" {
		return content.Entity{}, fmt.Errorf("missing url")
	}

	kind, ok := content.ParseKind(field("kind"))
	if !ok {
		kind = content.KindArticle
	}

	e := content.Entity{
		Kind:       kind,
		Title:      field("title"),
		URL:        url,
		Categories: splitList(field("categories")),
		Tags:       splitList(field("tags")),
		LastSeen:   time.Now().UTC(),
		Raw:        strings.Join(record, ","),
	}

	if published := field("published"); published != "" {
		t, err := parseDate(published)
		if err != nil {
			return content.Entity{}, fmt.Errorf("bad published date %q: %w", published, err)
		}
		e.PublishDate = t
	}
	return e, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDate accepts the date formats seen across the site's exports.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}
