package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/shutterbot/shutterbot/internal/content"
)

// ParsePDFBrochure extracts the plain text of a course/workshop brochure PDF
// and materializes it as a single landing entity. The first non-empty line
// becomes the title unless the caller supplies one.
func ParsePDFBrochure(path, title, url string) (content.Entity, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return content.Entity{}, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return content.Entity{}, fmt.Errorf("extracting text from %s: %w", path, err)
	}
	if _, err := buf.ReadFrom(reader); err != nil {
		return content.Entity{}, fmt.Errorf("reading text from %s: %w", path, err)
	}
	text := buf.String()

	if title == "" {
		title = firstLine(text)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if url == "" {
		return content.Entity{}, fmt.Errorf("brochure %s needs a target URL", path)
	}

	return content.Entity{
		Kind:     content.KindLanding,
		Title:    title,
		URL:      url,
		LastSeen: time.Now().UTC(),
		Raw:      text,
	}, nil
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
