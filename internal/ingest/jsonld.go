package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/shutterbot/shutterbot/internal/content"
)

// jsonldDoc is the subset of schema.org fields the site's pages carry.
type jsonldDoc struct {
	Type          any         `json:"@type"`
	Name          string      `json:"name"`
	Headline      string      `json:"headline"`
	URL           string      `json:"url"`
	DatePublished string      `json:"datePublished"`
	StartDate     string      `json:"startDate"`
	Keywords      any         `json:"keywords"`
	Graph         []jsonldDoc `json:"@graph"`
}

// schema.org types → content kinds. Types not listed are ignored: a page's
// BreadcrumbList or Organization block is not content.
var kindBySchemaType = map[string]content.Kind{
	"article":     content.KindArticle,
	"blogposting": content.KindArticle,
	"newsarticle": content.KindArticle,
	"event":       content.KindEvent,
	"course":      content.KindEvent,
	"product":     content.KindProduct,
	"service":     content.KindService,
	"webpage":     content.KindLanding,
}

// ExtractJSONLD parses an HTML page and maps its JSON-LD blocks to content
// entities. pageURL is the fallback canonical URL when a block carries none.
// Malformed blocks are skipped; scraping errors never reach the ranking
// engine.
func ExtractJSONLD(page io.Reader, pageURL string) ([]content.Entity, error) {
	root, err := html.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var entities []content.Entity
	for _, block := range jsonldBlocks(root) {
		var doc jsonldDoc
		if err := json.Unmarshal([]byte(block), &doc); err != nil {
			// Some pages wrap several documents in a bare array.
			var docs []jsonldDoc
			if err := json.Unmarshal([]byte(block), &docs); err != nil {
				continue
			}
			for _, d := range docs {
				entities = append(entities, entitiesFromDoc(d, pageURL)...)
			}
			continue
		}
		entities = append(entities, entitiesFromDoc(doc, pageURL)...)
	}
	return entities, nil
}

func entitiesFromDoc(doc jsonldDoc, pageURL string) []content.Entity {
	if len(doc.Graph) > 0 {
		var out []content.Entity
		for _, d := range doc.Graph {
			out = append(out, entitiesFromDoc(d, pageURL)...)
		}
		return out
	}

	kind, ok := kindForType(doc.Type)
	if !ok {
		return nil
	}

	title := doc.Headline
	if title == "" {
		title = doc.Name
	}
	url := doc.URL
	if url == "" {
		url = pageURL
	}
	if title == "" || url == "" {
		return nil
	}

	e := content.Entity{
		Kind:     kind,
		Title:    title,
		URL:      url,
		Tags:     keywordList(doc.Keywords),
		LastSeen: time.Now().UTC(),
	}

	dateStr := doc.DatePublished
	if dateStr == "" {
		dateStr = doc.StartDate
	}
	if dateStr != "" {
		if t, err := parseDate(dateStr); err == nil {
			e.PublishDate = t
		}
	}

	raw, err := json.Marshal(doc)
	if err == nil {
		e.Raw = string(raw)
	}
	return []content.Entity{e}
}

// kindForType handles both `"@type": "Event"` and `"@type": ["Event", ...]`.
func kindForType(t any) (content.Kind, bool) {
	switch v := t.(type) {
	case string:
		kind, ok := kindBySchemaType[strings.ToLower(v)]
		return kind, ok
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if kind, ok := kindBySchemaType[strings.ToLower(s)]; ok {
					return kind, true
				}
			}
		}
	}
	return "", false
}

// keywordList handles both comma-separated keyword strings and arrays.
func keywordList(k any) []string {
	switch v := k.(type) {
	case string:
		return splitTrim(v, ",")
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// jsonldBlocks walks the parse tree collecting the text of every
// <script type="application/ld+json"> element.
func jsonldBlocks(root *html.Node) []string {
	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && isJSONLD(n) {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			if text := strings.TrimSpace(sb.String()); text != "" {
				blocks = append(blocks, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return blocks
}

func isJSONLD(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key == "type" && strings.EqualFold(strings.TrimSpace(attr.Val), "application/ld+json") {
			return true
		}
	}
	return false
}
