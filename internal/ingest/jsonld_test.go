package ingest

import (
	"strings"
	"testing"

	"github.com/shutterbot/shutterbot/internal/content"
)

const eventPage = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{"@type":"Event","name":"Bluebell Woodland Workshop","url":"https://example.com/events/bluebell/","startDate":"2025-04-20","keywords":"spring, woodland"}
</script>
<script type="application/ld+json">
{"@type":"BreadcrumbList","name":"ignored"}
</script>
</head><body><p>hello</p></body></html>`

func TestExtractJSONLD_Event(t *testing.T) {
	entities, err := ExtractJSONLD(strings.NewReader(eventPage), "https://example.com/events/bluebell/")
	if err != nil {
		t.Fatalf("ExtractJSONLD: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("len = %d, want 1 (breadcrumb must be ignored)", len(entities))
	}

	e := entities[0]
	if e.Kind != content.KindEvent || e.Title != "Bluebell Woodland Workshop" {
		t.Errorf("entity = %+v", e)
	}
	if len(e.Tags) != 2 || e.Tags[0] != "spring" {
		t.Errorf("tags = %v", e.Tags)
	}
	if e.PublishDate.IsZero() {
		t.Error("startDate not used as publish date")
	}
}

const graphPage = `<html><head><script type="application/ld+json">
{"@graph":[
  {"@type":"BlogPosting","headline":"What is Aperture","url":"https://example.com/blog/what-is-aperture","datePublished":"2024-01-15"},
  {"@type":"Organization","name":"Shutter School"}
]}
</script></head><body></body></html>`

func TestExtractJSONLD_Graph(t *testing.T) {
	entities, err := ExtractJSONLD(strings.NewReader(graphPage), "https://example.com/blog/what-is-aperture")
	if err != nil {
		t.Fatalf("ExtractJSONLD: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("len = %d, want 1", len(entities))
	}
	if entities[0].Kind != content.KindArticle || entities[0].Title != "What is Aperture" {
		t.Errorf("entity = %+v", entities[0])
	}
}

func TestExtractJSONLD_TypeArrayAndPageURLFallback(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
	{"@type":["Product","Thing"],"name":"Gift Voucher"}
	</script></head></html>`

	entities, err := ExtractJSONLD(strings.NewReader(page), "https://example.com/shop/gift-voucher")
	if err != nil {
		t.Fatalf("ExtractJSONLD: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("len = %d, want 1", len(entities))
	}
	if entities[0].Kind != content.KindProduct {
		t.Errorf("kind = %q", entities[0].Kind)
	}
	if entities[0].URL != "https://example.com/shop/gift-voucher" {
		t.Errorf("URL fallback not applied: %q", entities[0].URL)
	}
}

func TestExtractJSONLD_MalformedBlockSkipped(t *testing.T) {
	page := `<html><head>
	<script type="application/ld+json">{not json</script>
	<script type="application/ld+json">{"@type":"Article","headline":"Fine","url":"https://example.com/fine"}</script>
	</head></html>`

	entities, err := ExtractJSONLD(strings.NewReader(page), "")
	if err != nil {
		t.Fatalf("ExtractJSONLD: %v", err)
	}
	if len(entities) != 1 || entities[0].Title != "Fine" {
		t.Errorf("entities = %+v", entities)
	}
}
