package feed

import (
	"errors"
	"testing"
	"time"

	"DigestMailer/internal/config"
	"DigestMailer/internal/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:ars="https://example.com/rss/ext/">
  <channel>
    <title>Example Feed</title>
    <link>https://example.com/</link>
    <description>Subscriber feed</description>
    <item>
      <title>First Article</title>
      <link>https://example.com/?p=101</link>
      <guid isPermaLink="false">example-101</guid>
      <description><![CDATA[<p>Hello <b>world</b>,   nice   day.</p>]]></description>
      <pubDate>Mon, 06 Jan 2025 10:00:00 +0000</pubDate>
      <ars:pdf>https://example.com/pdf/101</ars:pdf>
    </item>
    <item>
      <title>Second Article</title>
      <link>https://example.com/?p=102</link>
      <guid isPermaLink="false">example-102</guid>
      <pubDate>Mon, 06 Jan 2025 11:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func testFeedConfig() config.FeedConfig {
	return config.FeedConfig{
		IDField:        "guid",
		PDFExtension:   "ars:pdf",
		PDFQueryParam:  "p",
		PDFURLTemplate: "https://example.com/pdf?id=%s",
	}
}

func TestParseNormalizesEntries(t *testing.T) {
	t.Parallel()

	p := NewParser(testFeedConfig())

	articles, err := p.Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.ID != "example-101" {
		t.Fatalf("unexpected id: %s", first.ID)
	}
	if first.Title != "First Article" {
		t.Fatalf("unexpected title: %s", first.Title)
	}
	if first.Summary != "Hello world, nice day." {
		t.Fatalf("summary not flattened: %q", first.Summary)
	}
	if first.WebLink != "https://example.com/?p=101" {
		t.Fatalf("unexpected link: %s", first.WebLink)
	}
	if first.PDFLink != "https://example.com/pdf/101" {
		t.Fatalf("extension pdf link not picked up: %q", first.PDFLink)
	}

	want := time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Fatalf("unexpected published time: %v", first.PublishedAt)
	}
}

func TestParseDerivesPDFFromQueryParam(t *testing.T) {
	t.Parallel()

	p := NewParser(testFeedConfig())

	articles, err := p.Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// The second entry has no extension element; the link's p parameter
	// feeds the template instead.
	second := articles[1]
	if second.PDFLink != "https://example.com/pdf?id=102" {
		t.Fatalf("unexpected derived pdf link: %q", second.PDFLink)
	}
	if second.Summary != "" {
		t.Fatalf("missing description must stay empty, got %q", second.Summary)
	}
}

func TestParseOmitsPDFWhenUnderivable(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title><link>https://e.com</link><description>d</description>
  <item><title>Plain</title><link>https://e.com/article/7</link></item>
</channel></rss>`

	p := NewParser(testFeedConfig())

	articles, err := p.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].PDFLink != "" {
		t.Fatalf("expected empty pdf link, got %q", articles[0].PDFLink)
	}
}

func TestParseLinkIDField(t *testing.T) {
	t.Parallel()

	cfg := testFeedConfig()
	cfg.IDField = "link"
	p := NewParser(cfg)

	articles, err := p.Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if articles[0].ID != "https://example.com/?p=101" {
		t.Fatalf("link id mode ignored, got %s", articles[0].ID)
	}
}

func TestParseGUIDFallsBackToLink(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title><link>https://e.com</link><description>d</description>
  <item><title>No GUID</title><link>https://e.com/article/9</link></item>
</channel></rss>`

	p := NewParser(testFeedConfig())

	articles, err := p.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if articles[0].ID != "https://e.com/article/9" {
		t.Fatalf("expected link fallback id, got %s", articles[0].ID)
	}
}

func TestParseRejectsMalformedDocument(t *testing.T) {
	t.Parallel()

	p := NewParser(testFeedConfig())

	_, err := p.Parse([]byte("this is not a feed"))
	if err == nil {
		t.Fatalf("expected error for malformed document")
	}

	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
}

func TestParseRejectsEntryWithoutTitle(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title><link>https://e.com</link><description>d</description>
  <item><link>https://e.com/article/1</link></item>
</channel></rss>`

	p := NewParser(testFeedConfig())

	_, err := p.Parse([]byte(doc))
	if err == nil {
		t.Fatalf("expected error for entry without title")
	}

	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
}
