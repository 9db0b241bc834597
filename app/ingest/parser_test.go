package ingest

import (
	"testing"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Tech Daily</title>
    <link>https://example.com</link>
    <description>Daily technology news</description>
    <language>en-us</language>
    <item>
      <title>Chip shortage eases</title>
      <link>https://example.com/chips</link>
      <guid>chips-2026-01</guid>
      <description>Fabs catch up with demand.</description>
      <category>Hardware</category>
      <category>hardware</category>
      <category> Supply Chain </category>
      <pubDate>Mon, 12 Jan 2026 08:00:00 GMT</pubDate>
    </item>
    <item>
      <title>New framework released</title>
      <link>https://example.com/framework</link>
      <description>Another day, another framework.</description>
    </item>
  </channel>
</rss>`

func TestRunParsesMetadata(t *testing.T) {
	parser := NewParser()

	metadata, items, err := parser.Run([]byte(sampleFeed))
	if err != nil {
		t.Fatal(err)
	}

	if metadata.Title != "Tech Daily" {
		t.Errorf("Expected title 'Tech Daily', got %q", metadata.Title)
	}
	if metadata.Link != "https://example.com" {
		t.Errorf("Expected link 'https://example.com', got %q", metadata.Link)
	}
	if metadata.Language != "en-us" {
		t.Errorf("Expected language 'en-us', got %q", metadata.Language)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
}

func TestRunNormalizesItems(t *testing.T) {
	parser := NewParser()

	_, items, err := parser.Run([]byte(sampleFeed))
	if err != nil {
		t.Fatal(err)
	}

	first := items[0]
	if first.GUID != "chips-2026-01" {
		t.Errorf("Expected explicit GUID, got %q", first.GUID)
	}
	if first.Summary != "Fabs catch up with demand." {
		t.Errorf("Expected summary from description, got %q", first.Summary)
	}
	if first.PublishedAt.IsZero() {
		t.Error("Expected published date to be parsed")
	}

	second := items[1]
	if second.GUID != "https://example.com/framework" {
		t.Errorf("Expected GUID fallback to link, got %q", second.GUID)
	}
	if second.PublishedAt.IsZero() {
		t.Error("Expected fallback published date for item without pubDate")
	}
}

func TestRunNormalizesKeywords(t *testing.T) {
	parser := NewParser()

	_, items, err := parser.Run([]byte(sampleFeed))
	if err != nil {
		t.Fatal(err)
	}

	keywords := items[0].Keywords
	if len(keywords) != 2 {
		t.Fatalf("Expected 2 deduplicated keywords, got %v", keywords)
	}
	if keywords[0] != "hardware" {
		t.Errorf("Expected lowercased 'hardware' first, got %q", keywords[0])
	}
	if keywords[1] != "supply chain" {
		t.Errorf("Expected trimmed 'supply chain', got %q", keywords[1])
	}

	if items[1].Keywords != nil {
		t.Errorf("Expected nil keywords for item without categories, got %v", items[1].Keywords)
	}
}

func TestRunContentHashStable(t *testing.T) {
	parser := NewParser()

	_, first, err := parser.Run([]byte(sampleFeed))
	if err != nil {
		t.Fatal(err)
	}
	_, second, err := parser.Run([]byte(sampleFeed))
	if err != nil {
		t.Fatal(err)
	}

	if first[0].ContentHash == "" {
		t.Fatal("Expected content hash to be set")
	}
	if first[0].ContentHash != second[0].ContentHash {
		t.Error("Expected content hash to be stable across parses")
	}
	if first[0].ContentHash == first[1].ContentHash {
		t.Error("Expected different items to hash differently")
	}
}

func TestRunInvalidFeed(t *testing.T) {
	parser := NewParser()

	if _, _, err := parser.Run([]byte("this is not xml")); err == nil {
		t.Error("Expected error for invalid feed data")
	}
}
