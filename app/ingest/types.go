package ingest

import (
	"time"
)

// Metadata describes the feed channel itself.
type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// Item is a normalized news entry ready for storage.
type Item struct {
	GUID        string
	Title       string
	Summary     string
	URL         string
	Keywords    []string
	PublishedAt time.Time
	ContentHash string
}
