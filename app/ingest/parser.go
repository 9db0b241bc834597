package ingest

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Parser struct {
	gofeedParser *gofeed.Parser
	keywordCaser cases.Caser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		keywordCaser: cases.Lower(language.Und),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		normalized := p.normalizeItem(item)
		normalized.ContentHash = p.generateContentHash(normalized)
		items = append(items, normalized)
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:    cmp.Or(item.GUID, item.Link),
		Title:   item.Title,
		Summary: item.Description,
		URL:     item.Link,
	}

	if normalized.Summary == "" {
		normalized.Summary = item.Content
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = *item.PublishedParsed
	} else {
		normalized.PublishedAt = time.Now().UTC()
	}

	normalized.Keywords = p.normalizeKeywords(item.Categories)

	return normalized
}

// normalizeKeywords lowercases and deduplicates feed categories, preserving
// first-seen order.
func (p *Parser) normalizeKeywords(categories []string) []string {
	if len(categories) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(categories))
	keywords := make([]string, 0, len(categories))
	for _, category := range categories {
		keyword := p.keywordCaser.String(strings.TrimSpace(category))
		if keyword == "" {
			continue
		}
		if _, ok := seen[keyword]; ok {
			continue
		}
		seen[keyword] = struct{}{}
		keywords = append(keywords, keyword)
	}

	if len(keywords) == 0 {
		return nil
	}
	return keywords
}

func (p *Parser) generateContentHash(item Item) string {
	content := fmt.Sprintf("%s|%s",
		item.Title,
		item.URL)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
