package ingest

import (
	"fmt"
	"log/slog"
	"strings"

	readability "codeberg.org/readeck/go-readability"
)

// ContentExtractor pulls the readable article body out of a news page so the
// script generator has more than the RSS summary to work with.
type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

func (e *ContentExtractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.TextContent == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(article.TextContent))

	return article.TextContent, nil
}
