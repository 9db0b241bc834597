package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zyjarge/podcast-studio/app/cfg"
	"github.com/zyjarge/podcast-studio/app/database"
	"github.com/zyjarge/podcast-studio/app/ingest"
)

type FetchNewsTask struct {
	Task
	Source     database.Source
	httpClient *http.Client
	parser     *ingest.Parser
	extractor  *ingest.ContentExtractor
	sourceRepo database.SourceRepository
	newsRepo   database.NewsRepository
	userAgent  string
	timeout    time.Duration
}

func NewFetchNewsTask(source database.Source, httpClient *http.Client, parser *ingest.Parser,
	extractor *ingest.ContentExtractor, sourceRepo database.SourceRepository,
	newsRepo database.NewsRepository, userAgent string) *FetchNewsTask {
	return &FetchNewsTask{
		Task:       NewTask(TaskTypeFetchNews, source.Name),
		Source:     source,
		httpClient: httpClient,
		parser:     parser,
		extractor:  extractor,
		sourceRepo: sourceRepo,
		newsRepo:   newsRepo,
		userAgent:  userAgent,
		timeout:    time.Duration(cfg.Get().FetchTimeout) * time.Second,
	}
}

func (t *FetchNewsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Source.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.Source.Name)
		return nil
	}

	data, err := t.fetchURL(ctx, t.Source.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch source: %w", err)
	}

	_, items, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	newCount := 0
	duplicateCount := 0
	extractedCount := 0

	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		id, created, err := t.newsRepo.UpsertNewsItem(database.NewsItem{
			SourceID:    t.Source.ID,
			SourceName:  t.Source.Name,
			GUID:        item.GUID,
			Title:       item.Title,
			Summary:     item.Summary,
			URL:         item.URL,
			Keywords:    item.Keywords,
			ContentHash: item.ContentHash,
			PublishedAt: item.PublishedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert news item: %w", err)
		}

		if !created {
			duplicateCount++
			continue
		}
		newCount++

		if err := t.extractContent(ctx, id, item.URL); err != nil {
			slog.Debug("Content extraction failed, keeping RSS summary", "news_id", id, "url", item.URL, "error", err)
		} else {
			extractedCount++
		}
	}

	if err := t.sourceRepo.UpdateLastFetched(t.Source.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update last fetched time: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.Source.Name,
		"duration", t.GetDuration(),
		"total", len(items),
		"new", newCount,
		"duplicates", duplicateCount,
		"extracted", extractedCount)

	return nil
}

// extractContent pulls the full article body so script generation has more
// than the RSS summary to work with. Best effort; a failure leaves the item
// with its summary only.
func (t *FetchNewsTask) extractContent(ctx context.Context, newsID, url string) error {
	if url == "" {
		return fmt.Errorf("news item has no URL")
	}

	data, err := t.fetchArticle(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to fetch article: %w", err)
	}

	content, err := t.extractor.Run(data)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	if err := t.newsRepo.UpdateContent(newsID, content); err != nil {
		return fmt.Errorf("failed to store extracted content: %w", err)
	}

	return nil
}

func (t *FetchNewsTask) fetchURL(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (t *FetchNewsTask) fetchArticle(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
