package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type newsRepository struct {
	db *DB
}

func NewNewsRepository(db *DB) NewsRepository {
	return &newsRepository{db: db}
}

const newsColumns = `id, COALESCE(source_id, ''), source_name, guid, title, summary, url, keywords, content, content_hash, published_at, created_at, updated_at`

func (r *newsRepository) scanNewsItem(row interface{ Scan(...any) error }) (*NewsItem, error) {
	var n NewsItem
	var keywords string
	err := row.Scan(&n.ID, &n.SourceID, &n.SourceName, &n.GUID, &n.Title, &n.Summary,
		&n.URL, &keywords, &n.Content, &n.ContentHash, &n.PublishedAt, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if keywords != "" {
		if err := json.Unmarshal([]byte(keywords), &n.Keywords); err != nil {
			return nil, fmt.Errorf("failed to decode keywords: %w", err)
		}
	}
	return &n, nil
}

func (r *newsRepository) ListNews(sourceID string, limit int) ([]NewsItem, error) {
	builder := sq.Select(newsColumns).
		From("news_items").
		OrderBy("published_at DESC").
		Limit(uint64(limit))

	if sourceID != "" {
		builder = builder.Where(sq.Eq{"source_id": sourceID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build news query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	defer rows.Close()

	var items []NewsItem
	for rows.Next() {
		n, err := r.scanNewsItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news row: %w", err)
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating news rows: %w", err)
	}

	return items, nil
}

func (r *newsRepository) GetNewsItem(id string) (*NewsItem, error) {
	row := r.db.QueryRow(`SELECT `+newsColumns+` FROM news_items WHERE id = ?`, id)
	n, err := r.scanNewsItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get news item: %w", err)
	}
	return n, nil
}

// UpsertNewsItem stores an ingested item, deduplicated by content hash.
// Returns the row id and whether a new row was inserted.
func (r *newsRepository) UpsertNewsItem(item NewsItem) (string, bool, error) {
	var existingID string
	err := r.db.QueryRow(`SELECT id FROM news_items WHERE content_hash = ?`, item.ContentHash).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return "", false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	if err == nil {
		return existingID, false, nil
	}

	keywords, err := json.Marshal(item.Keywords)
	if err != nil {
		return "", false, fmt.Errorf("failed to encode keywords: %w", err)
	}
	if item.Keywords == nil {
		keywords = []byte("[]")
	}

	now := time.Now().UTC()
	id := uuid.NewString()

	var sourceID any
	if item.SourceID != "" {
		sourceID = item.SourceID
	}

	_, err = r.db.Exec(`
		INSERT INTO news_items (id, source_id, source_name, guid, title, summary, url,
			keywords, content, content_hash, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, sourceID, item.SourceName, item.GUID, item.Title, item.Summary, item.URL,
		string(keywords), item.Content, item.ContentHash, item.PublishedAt.UTC(), now, now)
	if err != nil {
		return "", false, fmt.Errorf("failed to insert news item: %w", err)
	}

	return id, true, nil
}

func (r *newsRepository) UpdateContent(id string, content string) error {
	_, err := r.db.Exec(`
		UPDATE news_items SET content = ?, updated_at = ? WHERE id = ?
	`, content, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update news content: %w", err)
	}
	return nil
}

func (r *newsRepository) GetNewsCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM news_items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count news items: %w", err)
	}
	return count, nil
}
