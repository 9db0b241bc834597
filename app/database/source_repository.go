package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type sourceRepository struct {
	db *DB
}

func NewSourceRepository(db *DB) SourceRepository {
	return &sourceRepository{db: db}
}

const sourceColumns = `id, name, url, enabled, auto_mode, last_fetched_at, created_at, updated_at`

func (r *sourceRepository) scanSource(row interface{ Scan(...any) error }) (*Source, error) {
	var s Source
	var lastFetched sql.NullTime
	err := row.Scan(&s.ID, &s.Name, &s.URL, &s.Enabled, &s.AutoMode, &lastFetched, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastFetched.Valid {
		t := lastFetched.Time
		s.LastFetchedAt = &t
	}
	return &s, nil
}

func (r *sourceRepository) ListSources() ([]Source, error) {
	rows, err := r.db.Query(`SELECT ` + sourceColumns + ` FROM rss_sources ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		s, err := r.scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func (r *sourceRepository) GetSource(id string) (*Source, error) {
	row := r.db.QueryRow(`SELECT `+sourceColumns+` FROM rss_sources WHERE id = ?`, id)
	s, err := r.scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return s, nil
}

func (r *sourceRepository) CreateSource(name, url string, enabled, autoMode bool) (*Source, error) {
	now := time.Now().UTC()
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO rss_sources (id, name, url, enabled, auto_mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, name, url, enabled, autoMode, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	return r.GetSource(id)
}

func (r *sourceRepository) UpdateSource(id string, upd SourceUpdate) (*Source, error) {
	existing, err := r.GetSource(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if upd.Name != nil {
		existing.Name = *upd.Name
	}
	if upd.URL != nil {
		existing.URL = *upd.URL
	}
	if upd.Enabled != nil {
		existing.Enabled = *upd.Enabled
	}
	if upd.AutoMode != nil {
		existing.AutoMode = *upd.AutoMode
	}

	_, err = r.db.Exec(`
		UPDATE rss_sources
		SET name = ?, url = ?, enabled = ?, auto_mode = ?, updated_at = ?
		WHERE id = ?
	`, existing.Name, existing.URL, existing.Enabled, existing.AutoMode, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update source: %w", err)
	}

	return r.GetSource(id)
}

func (r *sourceRepository) DeleteSource(id string) error {
	res, err := r.db.Exec(`DELETE FROM rss_sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *sourceRepository) ListEnabledSources() ([]Source, error) {
	rows, err := r.db.Query(`SELECT ` + sourceColumns + ` FROM rss_sources WHERE enabled = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		s, err := r.scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func (r *sourceRepository) UpdateLastFetched(id string, fetchedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE rss_sources SET last_fetched_at = ?, updated_at = ? WHERE id = ?
	`, fetchedAt.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last fetched time: %w", err)
	}
	return nil
}

func (r *sourceRepository) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM rss_sources`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return count, nil
}
