package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrVersionMismatch signals a lost optimistic-locking race on an episode update.
var ErrVersionMismatch = errors.New("episode version mismatch")

type episodeRepository struct {
	db *DB
}

func NewEpisodeRepository(db *DB) EpisodeRepository {
	return &episodeRepository{db: db}
}

const episodeColumns = `id, title, status, intro_asset_id, outro_asset_id, bgm_asset_id, bgm_volume, version, created_at, published_at, updated_at`

func (r *episodeRepository) scanEpisode(row interface{ Scan(...any) error }) (*Episode, error) {
	var e Episode
	var publishedAt sql.NullTime
	err := row.Scan(&e.ID, &e.Title, &e.Status, &e.IntroAssetID, &e.OutroAssetID,
		&e.BGMAssetID, &e.BGMVolume, &e.Version, &e.CreatedAt, &publishedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		e.PublishedAt = &t
	}
	return &e, nil
}

func (r *episodeRepository) ListEpisodes() ([]Episode, error) {
	rows, err := r.db.Query(`SELECT ` + episodeColumns + ` FROM episodes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		e, err := r.scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode row: %w", err)
		}
		episodes = append(episodes, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating episode rows: %w", err)
	}

	return episodes, nil
}

func (r *episodeRepository) GetEpisode(id string) (*Episode, error) {
	row := r.db.QueryRow(`SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	e, err := r.scanEpisode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return e, nil
}

func (r *episodeRepository) CreateEpisode(title string) (*Episode, error) {
	now := time.Now().UTC()
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO episodes (id, title, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, title, EpisodeStatusDraft, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create episode: %w", err)
	}

	return r.GetEpisode(id)
}

func (r *episodeRepository) UpdateEpisode(id string, expectedVersion int64, upd EpisodeUpdate) (*Episode, error) {
	existing, err := r.GetEpisode(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if upd.Title != nil {
		existing.Title = *upd.Title
	}
	if upd.Status != nil {
		existing.Status = *upd.Status
	}
	if upd.IntroAssetID != nil {
		existing.IntroAssetID = *upd.IntroAssetID
	}
	if upd.OutroAssetID != nil {
		existing.OutroAssetID = *upd.OutroAssetID
	}
	if upd.BGMAssetID != nil {
		existing.BGMAssetID = *upd.BGMAssetID
	}
	if upd.BGMVolume != nil {
		existing.BGMVolume = *upd.BGMVolume
	}

	var publishedAt any
	if existing.PublishedAt != nil {
		publishedAt = existing.PublishedAt.UTC()
	}

	query := `
		UPDATE episodes
		SET title = ?, status = ?, intro_asset_id = ?, outro_asset_id = ?,
			bgm_asset_id = ?, bgm_volume = ?, published_at = ?,
			version = version + 1, updated_at = ?
		WHERE id = ?`
	args := []any{existing.Title, existing.Status, existing.IntroAssetID, existing.OutroAssetID,
		existing.BGMAssetID, existing.BGMVolume, publishedAt, time.Now().UTC(), id}

	if expectedVersion > 0 {
		query += ` AND version = ?`
		args = append(args, expectedVersion)
	}

	res, err := r.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update episode: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrVersionMismatch
	}

	return r.GetEpisode(id)
}

func (r *episodeRepository) SetEpisodeStatus(id string, status EpisodeStatus, publishedAt *time.Time) error {
	var published any
	if publishedAt != nil {
		published = publishedAt.UTC()
	}

	_, err := r.db.Exec(`
		UPDATE episodes
		SET status = ?, published_at = ?, version = version + 1, updated_at = ?
		WHERE id = ?
	`, status, published, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set episode status: %w", err)
	}
	return nil
}

func (r *episodeRepository) DeleteEpisode(id string) error {
	res, err := r.db.Exec(`DELETE FROM episodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete episode: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *episodeRepository) GetEpisodeCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM episodes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count episodes: %w", err)
	}
	return count, nil
}
