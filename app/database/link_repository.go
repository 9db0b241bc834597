package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type linkRepository struct {
	db *DB
}

func NewLinkRepository(db *DB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, episode_id, news_id, position, status, inflight_op, op_id, prompt, script, audio_url, duration_seconds, error_message, created_at, updated_at`

func (r *linkRepository) scanLink(row interface{ Scan(...any) error }) (*EpisodeNewsLink, error) {
	var l EpisodeNewsLink
	var duration sql.NullInt64
	err := row.Scan(&l.ID, &l.EpisodeID, &l.NewsID, &l.Position, &l.Status, &l.InflightOp,
		&l.OpID, &l.Prompt, &l.Script, &l.AudioURL, &duration, &l.ErrorMessage,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if duration.Valid {
		d := int(duration.Int64)
		l.DurationSeconds = &d
	}
	return &l, nil
}

func (r *linkRepository) ListLinks(episodeID string) ([]EpisodeNewsLink, error) {
	rows, err := r.db.Query(`
		SELECT `+linkColumns+` FROM episode_news
		WHERE episode_id = ?
		ORDER BY position
	`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []EpisodeNewsLink
	for rows.Next() {
		l, err := r.scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		links = append(links, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link rows: %w", err)
	}

	return links, nil
}

func (r *linkRepository) GetLink(id string) (*EpisodeNewsLink, error) {
	row := r.db.QueryRow(`SELECT `+linkColumns+` FROM episode_news WHERE id = ?`, id)
	l, err := r.scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return l, nil
}

func (r *linkRepository) CreateLink(episodeID, newsID string, position int, prompt string) (*EpisodeNewsLink, error) {
	now := time.Now().UTC()
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO episode_news (id, episode_id, news_id, position, status, prompt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, episodeID, newsID, position, LinkStatusPending, prompt, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	return r.GetLink(id)
}

func (r *linkRepository) DeleteLink(id string) error {
	res, err := r.db.Exec(`DELETE FROM episode_news WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *linkRepository) HasLink(episodeID, newsID string) (bool, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM episode_news WHERE episode_id = ? AND news_id = ? LIMIT 1
	`, episodeID, newsID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check link existence: %w", err)
	}
	return true, nil
}

func (r *linkRepository) MaxPosition(episodeID string) (int, error) {
	var max sql.NullInt64
	err := r.db.QueryRow(`
		SELECT MAX(position) FROM episode_news WHERE episode_id = ?
	`, episodeID).Scan(&max)
	if err != nil {
		return -1, fmt.Errorf("failed to get max position: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

// RepackPositions renumbers the links of an episode to 0..n-1 preserving order.
func (r *linkRepository) RepackPositions(episodeID string) error {
	links, err := r.ListLinks(episodeID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i, link := range links {
		if link.Position == i {
			continue
		}
		_, err := r.db.Exec(`
			UPDATE episode_news SET position = ?, updated_at = ? WHERE id = ?
		`, i, now, link.ID)
		if err != nil {
			return fmt.Errorf("failed to repack positions: %w", err)
		}
	}

	return nil
}

func (r *linkRepository) ReorderLinks(episodeID string, orders map[string]int) error {
	now := time.Now().UTC()
	for id, position := range orders {
		_, err := r.db.Exec(`
			UPDATE episode_news SET position = ?, updated_at = ?
			WHERE id = ? AND episode_id = ?
		`, position, now, id, episodeID)
		if err != nil {
			return fmt.Errorf("failed to reorder links: %w", err)
		}
	}
	return nil
}

func (r *linkRepository) UpdateLink(id string, upd LinkUpdate) (*EpisodeNewsLink, error) {
	existing, err := r.GetLink(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if upd.Prompt != nil {
		existing.Prompt = *upd.Prompt
	}
	if upd.Script != nil {
		existing.Script = *upd.Script
	}

	_, err = r.db.Exec(`
		UPDATE episode_news SET prompt = ?, script = ?, updated_at = ? WHERE id = ?
	`, existing.Prompt, existing.Script, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	return r.GetLink(id)
}

func (r *linkRepository) CountByStatus(episodeID string) (map[LinkStatus]int, error) {
	rows, err := r.db.Query(`
		SELECT status, COUNT(*) FROM episode_news WHERE episode_id = ? GROUP BY status
	`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to count links by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[LinkStatus]int)
	for rows.Next() {
		var status LinkStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

// BeginOperation marks a link as generating. The update is conditional on the
// link not already being in flight, which is what enforces the
// at-most-one-generation-per-link rule. Returns nil when the link was busy.
func (r *linkRepository) BeginOperation(linkID string, op InflightOp, opID string) (*EpisodeNewsLink, error) {
	res, err := r.db.Exec(`
		UPDATE episode_news
		SET status = ?, inflight_op = ?, op_id = ?, error_message = '', updated_at = ?
		WHERE id = ? AND status != ?
	`, LinkStatusGenerating, op, opID, time.Now().UTC(), linkID, LinkStatusGenerating)
	if err != nil {
		return nil, fmt.Errorf("failed to begin operation: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, nil
	}

	return r.GetLink(linkID)
}

func (r *linkRepository) CompleteScript(opID string, script string) (*EpisodeNewsLink, error) {
	id, err := r.findInflight(opID, InflightScript)
	if err != nil || id == "" {
		return nil, err
	}

	_, err = r.db.Exec(`
		UPDATE episode_news
		SET status = ?, script = ?, inflight_op = '', op_id = '', error_message = '', updated_at = ?
		WHERE id = ? AND op_id = ?
	`, LinkStatusScriptDone, script, time.Now().UTC(), id, opID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete script operation: %w", err)
	}

	return r.GetLink(id)
}

func (r *linkRepository) CompleteAudio(opID string, audioURL string, durationSeconds int) (*EpisodeNewsLink, error) {
	id, err := r.findInflight(opID, InflightAudio)
	if err != nil || id == "" {
		return nil, err
	}

	_, err = r.db.Exec(`
		UPDATE episode_news
		SET status = ?, audio_url = ?, duration_seconds = ?, inflight_op = '', op_id = '', error_message = '', updated_at = ?
		WHERE id = ? AND op_id = ?
	`, LinkStatusAudioDone, audioURL, durationSeconds, time.Now().UTC(), id, opID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete audio operation: %w", err)
	}

	return r.GetLink(id)
}

// FailOperation moves an in-flight link to error, keeping any previously
// generated script/audio so a retry can pick up where it left off.
func (r *linkRepository) FailOperation(opID string, message string) (*EpisodeNewsLink, error) {
	id, err := r.findInflight(opID, "")
	if err != nil || id == "" {
		return nil, err
	}

	_, err = r.db.Exec(`
		UPDATE episode_news
		SET status = ?, error_message = ?, inflight_op = '', op_id = '', updated_at = ?
		WHERE id = ? AND op_id = ?
	`, LinkStatusError, message, time.Now().UTC(), id, opID)
	if err != nil {
		return nil, fmt.Errorf("failed to record operation failure: %w", err)
	}

	return r.GetLink(id)
}

// findInflight resolves a correlation id to a link id, but only while the
// operation is still the current one. Late or superseded results resolve to
// nothing and are dropped by the caller.
func (r *linkRepository) findInflight(opID string, op InflightOp) (string, error) {
	query := `SELECT id FROM episode_news WHERE op_id = ? AND status = ?`
	args := []any{opID, LinkStatusGenerating}
	if op != "" {
		query += ` AND inflight_op = ?`
		args = append(args, op)
	}

	var id string
	err := r.db.QueryRow(query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up in-flight operation: %w", err)
	}
	return id, nil
}

func (r *linkRepository) SetScript(id string, script string) (*EpisodeNewsLink, error) {
	res, err := r.db.Exec(`
		UPDATE episode_news
		SET status = ?, script = ?, audio_url = '', duration_seconds = NULL,
			inflight_op = '', op_id = '', error_message = '', updated_at = ?
		WHERE id = ?
	`, LinkStatusScriptDone, script, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to set script: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, nil
	}

	return r.GetLink(id)
}
