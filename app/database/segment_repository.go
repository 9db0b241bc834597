package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type segmentRepository struct {
	db *DB
}

func NewSegmentRepository(db *DB) SegmentRepository {
	return &segmentRepository{db: db}
}

const segmentColumns = `id, episode_id, kind, COALESCE(link_id, ''), asset_id, position, enabled, created_at, updated_at`

func (r *segmentRepository) scanSegment(row interface{ Scan(...any) error }) (*Segment, error) {
	var s Segment
	err := row.Scan(&s.ID, &s.EpisodeID, &s.Kind, &s.LinkID, &s.AssetID, &s.Position,
		&s.Enabled, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *segmentRepository) ListSegments(episodeID string) ([]Segment, error) {
	rows, err := r.db.Query(`
		SELECT `+segmentColumns+` FROM episode_segments
		WHERE episode_id = ?
		ORDER BY position
	`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		s, err := r.scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment row: %w", err)
		}
		segments = append(segments, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment rows: %w", err)
	}

	return segments, nil
}

func (r *segmentRepository) GetSegment(id string) (*Segment, error) {
	row := r.db.QueryRow(`SELECT `+segmentColumns+` FROM episode_segments WHERE id = ?`, id)
	s, err := r.scanSegment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}
	return s, nil
}

func (r *segmentRepository) CreateSegment(seg Segment) error {
	now := time.Now().UTC()
	if seg.ID == "" {
		seg.ID = uuid.NewString()
	}

	var linkID any
	if seg.LinkID != "" {
		linkID = seg.LinkID
	}

	_, err := r.db.Exec(`
		INSERT INTO episode_segments (id, episode_id, kind, link_id, asset_id, position, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, seg.ID, seg.EpisodeID, seg.Kind, linkID, seg.AssetID, seg.Position, seg.Enabled, now, now)
	if err != nil {
		return fmt.Errorf("failed to create segment: %w", err)
	}
	return nil
}

func (r *segmentRepository) DeleteSegment(id string) error {
	res, err := r.db.Exec(`DELETE FROM episode_segments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete segment: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *segmentRepository) DeleteSegmentsByLink(linkID string) error {
	_, err := r.db.Exec(`DELETE FROM episode_segments WHERE link_id = ?`, linkID)
	if err != nil {
		return fmt.Errorf("failed to delete segments for link: %w", err)
	}
	return nil
}

func (r *segmentRepository) SetSegmentEnabled(id string, enabled bool) (*Segment, error) {
	res, err := r.db.Exec(`
		UPDATE episode_segments SET enabled = ?, updated_at = ? WHERE id = ?
	`, enabled, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle segment: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, nil
	}
	return r.GetSegment(id)
}

func (r *segmentRepository) ReorderSegments(episodeID string, orderedIDs []string) error {
	now := time.Now().UTC()
	for i, id := range orderedIDs {
		_, err := r.db.Exec(`
			UPDATE episode_segments SET position = ?, updated_at = ?
			WHERE id = ? AND episode_id = ?
		`, i, now, id, episodeID)
		if err != nil {
			return fmt.Errorf("failed to reorder segments: %w", err)
		}
	}
	return nil
}

func (r *segmentRepository) RepackSegmentPositions(episodeID string) error {
	segments, err := r.ListSegments(episodeID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i, seg := range segments {
		if seg.Position == i {
			continue
		}
		_, err := r.db.Exec(`
			UPDATE episode_segments SET position = ?, updated_at = ? WHERE id = ?
		`, i, now, seg.ID)
		if err != nil {
			return fmt.Errorf("failed to repack segment positions: %w", err)
		}
	}

	return nil
}

func (r *segmentRepository) SyncAssetSegment(episodeID string, kind SegmentKind, assetID string) error {
	segments, err := r.ListSegments(episodeID)
	if err != nil {
		return err
	}

	var existing *Segment
	for i := range segments {
		if segments[i].Kind == kind {
			existing = &segments[i]
			break
		}
	}

	now := time.Now().UTC()

	if assetID == "" {
		if existing != nil {
			if err := r.DeleteSegment(existing.ID); err != nil {
				return err
			}
			return r.RepackSegmentPositions(episodeID)
		}
		return nil
	}

	if existing != nil {
		_, err := r.db.Exec(`
			UPDATE episode_segments SET asset_id = ?, updated_at = ? WHERE id = ?
		`, assetID, now, existing.ID)
		if err != nil {
			return fmt.Errorf("failed to retarget %s segment: %w", kind, err)
		}
		return nil
	}

	// Intro goes first, outro last; shift the rest when inserting at the front.
	position := len(segments)
	if kind == SegmentKindIntro {
		position = 0
		_, err := r.db.Exec(`
			UPDATE episode_segments SET position = position + 1, updated_at = ?
			WHERE episode_id = ?
		`, now, episodeID)
		if err != nil {
			return fmt.Errorf("failed to shift segments for intro: %w", err)
		}
	}

	return r.CreateSegment(Segment{
		EpisodeID: episodeID,
		Kind:      kind,
		AssetID:   assetID,
		Position:  position,
		Enabled:   true,
	})
}
