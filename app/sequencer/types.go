package sequencer

import (
	"github.com/zyjarge/podcast-studio/app/database"
)

// AssetInfo is the sequencer's view of a library asset (intro, outro, or
// background music). Library assets always carry a duration.
type AssetInfo struct {
	ID              string
	Title           string
	File            string
	DurationSeconds int
}

// AssetResolver looks up library assets by id.
type AssetResolver interface {
	ResolveAsset(id string) (AssetInfo, bool)
}

// SegmentView is a segment enriched with the derived title/duration of its
// underlying link or asset. News durations are read through from the link so
// they can never go stale against a regenerated audio file.
type SegmentView struct {
	ID              string               `json:"id"`
	Kind            database.SegmentKind `json:"kind"`
	Title           string               `json:"title"`
	Position        int                  `json:"position"`
	Enabled         bool                 `json:"enabled"`
	LinkID          string               `json:"link_id,omitempty"`
	AssetID         string               `json:"asset_id,omitempty"`
	AudioURL        string               `json:"audio_url,omitempty"`
	DurationSeconds *int                 `json:"duration_seconds"`
	Duration        string               `json:"duration"`
	LinkStatus      database.LinkStatus  `json:"link_status,omitempty"`
}

// PlanEntry is one playable unit of the final assembly.
type PlanEntry struct {
	SegmentID       string               `json:"segment_id"`
	Kind            database.SegmentKind `json:"kind"`
	Title           string               `json:"title"`
	AudioRef        string               `json:"audio_ref"`
	DurationSeconds int                  `json:"duration_seconds"`
}

// AssemblyPlan is the ordered, duration-annotated segment list handed to the
// external audio renderer, plus the optional background music bed.
type AssemblyPlan struct {
	EpisodeID            string      `json:"episode_id"`
	Entries              []PlanEntry `json:"entries"`
	BackgroundMusicRef   string      `json:"background_music_ref,omitempty"`
	BackgroundVolume     int         `json:"background_volume"`
	TotalDurationSeconds int         `json:"total_duration_seconds"`
	TotalDuration        string      `json:"total_duration"`
}
