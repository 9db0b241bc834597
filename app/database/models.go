package database

import (
	"time"
)

// LinkStatus tracks the production lifecycle of a news item inside an episode.
type LinkStatus string

const (
	LinkStatusPending    LinkStatus = "pending"
	LinkStatusGenerating LinkStatus = "generating"
	LinkStatusScriptDone LinkStatus = "script_done"
	LinkStatusAudioDone  LinkStatus = "audio_done"
	LinkStatusError      LinkStatus = "error"
)

// InflightOp disambiguates which generation call a 'generating' link is waiting on.
type InflightOp string

const (
	InflightNone   InflightOp = ""
	InflightScript InflightOp = "script"
	InflightAudio  InflightOp = "audio"
)

// EpisodeStatus is the editorial lifecycle of an episode. Transitions are
// forward-only once published.
type EpisodeStatus string

const (
	EpisodeStatusDraft     EpisodeStatus = "draft"
	EpisodeStatusEditing   EpisodeStatus = "editing"
	EpisodeStatusPublished EpisodeStatus = "published"
)

// SegmentKind distinguishes the playable units in the final assembly.
type SegmentKind string

const (
	SegmentKindIntro SegmentKind = "intro"
	SegmentKindNews  SegmentKind = "news"
	SegmentKindOutro SegmentKind = "outro"
)

type Source struct {
	ID            string
	Name          string
	URL           string
	Enabled       bool
	AutoMode      bool // included in unattended episode generation
	LastFetchedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewsItem is read-only from the pipeline's perspective; only the extracted
// content body is filled in after ingestion.
type NewsItem struct {
	ID          string
	SourceID    string
	SourceName  string
	GUID        string
	Title       string
	Summary     string
	URL         string
	Keywords    []string // stored as a JSON array
	Content     string   // extracted full article body, may be empty
	ContentHash string
	PublishedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Episode struct {
	ID           string
	Title        string
	Status       EpisodeStatus
	IntroAssetID string
	OutroAssetID string
	BGMAssetID   string
	BGMVolume    int // 0-100
	Version      int64
	CreatedAt    time.Time
	PublishedAt  *time.Time
	UpdatedAt    time.Time
}

// EpisodeNewsLink joins an episode to a news item and carries the per-item
// production state. Script and AudioURL use '' for "not generated yet";
// DurationSeconds is nil exactly when no audio exists.
type EpisodeNewsLink struct {
	ID              string
	EpisodeID       string
	NewsID          string
	Position        int
	Status          LinkStatus
	InflightOp      InflightOp
	OpID            string // correlation id of the in-flight generation call
	Prompt          string
	Script          string
	AudioURL        string
	DurationSeconds *int
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Segment is one entry in an episode's assembly order. News segments point at
// a link; intro/outro segments point at a library asset.
type Segment struct {
	ID        string
	EpisodeID string
	Kind      SegmentKind
	LinkID    string
	AssetID   string
	Position  int
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
