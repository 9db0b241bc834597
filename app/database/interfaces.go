package database

import (
	"time"
)

type SourceUpdate struct {
	Name     *string
	URL      *string
	Enabled  *bool
	AutoMode *bool
}

type EpisodeUpdate struct {
	Title        *string
	Status       *EpisodeStatus
	IntroAssetID *string
	OutroAssetID *string
	BGMAssetID   *string
	BGMVolume    *int
}

type LinkUpdate struct {
	Prompt *string
	Script *string
}

type SourceRepository interface {
	ListSources() ([]Source, error)
	GetSource(id string) (*Source, error)
	CreateSource(name, url string, enabled, autoMode bool) (*Source, error)
	UpdateSource(id string, upd SourceUpdate) (*Source, error)
	DeleteSource(id string) error
	ListEnabledSources() ([]Source, error)
	UpdateLastFetched(id string, fetchedAt time.Time) error
	GetSourceCount() (int, error)
}

type NewsRepository interface {
	ListNews(sourceID string, limit int) ([]NewsItem, error)
	GetNewsItem(id string) (*NewsItem, error)
	UpsertNewsItem(item NewsItem) (string, bool, error)
	UpdateContent(id string, content string) error
	GetNewsCount() (int, error)
}

type EpisodeRepository interface {
	ListEpisodes() ([]Episode, error)
	GetEpisode(id string) (*Episode, error)
	CreateEpisode(title string) (*Episode, error)
	// UpdateEpisode applies a compare-and-swap on the version column;
	// a zero expectedVersion skips the check.
	UpdateEpisode(id string, expectedVersion int64, upd EpisodeUpdate) (*Episode, error)
	SetEpisodeStatus(id string, status EpisodeStatus, publishedAt *time.Time) error
	DeleteEpisode(id string) error
	GetEpisodeCount() (int, error)
}

type LinkRepository interface {
	ListLinks(episodeID string) ([]EpisodeNewsLink, error)
	GetLink(id string) (*EpisodeNewsLink, error)
	CreateLink(episodeID, newsID string, position int, prompt string) (*EpisodeNewsLink, error)
	DeleteLink(id string) error
	HasLink(episodeID, newsID string) (bool, error)
	MaxPosition(episodeID string) (int, error)
	RepackPositions(episodeID string) error
	ReorderLinks(episodeID string, orders map[string]int) error
	UpdateLink(id string, upd LinkUpdate) (*EpisodeNewsLink, error)
	CountByStatus(episodeID string) (map[LinkStatus]int, error)

	// State machine primitives used by the pipeline engine. BeginOperation
	// is conditional on the link not already generating; the Complete/Fail
	// calls match on the operation's correlation id and return nil when the
	// result arrived late or was superseded.
	BeginOperation(linkID string, op InflightOp, opID string) (*EpisodeNewsLink, error)
	CompleteScript(opID string, script string) (*EpisodeNewsLink, error)
	CompleteAudio(opID string, audioURL string, durationSeconds int) (*EpisodeNewsLink, error)
	FailOperation(opID string, message string) (*EpisodeNewsLink, error)
	// SetScript is the operator's manual script edit: resets the link to
	// script_done and discards any previously generated audio.
	SetScript(id string, script string) (*EpisodeNewsLink, error)
}

type SegmentRepository interface {
	ListSegments(episodeID string) ([]Segment, error)
	GetSegment(id string) (*Segment, error)
	CreateSegment(seg Segment) error
	DeleteSegment(id string) error
	DeleteSegmentsByLink(linkID string) error
	SetSegmentEnabled(id string, enabled bool) (*Segment, error)
	ReorderSegments(episodeID string, orderedIDs []string) error
	RepackSegmentPositions(episodeID string) error
	// SyncAssetSegment creates, retargets, or removes the intro/outro
	// segment for an episode when the selected asset changes. Intro
	// segments are inserted first, outro segments last.
	SyncAssetSegment(episodeID string, kind SegmentKind, assetID string) error
}
