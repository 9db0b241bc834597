package api

import (
	"net/http"
	"time"

	"github.com/zyjarge/podcast-studio/app/assets"
	"github.com/zyjarge/podcast-studio/app/database"
	"github.com/zyjarge/podcast-studio/app/ingest"
	"github.com/zyjarge/podcast-studio/app/pipeline"
	"github.com/zyjarge/podcast-studio/app/sequencer"
	"github.com/zyjarge/podcast-studio/app/tasks"
)

type Handler struct {
	sourceRepo  database.SourceRepository
	newsRepo    database.NewsRepository
	episodeRepo database.EpisodeRepository
	linkRepo    database.LinkRepository
	engine      *pipeline.Engine
	sequencer   *sequencer.Service
	assetCache  *assets.Cache
	scheduler   tasks.TaskSchedulerInterface
	httpClient  *http.Client
	parser      *ingest.Parser
	extractor   *ingest.ContentExtractor
	userAgent   string
}

type createSourceRequest struct {
	Name     string `json:"name" binding:"required"`
	URL      string `json:"url" binding:"required"`
	Enabled  *bool  `json:"enabled"`
	AutoMode *bool  `json:"auto_mode"`
}

type updateSourceRequest struct {
	Name     *string `json:"name"`
	URL      *string `json:"url"`
	Enabled  *bool   `json:"enabled"`
	AutoMode *bool   `json:"auto_mode"`
}

type fetchNewsRequest struct {
	SourceID string `json:"source_id"`
}

type createEpisodeRequest struct {
	Title string `json:"title"`
}

type updateEpisodeRequest struct {
	Title        *string `json:"title"`
	Status       *string `json:"status"`
	IntroAssetID *string `json:"intro_asset_id"`
	OutroAssetID *string `json:"outro_asset_id"`
	BGMAssetID   *string `json:"bgm_asset_id"`
	BGMVolume    *int    `json:"bgm_volume"`
	Version      int64   `json:"version"`
}

type attachNewsRequest struct {
	NewsIDs []string `json:"news_ids" binding:"required"`
	Prompt  string   `json:"prompt"`
}

type reorderLinksRequest struct {
	Orders []pipeline.LinkOrder `json:"orders" binding:"required"`
}

type updateLinkRequest struct {
	Prompt *string `json:"prompt"`
	Script *string `json:"script"`
}

type reorderSegmentRequest struct {
	SegmentID string `json:"segment_id" binding:"required"`
	NewIndex  int    `json:"new_index"`
}

type sourceResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	Enabled       bool       `json:"enabled"`
	AutoMode      bool       `json:"auto_mode"`
	LastFetchedAt *time.Time `json:"last_fetched_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toSourceResponse(s database.Source) sourceResponse {
	return sourceResponse{
		ID:            s.ID,
		Name:          s.Name,
		URL:           s.URL,
		Enabled:       s.Enabled,
		AutoMode:      s.AutoMode,
		LastFetchedAt: s.LastFetchedAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

type newsResponse struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	SourceName  string    `json:"source_name"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Keywords    []string  `json:"keywords"`
	HasContent  bool      `json:"has_content"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func toNewsResponse(n database.NewsItem) newsResponse {
	return newsResponse{
		ID:          n.ID,
		SourceID:    n.SourceID,
		SourceName:  n.SourceName,
		Title:       n.Title,
		Summary:     n.Summary,
		URL:         n.URL,
		Keywords:    n.Keywords,
		HasContent:  n.Content != "",
		PublishedAt: n.PublishedAt,
		CreatedAt:   n.CreatedAt,
	}
}

type episodeResponse struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Status       database.EpisodeStatus `json:"status"`
	IntroAssetID string                 `json:"intro_asset_id,omitempty"`
	OutroAssetID string                 `json:"outro_asset_id,omitempty"`
	BGMAssetID   string                 `json:"bgm_asset_id,omitempty"`
	BGMVolume    int                    `json:"bgm_volume"`
	Version      int64                  `json:"version"`
	Progress     pipeline.Progress      `json:"progress"`
	CreatedAt    time.Time              `json:"created_at"`
	PublishedAt  *time.Time             `json:"published_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func toEpisodeResponse(e database.Episode, progress pipeline.Progress) episodeResponse {
	return episodeResponse{
		ID:           e.ID,
		Title:        e.Title,
		Status:       e.Status,
		IntroAssetID: e.IntroAssetID,
		OutroAssetID: e.OutroAssetID,
		BGMAssetID:   e.BGMAssetID,
		BGMVolume:    e.BGMVolume,
		Version:      e.Version,
		Progress:     progress,
		CreatedAt:    e.CreatedAt,
		PublishedAt:  e.PublishedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

type linkResponse struct {
	ID              string              `json:"id"`
	EpisodeID       string              `json:"episode_id"`
	NewsID          string              `json:"news_id"`
	Position        int                 `json:"position"`
	Status          database.LinkStatus `json:"status"`
	Prompt          string              `json:"prompt,omitempty"`
	Script          string              `json:"script,omitempty"`
	AudioURL        string              `json:"audio_url,omitempty"`
	DurationSeconds *int                `json:"duration_seconds"`
	ErrorMessage    string              `json:"error_message,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toLinkResponse(l database.EpisodeNewsLink) linkResponse {
	return linkResponse{
		ID:              l.ID,
		EpisodeID:       l.EpisodeID,
		NewsID:          l.NewsID,
		Position:        l.Position,
		Status:          l.Status,
		Prompt:          l.Prompt,
		Script:          l.Script,
		AudioURL:        l.AudioURL,
		DurationSeconds: l.DurationSeconds,
		ErrorMessage:    l.ErrorMessage,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func toLinkResponses(links []database.EpisodeNewsLink) []linkResponse {
	out := make([]linkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, toLinkResponse(link))
	}
	return out
}
