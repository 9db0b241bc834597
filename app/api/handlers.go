package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zyjarge/podcast-studio/app/assets"
	"github.com/zyjarge/podcast-studio/app/cfg"
	"github.com/zyjarge/podcast-studio/app/database"
	"github.com/zyjarge/podcast-studio/app/ingest"
	"github.com/zyjarge/podcast-studio/app/pipeline"
	"github.com/zyjarge/podcast-studio/app/sequencer"
	"github.com/zyjarge/podcast-studio/app/tasks"
)

func NewHandler(sourceRepo database.SourceRepository, newsRepo database.NewsRepository,
	episodeRepo database.EpisodeRepository, linkRepo database.LinkRepository,
	engine *pipeline.Engine, seq *sequencer.Service, assetCache *assets.Cache,
	scheduler tasks.TaskSchedulerInterface, httpClient *http.Client,
	parser *ingest.Parser, extractor *ingest.ContentExtractor, userAgent string) *Handler {
	return &Handler{
		sourceRepo:  sourceRepo,
		newsRepo:    newsRepo,
		episodeRepo: episodeRepo,
		linkRepo:    linkRepo,
		engine:      engine,
		sequencer:   seq,
		assetCache:  assetCache,
		scheduler:   scheduler,
		httpClient:  httpClient,
		parser:      parser,
		extractor:   extractor,
		userAgent:   userAgent,
	}
}

// respondError maps domain errors to the HTTP taxonomy. Every failure payload
// carries a `detail` message.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *pipeline.ValidationError
		conflictErr   *pipeline.ConflictError
		notFoundErr   *pipeline.NotFoundError
		staleErr      *pipeline.StaleWriteError
		incompleteErr *pipeline.IncompleteSegmentError
		upstreamErr   *pipeline.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"detail": validationErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"detail": conflictErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"detail": notFoundErr.Error()})
	case errors.As(err, &staleErr), errors.Is(err, database.ErrVersionMismatch):
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
	case errors.As(err, &incompleteErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": incompleteErr.Error()})
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{"detail": upstreamErr.Error()})
	default:
		slog.Error("Unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.sourceRepo.ListSources()
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]sourceResponse, 0, len(sources))
	for _, source := range sources {
		out = append(out, toSourceResponse(source))
	}

	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetSource(c *gin.Context) {
	source, err := h.sourceRepo.GetSource(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if source == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "source", ID: c.Param("id")})
		return
	}

	c.JSON(http.StatusOK, toSourceResponse(*source))
}

func (h *Handler) CreateSource(c *gin.Context) {
	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	autoMode := false
	if req.AutoMode != nil {
		autoMode = *req.AutoMode
	}

	source, err := h.sourceRepo.CreateSource(req.Name, req.URL, enabled, autoMode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSourceResponse(*source))
}

func (h *Handler) UpdateSource(c *gin.Context) {
	var req updateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	source, err := h.sourceRepo.UpdateSource(c.Param("id"), database.SourceUpdate{
		Name:     req.Name,
		URL:      req.URL,
		Enabled:  req.Enabled,
		AutoMode: req.AutoMode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if source == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "source", ID: c.Param("id")})
		return
	}

	c.JSON(http.StatusOK, toSourceResponse(*source))
}

func (h *Handler) DeleteSource(c *gin.Context) {
	source, err := h.sourceRepo.GetSource(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if source == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "source", ID: c.Param("id")})
		return
	}

	if err := h.sourceRepo.DeleteSource(source.ID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListNews(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	items, err := h.newsRepo.ListNews(c.Query("source_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]newsResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toNewsResponse(item))
	}

	c.JSON(http.StatusOK, out)
}

// FetchNews triggers ingestion for one source or all enabled sources. The
// work runs on the background scheduler; the response only acknowledges the
// enqueue.
func (h *Handler) FetchNews(c *gin.Context) {
	var req fetchNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	var sources []database.Source
	if req.SourceID != "" {
		source, err := h.sourceRepo.GetSource(req.SourceID)
		if err != nil {
			respondError(c, err)
			return
		}
		if source == nil {
			respondError(c, &pipeline.NotFoundError{Kind: "source", ID: req.SourceID})
			return
		}
		sources = append(sources, *source)
	} else {
		enabled, err := h.sourceRepo.ListEnabledSources()
		if err != nil {
			respondError(c, err)
			return
		}
		sources = enabled
	}

	enqueued := 0
	for _, source := range sources {
		task := tasks.NewFetchNewsTask(source, h.httpClient, h.parser, h.extractor, h.sourceRepo, h.newsRepo, h.userAgent)
		if err := h.scheduler.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue FetchNewsTask", "source", source.Name, "error", err)
			continue
		}
		enqueued++
	}

	c.JSON(http.StatusAccepted, gin.H{"enqueued": enqueued})
}

// ParseRSS resolves a feed URL to its channel metadata so the dashboard can
// prefill the source name before saving it.
func (h *Handler) ParseRSS(c *gin.Context) {
	feedURL := c.Query("url")
	if feedURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "url query parameter is required"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), "GET", feedURL, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("invalid url: %v", err)})
		return
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"detail": fmt.Sprintf("failed to fetch feed: %v", err)})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusBadGateway, gin.H{"detail": fmt.Sprintf("feed returned HTTP %d", resp.StatusCode)})
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"detail": "failed to read feed body"})
		return
	}

	metadata, items, err := h.parser.Run(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": fmt.Sprintf("failed to parse feed: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title":       metadata.Title,
		"link":        metadata.Link,
		"description": metadata.Description,
		"language":    metadata.Language,
		"item_count":  len(items),
	})
}

func (h *Handler) ListAssets(c *gin.Context) {
	c.JSON(http.StatusOK, h.assetCache.GetLibrary())
}

// GetSettingsStatus reports which provider credentials are configured, so the
// dashboard can warn before the operator hits a generation error.
func (h *Handler) GetSettingsStatus(c *gin.Context) {
	appCfg := cfg.Get()

	c.JSON(http.StatusOK, gin.H{
		"deepseek_configured": appCfg.DeepSeekAPIKey != "",
		"minimax_configured":  appCfg.MiniMaxAPIKey != "",
		"default_voice_id":    appCfg.DefaultVoiceID,
		"version":             appCfg.Version,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}
	if episodeCount, err := h.episodeRepo.GetEpisodeCount(); err == nil {
		health["episodes"] = episodeCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		stats["sources"] = sourceCount
	}
	if newsCount, err := h.newsRepo.GetNewsCount(); err == nil {
		stats["news_items"] = newsCount
	}
	if episodeCount, err := h.episodeRepo.GetEpisodeCount(); err == nil {
		stats["episodes"] = episodeCount
	}

	library := h.assetCache.GetLibrary()
	stats["assets"] = len(library.Intros) + len(library.Outros) + len(library.Music)
	stats["voices"] = len(library.Voices)

	c.JSON(http.StatusOK, stats)
}
