package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zyjarge/podcast-studio/app/database"
	"github.com/zyjarge/podcast-studio/app/pipeline"
	"github.com/zyjarge/podcast-studio/app/sequencer"
	"github.com/zyjarge/podcast-studio/app/tasks"
)

type episodeDetailResponse struct {
	episodeResponse
	Links []linkResponse `json:"links"`
}

func (h *Handler) ListEpisodes(c *gin.Context) {
	episodes, err := h.episodeRepo.ListEpisodes()
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]episodeResponse, 0, len(episodes))
	for _, episode := range episodes {
		progress, err := h.episodeProgress(episode.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		out = append(out, toEpisodeResponse(episode, progress))
	}

	c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateEpisode(c *gin.Context) {
	var req createEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Episode %s", time.Now().Format("2006-01-02"))
	}

	episode, err := h.episodeRepo.CreateEpisode(title)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toEpisodeResponse(*episode, pipeline.Progress{}))
}

func (h *Handler) GetEpisode(c *gin.Context) {
	episode, err := h.episodeRepo.GetEpisode(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if episode == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "episode", ID: c.Param("id")})
		return
	}

	links, err := h.linkRepo.ListLinks(episode.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, episodeDetailResponse{
		episodeResponse: toEpisodeResponse(*episode, pipeline.ComputeProgress(links)),
		Links:           toLinkResponses(links),
	})
}

func (h *Handler) UpdateEpisode(c *gin.Context) {
	var req updateEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	episode, err := h.episodeRepo.GetEpisode(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if episode == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "episode", ID: c.Param("id")})
		return
	}

	for _, assetID := range []*string{req.IntroAssetID, req.OutroAssetID, req.BGMAssetID} {
		if assetID != nil && *assetID != "" && !h.assetCache.HasAsset(*assetID) {
			respondError(c, pipeline.NewValidationError("unknown asset id %q", *assetID))
			return
		}
	}
	if req.BGMVolume != nil && (*req.BGMVolume < 0 || *req.BGMVolume > 100) {
		respondError(c, pipeline.NewValidationError("bgm_volume must be between 0 and 100"))
		return
	}

	var nextStatus *database.EpisodeStatus
	if req.Status != nil {
		status := database.EpisodeStatus(*req.Status)
		if err := pipeline.ValidateStatusChange(episode.Status, status); err != nil {
			respondError(c, err)
			return
		}
		if status != episode.Status {
			nextStatus = &status
		}
	}

	updated, err := h.episodeRepo.UpdateEpisode(episode.ID, req.Version, database.EpisodeUpdate{
		Title:        req.Title,
		IntroAssetID: req.IntroAssetID,
		OutroAssetID: req.OutroAssetID,
		BGMAssetID:   req.BGMAssetID,
		BGMVolume:    req.BGMVolume,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if updated == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "episode", ID: episode.ID})
		return
	}

	// Keep the segment order in sync with the intro/outro selection.
	if req.IntroAssetID != nil {
		if err := h.sequencer.SyncIntro(episode.ID, *req.IntroAssetID); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.OutroAssetID != nil {
		if err := h.sequencer.SyncOutro(episode.ID, *req.OutroAssetID); err != nil {
			respondError(c, err)
			return
		}
	}

	if nextStatus != nil {
		var publishedAt *time.Time
		if *nextStatus == database.EpisodeStatusPublished {
			now := time.Now().UTC()
			publishedAt = &now
		}
		if err := h.episodeRepo.SetEpisodeStatus(episode.ID, *nextStatus, publishedAt); err != nil {
			respondError(c, err)
			return
		}
	}

	final, err := h.episodeRepo.GetEpisode(episode.ID)
	if err != nil || final == nil {
		respondError(c, err)
		return
	}

	progress, err := h.episodeProgress(final.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEpisodeResponse(*final, progress))
}

func (h *Handler) DeleteEpisode(c *gin.Context) {
	episode, err := h.episodeRepo.GetEpisode(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if episode == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "episode", ID: c.Param("id")})
		return
	}

	if err := h.episodeRepo.DeleteEpisode(episode.ID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListEpisodeNews(c *gin.Context) {
	episode, err := h.episodeRepo.GetEpisode(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if episode == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "episode", ID: c.Param("id")})
		return
	}

	links, err := h.linkRepo.ListLinks(episode.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"links":    toLinkResponses(links),
		"progress": pipeline.ComputeProgress(links),
	})
}

func (h *Handler) AttachEpisodeNews(c *gin.Context) {
	var req attachNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	links, err := h.engine.AttachNews(c.Param("id"), req.NewsIDs, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toLinkResponses(links))
}

func (h *Handler) ReorderEpisodeNews(c *gin.Context) {
	var req reorderLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	links, err := h.engine.ReorderLinks(c.Param("id"), req.Orders)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLinkResponses(links))
}

func (h *Handler) UpdateEpisodeNewsLink(c *gin.Context) {
	var req updateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Prompt == nil && req.Script == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "nothing to update: provide prompt or script"})
		return
	}

	link, ok := h.episodeLink(c)
	if !ok {
		return
	}

	if req.Prompt != nil {
		updated, err := h.engine.UpdatePrompt(link.ID, *req.Prompt)
		if err != nil {
			respondError(c, err)
			return
		}
		link = updated
	}

	if req.Script != nil {
		updated, err := h.engine.EditScript(link.ID, *req.Script)
		if err != nil {
			respondError(c, err)
			return
		}
		link = updated
	}

	c.JSON(http.StatusOK, toLinkResponse(*link))
}

func (h *Handler) RemoveEpisodeNewsLink(c *gin.Context) {
	link, ok := h.episodeLink(c)
	if !ok {
		return
	}

	if err := h.engine.RemoveLink(link.ID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GenerateScript claims the link synchronously so guard violations surface as
// request errors, then hands the remote call to a background worker.
func (h *Handler) GenerateScript(c *gin.Context) {
	link, ok := h.episodeLink(c)
	if !ok {
		return
	}

	claimed, op, err := h.engine.BeginScript(link.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.scheduler.EnqueueTask(tasks.NewGenerateScriptTask(h.engine, op)); err != nil {
		_, _ = h.engine.FailClaim(op, "task queue is full")
		respondError(c, pipeline.NewConflictError("task queue is full, try again later"))
		return
	}

	c.JSON(http.StatusAccepted, toLinkResponse(*claimed))
}

func (h *Handler) GenerateAudio(c *gin.Context) {
	link, ok := h.episodeLink(c)
	if !ok {
		return
	}

	voiceID := c.Query("voice_id")
	if voice, found := h.assetCache.GetVoice(voiceID); found {
		voiceID = voice.ProviderVoice
	}

	claimed, op, err := h.engine.BeginAudio(link.ID, voiceID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.scheduler.EnqueueTask(tasks.NewGenerateAudioTask(h.engine, op)); err != nil {
		_, _ = h.engine.FailClaim(op, "task queue is full")
		respondError(c, pipeline.NewConflictError("task queue is full, try again later"))
		return
	}

	c.JSON(http.StatusAccepted, toLinkResponse(*claimed))
}

func (h *Handler) GenerateAll(c *gin.Context) {
	episode, err := h.episodeRepo.GetEpisode(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if episode == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "episode", ID: c.Param("id")})
		return
	}

	if h.engine.BatchRunning(episode.ID) {
		respondError(c, pipeline.NewConflictError("episode %s already has a batch generation running", episode.ID))
		return
	}

	if err := h.scheduler.EnqueueTask(tasks.NewGenerateEpisodeTask(h.engine, episode.ID)); err != nil {
		respondError(c, pipeline.NewConflictError("task queue is full, try again later"))
		return
	}

	progress, err := h.episodeProgress(episode.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"detail":   "batch generation started",
		"progress": progress,
	})
}

func (h *Handler) CancelGenerateAll(c *gin.Context) {
	if !h.engine.CancelBatch(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "no batch generation running for this episode"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (h *Handler) ListSegments(c *gin.Context) {
	episode, err := h.episodeRepo.GetEpisode(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if episode == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "episode", ID: c.Param("id")})
		return
	}

	views, err := h.sequencer.List(episode.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{"segments": views}
	if total, err := sequencer.ComputeTotalDuration(views); err == nil {
		response["total_duration_seconds"] = total
		response["total_duration"] = sequencer.FormatClock(total)
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) ReorderSegment(c *gin.Context) {
	var req reorderSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	views, err := h.sequencer.Reorder(c.Param("id"), req.SegmentID, req.NewIndex)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"segments": views})
}

func (h *Handler) ToggleSegment(c *gin.Context) {
	view, err := h.sequencer.Toggle(c.Param("id"), c.Param("segmentId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetAssemblyPlan(c *gin.Context) {
	episode, err := h.episodeRepo.GetEpisode(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if episode == nil {
		respondError(c, &pipeline.NotFoundError{Kind: "episode", ID: c.Param("id")})
		return
	}

	plan, err := h.sequencer.BuildAssemblyPlan(episode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// episodeLink resolves the :linkId parameter and verifies it belongs to the
// :id episode. Writes the error response itself when the lookup fails.
func (h *Handler) episodeLink(c *gin.Context) (*database.EpisodeNewsLink, bool) {
	link, err := h.linkRepo.GetLink(c.Param("linkId"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if link == nil || link.EpisodeID != c.Param("id") {
		respondError(c, &pipeline.NotFoundError{Kind: "link", ID: c.Param("linkId")})
		return nil, false
	}
	return link, true
}

func (h *Handler) episodeProgress(episodeID string) (pipeline.Progress, error) {
	links, err := h.linkRepo.ListLinks(episodeID)
	if err != nil {
		return pipeline.Progress{}, err
	}
	return pipeline.ComputeProgress(links), nil
}
