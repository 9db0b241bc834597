package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zyjarge/podcast-studio/app/database"
)

// Operation identifies one in-flight generation call. Results are matched
// back through the correlation id, so a late or superseded completion is
// recognized and dropped instead of clobbering newer state.
type Operation struct {
	ID      string
	LinkID  string
	Kind    database.InflightOp
	VoiceID string
}

// Engine drives episode news links through the production state machine:
// pending -> generating -> script_done -> generating -> audio_done, with
// error as the retryable failure state.
type Engine struct {
	episodes database.EpisodeRepository
	links    database.LinkRepository
	news     database.NewsRepository
	segments database.SegmentRepository
	scripts  ScriptGenerator
	speech   SpeechSynthesizer

	defaultVoiceID string
	timeout        time.Duration

	mu      sync.Mutex
	batches map[string]context.CancelFunc
}

func NewEngine(episodes database.EpisodeRepository, links database.LinkRepository,
	news database.NewsRepository, segments database.SegmentRepository,
	scripts ScriptGenerator, speech SpeechSynthesizer,
	defaultVoiceID string, timeout time.Duration) *Engine {
	return &Engine{
		episodes:       episodes,
		links:          links,
		news:           news,
		segments:       segments,
		scripts:        scripts,
		speech:         speech,
		defaultVoiceID: defaultVoiceID,
		timeout:        timeout,
		batches:        make(map[string]context.CancelFunc),
	}
}

// BeginScript validates the generate_script guards and claims the link.
// Allowed from pending, script_done (operator regenerate), and error when no
// script was produced yet.
func (e *Engine) BeginScript(linkID string) (*database.EpisodeNewsLink, *Operation, error) {
	link, err := e.links.GetLink(linkID)
	if err != nil {
		return nil, nil, err
	}
	if link == nil {
		return nil, nil, &NotFoundError{Kind: "link", ID: linkID}
	}

	switch link.Status {
	case database.LinkStatusGenerating:
		return nil, nil, NewConflictError("link %s already has a %s generation in flight", linkID, link.InflightOp)
	case database.LinkStatusPending, database.LinkStatusScriptDone:
	case database.LinkStatusError:
		if link.Script != "" {
			return nil, nil, NewValidationError("link %s failed during audio generation; retry audio instead", linkID)
		}
	default:
		return nil, nil, NewValidationError("cannot generate script for link %s in status %s", linkID, link.Status)
	}

	op := &Operation{ID: uuid.NewString(), LinkID: linkID, Kind: database.InflightScript}

	claimed, err := e.links.BeginOperation(linkID, database.InflightScript, op.ID)
	if err != nil {
		return nil, nil, err
	}
	if claimed == nil {
		return nil, nil, NewConflictError("link %s already has a generation in flight", linkID)
	}

	e.markEditing(link.EpisodeID)

	return claimed, op, nil
}

// RunScript performs the remote script generation call for a claimed
// operation and resolves the link accordingly.
func (e *Engine) RunScript(ctx context.Context, op *Operation) error {
	link, err := e.links.GetLink(op.LinkID)
	if err != nil {
		return err
	}
	if link == nil || link.OpID != op.ID {
		slog.Debug("Script operation superseded before execution", "op_id", op.ID, "link", op.LinkID)
		return nil
	}

	item, err := e.news.GetNewsItem(link.NewsID)
	if err != nil {
		return err
	}
	if item == nil {
		_, _ = e.links.FailOperation(op.ID, "news item no longer exists")
		return &NotFoundError{Kind: "news item", ID: link.NewsID}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	script, err := e.scripts.GenerateScript(callCtx, ScriptRequest{
		Title:    item.Title,
		Summary:  item.Summary,
		Content:  item.Content,
		Keywords: item.Keywords,
		Prompt:   link.Prompt,
	})
	if err != nil {
		message := upstreamMessage("script generation", callCtx, err)
		if _, failErr := e.links.FailOperation(op.ID, message); failErr != nil {
			return failErr
		}
		return &UpstreamError{Operation: "script generation", Err: err}
	}

	resolved, err := e.links.CompleteScript(op.ID, script)
	if err != nil {
		return err
	}
	if resolved == nil {
		slog.Debug("Dropping superseded script result", "op_id", op.ID, "link", op.LinkID)
		return nil
	}

	slog.Info("Script generated", "link", op.LinkID, "chars", len(script))
	return nil
}

// BeginAudio validates the generate_audio guards and claims the link. Allowed
// from script_done, audio_done (regenerate; the old audio stays servable until
// replaced), and error when a script already exists.
func (e *Engine) BeginAudio(linkID, voiceID string) (*database.EpisodeNewsLink, *Operation, error) {
	link, err := e.links.GetLink(linkID)
	if err != nil {
		return nil, nil, err
	}
	if link == nil {
		return nil, nil, &NotFoundError{Kind: "link", ID: linkID}
	}

	if link.Status == database.LinkStatusGenerating {
		return nil, nil, NewConflictError("link %s already has a %s generation in flight", linkID, link.InflightOp)
	}
	if link.Script == "" {
		return nil, nil, NewValidationError("link %s has no script; generate one first", linkID)
	}
	switch link.Status {
	case database.LinkStatusScriptDone, database.LinkStatusAudioDone, database.LinkStatusError:
	default:
		return nil, nil, NewValidationError("cannot generate audio for link %s in status %s", linkID, link.Status)
	}

	if voiceID == "" {
		voiceID = e.defaultVoiceID
	}

	op := &Operation{ID: uuid.NewString(), LinkID: linkID, Kind: database.InflightAudio, VoiceID: voiceID}

	claimed, err := e.links.BeginOperation(linkID, database.InflightAudio, op.ID)
	if err != nil {
		return nil, nil, err
	}
	if claimed == nil {
		return nil, nil, NewConflictError("link %s already has a generation in flight", linkID)
	}

	e.markEditing(link.EpisodeID)

	return claimed, op, nil
}

// RunAudio performs the remote synthesis call for a claimed operation.
func (e *Engine) RunAudio(ctx context.Context, op *Operation) error {
	link, err := e.links.GetLink(op.LinkID)
	if err != nil {
		return err
	}
	if link == nil || link.OpID != op.ID {
		slog.Debug("Audio operation superseded before execution", "op_id", op.ID, "link", op.LinkID)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := e.speech.Synthesize(callCtx, link.Script, op.VoiceID)
	if err != nil {
		message := upstreamMessage("audio synthesis", callCtx, err)
		if _, failErr := e.links.FailOperation(op.ID, message); failErr != nil {
			return failErr
		}
		return &UpstreamError{Operation: "audio synthesis", Err: err}
	}

	resolved, err := e.links.CompleteAudio(op.ID, result.AudioURL, result.DurationSeconds)
	if err != nil {
		return err
	}
	if resolved == nil {
		slog.Debug("Dropping superseded audio result", "op_id", op.ID, "link", op.LinkID)
		return nil
	}

	slog.Info("Audio generated", "link", op.LinkID, "duration_seconds", result.DurationSeconds, "voice", op.VoiceID)
	return nil
}

// EditScript is the operator's manual override. Only valid once a script
// exists; resets the link to script_done and discards stale audio.
func (e *Engine) EditScript(linkID, script string) (*database.EpisodeNewsLink, error) {
	link, err := e.links.GetLink(linkID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, &NotFoundError{Kind: "link", ID: linkID}
	}
	if link.Status == database.LinkStatusGenerating {
		return nil, NewConflictError("link %s has a generation in flight", linkID)
	}
	if link.Script == "" {
		return nil, NewValidationError("link %s has no script to edit", linkID)
	}
	if script == "" {
		return nil, NewValidationError("script must not be empty")
	}

	updated, err := e.links.SetScript(linkID, script)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &NotFoundError{Kind: "link", ID: linkID}
	}

	e.markEditing(link.EpisodeID)

	return updated, nil
}

// GenerateAll runs the batch pipeline for an episode: strictly sequential in
// position order, one failing link never blocks the rest. At most one batch
// per episode may run at a time.
func (e *Engine) GenerateAll(ctx context.Context, episodeID string) error {
	episode, err := e.episodes.GetEpisode(episodeID)
	if err != nil {
		return err
	}
	if episode == nil {
		return &NotFoundError{Kind: "episode", ID: episodeID}
	}

	batchCtx, cancel, err := e.registerBatch(ctx, episodeID)
	if err != nil {
		return err
	}
	defer e.unregisterBatch(episodeID, cancel)

	links, err := e.links.ListLinks(episodeID)
	if err != nil {
		return err
	}

	completed := 0
	failed := 0
	skipped := 0

	for _, link := range links {
		if batchCtx.Err() != nil {
			slog.Info("Batch generation cancelled", "episode", episodeID, "completed", completed, "failed", failed)
			return nil
		}

		switch link.Status {
		case database.LinkStatusAudioDone:
			skipped++
			continue
		case database.LinkStatusGenerating:
			// An ad-hoc operation owns this link right now; leave it alone.
			skipped++
			continue
		}

		if err := e.generateLink(batchCtx, link); err != nil {
			failed++
			slog.Warn("Batch link generation failed", "episode", episodeID, "link", link.ID, "error", err)
			continue
		}
		completed++
	}

	slog.Info("Batch generation finished",
		"episode", episodeID,
		"completed", completed,
		"failed", failed,
		"skipped", skipped,
		"total", len(links))

	return nil
}

// generateLink runs the full script-then-audio sequence for one link,
// advancing only on success.
func (e *Engine) generateLink(ctx context.Context, link database.EpisodeNewsLink) error {
	if link.Script == "" {
		_, op, err := e.BeginScript(link.ID)
		if err != nil {
			return err
		}
		if err := e.RunScript(ctx, op); err != nil {
			return err
		}
	}

	_, op, err := e.BeginAudio(link.ID, e.defaultVoiceID)
	if err != nil {
		return err
	}
	return e.RunAudio(ctx, op)
}

// FailClaim releases a claimed operation that never ran, e.g. when the task
// queue rejected it. The link lands in the error state so the operator sees a
// retry affordance instead of a stuck 'generating'.
func (e *Engine) FailClaim(op *Operation, message string) (*database.EpisodeNewsLink, error) {
	return e.links.FailOperation(op.ID, message)
}

// CancelBatch stops scheduling new link operations for an episode's running
// batch. In-flight remote calls resolve on their own.
func (e *Engine) CancelBatch(episodeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	cancel, ok := e.batches[episodeID]
	if !ok {
		return false
	}
	cancel()
	delete(e.batches, episodeID)
	return true
}

// BatchRunning reports whether a generate-all batch is active for the episode.
func (e *Engine) BatchRunning(episodeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.batches[episodeID]
	return ok
}

func (e *Engine) registerBatch(ctx context.Context, episodeID string) (context.Context, context.CancelFunc, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.batches[episodeID]; ok {
		return nil, nil, NewConflictError("episode %s already has a batch generation running", episodeID)
	}

	batchCtx, cancel := context.WithCancel(ctx)
	e.batches[episodeID] = cancel
	return batchCtx, cancel, nil
}

func (e *Engine) unregisterBatch(episodeID string, cancel context.CancelFunc) {
	cancel()
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.batches, episodeID)
}

// markEditing moves a draft episode to editing the first time a link is
// touched. Publishing remains an explicit operator action.
func (e *Engine) markEditing(episodeID string) {
	episode, err := e.episodes.GetEpisode(episodeID)
	if err != nil || episode == nil {
		return
	}
	if episode.Status != database.EpisodeStatusDraft {
		return
	}
	if err := e.episodes.SetEpisodeStatus(episodeID, database.EpisodeStatusEditing, nil); err != nil {
		slog.Warn("Failed to mark episode as editing", "episode", episodeID, "error", err)
	}
}

func upstreamMessage(operation string, ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("%s timed out", operation)
	}
	return fmt.Sprintf("%s failed: %v", operation, err)
}
