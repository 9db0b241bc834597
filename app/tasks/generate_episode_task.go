package tasks

import (
	"context"
	"log/slog"

	"github.com/zyjarge/podcast-studio/app/pipeline"
)

// GenerateEpisodeTask runs the sequential generate-all batch for an episode.
// The engine enforces at most one running batch per episode, so a duplicate
// enqueue resolves as a conflict rather than doubled work.
type GenerateEpisodeTask struct {
	Task
	engine    *pipeline.Engine
	episodeID string
}

func NewGenerateEpisodeTask(engine *pipeline.Engine, episodeID string) *GenerateEpisodeTask {
	task := NewTask(TaskTypeGenerateEpisode, episodeID)
	task.MaxRetries = 0

	return &GenerateEpisodeTask{
		Task:      task,
		engine:    engine,
		episodeID: episodeID,
	}
}

func (t *GenerateEpisodeTask) Execute(ctx context.Context) error {
	if err := t.engine.GenerateAll(ctx, t.episodeID); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"episode", t.episodeID,
		"duration", t.GetDuration())

	return nil
}
