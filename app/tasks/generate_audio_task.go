package tasks

import (
	"context"
	"log/slog"

	"github.com/zyjarge/podcast-studio/app/pipeline"
)

// GenerateAudioTask runs a speech synthesis operation that the API handler
// already claimed.
type GenerateAudioTask struct {
	Task
	engine *pipeline.Engine
	op     *pipeline.Operation
}

func NewGenerateAudioTask(engine *pipeline.Engine, op *pipeline.Operation) *GenerateAudioTask {
	task := NewTask(TaskTypeGenerateAudio, op.LinkID)
	task.MaxRetries = 0

	return &GenerateAudioTask{
		Task:   task,
		engine: engine,
		op:     op,
	}
}

func (t *GenerateAudioTask) Execute(ctx context.Context) error {
	if err := t.engine.RunAudio(ctx, t.op); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"link", t.op.LinkID,
		"voice", t.op.VoiceID,
		"duration", t.GetDuration())

	return nil
}
