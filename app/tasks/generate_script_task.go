package tasks

import (
	"context"
	"log/slog"

	"github.com/zyjarge/podcast-studio/app/pipeline"
)

// GenerateScriptTask runs a script generation operation that the API handler
// already claimed. The claim is not retryable here: a failed call lands the
// link in the error state and the operator decides whether to retry.
type GenerateScriptTask struct {
	Task
	engine *pipeline.Engine
	op     *pipeline.Operation
}

func NewGenerateScriptTask(engine *pipeline.Engine, op *pipeline.Operation) *GenerateScriptTask {
	task := NewTask(TaskTypeGenerateScript, op.LinkID)
	task.MaxRetries = 0

	return &GenerateScriptTask{
		Task:   task,
		engine: engine,
		op:     op,
	}
}

func (t *GenerateScriptTask) Execute(ctx context.Context) error {
	if err := t.engine.RunScript(ctx, t.op); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"link", t.op.LinkID,
		"duration", t.GetDuration())

	return nil
}
