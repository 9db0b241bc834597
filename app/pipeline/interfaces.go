package pipeline

import (
	"context"
)

// ScriptRequest carries everything the script generator needs for one news item.
type ScriptRequest struct {
	Title    string
	Summary  string
	Content  string
	Keywords []string
	Prompt   string
}

// ScriptGenerator produces dialogue text for a news item.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, req ScriptRequest) (string, error)
}

// SynthesisResult is the outcome of one text-to-speech call.
type SynthesisResult struct {
	AudioURL        string
	DurationSeconds int
}

// SpeechSynthesizer turns a script into audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, script, voiceID string) (SynthesisResult, error)
}
