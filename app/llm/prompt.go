package llm

import (
	"fmt"
	"strings"

	"github.com/zyjarge/podcast-studio/app/pipeline"
)

// defaultSystemPrompt defines the host persona used when a news link carries
// no custom prompt of its own.
const defaultSystemPrompt = `You are the scriptwriter for a two-host news podcast.

Style rules:
- The hosts alternate lines; mark each line with the speaker name in bold, e.g. **Host A:** and **Host B:**.
- Conversational and direct. No filler, no pleasantries, no "welcome back" boilerplate.
- Host A summarizes and frames; Host B challenges, asks sharp questions, and adds context.
- Keep the segment focused on a single news story. Around 400-800 words.
- End with a one-line takeaway, not a sign-off.`

func systemPrompt(custom string) string {
	if custom = strings.TrimSpace(custom); custom != "" {
		return custom
	}
	return defaultSystemPrompt
}

func userPrompt(req pipeline.ScriptRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s\n", strings.TrimSpace(req.Title))
	if summary := strings.TrimSpace(req.Summary); summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", summary)
	}
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(req.Keywords, ", "))
	}
	if content := strings.TrimSpace(req.Content); content != "" {
		fmt.Fprintf(&b, "\nArticle:\n%s\n", content)
	}
	b.WriteString("\nWrite the podcast dialogue script for this story.")

	return b.String()
}
