package pipeline

import (
	"math"

	"github.com/zyjarge/podcast-studio/app/database"
)

// Progress is the episode-level read-only projection over its links. Never
// stored; always derived.
type Progress struct {
	Total            int  `json:"total"`
	Completed        int  `json:"completed"`
	Percent          int  `json:"percent"`
	ReadyToIntegrate bool `json:"ready_to_integrate"`
}

// ComputeProgress derives completion state from a link list.
func ComputeProgress(links []database.EpisodeNewsLink) Progress {
	p := Progress{Total: len(links)}
	for _, link := range links {
		if link.Status == database.LinkStatusAudioDone {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(100 * float64(p.Completed) / float64(p.Total)))
		p.ReadyToIntegrate = p.Completed == p.Total
	}
	return p
}

// ValidateStatusChange enforces the forward-only episode lifecycle:
// draft <-> editing may move freely, published is terminal.
func ValidateStatusChange(current, next database.EpisodeStatus) error {
	if current == next {
		return nil
	}
	if current == database.EpisodeStatusPublished {
		return NewValidationError("episode is already published")
	}
	switch next {
	case database.EpisodeStatusDraft, database.EpisodeStatusEditing, database.EpisodeStatusPublished:
		return nil
	default:
		return NewValidationError("unknown episode status %q", next)
	}
}
