package pipeline

import (
	"testing"

	"github.com/zyjarge/podcast-studio/app/database"
)

func linksWithStatuses(statuses ...database.LinkStatus) []database.EpisodeNewsLink {
	links := make([]database.EpisodeNewsLink, len(statuses))
	for i, status := range statuses {
		links[i] = database.EpisodeNewsLink{ID: string(rune('a' + i)), Status: status}
	}
	return links
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []database.LinkStatus
		percent   int
		completed int
		ready     bool
	}{
		{
			name:     "empty episode",
			statuses: nil,
			percent:  0,
			ready:    false,
		},
		{
			name:     "nothing generated",
			statuses: []database.LinkStatus{database.LinkStatusPending, database.LinkStatusScriptDone},
			percent:  0,
		},
		{
			name: "one of three rounds to 33",
			statuses: []database.LinkStatus{
				database.LinkStatusAudioDone,
				database.LinkStatusPending,
				database.LinkStatusPending,
			},
			percent:   33,
			completed: 1,
		},
		{
			name: "two of three rounds to 67",
			statuses: []database.LinkStatus{
				database.LinkStatusAudioDone,
				database.LinkStatusAudioDone,
				database.LinkStatusError,
			},
			percent:   67,
			completed: 2,
		},
		{
			name: "all complete",
			statuses: []database.LinkStatus{
				database.LinkStatusAudioDone,
				database.LinkStatusAudioDone,
			},
			percent:   100,
			completed: 2,
			ready:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ComputeProgress(linksWithStatuses(tt.statuses...))

			if p.Total != len(tt.statuses) {
				t.Errorf("Expected total %d, got %d", len(tt.statuses), p.Total)
			}
			if p.Completed != tt.completed {
				t.Errorf("Expected completed %d, got %d", tt.completed, p.Completed)
			}
			if p.Percent != tt.percent {
				t.Errorf("Expected percent %d, got %d", tt.percent, p.Percent)
			}
			if p.ReadyToIntegrate != tt.ready {
				t.Errorf("Expected ready_to_integrate %v, got %v", tt.ready, p.ReadyToIntegrate)
			}
		})
	}
}

func TestValidateStatusChange(t *testing.T) {
	tests := []struct {
		current database.EpisodeStatus
		next    database.EpisodeStatus
		wantErr bool
	}{
		{database.EpisodeStatusDraft, database.EpisodeStatusEditing, false},
		{database.EpisodeStatusEditing, database.EpisodeStatusDraft, false},
		{database.EpisodeStatusEditing, database.EpisodeStatusPublished, false},
		{database.EpisodeStatusDraft, database.EpisodeStatusPublished, false},
		{database.EpisodeStatusPublished, database.EpisodeStatusPublished, false},
		{database.EpisodeStatusPublished, database.EpisodeStatusEditing, true},
		{database.EpisodeStatusPublished, database.EpisodeStatusDraft, true},
		{database.EpisodeStatusDraft, database.EpisodeStatus("archived"), true},
	}

	for _, tt := range tests {
		err := ValidateStatusChange(tt.current, tt.next)
		if tt.wantErr && err == nil {
			t.Errorf("Expected error for %s -> %s, got nil", tt.current, tt.next)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("Expected %s -> %s to be allowed, got %v", tt.current, tt.next, err)
		}
	}
}
