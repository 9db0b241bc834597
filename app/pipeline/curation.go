package pipeline

import (
	"github.com/zyjarge/podcast-studio/app/database"
)

// LinkOrder is one entry of a reorder request.
type LinkOrder struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// AttachNews links news items to an episode. Each new link starts pending at
// the end of the list; attaching an item that is already linked is a conflict.
// A news segment is appended for every link, kept ahead of the outro.
func (e *Engine) AttachNews(episodeID string, newsIDs []string, prompt string) ([]database.EpisodeNewsLink, error) {
	episode, err := e.episodes.GetEpisode(episodeID)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, &NotFoundError{Kind: "episode", ID: episodeID}
	}
	if len(newsIDs) == 0 {
		return nil, NewValidationError("no news ids provided")
	}

	for _, newsID := range newsIDs {
		item, err := e.news.GetNewsItem(newsID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, &NotFoundError{Kind: "news item", ID: newsID}
		}
		linked, err := e.links.HasLink(episodeID, newsID)
		if err != nil {
			return nil, err
		}
		if linked {
			return nil, NewConflictError("news item %s is already linked to episode %s", newsID, episodeID)
		}
	}

	for _, newsID := range newsIDs {
		maxPos, err := e.links.MaxPosition(episodeID)
		if err != nil {
			return nil, err
		}
		link, err := e.links.CreateLink(episodeID, newsID, maxPos+1, prompt)
		if err != nil {
			return nil, err
		}
		if err := e.appendNewsSegment(episodeID, link.ID); err != nil {
			return nil, err
		}
	}

	return e.links.ListLinks(episodeID)
}

// RemoveLink detaches a news item from its episode. The news item itself
// survives and becomes attachable again; remaining positions are repacked to
// stay contiguous.
func (e *Engine) RemoveLink(linkID string) error {
	link, err := e.links.GetLink(linkID)
	if err != nil {
		return err
	}
	if link == nil {
		return &NotFoundError{Kind: "link", ID: linkID}
	}

	if err := e.segments.DeleteSegmentsByLink(linkID); err != nil {
		return err
	}
	if err := e.links.DeleteLink(linkID); err != nil {
		return err
	}
	if err := e.links.RepackPositions(link.EpisodeID); err != nil {
		return err
	}
	return e.segments.RepackSegmentPositions(link.EpisodeID)
}

// ReorderLinks applies a new display ordering to an episode's links.
func (e *Engine) ReorderLinks(episodeID string, orders []LinkOrder) ([]database.EpisodeNewsLink, error) {
	links, err := e.links.ListLinks(episodeID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(links))
	for _, link := range links {
		known[link.ID] = struct{}{}
	}

	positions := make(map[string]int, len(orders))
	for _, order := range orders {
		if _, ok := known[order.ID]; !ok {
			return nil, &NotFoundError{Kind: "link", ID: order.ID}
		}
		positions[order.ID] = order.Position
	}

	if err := e.links.ReorderLinks(episodeID, positions); err != nil {
		return nil, err
	}
	if err := e.links.RepackPositions(episodeID); err != nil {
		return nil, err
	}

	return e.links.ListLinks(episodeID)
}

// UpdatePrompt edits the per-link generation prompt.
func (e *Engine) UpdatePrompt(linkID, prompt string) (*database.EpisodeNewsLink, error) {
	link, err := e.links.UpdateLink(linkID, database.LinkUpdate{Prompt: &prompt})
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, &NotFoundError{Kind: "link", ID: linkID}
	}
	return link, nil
}

// appendNewsSegment adds a segment for a fresh link, slotting it ahead of the
// outro when one exists.
func (e *Engine) appendNewsSegment(episodeID, linkID string) error {
	segments, err := e.segments.ListSegments(episodeID)
	if err != nil {
		return err
	}

	if err := e.segments.CreateSegment(database.Segment{
		EpisodeID: episodeID,
		Kind:      database.SegmentKindNews,
		LinkID:    linkID,
		Position:  len(segments),
		Enabled:   true,
	}); err != nil {
		return err
	}

	// Keep the outro last unless the operator explicitly moved it.
	if n := len(segments); n > 0 && segments[n-1].Kind == database.SegmentKindOutro {
		ordered := make([]string, 0, n+1)
		for _, seg := range segments[:n-1] {
			ordered = append(ordered, seg.ID)
		}
		created, err := e.segments.ListSegments(episodeID)
		if err != nil {
			return err
		}
		var newSegID string
		for _, seg := range created {
			if seg.LinkID == linkID {
				newSegID = seg.ID
				break
			}
		}
		ordered = append(ordered, newSegID, segments[n-1].ID)
		return e.segments.ReorderSegments(episodeID, ordered)
	}

	return nil
}
