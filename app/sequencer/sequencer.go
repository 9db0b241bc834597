package sequencer

import (
	"github.com/zyjarge/podcast-studio/app/database"
	"github.com/zyjarge/podcast-studio/app/pipeline"
)

// Service assembles the ordered segment list for an episode and computes the
// final render plan. It derives everything from the stores; nothing here is
// cached.
type Service struct {
	segments database.SegmentRepository
	links    database.LinkRepository
	news     database.NewsRepository
	assets   AssetResolver
}

func NewService(segments database.SegmentRepository, links database.LinkRepository,
	news database.NewsRepository, assets AssetResolver) *Service {
	return &Service{
		segments: segments,
		links:    links,
		news:     news,
		assets:   assets,
	}
}

// List returns the episode's segments in order, with titles and durations
// read through from the underlying links and assets.
func (s *Service) List(episodeID string) ([]SegmentView, error) {
	segments, err := s.segments.ListSegments(episodeID)
	if err != nil {
		return nil, err
	}

	views := make([]SegmentView, 0, len(segments))
	for _, seg := range segments {
		view, err := s.buildView(seg)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}

// Reorder moves a segment to the requested index among all segments of the
// episode, enabled or not. Moving a disabled segment is allowed; it has no
// audible effect until re-enabled.
func (s *Service) Reorder(episodeID, segmentID string, newIndex int) ([]SegmentView, error) {
	segments, err := s.segments.ListSegments(episodeID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(segments))
	current := -1
	for i, seg := range segments {
		if seg.ID == segmentID {
			current = i
		}
		ids = append(ids, seg.ID)
	}
	if current == -1 {
		return nil, &pipeline.NotFoundError{Kind: "segment", ID: segmentID}
	}

	ids = spliceOrder(ids, current, newIndex)

	if err := s.segments.ReorderSegments(episodeID, ids); err != nil {
		return nil, err
	}

	return s.List(episodeID)
}

// Toggle flips a segment's enabled flag without removing it from the order,
// so re-enabling restores its position.
func (s *Service) Toggle(episodeID, segmentID string) (*SegmentView, error) {
	seg, err := s.segments.GetSegment(segmentID)
	if err != nil {
		return nil, err
	}
	if seg == nil || seg.EpisodeID != episodeID {
		return nil, &pipeline.NotFoundError{Kind: "segment", ID: segmentID}
	}

	updated, err := s.segments.SetSegmentEnabled(segmentID, !seg.Enabled)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &pipeline.NotFoundError{Kind: "segment", ID: segmentID}
	}

	view, err := s.buildView(*updated)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// TotalDuration sums the durations of enabled segments in order. An enabled
// news segment without audio is an error precondition for assembly.
func (s *Service) TotalDuration(episodeID string) (int, string, error) {
	views, err := s.List(episodeID)
	if err != nil {
		return 0, "", err
	}

	total, err := ComputeTotalDuration(views)
	if err != nil {
		return 0, "", err
	}
	return total, FormatClock(total), nil
}

// ComputeTotalDuration is the pure summation over segment views: enabled
// segments only, failing when an enabled news segment lacks audio.
func ComputeTotalDuration(views []SegmentView) (int, error) {
	total := 0
	for _, view := range views {
		if !view.Enabled {
			continue
		}
		if view.DurationSeconds == nil {
			return 0, &pipeline.IncompleteSegmentError{SegmentID: view.ID, Title: view.Title}
		}
		total += *view.DurationSeconds
	}
	return total, nil
}

// BuildAssemblyPlan produces the ordered render plan for enabled segments
// plus the selected background music. It never partially emits a plan: the
// first incomplete enabled segment aborts the whole build.
func (s *Service) BuildAssemblyPlan(episode *database.Episode) (*AssemblyPlan, error) {
	views, err := s.List(episode.ID)
	if err != nil {
		return nil, err
	}

	total, err := ComputeTotalDuration(views)
	if err != nil {
		return nil, err
	}

	plan := &AssemblyPlan{
		EpisodeID:            episode.ID,
		BackgroundVolume:     episode.BGMVolume,
		TotalDurationSeconds: total,
		TotalDuration:        FormatClock(total),
	}

	if episode.BGMAssetID != "" {
		asset, ok := s.assets.ResolveAsset(episode.BGMAssetID)
		if !ok {
			return nil, &pipeline.NotFoundError{Kind: "asset", ID: episode.BGMAssetID}
		}
		plan.BackgroundMusicRef = asset.File
	}

	for _, view := range views {
		if !view.Enabled {
			continue
		}
		plan.Entries = append(plan.Entries, PlanEntry{
			SegmentID:       view.ID,
			Kind:            view.Kind,
			Title:           view.Title,
			AudioRef:        view.AudioURL,
			DurationSeconds: *view.DurationSeconds,
		})
	}

	return plan, nil
}

// SyncIntro updates the episode's intro segment to the selected asset. An
// empty asset id removes the segment.
func (s *Service) SyncIntro(episodeID, assetID string) error {
	return s.segments.SyncAssetSegment(episodeID, database.SegmentKindIntro, assetID)
}

// SyncOutro updates the episode's outro segment to the selected asset.
func (s *Service) SyncOutro(episodeID, assetID string) error {
	return s.segments.SyncAssetSegment(episodeID, database.SegmentKindOutro, assetID)
}

func (s *Service) buildView(seg database.Segment) (SegmentView, error) {
	view := SegmentView{
		ID:       seg.ID,
		Kind:     seg.Kind,
		Position: seg.Position,
		Enabled:  seg.Enabled,
		LinkID:   seg.LinkID,
		AssetID:  seg.AssetID,
	}

	switch seg.Kind {
	case database.SegmentKindNews:
		link, err := s.links.GetLink(seg.LinkID)
		if err != nil {
			return view, err
		}
		if link == nil {
			return view, &pipeline.NotFoundError{Kind: "link", ID: seg.LinkID}
		}
		view.LinkStatus = link.Status
		view.AudioURL = link.AudioURL
		view.DurationSeconds = link.DurationSeconds
		if link.DurationSeconds != nil {
			view.Duration = FormatClock(*link.DurationSeconds)
		}
		if item, err := s.news.GetNewsItem(link.NewsID); err != nil {
			return view, err
		} else if item != nil {
			view.Title = item.Title
		}

	default:
		asset, ok := s.assets.ResolveAsset(seg.AssetID)
		if !ok {
			return view, &pipeline.NotFoundError{Kind: "asset", ID: seg.AssetID}
		}
		view.Title = asset.Title
		view.AudioURL = asset.File
		d := asset.DurationSeconds
		view.DurationSeconds = &d
		view.Duration = FormatClock(d)
	}

	return view, nil
}

// spliceOrder moves the element at from to the requested index, clamping the
// target into range.
func spliceOrder(ids []string, from, to int) []string {
	if to < 0 {
		to = 0
	}
	if to >= len(ids) {
		to = len(ids) - 1
	}
	if from == to {
		return ids
	}

	id := ids[from]
	ids = append(ids[:from], ids[from+1:]...)

	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:to]...)
	out = append(out, id)
	out = append(out, ids[to:]...)
	return out
}
