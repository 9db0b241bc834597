package sequencer

import (
	"errors"
	"sort"
	"time"

	"testing"

	"github.com/zyjarge/podcast-studio/app/database"
	"github.com/zyjarge/podcast-studio/app/pipeline"
)

type stubSegments struct {
	segments map[string]*database.Segment
}

func (s *stubSegments) ListSegments(episodeID string) ([]database.Segment, error) {
	var out []database.Segment
	for _, seg := range s.segments {
		if seg.EpisodeID == episodeID {
			out = append(out, *seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *stubSegments) GetSegment(id string) (*database.Segment, error) {
	seg, ok := s.segments[id]
	if !ok {
		return nil, nil
	}
	copied := *seg
	return &copied, nil
}

func (s *stubSegments) CreateSegment(seg database.Segment) error {
	s.segments[seg.ID] = &seg
	return nil
}

func (s *stubSegments) DeleteSegment(id string) error {
	delete(s.segments, id)
	return nil
}

func (s *stubSegments) DeleteSegmentsByLink(linkID string) error {
	for id, seg := range s.segments {
		if seg.LinkID == linkID {
			delete(s.segments, id)
		}
	}
	return nil
}

func (s *stubSegments) SetSegmentEnabled(id string, enabled bool) (*database.Segment, error) {
	seg, ok := s.segments[id]
	if !ok {
		return nil, nil
	}
	seg.Enabled = enabled
	copied := *seg
	return &copied, nil
}

func (s *stubSegments) ReorderSegments(episodeID string, orderedIDs []string) error {
	for i, id := range orderedIDs {
		if seg, ok := s.segments[id]; ok && seg.EpisodeID == episodeID {
			seg.Position = i
		}
	}
	return nil
}

func (s *stubSegments) RepackSegmentPositions(episodeID string) error {
	segments, _ := s.ListSegments(episodeID)
	for i, seg := range segments {
		s.segments[seg.ID].Position = i
	}
	return nil
}

func (s *stubSegments) SyncAssetSegment(episodeID string, kind database.SegmentKind, assetID string) error {
	return nil
}

type stubLinks struct {
	links map[string]*database.EpisodeNewsLink
}

func (s *stubLinks) ListLinks(episodeID string) ([]database.EpisodeNewsLink, error) {
	var out []database.EpisodeNewsLink
	for _, l := range s.links {
		if l.EpisodeID == episodeID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *stubLinks) GetLink(id string) (*database.EpisodeNewsLink, error) {
	l, ok := s.links[id]
	if !ok {
		return nil, nil
	}
	copied := *l
	return &copied, nil
}

func (s *stubLinks) CreateLink(episodeID, newsID string, position int, prompt string) (*database.EpisodeNewsLink, error) {
	return nil, nil
}

func (s *stubLinks) DeleteLink(id string) error { return nil }

func (s *stubLinks) HasLink(episodeID, newsID string) (bool, error) { return false, nil }

func (s *stubLinks) MaxPosition(episodeID string) (int, error) { return -1, nil }

func (s *stubLinks) RepackPositions(episodeID string) error { return nil }

func (s *stubLinks) ReorderLinks(episodeID string, orders map[string]int) error { return nil }

func (s *stubLinks) UpdateLink(id string, upd database.LinkUpdate) (*database.EpisodeNewsLink, error) {
	return nil, nil
}

func (s *stubLinks) CountByStatus(episodeID string) (map[database.LinkStatus]int, error) {
	return nil, nil
}

func (s *stubLinks) BeginOperation(linkID string, op database.InflightOp, opID string) (*database.EpisodeNewsLink, error) {
	return nil, nil
}

func (s *stubLinks) CompleteScript(opID string, script string) (*database.EpisodeNewsLink, error) {
	return nil, nil
}

func (s *stubLinks) CompleteAudio(opID string, audioURL string, durationSeconds int) (*database.EpisodeNewsLink, error) {
	return nil, nil
}

func (s *stubLinks) FailOperation(opID string, message string) (*database.EpisodeNewsLink, error) {
	return nil, nil
}

func (s *stubLinks) SetScript(id string, script string) (*database.EpisodeNewsLink, error) {
	return nil, nil
}

type stubNews struct {
	items map[string]database.NewsItem
}

func (s *stubNews) ListNews(sourceID string, limit int) ([]database.NewsItem, error) {
	return nil, nil
}

func (s *stubNews) GetNewsItem(id string) (*database.NewsItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	copied := item
	return &copied, nil
}

func (s *stubNews) UpsertNewsItem(item database.NewsItem) (string, bool, error) {
	return item.ID, true, nil
}

func (s *stubNews) UpdateContent(id string, content string) error { return nil }

func (s *stubNews) GetNewsCount() (int, error) { return len(s.items), nil }

type stubAssets map[string]AssetInfo

func (s stubAssets) ResolveAsset(id string) (AssetInfo, bool) {
	info, ok := s[id]
	return info, ok
}

func intPtr(v int) *int { return &v }

// newFixture builds an episode with intro (0:15), two audio-complete news
// segments (3:24 and 2:15), and an outro (0:20): 374 seconds in total.
func newFixture() (*Service, *stubSegments, *stubLinks) {
	segments := &stubSegments{segments: map[string]*database.Segment{
		"seg-intro": {ID: "seg-intro", EpisodeID: "ep-1", Kind: database.SegmentKindIntro, AssetID: "intro-daily", Position: 0, Enabled: true},
		"seg-news-1": {ID: "seg-news-1", EpisodeID: "ep-1", Kind: database.SegmentKindNews, LinkID: "link-1", Position: 1, Enabled: true},
		"seg-news-2": {ID: "seg-news-2", EpisodeID: "ep-1", Kind: database.SegmentKindNews, LinkID: "link-2", Position: 2, Enabled: true},
		"seg-outro": {ID: "seg-outro", EpisodeID: "ep-1", Kind: database.SegmentKindOutro, AssetID: "outro-daily", Position: 3, Enabled: true},
	}}

	links := &stubLinks{links: map[string]*database.EpisodeNewsLink{
		"link-1": {ID: "link-1", EpisodeID: "ep-1", NewsID: "news-1", Position: 0,
			Status: database.LinkStatusAudioDone, AudioURL: "/audio/one.mp3", DurationSeconds: intPtr(204)},
		"link-2": {ID: "link-2", EpisodeID: "ep-1", NewsID: "news-2", Position: 1,
			Status: database.LinkStatusAudioDone, AudioURL: "/audio/two.mp3", DurationSeconds: intPtr(135)},
	}}

	news := &stubNews{items: map[string]database.NewsItem{
		"news-1": {ID: "news-1", Title: "First Story", PublishedAt: time.Now()},
		"news-2": {ID: "news-2", Title: "Second Story", PublishedAt: time.Now()},
	}}

	assets := stubAssets{
		"intro-daily": {ID: "intro-daily", Title: "Daily Brief Intro", File: "assets/intros/daily_brief.mp3", DurationSeconds: 15},
		"outro-daily": {ID: "outro-daily", Title: "Daily Brief Outro", File: "assets/outros/daily_brief.mp3", DurationSeconds: 20},
		"bgm-calm":    {ID: "bgm-calm", Title: "Calm Synth Bed", File: "assets/music/calm_synth.mp3", DurationSeconds: 270},
	}

	return NewService(segments, links, news, assets), segments, links
}

func TestListDerivesTitlesAndDurations(t *testing.T) {
	svc, _, _ := newFixture()

	views, err := svc.List("ep-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 4 {
		t.Fatalf("Expected 4 segments, got %d", len(views))
	}

	if views[0].Title != "Daily Brief Intro" || views[0].Duration != "0:15" {
		t.Errorf("Expected intro view from asset, got %q / %q", views[0].Title, views[0].Duration)
	}
	if views[1].Title != "First Story" || views[1].Duration != "3:24" {
		t.Errorf("Expected news view from link, got %q / %q", views[1].Title, views[1].Duration)
	}
	if views[1].LinkStatus != database.LinkStatusAudioDone {
		t.Errorf("Expected link status to be surfaced, got %q", views[1].LinkStatus)
	}
	if views[3].Kind != database.SegmentKindOutro {
		t.Errorf("Expected outro last, got %s", views[3].Kind)
	}
}

func TestTotalDuration(t *testing.T) {
	svc, _, _ := newFixture()

	total, clock, err := svc.TotalDuration("ep-1")
	if err != nil {
		t.Fatal(err)
	}
	if total != 374 {
		t.Errorf("Expected total 374 seconds, got %d", total)
	}
	if clock != "6:14" {
		t.Errorf("Expected clock 6:14, got %q", clock)
	}
}

func TestTotalDurationExcludesDisabled(t *testing.T) {
	svc, segments, _ := newFixture()
	segments.segments["seg-news-2"].Enabled = false

	total, clock, err := svc.TotalDuration("ep-1")
	if err != nil {
		t.Fatal(err)
	}
	if total != 239 {
		t.Errorf("Expected total 239 with one segment disabled, got %d", total)
	}
	if clock != "3:59" {
		t.Errorf("Expected clock 3:59, got %q", clock)
	}
}

func TestTotalDurationIncompleteSegment(t *testing.T) {
	svc, _, links := newFixture()
	links.links["link-2"].Status = database.LinkStatusScriptDone
	links.links["link-2"].AudioURL = ""
	links.links["link-2"].DurationSeconds = nil

	var incompleteErr *pipeline.IncompleteSegmentError
	if _, _, err := svc.TotalDuration("ep-1"); !errors.As(err, &incompleteErr) {
		t.Fatalf("Expected IncompleteSegmentError, got %v", err)
	}
	if incompleteErr.SegmentID != "seg-news-2" {
		t.Errorf("Expected offending segment seg-news-2, got %s", incompleteErr.SegmentID)
	}
}

func TestTotalDurationSkipsDisabledIncomplete(t *testing.T) {
	svc, segments, links := newFixture()
	links.links["link-2"].Status = database.LinkStatusPending
	links.links["link-2"].AudioURL = ""
	links.links["link-2"].DurationSeconds = nil
	segments.segments["seg-news-2"].Enabled = false

	total, _, err := svc.TotalDuration("ep-1")
	if err != nil {
		t.Fatalf("Expected disabled incomplete segment to be skipped, got %v", err)
	}
	if total != 239 {
		t.Errorf("Expected total 239, got %d", total)
	}
}

func TestReorderMovesSegment(t *testing.T) {
	svc, _, _ := newFixture()

	views, err := svc.Reorder("ep-1", "seg-news-2", 1)
	if err != nil {
		t.Fatal(err)
	}

	order := make([]string, len(views))
	for i, v := range views {
		order[i] = v.ID
	}
	expected := []string{"seg-intro", "seg-news-2", "seg-news-1", "seg-outro"}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("Expected order %v, got %v", expected, order)
		}
	}
}

func TestReorderClampsIndex(t *testing.T) {
	svc, _, _ := newFixture()

	views, err := svc.Reorder("ep-1", "seg-intro", 99)
	if err != nil {
		t.Fatal(err)
	}
	if views[len(views)-1].ID != "seg-intro" {
		t.Errorf("Expected out-of-range index to clamp to the end, got %v", views[len(views)-1].ID)
	}
}

func TestReorderUnknownSegment(t *testing.T) {
	svc, _, _ := newFixture()

	var notFound *pipeline.NotFoundError
	if _, err := svc.Reorder("ep-1", "seg-missing", 0); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestTogglePreservesPosition(t *testing.T) {
	svc, _, _ := newFixture()

	view, err := svc.Toggle("ep-1", "seg-news-1")
	if err != nil {
		t.Fatal(err)
	}
	if view.Enabled {
		t.Error("Expected segment disabled after first toggle")
	}
	if view.Position != 1 {
		t.Errorf("Expected position preserved at 1, got %d", view.Position)
	}

	view, err = svc.Toggle("ep-1", "seg-news-1")
	if err != nil {
		t.Fatal(err)
	}
	if !view.Enabled {
		t.Error("Expected segment enabled after second toggle")
	}
	if view.Position != 1 {
		t.Errorf("Expected position restored at 1, got %d", view.Position)
	}
}

func TestToggleWrongEpisode(t *testing.T) {
	svc, _, _ := newFixture()

	var notFound *pipeline.NotFoundError
	if _, err := svc.Toggle("ep-other", "seg-news-1"); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for segment of another episode, got %v", err)
	}
}

func TestBuildAssemblyPlan(t *testing.T) {
	svc, segments, _ := newFixture()
	segments.segments["seg-news-2"].Enabled = false

	episode := &database.Episode{ID: "ep-1", BGMAssetID: "bgm-calm", BGMVolume: 40}

	plan, err := svc.BuildAssemblyPlan(episode)
	if err != nil {
		t.Fatal(err)
	}

	if len(plan.Entries) != 3 {
		t.Fatalf("Expected 3 plan entries (disabled excluded), got %d", len(plan.Entries))
	}
	if plan.Entries[0].Kind != database.SegmentKindIntro {
		t.Errorf("Expected intro first, got %s", plan.Entries[0].Kind)
	}
	if plan.Entries[1].AudioRef != "/audio/one.mp3" {
		t.Errorf("Expected news audio ref, got %q", plan.Entries[1].AudioRef)
	}
	if plan.Entries[2].Kind != database.SegmentKindOutro {
		t.Errorf("Expected outro last, got %s", plan.Entries[2].Kind)
	}
	if plan.BackgroundMusicRef != "assets/music/calm_synth.mp3" {
		t.Errorf("Expected background music ref, got %q", plan.BackgroundMusicRef)
	}
	if plan.BackgroundVolume != 40 {
		t.Errorf("Expected background volume 40, got %d", plan.BackgroundVolume)
	}
	if plan.TotalDurationSeconds != 239 || plan.TotalDuration != "3:59" {
		t.Errorf("Expected total 239 (3:59), got %d (%s)", plan.TotalDurationSeconds, plan.TotalDuration)
	}
}

func TestBuildAssemblyPlanIncompleteAborts(t *testing.T) {
	svc, _, links := newFixture()
	links.links["link-1"].Status = database.LinkStatusError
	links.links["link-1"].AudioURL = ""
	links.links["link-1"].DurationSeconds = nil

	episode := &database.Episode{ID: "ep-1", BGMVolume: 30}

	var incompleteErr *pipeline.IncompleteSegmentError
	if _, err := svc.BuildAssemblyPlan(episode); !errors.As(err, &incompleteErr) {
		t.Errorf("Expected IncompleteSegmentError, got %v", err)
	}
}

func TestBuildAssemblyPlanUnknownMusicAsset(t *testing.T) {
	svc, _, _ := newFixture()

	episode := &database.Episode{ID: "ep-1", BGMAssetID: "bgm-missing", BGMVolume: 30}

	var notFound *pipeline.NotFoundError
	if _, err := svc.BuildAssemblyPlan(episode); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for unknown music asset, got %v", err)
	}
}
