package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmonic-insight/youtube-collector/client"
	"github.com/harmonic-insight/youtube-collector/collect"
	"github.com/harmonic-insight/youtube-collector/model"
	"github.com/harmonic-insight/youtube-collector/source"
)

// fakeLister implements client.VideoListClient with canned per-source
// results keyed by input value.
type fakeLister struct {
	results map[string][]client.VideoRef
	failOn  string
}

func (f *fakeLister) list(value string) ([]client.VideoRef, error) {
	if value == f.failOn {
		return nil, errors.New("listing failed")
	}
	return f.results[value], nil
}

func (f *fakeLister) ListPlaylistVideos(ctx context.Context, playlist string, max int) ([]client.VideoRef, error) {
	return f.list(playlist)
}

func (f *fakeLister) ListChannelVideos(ctx context.Context, channel string, max int) ([]client.VideoRef, error) {
	return f.list(channel)
}

func (f *fakeLister) SearchVideos(ctx context.Context, query string, max int) ([]client.VideoRef, error) {
	return f.list(query)
}

type fakeMetadata struct{}

func (fakeMetadata) Connect(ctx context.Context) error    { return nil }
func (fakeMetadata) Disconnect(ctx context.Context) error { return nil }
func (fakeMetadata) GetVideoMetadata(ctx context.Context, videoID string) (*model.VideoMetadata, error) {
	return &model.VideoMetadata{Title: "Title " + videoID, Channel: "Channel"}, nil
}

type fakeTranscripts struct{}

func (fakeTranscripts) ListTranscripts(ctx context.Context, videoID string) ([]model.TranscriptTrack, error) {
	return []model.TranscriptTrack{{
		Language: "en",
		Segments: []model.TranscriptSegment{{Text: "text for " + videoID}},
	}}, nil
}

func ref(id string) client.VideoRef {
	return client.VideoRef{ID: id, URL: model.WatchURL(id)}
}

func newTestCollector(lister client.VideoListClient) *Collector {
	return &Collector{
		Resolver: source.NewResolver(lister),
		Pipeline: &collect.Collector{
			Metadata:    fakeMetadata{},
			Transcripts: fakeTranscripts{},
			Concurrency: 1,
		},
	}
}

func TestCollectAll(t *testing.T) {
	lister := &fakeLister{results: map[string][]client.VideoRef{
		"PLone": {ref("aaaaaaaaaaa"), ref("bbbbbbbbbbb")},
		"PLtwo": {ref("ccccccccccc")},
	}}
	collector := newTestCollector(lister)

	cfg := &Config{Sources: []SourceConfig{
		{Kind: source.KindPlaylist, Value: "PLone", Max: 10},
		{Kind: source.KindPlaylist, Value: "PLtwo", Max: 10},
	}}
	run, result := collector.CollectAll(context.Background(), cfg)

	assert.Equal(t, 2, result.TotalSources)
	assert.Equal(t, 3, result.TotalCollected)
	assert.Equal(t, 3, result.UniqueVideos)
	assert.Equal(t, 0, result.DuplicatesRemoved)
	require.Len(t, run.Records, 3)
	assert.Equal(t, 3, run.Attempted)
	assert.Equal(t, run.Attempted, run.Succeeded+run.Failed)
}

// TestCollectAll_CrossSourceDedup verifies that a video listed by two
// sources lands in the merged run only once.
func TestCollectAll_CrossSourceDedup(t *testing.T) {
	lister := &fakeLister{results: map[string][]client.VideoRef{
		"PLone": {ref("aaaaaaaaaaa"), ref("bbbbbbbbbbb")},
		"PLtwo": {ref("bbbbbbbbbbb"), ref("ccccccccccc")},
	}}
	collector := newTestCollector(lister)

	cfg := &Config{Sources: []SourceConfig{
		{Kind: source.KindPlaylist, Value: "PLone", Max: 10},
		{Kind: source.KindPlaylist, Value: "PLtwo", Max: 10},
	}}
	run, result := collector.CollectAll(context.Background(), cfg)

	assert.Equal(t, 4, result.TotalCollected)
	assert.Equal(t, 3, result.UniqueVideos)
	assert.Equal(t, 1, result.DuplicatesRemoved)
	require.Len(t, run.Records, 3)
	assert.Equal(t, "aaaaaaaaaaa", run.Records[0].VideoID)
	assert.Equal(t, "bbbbbbbbbbb", run.Records[1].VideoID)
	assert.Equal(t, "ccccccccccc", run.Records[2].VideoID)
}

// TestCollectAll_FailedSourceSkipped verifies that one unresolvable source
// does not abort the batch.
func TestCollectAll_FailedSourceSkipped(t *testing.T) {
	lister := &fakeLister{
		results: map[string][]client.VideoRef{"PLgood": {ref("aaaaaaaaaaa")}},
		failOn:  "PLbad",
	}
	collector := newTestCollector(lister)

	cfg := &Config{Sources: []SourceConfig{
		{Kind: source.KindPlaylist, Value: "PLbad", Max: 10},
		{Kind: source.KindPlaylist, Value: "PLgood", Max: 10},
	}}
	run, result := collector.CollectAll(context.Background(), cfg)

	require.Len(t, result.Sources, 2)
	assert.Error(t, result.Sources[0].Err)
	assert.NoError(t, result.Sources[1].Err)
	assert.Equal(t, 1, result.UniqueVideos)
	require.Len(t, run.Records, 1)
	assert.Equal(t, "aaaaaaaaaaa", run.Records[0].VideoID)
}

func TestCollectAll_URLSource(t *testing.T) {
	collector := newTestCollector(&fakeLister{})

	cfg := &Config{Sources: []SourceConfig{
		{Kind: source.KindURLs, Value: "https://www.youtube.com/watch?v=aaaaaaaaaaa"},
	}}
	run, result := collector.CollectAll(context.Background(), cfg)

	assert.Equal(t, 1, result.UniqueVideos)
	require.Len(t, run.Records, 1)
	assert.Equal(t, "aaaaaaaaaaa", run.Records[0].VideoID)
}

func TestCollectAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lister := &fakeLister{results: map[string][]client.VideoRef{
		"PLone": {ref("aaaaaaaaaaa")},
	}}
	collector := newTestCollector(lister)

	cfg := &Config{Sources: []SourceConfig{
		{Kind: source.KindPlaylist, Value: "PLone", Max: 10},
	}}
	run, result := collector.CollectAll(ctx, cfg)

	assert.Empty(t, run.Records)
	assert.Empty(t, result.Sources)
}
