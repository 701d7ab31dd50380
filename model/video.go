// Package model contains the data structures shared across the collection
// pipeline: transcript tracks, video metadata, assembled video records and
// whole-run aggregates.
package model

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// Record status values. A record is failed exactly when no transcript could
// be selected for it; metadata may still be attached to a failed record.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// TranscriptSegment is a single timed piece of transcript text. Segments are
// ordered by Start ascending; FullText reconstruction depends on that order.
type TranscriptSegment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// TranscriptTrack is one candidate caption stream as reported by the
// transcript collaborator for a video.
type TranscriptTrack struct {
	Language    string
	IsGenerated bool
	Segments    []TranscriptSegment
}

// Transcript is the track chosen by the selector plus its derived fields.
type Transcript struct {
	Language     string              `json:"language"`
	IsGenerated  bool                `json:"is_generated"`
	SegmentCount int                 `json:"segment_count"`
	FullText     string              `json:"full_text"`
	Segments     []TranscriptSegment `json:"segments,omitempty"`
}

// NewTranscript builds the selected transcript from a track, cleaning segment
// text and deriving FullText and SegmentCount. Segments whose text is empty
// after cleaning are dropped.
func NewTranscript(track TranscriptTrack) *Transcript {
	segments := make([]TranscriptSegment, 0, len(track.Segments))
	parts := make([]string, 0, len(track.Segments))

	for _, seg := range track.Segments {
		text := strings.TrimSpace(strings.ReplaceAll(seg.Text, "\n", " "))
		if text == "" {
			continue
		}
		segments = append(segments, TranscriptSegment{
			Start:    round2(seg.Start),
			Duration: round2(seg.Duration),
			Text:     text,
		})
		parts = append(parts, text)
	}

	return &Transcript{
		Language:     track.Language,
		IsGenerated:  track.IsGenerated,
		SegmentCount: len(segments),
		FullText:     strings.Join(parts, " "),
		Segments:     segments,
	}
}

// WithoutSegments returns a copy suitable for --no-segments output: the
// segments array is dropped but FullText and SegmentCount are kept.
func (t *Transcript) WithoutSegments() *Transcript {
	copied := *t
	copied.Segments = nil
	return &copied
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// VideoMetadata holds the descriptive attributes of a video. Title and
// Channel are always present on a successfully fetched metadata object;
// everything else is optional and nil means "not collected", which is
// distinct from an empty value.
type VideoMetadata struct {
	Title           string   `json:"title"`
	Channel         string   `json:"channel"`
	ChannelID       *string  `json:"channel_id,omitempty"`
	UploadDate      *string  `json:"upload_date,omitempty"` // YYYYMMDD
	DurationSeconds *int64   `json:"duration_seconds,omitempty"`
	ViewCount       *int64   `json:"view_count,omitempty"`
	LikeCount       *int64   `json:"like_count,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	ThumbnailURL    *string  `json:"thumbnail_url,omitempty"`
}

// UploadDateISO converts the YYYYMMDD upload date to YYYY-MM-DD. It returns
// the raw value unchanged when it is not an eight-digit date, and an empty
// string when the upload date was not collected.
func (m *VideoMetadata) UploadDateISO() string {
	if m == nil || m.UploadDate == nil {
		return ""
	}
	d := *m.UploadDate
	if len(d) != 8 {
		return d
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:8]
}

// VideoRecord is the unit of output: one video's identifier, metadata and
// selected transcript, or the reason no transcript was collected. Records
// are immutable once assembled.
type VideoRecord struct {
	VideoID       string         `json:"video_id"`
	URL           string         `json:"url"`
	CollectedAt   time.Time      `json:"collected_at"`
	Status        string         `json:"status"`
	FailureReason string         `json:"failure_reason,omitempty"`
	Metadata      *VideoMetadata `json:"metadata"`
	Transcript    *Transcript    `json:"transcript"`
}

// Succeeded reports whether a transcript was selected for this record.
func (r *VideoRecord) Succeeded() bool {
	return r.Status == StatusSuccess
}

// WatchURL builds the canonical watch URL for a video identifier.
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// CollectionRun aggregates one collector invocation. It is owned by the
// orchestrator while running and handed to sinks read-only afterwards.
type CollectionRun struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Records    []VideoRecord `json:"records"`
	Attempted  int           `json:"attempted"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|@]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// SanitizeFilenamePart strips characters unsafe for filenames, collapses
// whitespace runs to underscores and truncates to maxRunes.
func SanitizeFilenamePart(s string, maxRunes int) string {
	safe := unsafeFilenameChars.ReplaceAllString(s, "")
	safe = whitespaceRun.ReplaceAllString(strings.TrimSpace(safe), "_")
	runes := []rune(safe)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return safe
}

// WarehouseFilename derives the warehouse document name for this record:
// {YYYY-MM-DD}_lecture_{channel}_{title}.txt with sanitized parts.
func (r *VideoRecord) WarehouseFilename() string {
	date := r.Metadata.UploadDateISO()
	channel := ""
	title := ""
	if r.Metadata != nil {
		channel = SanitizeFilenamePart(r.Metadata.Channel, 40)
		title = SanitizeFilenamePart(r.Metadata.Title, 80)
	}
	return fmt.Sprintf("%s_lecture_%s_%s.txt", date, channel, title)
}

// WarehouseText renders the warehouse document body in its fixed layout.
func (r *VideoRecord) WarehouseText() string {
	title := ""
	channel := ""
	if r.Metadata != nil {
		title = r.Metadata.Title
		channel = r.Metadata.Channel
	}

	lines := []string{
		"## " + title,
		"",
		"channel: " + channel,
		"upload_date: " + r.Metadata.UploadDateISO(),
		"source_url: " + r.URL,
		"",
		"---",
		"",
	}
	if r.Transcript != nil {
		lines = append(lines, r.Transcript.FullText)
	}
	return strings.Join(lines, "\n")
}

// ManifestEntry is the per-file metadata record tracked by the warehouse
// manifest.
type ManifestEntry struct {
	ObservedAt      string   `json:"observed_at"`
	SourceType      string   `json:"source_type"`
	SourceTitle     string   `json:"source_title"`
	SourceURL       string   `json:"source_url"`
	VideoID         string   `json:"video_id"`
	Channel         string   `json:"channel"`
	ChannelID       string   `json:"channel_id,omitempty"`
	UploadDate      string   `json:"upload_date"`
	Language        string   `json:"language"`
	IsAutoGenerated bool     `json:"is_auto_generated"`
	DurationSeconds int64    `json:"duration_seconds,omitempty"`
	ViewCount       int64    `json:"view_count,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// ManifestEntry builds the warehouse manifest entry for this record.
func (r *VideoRecord) ManifestEntry() ManifestEntry {
	entry := ManifestEntry{
		ObservedAt: r.CollectedAt.Format("2006-01-02"),
		SourceType: "lecture",
		SourceURL:  r.URL,
		VideoID:    r.VideoID,
	}
	if r.Metadata != nil {
		entry.SourceTitle = r.Metadata.Title
		entry.Channel = r.Metadata.Channel
		entry.UploadDate = r.Metadata.UploadDateISO()
		if r.Metadata.ChannelID != nil {
			entry.ChannelID = *r.Metadata.ChannelID
		}
		if r.Metadata.DurationSeconds != nil {
			entry.DurationSeconds = *r.Metadata.DurationSeconds
		}
		if r.Metadata.ViewCount != nil {
			entry.ViewCount = *r.Metadata.ViewCount
		}
		entry.Tags = r.Metadata.Tags
	}
	if r.Transcript != nil {
		entry.Language = r.Transcript.Language
		entry.IsAutoGenerated = r.Transcript.IsGenerated
	}
	return entry
}
