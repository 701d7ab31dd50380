package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// TestNewTranscript verifies segment cleaning, ordering and FullText
// derivation.
func TestNewTranscript(t *testing.T) {
	track := TranscriptTrack{
		Language:    "ja",
		IsGenerated: false,
		Segments: []TranscriptSegment{
			{Start: 0.123456, Duration: 1.5, Text: "こんにちは\n皆さん"},
			{Start: 2.0, Duration: 0.5, Text: "   "},
			{Start: 3.0, Duration: 2.0, Text: "  今日は流体力学の話です  "},
		},
	}

	transcript := NewTranscript(track)

	assert.Equal(t, "ja", transcript.Language)
	assert.False(t, transcript.IsGenerated)
	// The whitespace-only segment is dropped.
	require.Len(t, transcript.Segments, 2)
	assert.Equal(t, 2, transcript.SegmentCount)
	assert.Equal(t, "こんにちは 皆さん 今日は流体力学の話です", transcript.FullText)
	assert.Equal(t, 0.12, transcript.Segments[0].Start)
	assert.Equal(t, "こんにちは 皆さん", transcript.Segments[0].Text)
}

func TestNewTranscript_EmptyTrack(t *testing.T) {
	transcript := NewTranscript(TranscriptTrack{Language: "en", IsGenerated: true})

	assert.Equal(t, 0, transcript.SegmentCount)
	assert.Equal(t, "", transcript.FullText)
	assert.Empty(t, transcript.Segments)
}

func TestTranscript_WithoutSegments(t *testing.T) {
	transcript := NewTranscript(TranscriptTrack{
		Language: "en",
		Segments: []TranscriptSegment{{Start: 0, Duration: 1, Text: "hello"}},
	})

	trimmed := transcript.WithoutSegments()

	assert.Nil(t, trimmed.Segments)
	assert.Equal(t, "hello", trimmed.FullText)
	assert.Equal(t, 1, trimmed.SegmentCount)
	// The original is untouched.
	assert.Len(t, transcript.Segments, 1)
}

func TestVideoMetadata_UploadDateISO(t *testing.T) {
	tests := []struct {
		name     string
		metadata *VideoMetadata
		expected string
	}{
		{"nil metadata", nil, ""},
		{"nil upload date", &VideoMetadata{}, ""},
		{"compact date", &VideoMetadata{UploadDate: strPtr("20240115")}, "2024-01-15"},
		{"unexpected shape passes through", &VideoMetadata{UploadDate: strPtr("2024-01")}, "2024-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.metadata.UploadDateISO())
		})
	}
}

func TestSanitizeFilenamePart(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		expected string
	}{
		{"unsafe characters removed", `a/b\c:d*e?f"g<h>i|j@k`, 80, "abcdefghijk"},
		{"whitespace collapsed to underscore", "hello   world\tagain", 80, "hello_world_again"},
		{"truncated by runes not bytes", "流体力学は面白い", 4, "流体力学"},
		{"trimmed before collapsing", "  padded  ", 80, "padded"},
		{"empty input", "", 80, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilenamePart(tt.input, tt.maxRunes))
		})
	}
}

func TestVideoRecord_WarehouseFilename(t *testing.T) {
	record := VideoRecord{
		VideoID: "dQw4w9WgXcQ",
		Metadata: &VideoMetadata{
			Title:      "Lecture 1: Intro / Overview",
			Channel:    "MIT OpenCourseWare",
			UploadDate: strPtr("20240115"),
		},
	}

	assert.Equal(t, "2024-01-15_lecture_MIT_OpenCourseWare_Lecture_1_Intro_Overview.txt", record.WarehouseFilename())
}

func TestVideoRecord_WarehouseFilename_NoMetadata(t *testing.T) {
	record := VideoRecord{VideoID: "dQw4w9WgXcQ"}

	assert.Equal(t, "_lecture__.txt", record.WarehouseFilename())
}

func TestVideoRecord_WarehouseText(t *testing.T) {
	record := VideoRecord{
		VideoID: "abc123def45",
		URL:     "https://www.youtube.com/watch?v=abc123def45",
		Status:  StatusSuccess,
		Metadata: &VideoMetadata{
			Title:      "Fluid Dynamics",
			Channel:    "Physics Lectures",
			UploadDate: strPtr("20230601"),
		},
		Transcript: &Transcript{Language: "en", FullText: "welcome to the lecture"},
	}

	text := record.WarehouseText()

	expected := strings.Join([]string{
		"## Fluid Dynamics",
		"",
		"channel: Physics Lectures",
		"upload_date: 2023-06-01",
		"source_url: https://www.youtube.com/watch?v=abc123def45",
		"",
		"---",
		"",
		"welcome to the lecture",
	}, "\n")
	assert.Equal(t, expected, text)
}

func TestVideoRecord_ManifestEntry(t *testing.T) {
	collectedAt := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)
	record := VideoRecord{
		VideoID:     "abc123def45",
		URL:         "https://www.youtube.com/watch?v=abc123def45",
		CollectedAt: collectedAt,
		Status:      StatusSuccess,
		Metadata: &VideoMetadata{
			Title:           "Fluid Dynamics",
			Channel:         "Physics Lectures",
			ChannelID:       strPtr("UCabcdefgh"),
			UploadDate:      strPtr("20230601"),
			DurationSeconds: int64Ptr(3600),
			ViewCount:       int64Ptr(12345),
			Tags:            []string{"physics", "lecture"},
		},
		Transcript: &Transcript{Language: "ja", IsGenerated: true},
	}

	entry := record.ManifestEntry()

	assert.Equal(t, "2024-03-10", entry.ObservedAt)
	assert.Equal(t, "lecture", entry.SourceType)
	assert.Equal(t, "Fluid Dynamics", entry.SourceTitle)
	assert.Equal(t, "abc123def45", entry.VideoID)
	assert.Equal(t, "UCabcdefgh", entry.ChannelID)
	assert.Equal(t, "2023-06-01", entry.UploadDate)
	assert.Equal(t, "ja", entry.Language)
	assert.True(t, entry.IsAutoGenerated)
	assert.Equal(t, int64(3600), entry.DurationSeconds)
	assert.Equal(t, int64(12345), entry.ViewCount)
	assert.Equal(t, []string{"physics", "lecture"}, entry.Tags)
}

func TestVideoRecord_Serialization(t *testing.T) {
	record := VideoRecord{
		VideoID:       "abc123def45",
		URL:           "https://www.youtube.com/watch?v=abc123def45",
		CollectedAt:   time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC),
		Status:        StatusFailed,
		FailureReason: "no transcript available",
		Metadata:      &VideoMetadata{Title: "Some Video", Channel: "Some Channel"},
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "abc123def45", decoded["video_id"])
	assert.Equal(t, "failed", decoded["status"])
	assert.Equal(t, "no transcript available", decoded["failure_reason"])
	// A failed record still serializes an explicit null transcript.
	_, present := decoded["transcript"]
	assert.True(t, present)
	assert.Nil(t, decoded["transcript"])
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", WatchURL("dQw4w9WgXcQ"))
}
