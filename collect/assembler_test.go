package collect

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmonic-insight/youtube-collector/model"
)

func TestAssembleRecord_Success(t *testing.T) {
	metadata := &model.VideoMetadata{Title: "Title", Channel: "Channel"}
	track := model.TranscriptTrack{
		Language: "ja",
		Segments: []model.TranscriptSegment{{Start: 0, Duration: 1, Text: "こんにちは"}},
	}

	before := time.Now().UTC()
	record := AssembleRecord("abc123def45", "https://www.youtube.com/watch?v=abc123def45", metadata, nil, &track, nil)

	assert.Equal(t, model.StatusSuccess, record.Status)
	assert.True(t, record.Succeeded())
	assert.Empty(t, record.FailureReason)
	assert.Equal(t, metadata, record.Metadata)
	require.NotNil(t, record.Transcript)
	assert.Equal(t, "ja", record.Transcript.Language)
	assert.Equal(t, "こんにちは", record.Transcript.FullText)
	assert.False(t, record.CollectedAt.Before(before))
}

func TestAssembleRecord_NoTranscriptAvailable(t *testing.T) {
	metadata := &model.VideoMetadata{Title: "Title", Channel: "Channel"}

	record := AssembleRecord("abc123def45", "https://example.invalid", metadata, nil, nil, nil)

	assert.Equal(t, model.StatusFailed, record.Status)
	assert.Equal(t, "no transcript available", record.FailureReason)
	assert.Nil(t, record.Transcript)
	// Metadata is kept on failed records.
	assert.Equal(t, metadata, record.Metadata)
}

func TestAssembleRecord_TranscriptError(t *testing.T) {
	record := AssembleRecord("abc123def45", "https://example.invalid", nil, nil, nil, errors.New("fetch timed out"))

	assert.Equal(t, model.StatusFailed, record.Status)
	assert.Equal(t, "fetch timed out", record.FailureReason)
	assert.Nil(t, record.Transcript)
}

// TestAssembleRecord_MetadataErrorAlone verifies that a metadata failure by
// itself does not fail the record; the transcript is the unit of success.
func TestAssembleRecord_MetadataErrorAlone(t *testing.T) {
	track := model.TranscriptTrack{
		Language: "en",
		Segments: []model.TranscriptSegment{{Text: "hello"}},
	}

	record := AssembleRecord("abc123def45", "https://example.invalid", nil, errors.New("quota exceeded"), &track, nil)

	assert.Equal(t, model.StatusSuccess, record.Status)
	assert.Nil(t, record.Metadata)
	require.NotNil(t, record.Transcript)
	assert.Equal(t, "hello", record.Transcript.FullText)
}

func TestAssembleRecord_MetadataErrorDiscardsPartialMetadata(t *testing.T) {
	partial := &model.VideoMetadata{Title: "half fetched"}

	record := AssembleRecord("abc123def45", "https://example.invalid", partial, errors.New("boom"), nil, nil)

	assert.Nil(t, record.Metadata)
}
