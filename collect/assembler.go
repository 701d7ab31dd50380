package collect

import (
	"time"

	"github.com/harmonic-insight/youtube-collector/model"
)

// AssembleRecord combines one video's metadata and selected transcript (or
// their failures) into an immutable record. No I/O happens here.
//
// A record fails exactly when no transcript was selected, whether because
// the collaborator errored or because the video has no tracks; metadata is
// kept either way. A metadata failure alone leaves the record successful
// with nil metadata.
func AssembleRecord(videoID, sourceURL string, metadata *model.VideoMetadata, metadataErr error, track *model.TranscriptTrack, transcriptErr error) model.VideoRecord {
	record := model.VideoRecord{
		VideoID:     videoID,
		URL:         sourceURL,
		CollectedAt: time.Now().UTC(),
		Metadata:    metadata,
	}
	if metadataErr != nil {
		record.Metadata = nil
	}

	switch {
	case transcriptErr != nil:
		record.Status = model.StatusFailed
		record.FailureReason = transcriptErr.Error()
	case track == nil:
		record.Status = model.StatusFailed
		record.FailureReason = "no transcript available"
	default:
		record.Status = model.StatusSuccess
		record.Transcript = model.NewTranscript(*track)
	}

	return record
}
