package collect

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/harmonic-insight/youtube-collector/client"
	"github.com/harmonic-insight/youtube-collector/model"
	"github.com/harmonic-insight/youtube-collector/source"
)

// Collector orchestrates the per-video pipeline across a resolved video
// sequence. Per-video failures become failed records; they never abort the
// run. Sink writes happen elsewhere, after the run completes, so no sink or
// ledger is touched from in-flight videos.
type Collector struct {
	Metadata    client.MetadataClient
	Transcripts client.TranscriptClient

	// Concurrency bounds how many videos are collected in parallel.
	// Values below 2 mean sequential collection.
	Concurrency int

	// RequestDelay spaces out sequential video requests to stay under
	// rate limits. Ignored when collecting in parallel.
	RequestDelay time.Duration
}

// Run collects every resolved video and returns the aggregated run. Record
// order follows the input order. When ctx is cancelled, videos not yet
// started and videos caught mid-collection are dropped, and the records
// completed so far are returned.
func (c *Collector) Run(ctx context.Context, videos []source.Video) *model.CollectionRun {
	run := &model.CollectionRun{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	log.Info().
		Str("run_id", run.RunID).
		Int("video_count", len(videos)).
		Int("concurrency", c.Concurrency).
		Msg("Starting collection run")

	var results []*model.VideoRecord
	if c.Concurrency > 1 {
		results = c.collectParallel(ctx, videos)
	} else {
		results = c.collectSequential(ctx, videos)
	}

	// Dropped videos, never started or interrupted mid-collection, leave
	// nil slots; completed records keep their resolver order.
	run.Records = make([]model.VideoRecord, 0, len(results))
	for _, record := range results {
		if record == nil {
			continue
		}
		run.Records = append(run.Records, *record)
		if record.Succeeded() {
			run.Succeeded++
		} else {
			run.Failed++
		}
	}
	run.Attempted = len(run.Records)
	run.FinishedAt = time.Now().UTC()

	log.Info().
		Str("run_id", run.RunID).
		Int("attempted", run.Attempted).
		Int("succeeded", run.Succeeded).
		Int("failed", run.Failed).
		Msg("Collection run finished")

	return run
}

func (c *Collector) collectSequential(ctx context.Context, videos []source.Video) []*model.VideoRecord {
	results := make([]*model.VideoRecord, len(videos))
	for i, video := range videos {
		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(videos)-i).Msg("Collection cancelled, dropping remaining videos")
			break
		}
		results[i] = c.collectOne(ctx, video, i+1, len(videos))
		if c.RequestDelay > 0 && i < len(videos)-1 {
			select {
			case <-time.After(c.RequestDelay):
			case <-ctx.Done():
			}
		}
	}
	return results
}

func (c *Collector) collectParallel(ctx context.Context, videos []source.Video) []*model.VideoRecord {
	results := make([]*model.VideoRecord, len(videos))

	var eg errgroup.Group
	eg.SetLimit(c.Concurrency)

	for i, video := range videos {
		eg.Go(func() error {
			if ctx.Err() != nil {
				// Not started yet: dropped, not half-collected.
				return nil
			}
			results[i] = c.collectOne(ctx, video, i+1, len(videos))
			return nil
		})
	}

	// Workers only ever return nil; failures live inside the records.
	_ = eg.Wait()
	return results
}

// collectOne runs the full pipeline for a single video: both collaborators,
// the selector and the assembler. A video whose collaborator call is cut
// short by cancellation returns nil and is dropped from the run, so a
// half-collected video never reaches the sinks as a spurious failure.
func (c *Collector) collectOne(ctx context.Context, video source.Video, position, total int) *model.VideoRecord {
	log.Info().
		Str("video_id", video.ID).
		Int("position", position).
		Int("total", total).
		Msg("Collecting video")

	metadata, metadataErr := c.Metadata.GetVideoMetadata(ctx, video.ID)
	if ctx.Err() != nil {
		log.Warn().Str("video_id", video.ID).Msg("Collection cancelled mid-video, dropping it")
		return nil
	}
	if metadataErr != nil {
		log.Warn().Err(metadataErr).Str("video_id", video.ID).Msg("Metadata collection failed, continuing without it")
	}

	var selected *model.TranscriptTrack
	tracks, transcriptErr := c.Transcripts.ListTranscripts(ctx, video.ID)
	if ctx.Err() != nil {
		log.Warn().Str("video_id", video.ID).Msg("Collection cancelled mid-video, dropping it")
		return nil
	}
	if transcriptErr != nil {
		log.Warn().Err(transcriptErr).Str("video_id", video.ID).Msg("Transcript collection failed")
	} else if track, ok := SelectTranscript(tracks); ok {
		selected = &track
	}

	record := AssembleRecord(video.ID, video.URL, metadata, metadataErr, selected, transcriptErr)

	if record.Succeeded() {
		log.Info().
			Str("video_id", video.ID).
			Str("language", record.Transcript.Language).
			Bool("auto_generated", record.Transcript.IsGenerated).
			Int("segment_count", record.Transcript.SegmentCount).
			Msg("Video collected")
	} else {
		log.Warn().
			Str("video_id", video.ID).
			Str("reason", record.FailureReason).
			Msg("Video collection failed")
	}

	return &record
}
