// Package client contains the network-backed collaborators of the collection
// pipeline: video listing, metadata and transcript clients for YouTube.
package client

import (
	"context"
	"fmt"

	"github.com/harmonic-insight/youtube-collector/model"
)

// VideoRef is one listed video: its platform identifier and source URL.
type VideoRef struct {
	ID  string
	URL string
}

// MetadataClient fetches descriptive metadata for single videos.
type MetadataClient interface {
	// Connect establishes a connection to the backing API
	Connect(ctx context.Context) error

	// Disconnect closes the connection
	Disconnect(ctx context.Context) error

	// GetVideoMetadata retrieves metadata for one video
	GetVideoMetadata(ctx context.Context, videoID string) (*model.VideoMetadata, error)
}

// TranscriptClient reports the transcript tracks available for a video.
type TranscriptClient interface {
	// ListTranscripts returns every caption track available for the video,
	// with segments populated. An empty slice means the video has no
	// transcripts; that is not an error.
	ListTranscripts(ctx context.Context, videoID string) ([]model.TranscriptTrack, error)
}

// VideoListClient expands playlist, channel and search sources into videos.
type VideoListClient interface {
	// ListPlaylistVideos returns up to max videos from a playlist URL or ID
	ListPlaylistVideos(ctx context.Context, playlist string, max int) ([]VideoRef, error)

	// ListChannelVideos returns up to max of a channel's latest uploads
	ListChannelVideos(ctx context.Context, channel string, max int) ([]VideoRef, error)

	// SearchVideos returns up to max videos matching a search query
	SearchVideos(ctx context.Context, query string, max int) ([]VideoRef, error)
}

// MetadataError is a per-video failure of the metadata collaborator. It is
// recovered at the orchestrator boundary, never fatal for the run.
type MetadataError struct {
	VideoID string
	Err     error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata fetch failed for video %s: %v", e.VideoID, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// TranscriptError is a per-video failure of the transcript collaborator.
type TranscriptError struct {
	VideoID string
	Err     error
}

func (e *TranscriptError) Error() string {
	return fmt.Sprintf("transcript fetch failed for video %s: %v", e.VideoID, e.Err)
}

func (e *TranscriptError) Unwrap() error { return e.Err }
