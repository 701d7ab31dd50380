package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harmonic-insight/youtube-collector/model"
)

const (
	playerEndpoint       = "https://www.youtube.com/youtubei/v1/player"
	defaultClientName    = "WEB"
	defaultClientVersion = "2.20230728.00.00"
)

// TimedTextClient fetches caption tracks through YouTube's InnerTube player
// endpoint and the timedtext delivery URLs it reports. It needs no API key.
type TimedTextClient struct {
	httpClient    *http.Client
	endpoint      string
	clientName    string
	clientVersion string
}

// NewTimedTextClient creates a transcript client with a default HTTP timeout.
func NewTimedTextClient() *TimedTextClient {
	return &TimedTextClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint:      playerEndpoint,
		clientName:    defaultClientName,
		clientVersion: defaultClientVersion,
	}
}

// playerResponse is the subset of the InnerTube player payload we care about.
type playerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID          string   `json:"videoId"`
		Title            string   `json:"title"`
		Author           string   `json:"author"`
		ChannelID        string   `json:"channelId"`
		LengthSeconds    string   `json:"lengthSeconds"`
		ViewCount        string   `json:"viewCount"`
		ShortDescription string   `json:"shortDescription"`
		Keywords         []string `json:"keywords"`
		Thumbnail        struct {
			Thumbnails []struct {
				URL   string `json:"url"`
				Width int    `json:"width"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	Microformat struct {
		PlayerMicroformatRenderer struct {
			UploadDate string `json:"uploadDate"`
			Category   string `json:"category"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" marks auto-generated tracks
}

// timedTextDocument is the fmt=json3 timedtext payload.
type timedTextDocument struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// ListTranscripts returns every caption track reported for the video, with
// segments populated. A video without captions yields an empty slice, not an
// error. Each track is fetched once; there is no retry.
func (c *TimedTextClient) ListTranscripts(ctx context.Context, videoID string) ([]model.TranscriptTrack, error) {
	log.Debug().Str("video_id", videoID).Msg("Listing caption tracks")

	player, err := c.fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, &TranscriptError{VideoID: videoID, Err: err}
	}

	if player.PlayabilityStatus.Status != "" && player.PlayabilityStatus.Status != "OK" {
		return nil, &TranscriptError{
			VideoID: videoID,
			Err:     fmt.Errorf("video not playable: %s (%s)", player.PlayabilityStatus.Status, player.PlayabilityStatus.Reason),
		}
	}

	candidates := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	tracks := make([]model.TranscriptTrack, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.BaseURL == "" {
			continue
		}
		segments, err := c.fetchSegments(ctx, candidate.BaseURL)
		if err != nil {
			log.Warn().
				Err(err).
				Str("video_id", videoID).
				Str("language", candidate.LanguageCode).
				Msg("Failed to fetch caption track, skipping")
			continue
		}
		tracks = append(tracks, model.TranscriptTrack{
			Language:    candidate.LanguageCode,
			IsGenerated: candidate.Kind == "asr",
			Segments:    segments,
		})
	}

	log.Info().
		Str("video_id", videoID).
		Int("track_count", len(tracks)).
		Msg("Caption tracks retrieved")

	return tracks, nil
}

// Connect is a no-op; the client holds no persistent connection.
func (c *TimedTextClient) Connect(ctx context.Context) error { return nil }

// Disconnect is a no-op.
func (c *TimedTextClient) Disconnect(ctx context.Context) error { return nil }

// GetVideoMetadata extracts video metadata from the player response, so a
// collector without a Data API key can still fill in titles and channels.
func (c *TimedTextClient) GetVideoMetadata(ctx context.Context, videoID string) (*model.VideoMetadata, error) {
	player, err := c.fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, &MetadataError{VideoID: videoID, Err: err}
	}

	details := player.VideoDetails
	if details.VideoID == "" || details.VideoID != videoID {
		return nil, &MetadataError{VideoID: videoID, Err: fmt.Errorf("player response carries no video details")}
	}

	metadata := &model.VideoMetadata{
		Title:   details.Title,
		Channel: details.Author,
		Tags:    details.Keywords,
	}
	if details.ChannelID != "" {
		metadata.ChannelID = &details.ChannelID
	}
	if details.ShortDescription != "" {
		metadata.Description = &details.ShortDescription
	}
	if seconds, err := strconv.ParseInt(details.LengthSeconds, 10, 64); err == nil {
		metadata.DurationSeconds = &seconds
	}
	if views, err := strconv.ParseInt(details.ViewCount, 10, 64); err == nil {
		metadata.ViewCount = &views
	}

	var best string
	var bestWidth int
	for _, thumb := range details.Thumbnail.Thumbnails {
		if thumb.Width >= bestWidth {
			best = thumb.URL
			bestWidth = thumb.Width
		}
	}
	if best != "" {
		metadata.ThumbnailURL = &best
	}

	micro := player.Microformat.PlayerMicroformatRenderer
	if len(micro.UploadDate) >= 10 {
		compact := strings.ReplaceAll(micro.UploadDate[:10], "-", "")
		if len(compact) == 8 {
			metadata.UploadDate = &compact
		}
	}
	if micro.Category != "" {
		metadata.Categories = []string{micro.Category}
	}

	return metadata, nil
}

func (c *TimedTextClient) fetchPlayerResponse(ctx context.Context, videoID string) (*playerResponse, error) {
	body, err := json.Marshal(map[string]interface{}{
		"videoId": videoID,
		"context": map[string]interface{}{
			"client": map[string]interface{}{
				"clientName":    c.clientName,
				"clientVersion": c.clientVersion,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode player request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create player request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("player request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read player response: %w", err)
	}

	var player playerResponse
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, fmt.Errorf("failed to decode player response: %w", err)
	}
	return &player, nil
}

func (c *TimedTextClient) fetchSegments(ctx context.Context, baseURL string) ([]model.TranscriptSegment, error) {
	url := baseURL
	if !strings.Contains(url, "fmt=") {
		url += "&fmt=json3"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create timedtext request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timedtext request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timedtext request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read timedtext response: %w", err)
	}

	return parseTimedText(data)
}

// parseTimedText decodes a fmt=json3 timedtext document into ordered
// transcript segments. Events without text (window styling events) are
// skipped.
func parseTimedText(data []byte) ([]model.TranscriptSegment, error) {
	var doc timedTextDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode timedtext document: %w", err)
	}

	segments := make([]model.TranscriptSegment, 0, len(doc.Events))
	for _, event := range doc.Events {
		var sb strings.Builder
		for _, seg := range event.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		segments = append(segments, model.TranscriptSegment{
			Start:    float64(event.StartMs) / 1000,
			Duration: float64(event.DurationMs) / 1000,
			Text:     text,
		})
	}
	return segments, nil
}
