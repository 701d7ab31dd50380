package client

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/harmonic-insight/youtube-collector/model"
)

// Number of channel-to-uploads-playlist resolutions kept in memory.
const defaultPlaylistCacheSize = 1000

var (
	playlistIDPattern = regexp.MustCompile(`[?&]list=([A-Za-z0-9_-]+)`)
	channelIDPattern  = regexp.MustCompile(`/channel/(UC[A-Za-z0-9_-]+)`)
	handlePattern     = regexp.MustCompile(`/(@[A-Za-z0-9._-]+)`)
	isoDurationRe     = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
)

// YouTubeDataClient talks to the YouTube Data API v3. It implements both
// MetadataClient and VideoListClient.
type YouTubeDataClient struct {
	service *ytapi.Service
	apiKey  string

	uploadsPlaylistCache *lru.Cache[string, string]
}

// NewYouTubeDataClient creates a new YouTube Data API client.
func NewYouTubeDataClient(apiKey string) (*YouTubeDataClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	cache, err := lru.New[string, string](defaultPlaylistCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create uploads playlist cache: %w", err)
	}

	return &YouTubeDataClient{
		apiKey:               apiKey,
		uploadsPlaylistCache: cache,
	}, nil
}

// Connect establishes a connection to the YouTube API.
func (c *YouTubeDataClient) Connect(ctx context.Context) error {
	log.Info().Msg("Connecting to YouTube API")

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	service, err := ytapi.NewService(ctx, option.WithAPIKey(c.apiKey), option.WithHTTPClient(httpClient))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create YouTube service")
		return fmt.Errorf("failed to create YouTube service: %w", err)
	}

	c.service = service
	log.Info().Msg("Connected to YouTube API successfully")
	return nil
}

// Disconnect closes the connection to the YouTube API.
func (c *YouTubeDataClient) Disconnect(ctx context.Context) error {
	// No explicit disconnect needed for the YouTube API client
	c.service = nil
	return nil
}

// GetVideoMetadata retrieves metadata for a single video.
func (c *YouTubeDataClient) GetVideoMetadata(ctx context.Context, videoID string) (*model.VideoMetadata, error) {
	if c.service == nil {
		return nil, &MetadataError{VideoID: videoID, Err: fmt.Errorf("YouTube client not connected")}
	}

	log.Debug().Str("video_id", videoID).Msg("Fetching video metadata")

	call := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoID).
		MaxResults(1).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to get video from YouTube API")
		return nil, &MetadataError{VideoID: videoID, Err: err}
	}

	if len(response.Items) == 0 {
		return nil, &MetadataError{VideoID: videoID, Err: fmt.Errorf("video not found on YouTube")}
	}

	item := response.Items[0]
	metadata := &model.VideoMetadata{
		Title:   item.Snippet.Title,
		Channel: item.Snippet.ChannelTitle,
	}

	if item.Snippet.ChannelId != "" {
		metadata.ChannelID = &item.Snippet.ChannelId
	}
	if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		uploadDate := publishedAt.UTC().Format("20060102")
		metadata.UploadDate = &uploadDate
	}
	if item.Snippet.Description != "" {
		metadata.Description = &item.Snippet.Description
	}
	if len(item.Snippet.Tags) > 0 {
		metadata.Tags = item.Snippet.Tags
	}
	if item.Snippet.CategoryId != "" {
		metadata.Categories = []string{item.Snippet.CategoryId}
	}
	if thumb := bestThumbnail(item.Snippet.Thumbnails); thumb != "" {
		metadata.ThumbnailURL = &thumb
	}

	if item.Statistics != nil {
		viewCount := int64(item.Statistics.ViewCount)
		likeCount := int64(item.Statistics.LikeCount)
		metadata.ViewCount = &viewCount
		metadata.LikeCount = &likeCount
	}

	if item.ContentDetails != nil {
		if seconds, ok := parseISO8601Duration(item.ContentDetails.Duration); ok {
			metadata.DurationSeconds = &seconds
		}
	}

	log.Info().
		Str("video_id", videoID).
		Str("title", metadata.Title).
		Str("channel", metadata.Channel).
		Msg("Video metadata retrieved")

	return metadata, nil
}

// ListPlaylistVideos returns up to max videos from a playlist, in playlist
// order.
func (c *YouTubeDataClient) ListPlaylistVideos(ctx context.Context, playlist string, max int) ([]VideoRef, error) {
	if c.service == nil {
		return nil, fmt.Errorf("YouTube client not connected")
	}

	playlistID := extractPlaylistID(playlist)
	log.Info().Str("playlist_id", playlistID).Int("max", max).Msg("Listing playlist videos")

	return c.listPlaylistItems(ctx, playlistID, max)
}

// ListChannelVideos returns up to max of the channel's latest uploads. The
// channel may be given as a channel URL, a UC... channel ID, an @handle or a
// bare username.
func (c *YouTubeDataClient) ListChannelVideos(ctx context.Context, channel string, max int) ([]VideoRef, error) {
	if c.service == nil {
		return nil, fmt.Errorf("YouTube client not connected")
	}

	channelID := extractChannelRef(channel)
	log.Info().Str("channel", channelID).Int("max", max).Msg("Listing channel videos")

	uploadsPlaylistID, err := c.resolveUploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}

	return c.listPlaylistItems(ctx, uploadsPlaylistID, max)
}

// SearchVideos returns up to max videos matching the query, in relevance
// order.
func (c *YouTubeDataClient) SearchVideos(ctx context.Context, query string, max int) ([]VideoRef, error) {
	if c.service == nil {
		return nil, fmt.Errorf("YouTube client not connected")
	}

	log.Info().Str("query", query).Int("max", max).Msg("Searching videos")

	refs := make([]VideoRef, 0, max)
	var nextPageToken string
	for len(refs) < max {
		call := c.service.Search.List([]string{"id"}).
			Q(query).
			Type("video").
			MaxResults(int64(minInt(50, max-len(refs)))).
			Context(ctx)
		if nextPageToken != "" {
			call = call.PageToken(nextPageToken)
		}

		response, err := call.Do()
		if err != nil {
			log.Error().Err(err).Str("query", query).Msg("Failed to search videos")
			return nil, fmt.Errorf("failed to search videos: %w", err)
		}

		for _, item := range response.Items {
			if item.Id == nil || item.Id.VideoId == "" {
				continue
			}
			refs = append(refs, VideoRef{
				ID:  item.Id.VideoId,
				URL: model.WatchURL(item.Id.VideoId),
			})
		}

		if response.NextPageToken == "" || len(response.Items) == 0 {
			break
		}
		nextPageToken = response.NextPageToken
	}

	if len(refs) > max {
		refs = refs[:max]
	}

	log.Info().Str("query", query).Int("video_count", len(refs)).Msg("Search results retrieved")
	return refs, nil
}

// resolveUploadsPlaylist finds the uploads playlist for a channel, caching
// the result since the mapping never changes.
func (c *YouTubeDataClient) resolveUploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	if cached, ok := c.uploadsPlaylistCache.Get(channelID); ok {
		log.Debug().Str("channel_id", channelID).Msg("Using cached uploads playlist")
		return cached, nil
	}

	var part = []string{"contentDetails"}
	var call *ytapi.ChannelsListCall

	if len(channelID) > 0 && channelID[0] == '@' {
		// Handle format (@handle)
		call = c.service.Channels.List(part).ForHandle(channelID)
	} else if len(channelID) > 2 && channelID[0:2] == "UC" {
		// Channel ID format (UCxxx...)
		call = c.service.Channels.List(part).Id(channelID)
	} else {
		// Try as username without @ symbol
		call = c.service.Channels.List(part).ForUsername(channelID)
	}

	response, err := call.MaxResults(1).Context(ctx).Do()
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to get channel from YouTube API")
		return "", fmt.Errorf("failed to get channel from YouTube API: %w", err)
	}

	if len(response.Items) == 0 {
		return "", fmt.Errorf("channel not found on YouTube: %s", channelID)
	}

	uploadsPlaylistID := response.Items[0].ContentDetails.RelatedPlaylists.Uploads
	c.uploadsPlaylistCache.Add(channelID, uploadsPlaylistID)
	return uploadsPlaylistID, nil
}

func (c *YouTubeDataClient) listPlaylistItems(ctx context.Context, playlistID string, max int) ([]VideoRef, error) {
	refs := make([]VideoRef, 0, max)
	var nextPageToken string
	for len(refs) < max {
		call := c.service.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(int64(minInt(50, max-len(refs)))).
			Context(ctx)
		if nextPageToken != "" {
			call = call.PageToken(nextPageToken)
		}

		response, err := call.Do()
		if err != nil {
			log.Error().Err(err).Str("playlist_id", playlistID).Msg("Failed to get videos from playlist")
			return nil, fmt.Errorf("failed to get videos from playlist: %w", err)
		}

		if len(response.Items) == 0 {
			break
		}

		for _, item := range response.Items {
			videoID := item.ContentDetails.VideoId
			if videoID == "" {
				continue
			}
			refs = append(refs, VideoRef{ID: videoID, URL: model.WatchURL(videoID)})
		}

		if len(refs) >= max || response.NextPageToken == "" {
			break
		}
		nextPageToken = response.NextPageToken
	}

	if len(refs) > max {
		refs = refs[:max]
	}

	log.Info().Str("playlist_id", playlistID).Int("video_count", len(refs)).Msg("Playlist videos retrieved")
	return refs, nil
}

// extractPlaylistID pulls the list parameter out of a playlist URL, falling
// back to the raw value for bare playlist IDs.
func extractPlaylistID(playlist string) string {
	if m := playlistIDPattern.FindStringSubmatch(playlist); m != nil {
		return m[1]
	}
	return playlist
}

// extractChannelRef normalizes a channel URL to a channel ID or @handle.
// Bare IDs, handles and usernames pass through unchanged.
func extractChannelRef(channel string) string {
	if m := channelIDPattern.FindStringSubmatch(channel); m != nil {
		return m[1]
	}
	if m := handlePattern.FindStringSubmatch(channel); m != nil {
		return m[1]
	}
	return channel
}

// parseISO8601Duration converts a PT#H#M#S duration to seconds.
func parseISO8601Duration(d string) (int64, bool) {
	m := isoDurationRe.FindStringSubmatch(d)
	if m == nil {
		return 0, false
	}
	var seconds int64
	if m[1] != "" {
		h, _ := strconv.ParseInt(m[1], 10, 64)
		seconds += h * 3600
	}
	if m[2] != "" {
		mins, _ := strconv.ParseInt(m[2], 10, 64)
		seconds += mins * 60
	}
	if m[3] != "" {
		s, _ := strconv.ParseInt(m[3], 10, 64)
		seconds += s
	}
	return seconds, true
}

// bestThumbnail picks the highest-resolution thumbnail available.
func bestThumbnail(t *ytapi.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	switch {
	case t.Maxres != nil && t.Maxres.Url != "":
		return t.Maxres.Url
	case t.High != nil && t.High.Url != "":
		return t.High.Url
	case t.Medium != nil && t.Medium.Url != "":
		return t.Medium.Url
	case t.Default != nil && t.Default.Url != "":
		return t.Default.Url
	}
	return ""
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
