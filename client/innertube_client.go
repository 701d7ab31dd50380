package client

import (
	"context"
	"fmt"
	"sync"

	innertubego "github.com/nezbut/innertube-go"
	"github.com/rs/zerolog/log"

	"github.com/harmonic-insight/youtube-collector/model"
)

// InnerTubeListClient lists channel videos through the InnerTube API. It
// needs no API key and serves as the channel lister when none is configured.
// Playlist and search listing still require the Data API client.
//
// InnerTube responses are loosely structured and change with YouTube A/B
// tests, so parsing is defensive map-walking throughout.
type InnerTubeListClient struct {
	client    *innertubego.InnerTube
	mu        sync.RWMutex
	connected bool

	clientType    string
	clientVersion string
}

// NewInnerTubeListClient creates a keyless channel lister.
func NewInnerTubeListClient() *InnerTubeListClient {
	return &InnerTubeListClient{
		clientType:    defaultClientName,
		clientVersion: defaultClientVersion,
	}
}

// Connect establishes a connection to the InnerTube API.
func (c *InnerTubeListClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected && c.client != nil {
		return nil
	}

	log.Info().Msg("Connecting to YouTube InnerTube API")

	// Parameters: config, clientType, clientVersion, apiKey, accessToken, refreshToken, httpClient, debug
	client, err := innertubego.NewInnerTube(
		nil,
		c.clientType,
		c.clientVersion,
		"",
		"",
		"",
		nil,
		false,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create InnerTube client")
		return fmt.Errorf("failed to create InnerTube client: %w", err)
	}

	c.client = client
	c.connected = true
	return nil
}

// Disconnect closes the connection to the InnerTube API.
func (c *InnerTubeListClient) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = nil
	c.connected = false
	return nil
}

// ListChannelVideos returns up to max of the channel's latest uploads via an
// InnerTube browse of the channel page.
func (c *InnerTubeListClient) ListChannelVideos(ctx context.Context, channel string, max int) ([]VideoRef, error) {
	c.mu.RLock()
	client := c.client
	connected := c.connected
	c.mu.RUnlock()

	if !connected || client == nil {
		return nil, fmt.Errorf("client not connected - call Connect() first")
	}

	browseID := extractChannelRef(channel)
	log.Info().Str("channel", browseID).Int("max", max).Msg("Listing channel videos via InnerTube")

	data, err := client.Browse(ctx, &browseID, nil, nil)
	if err != nil {
		log.Error().Err(err).Str("channel", browseID).Msg("Failed to browse channel")
		return nil, fmt.Errorf("failed to browse channel: %w", err)
	}

	refs, err := parseVideoRefsFromBrowse(data, max)
	if err != nil {
		return nil, fmt.Errorf("failed to parse channel videos: %w", err)
	}

	log.Info().Str("channel", browseID).Int("video_count", len(refs)).Msg("Channel videos retrieved via InnerTube")
	return refs, nil
}

// ListPlaylistVideos is not supported by the keyless lister.
func (c *InnerTubeListClient) ListPlaylistVideos(ctx context.Context, playlist string, max int) ([]VideoRef, error) {
	return nil, fmt.Errorf("playlist listing requires a YouTube API key")
}

// SearchVideos is not supported by the keyless lister.
func (c *InnerTubeListClient) SearchVideos(ctx context.Context, query string, max int) ([]VideoRef, error) {
	return nil, fmt.Errorf("search requires a YouTube API key")
}

// parseVideoRefsFromBrowse walks an InnerTube channel browse response and
// collects video IDs from whichever grid layout the response carries.
func parseVideoRefsFromBrowse(data interface{}, max int) ([]VideoRef, error) {
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data type for browse response")
	}

	refs := make([]VideoRef, 0)
	seen := make(map[string]bool)

	add := func(videoID string) {
		if videoID == "" || seen[videoID] || len(refs) >= max {
			return
		}
		seen[videoID] = true
		refs = append(refs, VideoRef{ID: videoID, URL: model.WatchURL(videoID)})
	}

	contents, ok := dataMap["contents"].(map[string]interface{})
	if !ok {
		log.Warn().Msg("No contents found in browse response")
		return refs, nil
	}

	twoCol, ok := contents["twoColumnBrowseResultsRenderer"].(map[string]interface{})
	if !ok {
		log.Warn().Msg("No twoColumnBrowseResultsRenderer found")
		return refs, nil
	}

	tabs, ok := twoCol["tabs"].([]interface{})
	if !ok {
		log.Warn().Msg("No tabs found in response")
		return refs, nil
	}

	for _, tab := range tabs {
		tabMap, ok := tab.(map[string]interface{})
		if !ok {
			continue
		}
		tabRenderer, ok := tabMap["tabRenderer"].(map[string]interface{})
		if !ok {
			continue
		}
		content, ok := tabRenderer["content"].(map[string]interface{})
		if !ok {
			continue
		}

		// Newer channel pages use richGridRenderer
		if grid, ok := content["richGridRenderer"].(map[string]interface{}); ok {
			if items, ok := grid["contents"].([]interface{}); ok {
				for _, item := range items {
					itemMap, ok := item.(map[string]interface{})
					if !ok {
						continue
					}
					richItem, ok := itemMap["richItemRenderer"].(map[string]interface{})
					if !ok {
						continue
					}
					itemContent, ok := richItem["content"].(map[string]interface{})
					if !ok {
						continue
					}
					if video, ok := itemContent["videoRenderer"].(map[string]interface{}); ok {
						if videoID, ok := video["videoId"].(string); ok {
							add(videoID)
						}
					}
				}
			}
		}

		// Older layout: sectionListRenderer with gridVideoRenderer items
		if sectionList, ok := content["sectionListRenderer"].(map[string]interface{}); ok {
			collectGridVideos(sectionList, add)
		}

		if len(refs) >= max {
			break
		}
	}

	return refs, nil
}

// collectGridVideos recursively walks nested renderer maps looking for
// gridVideoRenderer entries.
func collectGridVideos(node map[string]interface{}, add func(string)) {
	if video, ok := node["gridVideoRenderer"].(map[string]interface{}); ok {
		if videoID, ok := video["videoId"].(string); ok {
			add(videoID)
		}
		return
	}
	for _, value := range node {
		switch v := value.(type) {
		case map[string]interface{}:
			collectGridVideos(v, add)
		case []interface{}:
			for _, item := range v {
				if itemMap, ok := item.(map[string]interface{}); ok {
					collectGridVideos(itemMap, add)
				}
			}
		}
	}
}
