// Package source resolves heterogeneous input specifications (URLs,
// playlists, channels, search queries, URL files) into a uniform ordered
// stream of video identifiers.
package source

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/harmonic-insight/youtube-collector/client"
	"github.com/harmonic-insight/youtube-collector/common"
	"github.com/harmonic-insight/youtube-collector/model"
)

// Kind identifies how an input specification should be resolved.
type Kind string

const (
	KindURLs     Kind = "urls"
	KindPlaylist Kind = "playlist"
	KindChannel  Kind = "channel"
	KindSearch   Kind = "search"
	KindFile     Kind = "file"
)

// Spec is one input specification to resolve.
type Spec struct {
	Kind Kind
	// Values holds the URLs for KindURLs; Value holds the single playlist
	// URL, channel reference, search query or file path otherwise.
	Values []string
	Value  string
	// Max caps the number of resolved videos. Zero or negative caps
	// resolve to nothing, which is a resolution error.
	Max int
}

// Video is one resolved video: identifier plus its source URL.
type Video struct {
	ID  string
	URL string
}

// ResolutionError means an input specification could not be turned into any
// video identifiers. It is fatal for the run; nothing is collected.
type ResolutionError struct {
	Kind  Kind
	Input string
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to resolve %s source %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("failed to resolve %s source %q: no videos found", e.Kind, e.Input)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Patterns that extract an 11-character video ID from the URL shapes YouTube
// uses, plus bare IDs.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/v/|youtu\.be/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:embed/|shorts/|live/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`),
}

// ExtractVideoID pulls a video identifier out of a watch/short/embed URL or
// a bare 11-character ID. The second return is false when nothing matches.
func ExtractVideoID(url string) (string, bool) {
	trimmed := strings.TrimSpace(url)
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Resolver turns input specifications into video sequences, delegating
// playlist, channel and search expansion to the listing collaborator.
type Resolver struct {
	Lister client.VideoListClient
}

// NewResolver creates a resolver backed by the given listing collaborator.
func NewResolver(lister client.VideoListClient) *Resolver {
	return &Resolver{Lister: lister}
}

// Resolve produces the ordered, deduplicated, capped video sequence for one
// input specification. It fails with *ResolutionError when the listing
// collaborator errors or the specification yields zero videos.
func (r *Resolver) Resolve(ctx context.Context, spec Spec) ([]Video, error) {
	max := spec.Max
	log.Info().
		Str("kind", string(spec.Kind)).
		Str("input", r.describe(spec)).
		Int("max", max).
		Msg("Resolving input source")

	var (
		videos []Video
		err    error
	)

	switch spec.Kind {
	case KindURLs:
		videos = fromURLs(spec.Values)
	case KindFile:
		videos, err = r.fromFile(spec.Value)
	case KindPlaylist:
		videos, err = r.fromListing(spec, func(c client.VideoListClient) ([]client.VideoRef, error) {
			return c.ListPlaylistVideos(ctx, spec.Value, max)
		})
	case KindChannel:
		videos, err = r.fromListing(spec, func(c client.VideoListClient) ([]client.VideoRef, error) {
			return c.ListChannelVideos(ctx, spec.Value, max)
		})
	case KindSearch:
		videos, err = r.fromListing(spec, func(c client.VideoListClient) ([]client.VideoRef, error) {
			return c.SearchVideos(ctx, spec.Value, max)
		})
	default:
		err = fmt.Errorf("unknown source kind: %s", spec.Kind)
	}

	if err != nil {
		return nil, &ResolutionError{Kind: spec.Kind, Input: r.describe(spec), Err: err}
	}

	videos = dedupVideos(videos)
	if max <= 0 {
		videos = nil
	} else if len(videos) > max {
		videos = videos[:max]
	}

	if len(videos) == 0 {
		return nil, &ResolutionError{Kind: spec.Kind, Input: r.describe(spec)}
	}

	log.Info().
		Str("kind", string(spec.Kind)).
		Int("video_count", len(videos)).
		Msg("Input source resolved")

	return videos, nil
}

func (r *Resolver) describe(spec Spec) string {
	if spec.Kind == KindURLs {
		return strings.Join(spec.Values, ",")
	}
	return spec.Value
}

func (r *Resolver) fromListing(spec Spec, list func(client.VideoListClient) ([]client.VideoRef, error)) ([]Video, error) {
	if spec.Max <= 0 {
		// A zero cap cannot resolve anything; surface it instead of
		// silently succeeding with an empty run.
		return nil, nil
	}
	if r.Lister == nil {
		return nil, fmt.Errorf("no video listing client configured")
	}
	refs, err := list(r.Lister)
	if err != nil {
		return nil, err
	}
	videos := make([]Video, 0, len(refs))
	for _, ref := range refs {
		id := ref.ID
		if id == "" {
			if extracted, ok := ExtractVideoID(ref.URL); ok {
				id = extracted
			} else {
				continue
			}
		}
		url := ref.URL
		if url == "" {
			url = model.WatchURL(id)
		}
		videos = append(videos, Video{ID: id, URL: url})
	}
	return videos, nil
}

func (r *Resolver) fromFile(path string) ([]Video, error) {
	urls, err := common.ReadURLsFromFile(path)
	if err != nil {
		return nil, err
	}
	return fromURLs(urls), nil
}

func fromURLs(urls []string) []Video {
	videos := make([]Video, 0, len(urls))
	for _, url := range urls {
		id, ok := ExtractVideoID(url)
		if !ok {
			log.Warn().Str("url", url).Msg("Could not extract video ID from URL, skipping")
			continue
		}
		videos = append(videos, Video{ID: id, URL: model.WatchURL(id)})
	}
	return videos
}

// dedupVideos removes duplicate identifiers, keeping first-seen order.
func dedupVideos(videos []Video) []Video {
	seen := make(map[string]bool, len(videos))
	unique := make([]Video, 0, len(videos))
	for _, v := range videos {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		unique = append(unique, v)
	}
	return unique
}
