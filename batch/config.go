// Package batch collects from many sources (playlists, channels, search
// keywords, URL lists) in one invocation, merging the results before they
// reach the sinks.
package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/harmonic-insight/youtube-collector/common"
	"github.com/harmonic-insight/youtube-collector/source"
)

// Default per-source caps, matching the collect command's defaults.
const (
	defaultPlaylistMax = 50
	defaultChannelMax  = 20
	defaultKeywordMax  = 10
)

// SourceConfig describes one batch source.
type SourceConfig struct {
	Kind  source.Kind
	Value string
	Max   int
	Label string
}

// Config is a full batch run configuration.
type Config struct {
	Sources []SourceConfig

	SaveWarehouse   bool
	WarehouseDir    string
	SaveJSON        bool
	JSONPath        string
	IncludeSegments bool
}

// LoadConfig reads a YAML or JSON batch configuration file of the shape
//
//	sources:
//	  playlists: [{url: ..., max: 20}, ...]
//	  channels:  [{url: ..., max: 20}, ...]
//	  keywords:  [{query: ..., max: 10}, ...]
//	  urls:      ["https://...", ...]
//	output:
//	  warehouse: true
//	  warehouse_dir: data/warehouse/lectures
//	  json: false
//	  json_path: data/output/batch_result.json
//
// List entries may be bare strings instead of maps.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read batch config: %w", err)
	}

	cfg := &Config{
		SaveWarehouse:   true,
		WarehouseDir:    filepath.Join("data", "warehouse", "lectures"),
		JSONPath:        filepath.Join("data", "output", "batch_result.json"),
		IncludeSegments: false,
	}

	cfg.Sources = append(cfg.Sources, parseSourceList(v.Get("sources.playlists"), source.KindPlaylist, "url", defaultPlaylistMax)...)
	cfg.Sources = append(cfg.Sources, parseSourceList(v.Get("sources.channels"), source.KindChannel, "url", defaultChannelMax)...)
	cfg.Sources = append(cfg.Sources, parseSourceList(v.Get("sources.keywords"), source.KindSearch, "query", defaultKeywordMax)...)
	cfg.Sources = append(cfg.Sources, parseSourceList(v.Get("sources.urls"), source.KindURLs, "url", 1)...)

	if v.IsSet("output.warehouse") {
		cfg.SaveWarehouse = v.GetBool("output.warehouse")
	}
	if dir := v.GetString("output.warehouse_dir"); dir != "" {
		cfg.WarehouseDir = dir
	}
	cfg.SaveJSON = v.GetBool("output.json")
	if path := v.GetString("output.json_path"); path != "" {
		cfg.JSONPath = path
	}
	cfg.IncludeSegments = v.GetBool("output.include_segments")

	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("batch config %s defines no sources", path)
	}
	return cfg, nil
}

// parseSourceList converts one sources.* list, accepting both bare strings
// and {url/query, max, label} maps.
func parseSourceList(raw interface{}, kind source.Kind, valueKey string, defaultMax int) []SourceConfig {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	var sources []SourceConfig
	for _, item := range items {
		switch v := item.(type) {
		case string:
			sources = append(sources, SourceConfig{Kind: kind, Value: v, Max: defaultMax})
		case map[string]interface{}:
			src := SourceConfig{Kind: kind, Max: defaultMax}
			if value, ok := v[valueKey].(string); ok {
				src.Value = value
			} else if value, ok := v["value"].(string); ok {
				src.Value = value
			}
			if max, ok := v["max"].(int); ok {
				src.Max = max
			} else if max, ok := v["max"].(float64); ok {
				src.Max = int(max)
			}
			if label, ok := v["label"].(string); ok {
				src.Label = label
			}
			if src.Value != "" {
				sources = append(sources, src)
			}
		}
	}
	return sources
}

// FromKeywordsFile builds a config from a text file with one search keyword
// per line; '#' lines are comments.
func FromKeywordsFile(path string, maxPerKeyword int) (*Config, error) {
	lines, err := common.ReadURLsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keywords file: %w", err)
	}

	cfg := &Config{
		SaveWarehouse: true,
		WarehouseDir:  filepath.Join("data", "warehouse", "lectures"),
	}
	for _, keyword := range lines {
		cfg.Sources = append(cfg.Sources, SourceConfig{
			Kind:  source.KindSearch,
			Value: keyword,
			Max:   maxPerKeyword,
		})
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("keywords file %s is empty", path)
	}
	return cfg, nil
}

// FromURLsFile builds a config from a text file of URLs, detecting playlist,
// channel and plain video URLs by shape.
func FromURLsFile(path string) (*Config, error) {
	lines, err := common.ReadURLsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read URLs file: %w", err)
	}

	cfg := &Config{
		SaveWarehouse: true,
		WarehouseDir:  filepath.Join("data", "warehouse", "lectures"),
	}
	for _, url := range lines {
		switch {
		case strings.Contains(url, "playlist?list="):
			cfg.Sources = append(cfg.Sources, SourceConfig{Kind: source.KindPlaylist, Value: url, Max: defaultPlaylistMax})
		case strings.Contains(url, "/@") || strings.Contains(url, "/channel/") || strings.Contains(url, "/c/"):
			cfg.Sources = append(cfg.Sources, SourceConfig{Kind: source.KindChannel, Value: url, Max: defaultChannelMax})
		default:
			cfg.Sources = append(cfg.Sources, SourceConfig{Kind: source.KindURLs, Value: url, Max: 1})
		}
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("URLs file %s is empty", path)
	}
	return cfg, nil
}
