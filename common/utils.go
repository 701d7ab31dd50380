// Package common holds configuration and small helpers shared by the
// collector's commands and pipeline packages.
package common

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CollectorConfig carries the settings one collection invocation runs with.
type CollectorConfig struct {
	APIKey          string // YouTube Data API key; empty enables the keyless fallback lister
	MaxVideos       int    // Cap on resolved videos per source
	Concurrency     int    // Videos collected in parallel; 1 means sequential
	OutputPath      string // JSON sink target
	Append          bool   // Merge into existing JSON output
	IncludeSegments bool   // Keep per-segment timestamps in JSON output
	Pretty          bool   // Indented JSON
	WarehouseDir    string // Warehouse document directory
	ManifestPath    string // Warehouse manifest; defaults next to WarehouseDir
	RequestDelay    time.Duration
	CrawlLabel      string // User-defined label recorded with the run
}

// DefaultConfig returns the settings the CLI starts from.
func DefaultConfig() CollectorConfig {
	return CollectorConfig{
		MaxVideos:       20,
		Concurrency:     1,
		OutputPath:      "youtube_data.json",
		IncludeSegments: true,
		Pretty:          true,
		WarehouseDir:    filepath.Join("data", "warehouse", "lectures"),
		RequestDelay:    2 * time.Second,
	}
}

// GenerateCrawlID generates a unique identifier based on the current
// timestamp, formatted as YYYYMMDDHHMMSS.
func GenerateCrawlID() string {
	return time.Now().Format("20060102150405")
}

// DownloadURLFile downloads a file from a URL and saves it to a temporary
// location. Returns the path to the downloaded file.
func DownloadURLFile(url string) (string, error) {
	log.Info().Str("url", url).Msg("Downloading URL file")

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 YouTube-Collector/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	tempDir := os.TempDir()
	filename := filepath.Join(tempDir, fmt.Sprintf("video_urls_%s.txt", GenerateCrawlID()))

	out, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to write to file: %w", err)
	}

	log.Info().Str("file", filename).Msg("URL file downloaded successfully")
	return filename, nil
}

// ReadURLsFromFile reads URLs from a file, one per line. It ignores empty
// lines and lines starting with a '#' character (comments). Remote files
// (http/https paths) are downloaded first.
func ReadURLsFromFile(filename string) ([]string, error) {
	log.Debug().Str("filename", filename).Msg("Reading URLs from file")

	if strings.HasPrefix(filename, "http://") || strings.HasPrefix(filename, "https://") {
		downloaded, err := DownloadURLFile(filename)
		if err != nil {
			return nil, err
		}
		filename = downloaded
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	var urls []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}

	log.Debug().Int("url_count", len(urls)).Msg("URLs read from file")
	return urls, nil
}

// FormatDuration renders seconds as HH:MM:SS, or MM:SS under an hour.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "unknown"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
