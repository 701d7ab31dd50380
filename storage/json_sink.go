package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harmonic-insight/youtube-collector/model"
)

const (
	toolName    = "youtube-collector"
	toolVersion = "1.0.0"
)

// CorruptSinkError means an append target exists but cannot be parsed as
// prior collector output. It is fatal for that sink only; the in-memory run
// survives and can be redirected to a fresh target.
type CorruptSinkError struct {
	Path string
	Err  error
}

func (e *CorruptSinkError) Error() string {
	return fmt.Sprintf("existing output at %s is not valid collector output: %v", e.Path, e.Err)
}

func (e *CorruptSinkError) Unwrap() error { return e.Err }

// CrawlInfo is the envelope recorded at the top of every JSON output file.
type CrawlInfo struct {
	Tool        string `json:"tool"`
	Version     string `json:"version"`
	Label       string `json:"label,omitempty"`
	CrawledAt   string `json:"crawled_at"`
	TotalVideos int    `json:"total_videos"`
	Successful  int    `json:"successful"`
	Failed      int    `json:"failed"`
}

// jsonDocument is the full JSON sink layout. Videos stay raw so records
// merged from an existing file are carried through byte-identical.
type jsonDocument struct {
	CrawlInfo CrawlInfo         `json:"crawl_info"`
	Videos    []json.RawMessage `json:"videos"`
}

// recordProbe extracts just the fields dedup and counting need from a
// stored record.
type recordProbe struct {
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
}

// JSONSink merges collection runs into a cumulative JSON document.
type JSONSink struct {
	Path            string
	IncludeSegments bool
	Pretty          bool
	Label           string
}

// Write persists the run. With appendMode unset, the output is exactly the
// run's records. With appendMode set, existing records are kept unchanged
// and only records whose identifier is not yet present are appended; the
// envelope counts always reflect the union, and crawled_at reflects this
// write.
func (s *JSONSink) Write(run *model.CollectionRun, appendMode bool) (*CrawlInfo, error) {
	var existing []json.RawMessage
	ledger := NewLedger()

	if appendMode {
		var err error
		existing, err = s.loadExisting(ledger)
		if err != nil {
			return nil, err
		}
	}

	videos := append([]json.RawMessage{}, existing...)
	added := 0
	skipped := 0
	for i := range run.Records {
		record := &run.Records[i]
		if ledger.Contains(record.VideoID) {
			skipped++
			continue
		}
		raw, err := s.marshalRecord(record)
		if err != nil {
			return nil, fmt.Errorf("failed to encode record %s: %w", record.VideoID, err)
		}
		videos = append(videos, raw)
		ledger.Mark(record.VideoID)
		added++
	}

	info := CrawlInfo{
		Tool:        toolName,
		Version:     toolVersion,
		Label:       s.Label,
		CrawledAt:   time.Now().UTC().Format(time.RFC3339),
		TotalVideos: len(videos),
	}
	for _, raw := range videos {
		var probe recordProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("failed to probe record for counts: %w", err)
		}
		if probe.Status == model.StatusSuccess {
			info.Successful++
		} else {
			info.Failed++
		}
	}

	doc := jsonDocument{CrawlInfo: info, Videos: videos}

	var data []byte
	var err error
	if s.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode output document: %w", err)
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("path", s.Path).
		Int("existing", len(existing)).
		Int("added", added).
		Int("skipped", skipped).
		Int("total", info.TotalVideos).
		Msg("JSON output written")

	return &info, nil
}

// loadExisting reads the append target, seeds the ledger with its video
// identifiers and returns its records untouched. A missing file is an empty
// sink; an unparseable one is a CorruptSinkError.
func (s *JSONSink) loadExisting(ledger *Ledger) ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read existing output: %w", err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptSinkError{Path: s.Path, Err: err}
	}
	if doc.Videos == nil && doc.CrawlInfo.Tool == "" {
		return nil, &CorruptSinkError{Path: s.Path, Err: fmt.Errorf("missing crawl_info and videos keys")}
	}

	for _, raw := range doc.Videos {
		var probe recordProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, &CorruptSinkError{Path: s.Path, Err: fmt.Errorf("invalid video record: %w", err)}
		}
		if probe.VideoID == "" {
			return nil, &CorruptSinkError{Path: s.Path, Err: fmt.Errorf("video record without video_id")}
		}
		ledger.Mark(probe.VideoID)
	}

	return doc.Videos, nil
}

func (s *JSONSink) marshalRecord(record *model.VideoRecord) (json.RawMessage, error) {
	if s.IncludeSegments || record.Transcript == nil {
		return json.Marshal(record)
	}
	trimmed := *record
	trimmed.Transcript = record.Transcript.WithoutSegments()
	return json.Marshal(&trimmed)
}
