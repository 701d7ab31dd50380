package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harmonic-insight/youtube-collector/model"
)

// Manifest tracks every document in one warehouse directory.
type Manifest struct {
	Version     string                         `json:"version"`
	Description string                         `json:"description,omitempty"`
	CreatedAt   string                         `json:"created_at"`
	UpdatedAt   string                         `json:"updated_at"`
	Files       map[string]model.ManifestEntry `json:"files"`
}

// WarehouseSummary reports what one warehouse write did.
type WarehouseSummary struct {
	Dir          string
	ManifestPath string
	Saved        int
	Skipped      int
	Failed       int
	Files        []string
}

// WarehouseStorage writes one text document per successfully transcribed
// video plus a manifest entry. Failed records never reach the warehouse.
//
// Document and manifest writes are not transactionally linked: a crash
// between them leaves an orphan document. The list command's directory scan
// makes such orphans visible; they are an accepted risk, not repaired here.
type WarehouseStorage struct {
	Dir          string
	ManifestPath string

	// Overwrite re-writes documents for identifiers already present and
	// replaces their manifest entries instead of skipping them.
	Overwrite bool
}

// NewWarehouseStorage creates a warehouse rooted at dir. An empty
// manifestPath defaults to warehouse_manifest.json next to dir.
func NewWarehouseStorage(dir, manifestPath string) *WarehouseStorage {
	if manifestPath == "" {
		manifestPath = filepath.Join(filepath.Dir(dir), "warehouse_manifest.json")
	}
	return &WarehouseStorage{Dir: dir, ManifestPath: manifestPath}
}

// Write persists the run's successful records into the warehouse, honoring
// a dedup ledger built from the manifest.
func (w *WarehouseStorage) Write(run *model.CollectionRun) (*WarehouseSummary, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create warehouse directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(w.ManifestPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	manifest, err := w.loadManifest()
	if err != nil {
		return nil, err
	}

	ledger := NewLedger()
	for _, entry := range manifest.Files {
		if entry.VideoID != "" {
			ledger.Mark(entry.VideoID)
		}
	}

	summary := &WarehouseSummary{Dir: w.Dir, ManifestPath: w.ManifestPath}

	for i := range run.Records {
		record := &run.Records[i]
		if !record.Succeeded() {
			summary.Failed++
			continue
		}
		if ledger.Contains(record.VideoID) && !w.Overwrite {
			summary.Skipped++
			continue
		}

		filename := w.resolveFilename(manifest, record)
		content := record.WarehouseText()
		path := filepath.Join(w.Dir, filename)

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			log.Error().Err(err).Str("video_id", record.VideoID).Str("file", filename).Msg("Failed to write warehouse document")
			summary.Failed++
			continue
		}

		w.removeStaleEntry(manifest, record.VideoID, filename)
		manifest.Files[filename] = record.ManifestEntry()
		ledger.Mark(record.VideoID)
		summary.Saved++
		summary.Files = append(summary.Files, filename)

		log.Debug().Str("video_id", record.VideoID).Str("file", filename).Msg("Warehouse document written")
	}

	if err := w.saveManifest(manifest); err != nil {
		return nil, err
	}

	log.Info().
		Str("dir", w.Dir).
		Int("saved", summary.Saved).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Warehouse write finished")

	return summary, nil
}

// resolveFilename derives the record's document name, suffixing the video
// identifier when a distinct video already claims the same sanitized name.
func (w *WarehouseStorage) resolveFilename(manifest *Manifest, record *model.VideoRecord) string {
	filename := record.WarehouseFilename()
	if existing, ok := manifest.Files[filename]; ok && existing.VideoID != record.VideoID {
		filename = strings.TrimSuffix(filename, ".txt") + "_" + record.VideoID + ".txt"
	}
	return filename
}

// removeStaleEntry drops a prior manifest entry for the same video when its
// filename changed, so re-processing overwrites rather than duplicates.
func (w *WarehouseStorage) removeStaleEntry(manifest *Manifest, videoID, filename string) {
	for name, entry := range manifest.Files {
		if name != filename && entry.VideoID == videoID {
			delete(manifest.Files, name)
		}
	}
}

// ListFiles returns the warehouse documents actually on disk, sorted. Files
// present here but absent from the manifest are orphans from interrupted
// writes.
func (w *WarehouseStorage) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(w.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read warehouse directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".txt") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Manifest returns the current manifest, creating an empty one in memory
// when none exists yet.
func (w *WarehouseStorage) Manifest() (*Manifest, error) {
	return w.loadManifest()
}

func (w *WarehouseStorage) loadManifest() (*Manifest, error) {
	data, err := os.ReadFile(w.ManifestPath)
	if os.IsNotExist(err) {
		now := time.Now().UTC().Format(time.RFC3339)
		return &Manifest{
			Version:     toolVersion,
			Description: "YouTube transcript warehouse manifest",
			CreatedAt:   now,
			UpdatedAt:   now,
			Files:       make(map[string]model.ManifestEntry),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, &CorruptSinkError{Path: w.ManifestPath, Err: err}
	}
	if manifest.Files == nil {
		manifest.Files = make(map[string]model.ManifestEntry)
	}
	return &manifest, nil
}

func (w *WarehouseStorage) saveManifest(manifest *Manifest) error {
	manifest.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(w.ManifestPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
