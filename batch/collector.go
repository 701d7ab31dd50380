package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/harmonic-insight/youtube-collector/collect"
	"github.com/harmonic-insight/youtube-collector/model"
	"github.com/harmonic-insight/youtube-collector/source"
)

// SourceResult reports how one batch source went.
type SourceResult struct {
	Kind      source.Kind
	Value     string
	Collected int
	Succeeded int
	Err       error
}

// Result aggregates a whole batch run.
type Result struct {
	TotalSources      int
	TotalCollected    int
	UniqueVideos      int
	DuplicatesRemoved int
	Sources           []SourceResult
}

// Collector runs every configured source through the shared resolver and
// collection pipeline, deduplicating videos across sources.
type Collector struct {
	Resolver *source.Resolver
	Pipeline *collect.Collector
}

// CollectAll processes all sources in order. A source whose resolution
// fails is recorded in the result and skipped; it does not abort the batch.
// The returned run carries the cross-source-deduplicated records.
func (b *Collector) CollectAll(ctx context.Context, cfg *Config) (*model.CollectionRun, *Result) {
	merged := &model.CollectionRun{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	result := &Result{TotalSources: len(cfg.Sources)}
	seen := make(map[string]bool)

	for i, src := range cfg.Sources {
		label := src.Label
		if label == "" {
			label = src.Value
		}
		log.Info().
			Int("position", i+1).
			Int("total", len(cfg.Sources)).
			Str("kind", string(src.Kind)).
			Str("source", label).
			Msg("Processing batch source")

		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(cfg.Sources)-i).Msg("Batch cancelled, dropping remaining sources")
			break
		}

		spec := source.Spec{Kind: src.Kind, Value: src.Value, Max: src.Max}
		if src.Kind == source.KindURLs {
			spec.Values = []string{src.Value}
			spec.Max = 1
		}

		videos, err := b.Resolver.Resolve(ctx, spec)
		if err != nil {
			log.Error().Err(err).Str("source", label).Msg("Batch source resolution failed, skipping")
			result.Sources = append(result.Sources, SourceResult{Kind: src.Kind, Value: src.Value, Err: err})
			continue
		}

		run := b.Pipeline.Run(ctx, videos)
		result.TotalCollected += run.Attempted

		stat := SourceResult{Kind: src.Kind, Value: src.Value, Collected: run.Attempted, Succeeded: run.Succeeded}
		result.Sources = append(result.Sources, stat)

		for _, record := range run.Records {
			if seen[record.VideoID] {
				result.DuplicatesRemoved++
				continue
			}
			seen[record.VideoID] = true
			merged.Records = append(merged.Records, record)
			if record.Succeeded() {
				merged.Succeeded++
			} else {
				merged.Failed++
			}
		}
	}

	merged.Attempted = len(merged.Records)
	merged.FinishedAt = time.Now().UTC()
	result.UniqueVideos = merged.Attempted

	log.Info().
		Int("sources", result.TotalSources).
		Int("collected", result.TotalCollected).
		Int("unique", result.UniqueVideos).
		Int("duplicates_removed", result.DuplicatesRemoved).
		Msg("Batch collection finished")

	return merged, result
}
