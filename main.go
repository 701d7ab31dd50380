package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harmonic-insight/youtube-collector/batch"
	"github.com/harmonic-insight/youtube-collector/client"
	"github.com/harmonic-insight/youtube-collector/collect"
	"github.com/harmonic-insight/youtube-collector/common"
	"github.com/harmonic-insight/youtube-collector/model"
	"github.com/harmonic-insight/youtube-collector/source"
	"github.com/harmonic-insight/youtube-collector/storage"
)

const appVersion = "1.0.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool
	var quiet bool

	rootCmd := &cobra.Command{
		Use:           "youtube-collector",
		Short:         "Collect YouTube video transcripts and metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(verbose, quiet)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")

	viper.SetDefault("api_key", "")
	_ = viper.BindEnv("api_key", "YOUTUBE_API_KEY")

	rootCmd.AddCommand(newCollectCommand())
	rootCmd.AddCommand(newBatchCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newManifestCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func configureLogging(verbose, quiet bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// collectFlags holds everything the collect command accepts.
type collectFlags struct {
	playlist string
	channel  string
	search   string
	file     string
	urls     []string

	config common.CollectorConfig

	noSegments bool
	compact    bool
	warehouse  bool
}

// sourceSpec derives the single source specification from the flags.
// Exactly one source selector must be set.
func (f *collectFlags) sourceSpec() (source.Spec, error) {
	spec := source.Spec{Max: f.config.MaxVideos}
	selected := 0
	if f.playlist != "" {
		spec.Kind, spec.Value = source.KindPlaylist, f.playlist
		selected++
	}
	if f.channel != "" {
		spec.Kind, spec.Value = source.KindChannel, f.channel
		selected++
	}
	if f.search != "" {
		spec.Kind, spec.Value = source.KindSearch, f.search
		selected++
	}
	if f.file != "" {
		spec.Kind, spec.Value = source.KindFile, f.file
		selected++
	}
	if len(f.urls) > 0 {
		spec.Kind, spec.Values = source.KindURLs, f.urls
		selected++
	}
	if selected == 0 {
		return spec, fmt.Errorf("no source given: use --playlist, --channel, --search, --file or --url")
	}
	if selected > 1 {
		return spec, fmt.Errorf("more than one source given: use exactly one of --playlist, --channel, --search, --file or --url")
	}
	return spec, nil
}

func newCollectCommand() *cobra.Command {
	flags := collectFlags{config: common.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect transcripts from one source into JSON and the warehouse",
		Long: `Resolve a playlist, channel, search query, URL list or URL file into
video identifiers and collect a transcript plus metadata for each. Results are
written as a JSON document and, when requested, as per-video text files in the
warehouse.

Without an API key (flag --api-key or environment YOUTUBE_API_KEY) only
channel listings and direct URLs can be resolved; playlists and search need
the YouTube Data API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd.Context(), &flags)
		},
	}

	cmd.Flags().StringVar(&flags.playlist, "playlist", "", "Playlist URL or identifier to collect")
	cmd.Flags().StringVar(&flags.channel, "channel", "", "Channel URL, @handle or identifier to collect")
	cmd.Flags().StringVar(&flags.search, "search", "", "Search query to collect")
	cmd.Flags().StringVar(&flags.file, "file", "", "Path or URL of a text file with one video URL per line")
	cmd.Flags().StringSliceVar(&flags.urls, "url", nil, "Video URL to collect (repeatable)")

	cmd.Flags().StringVar(&flags.config.APIKey, "api-key", "", "YouTube Data API key (defaults to YOUTUBE_API_KEY)")
	cmd.Flags().IntVar(&flags.config.MaxVideos, "max", flags.config.MaxVideos, "Maximum number of videos to collect")
	cmd.Flags().IntVar(&flags.config.Concurrency, "concurrency", flags.config.Concurrency, "Number of videos processed in parallel")
	cmd.Flags().DurationVar(&flags.config.RequestDelay, "delay", flags.config.RequestDelay, "Delay between sequential video requests")
	cmd.Flags().StringVarP(&flags.config.OutputPath, "output", "o", flags.config.OutputPath, "JSON output path")
	cmd.Flags().BoolVar(&flags.config.Append, "append", false, "Merge into an existing JSON output file instead of replacing it")
	cmd.Flags().StringVar(&flags.config.CrawlLabel, "label", "", "Label recorded in the JSON crawl envelope")
	cmd.Flags().BoolVar(&flags.noSegments, "no-segments", false, "Store only full transcript text, not timed segments")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "Write compact JSON instead of indented")
	cmd.Flags().BoolVar(&flags.warehouse, "warehouse", false, "Also write per-video text files to the warehouse")
	cmd.Flags().StringVar(&flags.config.WarehouseDir, "warehouse-dir", flags.config.WarehouseDir, "Warehouse directory")
	cmd.Flags().StringVar(&flags.config.ManifestPath, "manifest", "", "Warehouse manifest path (defaults next to the warehouse directory)")

	return cmd
}

func runCollect(parent context.Context, flags *collectFlags) error {
	spec, err := flags.sourceSpec()
	if err != nil {
		return err
	}
	flags.config.IncludeSegments = !flags.noSegments
	flags.config.Pretty = !flags.compact

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, pipeline, cleanup, err := buildPipeline(ctx, &flags.config)
	if err != nil {
		return err
	}
	defer cleanup()

	videos, err := resolver.Resolve(ctx, spec)
	if err != nil {
		return err
	}

	run := pipeline.Run(ctx, videos)
	return writeRun(run, &flags.config, flags.warehouse)
}

// buildPipeline wires the resolver and collection pipeline. With an API key
// the Data API serves both listings and metadata; without one the InnerTube
// endpoints are used instead. The transcript path never needs a key.
func buildPipeline(ctx context.Context, cfg *common.CollectorConfig) (*source.Resolver, *collect.Collector, func(), error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = viper.GetString("api_key")
	}

	timedText := client.NewTimedTextClient()

	var metadata client.MetadataClient
	var lister client.VideoListClient
	var disconnectLister func()
	if apiKey != "" {
		dataClient, err := client.NewYouTubeDataClient(apiKey)
		if err != nil {
			return nil, nil, nil, err
		}
		metadata, lister = dataClient, dataClient
	} else {
		log.Info().Msg("No API key configured, using keyless InnerTube endpoints")
		innerTube := client.NewInnerTubeListClient()
		if err := innerTube.Connect(ctx); err != nil {
			return nil, nil, nil, err
		}
		metadata, lister = timedText, innerTube
		disconnectLister = func() {
			if err := innerTube.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Failed to disconnect list client")
			}
		}
	}

	if err := metadata.Connect(ctx); err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := metadata.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to disconnect metadata client")
		}
		if disconnectLister != nil {
			disconnectLister()
		}
	}

	resolver := source.NewResolver(lister)
	pipeline := &collect.Collector{
		Metadata:     metadata,
		Transcripts:  timedText,
		Concurrency:  cfg.Concurrency,
		RequestDelay: cfg.RequestDelay,
	}
	return resolver, pipeline, cleanup, nil
}

func writeRun(run *model.CollectionRun, cfg *common.CollectorConfig, warehouse bool) error {
	sink := &storage.JSONSink{
		Path:            cfg.OutputPath,
		IncludeSegments: cfg.IncludeSegments,
		Pretty:          cfg.Pretty,
		Label:           cfg.CrawlLabel,
	}
	info, err := sink.Write(run, cfg.Append)
	if err != nil {
		return err
	}

	fmt.Printf("Collected %d/%d videos (%d failed)\n", run.Succeeded, run.Attempted, run.Failed)
	fmt.Printf("JSON output: %s (%d records)\n", cfg.OutputPath, info.TotalVideos)

	if !warehouse {
		return nil
	}
	wh := storage.NewWarehouseStorage(cfg.WarehouseDir, cfg.ManifestPath)
	summary, err := wh.Write(run)
	if err != nil {
		return err
	}
	fmt.Printf("Warehouse: %d saved, %d skipped, %d failed in %s\n",
		summary.Saved, summary.Skipped, summary.Failed, summary.Dir)
	return nil
}

func newBatchCommand() *cobra.Command {
	var configPath string
	var keywordsFile string
	var urlsFile string
	var maxPerKeyword int
	cfg := common.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Collect from many sources defined in a configuration file",
		Long: `Run the collection pipeline over every source in a batch configuration.
Sources are processed in order; a source that fails to resolve is skipped and
reported, and videos seen under an earlier source are not collected again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var batchCfg *batch.Config
			var err error
			switch {
			case configPath != "":
				batchCfg, err = batch.LoadConfig(configPath)
			case keywordsFile != "":
				batchCfg, err = batch.FromKeywordsFile(keywordsFile, maxPerKeyword)
			case urlsFile != "":
				batchCfg, err = batch.FromURLsFile(urlsFile)
			default:
				return fmt.Errorf("no batch input given: use --config, --keywords-file or --urls-file")
			}
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), &cfg, batchCfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Batch configuration file (YAML or JSON)")
	cmd.Flags().StringVar(&keywordsFile, "keywords-file", "", "Text file with one search keyword per line")
	cmd.Flags().StringVar(&urlsFile, "urls-file", "", "Text file with one source URL per line")
	cmd.Flags().IntVar(&maxPerKeyword, "max-per-keyword", 10, "Videos collected per keyword with --keywords-file")
	cmd.Flags().StringVar(&cfg.APIKey, "api-key", "", "YouTube Data API key (defaults to YOUTUBE_API_KEY)")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Number of videos processed in parallel")
	cmd.Flags().DurationVar(&cfg.RequestDelay, "delay", cfg.RequestDelay, "Delay between sequential video requests")

	return cmd
}

func runBatch(parent context.Context, cfg *common.CollectorConfig, batchCfg *batch.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, pipeline, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	collector := &batch.Collector{Resolver: resolver, Pipeline: pipeline}
	run, result := collector.CollectAll(ctx, batchCfg)

	fmt.Printf("Batch finished: %d sources, %d collected, %d unique (%d duplicates removed)\n",
		result.TotalSources, result.TotalCollected, result.UniqueVideos, result.DuplicatesRemoved)
	for _, src := range result.Sources {
		if src.Err != nil {
			fmt.Printf("  %s %q: failed: %v\n", src.Kind, src.Value, src.Err)
			continue
		}
		fmt.Printf("  %s %q: %d collected, %d with transcript\n", src.Kind, src.Value, src.Collected, src.Succeeded)
	}

	if batchCfg.SaveJSON {
		jsonCfg := *cfg
		jsonCfg.OutputPath = batchCfg.JSONPath
		jsonCfg.IncludeSegments = batchCfg.IncludeSegments
		if err := writeRun(run, &jsonCfg, false); err != nil {
			return err
		}
	}
	if batchCfg.SaveWarehouse {
		dir := batchCfg.WarehouseDir
		if dir == "" {
			dir = cfg.WarehouseDir
		}
		wh := storage.NewWarehouseStorage(dir, "")
		summary, err := wh.Write(run)
		if err != nil {
			return err
		}
		fmt.Printf("Warehouse: %d saved, %d skipped, %d failed in %s\n",
			summary.Saved, summary.Skipped, summary.Failed, summary.Dir)
	}
	return nil
}

func newListCommand() *cobra.Command {
	cfg := common.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List warehouse documents on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wh := storage.NewWarehouseStorage(cfg.WarehouseDir, cfg.ManifestPath)
			files, err := wh.ListFiles()
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("Warehouse is empty")
				return nil
			}
			for _, name := range files {
				fmt.Println(name)
			}
			fmt.Printf("%d documents in %s\n", len(files), wh.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.WarehouseDir, "warehouse-dir", cfg.WarehouseDir, "Warehouse directory")
	cmd.Flags().StringVar(&cfg.ManifestPath, "manifest", "", "Warehouse manifest path")
	return cmd
}

func newManifestCommand() *cobra.Command {
	cfg := common.DefaultConfig()
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Show the warehouse manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wh := storage.NewWarehouseStorage(cfg.WarehouseDir, cfg.ManifestPath)
			manifest, err := wh.Manifest()
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(manifest, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			names := make([]string, 0, len(manifest.Files))
			for name := range manifest.Files {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				entry := manifest.Files[name]
				language := entry.Language
				if entry.IsAutoGenerated {
					language += " (auto)"
				}
				fmt.Printf("%s\t%s\t%s\t%s\n", name, entry.VideoID, language, common.FormatDuration(entry.DurationSeconds))
			}
			fmt.Printf("%d entries, updated %s\n", len(names), manifest.UpdatedAt)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.WarehouseDir, "warehouse-dir", cfg.WarehouseDir, "Warehouse directory")
	cmd.Flags().StringVar(&cfg.ManifestPath, "manifest", "", "Warehouse manifest path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Dump the raw manifest as JSON")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the collector version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("youtube-collector %s\n", appVersion)
		},
	}
}
