/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jfmyers9/scrobblegrid/internal/chart"
	"github.com/jfmyers9/scrobblegrid/internal/collage"
	"github.com/jfmyers9/scrobblegrid/internal/config"
	"github.com/jfmyers9/scrobblegrid/internal/fetcher"
	"github.com/jfmyers9/scrobblegrid/internal/history"
	"github.com/jfmyers9/scrobblegrid/internal/layout"
	"github.com/jfmyers9/scrobblegrid/internal/render"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// Accepted --from/--to formats
const dateLayout = "2006-01-02"

var (
	rootOutput     string
	rootLogLevel   string
	rootFrom       string
	rootTo         string
	rootNoProgress bool
	rootNoHistory  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scrobblegrid [username]",
	Short: "Weekly Last.fm album chart collages",
	Long: `scrobblegrid draws a Last.fm user's weekly album chart as a PNG collage.

Album covers are laid out in a square grid, ranked left to right and top to
bottom, with a legend of "rank. artist - album" lines beside it. Albums that
do not fit the grid appear in the legend only.

The Last.fm API key is read from lastfm.api_key in
~/.config/scrobblegrid/config.yaml, the SCROBBLEGRID_LASTFM_API_KEY
environment variable, or key.env in the working directory.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runChart,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&rootOutput, "output", "o", "", "Output PNG path (default from config, output.png)")
	rootCmd.Flags().StringVar(&rootFrom, "from", "", "Chart week start, YYYY-MM-DD (default: latest week)")
	rootCmd.Flags().StringVar(&rootTo, "to", "", "Chart week end, YYYY-MM-DD")
	rootCmd.Flags().BoolVar(&rootNoProgress, "no-progress", false, "Disable the fetch progress bar")
	rootCmd.Flags().BoolVar(&rootNoHistory, "no-history", false, "Do not record this run in the history database")

	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runChart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(rootLogLevel)

	username := cfg.Username
	if len(args) > 0 {
		username = args[0]
	}
	output := cfg.Output
	if rootOutput != "" {
		output = rootOutput
	}

	chartRange, err := parseRange(rootFrom, rootTo)
	if err != nil {
		return err
	}

	apiKey, err := cfg.APIKey()
	if err != nil {
		return apiKeyHint(err)
	}

	client, err := chart.NewClient(chart.ClientConfig{
		APIKey:      apiKey,
		BaseURL:     cfg.LastFM.BaseURL,
		HTTPTimeout: cfg.HTTPTimeout,
	}, logger)
	if err != nil {
		return err
	}

	fontData, err := loadFont(cfg.FontPath)
	if err != nil {
		return err
	}

	fallbackData, err := loadFont(cfg.FallbackFontPath)
	if err != nil {
		return err
	}

	compositor, err := render.NewCompositor(render.Options{
		FontData:         fontData,
		FallbackFontData: fallbackData,
		PlaceholderSize:  cfg.PlaceholderSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create compositor: %w", err)
	}

	builderCfg := collage.Config{
		Layout: layout.Options{
			CoverSize:  cfg.CoverSize,
			Margin:     cfg.Margin,
			WordMargin: cfg.WordMargin,
		},
	}
	if !rootNoProgress {
		builderCfg.Progress = newFetchProgress(os.Stderr)
	}
	if !rootNoHistory && cfg.HistoryDB != "" {
		store, err := openHistory(cfg.HistoryDB)
		if err != nil {
			// History is optional; the collage still gets drawn.
			logger.Warn().Err(err).Str("path", cfg.HistoryDB).Msg("Run history disabled")
		} else {
			defer store.Close()
			builderCfg.Recorder = store
		}
	}

	f := fetcher.New(client, fetcher.Options{Concurrency: cfg.Concurrency}, logger)
	builder := collage.New(builderCfg, client, f, compositor, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug().
		Str("user", username).
		Str("output", output).
		Int("concurrency", f.Concurrency()).
		Msg("Building collage")

	report, err := builder.Build(ctx, collage.Request{
		Username: username,
		Range:    chartRange,
		Output:   output,
	})
	if err != nil {
		return err
	}

	for _, line := range report.Legend {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}

	logSummary(logger, report)
	return nil
}

func logSummary(logger zerolog.Logger, report *collage.Report) {
	event := logger.Info().
		Str("output", report.Output).
		Int("albums", len(report.Albums)).
		Int("failed", report.Stats.Failed)
	if report.RunID > 0 {
		event = event.Int64("run", report.RunID)
	}
	event.Msg("Collage ready")
}

// parseRange parses --from/--to. Both must be set together.
// apiKeyHint points a missing-key error at the config file location.
func apiKeyHint(err error) error {
	if !errors.Is(err, config.ErrMissingAPIKey) {
		return err
	}
	return fmt.Errorf("%w (set lastfm.api_key in %s/config.yaml or SCROBBLEGRID_LASTFM_API_KEY)",
		err, config.GetConfigDir())
}

func parseRange(from, to string) (chart.Range, error) {
	if from == "" && to == "" {
		return chart.Range{}, nil
	}
	if from == "" || to == "" {
		return chart.Range{}, fmt.Errorf("--from and --to must be used together")
	}

	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return chart.Range{}, fmt.Errorf("invalid --from date %q: %w", from, err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return chart.Range{}, fmt.Errorf("invalid --to date %q: %w", to, err)
	}
	if !end.After(start) {
		return chart.Range{}, fmt.Errorf("--to must be after --from")
	}

	return chart.Range{From: start, To: end}, nil
}

func loadFont(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	return data, nil
}

func openHistory(path string) (*history.Store, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	return history.NewStore(path)
}
