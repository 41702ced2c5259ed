package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jfmyers9/scrobblegrid/internal/config"
	"github.com/jfmyers9/scrobblegrid/internal/history"
	"github.com/jfmyers9/scrobblegrid/internal/tui"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyBrowse bool
	historyPrune  time.Duration
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously generated collages",
	Long: `List collages recorded in the history database, newest first.

Every successful run records the user, output path, canvas size and the
ranked albums with their play and track counts. Use --browse for an
interactive view of the albums of each run.

The database lives at ~/.local/share/scrobblegrid/history.db unless
history_db is set in the config file.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyBrowse, "browse", false, "Browse runs in a terminal UI")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "Delete runs older than this age (e.g. 720h) before listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.HistoryDB == "" {
		return fmt.Errorf("run history is disabled (history_db is empty)")
	}
	if _, err := os.Stat(cfg.HistoryDB); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
		return nil
	}

	store, err := history.NewStore(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	if historyPrune > 0 {
		deleted, err := store.Prune(ctx, historyPrune)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d run(s)\n", deleted)
	}

	runs, err := store.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	total, err := store.Count(ctx)
	if err != nil {
		return err
	}

	if historyBrowse {
		return tui.NewBrowser(runs).Run()
	}

	printRuns(cmd.OutOrStdout(), runs, total)
	return nil
}

// Column widths of the history table
const (
	colWhen   = 16
	colUser   = 20
	colAlbums = 6
	colTop    = 40
)

// printRuns writes the history table. total is the number of runs in the
// database, which exceeds len(runs) when --limit cuts the listing short.
func printRuns(w io.Writer, runs []history.Run, total int) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet")
		return
	}

	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		padToWidth("WHEN", colWhen),
		padToWidth("USER", colUser),
		padToWidth("ALBUMS", colAlbums),
		padToWidth("TOP ALBUM", colTop),
		"OUTPUT")

	for _, run := range runs {
		fmt.Fprintln(w, formatRunRow(run))
	}

	if total > len(runs) {
		fmt.Fprintf(w, "\nShowing %d of %d runs (use --limit 0 for all)\n", len(runs), total)
	}
}

// formatRunRow renders one aligned table row. Names are measured in display
// columns so wide characters keep the columns straight.
func formatRunRow(run history.Run) string {
	top := "-"
	if len(run.Albums) > 0 {
		a := run.Albums[0]
		top = fmt.Sprintf("%s - %s", a.Artist, a.Name)
	}

	albums := fmt.Sprintf("%d", len(run.Albums))
	if run.Failed > 0 {
		albums = fmt.Sprintf("%d/%d", len(run.Albums)-run.Failed, len(run.Albums))
	}

	return fmt.Sprintf("%s  %s  %s  %s  %s",
		padToWidth(run.CreatedAt.Local().Format("2006-01-02 15:04"), colWhen),
		padToWidth(run.Username, colUser),
		padToWidth(albums, colAlbums),
		padToWidth(top, colTop),
		run.Output)
}
