package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/qmigrate/internal/migrate"
)

var (
	migrateDryRun          bool
	migrateDoRun           bool
	migrateTryCount        int
	migrateIgnoreDuplicate bool
	migrateSpace           string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate all questions into Discourse",
	Long: `Migrate the whole question corpus into Discourse, oldest question first.

Questions already recorded in the ledger are skipped, so the command can be
re-run safely after a partial or failed migration.

Examples:
  qmigrate migrate --dry-run
  qmigrate migrate --try-count 5
  qmigrate migrate --do-run
  qmigrate migrate --do-run --space DEV`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "simulate without creating topics")
	migrateCmd.Flags().BoolVar(&migrateDoRun, "do-run", false, "perform the full migration (overrides --dry-run and --try-count)")
	migrateCmd.Flags().IntVar(&migrateTryCount, "try-count", 2, "number of topics to attempt to create")
	migrateCmd.Flags().BoolVar(&migrateIgnoreDuplicate, "ignore-duplicate", false, "migrate questions even when the ledger has them")
	migrateCmd.Flags().StringVar(&migrateSpace, "space", "", "source space key (default: CONFLUENCE_SPACE_KEY)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dryRun := migrateDryRun
	tryCount := migrateTryCount
	ignoreDuplicate := migrateIgnoreDuplicate

	// --do-run wins: full live migration with duplicate checking.
	// An explicit --try-count implies a bounded live trial.
	switch {
	case migrateDoRun:
		dryRun = false
		tryCount = 0
		ignoreDuplicate = false
		logger.Info("do-run specified: dry run disabled, try count ignored, duplicates will be skipped")
	case cmd.Flags().Changed("try-count"):
		dryRun = false
		logger.Info("try count set, dry run disabled", "try_count", tryCount)
	}

	space := migrateSpace
	if space == "" {
		space = cfg.ConfluenceSpaceKey
	}

	m, _, stats, err := newMigrator(cmd.Context(), migrate.Options{
		DryRun:          dryRun,
		TryCount:        tryCount,
		IgnoreDuplicate: ignoreDuplicate,
		PageSize:        cfg.PageSize,
		PauseEvery:      cfg.PauseEvery,
		PauseFor:        cfg.PauseFor,
	})
	if err != nil {
		return err
	}

	if err := m.Run(cmd.Context(), space); err != nil {
		return err
	}

	printRunSummary(stats.Snapshot(), dryRun)
	return nil
}

func printRunSummary(s migrate.StatsSnapshot, dryRun bool) {
	fmt.Printf("\nRun finished in %s.\n", s.Elapsed.Round(time.Second))
	if dryRun {
		fmt.Printf("  Simulated: %d\n", s.Simulated)
	} else {
		fmt.Printf("  Topics created: %d\n  Answers added: %d\n", s.TopicsCreated, s.PostsCreated)
	}
	fmt.Printf("  Skipped: %d\n  Failed: %d\n", s.Skipped, s.Failed)
	if s.Anomalies > 0 {
		fmt.Printf("  Anomalies: %d (see log)\n", s.Anomalies)
	}
}
