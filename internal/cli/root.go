// Package cli provides the command-line interface for qmigrate.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/qmigrate/internal/config"
	"github.com/raphaelgruber/qmigrate/internal/confluence"
	"github.com/raphaelgruber/qmigrate/internal/discourse"
	"github.com/raphaelgruber/qmigrate/internal/migrate"
	"github.com/raphaelgruber/qmigrate/internal/transform"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Loaded in PersistentPreRunE
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "qmigrate",
	Short: "Migrate Confluence Questions to Discourse",
	Long: `Qmigrate moves question/answer content from Confluence Questions into a
Discourse forum, preserving authorship, timestamps, attachments, comment
threads, and tags.

Runs are resumable: a ledger of migrated question ids is kept on disk, so a
restarted run skips everything already created on the destination.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)
		slog.SetDefault(logger)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// migratorDeps wires the clients, stores, and content pipeline together.
// The category manager needs one round-trip to the destination, so the
// whole setup takes a context.
func newMigrator(ctx context.Context, opts migrate.Options) (*migrate.Migrator, *discourse.CategoryManager, *migrate.RunStats, error) {
	source := confluence.NewClient(cfg.ConfluenceURL, cfg.ConfluenceUsername, cfg.ConfluencePassword, logger)
	forum := discourse.NewClient(cfg.DiscourseURL, cfg.DiscourseAPIKey, cfg.DiscourseAPIUsername, logger)

	categories, err := discourse.NewCategoryManager(ctx, forum)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("set up destination categories: %w", err)
	}

	ledger, err := migrate.OpenFileLedger(cfg.LedgerFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	registry, err := migrate.OpenFileRegistry(cfg.RegistryFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open user registry: %w", err)
	}
	overrides, err := transform.LoadNameOverrides(cfg.NameOverridesFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load name overrides: %w", err)
	}

	stats := migrate.NewRunStats()
	m := migrate.New(migrate.Deps{
		Source:   source,
		Forum:    forum,
		Ledger:   ledger,
		Registry: registry,
		Formatter: &transform.Formatter{
			BaseURL:   cfg.ConfluenceURL,
			Overrides: overrides,
		},
		Rehoster: &migrate.Rehoster{
			Source:  source,
			Sink:    forum,
			BaseURL: cfg.ConfluenceURL,
			Logger:  logger,
			DryRun:  opts.DryRun,
		},
		CategoryFor: categories.Determine,
		Observer:    migrate.ComposeObservers(newConsoleObserver(), migrate.LogObserver{Logger: logger}, stats),
		Logger:      logger,
	}, opts)

	return m, categories, stats, nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(questionCmd)
	rootCmd.AddCommand(purgeCmd)
}
