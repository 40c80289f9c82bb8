package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/qmigrate/internal/migrate"
)

var (
	purgeDryRun bool
	purgeForce  bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all topics created by the migration",
	Long: `Delete every topic in the destination categories managed by this tool.

Deletion pauses periodically to respect the destination's rate limits.
Requires confirmation unless --force is used.

Examples:
  qmigrate purge --dry-run
  qmigrate purge --force`,
	Args: cobra.NoArgs,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeDryRun, "dry-run", false, "show what would be deleted")
	purgeCmd.Flags().BoolVarP(&purgeForce, "force", "f", false, "skip confirmation")
}

func runPurge(cmd *cobra.Command, args []string) error {
	if !purgeDryRun && !purgeForce {
		fmt.Print("About to delete all migrated topics on the destination.\n\nContinue? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	m, categories, _, err := newMigrator(cmd.Context(), migrate.Options{
		DryRun:     purgeDryRun,
		PauseEvery: cfg.PauseEvery,
		PauseFor:   cfg.PauseFor,
	})
	if err != nil {
		return err
	}

	deleted, failed, err := m.PurgeTopics(cmd.Context(), categories.IDs())
	if err != nil {
		return err
	}

	fmt.Printf("Topic deletion completed. Deleted %d topics. Failed to delete %d topics.\n", deleted, failed)
	return nil
}
