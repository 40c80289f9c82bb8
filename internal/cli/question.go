package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/qmigrate/internal/migrate"
)

var questionCmd = &cobra.Command{
	Use:   "question <id>",
	Short: "Migrate a single question by id",
	Long: `Migrate one question into Discourse, bypassing the duplicate check.

Example:
  qmigrate question 4816213`,
	Args: cobra.ExactArgs(1),
	RunE: runQuestion,
}

func runQuestion(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid question id %q: %w", args[0], err)
	}

	m, _, _, err := newMigrator(cmd.Context(), migrate.Options{
		IgnoreDuplicate: true,
		PageSize:        cfg.PageSize,
		PauseEvery:      cfg.PauseEvery,
		PauseFor:        cfg.PauseFor,
	})
	if err != nil {
		return err
	}

	if err := m.MigrateSingle(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("Migration of question %d completed.\n", id)
	return nil
}
