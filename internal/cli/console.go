package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/qmigrate/internal/migrate"
)

// Theme holds the color scheme for console output.
type Theme struct {
	Success lipgloss.Color
	Error   lipgloss.Color
	Warn    lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Warn:    lipgloss.Color("#FFAF00"), // amber
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) warnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warn)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// consoleObserver renders orchestrator events as human-readable lines.
type consoleObserver struct {
	theme Theme
}

func newConsoleObserver() consoleObserver {
	return consoleObserver{theme: defaultTheme}
}

func (o consoleObserver) Publish(e migrate.Event) {
	switch e.Type {
	case migrate.EventTopicCreated:
		fmt.Printf("%s %q (%s)\n", o.theme.successStyle().Render("Created topic:"), e.Title, e.Detail)
	case migrate.EventPostCreated:
		fmt.Printf("%s %s\n", o.theme.successStyle().Render("Added answer:"), e.Detail)
	case migrate.EventTopicDeleted:
		fmt.Printf("%s %q (%s)\n", o.theme.successStyle().Render("Deleted topic:"), e.Title, e.Detail)
	case migrate.EventSkipped:
		fmt.Printf("%s %q (id %d): %s\n", o.theme.hintStyle().Render("Skipped"), e.Title, e.ItemID, e.Detail)
	case migrate.EventDryRun:
		fmt.Printf("%s %s\n", o.theme.hintStyle().Render("Dry run:"), e.Detail)
	case migrate.EventAnomaly:
		fmt.Printf("%s item %d: %v\n", o.theme.warnStyle().Render("Warning:"), e.ItemID, e.Err)
	case migrate.EventItemFailed:
		fmt.Printf("%s %q (id %d): %v\n", o.theme.errorStyle().Render("Failed:"), e.Title, e.ItemID, e.Err)
	case migrate.EventPaused:
		fmt.Printf("%s %s\n", o.theme.hintStyle().Render("Pausing"), e.Detail)
	case migrate.EventRunDone:
		fmt.Printf("%s %s\n", o.theme.successStyle().Render("Done:"), e.Detail)
	}
}
