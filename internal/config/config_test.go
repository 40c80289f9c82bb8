package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CONFLUENCE_URL", "https://wiki.example.com")
	t.Setenv("CONFLUENCE_USERNAME", "migrator")
	t.Setenv("CONFLUENCE_PASSWORD", "secret")
	t.Setenv("DISCOURSE_URL", "https://forum.example.com")
	t.Setenv("DISCOURSE_API_KEY", "key")
	t.Setenv("DISCOURSE_API_USERNAME", "system")
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	for _, name := range requiredVars {
		t.Setenv(name, "")
	}
	t.Setenv("CONFLUENCE_URL", "https://wiki.example.com")

	_, err := Load()
	require.Error(t, err)
	// every missing variable is named at once, not just the first
	assert.Contains(t, err.Error(), "CONFLUENCE_USERNAME")
	assert.Contains(t, err.Error(), "DISCOURSE_API_USERNAME")
	assert.NotContains(t, err.Error(), "CONFLUENCE_URL,")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("QMIGRATE_LEDGER_FILE", "")
	t.Setenv("QMIGRATE_PAGE_SIZE", "")
	t.Setenv("QMIGRATE_PAUSE_FOR", "")
	t.Setenv("QMIGRATE_LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://wiki.example.com", cfg.ConfluenceURL)
	assert.Equal(t, "migrated_questions.json", cfg.LedgerFile)
	assert.Equal(t, "user_registry.csv", cfg.RegistryFile)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 10, cfg.PauseEvery)
	assert.Equal(t, 5*time.Second, cfg.PauseFor)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFLUENCE_SPACE_KEY", "OPS")
	t.Setenv("QMIGRATE_LEDGER_FILE", "/var/lib/qmigrate/done.json")
	t.Setenv("QMIGRATE_PAGE_SIZE", "25")
	t.Setenv("QMIGRATE_PAUSE_FOR", "30s")
	t.Setenv("QMIGRATE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "OPS", cfg.ConfluenceSpaceKey)
	assert.Equal(t, "/var/lib/qmigrate/done.json", cfg.LedgerFile)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 30*time.Second, cfg.PauseFor)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("QMIGRATE_PAGE_SIZE", "lots")
	t.Setenv("QMIGRATE_PAUSE_FOR", "soon")
	t.Setenv("QMIGRATE_LOG_LEVEL", "shouting")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 5*time.Second, cfg.PauseFor)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}
