// Package config loads qmigrate configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// Confluence (source) connection
	ConfluenceURL      string
	ConfluenceUsername string
	ConfluencePassword string
	ConfluenceSpaceKey string

	// Discourse (destination) connection
	DiscourseURL         string
	DiscourseAPIKey      string
	DiscourseAPIUsername string

	// Cross-run state files
	LedgerFile        string
	RegistryFile      string
	NameOverridesFile string

	// Pipeline pacing
	PageSize   int
	PauseEvery int
	PauseFor   time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// requiredVars must all be set before a run may begin.
var requiredVars = []string{
	"CONFLUENCE_URL", "CONFLUENCE_USERNAME", "CONFLUENCE_PASSWORD",
	"DISCOURSE_URL", "DISCOURSE_API_KEY", "DISCOURSE_API_USERNAME",
}

// Load reads configuration from environment variables. Missing required
// credentials are a fatal configuration error: the run does not begin.
func Load() (Config, error) {
	var missing []string
	for _, name := range requiredVars {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return Config{
		ConfluenceURL:      os.Getenv("CONFLUENCE_URL"),
		ConfluenceUsername: os.Getenv("CONFLUENCE_USERNAME"),
		ConfluencePassword: os.Getenv("CONFLUENCE_PASSWORD"),
		ConfluenceSpaceKey: os.Getenv("CONFLUENCE_SPACE_KEY"),

		DiscourseURL:         os.Getenv("DISCOURSE_URL"),
		DiscourseAPIKey:      os.Getenv("DISCOURSE_API_KEY"),
		DiscourseAPIUsername: os.Getenv("DISCOURSE_API_USERNAME"),

		LedgerFile:        getEnv("QMIGRATE_LEDGER_FILE", "migrated_questions.json"),
		RegistryFile:      getEnv("QMIGRATE_REGISTRY_FILE", "user_registry.csv"),
		NameOverridesFile: getEnv("QMIGRATE_NAME_OVERRIDES", "name_overrides.yaml"),

		PageSize:   getEnvInt("QMIGRATE_PAGE_SIZE", 50),
		PauseEvery: getEnvInt("QMIGRATE_PAUSE_EVERY", 10),
		PauseFor:   getEnvDuration("QMIGRATE_PAUSE_FOR", 5*time.Second),

		LogFile:  getEnv("QMIGRATE_LOG_FILE", "qmigrate.log"),
		LogLevel: parseLogLevel(getEnv("QMIGRATE_LOG_LEVEL", "INFO")),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
