package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupLoggerWithWriters_FanOut(t *testing.T) {
	var stderr, file bytes.Buffer

	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)
	logger.Info("migration started", "questions", 3)
	logger.Debug("should be filtered")

	if !strings.Contains(stderr.String(), "migration started") {
		t.Errorf("stderr output missing message: %q", stderr.String())
	}
	if strings.Contains(stderr.String(), "should be filtered") {
		t.Error("debug line should be filtered at info level")
	}

	// the file side is structured JSON
	var entry map[string]any
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("file output is not JSON: %v\n%s", err, file.String())
	}
	if entry["msg"] != "migration started" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["questions"] != float64(3) {
		t.Errorf("questions = %v", entry["questions"])
	}
}
