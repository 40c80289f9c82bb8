package migrate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFileLedger_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")

	l, err := OpenFileLedger(path)
	if err != nil {
		t.Fatalf("open empty ledger: %v", err)
	}
	if l.Contains(101) {
		t.Error("empty ledger should not contain anything")
	}

	if err := l.Add(101); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Add(202); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !l.Contains(101) || !l.Contains(202) {
		t.Error("ledger lost ids after Add")
	}

	// adding a known id is a no-op
	if err := l.Add(101); err != nil {
		t.Fatalf("re-Add: %v", err)
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}

	// reload from disk: the file is the source of truth across restarts
	reloaded, err := OpenFileLedger(path)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	if !reloaded.Contains(101) || !reloaded.Contains(202) {
		t.Error("reloaded ledger lost ids")
	}
}

func TestFileLedger_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")

	l, err := OpenFileLedger(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Add(101); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ledger file not written: %v", err)
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		t.Fatalf("ledger file is not a JSON array: %v", err)
	}
	if len(ids) != 1 || ids[0] != 101 {
		t.Errorf("ledger file = %v, want [101]", ids)
	}
}

func TestFileLedger_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenFileLedger(path); err == nil {
		t.Error("expected error for corrupt ledger file")
	}
}
