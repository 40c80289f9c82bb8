// Package migrate contains the resumable migration pipeline: the ledger and
// identity registry that survive restarts, the attachment rehoster, and the
// orchestrator that drives the run.
package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Ledger records which source questions were already migrated. It is the
// idempotence gate: presence means skip unless an override is requested.
type Ledger interface {
	Contains(id int64) bool
	Add(id int64) error
}

// FileLedger persists the migrated set as a JSON array of ids. The file is
// rewritten through a rename on every Add, so a crash loses at most the
// in-flight item.
type FileLedger struct {
	path string
	ids  []int64
	seen map[int64]struct{}
}

// OpenFileLedger loads an existing ledger or starts an empty one.
func OpenFileLedger(path string) (*FileLedger, error) {
	l := &FileLedger{path: path, seen: make(map[int64]struct{})}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	if err := json.Unmarshal(data, &l.ids); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for _, id := range l.ids {
		l.seen[id] = struct{}{}
	}
	return l, nil
}

// Contains reports whether an id was already migrated.
func (l *FileLedger) Contains(id int64) bool {
	_, ok := l.seen[id]
	return ok
}

// Add appends an id and persists synchronously.
func (l *FileLedger) Add(id int64) error {
	if l.Contains(id) {
		return nil
	}
	l.ids = append(l.ids, id)
	l.seen[id] = struct{}{}

	data, err := json.Marshal(l.ids)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// Len returns the number of recorded ids.
func (l *FileLedger) Len() int {
	return len(l.ids)
}

// MemoryLedger keeps the migrated set in memory only. Used in tests.
type MemoryLedger struct {
	seen map[int64]struct{}
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[int64]struct{})}
}

func (l *MemoryLedger) Contains(id int64) bool {
	_, ok := l.seen[id]
	return ok
}

func (l *MemoryLedger) Add(id int64) error {
	l.seen[id] = struct{}{}
	return nil
}
