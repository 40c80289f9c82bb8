package migrate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/raphaelgruber/qmigrate/internal/confluence"
)

// RegisteredUser is one persisted author identity.
type RegisteredUser struct {
	FullName string
	Username string
	Email    string
}

// Registry deduplicates author identities across runs, keyed by display
// name. Registering a known name, or an author without one, is a no-op.
type Registry interface {
	Register(author *confluence.Author) error
	Lookup(displayName string) (RegisteredUser, bool)
}

// FileRegistry stores identities as a CSV snapshot rewritten in full on
// every successful registration. A crash loses at most the in-flight
// author.
type FileRegistry struct {
	path  string
	users map[string]RegisteredUser
}

// OpenFileRegistry loads an existing registry or starts an empty one.
func OpenFileRegistry(path string) (*FileRegistry, error) {
	r := &FileRegistry{path: path, users: make(map[string]RegisteredUser)}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			// header or short row
			continue
		}
		r.users[row[0]] = RegisteredUser{FullName: row[0], Username: row[1], Email: row[2]}
	}
	return r, nil
}

// Register inserts a new identity and persists synchronously. Absent
// authors and authors without a display name are skipped silently.
func (r *FileRegistry) Register(author *confluence.Author) error {
	user, ok := newRegisteredUser(author)
	if !ok {
		return nil
	}
	if _, exists := r.users[user.FullName]; exists {
		return nil
	}
	r.users[user.FullName] = user
	return r.save()
}

// Lookup returns the stored identity for a display name.
func (r *FileRegistry) Lookup(displayName string) (RegisteredUser, bool) {
	user, ok := r.users[displayName]
	return user, ok
}

// Len returns the number of registered identities.
func (r *FileRegistry) Len() int {
	return len(r.users)
}

func (r *FileRegistry) save() error {
	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write([]string{"FullName", "username", "email"}); err != nil {
		return fmt.Errorf("write registry header: %w", err)
	}
	for _, name := range names {
		user := r.users[name]
		if err := w.Write([]string{user.FullName, user.Username, user.Email}); err != nil {
			return fmt.Errorf("write registry row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}

// newRegisteredUser derives the stored identity from a source author. The
// login doubles as the email on instances that use email logins.
func newRegisteredUser(author *confluence.Author) (RegisteredUser, bool) {
	if author == nil || author.FullName == "" {
		return RegisteredUser{}, false
	}
	email := author.Email
	if email == "" && strings.Contains(author.Name, "@") {
		email = author.Name
	}
	return RegisteredUser{
		FullName: author.FullName,
		Username: author.Name,
		Email:    email,
	}, true
}

// MemoryRegistry keeps identities in memory and counts persistence writes,
// for tests that assert on write behavior.
type MemoryRegistry struct {
	users    map[string]RegisteredUser
	Persists int
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{users: make(map[string]RegisteredUser)}
}

func (r *MemoryRegistry) Register(author *confluence.Author) error {
	user, ok := newRegisteredUser(author)
	if !ok {
		return nil
	}
	if _, exists := r.users[user.FullName]; exists {
		return nil
	}
	r.users[user.FullName] = user
	r.Persists++
	return nil
}

func (r *MemoryRegistry) Lookup(displayName string) (RegisteredUser, bool) {
	user, ok := r.users[displayName]
	return user, ok
}

// Len returns the number of registered identities.
func (r *MemoryRegistry) Len() int {
	return len(r.users)
}
