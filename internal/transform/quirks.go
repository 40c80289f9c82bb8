package transform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// NameOverrides maps legacy display names to the name that should appear on
// the destination. It covers known identity quirks of the source instance
// and is injected from configuration, not hard-coded.
type NameOverrides map[string]string

// LoadNameOverrides reads the override table from a YAML file of
// "old name: new name" pairs. A missing file yields an empty table.
func LoadNameOverrides(path string) (NameOverrides, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NameOverrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read name overrides: %w", err)
	}

	var overrides NameOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse name overrides %s: %w", path, err)
	}
	if overrides == nil {
		overrides = NameOverrides{}
	}
	return overrides, nil
}

// Resolve returns the display name to publish for an author. Only exact
// matches are substituted; unknown names pass through unchanged.
func (o NameOverrides) Resolve(name string) string {
	if replacement, ok := o[name]; ok {
		return replacement
	}
	return name
}
