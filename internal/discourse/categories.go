package discourse

import (
	"context"
	"fmt"
)

// Category names the migration tool manages on the destination.
const (
	CategoryUseCase = "Use Case"
	CategoryGeneral = "General Questions"
)

const (
	defaultCategoryColor     = "0088CC"
	defaultCategoryTextColor = "FFFFFF"
)

// categoryAPI is the slice of the client the manager needs.
type categoryAPI interface {
	Categories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name, color, textColor string) (Category, error)
}

// CategoryManager ensures the migration categories exist and picks the
// category for each migrated thread. The choice is a pure function of the
// tag set.
type CategoryManager struct {
	useCaseID int
	generalID int
}

// NewCategoryManager looks up the migration categories, creating any that
// are missing.
func NewCategoryManager(ctx context.Context, api categoryAPI) (*CategoryManager, error) {
	existing, err := api.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("set up categories: %w", err)
	}

	byName := make(map[string]int, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	m := &CategoryManager{}
	for _, want := range []struct {
		name string
		id   *int
	}{
		{CategoryUseCase, &m.useCaseID},
		{CategoryGeneral, &m.generalID},
	} {
		if id, ok := byName[want.name]; ok {
			*want.id = id
			continue
		}
		created, err := api.CreateCategory(ctx, want.name, defaultCategoryColor, defaultCategoryTextColor)
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", want.name, err)
		}
		*want.id = created.ID
	}

	return m, nil
}

// Determine returns the category id for a thread with the given tags:
// the use-case category when a "usecase" tag is present, otherwise the
// general one.
func (m *CategoryManager) Determine(tags []string) int {
	for _, tag := range tags {
		if tag == "usecase" {
			return m.useCaseID
		}
	}
	return m.generalID
}

// IDs returns every category id managed by the migration tool.
func (m *CategoryManager) IDs() []int {
	return []int{m.useCaseID, m.generalID}
}
