package stores

import (
	"context"

	"github.com/unowned-ai/daybook/pkg/journal"
)

// CategoryRepository is the part of *journal.CategoryRepository the store uses.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]journal.Category, error)
	Create(ctx context.Context, in journal.NewCategory) (journal.Category, error)
	Update(ctx context.Context, id string, p journal.CategoryPatch) (journal.Category, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, ids []string) error
}

// CategoryStore caches the ordered category list.
type CategoryStore struct {
	repo CategoryRepository
	c    *shared
}

func (s *CategoryStore) Load(ctx context.Context) ([]journal.Category, error) {
	return reload(ctx, s.c, keyCategories, s.repo.GetAll)
}

// Categories returns the categories in display order.
func (s *CategoryStore) Categories(ctx context.Context) ([]journal.Category, error) {
	return cached(ctx, s.c, keyCategories, s.repo.GetAll)
}

func (s *CategoryStore) Get(ctx context.Context, id string) (journal.Category, bool, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return journal.Category{}, false, err
	}
	for _, c := range categories {
		if c.ID == id {
			return c, true, nil
		}
	}
	return journal.Category{}, false, nil
}

func (s *CategoryStore) Create(ctx context.Context, in journal.NewCategory) (journal.Category, error) {
	c, err := s.repo.Create(ctx, in)
	if err != nil {
		return journal.Category{}, err
	}
	s.c.invalidate(ctx, keyCategories)
	return c, nil
}

func (s *CategoryStore) Update(ctx context.Context, id string, p journal.CategoryPatch) (journal.Category, error) {
	c, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return journal.Category{}, err
	}
	s.c.invalidate(ctx, keyCategories, keyEntries, keyDeleted)
	return c, nil
}

// Delete removes the category; cached entries that pointed at it are dropped too.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.c.invalidate(ctx, keyCategories, keyEntries, keyDeleted)
	return nil
}

func (s *CategoryStore) Reorder(ctx context.Context, ids []string) error {
	if err := s.repo.Reorder(ctx, ids); err != nil {
		return err
	}
	s.c.invalidate(ctx, keyCategories, keyEntries, keyDeleted)
	return nil
}
