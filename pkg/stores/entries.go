package stores

import (
	"context"

	"github.com/unowned-ai/daybook/pkg/journal"
)

// EntryRepository is the part of *journal.EntryRepository the store uses.
type EntryRepository interface {
	GetAll(ctx context.Context) ([]journal.Entry, error)
	GetDeleted(ctx context.Context) ([]journal.Entry, error)
	Create(ctx context.Context, in journal.NewEntry) (journal.Entry, error)
	Update(ctx context.Context, id string, p journal.EntryPatch) (journal.Entry, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	PermanentDelete(ctx context.Context, id string) error
	PurgeOldDeleted(ctx context.Context, days int) (int64, error)
}

// EntryFilter selects cached entries. Empty fields match everything.
type EntryFilter struct {
	TagID      string
	Mood       journal.Mood
	CategoryID string
}

// IsZero reports whether the filter selects every entry.
func (f EntryFilter) IsZero() bool {
	return f == EntryFilter{}
}

func (f EntryFilter) matches(e journal.Entry) bool {
	if f.Mood != "" && e.Mood != f.Mood {
		return false
	}
	if f.CategoryID != "" && e.CategoryID != f.CategoryID {
		return false
	}
	if f.TagID == "" {
		return true
	}
	for _, t := range e.Tags {
		if t.ID == f.TagID {
			return true
		}
	}
	return false
}

// EntryStore caches the live entry list and the trash.
type EntryStore struct {
	repo EntryRepository
	c    *shared
}

// Load refetches the live entries.
func (s *EntryStore) Load(ctx context.Context) ([]journal.Entry, error) {
	return reload(ctx, s.c, keyEntries, s.repo.GetAll)
}

// LoadDeleted refetches the trash.
func (s *EntryStore) LoadDeleted(ctx context.Context) ([]journal.Entry, error) {
	return reload(ctx, s.c, keyDeleted, s.repo.GetDeleted)
}

// Entries returns the live entries, newest first.
func (s *EntryStore) Entries(ctx context.Context) ([]journal.Entry, error) {
	return cached(ctx, s.c, keyEntries, s.repo.GetAll)
}

// Deleted returns the trash, most recently deleted first.
func (s *EntryStore) Deleted(ctx context.Context) ([]journal.Entry, error) {
	return cached(ctx, s.c, keyDeleted, s.repo.GetDeleted)
}

// Get finds a live entry in the cached list.
func (s *EntryStore) Get(ctx context.Context, id string) (journal.Entry, bool, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return journal.Entry{}, false, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true, nil
		}
	}
	return journal.Entry{}, false, nil
}

// Filtered narrows the cached live entries by tag, mood and category.
func (s *EntryStore) Filtered(ctx context.Context, f EntryFilter) ([]journal.Entry, error) {
	entries, err := s.Entries(ctx)
	if err != nil || f.IsZero() {
		return entries, err
	}
	out := make([]journal.Entry, 0, len(entries))
	for _, e := range entries {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EntryStore) Create(ctx context.Context, in journal.NewEntry) (journal.Entry, error) {
	e, err := s.repo.Create(ctx, in)
	if err != nil {
		return journal.Entry{}, err
	}
	s.c.invalidate(ctx, keyEntries)
	return e, nil
}

func (s *EntryStore) Update(ctx context.Context, id string, p journal.EntryPatch) (journal.Entry, error) {
	e, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return journal.Entry{}, err
	}
	s.c.invalidate(ctx, keyEntries, keyDeleted)
	return e, nil
}

// Delete moves an entry to the trash.
func (s *EntryStore) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.c.invalidate(ctx, keyEntries, keyDeleted)
	return nil
}

func (s *EntryStore) Restore(ctx context.Context, id string) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.c.invalidate(ctx, keyEntries, keyDeleted)
	return nil
}

func (s *EntryStore) PermanentDelete(ctx context.Context, id string) error {
	if err := s.repo.PermanentDelete(ctx, id); err != nil {
		return err
	}
	s.c.invalidate(ctx, keyEntries, keyDeleted)
	return nil
}

// PurgeOldDeleted empties trash older than days and drops the cached trash.
func (s *EntryStore) PurgeOldDeleted(ctx context.Context, days int) (int64, error) {
	n, err := s.repo.PurgeOldDeleted(ctx, days)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.c.invalidate(ctx, keyDeleted)
	}
	return n, nil
}
