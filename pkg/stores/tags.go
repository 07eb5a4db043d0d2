package stores

import (
	"context"

	"github.com/unowned-ai/daybook/pkg/journal"
)

// TagRepository is the part of *journal.TagRepository the store uses.
type TagRepository interface {
	GetAll(ctx context.Context) ([]journal.Tag, error)
	Create(ctx context.Context, in journal.NewTag) (journal.Tag, error)
	Update(ctx context.Context, id string, p journal.TagPatch) (journal.Tag, error)
	Delete(ctx context.Context, id string) error
	AddTagToEntry(ctx context.Context, entryID, tagID string) error
	RemoveTagFromEntry(ctx context.Context, entryID, tagID string) error
	SetTagsForEntry(ctx context.Context, entryID string, tagIDs []string) error
}

// TagStore caches the tag list. Tag writes also drop cached entries, which embed their tags.
type TagStore struct {
	repo TagRepository
	c    *shared
}

func (s *TagStore) Load(ctx context.Context) ([]journal.Tag, error) {
	return reload(ctx, s.c, keyTags, s.repo.GetAll)
}

// Tags returns every tag, alphabetical by name.
func (s *TagStore) Tags(ctx context.Context) ([]journal.Tag, error) {
	return cached(ctx, s.c, keyTags, s.repo.GetAll)
}

func (s *TagStore) Get(ctx context.Context, id string) (journal.Tag, bool, error) {
	tags, err := s.Tags(ctx)
	if err != nil {
		return journal.Tag{}, false, err
	}
	for _, t := range tags {
		if t.ID == id {
			return t, true, nil
		}
	}
	return journal.Tag{}, false, nil
}

func (s *TagStore) Create(ctx context.Context, in journal.NewTag) (journal.Tag, error) {
	t, err := s.repo.Create(ctx, in)
	if err != nil {
		return journal.Tag{}, err
	}
	s.c.invalidate(ctx, keyTags)
	return t, nil
}

func (s *TagStore) Update(ctx context.Context, id string, p journal.TagPatch) (journal.Tag, error) {
	t, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return journal.Tag{}, err
	}
	s.c.invalidate(ctx, keyTags, keyEntries, keyDeleted)
	return t, nil
}

func (s *TagStore) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.c.invalidate(ctx, keyTags, keyEntries, keyDeleted)
	return nil
}

func (s *TagStore) AddTagToEntry(ctx context.Context, entryID, tagID string) error {
	if err := s.repo.AddTagToEntry(ctx, entryID, tagID); err != nil {
		return err
	}
	s.c.invalidate(ctx, keyEntries, keyDeleted)
	return nil
}

func (s *TagStore) RemoveTagFromEntry(ctx context.Context, entryID, tagID string) error {
	if err := s.repo.RemoveTagFromEntry(ctx, entryID, tagID); err != nil {
		return err
	}
	s.c.invalidate(ctx, keyEntries, keyDeleted)
	return nil
}

func (s *TagStore) SetTagsForEntry(ctx context.Context, entryID string, tagIDs []string) error {
	if err := s.repo.SetTagsForEntry(ctx, entryID, tagIDs); err != nil {
		return err
	}
	s.c.invalidate(ctx, keyEntries, keyDeleted)
	return nil
}
