package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/daybook/pkg/db"
)

func TestEntryRepository_NotInitialized(t *testing.T) {
	m := db.NewManager(db.Options{Driver: db.DriverModernc, Path: ":memory:"}, nil)
	repo := NewEntryRepository(m)

	_, err := repo.GetAll(context.Background())
	require.ErrorIs(t, err, db.ErrNotInitialized)

	_, err = repo.Create(context.Background(), NewEntry{Content: "too early"})
	require.ErrorIs(t, err, db.ErrNotInitialized)
}

func TestEntryRepository_CreateDerivesTitle(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	categories, err := s.Categories.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, categories, len(db.DefaultCategories))

	created := mustCreateEntry(t, s, NewEntry{Title: "", Content: "Had coffee with Sam"})
	assert.Equal(t, "Had coffee with Sam", created.Title)

	got, err := s.Entries.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Had coffee with Sam", got.Content)
	assert.Equal(t, SyncPending, got.SyncStatus)
	assert.Zero(t, got.SyncVersion)
	assert.True(t, got.CreatedAt.Equal(baseTime))
	assert.True(t, got.UpdatedAt.Equal(got.CreatedAt))
	assert.Nil(t, got.DeletedAt)
	assert.Empty(t, got.Tags)
}

func TestEntryRepository_CreateWithTagsAndCategory(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	work := mustCreateTag(t, s, "work")
	focus := mustCreateTag(t, s, "focus")

	created := mustCreateEntry(t, s, NewEntry{
		Title:      "Standup",
		Content:    "Talked about the release",
		Mood:       MoodGood,
		CategoryID: "default-work",
		TagIDs:     []string{work.ID, focus.ID, work.ID},
	})

	require.NotNil(t, created.Category)
	assert.Equal(t, "Work", created.Category.Name)
	assert.Equal(t, MoodGood, created.Mood)
	require.Len(t, created.Tags, 2)
	assert.Equal(t, "focus", created.Tags[0].Name)
	assert.Equal(t, "work", created.Tags[1].Name)

	all, err := s.Entries.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Tags, 2)
}

func TestEntryRepository_CreateRejectsBadReferences(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	_, err := s.Entries.Create(ctx, NewEntry{Content: "x", TagIDs: []string{"missing"}})
	require.ErrorIs(t, err, ErrTagNotFound)

	_, err = s.Entries.Create(ctx, NewEntry{Content: "x", CategoryID: "missing"})
	require.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = s.Entries.Create(ctx, NewEntry{Content: "x", Mood: "ecstatic"})
	require.ErrorIs(t, err, ErrInvalidMood)

	// Failed creates roll back completely.
	all, err := s.Entries.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEntryRepository_UpdatePartial(t *testing.T) {
	s, _, clock := setupServices(t)
	ctx := context.Background()

	created := mustCreateEntry(t, s, NewEntry{Title: "Morning", Content: "Quiet start", Mood: MoodOkay, CategoryID: "default-personal"})

	clock.Advance(time.Minute)
	updated, err := s.Entries.Update(ctx, created.ID, EntryPatch{Title: ptr("Early morning")})
	require.NoError(t, err)

	assert.Equal(t, "Early morning", updated.Title)
	assert.Equal(t, "Quiet start", updated.Content)
	assert.Equal(t, MoodOkay, updated.Mood)
	assert.Equal(t, "default-personal", updated.CategoryID)
	assert.Equal(t, int64(1), updated.SyncVersion)
	assert.Equal(t, SyncPending, updated.SyncStatus)
	assert.True(t, updated.UpdatedAt.Equal(baseTime.Add(time.Minute)))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	cleared, err := s.Entries.Update(ctx, created.ID, EntryPatch{Mood: ptr(Mood("")), CategoryID: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, cleared.Mood)
	assert.Empty(t, cleared.CategoryID)
	assert.Nil(t, cleared.Category)
	assert.Equal(t, int64(2), cleared.SyncVersion)
}

func TestEntryRepository_UpdateBlankTitleDerivesFromContent(t *testing.T) {
	s, _, _ := setupServices(t)

	created := mustCreateEntry(t, s, NewEntry{Title: "Placeholder", Content: "old"})

	updated, err := s.Entries.Update(context.Background(), created.ID, EntryPatch{
		Title:   ptr("  "),
		Content: ptr("Walked to the harbour\nand back"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Walked to the harbour", updated.Title)
}

func TestEntryRepository_UpdateAlwaysMovesUpdatedAt(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	created := mustCreateEntry(t, s, NewEntry{Content: "frozen clock"})

	// The clock never advances; updatedAt must still change.
	first, err := s.Entries.Update(ctx, created.ID, EntryPatch{Content: ptr("one")})
	require.NoError(t, err)
	second, err := s.Entries.Update(ctx, created.ID, EntryPatch{Content: ptr("two")})
	require.NoError(t, err)

	assert.True(t, first.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestEntryRepository_UpdateTagsFullReplace(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	a := mustCreateTag(t, s, "a")
	b := mustCreateTag(t, s, "b")
	c := mustCreateTag(t, s, "c")
	created := mustCreateEntry(t, s, NewEntry{Content: "tagged", TagIDs: []string{a.ID, b.ID}})

	replaced, err := s.Entries.Update(ctx, created.ID, EntryPatch{TagIDs: &[]string{c.ID}})
	require.NoError(t, err)
	require.Len(t, replaced.Tags, 1)
	assert.Equal(t, c.ID, replaced.Tags[0].ID)

	cleared, err := s.Entries.Update(ctx, created.ID, EntryPatch{TagIDs: &[]string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)

	untouched, err := s.Entries.Update(ctx, created.ID, EntryPatch{Content: ptr("still no tags")})
	require.NoError(t, err)
	assert.Empty(t, untouched.Tags)
}

func TestEntryRepository_UpdateUnknownTagRollsBack(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	a := mustCreateTag(t, s, "a")
	created := mustCreateEntry(t, s, NewEntry{Content: "before", TagIDs: []string{a.ID}})

	_, err := s.Entries.Update(ctx, created.ID, EntryPatch{Content: ptr("after"), TagIDs: &[]string{"nope"}})
	require.ErrorIs(t, err, ErrTagNotFound)

	got, err := s.Entries.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "before", got.Content)
	assert.Len(t, got.Tags, 1)
	assert.Zero(t, got.SyncVersion)
}

func TestEntryRepository_NotFound(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	_, err := s.Entries.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	_, err = s.Entries.Update(ctx, "missing", EntryPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.ErrorIs(t, s.Entries.SoftDelete(ctx, "missing"), ErrEntryNotFound)
	assert.ErrorIs(t, s.Entries.Restore(ctx, "missing"), ErrEntryNotFound)
	assert.ErrorIs(t, s.Entries.PermanentDelete(ctx, "missing"), ErrEntryNotFound)
}

func TestEntryRepository_SoftDeleteRoundTrip(t *testing.T) {
	s, _, clock := setupServices(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "travel")
	before := mustCreateEntry(t, s, NewEntry{
		Title: "Lisbon", Content: "Trams and tiles", Mood: MoodGreat, CategoryID: "default-travel", TagIDs: []string{tag.ID},
	})

	clock.Advance(time.Second)
	require.NoError(t, s.Entries.SoftDelete(ctx, before.ID))

	all, err := s.Entries.GetAll(ctx)
	require.NoError(t, err)
	assert.NotContains(t, entryIDs(all), before.ID)
	trash, err := s.Entries.GetDeleted(ctx)
	require.NoError(t, err)
	assert.Contains(t, entryIDs(trash), before.ID)

	deleted, err := s.Entries.GetByID(ctx, before.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)
	assert.True(t, deleted.Deleted())

	clock.Advance(time.Second)
	require.NoError(t, s.Entries.Restore(ctx, before.ID))

	after, err := s.Entries.GetByID(ctx, before.ID)
	require.NoError(t, err)
	assert.Nil(t, after.DeletedAt)
	assert.NotEqual(t, before.SyncVersion, after.SyncVersion)
	assert.False(t, after.UpdatedAt.Equal(before.UpdatedAt))

	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.Content, after.Content)
	assert.Equal(t, before.Mood, after.Mood)
	assert.Equal(t, before.CategoryID, after.CategoryID)
	assert.Equal(t, before.Tags, after.Tags)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

	all, err = s.Entries.GetAll(ctx)
	require.NoError(t, err)
	assert.Contains(t, entryIDs(all), before.ID)
	trash, err = s.Entries.GetDeleted(ctx)
	require.NoError(t, err)
	assert.NotContains(t, entryIDs(trash), before.ID)
}

func TestEntryRepository_SoftDeleteKeepsFirstDeletion(t *testing.T) {
	s, _, clock := setupServices(t)
	ctx := context.Background()

	e := mustCreateEntry(t, s, NewEntry{Content: "twice"})
	require.NoError(t, s.Entries.SoftDelete(ctx, e.ID))
	clock.Advance(time.Hour)
	require.NoError(t, s.Entries.SoftDelete(ctx, e.ID))

	got, err := s.Entries.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)
	assert.True(t, got.DeletedAt.Equal(baseTime))
}

func TestEntryRepository_GetDeletedOrder(t *testing.T) {
	s, _, clock := setupServices(t)
	ctx := context.Background()

	first := mustCreateEntry(t, s, NewEntry{Content: "first"})
	second := mustCreateEntry(t, s, NewEntry{Content: "second"})

	require.NoError(t, s.Entries.SoftDelete(ctx, second.ID))
	clock.Advance(time.Minute)
	require.NoError(t, s.Entries.SoftDelete(ctx, first.ID))

	trash, err := s.Entries.GetDeleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, entryIDs(trash))
}

func TestEntryRepository_PurgeOldDeletedBoundary(t *testing.T) {
	s, m, clock := setupServices(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "old")
	purgeAt := baseTime.AddDate(0, 2, 0)

	old := mustCreateEntry(t, s, NewEntry{Content: "old", TagIDs: []string{tag.ID}})
	recent := mustCreateEntry(t, s, NewEntry{Content: "recent"})
	live := mustCreateEntry(t, s, NewEntry{Content: "live"})

	clock.Set(purgeAt.Add(-30*24*time.Hour - time.Second))
	require.NoError(t, s.Entries.SoftDelete(ctx, old.ID))
	clock.Set(purgeAt.Add(-29 * 24 * time.Hour))
	require.NoError(t, s.Entries.SoftDelete(ctx, recent.ID))

	clock.Set(purgeAt)
	purged, err := s.Entries.PurgeOldDeleted(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = s.Entries.GetByID(ctx, old.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	_, err = s.Entries.GetByID(ctx, recent.ID)
	assert.NoError(t, err)
	_, err = s.Entries.GetByID(ctx, live.ID)
	assert.NoError(t, err)

	var links int
	require.NoError(t, rawDB(t, m).QueryRow(`SELECT COUNT(*) FROM entry_tags WHERE entry_id = ?`, old.ID).Scan(&links))
	assert.Zero(t, links)

	// Negative days falls back to the default window.
	purged, err = s.Entries.PurgeOldDeleted(ctx, -1)
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestEntryRepository_PurgeZeroDaysEmptiesTrash(t *testing.T) {
	s, _, clock := setupServices(t)
	ctx := context.Background()

	older := mustCreateEntry(t, s, NewEntry{Content: "two days in the trash"})
	fresh := mustCreateEntry(t, s, NewEntry{Content: "just deleted"})
	live := mustCreateEntry(t, s, NewEntry{Content: "still here"})

	require.NoError(t, s.Entries.SoftDelete(ctx, older.ID))
	clock.Advance(48 * time.Hour)
	require.NoError(t, s.Entries.SoftDelete(ctx, fresh.ID))

	purged, err := s.Entries.PurgeOldDeleted(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	trash, err := s.Entries.GetDeleted(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)

	_, err = s.Entries.GetByID(ctx, live.ID)
	assert.NoError(t, err)
}

func TestEntryRepository_PermanentDelete(t *testing.T) {
	s, m, _ := setupServices(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "gone")
	e := mustCreateEntry(t, s, NewEntry{Content: "bye", TagIDs: []string{tag.ID}})

	require.NoError(t, s.Entries.PermanentDelete(ctx, e.ID))
	_, err := s.Entries.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	var links int
	require.NoError(t, rawDB(t, m).QueryRow(`SELECT COUNT(*) FROM entry_tags`).Scan(&links))
	assert.Zero(t, links)

	// The tag itself survives.
	_, err = s.Tags.GetByID(ctx, tag.ID)
	assert.NoError(t, err)
}

func TestEntryRepository_FilteredLists(t *testing.T) {
	s, _, clock := setupServices(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "family")

	a := mustCreateEntry(t, s, NewEntry{Content: "a", Mood: MoodGood, TagIDs: []string{tag.ID}})
	clock.Advance(time.Hour)
	b := mustCreateEntry(t, s, NewEntry{Content: "b", Mood: MoodBad, CategoryID: "default-work"})
	clock.Advance(time.Hour)
	c := mustCreateEntry(t, s, NewEntry{Content: "c", Mood: MoodGood, TagIDs: []string{tag.ID}, CategoryID: "default-work"})
	clock.Advance(time.Hour)
	d := mustCreateEntry(t, s, NewEntry{Content: "d", Mood: MoodGood})
	require.NoError(t, s.Entries.SoftDelete(ctx, d.ID))

	all, err := s.Entries.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, entryIDs(all))

	byTag, err := s.Entries.GetByTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, entryIDs(byTag))

	byMood, err := s.Entries.GetByMood(ctx, MoodGood)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, entryIDs(byMood))

	_, err = s.Entries.GetByMood(ctx, "meh")
	assert.ErrorIs(t, err, ErrInvalidMood)

	byCategory, err := s.Entries.GetByCategory(ctx, "default-work")
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID}, entryIDs(byCategory))

	byRange, err := s.Entries.GetByDateRange(ctx, baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, entryIDs(byRange))
}

func TestEntryRepository_SameTimestampKeepsInsertionOrder(t *testing.T) {
	s, _, _ := setupServices(t)

	first := mustCreateEntry(t, s, NewEntry{Content: "first"})
	second := mustCreateEntry(t, s, NewEntry{Content: "second"})

	all, err := s.Entries.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, entryIDs(all))
}
