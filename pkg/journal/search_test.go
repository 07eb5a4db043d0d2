package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_FindsAndExcludesTrash(t *testing.T) {
	s, m, _ := setupServices(t)
	ctx := context.Background()
	require.True(t, m.SearchIndexAvailable())

	e := mustCreateEntry(t, s, NewEntry{Title: "Sunrise walk", Content: "Saw the sunrise over the bay"})
	mustCreateEntry(t, s, NewEntry{Title: "Groceries", Content: "Milk and eggs"})

	found, err := s.Search.Search(ctx, "sunrise", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{e.ID}, entryIDs(found))

	// Prefix matching.
	found, err = s.Search.Search(ctx, "sunr", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{e.ID}, entryIDs(found))

	require.NoError(t, s.Entries.SoftDelete(ctx, e.ID))
	found, err = s.Search.Search(ctx, "sunrise", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSearch_FollowsUpdatesAndDeletes(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	e := mustCreateEntry(t, s, NewEntry{Title: "Draft", Content: "about kayaks"})
	_, err := s.Entries.Update(ctx, e.ID, EntryPatch{Content: ptr("about canoes")})
	require.NoError(t, err)

	found, err := s.Search.Search(ctx, "kayaks", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.Search.Search(ctx, "canoes", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, s.Entries.PermanentDelete(ctx, e.ID))
	found, err = s.Search.Search(ctx, "canoes", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSearch_BlankAndReservedQueries(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()
	mustCreateEntry(t, s, NewEntry{Title: "Anything", Content: "at all"})

	found, err := s.Search.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	for _, q := range []string{"***", `"(`, "foo-bar", "AND", "title:", "NOT"} {
		_, err := s.Search.Search(ctx, q, 10)
		assert.NoError(t, err, "query %q", q)
		_, err = s.Search.SearchWithSnippets(ctx, q, 10)
		assert.NoError(t, err, "query %q", q)
		_, err = s.Search.SearchWithFilters(ctx, q, SearchFilters{}, 10)
		assert.NoError(t, err, "query %q", q)
	}
}

func TestSearch_MalformedQueryFallsBack(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	e := mustCreateEntry(t, s, NewEntry{Title: "Build notes", Content: "fixed the foo-bar regression"})

	// A hyphen is not valid FTS5 syntax, so this goes through the substring path.
	found, err := s.Search.Search(ctx, "foo-bar", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{e.ID}, entryIDs(found))

	results, err := s.Search.SearchWithSnippets(ctx, "FOO-BAR", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Snippet, "foo")
}

func TestSearch_RankedAndLimited(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreateEntry(t, s, NewEntry{Title: "Run", Content: "morning run by the river"})
	}

	found, err := s.Search.Search(ctx, "river", 3)
	require.NoError(t, err)
	assert.Len(t, found, 3)

	found, err = s.Search.Search(ctx, "river", 0)
	require.NoError(t, err)
	assert.Len(t, found, 5)
}

func TestSearchWithSnippets(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "outdoors")
	e := mustCreateEntry(t, s, NewEntry{
		Title: "Sunrise walk", Content: "Saw the sunrise over the bay", Mood: MoodGreat, TagIDs: []string{tag.ID},
	})

	results, err := s.Search.SearchWithSnippets(ctx, "sunrise", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, e.ID, r.ID)
	assert.Equal(t, "Sunrise walk", r.Title)
	assert.Equal(t, MoodGreat, r.Mood)
	assert.True(t, r.CreatedAt.Equal(e.CreatedAt))
	assert.Contains(t, r.Snippet, "<<sunrise>>")
	require.Len(t, r.Tags, 1)
	assert.Equal(t, "outdoors", r.Tags[0].Name)

	empty, err := s.Search.SearchWithSnippets(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearch_WithoutIndexUsesSubstring(t *testing.T) {
	m := newTestManager(t)
	clock := &testClock{now: baseTime}
	s := NewServices(noIndex{m}, WithClock(clock.Now), WithLocation(time.UTC))
	ctx := context.Background()

	e := mustCreateEntry(t, s, NewEntry{Title: "Budget", Content: "Saved 100% of the bonus this month, which felt great."})
	mustCreateEntry(t, s, NewEntry{Title: "Other", Content: "Saved 1000 kroner"})

	found, err := s.Search.Search(ctx, "100%", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{e.ID}, entryIDs(found))

	results, err := s.Search.SearchWithSnippets(ctx, "bonus", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Saved 100% of the bonus this month, which felt great.", results[0].Snippet)

	found, err = s.Search.Search(ctx, "***", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSearchWithFilters_Composition(t *testing.T) {
	s, _, _ := setupServices(t)
	ctx := context.Background()

	a := mustCreateTag(t, s, "a")
	b := mustCreateTag(t, s, "b")
	e := mustCreateEntry(t, s, NewEntry{Content: "tagged with a", Mood: MoodGood, TagIDs: []string{a.ID}})

	found, err := s.Search.SearchWithFilters(ctx, "", SearchFilters{TagIDs: []string{a.ID, b.ID}, Mood: MoodGood}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{e.ID}, entryIDs(found))

	found, err = s.Search.SearchWithFilters(ctx, "", SearchFilters{TagIDs: []string{b.ID}, Mood: MoodGood}, 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.Search.SearchWithFilters(ctx, "", SearchFilters{TagIDs: []string{a.ID}, Mood: MoodBad}, 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = s.Search.SearchWithFilters(ctx, "", SearchFilters{Mood: "meh"}, 10)
	assert.ErrorIs(t, err, ErrInvalidMood)
}

func TestSearchWithFilters_EntryWithManyMatchingTagsAppearsOnce(t *testing.T) {
	s, _, _ := setupServices(t)

	a := mustCreateTag(t, s, "a")
	b := mustCreateTag(t, s, "b")
	e := mustCreateEntry(t, s, NewEntry{Content: "both", TagIDs: []string{a.ID, b.ID}})

	found, err := s.Search.SearchWithFilters(context.Background(), "", SearchFilters{TagIDs: []string{a.ID, b.ID}}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{e.ID}, entryIDs(found))
}

func TestSearchWithFilters_DatesAndText(t *testing.T) {
	s, _, clock := setupServices(t)
	ctx := context.Background()

	early := mustCreateEntry(t, s, NewEntry{Content: "lake swim"})
	clock.Advance(48 * time.Hour)
	middle := mustCreateEntry(t, s, NewEntry{Content: "lake picnic"})
	clock.Advance(48 * time.Hour)
	late := mustCreateEntry(t, s, NewEntry{Content: "city walk"})

	start := baseTime.Add(24 * time.Hour)
	end := baseTime.Add(96 * time.Hour)

	found, err := s.Search.SearchWithFilters(ctx, "", SearchFilters{StartDate: &start, EndDate: &end}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{late.ID, middle.ID}, entryIDs(found))

	found, err = s.Search.SearchWithFilters(ctx, "lake", SearchFilters{StartDate: &start}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{middle.ID}, entryIDs(found))

	found, err = s.Search.SearchWithFilters(ctx, "", SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{late.ID, middle.ID, early.ID}, entryIDs(found))

	found, err = s.Search.SearchWithFilters(ctx, "lake sw", SearchFilters{EndDate: &start}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{early.ID}, entryIDs(found))
}

func TestGetEntriesByDate(t *testing.T) {
	s, _, clock := setupServices(t)
	ctx := context.Background()

	day := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)

	clock.Set(day.Add(-time.Millisecond))
	mustCreateEntry(t, s, NewEntry{Content: "previous day"})
	clock.Set(day)
	midnight := mustCreateEntry(t, s, NewEntry{Content: "midnight"})
	clock.Set(day.Add(23*time.Hour + 59*time.Minute))
	lateEvening := mustCreateEntry(t, s, NewEntry{Content: "late"})
	clock.Set(day.Add(24 * time.Hour))
	mustCreateEntry(t, s, NewEntry{Content: "next day"})

	found, err := s.Search.GetEntriesByDate(ctx, day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{lateEvening.ID, midnight.ID}, entryIDs(found))
}

func TestGetEntriesByDate_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	s, _, clock := setupServices(t, WithLocation(loc))

	// 20:00 UTC on May 1st is already May 2nd at UTC+10.
	clock.Set(time.Date(2024, time.May, 1, 20, 0, 0, 0, time.UTC))
	e := mustCreateEntry(t, s, NewEntry{Content: "down under"})

	found, err := s.Search.GetEntriesByDate(context.Background(), time.Date(2024, time.May, 2, 12, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, []string{e.ID}, entryIDs(found))
}

func TestCalendarAggregates(t *testing.T) {
	s, _, clock := setupServices(t)
	ctx := context.Background()

	clock.Set(time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC))
	mustCreateEntry(t, s, NewEntry{Content: "one", Mood: MoodGood})
	clock.Advance(time.Hour)
	mustCreateEntry(t, s, NewEntry{Content: "two", Mood: MoodGood})
	clock.Advance(time.Hour)
	mustCreateEntry(t, s, NewEntry{Content: "three", Mood: MoodBad})

	clock.Set(time.Date(2024, time.June, 17, 8, 0, 0, 0, time.UTC))
	mustCreateEntry(t, s, NewEntry{Content: "no mood"})

	clock.Set(time.Date(2024, time.June, 20, 8, 0, 0, 0, time.UTC))
	trashed := mustCreateEntry(t, s, NewEntry{Content: "trashed", Mood: MoodTerrible})
	require.NoError(t, s.Entries.SoftDelete(ctx, trashed.ID))

	clock.Set(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))
	mustCreateEntry(t, s, NewEntry{Content: "next month", Mood: MoodGreat})

	days, err := s.Search.GetDatesWithEntries(ctx, 2024, time.June)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 17}, days)

	moods, err := s.Search.GetMoodsByDate(ctx, 2024, time.June)
	require.NoError(t, err)
	assert.Equal(t, map[int][]Mood{3: {MoodGood, MoodGood, MoodBad}}, moods)
	assert.Equal(t, MoodGood, DominantMood(moods[3]))

	days, err = s.Search.GetDatesWithEntries(ctx, 2024, time.February)
	require.NoError(t, err)
	assert.Empty(t, days)
}
