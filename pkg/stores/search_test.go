package stores

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/daybook/pkg/journal"
)

func TestSearchHistory(t *testing.T) {
	h := &SearchHistory{}

	h.Add("a")
	h.Add("   ")
	assert.Empty(t, h.Recent())

	h.Add("sunrise")
	h.Add("coffee")
	h.Add("SUNRISE")
	assert.Equal(t, []string{"SUNRISE", "coffee"}, h.Recent())

	for i := 0; i < 15; i++ {
		h.Add(fmt.Sprintf("query %d", i))
	}
	recent := h.Recent()
	assert.Len(t, recent, MaxRecentSearches)
	assert.Equal(t, "query 14", recent[0])

	h.Clear()
	assert.Empty(t, h.Recent())
}

func TestSearchStore_Perform(t *testing.T) {
	s, _ := setupStores(t)
	ctx := context.Background()

	long := "Sunrise " + strings.Repeat("and more ", 20)
	e, err := s.Entries.Create(ctx, journal.NewEntry{Title: "Dawn", Content: long, Mood: journal.MoodGreat})
	require.NoError(t, err)

	results, err := s.Search.Perform(ctx, "", journal.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.Search.Perform(ctx, " sunrise ", journal.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, e.ID, results[0].ID)
	assert.Contains(t, results[0].Snippet, "<<Sunrise>>")

	results, err = s.Search.Perform(ctx, "", journal.SearchFilters{Mood: journal.MoodGreat}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []rune(long)[:100], []rune(strings.TrimSuffix(results[0].Snippet, "...")))
	assert.True(t, strings.HasSuffix(results[0].Snippet, "..."))

	assert.Equal(t, []string{"sunrise"}, s.Search.History.Recent())
}
