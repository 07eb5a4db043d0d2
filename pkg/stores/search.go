package stores

import (
	"context"
	"strings"
	"sync"

	"github.com/unowned-ai/daybook/pkg/journal"
)

const (
	// MaxRecentSearches bounds the search history.
	MaxRecentSearches = 10
	// MinRecordedQueryLength is the shortest query kept in the history.
	MinRecordedQueryLength = 2

	previewRunes = 100
)

// Searcher is the part of *journal.SearchService the store uses.
type Searcher interface {
	SearchWithSnippets(ctx context.Context, query string, limit int) ([]journal.SearchResult, error)
	SearchWithFilters(ctx context.Context, query string, f journal.SearchFilters, limit int) ([]journal.Entry, error)
}

// SearchStore runs searches the way the search screen does and remembers
// recent queries.
type SearchStore struct {
	search  Searcher
	History *SearchHistory
}

func NewSearchStore(search Searcher) *SearchStore {
	return &SearchStore{search: search, History: &SearchHistory{}}
}

// HasFilters reports whether any filter dimension is set.
func HasFilters(f journal.SearchFilters) bool {
	return len(f.TagIDs) > 0 || f.Mood != "" || f.StartDate != nil || f.EndDate != nil
}

// Perform runs a text search, or a filtered search when filters are set.
// Filtered results carry the head of the content as their snippet. Queries of
// at least two characters are added to the history.
func (s *SearchStore) Perform(ctx context.Context, query string, f journal.SearchFilters, limit int) ([]journal.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" && !HasFilters(f) {
		return []journal.SearchResult{}, nil
	}

	var results []journal.SearchResult
	if HasFilters(f) {
		entries, err := s.search.SearchWithFilters(ctx, query, f, limit)
		if err != nil {
			return nil, err
		}
		results = make([]journal.SearchResult, len(entries))
		for i, e := range entries {
			results[i] = journal.SearchResult{
				ID:        e.ID,
				Title:     e.Title,
				CreatedAt: e.CreatedAt,
				Snippet:   preview(e.Content),
				Tags:      e.Tags,
				Mood:      e.Mood,
			}
		}
	} else {
		var err error
		if results, err = s.search.SearchWithSnippets(ctx, query, limit); err != nil {
			return nil, err
		}
	}

	s.History.Add(query)
	return results, nil
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewRunes {
		return content
	}
	return string(runes[:previewRunes]) + "..."
}

// SearchHistory holds recent queries, newest first, without case-insensitive duplicates.
type SearchHistory struct {
	mu      sync.Mutex
	queries []string
}

// Add records query unless it is shorter than MinRecordedQueryLength.
func (h *SearchHistory) Add(query string) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinRecordedQueryLength {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]string, 0, MaxRecentSearches)
	next = append(next, query)
	for _, q := range h.queries {
		if len(next) == MaxRecentSearches {
			break
		}
		if !strings.EqualFold(q, query) {
			next = append(next, q)
		}
	}
	h.queries = next
}

// Recent returns the history, newest first.
func (h *SearchHistory) Recent() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string{}, h.queries...)
}

func (h *SearchHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries = nil
}
