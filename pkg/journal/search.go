package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/unowned-ai/daybook/pkg/db"
)

const (
	ftsFrom = `
	FROM entries_fts
	JOIN entries e ON e.rowid = entries_fts.rowid
	LEFT JOIN categories c ON c.id = e.category_id`

	ftsSnippetColumn = `, snippet(entries_fts, 1, '<<', '>>', '...', 32)`

	likePredicate = `(e.title LIKE ? ESCAPE '\' OR e.content LIKE ? ESCAPE '\')`
)

// SearchService runs full-text, filtered and calendar queries over entries.
// Entries in the trash never match.
type SearchService struct {
	db   Database
	opts options
}

func NewSearchService(database Database, opts ...Option) *SearchService {
	return &SearchService{db: database, opts: buildOptions("search", opts)}
}

// Search returns entries whose title or content contain words starting with
// the query terms, best match first. A blank query matches nothing.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if strings.TrimSpace(query) == "" {
		return []Entry{}, nil
	}
	conn, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)
	started := time.Now()

	if match := s.matchExpr(query); match != "" {
		entries, err := queryEntries(ctx, conn,
			"SELECT"+entryColumns+ftsFrom+
				" WHERE entries_fts MATCH ? AND e.deleted_at IS NULL ORDER BY entries_fts.rank LIMIT ?",
			match, limit)
		if err == nil {
			s.opts.metrics.ObserveSearch("entries", false, len(entries), time.Since(started))
			return entries, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.opts.log.Warn(ctx, "full-text search failed, falling back to substring match", "query", query, "error", err)
	}

	entries, err := s.fallbackSearch(ctx, conn, query, limit)
	if err != nil {
		return nil, err
	}
	s.opts.metrics.ObserveSearch("entries", true, len(entries), time.Since(started))
	return entries, nil
}

// SearchWithSnippets matches like Search but returns short result records
// with the matched terms wrapped in << and >>.
func (s *SearchService) SearchWithSnippets(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []SearchResult{}, nil
	}
	conn, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)
	started := time.Now()

	if match := s.matchExpr(query); match != "" {
		results, err := s.snippetSearch(ctx, conn, match, limit)
		if err == nil {
			s.opts.metrics.ObserveSearch("snippets", false, len(results), time.Since(started))
			return results, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.opts.log.Warn(ctx, "full-text snippet search failed, falling back to substring match", "query", query, "error", err)
	}

	entries, err := s.fallbackSearch(ctx, conn, query, limit)
	if err != nil {
		return nil, err
	}
	results := make([]SearchResult, len(entries))
	for i, e := range entries {
		results[i] = SearchResult{
			ID:        e.ID,
			Title:     e.Title,
			CreatedAt: e.CreatedAt,
			Snippet:   BuildSnippet(e.Content, query),
			Tags:      e.Tags,
			Mood:      e.Mood,
		}
	}
	s.opts.metrics.ObserveSearch("snippets", true, len(results), time.Since(started))
	return results, nil
}

// SearchWithFilters combines an optional text query with tag, mood and date
// filters. A blank query filters only, newest first.
func (s *SearchService) SearchWithFilters(ctx context.Context, query string, f SearchFilters, limit int) ([]Entry, error) {
	if f.Mood != "" && !f.Mood.Valid() {
		return nil, invalidMood(string(f.Mood))
	}
	conn, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)
	started := time.Now()

	where := []string{"e.deleted_at IS NULL"}
	var args []any
	if len(f.TagIDs) > 0 {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM entry_tags et WHERE et.entry_id = e.id AND et.tag_id IN (%s))", placeholders(len(f.TagIDs))))
		args = append(args, stringArgs(f.TagIDs)...)
	}
	if f.Mood != "" {
		where = append(where, "e.mood = ?")
		args = append(args, string(f.Mood))
	}
	if f.StartDate != nil {
		where = append(where, "e.created_at >= ?")
		args = append(args, toMillis(*f.StartDate))
	}
	if f.EndDate != nil {
		where = append(where, "e.created_at <= ?")
		args = append(args, toMillis(*f.EndDate))
	}

	text := strings.TrimSpace(query)
	if text == "" {
		entries, err := queryEntries(ctx, conn,
			"SELECT"+entryColumns+entryFrom+" WHERE "+strings.Join(where, " AND ")+newestFirst+" LIMIT ?",
			append(args, limit)...)
		if err != nil {
			return nil, fmt.Errorf("failed to filter entries: %w", err)
		}
		s.opts.metrics.ObserveSearch("filters", false, len(entries), time.Since(started))
		return entries, nil
	}

	if match := s.matchExpr(query); match != "" {
		ftsArgs := append([]any{match}, args...)
		entries, err := queryEntries(ctx, conn,
			"SELECT"+entryColumns+ftsFrom+" WHERE entries_fts MATCH ? AND "+strings.Join(where, " AND ")+
				" ORDER BY entries_fts.rank, e.created_at DESC LIMIT ?",
			append(ftsArgs, limit)...)
		if err == nil {
			s.opts.metrics.ObserveSearch("filters", false, len(entries), time.Since(started))
			return entries, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.opts.log.Warn(ctx, "full-text filter failed, falling back to substring match", "query", query, "error", err)
	}

	pattern := likePattern(text)
	likeArgs := append([]any{pattern, pattern}, args...)
	entries, err := queryEntries(ctx, conn,
		"SELECT"+entryColumns+entryFrom+" WHERE "+likePredicate+" AND "+strings.Join(where, " AND ")+newestFirst+" LIMIT ?",
		append(likeArgs, limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter entries: %w", err)
	}
	s.opts.metrics.ObserveSearch("filters", true, len(entries), time.Since(started))
	return entries, nil
}

// GetEntriesByDate returns the entries created on the local calendar day of date, newest first.
func (s *SearchService) GetEntriesByDate(ctx context.Context, date time.Time) ([]Entry, error) {
	conn, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	local := date.In(s.opts.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.opts.loc)
	end := start.AddDate(0, 0, 1)

	return queryEntries(ctx, conn,
		"SELECT"+entryColumns+entryFrom+" WHERE e.deleted_at IS NULL AND e.created_at >= ? AND e.created_at < ?"+newestFirst,
		toMillis(start), toMillis(end))
}

// GetDatesWithEntries returns the sorted days of the month that have at least one entry.
func (s *SearchService) GetDatesWithEntries(ctx context.Context, year int, month time.Month) ([]int, error) {
	days := []int{}
	seen := map[int]bool{}
	err := s.eachInMonth(ctx, year, month, false, func(day int, _ Mood) {
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Ints(days)
	return days, nil
}

// GetMoodsByDate maps each day of the month to the moods recorded that day,
// in creation order. Entries without a mood are skipped.
func (s *SearchService) GetMoodsByDate(ctx context.Context, year int, month time.Month) (map[int][]Mood, error) {
	moods := map[int][]Mood{}
	err := s.eachInMonth(ctx, year, month, true, func(day int, m Mood) {
		moods[day] = append(moods[day], m)
	})
	if err != nil {
		return nil, err
	}
	return moods, nil
}

func (s *SearchService) eachInMonth(ctx context.Context, year int, month time.Month, moodOnly bool, fn func(day int, m Mood)) error {
	conn, err := s.db.DB()
	if err != nil {
		return err
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, s.opts.loc)
	end := start.AddDate(0, 1, 0)

	query := `SELECT created_at, mood FROM entries WHERE deleted_at IS NULL AND created_at >= ? AND created_at < ?`
	if moodOnly {
		query += ` AND mood IS NOT NULL`
	}
	query += ` ORDER BY created_at ASC, rowid ASC`

	rows, err := conn.QueryContext(ctx, query, toMillis(start), toMillis(end))
	if err != nil {
		return fmt.Errorf("failed to query %s %d: %w", month, year, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			createdAt int64
			mood      sql.NullString
		)
		if err := rows.Scan(&createdAt, &mood); err != nil {
			return fmt.Errorf("failed to scan calendar row: %w", err)
		}
		fn(time.UnixMilli(createdAt).In(s.opts.loc).Day(), Mood(mood.String))
	}
	return rows.Err()
}

// matchExpr builds the FTS5 prefix query, or "" when the index cannot be used.
func (s *SearchService) matchExpr(query string) string {
	if !s.db.SearchIndexAvailable() {
		return ""
	}
	sanitized := SanitizeQuery(query)
	if sanitized == "" {
		return ""
	}
	return sanitized + "*"
}

func (s *SearchService) snippetSearch(ctx context.Context, q db.DBTX, match string, limit int) ([]SearchResult, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT"+entryColumns+ftsSnippetColumn+ftsFrom+
			" WHERE entries_fts MATCH ? AND e.deleted_at IS NULL ORDER BY entries_fts.rank LIMIT ?",
		match, limit)
	if err != nil {
		return nil, err
	}

	var (
		results []SearchResult
		ids     []string
	)
	for rows.Next() {
		var snippet sql.NullString
		e, err := scanEntry(rows, &snippet)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, SearchResult{
			ID:        e.ID,
			Title:     e.Title,
			CreatedAt: e.CreatedAt,
			Snippet:   snippet.String,
			Tags:      []Tag{},
			Mood:      e.Mood,
		})
		ids = append(ids, e.ID)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	byEntry, err := loadTags(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if tags, ok := byEntry[results[i].ID]; ok {
			results[i].Tags = tags
		}
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

// fallbackSearch matches the raw query as a substring of title or content.
func (s *SearchService) fallbackSearch(ctx context.Context, q db.DBTX, query string, limit int) ([]Entry, error) {
	pattern := likePattern(strings.TrimSpace(query))
	entries, err := queryEntries(ctx, q,
		"SELECT"+entryColumns+entryFrom+" WHERE e.deleted_at IS NULL AND "+likePredicate+newestFirst+" LIMIT ?",
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("substring search failed: %w", err)
	}
	return entries, nil
}

func likePattern(text string) string {
	return "%" + escapeLike(text) + "%"
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}
