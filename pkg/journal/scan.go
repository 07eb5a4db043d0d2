package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unowned-ai/daybook/pkg/db"
)

const (
	entryColumns = `
	e.id, e.title, e.content, e.mood, e.category_id, e.created_at, e.updated_at, e.deleted_at,
	e.sync_status, e.sync_version,
	c.id, c.name, c.icon, c.color, c.sort_order, c.created_at`

	entryFrom = `
	FROM entries e
	LEFT JOIN categories c ON c.id = e.category_id`

	// newestFirst is the ordering of every entry list.
	newestFirst = ` ORDER BY e.created_at DESC, e.rowid DESC`

	tagColumns = `t.id, t.name, t.color, t.created_at`

	// tagBatchSize stays well below SQLite's bound-parameter limit.
	tagBatchSize = 500
)

type rowScanner interface {
	Scan(dest ...any) error
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// scanEntry reads entryColumns followed by any extra columns.
func scanEntry(row rowScanner, extra ...any) (Entry, error) {
	var (
		e                                 Entry
		mood, categoryID, syncStatus      sql.NullString
		createdAt, updatedAt              int64
		deletedAt                         sql.NullInt64
		catID, catName, catIcon, catColor sql.NullString
		catOrder, catCreated              sql.NullInt64
	)

	dest := []any{
		&e.ID, &e.Title, &e.Content, &mood, &categoryID, &createdAt, &updatedAt, &deletedAt,
		&syncStatus, &e.SyncVersion,
		&catID, &catName, &catIcon, &catColor, &catOrder, &catCreated,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Entry{}, err
	}

	e.Mood = Mood(mood.String)
	e.CategoryID = categoryID.String
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	if deletedAt.Valid {
		t := fromMillis(deletedAt.Int64)
		e.DeletedAt = &t
	}
	e.SyncStatus = SyncStatus(syncStatus.String)
	if catID.Valid {
		e.Category = &Category{
			ID:        catID.String,
			Name:      catName.String,
			Icon:      catIcon.String,
			Color:     catColor.String,
			SortOrder: int(catOrder.Int64),
			CreatedAt: fromMillis(catCreated.Int64),
		}
	}
	e.Tags = []Tag{}
	return e, nil
}

func scanTag(row rowScanner) (Tag, error) {
	var (
		t         Tag
		createdAt int64
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Color, &createdAt); err != nil {
		return Tag{}, err
	}
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

// queryEntries runs a query selecting entryColumns and hydrates tags.
// Rows are fully drained before tags are loaded: the pool has one connection.
func queryEntries(ctx context.Context, q db.DBTX, query string, args ...any) ([]Entry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating over entries: %w", err)
	}
	rows.Close()

	if err := attachTagsTo(ctx, q, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func getEntry(ctx context.Context, q db.DBTX, id string) (Entry, error) {
	entries, err := queryEntries(ctx, q, "SELECT"+entryColumns+entryFrom+" WHERE e.id = ?", id)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, notFound(ErrEntryNotFound, id)
	}
	return entries[0], nil
}

func attachTagsTo(ctx context.Context, q db.DBTX, entries []Entry) error {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	byEntry, err := loadTags(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range entries {
		if tags, ok := byEntry[entries[i].ID]; ok {
			entries[i].Tags = tags
		}
	}
	return nil
}

// loadTags returns the tags of each entry id, alphabetical by name.
func loadTags(ctx context.Context, q db.DBTX, entryIDs []string) (map[string][]Tag, error) {
	out := make(map[string][]Tag, len(entryIDs))

	for start := 0; start < len(entryIDs); start += tagBatchSize {
		batch := entryIDs[start:min(start+tagBatchSize, len(entryIDs))]

		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		query := fmt.Sprintf(`
		SELECT et.entry_id, %s
		FROM entry_tags et
		JOIN tags t ON t.id = et.tag_id
		WHERE et.entry_id IN (%s)
		ORDER BY t.name ASC`, tagColumns, placeholders(len(batch)))

		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to load entry tags: %w", err)
		}
		for rows.Next() {
			var (
				entryID   string
				t         Tag
				createdAt int64
			)
			if err := rows.Scan(&entryID, &t.ID, &t.Name, &t.Color, &createdAt); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan entry tag: %w", err)
			}
			t.CreatedAt = fromMillis(createdAt)
			out[entryID] = append(out[entryID], t)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating over entry tags: %w", err)
		}
	}
	return out, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// attachTagIDs links tagIDs to entryID, skipping existing links. Unknown tag
// ids fail with ErrTagNotFound.
func attachTagIDs(ctx context.Context, q db.DBTX, entryID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		res, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO entry_tags (entry_id, tag_id) SELECT ?, id FROM tags WHERE id = ?`,
			entryID, tagID)
		if err != nil {
			return fmt.Errorf("failed to tag entry %s: %w", entryID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		// Nothing inserted: either already linked or the tag does not exist.
		ok, err := exists(ctx, q, `SELECT 1 FROM tags WHERE id = ?`, tagID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(ErrTagNotFound, tagID)
		}
	}
	return nil
}

func replaceTagIDs(ctx context.Context, q db.DBTX, entryID string, tagIDs []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM entry_tags WHERE entry_id = ?`, entryID); err != nil {
		return fmt.Errorf("failed to clear tags of entry %s: %w", entryID, err)
	}
	return attachTagIDs(ctx, q, entryID, tagIDs)
}

func exists(ctx context.Context, q db.DBTX, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
