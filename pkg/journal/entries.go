package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unowned-ai/daybook/pkg/db"
)

const (
	createEntryStatement = `
	INSERT INTO entries (id, title, content, mood, category_id, created_at, updated_at, sync_status, sync_version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`

	// touchColumns is appended to every mutating UPDATE. updated_at moves
	// forward by at least one millisecond even when the clock has not.
	touchColumns = `updated_at = MAX(?, updated_at + 1), sync_status = ?, sync_version = sync_version + 1`

	softDeleteEntryStatement = `
	UPDATE entries
	SET deleted_at = COALESCE(deleted_at, ?), ` + touchColumns + `
	WHERE id = ?
	`

	restoreEntryStatement = `
	UPDATE entries
	SET deleted_at = NULL, ` + touchColumns + `
	WHERE id = ?
	`

	permanentDeleteEntryStatement = `DELETE FROM entries WHERE id = ?`

	purgeDeletedEntriesStatement = `
	DELETE FROM entries
	WHERE deleted_at IS NOT NULL AND deleted_at < ?
	`
)

// EntryRepository reads and writes journal entries.
type EntryRepository struct {
	db   Database
	opts options
}

func NewEntryRepository(database Database, opts ...Option) *EntryRepository {
	return &EntryRepository{db: database, opts: buildOptions("entries", opts)}
}

// GetAll returns every entry outside the trash, newest first.
func (r *EntryRepository) GetAll(ctx context.Context) ([]Entry, error) {
	return r.list(ctx, "e.deleted_at IS NULL")
}

// GetByID returns an entry whether or not it is in the trash.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (Entry, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Entry{}, err
	}
	return getEntry(ctx, conn, id)
}

// Create inserts an entry and links its tags in one transaction.
func (r *EntryRepository) Create(ctx context.Context, in NewEntry) (Entry, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Entry{}, err
	}
	if in.Mood != "" && !in.Mood.Valid() {
		return Entry{}, invalidMood(string(in.Mood))
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DeriveTitle(in.Content)
	}

	id := uuid.NewString()
	now := toMillis(r.opts.now())

	err = db.WithTx(ctx, conn, func(ctx context.Context, tx db.DBTX) error {
		if err := requireCategory(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, createEntryStatement,
			id, title, in.Content, nullString(string(in.Mood)), nullString(in.CategoryID), now, now, SyncPending)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
		return attachTagIDs(ctx, tx, id, in.TagIDs)
	})
	if err != nil {
		return Entry{}, err
	}

	r.opts.metrics.ObserveMutation("entry", "create")
	r.opts.log.Debug(ctx, "entry created", "id", id, "tags", len(in.TagIDs))
	return getEntry(ctx, conn, id)
}

// Update applies the non-nil fields of p. It works on trashed entries too.
// A blank title is re-derived from the resulting content.
func (r *EntryRepository) Update(ctx context.Context, id string, p EntryPatch) (Entry, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Entry{}, err
	}
	if p.Mood != nil && *p.Mood != "" && !p.Mood.Valid() {
		return Entry{}, invalidMood(string(*p.Mood))
	}

	err = db.WithTx(ctx, conn, func(ctx context.Context, tx db.DBTX) error {
		var content string
		err := tx.QueryRowContext(ctx, `SELECT content FROM entries WHERE id = ?`, id).Scan(&content)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(ErrEntryNotFound, id)
		}
		if err != nil {
			return err
		}

		var (
			sets []string
			args []any
		)
		if p.Content != nil {
			content = *p.Content
			sets = append(sets, "content = ?")
			args = append(args, content)
		}
		if p.Title != nil {
			title := strings.TrimSpace(*p.Title)
			if title == "" {
				title = DeriveTitle(content)
			}
			sets = append(sets, "title = ?")
			args = append(args, title)
		}
		if p.Mood != nil {
			sets = append(sets, "mood = ?")
			args = append(args, nullString(string(*p.Mood)))
		}
		if p.CategoryID != nil {
			if err := requireCategory(ctx, tx, *p.CategoryID); err != nil {
				return err
			}
			sets = append(sets, "category_id = ?")
			args = append(args, nullString(*p.CategoryID))
		}
		sets = append(sets, touchColumns)
		args = append(args, toMillis(r.opts.now()), SyncPending, id)

		query := "UPDATE entries SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update entry %s: %w", id, err)
		}

		if p.TagIDs != nil {
			return replaceTagIDs(ctx, tx, id, *p.TagIDs)
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	r.opts.metrics.ObserveMutation("entry", "update")
	return getEntry(ctx, conn, id)
}

// SoftDelete moves an entry to the trash. Trashing it again keeps the
// original deletion time.
func (r *EntryRepository) SoftDelete(ctx context.Context, id string) error {
	now := toMillis(r.opts.now())
	if err := r.execOne(ctx, id, softDeleteEntryStatement, now, now, SyncPending, id); err != nil {
		return err
	}
	r.opts.metrics.ObserveMutation("entry", "soft_delete")
	return nil
}

// Restore takes an entry out of the trash.
func (r *EntryRepository) Restore(ctx context.Context, id string) error {
	if err := r.execOne(ctx, id, restoreEntryStatement, toMillis(r.opts.now()), SyncPending, id); err != nil {
		return err
	}
	r.opts.metrics.ObserveMutation("entry", "restore")
	return nil
}

// PermanentDelete removes an entry and its tag links for good.
func (r *EntryRepository) PermanentDelete(ctx context.Context, id string) error {
	if err := r.execOne(ctx, id, permanentDeleteEntryStatement, id); err != nil {
		return err
	}
	r.opts.metrics.ObserveMutation("entry", "permanent_delete")
	return nil
}

// PurgeOldDeleted permanently removes entries that were trashed more than
// days ago and returns how many were removed. days == 0 empties the whole
// trash; negative days means DefaultRetentionDays.
func (r *EntryRepository) PurgeOldDeleted(ctx context.Context, days int) (int64, error) {
	conn, err := r.db.DB()
	if err != nil {
		return 0, err
	}
	if days < 0 {
		days = DefaultRetentionDays
	}

	cutoff := r.opts.now().Add(-time.Duration(days) * 24 * time.Hour)
	if days == 0 {
		// Include entries trashed in the current millisecond.
		cutoff = cutoff.Add(time.Millisecond)
	}
	res, err := conn.ExecContext(ctx, purgeDeletedEntriesStatement, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge deleted entries: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.opts.metrics.ObserveMutation("entry", "purge")
		r.opts.log.Info(ctx, "purged trashed entries", "count", n, "older_than_days", days)
	}
	return n, nil
}

// GetDeleted returns the trash, most recently deleted first.
func (r *EntryRepository) GetDeleted(ctx context.Context) ([]Entry, error) {
	conn, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	return queryEntries(ctx, conn,
		"SELECT"+entryColumns+entryFrom+" WHERE e.deleted_at IS NOT NULL ORDER BY e.deleted_at DESC, e.rowid DESC")
}

// GetByDateRange returns entries created within [start, end].
func (r *EntryRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]Entry, error) {
	return r.list(ctx, "e.deleted_at IS NULL AND e.created_at >= ? AND e.created_at <= ?", toMillis(start), toMillis(end))
}

func (r *EntryRepository) GetByTag(ctx context.Context, tagID string) ([]Entry, error) {
	return r.list(ctx,
		"e.deleted_at IS NULL AND EXISTS (SELECT 1 FROM entry_tags et WHERE et.entry_id = e.id AND et.tag_id = ?)", tagID)
}

func (r *EntryRepository) GetByMood(ctx context.Context, mood Mood) ([]Entry, error) {
	if !mood.Valid() {
		return nil, invalidMood(string(mood))
	}
	return r.list(ctx, "e.deleted_at IS NULL AND e.mood = ?", string(mood))
}

func (r *EntryRepository) GetByCategory(ctx context.Context, categoryID string) ([]Entry, error) {
	return r.list(ctx, "e.deleted_at IS NULL AND e.category_id = ?", categoryID)
}

func (r *EntryRepository) list(ctx context.Context, where string, args ...any) ([]Entry, error) {
	conn, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	return queryEntries(ctx, conn, "SELECT"+entryColumns+entryFrom+" WHERE "+where+newestFirst, args...)
}

// execOne runs a statement that must touch exactly the entry id.
func (r *EntryRepository) execOne(ctx context.Context, id, statement string, args ...any) error {
	conn, err := r.db.DB()
	if err != nil {
		return err
	}
	res, err := conn.ExecContext(ctx, statement, args...)
	if err != nil {
		return fmt.Errorf("failed to write entry %s: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(ErrEntryNotFound, id)
	}
	return nil
}

// requireCategory fails with ErrCategoryNotFound for an unknown non-empty id.
func requireCategory(ctx context.Context, q db.DBTX, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	ok, err := exists(ctx, q, `SELECT 1 FROM categories WHERE id = ?`, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(ErrCategoryNotFound, categoryID)
	}
	return nil
}
