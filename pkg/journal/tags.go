package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/unowned-ai/daybook/pkg/db"
)

const (
	createTagStatement = `INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)`

	countTagEntriesStatement = `
	SELECT COUNT(*)
	FROM entry_tags et
	JOIN entries e ON e.id = et.entry_id
	WHERE et.tag_id = ? AND e.deleted_at IS NULL
	`
)

// TagRepository manages tags and their links to entries.
type TagRepository struct {
	db   Database
	opts options
}

func NewTagRepository(database Database, opts ...Option) *TagRepository {
	return &TagRepository{db: database, opts: buildOptions("tags", opts)}
}

// GetAll returns every tag, alphabetical by name.
func (r *TagRepository) GetAll(ctx context.Context) ([]Tag, error) {
	conn, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	return queryTags(ctx, conn, "SELECT "+tagColumns+" FROM tags t ORDER BY t.name ASC")
}

func (r *TagRepository) GetByID(ctx context.Context, id string) (Tag, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Tag{}, err
	}
	return getTag(ctx, conn, "SELECT "+tagColumns+" FROM tags t WHERE t.id = ?", id)
}

// GetByName looks a tag up by its normalized name.
func (r *TagRepository) GetByName(ctx context.Context, name string) (Tag, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Tag{}, err
	}
	normalized := NormalizeTagName(name)
	return getTag(ctx, conn, "SELECT "+tagColumns+" FROM tags t WHERE t.name = ?", normalized)
}

// Create stores a tag under its normalized name. A name already taken,
// ignoring case, fails with ErrDuplicateTagName.
func (r *TagRepository) Create(ctx context.Context, in NewTag) (Tag, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Tag{}, err
	}

	name := NormalizeTagName(in.Name)
	if name == "" {
		return Tag{}, ErrInvalidTagName
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = DefaultTagColor
	}

	taken, err := exists(ctx, conn, `SELECT 1 FROM tags WHERE name = ?`, name)
	if err != nil {
		return Tag{}, err
	}
	if taken {
		return Tag{}, fmt.Errorf("%w: %q", ErrDuplicateTagName, name)
	}

	id := uuid.NewString()
	if _, err := conn.ExecContext(ctx, createTagStatement, id, name, color, toMillis(r.opts.now())); err != nil {
		if isUniqueViolation(err) {
			return Tag{}, fmt.Errorf("%w: %q", ErrDuplicateTagName, name)
		}
		return Tag{}, fmt.Errorf("failed to create tag: %w", err)
	}

	r.opts.metrics.ObserveMutation("tag", "create")
	return r.GetByID(ctx, id)
}

// Update renames or recolors a tag. The new name must not belong to another tag.
func (r *TagRepository) Update(ctx context.Context, id string, p TagPatch) (Tag, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Tag{}, err
	}

	ok, err := exists(ctx, conn, `SELECT 1 FROM tags WHERE id = ?`, id)
	if err != nil {
		return Tag{}, err
	}
	if !ok {
		return Tag{}, notFound(ErrTagNotFound, id)
	}

	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		name := NormalizeTagName(*p.Name)
		if name == "" {
			return Tag{}, ErrInvalidTagName
		}
		taken, err := exists(ctx, conn, `SELECT 1 FROM tags WHERE name = ? AND id <> ?`, name, id)
		if err != nil {
			return Tag{}, err
		}
		if taken {
			return Tag{}, fmt.Errorf("%w: %q", ErrDuplicateTagName, name)
		}
		sets = append(sets, "name = ?")
		args = append(args, name)
	}
	if p.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, strings.TrimSpace(*p.Color))
	}

	if len(sets) > 0 {
		args = append(args, id)
		_, err := conn.ExecContext(ctx, "UPDATE tags SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			if isUniqueViolation(err) {
				return Tag{}, ErrDuplicateTagName
			}
			return Tag{}, fmt.Errorf("failed to update tag %s: %w", id, err)
		}
		r.opts.metrics.ObserveMutation("tag", "update")
	}
	return r.GetByID(ctx, id)
}

// Delete removes a tag and its links. Entries are left untouched.
func (r *TagRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.db.DB()
	if err != nil {
		return err
	}
	res, err := conn.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag %s: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(ErrTagNotFound, id)
	}
	r.opts.metrics.ObserveMutation("tag", "delete")
	return nil
}

// GetEntryCountForTag counts the entries outside the trash that carry the tag.
func (r *TagRepository) GetEntryCountForTag(ctx context.Context, id string) (int, error) {
	conn, err := r.db.DB()
	if err != nil {
		return 0, err
	}
	var count int
	if err := conn.QueryRowContext(ctx, countTagEntriesStatement, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries for tag %s: %w", id, err)
	}
	return count, nil
}

// GetTagsForEntry returns the tags of an entry, alphabetical by name.
func (r *TagRepository) GetTagsForEntry(ctx context.Context, entryID string) ([]Tag, error) {
	conn, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	byEntry, err := loadTags(ctx, conn, []string{entryID})
	if err != nil {
		return nil, err
	}
	if tags := byEntry[entryID]; tags != nil {
		return tags, nil
	}
	return []Tag{}, nil
}

// SetTagsForEntry replaces the tag set of an entry.
func (r *TagRepository) SetTagsForEntry(ctx context.Context, entryID string, tagIDs []string) error {
	return r.withEntry(ctx, entryID, func(ctx context.Context, tx db.DBTX) error {
		return replaceTagIDs(ctx, tx, entryID, tagIDs)
	})
}

// AddTagToEntry links a tag to an entry. Linking twice is a no-op.
func (r *TagRepository) AddTagToEntry(ctx context.Context, entryID, tagID string) error {
	return r.withEntry(ctx, entryID, func(ctx context.Context, tx db.DBTX) error {
		return attachTagIDs(ctx, tx, entryID, []string{tagID})
	})
}

// RemoveTagFromEntry unlinks a tag from an entry. Removing a missing link is a no-op.
func (r *TagRepository) RemoveTagFromEntry(ctx context.Context, entryID, tagID string) error {
	conn, err := r.db.DB()
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM entry_tags WHERE entry_id = ? AND tag_id = ?`, entryID, tagID); err != nil {
		return fmt.Errorf("failed to untag entry %s: %w", entryID, err)
	}
	return nil
}

// withEntry runs fn in a transaction after checking that the entry exists.
func (r *TagRepository) withEntry(ctx context.Context, entryID string, fn func(ctx context.Context, tx db.DBTX) error) error {
	conn, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.WithTx(ctx, conn, func(ctx context.Context, tx db.DBTX) error {
		ok, err := exists(ctx, tx, `SELECT 1 FROM entries WHERE id = ?`, entryID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(ErrEntryNotFound, entryID)
		}
		return fn(ctx, tx)
	})
}

func getTag(ctx context.Context, q db.DBTX, query string, arg string) (Tag, error) {
	t, err := scanTag(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Tag{}, notFound(ErrTagNotFound, arg)
	}
	if err != nil {
		return Tag{}, err
	}
	return t, nil
}

func queryTags(ctx context.Context, q db.DBTX, query string, args ...any) ([]Tag, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over tags: %w", err)
	}
	return tags, nil
}
