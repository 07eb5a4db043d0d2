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
	categoryColumns = `id, name, icon, color, sort_order, created_at`

	createCategoryStatement = `
	INSERT INTO categories (id, name, icon, color, sort_order, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	nextSortOrderStatement = `SELECT COALESCE(MAX(sort_order), -1) + 1 FROM categories`
)

// CategoryRepository manages the ordered category list.
type CategoryRepository struct {
	db   Database
	opts options
}

func NewCategoryRepository(database Database, opts ...Option) *CategoryRepository {
	return &CategoryRepository{db: database, opts: buildOptions("categories", opts)}
}

// GetAll returns categories in display order.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]Category, error) {
	conn, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY sort_order ASC, name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (Category, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Category{}, err
	}
	return getCategory(ctx, conn, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
}

// GetByName matches names case-insensitively.
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (Category, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Category{}, err
	}
	return getCategory(ctx, conn,
		"SELECT "+categoryColumns+" FROM categories WHERE name = ? COLLATE NOCASE", strings.TrimSpace(name))
}

// Create adds a category. Without an explicit SortOrder it goes to the end.
func (r *CategoryRepository) Create(ctx context.Context, in NewCategory) (Category, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Category{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Category{}, ErrInvalidCategoryName
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = DefaultCategoryColor
	}

	id := uuid.NewString()
	err = db.WithTx(ctx, conn, func(ctx context.Context, tx db.DBTX) error {
		if err := checkCategoryName(ctx, tx, name, ""); err != nil {
			return err
		}

		var sortOrder int
		if in.SortOrder != nil {
			sortOrder = *in.SortOrder
		} else if err := tx.QueryRowContext(ctx, nextSortOrderStatement).Scan(&sortOrder); err != nil {
			return fmt.Errorf("failed to compute sort order: %w", err)
		}

		_, err := tx.ExecContext(ctx, createCategoryStatement,
			id, name, nullString(strings.TrimSpace(in.Icon)), color, sortOrder, toMillis(r.opts.now()))
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateCategoryName, name)
		}
		return err
	})
	if err != nil {
		return Category{}, err
	}

	r.opts.metrics.ObserveMutation("category", "create")
	return r.GetByID(ctx, id)
}

// Update changes the non-nil fields of p.
func (r *CategoryRepository) Update(ctx context.Context, id string, p CategoryPatch) (Category, error) {
	conn, err := r.db.DB()
	if err != nil {
		return Category{}, err
	}

	err = db.WithTx(ctx, conn, func(ctx context.Context, tx db.DBTX) error {
		ok, err := exists(ctx, tx, `SELECT 1 FROM categories WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(ErrCategoryNotFound, id)
		}

		var (
			sets []string
			args []any
		)
		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			if name == "" {
				return ErrInvalidCategoryName
			}
			if err := checkCategoryName(ctx, tx, name, id); err != nil {
				return err
			}
			sets = append(sets, "name = ?")
			args = append(args, name)
		}
		if p.Icon != nil {
			sets = append(sets, "icon = ?")
			args = append(args, nullString(strings.TrimSpace(*p.Icon)))
		}
		if p.Color != nil {
			sets = append(sets, "color = ?")
			args = append(args, strings.TrimSpace(*p.Color))
		}
		if p.SortOrder != nil {
			sets = append(sets, "sort_order = ?")
			args = append(args, *p.SortOrder)
		}
		if len(sets) == 0 {
			return nil
		}

		args = append(args, id)
		_, err = tx.ExecContext(ctx, "UPDATE categories SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if isUniqueViolation(err) {
			return ErrDuplicateCategoryName
		}
		return err
	})
	if err != nil {
		return Category{}, err
	}

	r.opts.metrics.ObserveMutation("category", "update")
	return r.GetByID(ctx, id)
}

// Delete removes a category. Entries that referenced it keep existing with
// no category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.db.DB()
	if err != nil {
		return err
	}

	var detached int64
	err = db.WithTx(ctx, conn, func(ctx context.Context, tx db.DBTX) error {
		res, err := tx.ExecContext(ctx, `UPDATE entries SET category_id = NULL WHERE category_id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to detach entries from category %s: %w", id, err)
		}
		if detached, err = rowsAffected(res); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete category %s: %w", id, err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound(ErrCategoryNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.opts.metrics.ObserveMutation("category", "delete")
	r.opts.log.Debug(ctx, "category deleted", "id", id, "detached_entries", detached)
	return nil
}

// Reorder sets each category's sort order to its index in ids.
func (r *CategoryRepository) Reorder(ctx context.Context, ids []string) error {
	conn, err := r.db.DB()
	if err != nil {
		return err
	}

	err = db.WithTx(ctx, conn, func(ctx context.Context, tx db.DBTX) error {
		for i, id := range ids {
			res, err := tx.ExecContext(ctx, `UPDATE categories SET sort_order = ? WHERE id = ?`, i, id)
			if err != nil {
				return fmt.Errorf("failed to reorder category %s: %w", id, err)
			}
			n, err := rowsAffected(res)
			if err != nil {
				return err
			}
			if n == 0 {
				return notFound(ErrCategoryNotFound, id)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.opts.metrics.ObserveMutation("category", "reorder")
	return nil
}

// checkCategoryName fails when another category already uses name, ignoring case.
func checkCategoryName(ctx context.Context, q db.DBTX, name, selfID string) error {
	taken, err := exists(ctx, q, `SELECT 1 FROM categories WHERE name = ? COLLATE NOCASE AND id <> ?`, name, selfID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %q", ErrDuplicateCategoryName, name)
	}
	return nil
}

func scanCategory(row rowScanner) (Category, error) {
	var (
		c         Category
		icon      sql.NullString
		createdAt int64
	)
	if err := row.Scan(&c.ID, &c.Name, &icon, &c.Color, &c.SortOrder, &createdAt); err != nil {
		return Category{}, err
	}
	c.Icon = icon.String
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}

func getCategory(ctx context.Context, q db.DBTX, query, arg string) (Category, error) {
	c, err := scanCategory(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, notFound(ErrCategoryNotFound, arg)
	}
	if err != nil {
		return Category{}, err
	}
	return c, nil
}
