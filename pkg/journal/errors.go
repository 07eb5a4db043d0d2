package journal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEntryNotFound         = errors.New("entry not found")
	ErrTagNotFound           = errors.New("tag not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrDuplicateTagName      = errors.New("a tag with this name already exists")
	ErrDuplicateCategoryName = errors.New("a category with this name already exists")
	ErrInvalidMood           = errors.New("invalid mood")
	ErrInvalidTagName        = errors.New("tag name must not be blank")
	ErrInvalidCategoryName   = errors.New("category name must not be blank")
)

func invalidMood(s string) error {
	return fmt.Errorf("%w %q: want one of great, good, okay, bad, terrible", ErrInvalidMood, s)
}

func notFound(err error, id string) error {
	return fmt.Errorf("%w: %s", err, id)
}

// isUniqueViolation matches the constraint error text of both sqlite drivers.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
