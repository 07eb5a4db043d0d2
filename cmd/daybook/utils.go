package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/unowned-ai/daybook/pkg/journal"
)

const dateLayout = "2006-01-02"

// splitTags turns "a, b,,c" into [a b c].
func splitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveTagIDs looks tags up by name, creating missing ones when create is set.
func resolveTagIDs(ctx context.Context, svc *journal.Services, names []string, create bool) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		t, err := svc.Tags.GetByName(ctx, name)
		if errors.Is(err, journal.ErrTagNotFound) && create {
			t, err = svc.Tags.Create(ctx, journal.NewTag{Name: name})
		}
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// resolveCategoryID accepts a category name or id. Empty stays empty.
func resolveCategoryID(ctx context.Context, svc *journal.Services, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	c, err := svc.Categories.GetByName(ctx, ref)
	if errors.Is(err, journal.ErrCategoryNotFound) {
		c, err = svc.Categories.GetByID(ctx, ref)
	}
	if err != nil {
		return "", fmt.Errorf("category %q: %w", ref, err)
	}
	return c.ID, nil
}

// parseDay parses YYYY-MM-DD in local time. endOfDay moves the result to the
// last millisecond of that day.
func parseDay(s string, endOfDay bool) (*time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return &t, nil
}

// readContent returns s, or all of stdin when s is "-".
func readContent(s string, stdin io.Reader) (string, error) {
	if s != "-" {
		return s, nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read content from stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}
