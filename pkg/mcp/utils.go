package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unowned-ai/daybook/pkg/journal"
)

const dateLayout = "2006-01-02"

func stringArg(request mcp.CallToolRequest, name string) (string, bool) {
	v, ok := request.Params.Arguments[name].(string)
	return v, ok
}

// intArg reads a JSON number. ok is false when the argument is absent.
func intArg(request mcp.CallToolRequest, name string) (int, bool) {
	switch v := request.Params.Arguments[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func boolArg(request mcp.CallToolRequest, name string) bool {
	v, _ := request.Params.Arguments[name].(bool)
	return v
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolveTags maps tag names to ids. Unknown names are created when create is
// set and reported as not found otherwise.
func resolveTags(ctx context.Context, svc *journal.Services, names []string, create bool) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		t, err := svc.Tags.GetByName(ctx, name)
		if errors.Is(err, journal.ErrTagNotFound) && create {
			t, err = svc.Tags.Create(ctx, journal.NewTag{Name: name})
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// resolveCategory accepts a category name or id.
func resolveCategory(ctx context.Context, svc *journal.Services, ref string) (string, error) {
	c, err := svc.Categories.GetByName(ctx, ref)
	if errors.Is(err, journal.ErrCategoryNotFound) {
		c, err = svc.Categories.GetByID(ctx, ref)
	}
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func parseDate(s string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return &t, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError reports err to the model. Domain errors keep their message; the
// rest are prefixed with what was being attempted.
func toolError(action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, journal.ErrEntryNotFound),
		errors.Is(err, journal.ErrTagNotFound),
		errors.Is(err, journal.ErrCategoryNotFound),
		errors.Is(err, journal.ErrDuplicateTagName),
		errors.Is(err, journal.ErrDuplicateCategoryName),
		errors.Is(err, journal.ErrInvalidMood),
		errors.Is(err, journal.ErrInvalidTagName),
		errors.Is(err, journal.ErrInvalidCategoryName):
		return mcp.NewToolResultError(err.Error())
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
	}
}
