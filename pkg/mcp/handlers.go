package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/logging"
)

// Tools binds the MCP tool handlers to the journal services.
type Tools struct {
	svc           *journal.Services
	log           logging.Logger
	loc           *time.Location
	retentionDays int
	searchLimit   int
}

func NewTools(svc *journal.Services, log logging.Logger, loc *time.Location, retentionDays, searchLimit int) *Tools {
	if log == nil {
		log = logging.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	if retentionDays <= 0 {
		retentionDays = journal.DefaultRetentionDays
	}
	if searchLimit <= 0 {
		searchLimit = journal.DefaultSearchLimit
	}
	return &Tools{svc: svc, log: log, loc: loc, retentionDays: retentionDays, searchLimit: searchLimit}
}

type toolDef func() (mcp.Tool, server.ToolHandlerFunc)

func (t *Tools) all() []toolDef {
	return []toolDef{
		t.ping,
		t.createEntry,
		t.listEntries,
		t.getEntry,
		t.updateEntry,
		t.deleteEntry,
		t.restoreEntry,
		t.listTrash,
		t.purgeTrash,
		t.listTags,
		t.createTag,
		t.deleteTag,
		t.listCategories,
		t.searchEntries,
		t.getCalendar,
	}
}

// Register adds every tool to s. The overview tool is only added when asked for.
func (t *Tools) Register(s *server.MCPServer, overview bool) []string {
	defs := t.all()
	if overview {
		defs = append(defs, t.journalOverview)
	}
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		tool, handler := def()
		s.AddTool(tool, handler)
		names = append(names, tool.Name)
	}
	return names
}

func (t *Tools) ping() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the daybook MCP server is alive."),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("pong_daybook"), nil
	}
}

func (t *Tools) createEntry() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("create_entry",
		mcp.WithDescription("Creates a journal entry. A blank title is derived from the content."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Body of the entry.")),
		mcp.WithString("title", mcp.Description("Optional title.")),
		mcp.WithString("mood", mcp.Description("Optional mood: great, good, okay, bad or terrible.")),
		mcp.WithString("category", mcp.Description("Optional category name or id.")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tag names. Missing tags are created.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, ok := stringArg(request, "content")
		if !ok {
			return mcp.NewToolResultError("'content' parameter is required."), nil
		}
		in := journal.NewEntry{Content: content}
		in.Title, _ = stringArg(request, "title")

		mood, _ := stringArg(request, "mood")
		m, err := journal.ParseMood(mood)
		if err != nil {
			return toolError("create entry", err), nil
		}
		in.Mood = m

		if ref, _ := stringArg(request, "category"); ref != "" {
			if in.CategoryID, err = resolveCategory(ctx, t.svc, ref); err != nil {
				return toolError("resolve category", err), nil
			}
		}
		if tags, _ := stringArg(request, "tags"); tags != "" {
			if in.TagIDs, err = resolveTags(ctx, t.svc, splitList(tags), true); err != nil {
				return toolError("resolve tags", err), nil
			}
		}

		e, err := t.svc.Entries.Create(ctx, in)
		if err != nil {
			return toolError("create entry", err), nil
		}
		return jsonResult(e)
	}
}

func (t *Tools) listEntries() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_entries",
		mcp.WithDescription("Lists live entries, newest first. At most one filter applies: tag, then mood, then category."),
		mcp.WithString("tag", mcp.Description("Optional tag name.")),
		mcp.WithString("mood", mcp.Description("Optional mood.")),
		mcp.WithString("category", mcp.Description("Optional category name or id.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var (
			entries []journal.Entry
			err     error
		)
		tag, _ := stringArg(request, "tag")
		mood, _ := stringArg(request, "mood")
		category, _ := stringArg(request, "category")

		switch {
		case tag != "":
			var ids []string
			if ids, err = resolveTags(ctx, t.svc, []string{tag}, false); err == nil {
				entries, err = t.svc.Entries.GetByTag(ctx, ids[0])
			}
		case mood != "":
			entries, err = t.svc.Entries.GetByMood(ctx, journal.Mood(mood))
		case category != "":
			var id string
			if id, err = resolveCategory(ctx, t.svc, category); err == nil {
				entries, err = t.svc.Entries.GetByCategory(ctx, id)
			}
		default:
			entries, err = t.svc.Entries.GetAll(ctx)
		}
		if err != nil {
			return toolError("list entries", err), nil
		}
		return jsonResult(entries)
	}
}

func (t *Tools) getEntry() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_entry",
		mcp.WithDescription("Retrieves an entry, live or in the trash, by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := stringArg(request, "id")
		if !ok || id == "" {
			return mcp.NewToolResultError("'id' parameter is required."), nil
		}
		e, err := t.svc.Entries.GetByID(ctx, id)
		if err != nil {
			return toolError("get entry", err), nil
		}
		return jsonResult(e)
	}
}

func (t *Tools) updateEntry() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("update_entry",
		mcp.WithDescription("Updates an entry. Only the given fields change; tags, when given, replace the whole tag set."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id.")),
		mcp.WithString("title", mcp.Description("New title. Blank derives one from the content.")),
		mcp.WithString("content", mcp.Description("New content.")),
		mcp.WithString("mood", mcp.Description("New mood. Empty string clears it.")),
		mcp.WithString("category", mcp.Description("Category name or id. Empty string clears it.")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag names. Empty string removes every tag.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := stringArg(request, "id")
		if !ok || id == "" {
			return mcp.NewToolResultError("'id' parameter is required."), nil
		}

		var (
			p       journal.EntryPatch
			changed bool
			err     error
		)
		if v, ok := stringArg(request, "title"); ok {
			p.Title, changed = &v, true
		}
		if v, ok := stringArg(request, "content"); ok {
			p.Content, changed = &v, true
		}
		if v, ok := stringArg(request, "mood"); ok {
			m := journal.Mood(v)
			p.Mood, changed = &m, true
		}
		if v, ok := stringArg(request, "category"); ok {
			if v != "" {
				if v, err = resolveCategory(ctx, t.svc, v); err != nil {
					return toolError("resolve category", err), nil
				}
			}
			p.CategoryID, changed = &v, true
		}
		if v, ok := stringArg(request, "tags"); ok {
			ids, err := resolveTags(ctx, t.svc, splitList(v), true)
			if err != nil {
				return toolError("resolve tags", err), nil
			}
			p.TagIDs, changed = &ids, true
		}
		if !changed {
			return mcp.NewToolResultError("No update fields provided (use title, content, mood, category or tags)."), nil
		}

		e, err := t.svc.Entries.Update(ctx, id, p)
		if err != nil {
			return toolError("update entry", err), nil
		}
		return jsonResult(e)
	}
}

func (t *Tools) deleteEntry() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("delete_entry",
		mcp.WithDescription("Moves an entry to the trash, or removes it for good when permanent is set."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id.")),
		mcp.WithBoolean("permanent", mcp.Description("Skip the trash. Cannot be undone.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := stringArg(request, "id")
		if !ok || id == "" {
			return mcp.NewToolResultError("'id' parameter is required."), nil
		}
		if boolArg(request, "permanent") {
			if err := t.svc.Entries.PermanentDelete(ctx, id); err != nil {
				return toolError("delete entry", err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Entry '%s' permanently deleted.", id)), nil
		}
		if err := t.svc.Entries.SoftDelete(ctx, id); err != nil {
			return toolError("delete entry", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Entry '%s' moved to the trash. It is purged after %d days.", id, t.retentionDays)), nil
	}
}

func (t *Tools) restoreEntry() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("restore_entry",
		mcp.WithDescription("Restores an entry from the trash."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := stringArg(request, "id")
		if !ok || id == "" {
			return mcp.NewToolResultError("'id' parameter is required."), nil
		}
		if err := t.svc.Entries.Restore(ctx, id); err != nil {
			return toolError("restore entry", err), nil
		}
		e, err := t.svc.Entries.GetByID(ctx, id)
		if err != nil {
			return toolError("get entry", err), nil
		}
		return jsonResult(e)
	}
}

func (t *Tools) listTrash() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_trash",
		mcp.WithDescription("Lists trashed entries, most recently deleted first."),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := t.svc.Entries.GetDeleted(ctx)
		if err != nil {
			return toolError("list trash", err), nil
		}
		return jsonResult(entries)
	}
}

func (t *Tools) purgeTrash() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("purge_trash",
		mcp.WithDescription("Permanently removes entries that have been in the trash longer than the given number of days."),
		mcp.WithNumber("days", mcp.Description("Retention window in days; 0 empties the whole trash. Defaults to the configured window.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		days, ok := intArg(request, "days")
		if !ok {
			days = t.retentionDays
		}
		if days < 0 {
			return mcp.NewToolResultError("'days' must not be negative."), nil
		}
		n, err := t.svc.Entries.PurgeOldDeleted(ctx, days)
		if err != nil {
			return toolError("purge trash", err), nil
		}
		t.log.Info(ctx, "trash purged", "days", days, "purged", n)
		if days == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("Purged %d entries. The trash is empty.", n)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Purged %d entries older than %d days.", n, days)), nil
	}
}

func (t *Tools) listTags() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_tags",
		mcp.WithDescription("Lists all tags alphabetically."),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tags, err := t.svc.Tags.GetAll(ctx)
		if err != nil {
			return toolError("list tags", err), nil
		}
		return jsonResult(tags)
	}
}

func (t *Tools) createTag() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("create_tag",
		mcp.WithDescription("Creates a tag. Names are lowercased and must be unique."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tag name.")),
		mcp.WithString("color", mcp.Description("Optional display color, e.g. #0D9488.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, _ := stringArg(request, "name")
		color, _ := stringArg(request, "color")
		tag, err := t.svc.Tags.Create(ctx, journal.NewTag{Name: name, Color: color})
		if err != nil {
			return toolError("create tag", err), nil
		}
		return jsonResult(tag)
	}
}

func (t *Tools) deleteTag() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("delete_tag",
		mcp.WithDescription("Deletes a tag by name and detaches it from every entry."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tag name.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, _ := stringArg(request, "name")
		tag, err := t.svc.Tags.GetByName(ctx, name)
		if err != nil {
			return toolError("find tag", err), nil
		}
		count, err := t.svc.Tags.GetEntryCountForTag(ctx, tag.ID)
		if err != nil {
			return toolError("count tag entries", err), nil
		}
		if err := t.svc.Tags.Delete(ctx, tag.ID); err != nil {
			return toolError("delete tag", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Tag '%s' deleted and removed from %d entries.", tag.Name, count)), nil
	}
}

func (t *Tools) listCategories() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_categories",
		mcp.WithDescription("Lists categories in display order."),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		categories, err := t.svc.Categories.GetAll(ctx)
		if err != nil {
			return toolError("list categories", err), nil
		}
		return jsonResult(categories)
	}
}

func (t *Tools) searchEntries() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("search_entries",
		mcp.WithDescription("Full-text prefix search over titles and content. With any filter set, returns full entries matching all filters."),
		mcp.WithString("query", mcp.Description("Search text. May be empty when filters are given.")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tag names; entries need at least one.")),
		mcp.WithString("mood", mcp.Description("Optional mood.")),
		mcp.WithString("start_date", mcp.Description("Optional first day, YYYY-MM-DD.")),
		mcp.WithString("end_date", mcp.Description("Optional last day, YYYY-MM-DD.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, _ := stringArg(request, "query")
		limit, ok := intArg(request, "limit")
		if !ok || limit <= 0 {
			limit = t.searchLimit
		}

		var (
			f       journal.SearchFilters
			filters bool
			err     error
		)
		if v, _ := stringArg(request, "tags"); v != "" {
			if f.TagIDs, err = resolveTags(ctx, t.svc, splitList(v), false); err != nil {
				return toolError("resolve tags", err), nil
			}
			filters = true
		}
		if v, _ := stringArg(request, "mood"); v != "" {
			if f.Mood, err = journal.ParseMood(v); err != nil {
				return toolError("search", err), nil
			}
			filters = true
		}
		if v, _ := stringArg(request, "start_date"); v != "" {
			if f.StartDate, err = parseDate(v, t.loc, false); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			filters = true
		}
		if v, _ := stringArg(request, "end_date"); v != "" {
			if f.EndDate, err = parseDate(v, t.loc, true); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			filters = true
		}

		if filters {
			entries, err := t.svc.Search.SearchWithFilters(ctx, query, f, limit)
			if err != nil {
				return toolError("search", err), nil
			}
			return jsonResult(entries)
		}
		if query == "" {
			return mcp.NewToolResultError("Provide a 'query' or at least one filter."), nil
		}
		results, err := t.svc.Search.SearchWithSnippets(ctx, query, limit)
		if err != nil {
			return toolError("search", err), nil
		}
		return jsonResult(results)
	}
}

type calendarMonth struct {
	Year     int                    `json:"year"`
	Month    int                    `json:"month"`
	Days     []int                  `json:"days"`
	Moods    map[int][]journal.Mood `json:"moods"`
	Dominant map[int]journal.Mood   `json:"dominant"`
}

func (t *Tools) getCalendar() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_calendar",
		mcp.WithDescription("Shows which days of a month have entries and the moods recorded on each."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Year, e.g. 2024.")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month, 1-12.")),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		year, ok := intArg(request, "year")
		if !ok || year < 1 {
			return mcp.NewToolResultError("'year' parameter is required."), nil
		}
		month, ok := intArg(request, "month")
		if !ok || month < 1 || month > 12 {
			return mcp.NewToolResultError("'month' must be between 1 and 12."), nil
		}

		days, err := t.svc.Search.GetDatesWithEntries(ctx, year, time.Month(month))
		if err != nil {
			return toolError("load calendar", err), nil
		}
		moods, err := t.svc.Search.GetMoodsByDate(ctx, year, time.Month(month))
		if err != nil {
			return toolError("load calendar", err), nil
		}
		dominant := make(map[int]journal.Mood, len(moods))
		for day, list := range moods {
			dominant[day] = journal.DominantMood(list)
		}
		return jsonResult(calendarMonth{Year: year, Month: month, Days: days, Moods: moods, Dominant: dominant})
	}
}

type overview struct {
	Entries    int                  `json:"entries"`
	Trash      int                  `json:"trash"`
	Moods      map[journal.Mood]int `json:"moods"`
	Tags       []tagUsage           `json:"tags"`
	Categories []string             `json:"categories"`
	Latest     *journal.Entry       `json:"latest,omitempty"`
}

type tagUsage struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

// journalOverview is meant to be called once at the start of a conversation
// so the model knows what the journal holds.
func (t *Tools) journalOverview() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_journal_overview",
		mcp.WithDescription("Summarises the journal: entry counts, mood totals, tags with usage and categories. Call this first."),
	)
	return tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := t.svc.Entries.GetAll(ctx)
		if err != nil {
			return toolError("build overview", err), nil
		}
		trash, err := t.svc.Entries.GetDeleted(ctx)
		if err != nil {
			return toolError("build overview", err), nil
		}
		tags, err := t.svc.Tags.GetAll(ctx)
		if err != nil {
			return toolError("build overview", err), nil
		}
		categories, err := t.svc.Categories.GetAll(ctx)
		if err != nil {
			return toolError("build overview", err), nil
		}

		o := overview{
			Entries:    len(entries),
			Trash:      len(trash),
			Moods:      map[journal.Mood]int{},
			Tags:       make([]tagUsage, 0, len(tags)),
			Categories: make([]string, 0, len(categories)),
		}
		for _, e := range entries {
			if e.Mood != "" {
				o.Moods[e.Mood]++
			}
		}
		for _, tag := range tags {
			n, err := t.svc.Tags.GetEntryCountForTag(ctx, tag.ID)
			if err != nil {
				return toolError("build overview", err), nil
			}
			o.Tags = append(o.Tags, tagUsage{Name: tag.Name, Entries: n})
		}
		for _, c := range categories {
			o.Categories = append(o.Categories, c.Name)
		}
		if len(entries) > 0 {
			o.Latest = &entries[0]
		}
		return jsonResult(o)
	}
}
