package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/unowned-ai/daybook/pkg/journal"
)

const timeLayout = "2006-01-02 15:04"

// render writes v as JSON or YAML. It returns false in text mode so the
// caller prints its own table.
func render(w io.Writer, v any) (bool, error) {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		// Round-trip through JSON so YAML keys match the JSON field names.
		raw, err := json.Marshal(v)
		if err != nil {
			return true, err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return true, err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return true, err
		}
		_, err = w.Write(out)
		return true, err
	default:
		return false, nil
	}
}

func formatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}

func formatTagsList(tags []journal.Tag) string {
	if len(tags) == 0 {
		return "-"
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printEntry(w io.Writer, e journal.Entry) error {
	if ok, err := render(w, e); ok {
		return err
	}

	fmt.Fprintf(w, "ID:           %s\n", e.ID)
	fmt.Fprintf(w, "Title:        %s\n", e.Title)
	fmt.Fprintf(w, "Mood:         %s\n", orDash(string(e.Mood)))
	if e.Category != nil {
		fmt.Fprintf(w, "Category:     %s\n", e.Category.Name)
	}
	fmt.Fprintf(w, "Tags:         %s\n", formatTagsList(e.Tags))
	fmt.Fprintf(w, "Created At:   %s\n", formatTime(e.CreatedAt))
	fmt.Fprintf(w, "Updated At:   %s\n", formatTime(e.UpdatedAt))
	if e.DeletedAt != nil {
		fmt.Fprintf(w, "Deleted At:   %s\n", formatTime(*e.DeletedAt))
	}
	fmt.Fprintf(w, "Sync:         %s (v%d)\n", e.SyncStatus, e.SyncVersion)
	fmt.Fprintln(w, "\nContent:")
	fmt.Fprintln(w, "------------------------------------------------------------")
	fmt.Fprintln(w, e.Content)
	fmt.Fprintln(w, "------------------------------------------------------------")
	return nil
}

func printEntries(w io.Writer, entries []journal.Entry) error {
	if ok, err := render(w, entries); ok {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tMOOD\tCATEGORY\tTITLE\tTAGS")
	for _, e := range entries {
		category := "-"
		if e.Category != nil {
			category = e.Category.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, formatTime(e.CreatedAt), orDash(string(e.Mood)), category, e.Title, formatTagsList(e.Tags))
	}
	return tw.Flush()
}

func printResults(w io.Writer, results []journal.SearchResult) error {
	if ok, err := render(w, results); ok {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s  %s  %s\n", r.ID, formatTime(r.CreatedAt), r.Title)
		fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(r.Snippet, "\n", " "))
	}
	return nil
}

func printTags(w io.Writer, tags []journal.Tag) error {
	if ok, err := render(w, tags); ok {
		return err
	}
	if len(tags) == 0 {
		fmt.Fprintln(w, "No tags found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
	for _, t := range tags {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, t.Color)
	}
	return tw.Flush()
}

func printCategories(w io.Writer, categories []journal.Category) error {
	if ok, err := render(w, categories); ok {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tID\tNAME\tICON\tCOLOR")
	for _, c := range categories {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.SortOrder, c.ID, c.Name, orDash(c.Icon), c.Color)
	}
	return tw.Flush()
}
