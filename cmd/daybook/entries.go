package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/stores"
)

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Aliases: []string{"entry"},
	Short:   "Manage journal entries",
	Long:    `Create, list, update, delete and restore journal entries.`,
}

var listEntriesCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries, newest first",
	Long: `List live entries, newest first. Filters are combined:
--tag takes a tag name, --category a category name or id, --from and --to
take YYYY-MM-DD dates in local time (both inclusive).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tagName, _ := cmd.Flags().GetString("tag")
		mood, _ := cmd.Flags().GetString("mood")
		category, _ := cmd.Flags().GetString("category")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		svc, mgr, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer mgr.Close()

		var f stores.EntryFilter
		if tagName != "" {
			ids, err := resolveTagIDs(ctx, svc, []string{tagName}, false)
			if err != nil {
				return err
			}
			f.TagID = ids[0]
		}
		if mood != "" {
			if f.Mood, err = journal.ParseMood(mood); err != nil {
				return err
			}
		}
		if f.CategoryID, err = resolveCategoryID(ctx, svc, category); err != nil {
			return err
		}

		st := stores.New(svc, stores.WithLogger(logger))
		entries, err := st.Entries.Filtered(ctx, f)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if from != "" || to != "" {
			entries, err = filterByDay(entries, from, to)
			if err != nil {
				return err
			}
		}
		return printEntries(cmd.OutOrStdout(), entries)
	},
}

func filterByDay(entries []journal.Entry, from, to string) ([]journal.Entry, error) {
	var lo, hi *time.Time
	var err error
	if from != "" {
		if lo, err = parseDay(from, false); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if hi, err = parseDay(to, true); err != nil {
			return nil, err
		}
	}
	out := make([]journal.Entry, 0, len(entries))
	for _, e := range entries {
		if lo != nil && e.CreatedAt.Before(*lo) {
			continue
		}
		if hi != nil && e.CreatedAt.After(*hi) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

var getEntryCmd = &cobra.Command{
	Use:   "get <entry-id>",
	Short: "Show a single entry, including one in the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		e, err := svc.Entries.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printEntry(cmd.OutOrStdout(), e)
	},
}

var createEntryCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new entry",
	Long: `Create a new entry. The title defaults to the first line of the content.
Pass --content - to read the content from stdin. Tags that do not exist yet are created.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		title, _ := cmd.Flags().GetString("title")
		content, _ := cmd.Flags().GetString("content")
		mood, _ := cmd.Flags().GetString("mood")
		category, _ := cmd.Flags().GetString("category")
		tags, _ := cmd.Flags().GetString("tags")

		content, err := readContent(content, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if content == "" {
			return errors.New("entry content is required")
		}

		svc, mgr, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer mgr.Close()

		in := journal.NewEntry{Title: title, Content: content}
		if mood != "" {
			if in.Mood, err = journal.ParseMood(mood); err != nil {
				return err
			}
		}
		if in.CategoryID, err = resolveCategoryID(ctx, svc, category); err != nil {
			return err
		}
		if in.TagIDs, err = resolveTagIDs(ctx, svc, splitTags(tags), true); err != nil {
			return err
		}

		e, err := svc.Entries.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}
		return printEntry(cmd.OutOrStdout(), e)
	},
}

var updateEntryCmd = &cobra.Command{
	Use:   "update <entry-id>",
	Short: "Update an entry's fields",
	Long: `Update the fields given on the command line and leave the rest alone.
An empty --mood or --category clears the value; --tags replaces the whole tag set
and an empty --tags removes every tag.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		svc, mgr, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer mgr.Close()

		var p journal.EntryPatch
		if flags.Changed("title") {
			title, _ := flags.GetString("title")
			p.Title = &title
		}
		if flags.Changed("content") {
			raw, _ := flags.GetString("content")
			content, err := readContent(raw, cmd.InOrStdin())
			if err != nil {
				return err
			}
			p.Content = &content
		}
		if flags.Changed("mood") {
			raw, _ := flags.GetString("mood")
			var mood journal.Mood
			if raw != "" {
				if mood, err = journal.ParseMood(raw); err != nil {
					return err
				}
			}
			p.Mood = &mood
		}
		if flags.Changed("category") {
			raw, _ := flags.GetString("category")
			id, err := resolveCategoryID(ctx, svc, raw)
			if err != nil {
				return err
			}
			p.CategoryID = &id
		}
		if flags.Changed("tags") {
			raw, _ := flags.GetString("tags")
			ids, err := resolveTagIDs(ctx, svc, splitTags(raw), true)
			if err != nil {
				return err
			}
			p.TagIDs = &ids
		}
		if p == (journal.EntryPatch{}) {
			return errors.New("nothing to update: pass at least one of --title, --content, --mood, --category or --tags")
		}

		e, err := svc.Entries.Update(ctx, args[0], p)
		if err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}
		return printEntry(cmd.OutOrStdout(), e)
	},
}

var deleteEntryCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Move an entry to the trash, or delete it for good with --permanent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		permanent, _ := cmd.Flags().GetBool("permanent")

		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		if permanent {
			if err := svc.Entries.PermanentDelete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s permanently deleted.\n", args[0])
			return nil
		}
		if err := svc.Entries.SoftDelete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Entry %s moved to trash. It will be purged after %d days.\n", args[0], cfg.Retention.Days)
		return nil
	},
}

var restoreEntryCmd = &cobra.Command{
	Use:   "restore <entry-id>",
	Short: "Restore an entry from the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		if err := svc.Entries.Restore(cmd.Context(), args[0]); err != nil {
			return err
		}
		e, err := svc.Entries.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printEntry(cmd.OutOrStdout(), e)
	},
}

func initEntriesCmd() {
	listEntriesCmd.Flags().String("tag", "", "Only entries with this tag name")
	listEntriesCmd.Flags().String("mood", "", "Only entries with this mood")
	listEntriesCmd.Flags().String("category", "", "Only entries in this category (name or id)")
	listEntriesCmd.Flags().String("from", "", "Only entries created on or after this day (YYYY-MM-DD)")
	listEntriesCmd.Flags().String("to", "", "Only entries created on or before this day (YYYY-MM-DD)")

	for _, c := range []*cobra.Command{createEntryCmd, updateEntryCmd} {
		c.Flags().String("title", "", "Entry title (defaults to the first line of the content)")
		c.Flags().String("content", "", "Entry content, or - to read stdin")
		c.Flags().String("mood", "", "Mood: great, good, okay, bad or terrible")
		c.Flags().String("category", "", "Category name or id")
		c.Flags().String("tags", "", "Comma-separated tag names")
	}

	deleteEntryCmd.Flags().Bool("permanent", false, "Delete immediately instead of moving to the trash")

	entriesCmd.AddCommand(listEntriesCmd, getEntryCmd, createEntryCmd, updateEntryCmd, deleteEntryCmd, restoreEntryCmd)
}
