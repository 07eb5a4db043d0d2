package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/daybook/pkg/journal"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage tags",
	Long:  `Tag names are case-insensitive and stored lowercased. Commands accept a tag name or id.`,
}

// lookupTag accepts a tag name or id.
func lookupTag(ctx context.Context, svc *journal.Services, ref string) (journal.Tag, error) {
	t, err := svc.Tags.GetByName(ctx, ref)
	if errors.Is(err, journal.ErrTagNotFound) {
		t, err = svc.Tags.GetByID(ctx, ref)
	}
	return t, err
}

var listTagsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tags alphabetically",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		tags, err := svc.Tags.GetAll(cmd.Context())
		if err != nil {
			return err
		}
		return printTags(cmd.OutOrStdout(), tags)
	},
}

var createTagCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")

		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		t, err := svc.Tags.Create(cmd.Context(), journal.NewTag{Name: args[0], Color: color})
		if err != nil {
			return err
		}
		return printTags(cmd.OutOrStdout(), []journal.Tag{t})
	},
}

var updateTagCmd = &cobra.Command{
	Use:   "update <name-or-id>",
	Short: "Rename or recolor a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var p journal.TagPatch
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			p.Name = &name
		}
		if cmd.Flags().Changed("color") {
			color, _ := cmd.Flags().GetString("color")
			p.Color = &color
		}
		if p == (journal.TagPatch{}) {
			return errors.New("nothing to update: pass --name or --color")
		}

		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		t, err := lookupTag(cmd.Context(), svc, args[0])
		if err != nil {
			return err
		}
		t, err = svc.Tags.Update(cmd.Context(), t.ID, p)
		if err != nil {
			return err
		}
		return printTags(cmd.OutOrStdout(), []journal.Tag{t})
	},
}

var deleteTagCmd = &cobra.Command{
	Use:   "delete <name-or-id>",
	Short: "Delete a tag and remove it from every entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		t, err := lookupTag(cmd.Context(), svc, args[0])
		if err != nil {
			return err
		}
		if err := svc.Tags.Delete(cmd.Context(), t.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Tag %q deleted.\n", t.Name)
		return nil
	},
}

var countTagCmd = &cobra.Command{
	Use:   "count <name-or-id>",
	Short: "Count live entries carrying a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		t, err := lookupTag(cmd.Context(), svc, args[0])
		if err != nil {
			return err
		}
		n, err := svc.Tags.GetEntryCountForTag(cmd.Context(), t.ID)
		if err != nil {
			return err
		}
		if ok, err := render(cmd.OutOrStdout(), map[string]any{"tag": t.Name, "entries": n}); ok {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries\n", t.Name, n)
		return nil
	},
}

func initTagsCmd() {
	createTagCmd.Flags().String("color", "", "Tag color as #RRGGBB (default "+journal.DefaultTagColor+")")
	updateTagCmd.Flags().String("name", "", "New tag name")
	updateTagCmd.Flags().String("color", "", "New tag color")

	tagsCmd.AddCommand(listTagsCmd, createTagCmd, updateTagCmd, deleteTagCmd, countTagCmd)
}
