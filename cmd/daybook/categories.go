package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/daybook/pkg/journal"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category"},
	Short:   "Manage categories",
	Long: `Categories are an ordered list an entry may belong to. Five defaults
(Personal, Work, Book Notes, Travel, Gratitude) are created with a new database.
Commands accept a category name or id.`,
}

var listCategoriesCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories in display order",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		categories, err := svc.Categories.GetAll(cmd.Context())
		if err != nil {
			return err
		}
		return printCategories(cmd.OutOrStdout(), categories)
	},
}

var createCategoryCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a category at the end of the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		icon, _ := cmd.Flags().GetString("icon")
		color, _ := cmd.Flags().GetString("color")

		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		c, err := svc.Categories.Create(cmd.Context(), journal.NewCategory{Name: args[0], Icon: icon, Color: color})
		if err != nil {
			return err
		}
		return printCategories(cmd.OutOrStdout(), []journal.Category{c})
	},
}

var updateCategoryCmd = &cobra.Command{
	Use:   "update <name-or-id>",
	Short: "Rename a category or change its icon or color",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var p journal.CategoryPatch
		if flags.Changed("name") {
			name, _ := flags.GetString("name")
			p.Name = &name
		}
		if flags.Changed("icon") {
			icon, _ := flags.GetString("icon")
			p.Icon = &icon
		}
		if flags.Changed("color") {
			color, _ := flags.GetString("color")
			p.Color = &color
		}
		if p == (journal.CategoryPatch{}) {
			return errors.New("nothing to update: pass --name, --icon or --color")
		}

		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		id, err := resolveCategoryID(cmd.Context(), svc, args[0])
		if err != nil {
			return err
		}
		c, err := svc.Categories.Update(cmd.Context(), id, p)
		if err != nil {
			return err
		}
		return printCategories(cmd.OutOrStdout(), []journal.Category{c})
	},
}

var deleteCategoryCmd = &cobra.Command{
	Use:   "delete <name-or-id>",
	Short: "Delete a category; its entries become uncategorized",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		id, err := resolveCategoryID(cmd.Context(), svc, args[0])
		if err != nil {
			return err
		}
		if err := svc.Categories.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Category %s deleted.\n", id)
		return nil
	},
}

var reorderCategoriesCmd = &cobra.Command{
	Use:   "reorder <name-or-id>...",
	Short: "Set the display order; each category takes its position in the argument list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, mgr, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer mgr.Close()

		ids := make([]string, len(args))
		for i, ref := range args {
			if ids[i], err = resolveCategoryID(ctx, svc, ref); err != nil {
				return err
			}
		}
		if err := svc.Categories.Reorder(ctx, ids); err != nil {
			return err
		}
		categories, err := svc.Categories.GetAll(ctx)
		if err != nil {
			return err
		}
		return printCategories(cmd.OutOrStdout(), categories)
	},
}

func initCategoriesCmd() {
	createCategoryCmd.Flags().String("icon", "", "Icon name")
	createCategoryCmd.Flags().String("color", "", "Color as #RRGGBB (default "+journal.DefaultCategoryColor+")")
	updateCategoryCmd.Flags().String("name", "", "New category name")
	updateCategoryCmd.Flags().String("icon", "", "New icon (empty clears it)")
	updateCategoryCmd.Flags().String("color", "", "New color")

	categoriesCmd.AddCommand(listCategoriesCmd, createCategoryCmd, updateCategoryCmd, deleteCategoryCmd, reorderCategoriesCmd)
}
