package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgdb "github.com/unowned-ai/daybook/pkg/db"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the daybook database",
	Long:  `Provides commands for managing the daybook SQLite database, including schema upgrades and search index maintenance.`,
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the database schema to the latest version",
	Long: `Opens the SQLite database at the configured path and applies any pending
schema migrations for the journaldb component. A missing database is created
and initialized with the latest schema and the default categories.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "Upgrading database at: %s (WAL: %t, Sync: %s)\n", cfg.DB.Path, cfg.DB.WAL, cfg.DB.Sync)

		mgr, err := openManager(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Schema is at version %d.\n", pkgdb.TargetSchemaVersion)
		return nil
	},
}

var dbReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the full-text search index from the entries table",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		if err := mgr.RebuildSearchIndex(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Search index rebuilt.")
		return nil
	},
}

type dbInfo struct {
	Path          string `json:"path"`
	Driver        string `json:"driver"`
	SchemaVersion int64  `json:"schema_version"`
	SearchIndex   bool   `json:"search_index"`
	Entries       int    `json:"entries"`
	Trash         int    `json:"trash"`
	Tags          int    `json:"tags"`
	Categories    int    `json:"categories"`
}

var dbInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show database location, schema version and row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, mgr, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer mgr.Close()

		conn, err := mgr.DB()
		if err != nil {
			return err
		}
		version, err := pkgdb.GetComponentSchemaVersion(ctx, conn, pkgdb.JournalDBComponent)
		if err != nil {
			return err
		}

		info := dbInfo{
			Path:          mgr.Path(),
			Driver:        cfg.DB.Driver,
			SchemaVersion: version,
			SearchIndex:   mgr.SearchIndexAvailable(),
		}
		entries, err := svc.Entries.GetAll(ctx)
		if err != nil {
			return err
		}
		trash, err := svc.Entries.GetDeleted(ctx)
		if err != nil {
			return err
		}
		tags, err := svc.Tags.GetAll(ctx)
		if err != nil {
			return err
		}
		categories, err := svc.Categories.GetAll(ctx)
		if err != nil {
			return err
		}
		info.Entries, info.Trash, info.Tags, info.Categories = len(entries), len(trash), len(tags), len(categories)

		out := cmd.OutOrStdout()
		if ok, err := render(out, info); ok {
			return err
		}
		fmt.Fprintf(out, "Path:           %s\n", info.Path)
		fmt.Fprintf(out, "Driver:         %s\n", info.Driver)
		fmt.Fprintf(out, "Schema Version: %d\n", info.SchemaVersion)
		fmt.Fprintf(out, "Search Index:   %t\n", info.SearchIndex)
		fmt.Fprintf(out, "Entries:        %d\n", info.Entries)
		fmt.Fprintf(out, "Trash:          %d\n", info.Trash)
		fmt.Fprintf(out, "Tags:           %d\n", info.Tags)
		fmt.Fprintf(out, "Categories:     %d\n", info.Categories)
		return nil
	},
}

func initDBCmd() {
	dbCmd.AddCommand(dbUpgradeCmd, dbReindexCmd, dbInfoCmd)
}
