package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Inspect and empty the trash",
	Long:  `Deleted entries stay in the trash for the retention period (30 days by default) and can be restored until they are purged.`,
}

var listTrashCmd = &cobra.Command{
	Use:   "list",
	Short: "List trashed entries, most recently deleted first",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		entries, err := svc.Entries.GetDeleted(cmd.Context())
		if err != nil {
			return err
		}
		return printEntries(cmd.OutOrStdout(), entries)
	},
}

var restoreTrashCmd = &cobra.Command{
	Use:   "restore <entry-id>",
	Short: "Restore an entry from the trash",
	Args:  cobra.ExactArgs(1),
	RunE:  restoreEntryCmd.RunE,
}

var purgeTrashCmd = &cobra.Command{
	Use:   "purge",
	Short: "Permanently delete entries trashed longer ago than the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		days := cfg.Retention.Days
		if cmd.Flags().Changed("days") {
			days, _ = cmd.Flags().GetInt("days")
			if days < 0 {
				return errors.New("--days must not be negative")
			}
		}

		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		purged, err := svc.Entries.PurgeOldDeleted(cmd.Context(), days)
		if err != nil {
			return err
		}
		if days == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d entries; the trash is empty.\n", purged)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d entries deleted more than %d days ago.\n", purged, days)
		return nil
	},
}

func initTrashCmd() {
	purgeTrashCmd.Flags().Int("days", 0, "Override the retention period in days (0 empties the whole trash)")
	trashCmd.AddCommand(listTrashCmd, restoreTrashCmd, purgeTrashCmd)
}
