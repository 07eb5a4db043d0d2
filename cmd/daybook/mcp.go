package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	mcpserver "github.com/unowned-ai/daybook/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the daybook MCP server over stdio",
	Long: `Starts a Model Context Protocol (MCP) server that exposes the journal's
entries, trash, tags, categories, search and calendar as MCP tools via STDIO.

Example (Server Mode):
  daybook mcp
  daybook mcp --db daybook.db

Example (with the journal overview tool):
  daybook mcp --overview`,
	RunE: func(cmd *cobra.Command, args []string) error {
		overview, _ := cmd.Flags().GetBool("overview")

		svc, mgr, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer mgr.Close()

		tools := mcpserver.NewTools(svc, logger, nil, cfg.Retention.Days, cfg.Search.Limit)
		srv := mcpserver.NewDaybookMCPServer(tools)
		names := srv.RegisterTools(overview)

		// Stdout carries the JSON-RPC stream.
		fmt.Fprintf(os.Stderr, "Daybook MCP server started. DB: %s (WAL: %t, Sync: %s)\n", mgr.Path(), cfg.DB.WAL, cfg.DB.Sync)
		fmt.Fprintf(os.Stderr, "Available tools: %s\n", strings.Join(names, ", "))
		fmt.Fprintln(os.Stderr, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")

		return srv.Start()
	},
}

func initMCPCmd() {
	mcpCmd.Flags().Bool("overview", false, "Also register the get_journal_overview tool")
}
