package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	daybook "github.com/unowned-ai/daybook/pkg"
	"github.com/unowned-ai/daybook/pkg/config"
	pkgdb "github.com/unowned-ai/daybook/pkg/db"
	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/logging"
	"github.com/unowned-ai/daybook/pkg/utils"
)

var (
	configFile   string
	outputFormat string

	cfg    *config.Config
	logger logging.Logger = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:           "daybook",
	Short:         "A local journal with tags, categories, moods and full-text search.",
	Version:       fmt.Sprintf("v%s", daybook.Version),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(config.Source{File: configFile, Flags: cmd.Flags()})
		if err != nil {
			return err
		}
		cfg = loaded

		// Logs go to stderr; stdout carries command output and the MCP stream.
		l, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		logger = l

		switch outputFormat {
		case "text", "json", "yaml":
			return nil
		default:
			return fmt.Errorf("unknown output format %q (want text, json or yaml)", outputFormat)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for daybook.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(daybook completion bash)

  Zsh:
    $ daybook completion zsh > "${fpath[1]}/_daybook"

  Fish:
    $ daybook completion fish > ~/.config/fish/completions/daybook.fish

  PowerShell:
    PS> daybook completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of daybook",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), daybook.Version)
	},
}

// openManager resolves the database path and runs migrations.
func openManager(ctx context.Context) (*pkgdb.Manager, error) {
	path, err := utils.ResolveAndEnsureDBPath(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	mgr := pkgdb.NewManager(pkgdb.Options{
		Driver: cfg.DB.Driver,
		Path:   path,
		WAL:    cfg.DB.WAL,
		Sync:   cfg.DB.Sync,
	}, logger)
	if err := mgr.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	return mgr, nil
}

// openServices opens the database and builds the journal services over it.
// Callers must Close the returned manager.
func openServices(ctx context.Context, opts ...journal.Option) (*journal.Services, *pkgdb.Manager, error) {
	mgr, err := openManager(ctx)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]journal.Option{journal.WithLogger(logger)}, opts...)
	return journal.NewServices(mgr, opts...), mgr, nil
}

func initCmd() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to a YAML config file (default: <user config dir>/daybook/config.yaml)")
	pf.String("db", "", "Path to the database file (default: system-specific location)")
	pf.String("driver", pkgdb.DriverModernc, "SQLite driver: sqlite (pure Go) or sqlite3 (cgo)")
	pf.Bool("wal", true, "Enable SQLite WAL (Write-Ahead Logging) mode")
	pf.String("sync", "FULL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text or json")
	pf.StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json or yaml")

	initDBCmd()
	initEntriesCmd()
	initTrashCmd()
	initTagsCmd()
	initCategoriesCmd()
	initSearchCmd()
	initServeCmd()
	initMCPCmd()
	initConfigCmd()

	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, entriesCmd, trashCmd, tagsCmd, categoriesCmd,
		searchCmd, calendarCmd, serveCmd, mcpCmd, configCmd)
}

func main() {
	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
