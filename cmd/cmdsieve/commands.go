package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/atinylittleshell/cmdsieve/internal/mcpserver"
	"github.com/atinylittleshell/cmdsieve/internal/render"
	"github.com/atinylittleshell/cmdsieve/internal/sieve"
	"github.com/atinylittleshell/cmdsieve/internal/templates"
	json "github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/syntax"
)

func newRunCommand(state *app) *cobra.Command {
	var (
		templateName string
		noSuppress   bool
		outputFile   string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command...>",
		Short: "Run a command once and print its filtered output",
		Example: `  cmdsieve run -t go_test -- go test ./...
  cmdsieve run --no-suppress -o ./logs -- make build
  cmdsieve run -t errors -- 'npm test 2>&1 | tee test.log'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := commandLine(args)
			if err != nil {
				return err
			}
			req := sieve.Request{
				Command:    command,
				Template:   templateName,
				OutputFile: outputFile,
			}
			if noSuppress {
				suppress := false
				req.SuppressOutputOnSuccess = &suppress
			}

			resp, err := state.service.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd, resp); err != nil {
					return err
				}
			} else {
				writeOutput(cmd, resp.Output)
				render.NewTerminalRenderer(cmd.ErrOrStderr()).RunSummary(resp)
			}

			if resp.ExitCode != 0 {
				return exitCodeError(resp.ExitCode)
			}
			return nil
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&templateName, "template", "t", "", "template used to filter the output")
	cmd.Flags().BoolVar(&noSuppress, "no-suppress", false, "print output even when the command succeeds")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "file or directory to save the raw output to")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the structured response as JSON")

	return cmd
}

func newServeCommand(state *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cmdsieve tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if watch {
				watcher, err := templates.NewWatcher(state.templates, state.logger)
				if err != nil {
					state.logger.Warn("template watcher unavailable", zap.Error(err))
				} else {
					if err := watcher.Start(ctx); err != nil {
						state.logger.Warn("template watcher failed to start", zap.Error(err))
					}
					defer watcher.Stop()
				}
			}

			server := mcpserver.New(state.service, state.logger, BUILD_VERSION)
			err := server.Run(ctx, &mcp.StdioTransport{})
			if err != nil && ctx.Err() == nil {
				state.logger.Error("mcp server stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", true, "reload templates as soon as the config file changes")

	return cmd
}

func newTemplatesCommand(state *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the available output templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := state.service.ListTemplates()
			if asJSON {
				return writeJSON(cmd, infos)
			}
			render.NewTerminalRenderer(cmd.OutOrStdout()).Templates(infos, state.templates.ConfigPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print templates as JSON")

	return cmd
}

func newHistoryCommand(state *app) *cobra.Command {
	var (
		limit    int
		search   string
		allDirs  bool
		reset    bool
		showRun  string
		deleteID uint
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			historyManager, err := state.requireHistory()
			if err != nil {
				return err
			}

			if reset {
				return historyManager.ResetHistory()
			}

			renderer := render.NewTerminalRenderer(cmd.OutOrStdout())

			if showRun != "" {
				entry, err := historyManager.GetEntryByRunID(showRun)
				if err != nil {
					return err
				}
				renderer.Entry(entry)
				return nil
			}

			if cmd.Flags().Changed("delete") {
				if err := historyManager.DeleteEntry(deleteID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted history entry %d\n", deleteID)
				return nil
			}

			if search != "" {
				entries, err := historyManager.SearchHistory(search, limit)
				if err != nil {
					return err
				}
				renderer.History(entries)
				return nil
			}

			directory := ""
			if !allDirs {
				directory, _ = os.Getwd()
			}
			entries, err := historyManager.GetRecentEntries(directory, limit)
			if err != nil {
				return err
			}
			renderer.History(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries to show")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show commands containing this text")
	cmd.Flags().BoolVarP(&allDirs, "all", "a", false, "include commands run in other directories")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete all history entries")
	cmd.Flags().StringVar(&showRun, "show", "", "show every recorded detail of the entry with this run id")
	cmd.Flags().UintVar(&deleteID, "delete", 0, "delete the entry with this id")
	cmd.MarkFlagsMutuallyExclusive("reset", "show", "delete", "search")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), BUILD_VERSION)
		},
	}
}

// commandLine turns run's arguments into a shell command. A single argument
// is taken as a shell command as-is; several arguments are treated as argv
// and quoted so that each reaches the program unchanged.
func commandLine(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("cannot quote argument %q: %w", arg, err)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " "), nil
}

// writeOutput prints output terminated by a newline.
func writeOutput(cmd *cobra.Command, output string) {
	if output == "" {
		return
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	if !strings.HasSuffix(output, "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}
}

func writeJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
