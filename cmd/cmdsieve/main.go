package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/atinylittleshell/cmdsieve/internal/core"
	"github.com/atinylittleshell/cmdsieve/internal/settings"
	"github.com/atinylittleshell/cmdsieve/internal/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var BUILD_VERSION = "dev"

// exitCodeError carries a command's exit code out of cobra so main can exit
// with it.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func main() {
	state := &app{}
	root := newRootCommand(state)

	err := root.Execute()
	state.close()

	var exitCode exitCodeError
	if errors.As(err, &exitCode) {
		os.Exit(int(exitCode))
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCommand(state *app) *cobra.Command {
	v := settings.New()

	root := &cobra.Command{
		Use:   "cmdsieve",
		Short: "Run shell commands and keep only the output that matters",
		Long: `cmdsieve runs a shell command and reduces its output with a named template:
lines matching the template's pattern are kept together with the last few
paragraphs, duplicates are dropped, and the output of successful commands
can be replaced with a short notice.

Projects define their own templates in .cmdsieve/config.yaml, found by
searching upward from the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.init(v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Duration("cache-ttl", 0, "how long loaded templates are reused (default 1m0s)")
	flags.Bool("history", true, "record executions in the history database")
	flags.String("config-file", "", "project-relative template config path (default .cmdsieve/config.yaml)")

	bindFlag(v, settings.KeyLogLevel, root, "log-level")
	bindFlag(v, settings.KeyCacheTTL, root, "cache-ttl")
	bindFlag(v, settings.KeyHistory, root, "history")
	bindFlag(v, settings.KeyConfigFile, root, "config-file")

	root.AddCommand(
		newRunCommand(state),
		newServeCommand(state),
		newTemplatesCommand(state),
		newHistoryCommand(state),
		newVersionCommand(),
	)

	return root
}

// bindFlag binds a persistent flag to a viper key. Flags only take
// precedence over environment variables and defaults when they are set.
func bindFlag(v *viper.Viper, key string, root *cobra.Command, name string) {
	if err := v.BindPFlag(key, root.PersistentFlags().Lookup(name)); err != nil {
		panic(err)
	}
}

func initializeLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	if BUILD_VERSION == "dev" {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	// Logs only go to file: stdout carries protocol data in serve mode and
	// command output in run mode.
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = level
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}
	loggerConfig.ErrorOutputPaths = []string{
		core.LogFile(),
	}

	return loggerConfig.Build()
}
