// Package cli wires the codeup commands together.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// logFileName receives a copy of the structured log when --log is set.
const logFileName = "codeup.log"

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose       bool
	Quiet         bool
	Log           bool
	NoPush        bool
	NoRebase      bool
	NoInteractive bool
}

// NewRootCommand creates the root command for the codeup CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "codeup",
		Short:         "Safely synchronize a working branch with its upstream",
		Long:          "codeup captures a rollback point, fetches, rebases, verifies the result,\nand pushes, rolling the repository back automatically when anything fails.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(opts)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress streamed command output")
	cmd.PersistentFlags().BoolVar(&opts.Log, "log", false, "also write the structured log to "+logFileName)
	cmd.PersistentFlags().BoolVar(&opts.NoPush, "no-push", false, "skip the push phase")
	cmd.PersistentFlags().BoolVar(&opts.NoRebase, "no-rebase", false, "skip synchronization entirely")
	cmd.PersistentFlags().BoolVar(&opts.NoInteractive, "no-interactive", false, "never prompt; report instead of asking")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// configureLogging installs the default slog handler: text to stderr,
// optionally teed into the log file.
func configureLogging(opts *RootOptions) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if opts.Log {
		f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w = io.MultiWriter(os.Stderr, f)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}
