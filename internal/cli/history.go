package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zackees/codeup/internal/config"
	"github.com/zackees/codeup/internal/git"
	"github.com/zackees/codeup/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	JournalPath string
	Limit       int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync attempts from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.JournalPath, "journal", "", "path to the attempt journal database")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of attempts to show")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot determine working directory", err)
	}
	dir := git.FindRepository(cwd)
	if dir == "" {
		dir = cwd
	}
	cfg, err := config.Discover(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	path, err := journalPath(opts.JournalPath, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot resolve journal path", err)
	}

	store, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot open journal", err)
	}
	defer store.Close()

	attempts, err := store.Recent(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot read journal", err)
	}
	if len(attempts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded attempts.")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, a := range attempts {
		status := "ok"
		switch {
		case a.HadConflicts:
			status = "conflict"
		case !a.Success:
			status = "failed"
		}
		fmt.Fprintf(out, "%s  %-8s  %s -> %s", a.StartedAt.Local().Format(time.DateTime), status, a.Branch, a.Target)
		if a.ErrorMessage != "" {
			fmt.Fprintf(out, "  (%s)", a.ErrorMessage)
		}
		fmt.Fprintln(out)
	}
	return nil
}
