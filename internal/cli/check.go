package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/zackees/codeup/internal/config"
	"github.com/zackees/codeup/internal/git"
	"github.com/zackees/codeup/internal/proc"
	"github.com/zackees/codeup/internal/watchdog"
)

// checkLineTimeout is the liveness budget for lint/test scripts: if a
// script produces no output for this long it is killed.
const checkLineTimeout = 300 * time.Second

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	NoLint bool
	NoTest bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the repository's ./lint and ./test scripts under supervision",
		Long: `Run the repository's ./lint and ./test scripts, when present, through
the process supervisor: output streams live, silence beyond the liveness
budget kills the script, and the watchdog guards the whole run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoLint, "no-lint", false, "skip ./lint")
	cmd.Flags().BoolVar(&opts.NoTest, "no-test", false, "skip ./test")

	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command) error {
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
	quiet := opts.Quiet || cfg.Quiet

	log := slog.Default()
	clock := proc.NewActivityClock(time.Now())
	board := proc.NewStatusBoard()
	runner := proc.NewRunner(clock, board, cmd.OutOrStdout(), log)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	monitor := watchdog.New(clock, board, cmd.ErrOrStderr(), log,
		watchdog.WithThresholds(cfg.Watchdog.Interval.Std(), cfg.Watchdog.SoftLimit.Std(), cfg.Watchdog.HardLimit.Std()))
	go monitor.Run(ctx)

	scripts := []struct {
		phase string
		path  string
		skip  bool
	}{
		{"LINT", "./lint", opts.NoLint},
		{"TEST", "./test", opts.NoTest},
	}

	for _, script := range scripts {
		if script.skip {
			continue
		}
		if _, err := os.Stat(filepath.Clean(script.path)); err != nil {
			log.Debug("script not present, skipping", "script", script.path)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Running: %s\n", script.path)
		args := []string{script.path}
		if opts.Verbose {
			args = append(args, "--verbose")
		}
		res, err := runner.Run(ctx, proc.Spec{
			Args:        args,
			Phase:       script.phase,
			Quiet:       quiet,
			LineTimeout: checkLineTimeout,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return NewExitError(ExitInterrupted, "interrupted by user")
			}
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to run %s", script.path), err)
		}
		if res.ExitCode != 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%s failed with exit code %d", script.path, res.ExitCode))
		}
	}
	return nil
}
