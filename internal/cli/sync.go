package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zackees/codeup/internal/config"
	"github.com/zackees/codeup/internal/engine"
	"github.com/zackees/codeup/internal/git"
	"github.com/zackees/codeup/internal/journal"
	"github.com/zackees/codeup/internal/proc"
	"github.com/zackees/codeup/internal/watchdog"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	JournalPath string
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync [branch]",
		Short: "Rebase the current branch onto its upstream and push",
		Long: `Safely synchronize the working branch with its upstream.

A rollback point is captured before anything mutates. If the rebase hits
conflicts or fails, the repository is restored to the captured state and
manual recovery commands are printed.

The optional branch argument overrides the rebase target; without it the
branch's configured upstream is used, falling back to the detected primary
branch.

Example:
  codeup sync
  codeup sync origin/main --no-push`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hint := ""
			if len(args) == 1 {
				hint = args[0]
			}
			return runSync(opts, hint, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.JournalPath, "journal", "", "path to the attempt journal database")

	return cmd
}

func runSync(opts *SyncOptions, targetHint string, cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot determine working directory", err)
	}
	repo := git.FindRepository(cwd)
	if repo == "" {
		return NewExitError(ExitCommandError, "not inside a git repository")
	}

	cfg, err := config.Discover(repo)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	// Flags override config.
	quiet := opts.Quiet || cfg.Quiet
	noPush := opts.NoPush || cfg.NoPush
	noRebase := opts.NoRebase || cfg.NoRebase
	noInteractive := opts.NoInteractive || cfg.NoInteractive

	log := slog.Default()
	clock := proc.NewActivityClock(time.Now())
	board := proc.NewStatusBoard()
	runner := proc.NewRunner(clock, board, cmd.OutOrStdout(), log)

	// Cancellation propagates through every blocking point so rollback
	// gets a chance to run before the process exits.
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, cancelling", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	monitor := watchdog.New(clock, board, cmd.ErrOrStderr(), log,
		watchdog.WithThresholds(cfg.Watchdog.Interval.Std(), cfg.Watchdog.SoftLimit.Std(), cfg.Watchdog.HardLimit.Std()))
	go monitor.Run(ctx)

	client := git.NewClient(runnerWithDefaults(runner, quiet, cfg.LineTimeout.Std()), repo, log)
	backups := git.NewBackupManager(client)
	eng := engine.New(client, backups, git.IsConflictOutput, log)

	branch, err := client.CurrentBranch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return NewExitError(ExitInterrupted, "interrupted by user")
		}
		return WrapExitError(ExitCommandError, "cannot determine current branch", err)
	}

	target, err := client.ResolveRebaseTarget(ctx, targetHint)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot resolve rebase target", err)
	}

	if !noRebase && !noInteractive && stdinIsTerminal() {
		if !promptYesNo(cmd.InOrStdin(), cmd.OutOrStdout(),
			fmt.Sprintf("Attempt rebase onto %s?", target), true) {
			fmt.Fprintln(cmd.OutOrStdout(), "Skipping sync.")
			return NewExitError(ExitFailure, "sync declined")
		}
	}

	started := time.Now()
	var outcome engine.Outcome
	if noPush {
		if noRebase {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do: both rebase and push are disabled.")
			return nil
		}
		outcome, err = eng.Sync(ctx, targetHint)
	} else {
		outcome, err = eng.SyncAndPush(ctx, engine.PushPlan{TargetHint: targetHint, NoRebase: noRebase})
	}
	finished := time.Now()

	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborting")
			return NewExitError(ExitInterrupted, "interrupted by user")
		}
		return WrapExitError(ExitCommandError, "sync failed", err)
	}

	recordAttempt(ctx, opts.JournalPath, cfg, log, branch, target, started, finished, outcome)
	printOutcome(cmd, target, outcome)

	if !outcome.Success {
		return NewExitError(ExitFailure, outcome.ErrorMessage)
	}
	return nil
}

// runnerWithDefaults applies the configured quiet flag and line timeout to
// every spec the git client produces.
func runnerWithDefaults(runner *proc.Runner, quiet bool, lineTimeout time.Duration) git.Runner {
	return specDefaults{runner: runner, quiet: quiet, lineTimeout: lineTimeout}
}

type specDefaults struct {
	runner      *proc.Runner
	quiet       bool
	lineTimeout time.Duration
}

func (d specDefaults) Run(ctx context.Context, spec proc.Spec) (proc.Result, error) {
	if d.quiet {
		spec.Quiet = true
	}
	if spec.LineTimeout == 0 {
		spec.LineTimeout = d.lineTimeout
	}
	return d.runner.Run(ctx, spec)
}

// journalPath resolves where the attempt journal lives: the --journal flag
// wins, then the configured journal_path, then the default location.
func journalPath(flagPath string, cfg config.Config) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if cfg.JournalPath != "" {
		return cfg.JournalPath, nil
	}
	return config.DefaultJournalPath()
}

// recordAttempt persists the outcome to the journal. Journal problems are
// logged, never allowed to fail the sync itself.
func recordAttempt(ctx context.Context, flagPath string, cfg config.Config, log *slog.Logger, branch, target string, started, finished time.Time, outcome engine.Outcome) {
	path, err := journalPath(flagPath, cfg)
	if err != nil {
		log.Warn("journal disabled", "error", err)
		return
	}
	store, err := journal.Open(path)
	if err != nil {
		log.Warn("journal disabled", "error", err)
		return
	}
	defer store.Close()

	_, err = store.Record(ctx, journal.Attempt{
		Branch:       branch,
		Target:       target,
		StartedAt:    started,
		FinishedAt:   finished,
		Success:      outcome.Success,
		HadConflicts: outcome.HadConflicts,
		BackupRef:    outcome.BackupRef.String(),
		ErrorMessage: outcome.ErrorMessage,
		Code:         string(outcome.Code),
	})
	if err != nil {
		log.Warn("failed to record attempt", "error", err)
	}
}

// printOutcome renders the terminal outcome for a human.
func printOutcome(cmd *cobra.Command, target string, outcome engine.Outcome) {
	out := cmd.OutOrStdout()
	switch {
	case outcome.Success:
		fmt.Fprintf(out, "Successfully synchronized with %s\n", target)
	case outcome.HadConflicts:
		fmt.Fprintf(out, "Cannot automatically rebase: conflicts detected with %s\n", target)
		if outcome.Code == engine.CodeRollbackFailed {
			fmt.Fprintln(out, "Automatic recovery failed - manual intervention required.")
		} else {
			fmt.Fprintln(out, "The repository was restored to its pre-rebase state.")
		}
	default:
		fmt.Fprintf(out, "Sync failed: %s\n", outcome.ErrorMessage)
	}

	if len(outcome.RecoveryCommands) > 0 {
		fmt.Fprintln(out)
		for _, command := range outcome.RecoveryCommands {
			fmt.Fprintln(out, command)
		}
	}
}
