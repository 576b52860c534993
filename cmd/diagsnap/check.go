package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diagsnap/internal/cache"
	"diagsnap/internal/compare"
	"diagsnap/internal/harness"
	"diagsnap/internal/history"
	"diagsnap/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [root...]",
	Short: "Run snapshot tests and diff stderr against blessed files",
	Long:  "Run the configured compiler against every discovered snapshot test and compare its stderr output against the blessed golden file.",
	RunE:  checkExecution,
}

func init() {
	checkCmd.Flags().String("filter", "", "only run tests whose name matches the pattern")
	checkCmd.Flags().Int("jobs", 0, "parallel workers (0 uses all CPUs)")
	checkCmd.Flags().String("mode", "", "comparison mode (exact|normalized), overrides the manifest")
	checkCmd.Flags().Bool("no-cache", false, "disable the pass-result cache")
	checkCmd.Flags().Bool("watch", false, "rerun on source or snapshot changes")
	checkCmd.Flags().Bool("no-history", false, "skip recording the run in the history database")
}

func checkExecution(cmd *cobra.Command, args []string) error {
	if err := applyColorMode(cmd); err != nil {
		return err
	}

	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	modeValue, err := cmd.Flags().GetString("mode")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	cfg, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireCompiler(); err != nil {
		return err
	}

	mode := cfg.Mode()
	if modeValue != "" {
		parsed, ok := compare.ParseMode(modeValue)
		if !ok {
			return fmt.Errorf("unknown comparison mode %q (exact|normalized)", modeValue)
		}
		mode = parsed
	}
	if jobs == 0 {
		jobs = cfg.Run.Jobs
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var resultCache *cache.DiskCache
	if !noCache {
		resultCache, err = cache.Open("diagsnap")
		if err != nil {
			log.Warn("result cache unavailable", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &harness.Runner{
		Command:         cfg.Compiler.Command,
		Args:            cfg.Compiler.Args,
		Toolchain:       harness.ResolveToolchain(ctx, cfg.Compiler.Command),
		Mode:            mode,
		StripTrailingWS: cfg.Compare.StripTrailingWS,
		Jobs:            jobs,
		Timeout:         cfg.Timeout(),
		Cache:           resultCache,
		Logger:          log,
	}

	roots := rootsFromArgs(cfg, args)

	doRun := func() error {
		tests, err := harness.Discover(roots, cfg.Tests.SourceExt, cfg.Tests.FixtureExt)
		if err != nil {
			return err
		}
		tests = harness.FilterByName(tests, filter)
		if len(tests) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no snapshot tests found")
			return nil
		}

		results, err := runWithProgress(ctx, runner, tests, quiet)
		if err != nil {
			return err
		}

		reportResults(cmd.OutOrStdout(), results, quiet)

		if !noHistory {
			if err := recordRun(results); err != nil {
				log.Warn("history write failed", zap.Error(err))
			}
		}

		summary := harness.Summarize(results)
		if !summary.Ok() {
			return fmt.Errorf("snapshot run failed: %s", summary)
		}
		return nil
	}

	if !watch {
		return doRun()
	}

	if err := doRun(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "watching for changes (ctrl-c to stop)")
	return harness.Watch(ctx, roots, log, func(changed []string) {
		for _, p := range changed {
			fmt.Fprintf(cmd.OutOrStdout(), "changed: %s\n", filepath.ToSlash(p))
		}
		if err := doRun(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	})
}

// runWithProgress executes the tests while feeding progress to the
// terminal: the full-screen bubbletea view on a TTY, a plain bar
// otherwise, and nothing at all under --quiet.
func runWithProgress(ctx context.Context, runner *harness.Runner, tests []harness.Test, quiet bool) ([]harness.Result, error) {
	events := make(chan harness.Event, 256)
	runner.Events = events

	type runOutcome struct {
		results []harness.Result
		err     error
	}
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		results, err := runner.Run(ctx, tests)
		outcomeCh <- runOutcome{results: results, err: err}
		close(events)
	}()

	switch {
	case quiet:
		ui.Drain(events)
	case isTerminal(os.Stdout):
		model := ui.NewProgressModel("diagsnap check", tests, events)
		program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
		if _, err := program.Run(); err != nil {
			outcome := <-outcomeCh
			if outcome.err != nil {
				return nil, outcome.err
			}
			return outcome.results, err
		}
	default:
		ui.PlainProgress(os.Stderr, len(tests), events)
	}

	outcome := <-outcomeCh
	return outcome.results, outcome.err
}

// reportResults prints failing diffs and the run summary.
func reportResults(w io.Writer, results []harness.Result, quiet bool) {
	failHeader := color.New(color.FgRed, color.Bold)
	newHeader := color.New(color.FgYellow, color.Bold)
	errHeader := color.New(color.FgRed)

	for i := range results {
		res := &results[i]
		switch res.Outcome {
		case harness.OutcomeFail:
			failHeader.Fprintf(w, "FAIL %s\n", res.Test.Name)
			if !quiet {
				fmt.Fprint(w, res.Diff)
				fmt.Fprintln(w)
			}
		case harness.OutcomeNew:
			newHeader.Fprintf(w, "NEW  %s (no snapshot; run `diagsnap bless --only-new`)\n", res.Test.Name)
		case harness.OutcomeError:
			errHeader.Fprintf(w, "ERR  %s: %v\n", res.Test.Name, res.Err)
		}
	}

	summary := harness.Summarize(results)
	if summary.Ok() {
		color.New(color.FgGreen).Fprintf(w, "ok: %s\n", summary)
	} else {
		fmt.Fprintln(w, summary)
	}
}

// recordRun appends the run to the per-user history database.
func recordRun(results []harness.Result) error {
	dir, err := stateDir()
	if err != nil {
		return err
	}
	store, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	summary := harness.Summarize(results)
	run := history.Run{
		StartedAt: time.Now(),
		Passed:    summary.Passed + summary.Cached,
		Failed:    summary.Failed,
		New:       summary.New,
		Errored:   summary.Errored,
	}
	rows := make([]history.TestResult, 0, len(results))
	for i := range results {
		rows = append(rows, history.TestResult{
			Name:       results[i].Test.Name,
			Outcome:    results[i].Outcome.String(),
			DurationMS: results[i].Duration.Milliseconds(),
		})
	}
	_, err = store.RecordRun(run, rows)
	return err
}
