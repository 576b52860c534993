package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"diagsnap/internal/config"
	"diagsnap/internal/harness"
	"diagsnap/internal/ui"
)

var blessCmd = &cobra.Command{
	Use:   "bless [flags] [root...]",
	Short: "Regenerate snapshots from the compiler's current output",
	Long:  "Run the configured compiler and overwrite failing or missing snapshots with the captured stderr, normalized for storage.",
	RunE:  blessExecution,
}

func init() {
	blessCmd.Flags().String("filter", "", "only bless tests whose name matches the pattern")
	blessCmd.Flags().Bool("only-new", false, "bless only tests with no snapshot yet")
	blessCmd.Flags().Bool("review", false, "review each diff interactively before accepting")
	blessCmd.Flags().Int("jobs", 0, "parallel workers (0 uses all CPUs)")
}

func blessExecution(cmd *cobra.Command, args []string) error {
	if err := applyColorMode(cmd); err != nil {
		return err
	}

	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		return err
	}
	onlyNew, err := cmd.Flags().GetBool("only-new")
	if err != nil {
		return err
	}
	review, err := cmd.Flags().GetBool("review")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	if review && !isTerminal(os.Stdout) {
		return fmt.Errorf("--review needs an interactive terminal")
	}

	cfg, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireCompiler(); err != nil {
		return err
	}
	if jobs == 0 {
		jobs = cfg.Run.Jobs
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bless always reruns the compiler; cached pass results would hide
	// the captured output the new snapshot is built from.
	runner := &harness.Runner{
		Command:         cfg.Compiler.Command,
		Args:            cfg.Compiler.Args,
		Mode:            cfg.Mode(),
		StripTrailingWS: cfg.Compare.StripTrailingWS,
		Jobs:            jobs,
		Timeout:         cfg.Timeout(),
		Logger:          log,
	}

	tests, err := harness.Discover(rootsFromArgs(cfg, args), cfg.Tests.SourceExt, cfg.Tests.FixtureExt)
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

	if review {
		return blessWithReview(cmd, results, cfg)
	}

	blessed, err := harness.BlessAll(results, cfg.Compare.StripTrailingWS, onlyNew)
	if err != nil {
		return err
	}
	reportBlessed(cmd, results, blessed)
	return nil
}

// blessWithReview pages through candidate results and blesses only the
// accepted ones.
func blessWithReview(cmd *cobra.Command, results []harness.Result, cfg *config.Config) error {
	candidates := make([]harness.Result, 0, len(results))
	for i := range results {
		switch results[i].Outcome {
		case harness.OutcomeFail, harness.OutcomeNew:
			candidates = append(candidates, results[i])
		}
	}
	if len(candidates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to bless")
		return nil
	}

	model := ui.NewReviewModel(candidates)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	final, err := program.Run()
	if err != nil {
		return err
	}

	blessed := 0
	for i, decision := range ui.Decisions(final) {
		if decision != ui.ReviewAccept {
			continue
		}
		if err := harness.Bless(candidates[i], cfg.Compare.StripTrailingWS); err != nil {
			return err
		}
		blessed++
	}
	reportBlessed(cmd, results, blessed)
	return nil
}

func reportBlessed(cmd *cobra.Command, results []harness.Result, blessed int) {
	w := cmd.OutOrStdout()
	for i := range results {
		if results[i].Outcome == harness.OutcomeError {
			color.New(color.FgRed).Fprintf(w, "ERR  %s: %v (not blessed)\n", results[i].Test.Name, results[i].Err)
		}
	}
	if blessed == 0 {
		fmt.Fprintln(w, "all snapshots already up to date")
		return
	}
	color.New(color.FgGreen).Fprintf(w, "blessed %d snapshot(s)\n", blessed)
}
