package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"diagsnap/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent snapshot runs and flaky tests",
	RunE:  historyExecution,
}

func init() {
	historyCmd.Flags().Int("limit", 10, "number of recent runs to show")
	historyCmd.Flags().Int("flaky-window", 20, "runs to inspect when looking for flaky tests")
}

func historyExecution(cmd *cobra.Command, args []string) error {
	if err := applyColorMode(cmd); err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	window, err := cmd.Flags().GetInt("flaky-window")
	if err != nil {
		return err
	}

	dir, err := stateDir()
	if err != nil {
		return err
	}
	store, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return nil
	}

	okStyle := color.New(color.FgGreen)
	badStyle := color.New(color.FgRed)
	for _, run := range runs {
		line := fmt.Sprintf("%s  %d passed, %d failed, %d new, %d errored",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Passed, run.Failed, run.New, run.Errored)
		if run.Failed == 0 && run.Errored == 0 && run.New == 0 {
			okStyle.Fprintln(w, line)
		} else {
			badStyle.Fprintln(w, line)
		}
	}

	flaky, err := store.FlakyTests(window)
	if err != nil {
		return err
	}
	if len(flaky) > 0 {
		fmt.Fprintf(w, "\nflaky over the last %d runs:\n", window)
		for _, name := range flaky {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	return nil
}
