package ui

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"diagsnap/internal/harness"
)

// PlainProgress drains harness events into a simple progress bar for
// non-interactive terminals and CI logs. It returns when the events
// channel closes. Events are best-effort and may be dropped under load;
// the trailing Finish snaps the bar to completion regardless.
func PlainProgress(w io.Writer, total int, events <-chan harness.Event) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("running snapshot tests"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	for ev := range events {
		if ev.Status == "running" {
			continue
		}
		// Ignoring the error: a broken progress writer must not stop the run.
		_ = bar.Add(1)
	}
	_ = bar.Finish()
}

// Drain discards harness events; used under --quiet.
func Drain(events <-chan harness.Event) {
	for range events {
	}
}
