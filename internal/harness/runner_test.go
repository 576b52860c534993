package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"diagsnap/internal/cache"
	"diagsnap/internal/compare"
)

// fakeCompiler is a stub compiler: it prints the ".actual" file sitting
// next to the input source to stderr and exits 1, like a compiler that
// found errors.
const fakeCompiler = `#!/bin/sh
base="${1%.rs}"
cat "$base.actual" >&2
exit 1
`

type suite struct {
	root   string
	script string
}

func newSuite(t *testing.T) *suite {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "fakecc.sh")
	if err := os.WriteFile(script, []byte(fakeCompiler), 0o755); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(dir, "ui")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	return &suite{root: root, script: script}
}

// addTest writes a source file, the canned compiler output, and (when
// snapshot is non-empty) the golden snapshot.
func (s *suite) addTest(t *testing.T, name, actual, snapshot string) {
	t.Helper()
	base := filepath.Join(s.root, name)
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(base+".rs", []byte("fn main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(base+".actual", []byte(actual), 0o644); err != nil {
		t.Fatal(err)
	}
	if snapshot != "" {
		if err := os.WriteFile(base+".stderr", []byte(snapshot), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func (s *suite) runner() *Runner {
	return &Runner{
		Command: "/bin/sh",
		Args:    []string{s.script, "{input}"},
		Mode:    compare.ModeExact,
		Jobs:    2,
	}
}

func (s *suite) discover(t *testing.T) []Test {
	t.Helper()
	tests, err := Discover([]string{s.root}, ".rs", ".stderr")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	return tests
}

func TestRunPassFailNew(t *testing.T) {
	s := newSuite(t)
	s.addTest(t, "pass_case", "error: boom\n", "error: boom\n")
	s.addTest(t, "fail_case", "error: boom\n", "error: bang\n")
	s.addTest(t, "new_case", "error: fresh\n", "")

	results, err := s.runner().Run(context.Background(), s.discover(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Test.Name] = r
	}

	if got := byName["pass_case"].Outcome; got != OutcomePass {
		t.Errorf("pass_case = %s", got)
	}
	fail := byName["fail_case"]
	if fail.Outcome != OutcomeFail {
		t.Errorf("fail_case = %s", fail.Outcome)
	}
	if !strings.Contains(fail.Diff, "-error: bang") || !strings.Contains(fail.Diff, "+error: boom") {
		t.Errorf("fail_case diff missing lines:\n%s", fail.Diff)
	}
	if got := byName["new_case"].Outcome; got != OutcomeNew {
		t.Errorf("new_case = %s", got)
	}

	sum := Summarize(results)
	if sum.Passed != 1 || sum.Failed != 1 || sum.New != 1 {
		t.Errorf("summary = %s", sum)
	}
	if sum.Ok() {
		t.Error("summary with failures must not be Ok")
	}
}

func TestRunNormalizedDirSubstitution(t *testing.T) {
	s := newSuite(t)
	// The canned output carries a real path; the snapshot records $DIR.
	s.addTest(t, "paths", "error: x\n  --> "+s.root+"/paths.rs:1:1\n",
		"error: x\n  --> $DIR/paths.rs:1:1\n")

	r := s.runner()
	r.Mode = compare.ModeNormalized

	results, err := r.Run(context.Background(), s.discover(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Outcome != OutcomePass {
		t.Errorf("normalized run = %s, diff:\n%s", results[0].Outcome, results[0].Diff)
	}
}

func TestRunUsesCache(t *testing.T) {
	s := newSuite(t)
	s.addTest(t, "cached", "error: same\n", "error: same\n")

	c, err := cache.OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := s.runner()
	r.Cache = c

	first, err := r.Run(context.Background(), s.discover(t))
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Outcome != OutcomePass {
		t.Fatalf("first run = %s", first[0].Outcome)
	}

	second, err := r.Run(context.Background(), s.discover(t))
	if err != nil {
		t.Fatal(err)
	}
	if second[0].Outcome != OutcomeCached {
		t.Errorf("second run = %s, want cached", second[0].Outcome)
	}
}

func TestRunEmitsEvents(t *testing.T) {
	s := newSuite(t)
	s.addTest(t, "events", "error: e\n", "error: e\n")

	events := make(chan Event, 16)
	r := s.runner()
	r.Events = events

	if _, err := r.Run(context.Background(), s.discover(t)); err != nil {
		t.Fatal(err)
	}
	close(events)

	var statuses []string
	for ev := range events {
		statuses = append(statuses, ev.Status)
	}
	if len(statuses) < 2 || statuses[0] != "running" || statuses[len(statuses)-1] != "pass" {
		t.Errorf("unexpected event sequence %v", statuses)
	}
}

func TestBlessWritesSnapshot(t *testing.T) {
	s := newSuite(t)
	s.addTest(t, "blessme", "error: y\n  --> "+s.root+"/blessme.rs:2:5\n", "")

	r := s.runner()
	r.Mode = compare.ModeNormalized

	results, err := r.Run(context.Background(), s.discover(t))
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Outcome != OutcomeNew {
		t.Fatalf("outcome = %s, want new", results[0].Outcome)
	}

	n, err := BlessAll(results, false, false)
	if err != nil {
		t.Fatalf("BlessAll: %v", err)
	}
	if n != 1 {
		t.Fatalf("blessed = %d, want 1", n)
	}

	data, err := os.ReadFile(filepath.Join(s.root, "blessme.stderr"))
	if err != nil {
		t.Fatalf("read blessed snapshot: %v", err)
	}
	want := "error: y\n  --> $DIR/blessme.rs:2:5\n"
	if string(data) != want {
		t.Errorf("blessed content = %q, want %q", data, want)
	}

	// The blessed snapshot must now pass.
	again, err := r.Run(context.Background(), s.discover(t))
	if err != nil {
		t.Fatal(err)
	}
	if again[0].Outcome != OutcomePass {
		t.Errorf("post-bless run = %s, diff:\n%s", again[0].Outcome, again[0].Diff)
	}
}

func TestBlessRefusesErrored(t *testing.T) {
	err := Bless(Result{
		Test:    Test{Name: "broken"},
		Outcome: OutcomeError,
		Err:     context.DeadlineExceeded,
	}, false)
	if err == nil {
		t.Fatal("expected Bless to refuse errored results")
	}
}

func TestRunnerRequiresCommand(t *testing.T) {
	r := &Runner{}
	if _, err := r.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing command")
	}
}
