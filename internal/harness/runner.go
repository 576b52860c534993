// Package harness discovers snapshot tests, runs the compiler under
// test against each one, and diffs captured stderr against the golden
// snapshot.
package harness

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"diagsnap/internal/cache"
	"diagsnap/internal/compare"
)

// Event notifies observers (the progress UI) about per-test state.
type Event struct {
	Name   string
	Status string // "running", "pass", "fail", "new", "error", "cached"
}

// Runner executes snapshot tests.
type Runner struct {
	// Command and Args define the compiler invocation; the literal
	// "{input}" in Args expands to the test source path.
	Command string
	Args    []string
	// Toolchain is an opaque version string mixed into cache keys.
	Toolchain string

	Mode            compare.Mode
	StripTrailingWS bool

	// Jobs caps parallel workers; 0 means GOMAXPROCS.
	Jobs int
	// Timeout bounds one compiler invocation; 0 means none.
	Timeout time.Duration

	// Cache may be nil to disable result caching.
	Cache *cache.DiskCache
	// Events may be nil; sends never block the runner.
	Events chan<- Event

	Logger *zap.Logger
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// emit is best-effort: when the events buffer is full the event is
// dropped rather than stalling workers, so observers must not treat the
// stream as a complete record. Results carry the authoritative outcomes.
func (r *Runner) emit(name, status string) {
	if r.Events == nil {
		return
	}
	select {
	case r.Events <- Event{Name: name, Status: status}:
	default:
	}
}

// Run executes all tests, parallel across tests. Result order matches
// test order regardless of scheduling.
func (r *Runner) Run(ctx context.Context, tests []Test) ([]Result, error) {
	if r.Command == "" {
		return nil, errors.New("runner has no compiler command")
	}

	jobs := r.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(tests) {
		jobs = len(tests)
	}
	if jobs < 1 {
		jobs = 1
	}

	results := make([]Result, len(tests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, test := range tests {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = r.runOne(gctx, test)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, test Test) Result {
	log := r.logger().With(zap.String("test", test.Name))
	r.emit(test.Name, "running")

	started := time.Now()
	finish := func(res Result) Result {
		res.Test = test
		res.Duration = time.Since(started)
		r.emit(test.Name, res.Outcome.String())
		return res
	}

	sourceBytes, err := os.ReadFile(test.SourcePath)
	if err != nil {
		log.Warn("read source failed", zap.Error(err))
		return finish(Result{Outcome: OutcomeError, Err: err})
	}

	fixtureBytes, fixtureErr := os.ReadFile(test.FixturePath)
	fixtureMissing := false
	if fixtureErr != nil {
		if !errors.Is(fixtureErr, fs.ErrNotExist) {
			return finish(Result{Outcome: OutcomeError, Err: fixtureErr})
		}
		fixtureMissing = true
	}

	key := cache.Key(sourceBytes, fixtureBytes, r.commandLine(), r.Toolchain)
	if !fixtureMissing && r.Cache != nil {
		var payload cache.Payload
		if hit, err := r.Cache.Get(key, &payload); err == nil && hit && payload.Outcome == "pass" {
			log.Debug("cache hit")
			return finish(Result{Outcome: OutcomeCached})
		}
	}

	actual, err := r.execute(ctx, test)
	if err != nil {
		return finish(Result{Outcome: OutcomeError, Err: err})
	}

	if fixtureMissing {
		log.Info("no snapshot yet")
		return finish(Result{Outcome: OutcomeNew, Actual: actual})
	}

	outcome := r.compareOutputs(fixtureBytes, actual, test)
	if outcome.Match {
		if r.Cache != nil {
			payload := cache.Payload{
				Name:       test.Name,
				Outcome:    "pass",
				DurationMS: time.Since(started).Milliseconds(),
			}
			if err := r.Cache.Put(key, &payload); err != nil {
				log.Warn("cache write failed", zap.Error(err))
			}
		}
		return finish(Result{Outcome: OutcomePass, Actual: actual})
	}

	log.Debug("snapshot mismatch", zap.Int("first_line", outcome.FirstMismatch))
	return finish(Result{Outcome: OutcomeFail, Actual: actual, Diff: outcome.Diff()})
}

func (r *Runner) compareOutputs(expected, actual []byte, test Test) compare.Outcome {
	if r.Mode == compare.ModeNormalized {
		return compare.Normalized(expected, actual, r.rules(test))
	}
	return compare.Bytes(expected, actual)
}

func (r *Runner) rules(test Test) compare.Rules {
	return compare.Rules{Dir: test.Dir, StripTrailingWS: r.StripTrailingWS}
}

// execute runs the compiler once and captures stderr. A non-zero exit
// status is not an error: diagnostics are exactly what snapshots record.
func (r *Runner) execute(ctx context.Context, test Test) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := make([]string, 0, len(r.Args))
	for _, a := range r.Args {
		args = append(args, strings.ReplaceAll(a, "{input}", test.SourcePath))
	}

	cmd := exec.CommandContext(ctx, r.Command, args...)
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return stderr.Bytes(), nil
}

func (r *Runner) commandLine() string {
	return r.Command + " " + strings.Join(r.Args, " ")
}

// ResolveToolchain asks the compiler for its version string, used to
// key the result cache. Failures degrade to an empty string, which
// simply disables cross-version cache reuse.
func ResolveToolchain(ctx context.Context, command string) string {
	if command == "" {
		return ""
	}
	out, err := exec.CommandContext(ctx, command, "--version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line)
}
