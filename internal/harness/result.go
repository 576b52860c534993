package harness

import (
	"fmt"
	"time"
)

// Outcome classifies one test after a run.
type Outcome uint8

const (
	// OutcomePass means live output matched the snapshot.
	OutcomePass Outcome = iota
	// OutcomeFail means live output differed from the snapshot.
	OutcomeFail
	// OutcomeNew means no snapshot exists yet; bless creates it.
	OutcomeNew
	// OutcomeError means the test could not be executed at all.
	OutcomeError
	// OutcomeCached means a prior pass was reused from the cache.
	OutcomeCached
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	case OutcomeNew:
		return "new"
	case OutcomeError:
		return "error"
	case OutcomeCached:
		return "cached"
	}
	return "unknown"
}

// Result is the record of one executed test.
type Result struct {
	Test     Test
	Outcome  Outcome
	Duration time.Duration
	// Diff is the rendered mismatch for OutcomeFail.
	Diff string
	// Actual is the captured (raw) stderr; bless writes it back.
	Actual []byte
	// Err carries the execution failure for OutcomeError.
	Err error
}

// Summary aggregates run results.
type Summary struct {
	Passed  int
	Failed  int
	New     int
	Errored int
	Cached  int
}

// Summarize tallies results into a Summary.
func Summarize(results []Result) Summary {
	var s Summary
	for i := range results {
		switch results[i].Outcome {
		case OutcomePass:
			s.Passed++
		case OutcomeFail:
			s.Failed++
		case OutcomeNew:
			s.New++
		case OutcomeError:
			s.Errored++
		case OutcomeCached:
			s.Cached++
		}
	}
	return s
}

// Ok reports whether the run as a whole succeeded.
func (s Summary) Ok() bool {
	return s.Failed == 0 && s.Errored == 0 && s.New == 0
}

func (s Summary) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d new, %d errored, %d cached",
		s.Passed, s.Failed, s.New, s.Errored, s.Cached)
}
