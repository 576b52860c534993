package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecentRuns(t *testing.T) {
	s := openStore(t)

	id, err := s.RecordRun(
		Run{Passed: 2, Failed: 1, StartedAt: time.Unix(1000, 0)},
		[]TestResult{
			{Name: "ui/a", Outcome: "pass", DurationMS: 10},
			{Name: "ui/b", Outcome: "pass", DurationMS: 12},
			{Name: "ui/c", Outcome: "fail", DurationMS: 9},
		},
	)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated run id")
	}

	runs, err := s.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	if runs[0].Passed != 2 || runs[0].Failed != 1 {
		t.Errorf("unexpected run totals: %+v", runs[0])
	}
}

func TestRecentRunsOrderingAndLimit(t *testing.T) {
	s := openStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.RecordRun(Run{StartedAt: time.Unix(int64(1000+i), 0), Passed: i}, nil)
		if err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	runs, err := s.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].Passed != 2 {
		t.Errorf("newest run should come first, got %+v", runs[0])
	}
}

func TestFlakyTests(t *testing.T) {
	s := openStore(t)

	_, err := s.RecordRun(Run{StartedAt: time.Unix(1000, 0)}, []TestResult{
		{Name: "ui/stable", Outcome: "pass"},
		{Name: "ui/flaky", Outcome: "pass"},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.RecordRun(Run{StartedAt: time.Unix(2000, 0)}, []TestResult{
		{Name: "ui/stable", Outcome: "pass"},
		{Name: "ui/flaky", Outcome: "fail"},
	})
	if err != nil {
		t.Fatal(err)
	}

	flaky, err := s.FlakyTests(10)
	if err != nil {
		t.Fatalf("FlakyTests: %v", err)
	}
	if len(flaky) != 1 || flaky[0] != "ui/flaky" {
		t.Errorf("FlakyTests = %v, want [ui/flaky]", flaky)
	}
}

func TestFlakyTestsTreatsCachedAsPass(t *testing.T) {
	s := openStore(t)

	// A stable test passes once and then keeps hitting the result cache.
	_, err := s.RecordRun(Run{StartedAt: time.Unix(1000, 0)}, []TestResult{
		{Name: "ui/stable", Outcome: "pass"},
		{Name: "ui/wobbly", Outcome: "pass"},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.RecordRun(Run{StartedAt: time.Unix(2000, 0)}, []TestResult{
		{Name: "ui/stable", Outcome: "cached"},
		{Name: "ui/wobbly", Outcome: "fail"},
	})
	if err != nil {
		t.Fatal(err)
	}

	flaky, err := s.FlakyTests(10)
	if err != nil {
		t.Fatalf("FlakyTests: %v", err)
	}
	if len(flaky) != 1 || flaky[0] != "ui/wobbly" {
		t.Errorf("FlakyTests = %v, want [ui/wobbly]", flaky)
	}
}
