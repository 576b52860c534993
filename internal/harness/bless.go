package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"diagsnap/internal/compare"
)

// Bless replaces the snapshot for one result with the captured output,
// normalized so the stored file carries "$DIR" instead of real paths.
// The write is atomic: temp file plus rename.
func Bless(res Result, stripTrailingWS bool) error {
	if res.Outcome == OutcomePass || res.Outcome == OutcomeCached {
		return nil
	}
	if res.Outcome == OutcomeError {
		return fmt.Errorf("refusing to bless %s: test errored: %w", res.Test.Name, res.Err)
	}

	normalized := compare.NormalizeActual(res.Actual, compare.Rules{
		Dir:             res.Test.Dir,
		StripTrailingWS: stripTrailingWS,
	})

	dir := filepath.Dir(res.Test.FixturePath)
	f, err := os.CreateTemp(dir, "bless-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(normalized); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), res.Test.FixturePath)
}

// BlessAll blesses every failing or new result, returning the count of
// rewritten snapshots. onlyNew restricts blessing to tests that had no
// snapshot at all.
func BlessAll(results []Result, stripTrailingWS, onlyNew bool) (int, error) {
	count := 0
	for i := range results {
		res := results[i]
		switch res.Outcome {
		case OutcomeNew:
		case OutcomeFail:
			if onlyNew {
				continue
			}
		default:
			continue
		}
		if err := Bless(res, stripTrailingWS); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
