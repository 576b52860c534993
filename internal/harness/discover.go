package harness

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Test pairs a source file with its expected-stderr snapshot.
type Test struct {
	// Name is the root-relative source path without extension, e.g.
	// "compare-method/trait_impl_mismatch".
	Name string
	// SourcePath is the input handed to the compiler under test.
	SourcePath string
	// FixturePath is the golden snapshot; it may not exist yet for
	// freshly written tests.
	FixturePath string
	// Dir is the directory "$DIR" stands for in the snapshot.
	Dir string
}

// Discover walks roots collecting tests: every file with sourceExt is a
// test whose snapshot sits next to it with fixtureExt. The list is
// sorted by name for deterministic execution order.
func Discover(roots []string, sourceExt, fixtureExt string) ([]Test, error) {
	var tests []Test

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, sourceExt) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(strings.TrimSuffix(rel, sourceExt))
			tests = append(tests, Test{
				Name:        name,
				SourcePath:  path,
				FixturePath: strings.TrimSuffix(path, sourceExt) + fixtureExt,
				Dir:         filepath.Dir(path),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })
	return tests, nil
}

// FilterByName keeps tests whose name matches pattern. Wildcard patterns
// go through filepath.Match against the base name, with a substring
// fallback for patterns like "*method*"; plain strings match as
// substrings of the full name.
func FilterByName(tests []Test, pattern string) []Test {
	if pattern == "" {
		return tests
	}

	var filtered []Test
	for _, test := range tests {
		base := filepath.Base(test.Name)

		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			filtered = append(filtered, test)
			continue
		}

		if strings.ContainsAny(pattern, "*?") {
			if matchesParts(test.Name, pattern) {
				filtered = append(filtered, test)
			}
			continue
		}

		if strings.Contains(test.Name, pattern) {
			filtered = append(filtered, test)
		}
	}
	return filtered
}

// matchesParts checks that every non-wildcard fragment of pattern occurs
// in name, in order.
func matchesParts(name, pattern string) bool {
	rest := name
	any := false
	for _, part := range strings.FieldsFunc(pattern, func(r rune) bool { return r == '*' || r == '?' }) {
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
		any = true
	}
	return any
}
