// Package compare decides whether live compiler output matches a golden
// snapshot, byte for byte or under blessed normalization.
package compare

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Mode selects the comparison strategy.
type Mode uint8

const (
	// ModeExact requires byte equality.
	ModeExact Mode = iota
	// ModeNormalized compares after $DIR substitution and whitespace
	// normalization per Rules.
	ModeNormalized
)

// ParseMode maps the config/flag spelling to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "exact":
		return ModeExact, true
	case "normalized":
		return ModeNormalized, true
	}
	return ModeExact, false
}

func (m Mode) String() string {
	if m == ModeNormalized {
		return "normalized"
	}
	return "exact"
}

// Rules configures blessed normalization.
type Rules struct {
	// Dir is the directory substituted by "$DIR" in actual output.
	Dir string
	// StripTrailingWS removes trailing whitespace from every line on
	// both sides before comparing.
	StripTrailingWS bool
}

// Outcome is the result of one comparison.
type Outcome struct {
	Match bool
	// FirstMismatch is the 1-based line number of the first differing
	// line, 0 when matching.
	FirstMismatch int

	expected []string
	actual   []string
}

// Bytes compares expected and actual exactly.
func Bytes(expected, actual []byte) Outcome {
	if bytes.Equal(expected, actual) {
		return Outcome{Match: true}
	}
	return mismatch(splitLines(expected), splitLines(actual))
}

// Normalized compares after applying rules to both sides: CRLF becomes
// LF, the rules directory in actual output becomes "$DIR", and trailing
// whitespace is optionally stripped.
func Normalized(expected, actual []byte, rules Rules) Outcome {
	e := normalize(expected, rules, false)
	a := normalize(actual, rules, true)
	if e == a {
		return Outcome{Match: true}
	}
	return mismatch(strings.Split(e, "\n"), strings.Split(a, "\n"))
}

// NormalizeActual applies the actual-side normalization (the $DIR
// substitution blessed snapshots record) without comparing. Blessing
// writes its result.
func NormalizeActual(data []byte, rules Rules) []byte {
	return []byte(normalize(data, rules, true))
}

func normalize(data []byte, rules Rules, isActual bool) string {
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	if isActual && rules.Dir != "" {
		s = strings.ReplaceAll(s, rules.Dir, "$DIR")
		if slashed := filepath.ToSlash(rules.Dir); slashed != rules.Dir {
			s = strings.ReplaceAll(s, slashed, "$DIR")
		}
	}
	if rules.StripTrailingWS {
		lines := strings.Split(s, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " \t")
		}
		s = strings.Join(lines, "\n")
	}
	return s
}

func mismatch(expected, actual []string) Outcome {
	o := Outcome{expected: expected, actual: actual}
	n := len(expected)
	if len(actual) < n {
		n = len(actual)
	}
	for i := 0; i < n; i++ {
		if expected[i] != actual[i] {
			o.FirstMismatch = i + 1
			return o
		}
	}
	// One side is a prefix of the other.
	o.FirstMismatch = n + 1
	return o
}

func splitLines(data []byte) []string {
	return strings.Split(string(data), "\n")
}
