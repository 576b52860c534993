package fixture

import (
	"fmt"
	"regexp"
	"strings"
)

// Problem is one structural complaint about a snapshot.
type Problem struct {
	Msg string
}

func (p Problem) String() string {
	return p.Msg
}

var codeFormatRe = regexp.MustCompile(`^[A-Z][0-9]{4}$`)

// Lint checks the structural invariants a well-formed snapshot upholds:
// the summary count matches the number of error blocks, codes follow the
// letter-plus-four-digits convention, every block carries a source
// pointer, the explain footer names a code that actually occurs, and the
// file is LF-terminated.
func Lint(doc *Document) []Problem {
	var problems []Problem
	add := func(format string, args ...any) {
		problems = append(problems, Problem{Msg: fmt.Sprintf(format, args...)})
	}

	if doc.hadCRLF {
		add("snapshot uses CRLF line endings")
	}
	if doc.missingNewline {
		add("snapshot does not end with a newline")
	}
	if doc.extraNewlines > 0 {
		add("snapshot ends with %d blank line(s); expected exactly one trailing newline", doc.extraNewlines)
	}

	for i := range doc.Blocks {
		b := &doc.Blocks[i]
		if b.Code != "" && !codeFormatRe.MatchString(b.Code) {
			add("block %d: malformed code %q", i+1, b.Code)
		}
		if b.Pointer == nil {
			add("block %d (%s): missing --> source pointer", i+1, b.Header())
		} else if b.Pointer.Line <= 0 || b.Pointer.Col <= 0 {
			add("block %d: non-positive pointer position %d:%d", i+1, b.Pointer.Line, b.Pointer.Col)
		}
	}

	errorBlocks := doc.ErrorBlocks()
	switch {
	case doc.Summary == nil && errorBlocks > 0:
		add("%d error block(s) but no aborting summary line", errorBlocks)
	case doc.Summary != nil && doc.Summary.Count != errorBlocks:
		add("summary says %d previous error(s), snapshot has %d error block(s)", doc.Summary.Count, errorBlocks)
	}

	if doc.Explain != "" {
		found := false
		for _, code := range doc.Codes() {
			if strings.Contains(doc.Explain, code) {
				found = true
				break
			}
		}
		if !found {
			add("explain footer does not name any code present in the snapshot")
		}
	}

	return problems
}
