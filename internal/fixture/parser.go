package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrLeadingGarbage is returned when text precedes the first block
	// header.
	ErrLeadingGarbage = errors.New("text before first diagnostic header")

	headerRe  = regexp.MustCompile(`^(error|warning|note)(?:\[([A-Z][0-9]{4})\])?: (.*)$`)
	pointerRe = regexp.MustCompile(`^( *)--> (.+):([0-9]+):([0-9]+)$`)
	gutterRe  = regexp.MustCompile(`^(LL| *[0-9]+) \|(?: (.*))?$`)
	barRe     = regexp.MustCompile(`^ *\|$`)
	annotRe   = regexp.MustCompile(`^ *\| .*$`)
	noteRe    = regexp.MustCompile(`^ *= note: .*$`)
	summaryRe = regexp.MustCompile(`^error: aborting due to ([0-9]+) previous errors?$`)
	helpRe    = regexp.MustCompile(`^help: (.*)$`)
)

const explainPrefix = "For more information about"

// Parse reads a snapshot into a Document. The parser is tolerant about
// interior lines it does not recognize (they become opaque body lines)
// but rejects text before the first diagnostic header.
func Parse(content []byte) (*Document, error) {
	doc := &Document{Raw: content}

	text := content
	if bytes.Contains(text, []byte("\r\n")) {
		text = bytes.ReplaceAll(text, []byte("\r\n"), []byte("\n"))
		doc.hadCRLF = true
	}
	if len(text) > 0 && text[len(text)-1] != '\n' {
		doc.missingNewline = true
	}

	lines := strings.Split(string(text), "\n")
	// Split leaves one empty trailing element for newline-terminated text.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	// Anything still empty at the end is a blank line before EOF; a
	// canonical snapshot ends with exactly one newline.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
		doc.extraNewlines++
	}

	var cur *Block
	var curHelp *Help

	flush := func() {
		if cur != nil {
			doc.Blocks = append(doc.Blocks, *cur)
			cur = nil
		}
		curHelp = nil
	}

	for i, line := range lines {
		lineno := i + 1

		if line == "" {
			flush()
			continue
		}

		if m := summaryRe.FindStringSubmatch(line); m != nil {
			flush()
			count, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad summary count: %w", lineno, err)
			}
			if doc.Summary != nil {
				return nil, fmt.Errorf("line %d: duplicate summary line", lineno)
			}
			doc.Summary = &Summary{Count: count}
			continue
		}

		if strings.HasPrefix(line, explainPrefix) {
			flush()
			if doc.Explain != "" {
				return nil, fmt.Errorf("line %d: duplicate explain footer", lineno)
			}
			doc.Explain = line
			continue
		}

		if m := headerRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Block{Severity: m[1], Code: m[2], Message: m[3]}
			continue
		}

		if m := helpRe.FindStringSubmatch(line); m != nil && cur != nil {
			cur.Helps = append(cur.Helps, Help{Message: m[1]})
			curHelp = &cur.Helps[len(cur.Helps)-1]
			continue
		}

		if cur == nil {
			return nil, fmt.Errorf("line %d: %w", lineno, ErrLeadingGarbage)
		}

		if m := pointerRe.FindStringSubmatch(line); m != nil && cur.Pointer == nil && curHelp == nil {
			ln, _ := strconv.Atoi(m[3])
			col, _ := strconv.Atoi(m[4])
			cur.Pointer = &Pointer{Path: m[2], Line: ln, Col: col}
			if w := len(m[1]); w > doc.gutterWidth {
				doc.gutterWidth = w
			}
			continue
		}

		body := classify(line, doc)
		if curHelp != nil {
			curHelp.Body = append(curHelp.Body, body)
		} else {
			cur.Body = append(cur.Body, body)
		}
	}
	flush()

	return doc, nil
}

func classify(line string, doc *Document) BodyLine {
	switch {
	case line == "...":
		return BodyLine{Kind: LineElision, Text: line}
	case gutterRe.MatchString(line):
		if m := gutterRe.FindStringSubmatch(line); m != nil {
			if w := len(m[1]); w > doc.gutterWidth {
				doc.gutterWidth = w
			}
		}
		return BodyLine{Kind: LineGutter, Text: line}
	case barRe.MatchString(line):
		return BodyLine{Kind: LineBar, Text: line}
	case noteRe.MatchString(line):
		return BodyLine{Kind: LineNote, Text: line}
	case annotRe.MatchString(line):
		return BodyLine{Kind: LineAnnotation, Text: line}
	default:
		return BodyLine{Kind: LineOpaque, Text: line}
	}
}
