// Package fixture models expected-output snapshot files: the golden
// stderr text a compiler regression suite diffs live output against.
package fixture

import (
	"fmt"
	"strings"
)

// LineKind classifies one body line of a diagnostic block.
type LineKind uint8

const (
	// LineBar is a bare gutter separator ("   |").
	LineBar LineKind = iota
	// LineGutter quotes source context ("LL |     fn check(x: u16);").
	LineGutter
	// LineAnnotation carries caret/dash/tilde underlines under a quoted line.
	LineAnnotation
	// LineElision is the "..." row between non-adjacent quoted lines.
	LineElision
	// LineNote is an "= note:" row.
	LineNote
	// LineOpaque is any other interior line (note continuations and
	// whatever future wording the compiler grows). Kept verbatim.
	LineOpaque
)

// BodyLine is one interior line of a block, kept byte-exact in Text so
// documents re-serialize losslessly.
type BodyLine struct {
	Kind LineKind
	Text string
}

// Pointer is the "--> $DIR/file.rs:9:17" source reference of a block.
type Pointer struct {
	Path string
	Line int
	Col  int
}

// Help is a "help:" sub-block nested inside a diagnostic block.
type Help struct {
	Message string
	Body    []BodyLine
}

// Block is one diagnostic record of the snapshot.
type Block struct {
	Severity string // "error", "warning", "note"
	Code     string // "E0053", or "" for uncoded diagnostics
	Message  string
	Pointer  *Pointer
	Body     []BodyLine
	Helps    []Help
}

// Header reconstructs the block's first line.
func (b *Block) Header() string {
	if b.Code != "" {
		return fmt.Sprintf("%s[%s]: %s", b.Severity, b.Code, b.Message)
	}
	return fmt.Sprintf("%s: %s", b.Severity, b.Message)
}

// Summary is the trailing "error: aborting due to N previous errors" line.
type Summary struct {
	Count int
}

func (s *Summary) String() string {
	if s.Count == 1 {
		return "error: aborting due to 1 previous error"
	}
	return fmt.Sprintf("error: aborting due to %d previous errors", s.Count)
}

// Document is a parsed snapshot: an immutable sequence of diagnostic
// blocks, an optional summary, and an optional explain footer.
type Document struct {
	Blocks  []Block
	Summary *Summary
	Explain string // full footer line, "" when absent

	// Raw preserves the exact bytes the document was parsed from.
	Raw []byte

	gutterWidth    int
	hadCRLF        bool
	missingNewline bool
	extraNewlines  int
}

// GutterWidth is the width of the line-number column ("LL" snapshots
// use 2). Zero for documents without quoted source.
func (d *Document) GutterWidth() int {
	return d.gutterWidth
}

// HadCRLF reports whether CRLF line endings were normalized during Parse.
func (d *Document) HadCRLF() bool {
	return d.hadCRLF
}

// MissingFinalNewline reports whether the source text lacked a trailing
// newline.
func (d *Document) MissingFinalNewline() bool {
	return d.missingNewline
}

// ExtraTrailingNewlines counts blank lines before EOF; a canonical
// snapshot ends with exactly one newline, so this is usually zero.
func (d *Document) ExtraTrailingNewlines() int {
	return d.extraNewlines
}

// ErrorBlocks counts blocks with error severity; the summary line must
// agree with this number.
func (d *Document) ErrorBlocks() int {
	n := 0
	for i := range d.Blocks {
		if d.Blocks[i].Severity == "error" {
			n++
		}
	}
	return n
}

// Codes returns the distinct diagnostic codes in document order.
func (d *Document) Codes() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range d.Blocks {
		c := d.Blocks[i].Code
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Format re-serializes the document. For documents produced by Parse on
// canonical snapshots, Format(Parse(x)) == x.
func (d *Document) Format() []byte {
	var b strings.Builder

	for i := range d.Blocks {
		if i > 0 {
			b.WriteByte('\n')
		}
		d.writeBlock(&b, &d.Blocks[i])
	}

	if d.Summary != nil {
		if len(d.Blocks) > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Summary.String())
		b.WriteByte('\n')
	}
	if d.Explain != "" {
		b.WriteByte('\n')
		b.WriteString(d.Explain)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func (d *Document) writeBlock(b *strings.Builder, blk *Block) {
	b.WriteString(blk.Header())
	b.WriteByte('\n')
	if blk.Pointer != nil {
		gutter := d.gutterWidth
		if gutter == 0 {
			gutter = 2
		}
		fmt.Fprintf(b, "%s--> %s:%d:%d\n", strings.Repeat(" ", gutter), blk.Pointer.Path, blk.Pointer.Line, blk.Pointer.Col)
	}
	for _, line := range blk.Body {
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	for i := range blk.Helps {
		h := &blk.Helps[i]
		b.WriteString("help: ")
		b.WriteString(h.Message)
		b.WriteByte('\n')
		for _, line := range h.Body {
			b.WriteString(line.Text)
			b.WriteByte('\n')
		}
	}
}
