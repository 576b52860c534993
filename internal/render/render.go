// Package render emits diagnostics in the snapshot wire format: the
// "error[E0053]: ..." blocks with LL-gutter source context that golden
// stderr files record.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"diagsnap/internal/diag"
	"diagsnap/internal/source"
)

// Options controls snapshot rendering.
type Options struct {
	// Root is the directory replaced by "$DIR" in pointer paths.
	// Empty means paths are emitted as stored in the FileSet.
	Root string
	// ExplainCommand names the tool in the explain footer.
	// Defaults to "rustc".
	ExplainCommand string
	// RealLineNumbers emits actual line numbers in the gutter instead
	// of the anonymized "LL" used by blessed snapshots.
	RealLineNumbers bool
	// NoSummary suppresses the aborting summary and explain footer.
	NoSummary bool
}

func (o *Options) explain() string {
	if o.ExplainCommand == "" {
		return "rustc"
	}
	return o.ExplainCommand
}

// Render writes the bag's diagnostics as snapshot text. The bag should
// be sorted beforehand; blocks are emitted in bag order, followed by the
// aborting summary and explain footer when errors are present.
func Render(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts Options) error {
	r := renderer{w: w, fs: fs, opts: opts}
	return r.run(bag)
}

type renderer struct {
	w    io.Writer
	fs   *source.FileSet
	opts Options
	err  error
}

func (r *renderer) run(bag *diag.Bag) error {
	items := bag.Items()
	for i := range items {
		if i > 0 {
			r.line("")
		}
		r.block(&items[i])
	}

	if !r.opts.NoSummary {
		if n := bag.ErrorCount(); n > 0 {
			if len(items) > 0 {
				r.line("")
			}
			if n == 1 {
				r.line("error: aborting due to 1 previous error")
			} else {
				r.linef("error: aborting due to %d previous errors", n)
			}
			r.footer(bag)
		}
	}
	return r.err
}

func (r *renderer) footer(bag *diag.Bag) {
	var codes []diag.Code
	seen := make(map[diag.Code]bool)
	for _, d := range bag.Items() {
		if d.Severity < diag.SevError || d.Code == "" || seen[d.Code] {
			continue
		}
		seen[d.Code] = true
		codes = append(codes, d.Code)
	}
	if len(codes) == 0 {
		return
	}
	r.line("")
	noun := "this error"
	if len(codes) > 1 {
		noun = "these errors"
	}
	r.linef("For more information about %s, try `%s --explain %s`.", noun, r.opts.explain(), codes[0])
}

func (r *renderer) block(d *diag.Diagnostic) {
	if d.Code != "" {
		r.linef("%s[%s]: %s", d.Severity.Label(), d.Code, d.Message)
	} else {
		r.linef("%s: %s", d.Severity.Label(), d.Message)
	}

	gutter := r.gutterWidth(d)

	start, _ := r.fs.Resolve(d.Primary)
	r.linef("%s--> %s:%d:%d", strings.Repeat(" ", gutter), r.pointerPath(d.Primary.File), start.Line, start.Col)

	labels := d.Labels
	if len(labels) == 0 {
		labels = []diag.Label{{Span: d.Primary, Primary: true}}
	}
	sorted := make([]diag.Label, len(labels))
	copy(sorted, labels)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, _ := r.fs.Resolve(sorted[i].Span)
		sj, _ := r.fs.Resolve(sorted[j].Span)
		if si.Line != sj.Line {
			return si.Line < sj.Line
		}
		return si.Col < sj.Col
	})

	r.bar(gutter)
	prevLine := uint32(0)
	for _, label := range sorted {
		loc, _ := r.fs.Resolve(label.Span)
		f := r.fs.Get(label.Span.File)
		switch {
		case prevLine != 0 && loc.Line == prevLine:
			// Same quoted line; annotate again without re-quoting.
		case prevLine != 0 && loc.Line == prevLine+1:
			r.quote(f, loc.Line, gutter)
		case prevLine != 0:
			r.line("...")
			r.quote(f, loc.Line, gutter)
		default:
			r.quote(f, loc.Line, gutter)
		}
		mark := byte('-')
		if label.Primary {
			mark = '^'
		}
		r.annotate(f, label.Span, gutter, mark, label.Text)
		prevLine = loc.Line
	}

	if len(d.Notes) > 0 {
		r.bar(gutter)
		for _, note := range d.Notes {
			prefix := fmt.Sprintf("%s= note: ", strings.Repeat(" ", gutter+1))
			for i, line := range note.Lines {
				if i == 0 {
					r.line(prefix + line)
				} else {
					r.line(strings.Repeat(" ", len(prefix)) + line)
				}
			}
		}
	}

	for _, help := range d.Helps {
		r.linef("help: %s", help.Message)
		for _, edit := range help.Edits {
			r.bar(gutter)
			patched, loc, span, ok := r.applyEdit(edit)
			if !ok {
				continue
			}
			r.gutterLine(gutter, loc.Line, patched)
			r.underlineAt(patched, span, gutter, '~', "")
		}
	}
}

// gutterWidth is the width of the line-number column: 2 for the
// anonymized "LL" form, otherwise the widest decimal line number quoted.
func (r *renderer) gutterWidth(d *diag.Diagnostic) int {
	if !r.opts.RealLineNumbers {
		return 2
	}
	max := uint32(1)
	consider := func(sp source.Span) {
		loc, _ := r.fs.Resolve(sp)
		if loc.Line > max {
			max = loc.Line
		}
	}
	consider(d.Primary)
	for _, l := range d.Labels {
		consider(l.Span)
	}
	for _, h := range d.Helps {
		for _, e := range h.Edits {
			consider(e.Span)
		}
	}
	return len(fmt.Sprintf("%d", max))
}

func (r *renderer) pointerPath(id source.FileID) string {
	f := r.fs.Get(id)
	if r.opts.Root == "" {
		return f.Path
	}
	rel := f.RelativePath(r.opts.Root)
	return "$DIR/" + rel
}

func (r *renderer) bar(gutter int) {
	r.line(strings.Repeat(" ", gutter+1) + "|")
}

func (r *renderer) quote(f *source.File, lineNum uint32, gutter int) {
	r.gutterLine(gutter, lineNum, f.GetLine(lineNum))
}

func (r *renderer) gutterLine(gutter int, lineNum uint32, text string) {
	label := "LL"
	if r.opts.RealLineNumbers {
		label = fmt.Sprintf("%*d", gutter, lineNum)
	}
	if text == "" {
		r.linef("%s |", label)
		return
	}
	r.linef("%s | %s", label, text)
}

// annotate draws an underline row beneath the quoted line containing span.
func (r *renderer) annotate(f *source.File, span source.Span, gutter int, mark byte, text string) {
	loc, _ := r.fs.Resolve(span)
	lineSpan, ok := f.LineSpan(loc.Line)
	if !ok {
		return
	}
	r.underlineAt(f.GetLine(loc.Line), inLineSpan(span, lineSpan), gutter, mark, text)
}

// lineRange is a byte range within a single quoted line.
type lineRange struct {
	start, end int
}

func inLineSpan(span source.Span, lineSpan source.Span) lineRange {
	start := int(span.Start) - int(lineSpan.Start)
	end := int(span.End) - int(lineSpan.Start)
	lineLen := int(lineSpan.Len())
	if start < 0 {
		start = 0
	}
	if end > lineLen {
		end = lineLen
	}
	if end < start {
		end = start
	}
	return lineRange{start: start, end: end}
}

func (r *renderer) underlineAt(lineText string, rng lineRange, gutter int, mark byte, text string) {
	if rng.start > len(lineText) {
		rng.start = len(lineText)
	}
	if rng.end > len(lineText) {
		rng.end = len(lineText)
	}
	pad := runewidth.StringWidth(lineText[:rng.start])
	width := runewidth.StringWidth(lineText[rng.start:rng.end])
	if width < 1 {
		width = 1
	}

	row := strings.Repeat(" ", gutter+1) + "| " + strings.Repeat(" ", pad) + strings.Repeat(string(mark), width)
	if text != "" {
		row += " " + text
	}
	r.line(row)
}

// applyEdit returns the quoted line with the edit applied, its position,
// and the byte range of the replacement within the patched line.
func (r *renderer) applyEdit(edit diag.Edit) (string, source.LineCol, lineRange, bool) {
	f := r.fs.Get(edit.Span.File)
	loc, _ := r.fs.Resolve(edit.Span)
	lineSpan, ok := f.LineSpan(loc.Line)
	if !ok {
		return "", loc, lineRange{}, false
	}
	line := f.GetLine(loc.Line)
	rng := inLineSpan(edit.Span, lineSpan)
	patched := line[:rng.start] + edit.NewText + line[rng.end:]
	return patched, loc, lineRange{start: rng.start, end: rng.start + len(edit.NewText)}, true
}

func (r *renderer) line(s string) {
	if r.err != nil {
		return
	}
	_, r.err = io.WriteString(r.w, s)
	if r.err == nil {
		_, r.err = io.WriteString(r.w, "\n")
	}
}

func (r *renderer) linef(format string, args ...any) {
	r.line(fmt.Sprintf(format, args...))
}
