package diag

import (
	"diagsnap/internal/source"
)

// Label annotates a span inside a quoted source line. Primary labels are
// rendered with caret underlines, secondary ones with dashes.
type Label struct {
	Span    source.Span
	Text    string
	Primary bool
}

// Note is a "= note:" continuation attached to a diagnostic. Lines past
// the first are rendered indented under the note header.
type Note struct {
	Lines []string
}

// Edit is a literal source replacement proposed by a help block.
type Edit struct {
	Span    source.Span
	NewText string
}

// Help is a "help:" sub-message, optionally carrying a suggested edit
// that the renderer quotes back with the replacement applied.
type Help struct {
	Message string
	Edits   []Edit
}

// Diagnostic is one reported problem: a severity, a stable code, the
// headline message, the primary span, and any labelled secondary spans,
// notes and help suggestions.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Labels   []Label
	Notes    []Note
	Helps    []Help
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

// WithLabel attaches an underlined span with optional trailing text.
func (d Diagnostic) WithLabel(sp source.Span, text string, primary bool) Diagnostic {
	d.Labels = append(d.Labels, Label{Span: sp, Text: text, Primary: primary})
	return d
}

// WithNote attaches a note; each argument is one rendered line.
func (d Diagnostic) WithNote(lines ...string) Diagnostic {
	d.Notes = append(d.Notes, Note{Lines: lines})
	return d
}

// WithHelp attaches a help message with zero or more suggested edits.
func (d Diagnostic) WithHelp(msg string, edits ...Edit) Diagnostic {
	d.Helps = append(d.Helps, Help{Message: msg, Edits: edits})
	return d
}
