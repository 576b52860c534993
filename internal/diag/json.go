package diag

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"diagsnap/internal/source"
)

// SpanJSON references a byte range in a file by path.
type SpanJSON struct {
	File  string `json:"file"`
	Start uint32 `json:"start_byte"`
	End   uint32 `json:"end_byte"`
}

// LabelJSON is an underlined span with optional trailing text.
type LabelJSON struct {
	Span    SpanJSON `json:"span"`
	Text    string   `json:"text,omitempty"`
	Primary bool     `json:"primary,omitempty"`
}

// EditJSON is one suggested replacement inside a help block.
type EditJSON struct {
	Span    SpanJSON `json:"span"`
	NewText string   `json:"new_text"`
}

// HelpJSON is a help sub-message with optional edits.
type HelpJSON struct {
	Message string     `json:"message"`
	Edits   []EditJSON `json:"edits,omitempty"`
}

// DiagnosticJSON mirrors Diagnostic for the render command's input.
type DiagnosticJSON struct {
	Severity string      `json:"severity"`
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Primary  SpanJSON    `json:"primary"`
	Labels   []LabelJSON `json:"labels,omitempty"`
	Notes    [][]string  `json:"notes,omitempty"`
	Helps    []HelpJSON  `json:"helps,omitempty"`
}

// DocumentJSON is the root of a render input file.
type DocumentJSON struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
}

// DecodeDocument parses render input and loads every referenced source
// file into a fresh FileSet. Relative paths resolve against baseDir.
func DecodeDocument(data []byte, baseDir string) (*Bag, *source.FileSet, error) {
	var doc DocumentJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse diagnostics JSON: %w", err)
	}

	fs := source.NewFileSetWithBase(baseDir)
	ids := make(map[string]source.FileID)
	loadSpan := func(sj SpanJSON) (source.Span, error) {
		path := sj.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		id, ok := ids[path]
		if !ok {
			var err error
			id, err = fs.Load(path)
			if err != nil {
				return source.Span{}, fmt.Errorf("load %s: %w", sj.File, err)
			}
			ids[path] = id
		}
		return source.Span{File: id, Start: sj.Start, End: sj.End}, nil
	}

	bag := NewBag(len(doc.Diagnostics))
	for i, dj := range doc.Diagnostics {
		sev, err := parseSeverity(dj.Severity)
		if err != nil {
			return nil, nil, fmt.Errorf("diagnostic %d: %w", i, err)
		}
		code := Code(dj.Code)
		if dj.Code != "" && !code.Valid() {
			return nil, nil, fmt.Errorf("diagnostic %d: malformed code %q", i, dj.Code)
		}

		primary, err := loadSpan(dj.Primary)
		if err != nil {
			return nil, nil, fmt.Errorf("diagnostic %d: %w", i, err)
		}
		d := New(sev, code, primary, dj.Message)

		for _, lj := range dj.Labels {
			sp, err := loadSpan(lj.Span)
			if err != nil {
				return nil, nil, fmt.Errorf("diagnostic %d: %w", i, err)
			}
			d = d.WithLabel(sp, lj.Text, lj.Primary)
		}
		for _, lines := range dj.Notes {
			d = d.WithNote(lines...)
		}
		for _, hj := range dj.Helps {
			edits := make([]Edit, 0, len(hj.Edits))
			for _, ej := range hj.Edits {
				sp, err := loadSpan(ej.Span)
				if err != nil {
					return nil, nil, fmt.Errorf("diagnostic %d: %w", i, err)
				}
				edits = append(edits, Edit{Span: sp, NewText: ej.NewText})
			}
			d = d.WithHelp(hj.Message, edits...)
		}
		bag.Add(d)
	}
	return bag, fs, nil
}

func parseSeverity(s string) (Severity, error) {
	switch s {
	case "error":
		return SevError, nil
	case "warning":
		return SevWarning, nil
	case "info", "note", "":
		return SevInfo, nil
	}
	return SevInfo, fmt.Errorf("unknown severity %q", s)
}
