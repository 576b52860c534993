package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddAndGet(t *testing.T) {
	fs := NewFileSet()

	id := fs.AddVirtual("fixture.stderr", []byte("error: boom\n"))
	f := fs.Get(id)

	if f.Path != "fixture.stderr" {
		t.Errorf("expected path fixture.stderr, got %q", f.Path)
	}
	if f.Flags&FileVirtual == 0 {
		t.Error("expected FileVirtual flag to be set")
	}
	if string(f.Content) != "error: boom\n" {
		t.Errorf("unexpected content: %q", f.Content)
	}
}

func TestLoadNormalizesCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.rs")
	if err := os.WriteFile(path, []byte("fn main() {}\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	f := fs.Get(id)
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Error("expected FileNormalizedCRLF flag")
	}
	if string(f.Content) != "fn main() {}\n" {
		t.Errorf("content not normalized: %q", f.Content)
	}
}

func TestResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.rs", []byte("a\nb\ncc\n"))

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{1, LineCol{Line: 1, Col: 2}}, // newline belongs to line 1
		{2, LineCol{Line: 2, Col: 1}},
		{4, LineCol{Line: 3, Col: 1}},
		{5, LineCol{Line: 3, Col: 2}},
	}
	for _, tc := range cases {
		got, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if got != tc.want {
			t.Errorf("Resolve(off=%d) = %+v, want %+v", tc.off, got, tc.want)
		}
	}
}

func TestResolveUTF8(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.rs", []byte("α\n")) // α is two bytes

	start, end := fs.Resolve(Span{File: id, Start: 0, End: 1})
	if (start != LineCol{Line: 1, Col: 1}) {
		t.Errorf("unexpected start %+v", start)
	}
	if (end != LineCol{Line: 1, Col: 2}) {
		t.Errorf("unexpected end %+v", end)
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.rs", []byte("trait Checker {\n    fn check(x: u16);\n}\n"))
	f := fs.Get(id)

	if got := f.GetLine(2); got != "    fn check(x: u16);" {
		t.Errorf("GetLine(2) = %q", got)
	}
	if got := f.GetLine(0); got != "" {
		t.Errorf("GetLine(0) = %q, want empty", got)
	}
	if got := f.GetLine(99); got != "" {
		t.Errorf("GetLine(99) = %q, want empty", got)
	}
}

func TestLineSpan(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.rs", []byte("ab\ncd\n"))
	f := fs.Get(id)

	sp, ok := f.LineSpan(2)
	if !ok {
		t.Fatal("expected LineSpan(2) to succeed")
	}
	if sp.Start != 3 || sp.End != 5 {
		t.Errorf("LineSpan(2) = %+v", sp)
	}
}

func TestFileVersioning(t *testing.T) {
	fs := NewFileSet()

	first := fs.AddVirtual("same.rs", []byte("v1\n"))
	second := fs.AddVirtual("same.rs", []byte("v2\n"))

	if first == second {
		t.Error("expected distinct FileIDs for re-added path")
	}
	f, ok := fs.GetByPath("same.rs")
	if !ok {
		t.Fatal("GetByPath failed")
	}
	if string(f.Content) != "v2\n" {
		t.Errorf("index should point at latest version, got %q", f.Content)
	}
}
