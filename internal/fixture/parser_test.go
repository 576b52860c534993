package fixture

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func loadReference(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", "ui", "compare-method", "trait_impl_mismatch.stderr")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read reference snapshot: %v", err)
	}
	return data
}

func TestParseReferenceSnapshot(t *testing.T) {
	data := loadReference(t)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(doc.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(doc.Blocks))
	}
	for i, b := range doc.Blocks {
		if b.Severity != "error" || b.Code != "E0053" {
			t.Errorf("block %d: severity=%q code=%q, want error/E0053", i, b.Severity, b.Code)
		}
	}

	first := doc.Blocks[0]
	if first.Message != "method `check` has an incompatible type for trait" {
		t.Errorf("unexpected first message %q", first.Message)
	}
	wantPtr := &Pointer{Path: "$DIR/trait_impl_mismatch.rs", Line: 9, Col: 17}
	if diff := cmp.Diff(wantPtr, first.Pointer); diff != "" {
		t.Errorf("first pointer mismatch (-want +got):\n%s", diff)
	}

	second := doc.Blocks[1]
	if len(second.Helps) != 1 {
		t.Fatalf("second block helps = %d, want 1", len(second.Helps))
	}
	if second.Helps[0].Message != "change the parameter type to match the trait" {
		t.Errorf("unexpected help message %q", second.Helps[0].Message)
	}
	if len(second.Helps[0].Body) != 3 {
		t.Errorf("help body lines = %d, want 3", len(second.Helps[0].Body))
	}

	if doc.Summary == nil || doc.Summary.Count != 2 {
		t.Fatalf("summary = %+v, want count 2", doc.Summary)
	}
	if doc.Explain == "" {
		t.Fatal("expected explain footer")
	}
	if doc.ErrorBlocks() != doc.Summary.Count {
		t.Errorf("error blocks %d disagree with summary %d", doc.ErrorBlocks(), doc.Summary.Count)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	data := loadReference(t)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.Format(); !bytes.Equal(got, data) {
		t.Errorf("Format is not a byte-exact round trip:\n--- want ---\n%s\n--- got ---\n%s", data, got)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	data := loadReference(t)

	first, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse (again): %v", err)
	}
	if !bytes.Equal(first.Format(), second.Format()) {
		t.Error("parsing the same bytes twice produced different documents")
	}
}

func TestParseBodyLineKinds(t *testing.T) {
	data := loadReference(t)
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []LineKind{
		LineBar,
		LineGutter,
		LineAnnotation,
		LineElision,
		LineGutter,
		LineAnnotation,
		LineBar,
		LineNote,
		LineOpaque, // note continuation line
	}
	body := doc.Blocks[0].Body
	if len(body) != len(want) {
		t.Fatalf("body lines = %d, want %d", len(body), len(want))
	}
	for i, k := range want {
		if body[i].Kind != k {
			t.Errorf("body[%d].Kind = %d, want %d (%q)", i, body[i].Kind, k, body[i].Text)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	doc, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if len(doc.Blocks) != 0 || doc.Summary != nil || doc.Explain != "" {
		t.Errorf("empty snapshot should parse to an empty document: %+v", doc)
	}
}

func TestParseLeadingGarbage(t *testing.T) {
	_, err := Parse([]byte("stray line\nerror[E0053]: nope\n"))
	if err == nil {
		t.Fatal("expected error for text before first header")
	}
}

func TestParseSingularSummary(t *testing.T) {
	src := "error[E0107]: wrong number of type arguments\n" +
		"  --> $DIR/one.rs:1:1\n" +
		"\n" +
		"error: aborting due to 1 previous error\n"
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Summary == nil || doc.Summary.Count != 1 {
		t.Fatalf("summary = %+v, want count 1", doc.Summary)
	}
	if got := string(doc.Format()); got != src {
		t.Errorf("singular summary round trip failed:\nwant %q\ngot  %q", src, got)
	}
}

func TestParseCRLFTolerated(t *testing.T) {
	src := "error[E0053]: mismatch\r\n  --> $DIR/a.rs:1:1\r\n"
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !doc.HadCRLF() {
		t.Error("expected HadCRLF to be recorded")
	}
	if len(doc.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(doc.Blocks))
	}
}

func TestParseUncodedHeader(t *testing.T) {
	src := "warning: unused variable `x`\n  --> $DIR/w.rs:3:9\n"
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := doc.Blocks[0]
	if b.Severity != "warning" || b.Code != "" {
		t.Errorf("severity=%q code=%q, want warning with no code", b.Severity, b.Code)
	}
	if b.Header() != "warning: unused variable `x`" {
		t.Errorf("Header() = %q", b.Header())
	}
}
