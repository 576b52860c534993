package diag

import (
	"testing"

	"diagsnap/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)

	if !b.Add(NewError("E0053", source.Span{}, "first")) {
		t.Fatal("first Add should succeed")
	}
	if !b.Add(NewError("E0053", source.Span{}, "second")) {
		t.Fatal("second Add should succeed")
	}
	if b.Add(NewError("E0053", source.Span{}, "third")) {
		t.Fatal("third Add should be dropped at the limit")
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
}

func TestBagCapSaturates(t *testing.T) {
	if got := NewBag(1 << 20).Cap(); got != 65535 {
		t.Fatalf("Cap = %d, want saturation at 65535", got)
	}

	left := &Bag{items: make([]Diagnostic, 40000), max: 40000}
	right := &Bag{items: make([]Diagnostic, 40000), max: 40000}
	left.Merge(right)
	if left.Cap() != 65535 {
		t.Errorf("merged Cap = %d, want saturation at 65535", left.Cap())
	}
	if left.Len() != 80000 {
		t.Errorf("merged Len = %d, want 80000", left.Len())
	}
}

func TestBagErrorCount(t *testing.T) {
	b := NewBag(8)
	b.Add(NewError("E0053", source.Span{}, "a"))
	b.Add(New(SevWarning, "W0001", source.Span{}, "b"))
	b.Add(NewError("E0053", source.Span{}, "c"))

	if got := b.ErrorCount(); got != 2 {
		t.Fatalf("ErrorCount = %d, want 2", got)
	}
	if !b.HasErrors() {
		t.Fatal("HasErrors should be true")
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(8)
	b.Add(NewError("E0200", source.Span{Start: 10, End: 12}, "later"))
	b.Add(NewError("E0053", source.Span{Start: 2, End: 4}, "earlier"))
	b.Add(NewError("E0053", source.Span{Start: 2, End: 4}, "earlier duplicate"))

	b.Sort()
	b.Dedup()

	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("after Dedup len = %d, want 2", len(items))
	}
	if items[0].Message != "earlier" {
		t.Errorf("sort order wrong, first message %q", items[0].Message)
	}
}

func TestCodeValid(t *testing.T) {
	for code, want := range map[Code]bool{
		"E0053": true,
		"W1234": true,
		"E053":  false,
		"e0053": false,
		"E00530": false,
		"":      false,
	} {
		if got := code.Valid(); got != want {
			t.Errorf("Code(%q).Valid() = %v, want %v", code, got, want)
		}
	}
}

func TestExplanationSeeded(t *testing.T) {
	if _, ok := Explanation("E0053"); !ok {
		t.Fatal("expected E0053 to carry an explanation")
	}
	if _, ok := Explanation("E9999"); ok {
		t.Fatal("unexpected explanation for unknown code")
	}
}
