package compare

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	delColor = color.New(color.FgRed)
	addColor = color.New(color.FgGreen)
	ctxColor = color.New(color.Faint)
)

// Diff renders a line diff of the mismatch: removed snapshot lines with
// a "-" marker, inserted actual lines with "+", shared lines with " ".
// Returns "" for matching outcomes. Coloring follows fatih/color's
// global NoColor switch.
func (o Outcome) Diff() string {
	if o.Match {
		return ""
	}

	ops := diffLines(o.expected, o.actual)
	var b strings.Builder
	for _, op := range ops {
		switch op.kind {
		case opDel:
			b.WriteString(delColor.Sprintf("-%s", op.text))
		case opAdd:
			b.WriteString(addColor.Sprintf("+%s", op.text))
		default:
			b.WriteString(ctxColor.Sprintf(" %s", op.text))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Summary is a one-line description of the mismatch.
func (o Outcome) Summary() string {
	if o.Match {
		return "output matches snapshot"
	}
	return fmt.Sprintf("output differs from snapshot starting at line %d", o.FirstMismatch)
}

type opKind uint8

const (
	opSame opKind = iota
	opDel
	opAdd
)

type diffOp struct {
	kind opKind
	text string
}

// diffLines computes a minimal line edit script via the classic LCS
// table. Snapshots are small (tens of lines), so the quadratic table is
// fine here.
func diffLines(a, b []string) []diffOp {
	n, m := len(a), len(b)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var ops []diffOp
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, diffOp{opSame, a[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			ops = append(ops, diffOp{opDel, a[i]})
			i++
		default:
			ops = append(ops, diffOp{opAdd, b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, diffOp{opDel, a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, diffOp{opAdd, b[j]})
	}
	return ops
}
