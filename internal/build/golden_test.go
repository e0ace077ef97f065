package build

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"cc11/internal/ast"
	"cc11/internal/ir"
	"cc11/internal/types"
	"golang.org/x/tools/txtar"
)

// opKindCounts tallies fn's ops by kind, plus one "term.<kind>" entry per
// block terminator, as the comparison basis for the golden fixtures in
// testdata/golden.txtar.
func opKindCounts(fn *ir.Function) map[string]int {
	counts := map[string]int{}
	for blk := fn.FirstBlock; blk != nil; blk = blk.Next {
		for _, s := range blk.Stmts {
			for _, op := range s.Ops {
				counts[op.Kind.String()]++
			}
		}
		if blk.Term != nil {
			counts["term."+blk.Term.Kind.String()]++
		}
	}
	return counts
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %d\n", k, counts[k])
	}
	return b.String()
}

func parseCounts(t *testing.T, data []byte) map[string]int {
	t.Helper()
	counts := map[string]int{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			t.Fatalf("malformed golden line %q", line)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			t.Fatalf("malformed golden count %q: %v", line, err)
		}
		counts[fields[0]] = n
	}
	return counts
}

// TestBuildFunctionGoldenOpCounts checks the IR shape BuildFunction
// produces against hand-maintained op-kind tallies in
// testdata/golden.txtar, the same multi-section fixture format used for
// golden dumps elsewhere in this lineage (cmd/go's script tests).
func TestBuildFunctionGoldenOpCounts(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/golden.txtar")
	if err != nil {
		t.Fatalf("reading golden fixture: %v", err)
	}

	decl := &ast.Func{
		Name:   "f",
		Params: []ast.Param{{Sym: "x", Type: types.I32Type}},
		Ret:    types.I32Type,
		Body: &ast.Node{Op: ast.OBLOCK, List: []*ast.Node{
			{Op: ast.ORETURN, Left: &ast.Node{
				Op: ast.OADD, Type: types.I32Type,
				Left: name("x", types.I32Type), Right: litI32(1),
			}},
		}},
	}
	fn := buildOne(t, decl)
	got := opKindCounts(fn)

	for _, file := range ar.Files {
		if file.Name != "simple_return" {
			continue
		}
		want := parseCounts(t, file.Data)
		if len(got) != len(want) {
			t.Fatalf("op-kind tally mismatch:\n got: %s\nwant: %s", formatCounts(got), formatCounts(want))
		}
		for k, n := range want {
			if got[k] != n {
				t.Fatalf("op-kind %q: got %d, want %d\n got: %s\nwant: %s", k, got[k], n, formatCounts(got), formatCounts(want))
			}
		}
		return
	}
	t.Fatal(`golden fixture missing "simple_return" section`)
}
