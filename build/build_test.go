package build

import (
	"testing"

	"golang.org/x/tools/go/ssa"

	"gobmc/cfa"
	"gobmc/expr"
	"gobmc/memory"
	"gobmc/translate"
)

func loadEntry(t *testing.T, pattern string) *ssa.Function {
	t.Helper()
	_, pkgs, err := LoadProgram(pattern)
	if err != nil {
		t.Fatal(err)
	}
	fn, err := EntryFunction(pkgs, "main")
	if err != nil {
		t.Fatal(err)
	}
	return fn
}

func buildCfa(t *testing.T, pattern string, unwind int) *cfa.Cfa {
	t.Helper()
	fn := loadEntry(t, pattern)
	ctx := expr.NewContext()
	sys := cfa.NewAutomataSystem(ctx)
	mem := memory.NewHavocModel()
	bd := NewBuilder(sys, mem, translate.BitVectors, fn.Prog.Fset, unwind)
	c, err := bd.BuildFunction(fn)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestComputeLoopInfoFindsCountingLoopHeader(t *testing.T) {
	fn := loadEntry(t, "../testdata/loops/counting")
	li := ComputeLoopInfo(fn)
	if len(li.Loops()) != 1 {
		t.Fatalf("got %d loops, want 1", len(li.Loops()))
	}
	loop := li.Loops()[0]
	if len(loop.Blocks) == 0 {
		t.Fatal("loop has no blocks")
	}
	if len(loop.Exits) != 1 {
		t.Fatalf("got %d exits for a single-condition loop, want 1", len(loop.Exits))
	}
}

func TestComputeLoopInfoFindsMultiExitLoop(t *testing.T) {
	fn := loadEntry(t, "../testdata/loops/multiexit")
	li := ComputeLoopInfo(fn)
	if len(li.Loops()) != 1 {
		t.Fatalf("got %d loops, want 1", len(li.Loops()))
	}
	loop := li.Loops()[0]
	if len(loop.Exits) == 0 {
		t.Fatal("a loop with a break plus its natural condition exit must have at least one recorded exit")
	}
}

func TestComputeLoopInfoOnStraightLineFunctionFindsNoLoops(t *testing.T) {
	fn := loadEntry(t, "../testdata/verifier/alwaysfalse")
	li := ComputeLoopInfo(fn)
	if len(li.Loops()) != 0 {
		t.Fatalf("got %d loops, want 0", len(li.Loops()))
	}
}

func TestTopoSortOrdersForwardEdgesSourceBeforeTarget(t *testing.T) {
	fn := loadEntry(t, "../testdata/verifier/alwaysfalse")
	li := ComputeLoopInfo(fn)
	blocks := filteredBlocks(fn.Blocks, li, nil)
	order := topoSort(blocks, func(*ssa.BasicBlock, *ssa.BasicBlock) bool { return false })
	if len(order) != len(blocks) {
		t.Fatalf("topoSort dropped blocks: got %d, want %d", len(order), len(blocks))
	}
	index := make(map[*ssa.BasicBlock]int, len(order))
	for i, b := range order {
		index[b] = i
	}
	for _, b := range blocks {
		for _, s := range b.Succs {
			if index[s] < index[b] {
				t.Fatalf("block %d ordered after successor %d", b.Index, s.Index)
			}
		}
	}
}

func TestTopoSortTreatsBackEdgeAsExcluded(t *testing.T) {
	fn := loadEntry(t, "../testdata/loops/counting")
	li := ComputeLoopInfo(fn)
	loop := li.Loops()[0]
	order := topoSort(loop.Blocks, func(from, to *ssa.BasicBlock) bool { return to == loop.Header })
	if len(order) != len(loop.Blocks) {
		t.Fatalf("got %d blocks in order, want %d", len(order), len(loop.Blocks))
	}
	if order[0] != loop.Header {
		t.Fatalf("expected the loop header first once its back edge is excluded")
	}
}

func TestFilteredBlocksExcludesNestedLoopBodyButKeepsHeader(t *testing.T) {
	fn := loadEntry(t, "../testdata/loops/counting")
	li := ComputeLoopInfo(fn)
	loop := li.Loops()[0]
	blocks := filteredBlocks(fn.Blocks, li, nil)

	seen := make(map[*ssa.BasicBlock]bool, len(blocks))
	for _, b := range blocks {
		seen[b] = true
	}
	if !seen[loop.Header] {
		t.Fatal("filteredBlocks dropped the loop header, which the outer region still needs to wire into")
	}
	for _, b := range loop.Blocks {
		if b != loop.Header && seen[b] {
			t.Fatalf("filteredBlocks kept loop body block %d, which belongs to the loop's own nested Cfa", b.Index)
		}
	}
}

func TestBuildFunctionStraightLine(t *testing.T) {
	c := buildCfa(t, "../testdata/verifier/alwaysfalse", 0)
	if c.Entry() == nil || c.Exit() == nil {
		t.Fatal("entry/exit must exist")
	}
}

func TestBuildFunctionSingleExitLoop(t *testing.T) {
	c := buildCfa(t, "../testdata/loops/counting", 4)
	if c.Entry() == nil {
		t.Fatal("entry must exist")
	}
}

func TestBuildFunctionMultiExitLoop(t *testing.T) {
	c := buildCfa(t, "../testdata/loops/multiexit", 12)
	if c.Entry() == nil {
		t.Fatal("entry must exist")
	}
}

func TestBuildFunctionRejectsTooFewUnwindingsGracefully(t *testing.T) {
	// A loop bound far smaller than what the fixture needs to terminate
	// must still build successfully: under-approximation is expressed by
	// leaving a path with no further transition past the last unwinding
	// step, never by a build error.
	c := buildCfa(t, "../testdata/loops/counting", 1)
	if c.Entry() == nil {
		t.Fatal("entry must exist even when the unwinding bound is too small to reach the loop's exit")
	}
}
