package mir_test

import (
	"testing"

	"github.com/nova-lang/novac/checker"
	"github.com/nova-lang/novac/lexer"
	"github.com/nova-lang/novac/mir"
	"github.com/nova-lang/novac/parser"
	"github.com/nova-lang/novac/types"
)

func translate(t *testing.T, src string) *mir.Module {
	t.Helper()
	ctx := types.NewTypeContext()
	file, err := parser.ParseFile(lexer.New(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if err := checker.Check(file, ctx); err != nil {
		t.Fatalf("check error: %v", err)
	}
	mod, err := mir.TranslateFile(file, ctx)
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	return mod
}

func findFunc(t *testing.T, mod *mir.Module, name string) *mir.Function {
	t.Helper()
	for _, fn := range mod.Functions {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("no function %q in module", name)
	return nil
}

// everyBlockHasOneTerminator is spec §8's MIR invariant.
func everyBlockHasOneTerminator(t *testing.T, fn *mir.Function) {
	t.Helper()
	for _, bb := range fn.Blocks {
		if bb.Term == nil {
			t.Errorf("function %s: bb%d has no terminator", fn.Name, bb.ID)
		}
	}
}

func TestSimpleReturn(t *testing.T) {
	mod := translate(t, `fn main() -> s32 { return 42; }`)
	fn := findFunc(t, mod, "main")
	everyBlockHasOneTerminator(t, fn)
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(fn.Blocks))
	}
	if fn.Blocks[0].Term.Kind != mir.TReturn {
		t.Errorf("expected Return terminator, got %v", fn.Blocks[0].Term.Kind)
	}
}

func TestTailExpressionIsImplicitReturn(t *testing.T) {
	mod := translate(t, `fn main() -> s32 { 1 + 2 }`)
	fn := findFunc(t, mod, "main")
	everyBlockHasOneTerminator(t, fn)
	last := fn.Blocks[len(fn.Blocks)-1]
	if last.Term.Kind != mir.TReturn {
		t.Errorf("expected trailing expression to lower to an implicit return, got %v", last.Term.Kind)
	}
}

func TestIfElseProducesJoinBlock(t *testing.T) {
	mod := translate(t, `fn main() -> s32 { if true { 1 } else { 2 } }`)
	fn := findFunc(t, mod, "main")
	everyBlockHasOneTerminator(t, fn)

	var ifTerms int
	for _, bb := range fn.Blocks {
		if bb.Term.Kind == mir.TIf {
			ifTerms++
		}
	}
	if ifTerms != 1 {
		t.Fatalf("expected exactly 1 If terminator, got %d", ifTerms)
	}
}

func TestNoBlockReachableAfterReturn(t *testing.T) {
	// return in the middle of an if/else: both branches terminate with
	// Return directly, never reaching a join block.
	mod := translate(t, `
fn main() -> s32 {
	if true { return 1; } else { return 2; }
}
`)
	fn := findFunc(t, mod, "main")
	everyBlockHasOneTerminator(t, fn)
	for _, bb := range fn.Blocks {
		if bb.Term.Kind == mir.TGoto {
			t.Errorf("bb%d gotos to a join block, but both if-branches returned", bb.ID)
		}
	}
}

func TestShortCircuitAndLowersToIf(t *testing.T) {
	mod := translate(t, `fn main() -> bool { true && false }`)
	fn := findFunc(t, mod, "main")
	everyBlockHasOneTerminator(t, fn)

	var ifTerms int
	for _, bb := range fn.Blocks {
		if bb.Term.Kind == mir.TIf {
			ifTerms++
		}
	}
	if ifTerms != 1 {
		t.Fatalf("expected && to lower through exactly 1 If terminator, got %d", ifTerms)
	}
}

func TestCallArgumentEvaluationOrder(t *testing.T) {
	mod := translate(t, `
fn id(x: s32) -> s32 { return x; }
fn main() -> s32 { id(1) + id(2) }
`)
	fn := findFunc(t, mod, "main")
	everyBlockHasOneTerminator(t, fn)

	var calls []string
	var args []uint64
	for _, bb := range fn.Blocks {
		for _, s := range bb.Statements {
			if s.Src.Kind == mir.RCall {
				calls = append(calls, s.Src.Callee)
				args = append(args, s.Src.Args[0].ConstValue)
			}
		}
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls emitted, got %d (%v)", len(calls), calls)
	}
	if args[0] != 1 || args[1] != 2 {
		t.Errorf("expected id(1) to be emitted before id(2), got argument order %v", args)
	}
}

func TestAssignEmitsStoreToExistingLocal(t *testing.T) {
	mod := translate(t, `fn main() -> s32 { let x: s32 = 1; x = 2; x }`)
	fn := findFunc(t, mod, "main")
	everyBlockHasOneTerminator(t, fn)

	var sawLocalStore bool
	for _, bb := range fn.Blocks {
		for _, s := range bb.Statements {
			if s.Dst.Kind == mir.LLocal {
				sawLocalStore = true
			}
		}
	}
	if !sawLocalStore {
		t.Error("expected at least one store to a local")
	}
}

func TestReferenceAndDeref(t *testing.T) {
	mod := translate(t, `
fn deref_it(r: &s32) -> s32 { *r }
fn main() -> s32 { let x = 5; deref_it(&x) }
`)
	everyBlockHasOneTerminator(t, findFunc(t, mod, "deref_it"))
	everyBlockHasOneTerminator(t, findFunc(t, mod, "main"))

	fn := findFunc(t, mod, "deref_it")
	var sawDeref bool
	for _, bb := range fn.Blocks {
		for _, s := range bb.Statements {
			if s.Src.Kind == mir.RUnOp && s.Src.UnOp == mir.UDeref {
				sawDeref = true
			}
		}
	}
	if !sawDeref {
		t.Error("expected a Deref unop in deref_it's MIR")
	}
}
