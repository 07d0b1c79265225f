package llvm_test

import (
	"strings"
	"testing"

	"github.com/nova-lang/novac/backend/llvm"
	"github.com/nova-lang/novac/checker"
	"github.com/nova-lang/novac/lexer"
	"github.com/nova-lang/novac/mir"
	"github.com/nova-lang/novac/parser"
	"github.com/nova-lang/novac/types"
)

func emit(t *testing.T, src string) string {
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
	ir, err := llvm.New().Emit(mod)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	return ir
}

func TestEmitDefinesFunction(t *testing.T) {
	ir := emit(t, `fn main() -> s32 { return 42; }`)
	if !strings.Contains(ir, "define") {
		t.Error("expected a function definition in the emitted IR")
	}
}

func TestEmitConditionalBranch(t *testing.T) {
	ir := emit(t, `fn main() -> s32 { if true { 1 } else { 2 } }`)
	if !strings.Contains(ir, "br i1") {
		t.Error("expected a conditional branch for the if expression")
	}
}

func TestEmitCall(t *testing.T) {
	ir := emit(t, `
fn id(x: s32) -> s32 { return x; }
fn main() -> s32 { id(1) }
`)
	if !strings.Contains(ir, "call") {
		t.Error("expected a call instruction")
	}
}

func TestEmitDivisionGuardsAgainstZero(t *testing.T) {
	ir := emit(t, `fn main() -> s32 { let a: s32 = 10; let b: s32 = 2; a / b }`)
	if !strings.Contains(ir, "llvm.trap") {
		t.Error("expected division to lower through a zero-check that traps")
	}
	if !strings.Contains(ir, "sdiv") {
		t.Error("expected a signed division instruction")
	}
}

func TestEmitUnitReturnIsVoid(t *testing.T) {
	ir := emit(t, `fn main() { let x: s32 = 1; }`)
	if !strings.Contains(ir, "define void @main") {
		t.Errorf("expected a Unit-returning function to lower to void, got:\n%s", ir)
	}
}

func TestEmitReferenceAndDeref(t *testing.T) {
	ir := emit(t, `
fn deref_it(r: &s32) -> s32 { *r }
fn main() -> s32 { let x = 5; deref_it(&x) }
`)
	if !strings.Contains(ir, "define i32 @deref_it(ptr") {
		t.Errorf("expected deref_it to take a pointer parameter, got:\n%s", ir)
	}
}
