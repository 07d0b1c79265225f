package types

import "testing"

func TestUnifyInferWithConcrete(t *testing.T) {
	ctx := NewTypeContext()
	uf := NewUnionFind(ctx)
	v := ctx.Infer()
	if err := uf.Unify(v, ctx.Bool()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := uf.ActualType(v)
	if !ok || got != ctx.Bool() {
		t.Fatalf("ActualType = %v, %v; want bool, true", got, ok)
	}
}

func TestInferIntRejectsNonInteger(t *testing.T) {
	ctx := NewTypeContext()
	uf := NewUnionFind(ctx)
	v := ctx.InferInt()
	if err := uf.Unify(v, ctx.Bool()); err == nil {
		t.Fatal("expected InferInt vs Bool to fail")
	}
}

func TestInferIntUnifiesWithIntegers(t *testing.T) {
	ctx := NewTypeContext()
	uf := NewUnionFind(ctx)
	v := ctx.InferInt()
	if err := uf.Unify(v, ctx.UInt(16)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := uf.ActualType(v)
	if !ok || got != ctx.UInt(16) {
		t.Fatalf("ActualType = %v, %v; want u16, true", got, ok)
	}
}

func TestInferIntDefaultsToSInt32(t *testing.T) {
	ctx := NewTypeContext()
	uf := NewUnionFind(ctx)
	v := ctx.InferInt()
	got, ok := uf.ActualType(v)
	if !ok || got != ctx.SInt(32) {
		t.Fatalf("unresolved InferInt should default to s32, got %v, %v", got, ok)
	}
}

func TestDivergingUnifiesWithAnything(t *testing.T) {
	ctx := NewTypeContext()
	uf := NewUnionFind(ctx)
	if err := uf.Unify(ctx.Diverging(), ctx.Bool()); err != nil {
		t.Fatalf("Diverging must unify with anything: %v", err)
	}
	if err := uf.Unify(ctx.SInt(8), ctx.Diverging()); err != nil {
		t.Fatalf("Diverging must unify with anything: %v", err)
	}
}

func TestReferenceUnifiesStructurally(t *testing.T) {
	ctx := NewTypeContext()
	uf := NewUnionFind(ctx)
	v := ctx.Infer()
	if err := uf.Unify(ctx.Ref(v), ctx.Ref(ctx.SInt(32))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := uf.ActualType(v)
	if !ok || got != ctx.SInt(32) {
		t.Fatalf("reference unification should bind the inner var, got %v %v", got, ok)
	}
}

func TestUnrelatedConcreteTypesFailToUnify(t *testing.T) {
	ctx := NewTypeContext()
	uf := NewUnionFind(ctx)
	if err := uf.Unify(ctx.Bool(), ctx.SInt(32)); err == nil {
		t.Fatal("expected Bool vs SInt(32) to fail")
	}
}

func TestTwoInferVarsUnionTogether(t *testing.T) {
	ctx := NewTypeContext()
	uf := NewUnionFind(ctx)
	a, b := ctx.Infer(), ctx.Infer()
	if err := uf.Unify(a, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := uf.Unify(b, ctx.SInt(64)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := uf.ActualType(a)
	if !ok || got != ctx.SInt(64) {
		t.Fatalf("union should propagate binding to a, got %v %v", got, ok)
	}
}
