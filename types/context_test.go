package types

import "testing"

func TestInterningIsCanonical(t *testing.T) {
	ctx := NewTypeContext()
	if ctx.SInt(32) != ctx.SInt(32) {
		t.Fatal("SInt(32) should intern to the same handle")
	}
	if ctx.Ref(ctx.Bool()) != ctx.Ref(ctx.Bool()) {
		t.Fatal("Ref(Bool) should intern to the same handle")
	}
	if ctx.SInt(32) == ctx.SInt(64) {
		t.Fatal("distinct widths must not share a handle")
	}
}

func TestInferIsAlwaysFresh(t *testing.T) {
	ctx := NewTypeContext()
	a, b := ctx.Infer(), ctx.Infer()
	if a == b {
		t.Fatal("two Infer() calls must yield distinct handles")
	}
	if a.InferID() == b.InferID() {
		t.Fatal("two Infer() calls must yield distinct ids")
	}
}

func TestFromName(t *testing.T) {
	ctx := NewTypeContext()
	cases := map[string]*Type{
		"s8": ctx.SInt(8), "s32": ctx.SInt(32), "u64": ctx.UInt(64),
		"bool": ctx.Bool(), "()": ctx.Unit(),
	}
	for name, want := range cases {
		got, ok := ctx.FromName(name)
		if !ok || got != want {
			t.Errorf("FromName(%q) = %v, %v; want %v, true", name, got, ok, want)
		}
	}
	if _, ok := ctx.FromName("nope"); ok {
		t.Error("FromName(\"nope\") should fail")
	}
}
