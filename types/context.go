// Package types implements the compiler's type representation: an
// interning TypeContext (spec §4.3) and a per-function UnionFind over
// inference variables (spec §4.3).
package types

import "fmt"

// Kind tags the variant of a Type.
type Kind int

const (
	KindSInt Kind = iota
	KindUInt
	KindBool
	KindUnit
	KindReference
	KindDiverging
	KindInfer
	KindInferInt
)

// variant is the content key used to intern a Type: two variants with
// equal fields always resolve to the same *Type handle.
type variant struct {
	kind  Kind
	width int   // SInt/UInt
	inner *Type // Reference
	id    int   // Infer/InferInt
}

// Type is an interned handle. Handle equality (pointer equality, since
// the context never hands out two *Type for the same variant) is
// equivalent to structural equality.
type Type struct {
	v variant
}

func (t *Type) Kind() Kind { return t.v.kind }

// Width returns the bit width of an SInt/UInt type.
func (t *Type) Width() int { return t.v.width }

// Elem returns the referent of a Reference type.
func (t *Type) Elem() *Type { return t.v.inner }

// InferID returns the inference variable id of an Infer/InferInt type.
func (t *Type) InferID() int { return t.v.id }

// IsInteger reports whether t is SInt or UInt of any width.
func (t *Type) IsInteger() bool {
	return t.v.kind == KindSInt || t.v.kind == KindUInt
}

// IsSigned reports whether t is SInt of any width.
func (t *Type) IsSigned() bool { return t.v.kind == KindSInt }

func (t *Type) String() string {
	switch t.v.kind {
	case KindSInt:
		return fmt.Sprintf("s%d", t.v.width)
	case KindUInt:
		return fmt.Sprintf("u%d", t.v.width)
	case KindBool:
		return "bool"
	case KindUnit:
		return "()"
	case KindReference:
		return "&" + t.v.inner.String()
	case KindDiverging:
		return "!"
	case KindInfer:
		return fmt.Sprintf("?%d", t.v.id)
	case KindInferInt:
		return fmt.Sprintf("?int%d", t.v.id)
	default:
		return "<unknown type>"
	}
}

// TypeContext is the interning hub for Types: the arena plus a
// content-keyed map from variant to the stable handle for it. It is
// created once per compilation and outlives every other compiler
// structure; after warm-up it is only ever grown (new types interned),
// never mutated in place.
type TypeContext struct {
	table   map[variant]*Type
	nextVar int
}

// NewTypeContext creates an empty TypeContext, pre-interning nothing:
// every call below interns (or returns the existing handle for) one
// canonical Type.
func NewTypeContext() *TypeContext {
	return &TypeContext{table: make(map[variant]*Type)}
}

func (c *TypeContext) intern(v variant) *Type {
	if t, ok := c.table[v]; ok {
		return t
	}
	t := &Type{v: v}
	c.table[v] = t
	return t
}

func (c *TypeContext) SInt(width int) *Type {
	return c.intern(variant{kind: KindSInt, width: width})
}

func (c *TypeContext) UInt(width int) *Type {
	return c.intern(variant{kind: KindUInt, width: width})
}

func (c *TypeContext) Bool() *Type { return c.intern(variant{kind: KindBool}) }

func (c *TypeContext) Unit() *Type { return c.intern(variant{kind: KindUnit}) }

func (c *TypeContext) Diverging() *Type { return c.intern(variant{kind: KindDiverging}) }

func (c *TypeContext) Ref(inner *Type) *Type {
	return c.intern(variant{kind: KindReference, inner: inner})
}

// Infer allocates a fresh, always-distinct generic inference variable.
func (c *TypeContext) Infer() *Type {
	id := c.nextVar
	c.nextVar++
	return &Type{v: variant{kind: KindInfer, id: id}}
}

// InferInt allocates a fresh, always-distinct integer-constrained
// inference variable.
func (c *TypeContext) InferInt() *Type {
	id := c.nextVar
	c.nextVar++
	return &Type{v: variant{kind: KindInferInt, id: id}}
}

// IntWidths lists the bit widths of the sized integer types
// (s8/s16/s32/s64, u8/u16/u32/u64). FromName and the parser's suffix
// table each spell out the same widths themselves.
var IntWidths = []int{8, 16, 32, 64}

// FromName resolves a surface type name (spec §4.2 Type production's
// Ident case) to a concrete Type, or reports it unknown.
func (c *TypeContext) FromName(name string) (*Type, bool) {
	switch name {
	case "bool":
		return c.Bool(), true
	case "()":
		return c.Unit(), true
	}
	if len(name) >= 2 {
		var signed bool
		switch name[0] {
		case 's':
			signed = true
		case 'u':
			signed = false
		default:
			return nil, false
		}
		width := 0
		switch name[1:] {
		case "8":
			width = 8
		case "16":
			width = 16
		case "32":
			width = 32
		case "64":
			width = 64
		default:
			return nil, false
		}
		if signed {
			return c.SInt(width), true
		}
		return c.UInt(width), true
	}
	return nil, false
}
