package types

import "fmt"

// UnionFind is a disjoint-set over inference variable ids, as used by
// one function's type-check (spec §4.3). It is created per function
// and discarded after finalize.
type UnionFind struct {
	ctx *TypeContext

	// parent[id] == id means id is a root. Otherwise it points toward
	// the root, with path compression applied on find.
	parent []int
	rank   []int

	// concrete[root] is the concrete type bound to that equivalence
	// class, or nil if the class is still generic.
	concrete []*Type

	// isIntOnly[root] marks a still-generic class as integer-constrained
	// (it originated from at least one InferInt).
	isIntOnly []bool
}

// NewUnionFind creates an empty UnionFind against ctx.
func NewUnionFind(ctx *TypeContext) *UnionFind {
	return &UnionFind{ctx: ctx}
}

func (u *UnionFind) ensure(id int) {
	for len(u.parent) <= id {
		u.parent = append(u.parent, len(u.parent))
		u.rank = append(u.rank, 0)
		u.concrete = append(u.concrete, nil)
		u.isIntOnly = append(u.isIntOnly, false)
	}
}

func (u *UnionFind) find(id int) int {
	u.ensure(id)
	for u.parent[id] != id {
		u.parent[id] = u.parent[u.parent[id]]
		id = u.parent[id]
	}
	return id
}

func (u *UnionFind) union(a, b int) int {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return ra
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
	// Merge concrete bindings and integer-only markers onto the new root.
	if u.concrete[rb] != nil && u.concrete[ra] == nil {
		u.concrete[ra] = u.concrete[rb]
	}
	u.isIntOnly[ra] = u.isIntOnly[ra] || u.isIntOnly[rb]
	return ra
}

func (u *UnionFind) bind(id int, t *Type) {
	root := u.find(id)
	u.concrete[root] = t
}

// UnifyError is returned by Unify when two types cannot be reconciled.
// The checker wraps it into a CouldNotUnifyError or an
// IncorrectTypeError carrying the surrounding expression/function
// context.
type UnifyError struct {
	First, Second *Type
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s", e.First, e.Second)
}

// Unify attempts to reconcile a and b per the rules in spec §4.3.
func (u *UnionFind) Unify(a, b *Type) error {
	if a == b {
		return nil
	}
	if a.Kind() == KindDiverging || b.Kind() == KindDiverging {
		return nil
	}

	aInfer := a.Kind() == KindInfer || a.Kind() == KindInferInt
	bIsInferKind := b.Kind() == KindInfer || b.Kind() == KindInferInt

	switch {
	case aInfer && bIsInferKind:
		ca, cb := u.concrete[u.find(a.InferID())], u.concrete[u.find(b.InferID())]
		root := u.union(a.InferID(), b.InferID())
		if a.Kind() == KindInferInt || b.Kind() == KindInferInt {
			u.isIntOnly[root] = true
		}
		if ca != nil && cb != nil {
			return u.Unify(ca, cb)
		}
		if c := u.concrete[root]; c != nil && u.isIntOnly[root] && !c.IsInteger() {
			return &UnifyError{First: a, Second: b}
		}
		return nil

	case aInfer && !bIsInferKind:
		root := u.find(a.InferID())
		if bound := u.concrete[root]; bound != nil {
			return u.Unify(bound, b)
		}
		if (a.Kind() == KindInferInt || u.isIntOnly[root]) && !b.IsInteger() {
			return &UnifyError{First: a, Second: b}
		}
		u.bind(a.InferID(), b)
		return nil

	case !aInfer && bIsInferKind:
		return u.Unify(b, a)

	case a.Kind() == KindReference && b.Kind() == KindReference:
		return u.Unify(a.Elem(), b.Elem())

	default:
		return &UnifyError{First: a, Second: b}
	}
}

// ActualType resolves t to a concrete type, or returns ok=false if it
// is still an unresolved generic Infer. An unresolved InferInt
// defaults to SInt(32) and always succeeds (spec §4.3/§8).
func (u *UnionFind) ActualType(t *Type) (*Type, bool) {
	switch t.Kind() {
	case KindInfer, KindInferInt:
		root := u.find(t.InferID())
		if u.concrete[root] != nil {
			return u.ActualType(u.concrete[root])
		}
		if t.Kind() == KindInferInt || u.isIntOnly[root] {
			return u.ctx.SInt(32), true
		}
		return nil, false
	case KindReference:
		inner, ok := u.ActualType(t.Elem())
		if !ok {
			return nil, false
		}
		return u.ctx.Ref(inner), true
	default:
		return t, true
	}
}
