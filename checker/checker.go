// Package checker implements the bidirectional, two-phase type checker
// described in spec §4.4: Phase 1 (unifyType) propagates and unifies
// type obligations over the AST using a per-function union-find; Phase
// 2 (finalize) replaces every inference variable with its resolved
// concrete type and runs the checks that only make sense once types are
// settled.
package checker

import (
	"fmt"

	"github.com/nova-lang/novac/ast"
	"github.com/nova-lang/novac/types"
)

type funcSig struct {
	paramNames []string
	paramTypes []*types.Type
	ret        *types.Type
	line       int
}

// Checker type-checks a whole File against one TypeContext.
type Checker struct {
	ctx   *types.TypeContext
	funcs map[string]*funcSig
}

// New creates a Checker that interns types into ctx.
func New(ctx *types.TypeContext) *Checker {
	return &Checker{ctx: ctx, funcs: map[string]*funcSig{}}
}

// Check type-checks file in place: every Expr.Ty ends up holding a
// *types.Type once Check returns nil.
func Check(file *ast.File, ctx *types.TypeContext) error {
	return New(ctx).CheckFile(file)
}

func (c *Checker) CheckFile(file *ast.File) error {
	for _, item := range file.Items {
		fn := item.(*ast.FuncDecl)
		sig, err := c.resolveSig(fn)
		if err != nil {
			return err
		}
		c.funcs[fn.Name] = sig
	}

	if _, ok := c.funcs["main"]; !ok {
		return &FunctionDoesntExistError{Name: "main", Line: 0}
	}

	for _, item := range file.Items {
		fn := item.(*ast.FuncDecl)
		if err := c.checkFunc(fn); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) resolveSig(fn *ast.FuncDecl) (*funcSig, error) {
	sig := &funcSig{line: fn.Line}
	for _, p := range fn.Params {
		ty, err := c.resolveType(p.Type)
		if err != nil {
			return nil, err
		}
		sig.paramNames = append(sig.paramNames, p.Name)
		sig.paramTypes = append(sig.paramTypes, ty)
	}
	if fn.Ret == nil {
		sig.ret = c.ctx.Unit()
	} else {
		ret, err := c.resolveType(fn.Ret)
		if err != nil {
			return nil, err
		}
		sig.ret = ret
	}
	return sig, nil
}

func (c *Checker) resolveType(t ast.Type) (*types.Type, error) {
	switch t := t.(type) {
	case *ast.NamedType:
		ty, ok := c.ctx.FromName(t.Name)
		if !ok {
			return nil, &UnknownTypeError{Found: t.Name, Line: t.Line}
		}
		return ty, nil
	case *ast.RefType:
		inner, err := c.resolveType(t.Inner)
		if err != nil {
			return nil, err
		}
		return c.ctx.Ref(inner), nil
	default:
		return nil, &UnknownTypeError{Found: "?", Line: 0}
	}
}

// UnknownTypeError mirrors the parser's, reused here since a NamedType
// node can reach the checker without the parser itself ever validating
// the name (it only validates grammar shape, not semantics).
type UnknownTypeError struct {
	Found string
	Line  int
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%d: unknown type %q", e.Line, e.Found)
}

// funcChecker holds the per-function state: its union-find, its
// variable bindings (locals and parameters share one namespace), and
// enough context to name itself in diagnostics.
type funcChecker struct {
	c      *Checker
	uf     *types.UnionFind
	locals map[string]*types.Type
	sig    *funcSig
	name   string
}

func (c *Checker) checkFunc(fn *ast.FuncDecl) error {
	sig := c.funcs[fn.Name]
	fc := &funcChecker{
		c:      c,
		uf:     types.NewUnionFind(c.ctx),
		locals: map[string]*types.Type{},
		sig:    sig,
		name:   fn.Name,
	}
	for i, name := range sig.paramNames {
		fc.locals[name] = sig.paramTypes[i]
	}

	live, err := fc.typecheckBlock(fn.Body, sig.ret)
	if err != nil {
		return err
	}
	_ = live

	return fc.finalizeBlock(fn.Body)
}

func cloneLocals(m map[string]*types.Type) map[string]*types.Type {
	out := make(map[string]*types.Type, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// unify reports a generic Phase-1 failure as CouldNotUnify.
func (fc *funcChecker) unify(line int, a, b *types.Type) error {
	if err := fc.uf.Unify(a, b); err != nil {
		return &CouldNotUnifyError{First: a.String(), Second: b.String(), Function: fc.name, Line: line}
	}
	return nil
}

// unifyAnnotated reports a Phase-1 failure against a declaration-known
// expected type (a return type or an explicit let annotation) as
// IncorrectType instead of CouldNotUnify.
func (fc *funcChecker) unifyAnnotated(line int, expected, found *types.Type) error {
	if err := fc.uf.Unify(found, expected); err != nil {
		return &IncorrectTypeError{Expected: expected.String(), Found: found.String(), Line: line}
	}
	return nil
}

// typecheckBlock is Phase 1 over a Block: walk statements (registering
// Let bindings, checking each ExprStmt's value), stop at a bare-return
// statement (everything after it is unreachable), then unify the
// trailing expression (or Unit, if absent) against expected. Returns
// whether the block is still "live" (did not diverge via return).
func (fc *funcChecker) typecheckBlock(blk *ast.Block, expected *types.Type) (bool, error) {
	saved := fc.locals
	fc.locals = cloneLocals(saved)
	defer func() { fc.locals = saved }()

	for i, stmt := range blk.Stmts {
		switch s := stmt.(type) {
		case *ast.LetStmt:
			var varTy *types.Type
			if s.Type != nil {
				resolved, err := fc.c.resolveType(s.Type)
				if err != nil {
					return false, err
				}
				if s.Value != nil {
					if err := fc.unifyTypeAnnotated(s.Value, resolved); err != nil {
						return false, err
					}
				}
				varTy = resolved
			} else if s.Value != nil {
				fresh := fc.c.ctx.Infer()
				if err := fc.unifyType(s.Value, fresh); err != nil {
					return false, err
				}
				varTy = fresh
			} else {
				varTy = fc.c.ctx.Infer()
			}
			fc.locals[s.Name] = varTy
			s.Ty = varTy

		case *ast.ExprStmt:
			if s.X.Kind == ast.Return {
				if err := fc.unifyType(s.X, fc.c.ctx.Infer()); err != nil {
					return false, err
				}
				if i != len(blk.Stmts)-1 || blk.Expr != nil {
					return false, &StatementsAfterReturnError{Line: s.Line}
				}
				return false, nil
			}
			if err := fc.unifyType(s.X, fc.c.ctx.Infer()); err != nil {
				return false, err
			}
		}
	}

	if blk.Expr != nil {
		if err := fc.unifyType(blk.Expr, expected); err != nil {
			return false, err
		}
	} else {
		if err := fc.unify(blk.Line, fc.c.ctx.Unit(), expected); err != nil {
			return false, err
		}
	}
	return true, nil
}

// unifyTypeAnnotated and unifyType both run unifyTypeInner; the first
// reports a failure of the node's own type against expected as
// IncorrectType, the second as CouldNotUnify.
func (fc *funcChecker) unifyTypeAnnotated(e *ast.Expr, expected *types.Type) error {
	if err := fc.unifyTypeInner(e, expected, true); err != nil {
		return err
	}
	return nil
}

func (fc *funcChecker) unifyType(e *ast.Expr, expected *types.Type) error {
	return fc.unifyTypeInner(e, expected, false)
}

// unifyTypeInner is Phase 1 over one Expr node, implementing every
// per-kind contract in spec §4.4. annotated controls whether a failure
// unifying this node's own type against expected is reported as
// IncorrectType (true — expected came from a declared annotation) or
// CouldNotUnify (false — expected came from another expression).
func (fc *funcChecker) unifyTypeInner(e *ast.Expr, expected *types.Type, annotated bool) error {
	fail := func(line int, a, b *types.Type) error {
		if annotated {
			return fc.unifyAnnotated(line, b, a)
		}
		return fc.unify(line, a, b)
	}

	switch e.Kind {
	case ast.IntLiteral:
		var ty *types.Type
		if e.IntSuffix == "" {
			ty = fc.c.ctx.InferInt()
		} else {
			resolved, ok := fc.c.ctx.FromName(e.IntSuffix)
			if !ok {
				return &UnknownTypeError{Found: e.IntSuffix, Line: e.Line}
			}
			ty = resolved
		}
		e.Ty = ty
		return fail(e.Line, ty, expected)

	case ast.BoolLiteral:
		e.Ty = fc.c.ctx.Bool()
		return fail(e.Line, e.Ty.(*types.Type), expected)

	case ast.UnitLiteral:
		e.Ty = fc.c.ctx.Unit()
		return fail(e.Line, e.Ty.(*types.Type), expected)

	case ast.Variable:
		ty, ok := fc.locals[e.Name]
		if !ok {
			return &UndefinedVariableError{Name: e.Name, Line: e.Line}
		}
		e.Ty = ty
		return fail(e.Line, ty, expected)

	case ast.Pos, ast.Neg, ast.Not:
		if err := fc.unifyType(e.X, expected); err != nil {
			return err
		}
		innerTy, _ := e.X.Ty.(*types.Type)
		e.Ty = innerTy
		return fail(e.Line, innerTy, expected)

	case ast.Ref:
		innerExpected, err := fc.asReference(expected, e.Line)
		if err != nil {
			return err
		}
		if err := fc.unifyType(e.X, innerExpected); err != nil {
			return err
		}
		innerTy, _ := e.X.Ty.(*types.Type)
		e.Ty = fc.c.ctx.Ref(innerTy)
		return fc.unify(e.Line, e.Ty.(*types.Type), expected)

	case ast.Deref:
		selfTy := fc.c.ctx.Infer()
		if err := fail(e.Line, selfTy, expected); err != nil {
			return err
		}
		if err := fc.unifyType(e.X, fc.c.ctx.Ref(selfTy)); err != nil {
			return err
		}
		e.Ty = selfTy
		return nil

	case ast.Binop:
		if e.Op.IsComparison() {
			shared := fc.c.ctx.Infer()
			if err := fc.unifyType(e.Lhs, shared); err != nil {
				return err
			}
			if err := fc.unifyType(e.Rhs, shared); err != nil {
				return err
			}
			e.Ty = fc.c.ctx.Bool()
			return fail(e.Line, e.Ty.(*types.Type), expected)
		}
		if e.Op.IsShortCircuit() {
			if err := fc.unifyType(e.Lhs, fc.c.ctx.Bool()); err != nil {
				return err
			}
			if err := fc.unifyType(e.Rhs, fc.c.ctx.Bool()); err != nil {
				return err
			}
			e.Ty = fc.c.ctx.Bool()
			return fail(e.Line, e.Ty.(*types.Type), expected)
		}
		// Arithmetic / bitwise / shift: lhs and rhs share self.ty.
		shared := fc.c.ctx.Infer()
		if err := fc.unifyType(e.Lhs, shared); err != nil {
			return err
		}
		if err := fc.unifyType(e.Rhs, shared); err != nil {
			return err
		}
		e.Ty = shared
		return fail(e.Line, shared, expected)

	case ast.Call:
		sig, ok := fc.c.funcs[e.Name]
		if !ok {
			return &FunctionDoesntExistError{Name: e.Name, Line: e.Line}
		}
		if len(e.Args) != len(sig.paramTypes) {
			return &IncorrectNumberOfArgumentsError{Function: e.Name, Expected: len(sig.paramTypes), Found: len(e.Args), Line: e.Line}
		}
		for i, arg := range e.Args {
			if err := fc.unifyType(arg, sig.paramTypes[i]); err != nil {
				return err
			}
		}
		e.Ty = sig.ret
		return fail(e.Line, sig.ret, expected)

	case ast.If:
		if err := fc.unifyType(e.Cond, fc.c.ctx.Bool()); err != nil {
			return err
		}
		if e.Else == nil {
			unitTy := fc.c.ctx.Unit()
			if _, err := fc.typecheckBlock(e.Then, unitTy); err != nil {
				return err
			}
			e.Ty = unitTy
			return fail(e.Line, unitTy, expected)
		}
		if _, err := fc.typecheckBlock(e.Then, expected); err != nil {
			return err
		}
		if err := fc.unifyType(e.Else, expected); err != nil {
			return err
		}
		e.Ty = expected
		return nil

	case ast.BlockExpr:
		if _, err := fc.typecheckBlock(e.Blk, expected); err != nil {
			return err
		}
		e.Ty = expected
		return nil

	case ast.Return:
		e.Ty = fc.c.ctx.Diverging()
		var innerTy *types.Type
		if e.X != nil {
			if err := fc.unifyTypeAnnotated(e.X, fc.sig.ret); err != nil {
				return err
			}
			innerTy, _ = e.X.Ty.(*types.Type)
		} else {
			innerTy = fc.c.ctx.Unit()
		}
		return fc.unifyAnnotated(e.Line, fc.sig.ret, innerTy)

	case ast.Assign:
		dstTy, ok := fc.locals[e.Name]
		if !ok {
			return &UndefinedVariableError{Name: e.Name, Line: e.Line}
		}
		if err := fc.unifyType(e.X, dstTy); err != nil {
			return err
		}
		e.Ty = fc.c.ctx.Unit()
		return fail(e.Line, e.Ty.(*types.Type), expected)

	default:
		return &UnknownTypeError{Found: e.Kind.String(), Line: e.Line}
	}
}

// finalizeBlock is Phase 2 over a Block: every Expr.Ty gets rewritten
// from its (possibly still-generic) Phase-1 binding to its resolved
// actual type, and operator-specific validations that only make sense
// once types are concrete run here.
func (fc *funcChecker) finalizeBlock(blk *ast.Block) error {
	for _, stmt := range blk.Stmts {
		switch s := stmt.(type) {
		case *ast.LetStmt:
			if s.Value != nil {
				if err := fc.finalizeExpr(s.Value); err != nil {
					return err
				}
				s.Ty = s.Value.Ty
			} else {
				ty, _ := s.Ty.(*types.Type)
				actual, ok := fc.uf.ActualType(ty)
				if !ok {
					return &NoActualTypeError{Line: s.Line}
				}
				s.Ty = actual
			}
		case *ast.ExprStmt:
			if err := fc.finalizeExpr(s.X); err != nil {
				return err
			}
		}
	}
	if blk.Expr != nil {
		if err := fc.finalizeExpr(blk.Expr); err != nil {
			return err
		}
	}
	return nil
}

func (fc *funcChecker) resolve(e *ast.Expr) (*types.Type, error) {
	ty, _ := e.Ty.(*types.Type)
	actual, ok := fc.uf.ActualType(ty)
	if !ok {
		return nil, &NoActualTypeError{Line: e.Line}
	}
	e.Ty = actual
	return actual, nil
}

func (fc *funcChecker) finalizeExpr(e *ast.Expr) error {
	if _, err := fc.resolve(e); err != nil {
		return err
	}

	switch e.Kind {
	case ast.Pos:
		if err := fc.finalizeExpr(e.X); err != nil {
			return err
		}
		innerTy, _ := e.X.Ty.(*types.Type)
		if !innerTy.IsInteger() {
			return &UnopUnsupportedError{Op: "+", InnerTy: innerTy.String(), Line: e.Line}
		}
	case ast.Neg:
		if err := fc.finalizeExpr(e.X); err != nil {
			return err
		}
		innerTy, _ := e.X.Ty.(*types.Type)
		if !innerTy.IsSigned() {
			return &UnopUnsupportedError{Op: "-", InnerTy: innerTy.String(), Line: e.Line}
		}
	case ast.Not:
		if err := fc.finalizeExpr(e.X); err != nil {
			return err
		}
		innerTy, _ := e.X.Ty.(*types.Type)
		if !innerTy.IsInteger() && innerTy.Kind() != types.KindBool {
			return &UnopUnsupportedError{Op: "!", InnerTy: innerTy.String(), Line: e.Line}
		}
	case ast.Ref, ast.Deref:
		if err := fc.finalizeExpr(e.X); err != nil {
			return err
		}
	case ast.Binop:
		if err := fc.finalizeExpr(e.Lhs); err != nil {
			return err
		}
		if err := fc.finalizeExpr(e.Rhs); err != nil {
			return err
		}
	case ast.Call:
		for _, arg := range e.Args {
			if err := fc.finalizeExpr(arg); err != nil {
				return err
			}
		}
	case ast.If:
		if err := fc.finalizeBlock(e.Then); err != nil {
			return err
		}
		if e.Else != nil {
			if err := fc.finalizeExpr(e.Else); err != nil {
				return err
			}
		}
	case ast.BlockExpr:
		if err := fc.finalizeBlock(e.Blk); err != nil {
			return err
		}
	case ast.Return:
		if e.X != nil {
			if err := fc.finalizeExpr(e.X); err != nil {
				return err
			}
		}
	case ast.Assign:
		if err := fc.finalizeExpr(e.X); err != nil {
			return err
		}
	}

	return nil
}

// asReference resolves expected into the type a Ref expression's inner
// operand must produce: if expected is already a concrete Reference,
// its element type; if expected is still generic, a fresh inference
// variable inner, after expected is unified with Reference(inner).
func (fc *funcChecker) asReference(expected *types.Type, line int) (*types.Type, error) {
	if expected.Kind() == types.KindReference {
		return expected.Elem(), nil
	}
	if expected.Kind() == types.KindInfer || expected.Kind() == types.KindInferInt {
		inner := fc.c.ctx.Infer()
		ref := fc.c.ctx.Ref(inner)
		if err := fc.unify(line, expected, ref); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, &CouldNotUnifyError{First: "&_", Second: expected.String(), Function: fc.name, Line: line}
}
