package mir

import (
	"fmt"

	"github.com/nova-lang/novac/ast"
	"github.com/nova-lang/novac/types"
)

// TranslateError is returned for an AST shape that type-checking should
// already have ruled out (spec §4.7: "the translator assumes type-check
// success... violations are internal compiler errors").
type TranslateError struct {
	Msg  string
	Line int
}

func (e *TranslateError) Error() string {
	return fmt.Sprintf("%d: internal compiler error: %s", e.Line, e.Msg)
}

// TranslateFile lowers a type-checked File to a Module. Every Expr.Ty
// in file is assumed to already hold a concrete *types.Type (checker.Check
// must have returned nil first).
func TranslateFile(file *ast.File, ctx *types.TypeContext) (*Module, error) {
	mod := &Module{}
	for _, item := range file.Items {
		fn := item.(*ast.FuncDecl)
		mirFn, err := translateFunc(fn, ctx)
		if err != nil {
			return nil, err
		}
		mod.Functions = append(mod.Functions, mirFn)
	}
	return mod, nil
}

func resolveType(t ast.Type, ctx *types.TypeContext) (*types.Type, error) {
	switch t := t.(type) {
	case *ast.NamedType:
		ty, ok := ctx.FromName(t.Name)
		if !ok {
			return nil, &TranslateError{Msg: "unknown type " + t.Name, Line: t.Line}
		}
		return ty, nil
	case *ast.RefType:
		inner, err := resolveType(t.Inner, ctx)
		if err != nil {
			return nil, err
		}
		return ctx.Ref(inner), nil
	default:
		return nil, &TranslateError{Msg: "unknown type node"}
	}
}

func translateFunc(fn *ast.FuncDecl, ctx *types.TypeContext) (*Function, error) {
	params := make([]Param, len(fn.Params))
	for i, p := range fn.Params {
		ty, err := resolveType(p.Type, ctx)
		if err != nil {
			return nil, err
		}
		params[i] = Param{Name: p.Name, Ty: ty}
	}
	var ret *types.Type
	if fn.Ret == nil {
		ret = ctx.Unit()
	} else {
		r, err := resolveType(fn.Ret, ctx)
		if err != nil {
			return nil, err
		}
		ret = r
	}

	b, cur := NewFunction(ctx, fn.Name, params, ret)

	locals := map[string]Lvalue{}
	for i, p := range fn.Params {
		locals[p.Name] = b.GetParam(i)
	}

	value, cur, err := translateBlock(b, fn.Body, cur, locals)
	if err != nil {
		return nil, err
	}
	if cur != nil {
		// Body fell off the end still live: its trailing value is the
		// function's implicit result.
		b.EarlyRet(cur, value)
	}
	b.SealDeadBlocks()
	return b.Function(), nil
}

func cloneScope(m map[string]Lvalue) map[string]Lvalue {
	out := make(map[string]Lvalue, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// translateBlock threads cur through blk's statements, stopping as
// soon as one diverges, then translates the trailing expression (or
// synthesizes Unit) if still live.
func translateBlock(b *Builder, blk *ast.Block, cur *Cursor, locals map[string]Lvalue) (*Rvalue, *Cursor, error) {
	scope := cloneScope(locals)

	for _, stmt := range blk.Stmts {
		if cur == nil {
			break
		}
		switch s := stmt.(type) {
		case *ast.LetStmt:
			ty, _ := typeOfLetStmt(s)
			lv := b.NewLocal(s.Name, ty)
			scope[s.Name] = lv
			if s.Value != nil {
				var val *Rvalue
				var err error
				val, cur, err = translateExpr(b, s.Value, cur, scope)
				if err != nil {
					return nil, nil, err
				}
				if cur == nil {
					break
				}
				b.WriteToVar(cur, lv, val)
			}
		case *ast.ExprStmt:
			var err error
			_, cur, err = translateExpr(b, s.X, cur, scope)
			if err != nil {
				return nil, nil, err
			}
		}
	}
	if cur == nil {
		return nil, nil, nil
	}

	if blk.Expr != nil {
		return translateExpr(b, blk.Expr, cur, scope)
	}
	return Const(0, b.ctx.Unit()), cur, nil
}

func typeOfLetStmt(s *ast.LetStmt) (*types.Type, bool) {
	ty, ok := s.Ty.(*types.Type)
	return ty, ok
}

func tyOf(e *ast.Expr) *types.Type {
	ty, _ := e.Ty.(*types.Type)
	return ty
}

// translateExpr is spec §4.6's `translate(expr, current_block)`.
func translateExpr(b *Builder, e *ast.Expr, cur *Cursor, locals map[string]Lvalue) (*Rvalue, *Cursor, error) {
	ty := tyOf(e)

	switch e.Kind {
	case ast.IntLiteral:
		return Const(e.IntValue, ty), cur, nil

	case ast.BoolLiteral:
		return ConstBoolVal(e.BoolValue, ty), cur, nil

	case ast.UnitLiteral:
		return Const(0, ty), cur, nil

	case ast.Variable:
		lv, ok := locals[e.Name]
		if !ok {
			return nil, nil, &TranslateError{Msg: "undefined variable " + e.Name, Line: e.Line}
		}
		return UseOf(lv), cur, nil

	case ast.Pos, ast.Neg, ast.Not:
		inner, cur, err := translateExpr(b, e.X, cur, locals)
		if err != nil || cur == nil {
			return nil, nil, err
		}
		op := map[ast.ExprKind]UnOp{ast.Pos: UPos, ast.Neg: UNeg, ast.Not: UNot}[e.Kind]
		return UseOf(b.unOp(cur, op, ty, inner)), cur, nil

	case ast.Ref:
		if e.X.Kind != ast.Variable {
			return nil, nil, &TranslateError{Msg: "reference operand must be a variable", Line: e.Line}
		}
		lv, ok := locals[e.X.Name]
		if !ok {
			return nil, nil, &TranslateError{Msg: "undefined variable " + e.X.Name, Line: e.Line}
		}
		return UseOf(b.Ref_(cur, ty, lv)), cur, nil

	case ast.Deref:
		inner, cur, err := translateExpr(b, e.X, cur, locals)
		if err != nil || cur == nil {
			return nil, nil, err
		}
		return UseOf(b.DerefOp(cur, ty, inner)), cur, nil

	case ast.Binop:
		return translateBinop(b, e, cur, locals)

	case ast.Call:
		args := make([]*Rvalue, len(e.Args))
		for i, argExpr := range e.Args {
			var err error
			args[i], cur, err = translateExpr(b, argExpr, cur, locals)
			if err != nil || cur == nil {
				return nil, nil, err
			}
		}
		return UseOf(b.CallOp(cur, ty, e.Name, args)), cur, nil

	case ast.If:
		return translateIf(b, e, cur, locals)

	case ast.BlockExpr:
		return translateBlock(b, e.Blk, cur, locals)

	case ast.Return:
		if e.X == nil {
			b.EarlyRet(cur, Const(0, b.ctx.Unit()))
			return nil, nil, nil
		}
		val, cur, err := translateExpr(b, e.X, cur, locals)
		if err != nil {
			return nil, nil, err
		}
		if cur == nil {
			return nil, nil, nil
		}
		b.EarlyRet(cur, val)
		return nil, nil, nil

	case ast.Assign:
		lv, ok := locals[e.Name]
		if !ok {
			return nil, nil, &TranslateError{Msg: "undefined variable " + e.Name, Line: e.Line}
		}
		val, cur, err := translateExpr(b, e.X, cur, locals)
		if err != nil || cur == nil {
			return nil, nil, err
		}
		b.WriteToVar(cur, lv, val)
		return Const(0, ty), cur, nil

	default:
		return nil, nil, &TranslateError{Msg: "unhandled expression kind " + e.Kind.String(), Line: e.Line}
	}
}

// translateBinop handles the short-circuit rewrite (spec §4.6: `&&`
// becomes `if !lhs { false } else { rhs }`, `||` becomes
// `if lhs { true } else { rhs }`) and ordinary left-to-right binops.
func translateBinop(b *Builder, e *ast.Expr, cur *Cursor, locals map[string]Lvalue) (*Rvalue, *Cursor, error) {
	// e.Ty already holds the right result type in every case: Bool for
	// comparisons and short-circuit ops, the shared operand type for
	// arithmetic/bitwise/shift.
	boolTy := tyOf(e)

	if e.Op.IsShortCircuit() {
		lhsVal, cur, err := translateExpr(b, e.Lhs, cur, locals)
		if err != nil || cur == nil {
			return nil, nil, err
		}

		var cond *Rvalue
		var thenConst bool
		if e.Op == ast.And {
			// `a && b` ~ `if !a { false } else { b }`
			cond = UseOf(b.Not(cur, boolTy, lhsVal))
			thenConst = false
		} else {
			// `a || b` ~ `if a { true } else { b }`
			cond = lhsVal
			thenConst = true
		}

		thenCur, elseCur, joinCur, result := b.IfElse(cur, boolTy, cond)
		b.Finish(thenCur, ConstBoolVal(thenConst, boolTy))

		rhsVal, rhsEnd, err := translateExpr(b, e.Rhs, elseCur, locals)
		if err != nil {
			return nil, nil, err
		}
		if rhsEnd != nil {
			finishBranch(b, elseCur, rhsEnd, rhsVal)
		}

		return UseOf(result), joinCur, nil
	}

	lhsVal, cur, err := translateExpr(b, e.Lhs, cur, locals)
	if err != nil || cur == nil {
		return nil, nil, err
	}
	rhsVal, cur, err := translateExpr(b, e.Rhs, cur, locals)
	if err != nil || cur == nil {
		return nil, nil, err
	}

	resultTy := boolTy

	opMap := map[ast.BinOp]BinOp{
		ast.Add: BAdd, ast.Sub: BSub, ast.Mul: BMul, ast.Div: BDiv, ast.Rem: BRem,
		ast.Shl: BShl, ast.Shr: BShr, ast.BitAnd: BAnd, ast.BitOr: BOr, ast.BitXor: BXor,
		ast.Eq: BEq, ast.Neq: BNeq, ast.Lt: BLt, ast.Lte: BLte, ast.Gt: BGt, ast.Gte: BGte,
	}
	return UseOf(b.binOp(cur, opMap[e.Op], resultTy, lhsVal, rhsVal)), cur, nil
}

func translateIf(b *Builder, e *ast.Expr, cur *Cursor, locals map[string]Lvalue) (*Rvalue, *Cursor, error) {
	condVal, cur, err := translateExpr(b, e.Cond, cur, locals)
	if err != nil || cur == nil {
		return nil, nil, err
	}

	resultTy := tyOf(e)
	thenCur, elseCur, joinCur, result := b.IfElse(cur, resultTy, condVal)

	thenVal, thenEnd, err := translateBlock(b, e.Then, thenCur, locals)
	if err != nil {
		return nil, nil, err
	}
	if thenEnd != nil {
		finishBranch(b, thenCur, thenEnd, thenVal)
	}

	if e.Else == nil {
		b.Finish(elseCur, Const(0, resultTy))
	} else {
		elseVal, elseEnd, err := translateExpr(b, e.Else, elseCur, locals)
		if err != nil {
			return nil, nil, err
		}
		if elseEnd != nil {
			finishBranch(b, elseCur, elseEnd, elseVal)
		}
	}

	return UseOf(result), joinCur, nil
}

// finishBranch ends the block that end points at by writing val into
// branch's join temp and jumping to branch's join block. end differs
// from branch when the branch itself contains control flow.
func finishBranch(b *Builder, branch, end *Cursor, val *Rvalue) {
	end.hasJoin, end.joinBlock, end.joinResult = true, branch.joinBlock, branch.joinResult
	b.Finish(end, val)
}
