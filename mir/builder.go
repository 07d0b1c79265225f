package mir

import (
	"fmt"

	"github.com/nova-lang/novac/types"
)

// Cursor is the translator's "current position": the block live code
// should be emitted into. A nil *Cursor means the path has diverged
// (spec §4.6's `Option<Block>`) — nothing further should be emitted
// along it.
type Cursor struct {
	block *BlockData

	// Set only for a cursor handed back by IfElse: Finish on such a
	// cursor writes its value into joinResult and jumps to joinBlock.
	hasJoin    bool
	joinBlock  Block
	joinResult Lvalue
}

// Builder assembles one Function's MIR incrementally, in the order the
// translator visits the AST. It allocates every local/temp/block id
// for the function currently under construction.
type Builder struct {
	ctx *types.TypeContext
	fn  *Function
}

// NewFunction starts a fresh Function and its entry block, returning
// the builder and a live cursor positioned at the entry block.
func NewFunction(ctx *types.TypeContext, name string, params []Param, ret *types.Type) (*Builder, *Cursor) {
	fn := &Function{Name: name, Params: params, Ret: ret}
	b := &Builder{ctx: ctx, fn: fn}
	entry := b.NewBlock()
	b.fn.Entry = entry.ID
	return b, &Cursor{block: entry}
}

// Function returns the Function built so far; valid to call once every
// block has a terminator.
func (b *Builder) Function() *Function { return b.fn }

// NewLocal allocates a new named local of type ty.
func (b *Builder) NewLocal(name string, ty *types.Type) Lvalue {
	id := len(b.fn.Locals)
	b.fn.Locals = append(b.fn.Locals, Local{ID: id, Ty: ty, Name: name})
	return Lvalue{Kind: LLocal, ID: id, Ty: ty}
}

// NewTemp allocates a fresh compiler-introduced temp of type ty.
func (b *Builder) NewTemp(ty *types.Type) Lvalue {
	id := len(b.fn.Temps)
	b.fn.Temps = append(b.fn.Temps, Temp{ID: id, Ty: ty})
	return Lvalue{Kind: LTemp, ID: id, Ty: ty}
}

// GetParam returns the lvalue for the i-th declared parameter.
func (b *Builder) GetParam(i int) Lvalue {
	return Lvalue{Kind: LParam, ID: i, Ty: b.fn.Params[i].Ty}
}

// ReturnSlot is the function's single return lvalue.
func (b *Builder) ReturnSlot() Lvalue {
	return Lvalue{Kind: LReturn, Ty: b.fn.Ret}
}

// NewBlock allocates a fresh, empty basic block (not yet reachable
// from anywhere; the caller is responsible for wiring a terminator
// that reaches it).
func (b *Builder) NewBlock() *BlockData {
	id := Block(len(b.fn.Blocks))
	bb := &BlockData{ID: id}
	b.fn.Blocks = append(b.fn.Blocks, bb)
	return bb
}

func (b *Builder) blockByID(id Block) *BlockData { return b.fn.Blocks[id] }

// WriteToVar appends `dst = src` to cur's block.
func (b *Builder) WriteToVar(cur *Cursor, dst Lvalue, src *Rvalue) {
	cur.block.Statements = append(cur.block.Statements, Statement{Dst: dst, Src: src})
}

// WriteToTmp allocates a fresh temp of ty, assigns src to it, and
// returns the temp's lvalue.
func (b *Builder) WriteToTmp(cur *Cursor, ty *types.Type, src *Rvalue) Lvalue {
	tmp := b.NewTemp(ty)
	b.WriteToVar(cur, tmp, src)
	return tmp
}

func (b *Builder) setTerm(bb *BlockData, term *Terminator) {
	if bb.Term != nil {
		panic(fmt.Sprintf("mir: bb%d already terminated", bb.ID))
	}
	bb.Term = term
}

// Finish is only valid on a cursor produced by IfElse's then/else
// branch: it writes value into the pending join temp and jumps to the
// join block.
func (b *Builder) Finish(cur *Cursor, value *Rvalue) {
	if !cur.hasJoin {
		panic("mir: Finish called on a cursor with no pending join")
	}
	b.WriteToVar(cur, cur.joinResult, value)
	b.setTerm(cur.block, &Terminator{Kind: TGoto, Target: cur.joinBlock})
}

// EarlyRet writes value to the function's return slot and terminates
// cur's block with Return.
func (b *Builder) EarlyRet(cur *Cursor, value *Rvalue) {
	b.WriteToVar(cur, b.ReturnSlot(), value)
	b.setTerm(cur.block, &Terminator{Kind: TReturn})
}

// IfElse allocates then/else/join blocks and a join-result temp of
// resultTy, terminates cur's block with If(cond, then, else), and
// returns cursors positioned at then and else (each pre-wired to
// Finish into the join temp) plus a cursor at the join block and the
// join temp itself (the `if` expression's value in the caller).
func (b *Builder) IfElse(cur *Cursor, resultTy *types.Type, cond *Rvalue) (thenCur, elseCur, joinCur *Cursor, result Lvalue) {
	thenBB := b.NewBlock()
	elseBB := b.NewBlock()
	joinBB := b.NewBlock()
	result = b.NewTemp(resultTy)

	b.setTerm(cur.block, &Terminator{
		Kind: TIf,
		Cond: cond,
		Then: thenBB.ID,
		Else: elseBB.ID,
	})

	thenCur = &Cursor{block: thenBB, hasJoin: true, joinBlock: joinBB.ID, joinResult: result}
	elseCur = &Cursor{block: elseBB, hasJoin: true, joinBlock: joinBB.ID, joinResult: result}
	joinCur = &Cursor{block: joinBB}
	return thenCur, elseCur, joinCur, result
}

// --- Arithmetic/unary/ref constructors (spec §4.5) ---
// Each allocates a temp of the given result type and emits the
// assignment; ty is the temp's (and thus the expression's) type.

func (b *Builder) binOp(cur *Cursor, op BinOp, ty *types.Type, lhs, rhs *Rvalue) Lvalue {
	return b.WriteToTmp(cur, ty, &Rvalue{Kind: RBinOp, Ty: ty, BinOp: op, Lhs: lhs, Rhs: rhs})
}

func (b *Builder) Add(cur *Cursor, ty *types.Type, lhs, rhs *Rvalue) Lvalue { return b.binOp(cur, BAdd, ty, lhs, rhs) }
func (b *Builder) Sub(cur *Cursor, ty *types.Type, lhs, rhs *Rvalue) Lvalue { return b.binOp(cur, BSub, ty, lhs, rhs) }
func (b *Builder) Mul(cur *Cursor, ty *types.Type, lhs, rhs *Rvalue) Lvalue { return b.binOp(cur, BMul, ty, lhs, rhs) }
func (b *Builder) Div(cur *Cursor, ty *types.Type, lhs, rhs *Rvalue) Lvalue { return b.binOp(cur, BDiv, ty, lhs, rhs) }
func (b *Builder) Rem(cur *Cursor, ty *types.Type, lhs, rhs *Rvalue) Lvalue { return b.binOp(cur, BRem, ty, lhs, rhs) }
func (b *Builder) Shl(cur *Cursor, ty *types.Type, lhs, rhs *Rvalue) Lvalue { return b.binOp(cur, BShl, ty, lhs, rhs) }
func (b *Builder) Shr(cur *Cursor, ty *types.Type, lhs, rhs *Rvalue) Lvalue { return b.binOp(cur, BShr, ty, lhs, rhs) }
func (b *Builder) And(cur *Cursor, ty *types.Type, lhs, rhs *Rvalue) Lvalue { return b.binOp(cur, BAnd, ty, lhs, rhs) }
func (b *Builder) Or(cur *Cursor, ty *types.Type, lhs, rhs *Rvalue) Lvalue  { return b.binOp(cur, BOr, ty, lhs, rhs) }
func (b *Builder) Xor(cur *Cursor, ty *types.Type, lhs, rhs *Rvalue) Lvalue { return b.binOp(cur, BXor, ty, lhs, rhs) }

func (b *Builder) Eq(cur *Cursor, boolTy *types.Type, lhs, rhs *Rvalue) Lvalue {
	return b.binOp(cur, BEq, boolTy, lhs, rhs)
}
func (b *Builder) Neq(cur *Cursor, boolTy *types.Type, lhs, rhs *Rvalue) Lvalue {
	return b.binOp(cur, BNeq, boolTy, lhs, rhs)
}
func (b *Builder) Lt(cur *Cursor, boolTy *types.Type, lhs, rhs *Rvalue) Lvalue {
	return b.binOp(cur, BLt, boolTy, lhs, rhs)
}
func (b *Builder) Lte(cur *Cursor, boolTy *types.Type, lhs, rhs *Rvalue) Lvalue {
	return b.binOp(cur, BLte, boolTy, lhs, rhs)
}
func (b *Builder) Gt(cur *Cursor, boolTy *types.Type, lhs, rhs *Rvalue) Lvalue {
	return b.binOp(cur, BGt, boolTy, lhs, rhs)
}
func (b *Builder) Gte(cur *Cursor, boolTy *types.Type, lhs, rhs *Rvalue) Lvalue {
	return b.binOp(cur, BGte, boolTy, lhs, rhs)
}

func (b *Builder) unOp(cur *Cursor, op UnOp, ty *types.Type, operand *Rvalue) Lvalue {
	return b.WriteToTmp(cur, ty, &Rvalue{Kind: RUnOp, Ty: ty, UnOp: op, Operand: operand})
}

func (b *Builder) Pos(cur *Cursor, ty *types.Type, operand *Rvalue) Lvalue {
	return b.unOp(cur, UPos, ty, operand)
}
func (b *Builder) Neg(cur *Cursor, ty *types.Type, operand *Rvalue) Lvalue {
	return b.unOp(cur, UNeg, ty, operand)
}
func (b *Builder) Not(cur *Cursor, ty *types.Type, operand *Rvalue) Lvalue {
	return b.unOp(cur, UNot, ty, operand)
}
func (b *Builder) DerefOp(cur *Cursor, ty *types.Type, operand *Rvalue) Lvalue {
	return b.unOp(cur, UDeref, ty, operand)
}

// Ref_ takes the address of an lvalue, producing a temp of Reference(ty).
func (b *Builder) Ref_(cur *Cursor, refTy *types.Type, of Lvalue) Lvalue {
	return b.WriteToTmp(cur, refTy, &Rvalue{Kind: RRef, Ty: refTy, Use: of})
}

// SealDeadBlocks terminates any block left without a terminator once
// translation finishes, giving it a trivial Return, so that every
// emitted block has exactly one terminator (spec §8). A join block
// allocated by IfElse whose branches both diverged is not among them:
// translation continues into it like any other join block, so it is
// unreachable but already terminated by the code that follows the if.
func (b *Builder) SealDeadBlocks() {
	zero := Const(0, b.fn.Ret)
	retSlot := b.ReturnSlot()
	for _, bb := range b.fn.Blocks {
		if bb.Term == nil {
			bb.Statements = append(bb.Statements, Statement{Dst: retSlot, Src: zero})
			bb.Term = &Terminator{Kind: TReturn}
		}
	}
}

// CallOp emits a call and returns the temp holding its result.
func (b *Builder) CallOp(cur *Cursor, ty *types.Type, callee string, args []*Rvalue) Lvalue {
	return b.WriteToTmp(cur, ty, &Rvalue{Kind: RCall, Ty: ty, Callee: callee, Args: args})
}
