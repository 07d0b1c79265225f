// Package llvm implements backend.Backend on top of tinygo.org/x/go-llvm,
// lowering a finished mir.Module straight to LLVM IR text.
package llvm

import (
	"fmt"

	"github.com/nova-lang/novac/mir"
	"github.com/nova-lang/novac/types"
	goll "tinygo.org/x/go-llvm"
)

// Backend is the concrete LLVM implementation of backend.Backend.
type Backend struct {
	context goll.Context
}

func New() *Backend {
	return &Backend{context: goll.GlobalContext()}
}

// Emit lowers mod to LLVM IR text.
func (be *Backend) Emit(mod *mir.Module) (string, error) {
	module := be.context.NewModule("nova")
	builder := be.context.NewBuilder()

	g := &moduleGen{be: be, module: module, builder: builder, funcs: map[string]goll.Value{}}

	for _, fn := range mod.Functions {
		if err := g.declare(fn); err != nil {
			return "", err
		}
	}
	for _, fn := range mod.Functions {
		if err := g.define(fn); err != nil {
			return "", err
		}
	}

	return module.String(), nil
}

type moduleGen struct {
	be      *Backend
	module  goll.Module
	builder goll.Builder
	funcs   map[string]goll.Value
}

func (g *moduleGen) llvmType(ty *types.Type, retPos bool) (goll.Type, error) {
	ctx := g.be.context
	switch ty.Kind() {
	case types.KindSInt, types.KindUInt:
		return ctx.IntType(ty.Width()), nil
	case types.KindBool:
		return ctx.Int1Type(), nil
	case types.KindUnit:
		if retPos {
			return ctx.VoidType(), nil
		}
		return ctx.StructType(nil, false), nil
	case types.KindReference:
		elem, err := g.llvmType(ty.Elem(), false)
		if err != nil {
			return goll.Type{}, err
		}
		return goll.PointerType(elem, 0), nil
	default:
		return goll.Type{}, fmt.Errorf("llvm backend: cannot lower type %s", ty)
	}
}

func (g *moduleGen) declare(fn *mir.Function) error {
	paramTypes := make([]goll.Type, len(fn.Params))
	for i, p := range fn.Params {
		t, err := g.llvmType(p.Ty, false)
		if err != nil {
			return err
		}
		paramTypes[i] = t
	}
	retTy, err := g.llvmType(fn.Ret, true)
	if err != nil {
		return err
	}
	fnType := goll.FunctionType(retTy, paramTypes, false)
	g.funcs[fn.Name] = goll.AddFunction(g.module, fn.Name, fnType)
	return nil
}

// funcGen lowers one mir.Function's body. Every Lvalue (param, local,
// temp, and the return slot) lives in its own stack slot, exactly like
// the teacher's variable handling: a value is read with a load and
// written with a store, never carried as a bare SSA value across
// blocks. This sidesteps needing to compute LLVM phi nodes for mir's
// join blocks.
type funcGen struct {
	*moduleGen
	fn      *mir.Function
	llvmFn  goll.Value
	blocks  map[mir.Block]goll.BasicBlock
	locals  map[int]goll.Value
	temps   map[int]goll.Value
	params  map[int]goll.Value
	retSlot goll.Value
}

func (g *moduleGen) define(fn *mir.Function) error {
	llvmFn := g.funcs[fn.Name]

	retTy, err := g.llvmType(fn.Ret, true)
	if err != nil {
		return err
	}

	fg := &funcGen{
		moduleGen: g,
		fn:        fn,
		llvmFn:    llvmFn,
		blocks:    make(map[mir.Block]goll.BasicBlock, len(fn.Blocks)),
		locals:    make(map[int]goll.Value, len(fn.Locals)),
		temps:     make(map[int]goll.Value, len(fn.Temps)),
		params:    make(map[int]goll.Value, len(fn.Params)),
	}

	for _, bb := range fn.Blocks {
		fg.blocks[bb.ID] = g.be.context.AddBasicBlock(llvmFn, fmt.Sprintf("bb%d", bb.ID))
	}

	entry := fg.blocks[fn.Entry]
	g.builder.SetInsertPointAtEnd(entry)

	for i, p := range fn.Params {
		t, err := g.llvmType(p.Ty, false)
		if err != nil {
			return err
		}
		slot := g.builder.CreateAlloca(t, "p"+p.Name)
		g.builder.CreateStore(llvmFn.Param(i), slot)
		fg.params[i] = slot
	}
	for _, l := range fn.Locals {
		t, err := g.llvmType(l.Ty, false)
		if err != nil {
			return err
		}
		fg.locals[l.ID] = g.builder.CreateAlloca(t, l.Name)
	}
	for _, tmp := range fn.Temps {
		t, err := g.llvmType(tmp.Ty, false)
		if err != nil {
			return err
		}
		fg.temps[tmp.ID] = g.builder.CreateAlloca(t, fmt.Sprintf("t%d", tmp.ID))
	}
	if fn.Ret.Kind() != types.KindUnit {
		fg.retSlot = g.builder.CreateAlloca(retTy, "ret")
	}

	for _, bb := range fn.Blocks {
		g.builder.SetInsertPointAtEnd(fg.blocks[bb.ID])
		if err := fg.block(bb); err != nil {
			return err
		}
	}

	return nil
}

func (fg *funcGen) slot(lv mir.Lvalue) (goll.Value, error) {
	switch lv.Kind {
	case mir.LLocal:
		return fg.locals[lv.ID], nil
	case mir.LTemp:
		return fg.temps[lv.ID], nil
	case mir.LParam:
		return fg.params[lv.ID], nil
	case mir.LReturn:
		if fg.retSlot.IsNil() {
			return goll.Value{}, fmt.Errorf("llvm backend: write to return slot of a Unit-returning function")
		}
		return fg.retSlot, nil
	default:
		return goll.Value{}, fmt.Errorf("llvm backend: unknown lvalue kind %d", lv.Kind)
	}
}

func (fg *funcGen) block(bb *mir.BlockData) error {
	for _, stmt := range bb.Statements {
		val, err := fg.rvalue(stmt.Src)
		if err != nil {
			return err
		}
		if stmt.Dst.Kind == mir.LReturn && fg.fn.Ret.Kind() == types.KindUnit {
			// A Unit function returns void and has no return slot.
			continue
		}
		dst, err := fg.slot(stmt.Dst)
		if err != nil {
			return err
		}
		fg.builder.CreateStore(val, dst)
	}
	return fg.terminator(bb)
}

func (fg *funcGen) terminator(bb *mir.BlockData) error {
	switch bb.Term.Kind {
	case mir.TGoto:
		fg.builder.CreateBr(fg.blocks[bb.Term.Target])
		return nil

	case mir.TIf:
		cond, err := fg.rvalue(bb.Term.Cond)
		if err != nil {
			return err
		}
		fg.builder.CreateCondBr(cond, fg.blocks[bb.Term.Then], fg.blocks[bb.Term.Else])
		return nil

	case mir.TReturn:
		if fg.fn.Ret.Kind() == types.KindUnit {
			fg.builder.CreateRetVoid()
			return nil
		}
		retTy, err := fg.llvmType(fg.fn.Ret, false)
		if err != nil {
			return err
		}
		val := fg.builder.CreateLoad(retTy, fg.retSlot, "")
		fg.builder.CreateRet(val)
		return nil

	default:
		return fmt.Errorf("llvm backend: unterminated block bb%d", bb.ID)
	}
}

func (fg *funcGen) rvalue(r *mir.Rvalue) (goll.Value, error) {
	switch r.Kind {
	case mir.RConst:
		ty, err := fg.llvmType(r.Ty, false)
		if err != nil {
			return goll.Value{}, err
		}
		if r.Ty.Kind() == types.KindBool {
			v := uint64(0)
			if r.ConstBool {
				v = 1
			}
			return goll.ConstInt(ty, v, false), nil
		}
		if r.Ty.Kind() == types.KindUnit {
			return goll.ConstNull(ty), nil
		}
		return goll.ConstInt(ty, r.ConstValue, r.Ty.IsSigned()), nil

	case mir.RUse:
		slot, err := fg.slot(r.Use)
		if err != nil {
			return goll.Value{}, err
		}
		ty, err := fg.llvmType(r.Use.Ty, false)
		if err != nil {
			return goll.Value{}, err
		}
		return fg.builder.CreateLoad(ty, slot, ""), nil

	case mir.RRef:
		// The referent already lives in its own stack slot: its address
		// is just that slot's pointer, no load needed.
		return fg.slot(r.Use)

	case mir.RBinOp:
		return fg.binOp(r)

	case mir.RUnOp:
		return fg.unOp(r)

	case mir.RCall:
		return fg.call(r)

	default:
		return goll.Value{}, fmt.Errorf("llvm backend: unknown rvalue kind %d", r.Kind)
	}
}

func (fg *funcGen) call(r *mir.Rvalue) (goll.Value, error) {
	callee, ok := fg.funcs[r.Callee]
	if !ok {
		return goll.Value{}, fmt.Errorf("llvm backend: call to undeclared function %s", r.Callee)
	}
	args := make([]goll.Value, len(r.Args))
	for i, a := range r.Args {
		v, err := fg.rvalue(a)
		if err != nil {
			return goll.Value{}, err
		}
		args[i] = v
	}
	fnType := callee.GlobalValueType()
	return fg.builder.CreateCall(fnType, callee, args, ""), nil
}

func (fg *funcGen) unOp(r *mir.Rvalue) (goll.Value, error) {
	operand, err := fg.rvalue(r.Operand)
	if err != nil {
		return goll.Value{}, err
	}
	switch r.UnOp {
	case mir.UPos:
		return operand, nil
	case mir.UNeg:
		return fg.builder.CreateNeg(operand, ""), nil
	case mir.UNot:
		return fg.builder.CreateNot(operand, ""), nil
	case mir.UDeref:
		ty, err := fg.llvmType(r.Ty, false)
		if err != nil {
			return goll.Value{}, err
		}
		return fg.builder.CreateLoad(ty, operand, ""), nil
	default:
		return goll.Value{}, fmt.Errorf("llvm backend: unknown unop %d", r.UnOp)
	}
}

func (fg *funcGen) binOp(r *mir.Rvalue) (goll.Value, error) {
	lhs, err := fg.rvalue(r.Lhs)
	if err != nil {
		return goll.Value{}, err
	}
	rhs, err := fg.rvalue(r.Rhs)
	if err != nil {
		return goll.Value{}, err
	}
	signed := r.Lhs.Ty != nil && r.Lhs.Ty.IsSigned()

	switch r.BinOp {
	case mir.BAdd:
		return fg.builder.CreateAdd(lhs, rhs, ""), nil
	case mir.BSub:
		return fg.builder.CreateSub(lhs, rhs, ""), nil
	case mir.BMul:
		return fg.builder.CreateMul(lhs, rhs, ""), nil
	case mir.BDiv:
		fg.guardAgainstZero(rhs)
		if signed {
			return fg.builder.CreateSDiv(lhs, rhs, ""), nil
		}
		return fg.builder.CreateUDiv(lhs, rhs, ""), nil
	case mir.BRem:
		fg.guardAgainstZero(rhs)
		if signed {
			return fg.builder.CreateSRem(lhs, rhs, ""), nil
		}
		return fg.builder.CreateURem(lhs, rhs, ""), nil
	case mir.BShl:
		return fg.builder.CreateShl(lhs, rhs, ""), nil
	case mir.BShr:
		if signed {
			return fg.builder.CreateAShr(lhs, rhs, ""), nil
		}
		return fg.builder.CreateLShr(lhs, rhs, ""), nil
	case mir.BAnd:
		return fg.builder.CreateAnd(lhs, rhs, ""), nil
	case mir.BOr:
		return fg.builder.CreateOr(lhs, rhs, ""), nil
	case mir.BXor:
		return fg.builder.CreateXor(lhs, rhs, ""), nil
	case mir.BEq:
		return fg.builder.CreateICmp(goll.IntEQ, lhs, rhs, ""), nil
	case mir.BNeq:
		return fg.builder.CreateICmp(goll.IntNE, lhs, rhs, ""), nil
	case mir.BLt:
		return fg.builder.CreateICmp(cmpPred(goll.IntSLT, goll.IntULT, signed), lhs, rhs, ""), nil
	case mir.BLte:
		return fg.builder.CreateICmp(cmpPred(goll.IntSLE, goll.IntULE, signed), lhs, rhs, ""), nil
	case mir.BGt:
		return fg.builder.CreateICmp(cmpPred(goll.IntSGT, goll.IntUGT, signed), lhs, rhs, ""), nil
	case mir.BGte:
		return fg.builder.CreateICmp(cmpPred(goll.IntSGE, goll.IntUGE, signed), lhs, rhs, ""), nil
	default:
		return goll.Value{}, fmt.Errorf("llvm backend: unknown binop %d", r.BinOp)
	}
}

func cmpPred(signed, unsigned goll.IntPredicate, isSigned bool) goll.IntPredicate {
	if isSigned {
		return signed
	}
	return unsigned
}

// guardAgainstZero inserts a zero check before a division/remainder:
// the divisor is compared against zero and llvm.trap is called on the
// trap path, rather than letting sdiv/udiv/srem/urem fault directly
// (spec open question: division/remainder by zero traps).
func (fg *funcGen) guardAgainstZero(divisor goll.Value) {
	zero := goll.ConstInt(divisor.Type(), 0, false)
	isZero := fg.builder.CreateICmp(goll.IntEQ, divisor, zero, "")

	fn := fg.llvmFn
	trapBB := fg.be.context.AddBasicBlock(fn, "divzero.trap")
	contBB := fg.be.context.AddBasicBlock(fn, "divzero.cont")
	fg.builder.CreateCondBr(isZero, trapBB, contBB)

	fg.builder.SetInsertPointAtEnd(trapBB)
	trapFn := fg.module.NamedFunction("llvm.trap")
	if trapFn.IsNil() {
		trapType := goll.FunctionType(fg.be.context.VoidType(), nil, false)
		trapFn = goll.AddFunction(fg.module, "llvm.trap", trapType)
	}
	fg.builder.CreateCall(goll.FunctionType(fg.be.context.VoidType(), nil, false), trapFn, nil, "")
	fg.builder.CreateUnreachable()

	fg.builder.SetInsertPointAtEnd(contBB)
}
