// Package mir implements the mid-level IR: a data model of basic
// blocks (mir.go), a builder that assembles them incrementally
// (builder.go), and the AST->MIR translator that drives the builder
// from a type-checked AST (translate.go).
package mir

import (
	"fmt"
	"strings"

	"github.com/nova-lang/novac/types"
)

// LvalueKind tags the variant of an Lvalue.
type LvalueKind int

const (
	LLocal LvalueKind = iota
	LTemp
	LParam
	LReturn
)

// Lvalue is an assignable location: a local, a temp, a parameter, or
// the function's return slot.
type Lvalue struct {
	Kind LvalueKind
	ID   int // Local/Temp id, or Param index
	Ty   *types.Type
}

func (l Lvalue) String() string {
	switch l.Kind {
	case LLocal:
		return fmt.Sprintf("_l%d", l.ID)
	case LTemp:
		return fmt.Sprintf("_t%d", l.ID)
	case LParam:
		return fmt.Sprintf("_p%d", l.ID)
	case LReturn:
		return "_ret"
	default:
		return "_?"
	}
}

// RvalueKind tags the variant of an Rvalue.
type RvalueKind int

const (
	RConst RvalueKind = iota
	RUse
	RBinOp
	RUnOp
	RCall
	RRef
)

// UnOp identifies a MIR-level unary operator. Deref is included here
// (rather than folded into Use) because a backend lowers it to an
// explicit load through the pointer operand.
type UnOp int

const (
	UPos UnOp = iota
	UNeg
	UNot
	UDeref
)

func (op UnOp) String() string {
	switch op {
	case UPos:
		return "pos"
	case UNeg:
		return "neg"
	case UNot:
		return "not"
	case UDeref:
		return "deref"
	default:
		return "?"
	}
}

// BinOp identifies a MIR-level binary operator; always concrete
// arithmetic/bitwise/comparison, never the surface &&/|| (those are
// rewritten to If before lowering, per spec §4.6).
type BinOp int

const (
	BAdd BinOp = iota
	BSub
	BMul
	BDiv
	BRem
	BShl
	BShr
	BAnd
	BOr
	BXor
	BEq
	BNeq
	BLt
	BLte
	BGt
	BGte
)

var binOpNames = map[BinOp]string{
	BAdd: "add", BSub: "sub", BMul: "mul", BDiv: "div", BRem: "rem",
	BShl: "shl", BShr: "shr", BAnd: "and", BOr: "or", BXor: "xor",
	BEq: "eq", BNeq: "neq", BLt: "lt", BLte: "lte", BGt: "gt", BGte: "gte",
}

func (op BinOp) String() string { return binOpNames[op] }

// Rvalue is a value-producing expression usable on the right-hand side
// of an assignment.
type Rvalue struct {
	Kind RvalueKind
	Ty   *types.Type

	ConstValue uint64 // Const
	ConstBool  bool    // Const (Bool type)

	Use Lvalue // Use, Ref

	BinOp    BinOp  // BinOp
	UnOp     UnOp   // UnOp
	Lhs, Rhs *Rvalue // BinOp
	Operand  *Rvalue // UnOp

	Callee string   // Call
	Args   []*Rvalue // Call
}

func (r *Rvalue) String() string {
	switch r.Kind {
	case RConst:
		if r.Ty != nil && r.Ty.Kind() == types.KindBool {
			return fmt.Sprintf("const %v", r.ConstBool)
		}
		return fmt.Sprintf("const %d", r.ConstValue)
	case RUse:
		return r.Use.String()
	case RBinOp:
		return fmt.Sprintf("%s(%s, %s)", r.BinOp, r.Lhs, r.Rhs)
	case RUnOp:
		return fmt.Sprintf("%s(%s)", r.UnOp, r.Operand)
	case RCall:
		args := make([]string, len(r.Args))
		for i, a := range r.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("call %s(%s)", r.Callee, strings.Join(args, ", "))
	case RRef:
		return fmt.Sprintf("ref(%s)", r.Use)
	default:
		return "?"
	}
}

// Const builds a Rvalue holding an integer constant.
func Const(v uint64, ty *types.Type) *Rvalue {
	return &Rvalue{Kind: RConst, ConstValue: v, Ty: ty}
}

// ConstBoolVal builds a Rvalue holding a boolean constant.
func ConstBoolVal(v bool, ty *types.Type) *Rvalue {
	return &Rvalue{Kind: RConst, ConstBool: v, Ty: ty}
}

// UseOf builds a Rvalue reading an Lvalue.
func UseOf(lv Lvalue) *Rvalue {
	return &Rvalue{Kind: RUse, Use: lv, Ty: lv.Ty}
}

// Statement is one `lvalue = rvalue` assignment within a block.
type Statement struct {
	Dst Lvalue
	Src *Rvalue
}

func (s Statement) String() string {
	return fmt.Sprintf("%s = %s", s.Dst, s.Src)
}

// TerminatorKind tags the variant of a Terminator.
type TerminatorKind int

const (
	TGoto TerminatorKind = iota
	TIf
	TReturn
)

// Terminator ends a Block: exactly one per block (spec §8 invariant).
type Terminator struct {
	Kind TerminatorKind

	Target Block // Goto

	Cond       *Rvalue // If
	Then, Else Block   // If
}

func (t Terminator) String() string {
	switch t.Kind {
	case TGoto:
		return fmt.Sprintf("goto -> bb%d", t.Target)
	case TIf:
		return fmt.Sprintf("if %s -> [bb%d, bb%d]", t.Cond, t.Then, t.Else)
	case TReturn:
		return "return"
	default:
		return "<no terminator>"
	}
}

// Block is a basic block id, indexing into Function.Blocks.
type Block int

// BlockData is the body of one basic block.
type BlockData struct {
	ID         Block
	Statements []Statement
	Term       *Terminator // nil until the block is finished
}

func (b *BlockData) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "bb%d:\n", b.ID)
	for _, s := range b.Statements {
		fmt.Fprintf(&sb, "    %s\n", s)
	}
	if b.Term != nil {
		fmt.Fprintf(&sb, "    %s\n", b.Term)
	}
	return sb.String()
}

// Local is a `let`-introduced binding.
type Local struct {
	ID   int
	Ty   *types.Type
	Name string // surface name, for readable dumps; not load-bearing
}

// Temp is a compiler-introduced scratch slot.
type Temp struct {
	ID int
	Ty *types.Type
}

// Param is one declared function parameter.
type Param struct {
	Ty   *types.Type
	Name string
}

// Function is one compiled function's complete MIR.
type Function struct {
	Name   string
	Params []Param
	Ret    *types.Type

	Locals []Local
	Temps  []Temp
	Blocks []*BlockData
	Entry  Block
}

func (f *Function) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", p.Name, p.Ty)
	}
	fmt.Fprintf(&sb, ") -> %s {\n", f.Ret)
	for _, b := range f.Blocks {
		sb.WriteString(b.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Module is the complete MIR for one compiled file.
type Module struct {
	Functions []*Function
}

func (m *Module) String() string {
	var sb strings.Builder
	for _, f := range m.Functions {
		sb.WriteString(f.String())
	}
	return sb.String()
}
