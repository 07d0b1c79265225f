// Package ast defines the abstract syntax tree produced by the parser.
package ast

// Node is implemented by every AST node.
type Node interface {
	node()
}

// Type is the surface-syntax spelling of a type, before it is resolved
// against a types.TypeContext by the checker.
type Type interface {
	Node
	typeNode()
}

// NamedType is a bare identifier type reference, e.g. s32, bool, ().
// The empty-tuple spelling "()" is represented with Name == "()".
type NamedType struct {
	Name string
	Line int
}

func (*NamedType) node()     {}
func (*NamedType) typeNode() {}

// RefType is &T or &&T (Inner may itself be a *RefType for the double form).
type RefType struct {
	Inner Type
	Line  int
}

func (*RefType) node()     {}
func (*RefType) typeNode() {}

// Param is one (name, Type) entry of a function's argument list.
type Param struct {
	Name string
	Type Type
	Line int
}

// Item is a top-level declaration. Functions are the only Item kind.
type Item interface {
	Node
	itemNode()
}

// FuncDecl is `fn name(args) -> ret { body }`.
type FuncDecl struct {
	Name   string
	Params []*Param
	Ret    Type // nil means Unit
	Body   *Block
	Line   int
}

func (*FuncDecl) node()     {}
func (*FuncDecl) itemNode() {}

// File is a whole parsed source file: an ordered list of Items.
type File struct {
	Items []Item
}

// Block is `{ stmts... expr? }`. Expr is nil when the block has no
// trailing value expression (in which case the block's type is Unit).
type Block struct {
	Stmts []Stmt
	Expr  *Expr
	Line  int
}

func (*Block) node() {}

// Stmt is a statement: LetStmt or ExprStmt.
type Stmt interface {
	Node
	stmtNode()
}

// LetStmt is `let name (: ty)? (= value)? ;`.
type LetStmt struct {
	Name  string
	Type  Type // nil if not annotated
	Value *Expr
	Line  int

	// Ty is the binding's resolved type, filled in by the checker (mirrors
	// Expr.Ty; declared as `any` for the same import-cycle reason).
	Ty any
}

func (*LetStmt) node()     {}
func (*LetStmt) stmtNode() {}

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	X    *Expr
	Line int
}

func (*ExprStmt) node()     {}
func (*ExprStmt) stmtNode() {}

// ExprKind tags the variant of an Expr.
type ExprKind int

const (
	IntLiteral ExprKind = iota
	BoolLiteral
	UnitLiteral
	Variable
	Call
	Binop
	Pos
	Neg
	Not
	Ref
	Deref
	If
	BlockExpr
	Return
	Assign
)

func (k ExprKind) String() string {
	switch k {
	case IntLiteral:
		return "IntLiteral"
	case BoolLiteral:
		return "BoolLiteral"
	case UnitLiteral:
		return "UnitLiteral"
	case Variable:
		return "Variable"
	case Call:
		return "Call"
	case Binop:
		return "Binop"
	case Pos:
		return "Pos"
	case Neg:
		return "Neg"
	case Not:
		return "Not"
	case Ref:
		return "Ref"
	case Deref:
		return "Deref"
	case If:
		return "If"
	case BlockExpr:
		return "BlockExpr"
	case Return:
		return "Return"
	case Assign:
		return "Assign"
	default:
		return "?"
	}
}

// BinOp identifies a binary operator for a Binop expression.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Rem
	Shl
	Shr
	BitAnd
	BitXor
	BitOr
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte
	And
	Or
)

var binOpNames = map[BinOp]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/", Rem: "%",
	Shl: "<<", Shr: ">>", BitAnd: "&", BitXor: "^", BitOr: "|",
	Eq: "==", Neq: "!=", Lt: "<", Lte: "<=", Gt: ">", Gte: ">=",
	And: "&&", Or: "||",
}

func (op BinOp) String() string { return binOpNames[op] }

// IsShortCircuit reports whether op is && or ||, which the translator
// rewrites to an If before lowering (spec §4.6).
func (op BinOp) IsShortCircuit() bool { return op == And || op == Or }

// IsComparison reports whether op always produces Bool.
func (op BinOp) IsComparison() bool {
	switch op {
	case Eq, Neq, Lt, Lte, Gt, Gte:
		return true
	default:
		return false
	}
}

// Expr is every expression-tagged node. Ty is filled in by the checker:
// it starts nil and is resolved to a concrete type handle by the time
// typechecking finishes. It is declared as `any` here so that ast does
// not import the types package (which would create an import cycle
// once types starts referring back to AST nodes for diagnostics).
type Expr struct {
	Kind ExprKind
	Line int
	Ty   any

	IntValue  uint64 // IntLiteral
	IntSuffix string // IntLiteral; "" means no suffix (InferInt)
	BoolValue bool   // BoolLiteral
	Name      string // Variable; Call callee; Assign dst

	Args []*Expr // Call

	Op  BinOp // Binop
	Lhs *Expr // Binop
	Rhs *Expr // Binop

	X *Expr // Pos/Neg/Not/Ref/Deref operand; Return inner (nil = bare return); Assign src

	Cond *Expr  // If
	Then *Block // If
	Else *Expr  // If; Kind BlockExpr or another If for else-if chaining

	Blk *Block // BlockExpr
}

func (*Expr) node() {}

// NewExpr allocates an Expr of the given kind at the given source line.
func NewExpr(kind ExprKind, line int) *Expr {
	return &Expr{Kind: kind, Line: line}
}
