// Package parser implements the recursive-descent, precedence-climbing
// parser described in spec §4.2.
package parser

import (
	"strconv"

	"github.com/nova-lang/novac/ast"
	"github.com/nova-lang/novac/lexer"
)

// Parser turns a token stream into an *ast.File. It keeps one token of
// lookahead (cur, peek), in the same style the teacher pack's Pratt
// parsers use, but drives spec §4.2's exact grammar rather than a
// classic Pratt loop.
type Parser struct {
	l *lexer.Lexer

	cur  lexer.Token
	peek lexer.Token
}

// New creates a Parser over l. It primes cur/peek, returning the first
// lexical error encountered, if any (fail-fast per spec §4.7).
func New(l *lexer.Lexer) (*Parser, error) {
	p := &Parser{l: l}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// advance shifts cur := peek and reads a fresh peek token.
func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.l.NextToken()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if p.cur.Type != tt {
		return lexer.Token{}, &UnexpectedTokenError{Found: p.cur.Type.String(), Expected: tt.String(), Line: p.cur.Line}
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return tok, nil
}

// ParseFile parses a whole source file: a sequence of Items until EOF.
func ParseFile(l *lexer.Lexer) (*ast.File, error) {
	p, err := New(l)
	if err != nil {
		return nil, err
	}
	return p.parseFile()
}

func (p *Parser) parseFile() (*ast.File, error) {
	file := &ast.File{}
	seen := map[string]bool{}
	for p.cur.Type != lexer.EOF {
		if p.cur.Type != lexer.FN {
			return nil, &ExpectedEOFError{Found: p.cur.Type.String(), Line: p.cur.Line}
		}
		fn, err := p.parseFuncDecl()
		if err != nil {
			return nil, err
		}
		if seen[fn.Name] {
			return nil, &DuplicatedFunctionError{Name: fn.Name, Line: fn.Line}
		}
		seen[fn.Name] = true
		file.Items = append(file.Items, fn)
	}
	return file, nil
}

func (p *Parser) parseFuncDecl() (*ast.FuncDecl, error) {
	fnTok, err := p.expect(lexer.FN)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}

	var ret ast.Type
	if p.cur.Type == lexer.ARROW {
		if err := p.advance(); err != nil {
			return nil, err
		}
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.FuncDecl{Name: name.Literal, Params: params, Ret: ret, Body: body, Line: fnTok.Line}, nil
}

func (p *Parser) parseParams() ([]*ast.Param, error) {
	var params []*ast.Param
	if p.cur.Type == lexer.RPAREN {
		return params, nil
	}
	seen := map[string]bool{}
	for {
		nameTok, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if seen[nameTok.Literal] {
			return nil, &DuplicatedFunctionArgumentError{Name: nameTok.Literal, Line: nameTok.Line}
		}
		seen[nameTok.Literal] = true
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, &ast.Param{Name: nameTok.Literal, Type: ty, Line: nameTok.Line})

		if p.cur.Type != lexer.COMMA {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return params, nil
}

// parseType implements: Type := Ident | '(' ')' | '&' Type | '&&' Type
func (p *Parser) parseType() (ast.Type, error) {
	switch p.cur.Type {
	case lexer.IDENT:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.NamedType{Name: tok.Literal, Line: tok.Line}, nil

	case lexer.LPAREN:
		line := p.cur.Line
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return &ast.NamedType{Name: "()", Line: line}, nil

	case lexer.AMP:
		line := p.cur.Line
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ast.RefType{Inner: inner, Line: line}, nil

	case lexer.ANDAND:
		line := p.cur.Line
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ast.RefType{Inner: &ast.RefType{Inner: inner, Line: line}, Line: line}, nil

	default:
		return nil, &UnknownTypeError{Found: p.cur.Type.String(), Line: p.cur.Line}
	}
}

// parseBlock implements: Block := '{' Stmt* Expr? '}'
func (p *Parser) parseBlock() (*ast.Block, error) {
	openTok, err := p.expect(lexer.LBRACE)
	if err != nil {
		return nil, err
	}
	block := &ast.Block{Line: openTok.Line}

	for p.cur.Type != lexer.RBRACE {
		if p.cur.Type == lexer.EOF {
			return nil, &UnexpectedTokenError{Found: "EOF", Expected: "}", Line: p.cur.Line}
		}

		if p.cur.Type == lexer.LET {
			stmt, err := p.parseLetStmt()
			if err != nil {
				return nil, err
			}
			block.Stmts = append(block.Stmts, stmt)
			continue
		}

		stmtLine := p.cur.Line
		expr, blockValued, err := p.parseExprTop()
		if err != nil {
			// A token that cannot start any expression at all, right at
			// statement position, is better reported against the
			// Statement production than the generic "expression" one
			// (mirrors original_source/src/parse.rs's per-token
			// TokenType classification into Item/Statement/Expression).
			if ute, ok := err.(*UnexpectedTokenError); ok && ute.Expected == "expression" && ute.Line == stmtLine {
				ute.Expected = "Statement"
			}
			return nil, err
		}

		if blockValued {
			// Block-as-statement rule: a block-valued form (if, {..})
			// that is not in tail position is a statement with no ';'
			// required or consumed. If one follows anyway, it starts a
			// new (empty) statement attempt and fails on its own, which
			// is the source of spec §8 scenario 7's UnexpectedToken.
			if p.cur.Type == lexer.RBRACE {
				block.Expr = expr
			} else {
				block.Stmts = append(block.Stmts, &ast.ExprStmt{X: expr, Line: stmtLine})
			}
			continue
		}

		switch p.cur.Type {
		case lexer.SEMICOLON:
			if err := p.advance(); err != nil {
				return nil, err
			}
			block.Stmts = append(block.Stmts, &ast.ExprStmt{X: expr, Line: stmtLine})
		case lexer.RBRACE:
			block.Expr = expr
		default:
			return nil, &ExpectedSemicolonError{Line: p.cur.Line}
		}
	}

	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseLetStmt() (*ast.LetStmt, error) {
	letTok, err := p.expect(lexer.LET)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	stmt := &ast.LetStmt{Name: name.Literal, Line: letTok.Line}

	if p.cur.Type == lexer.COLON {
		if err := p.advance(); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		stmt.Type = ty
	}

	if p.cur.Type == lexer.ASSIGN {
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		stmt.Value = value
	}

	if _, err := p.expect(lexer.SEMICOLON); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseExprTop parses one Stmt-level expression, reporting whether it
// is block-valued (If or {..}) for the block-as-statement rule.
func (p *Parser) parseExprTop() (expr *ast.Expr, blockValued bool, err error) {
	switch p.cur.Type {
	case lexer.IF:
		e, err := p.parseIfExpr()
		return e, true, err
	case lexer.LBRACE:
		blk, err := p.parseBlock()
		if err != nil {
			return nil, false, err
		}
		return &ast.Expr{Kind: ast.BlockExpr, Line: blk.Line, Blk: blk}, true, nil
	default:
		e, err := p.parseAssignOrExpr()
		return e, false, err
	}
}

// parseAssignOrExpr handles `Ident '=' Expr` (an Assign expression, per
// the AST's Assign(dst,src) kind) ahead of the ordinary precedence
// climb, since '=' does not appear in the precedence table and always
// binds everything to its right.
func (p *Parser) parseAssignOrExpr() (*ast.Expr, error) {
	if p.cur.Type == lexer.IDENT && p.peek.Type == lexer.ASSIGN {
		name := p.cur
		if err := p.advance(); err != nil { // consume ident
			return nil, err
		}
		if err := p.advance(); err != nil { // consume '='
			return nil, err
		}
		src, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.Assign, Name: name.Literal, X: src, Line: name.Line}, nil
	}
	return p.parseExpr(1)
}

// binOpFor returns a binary token's AST BinOp and spec §4.2 precedence
// level, or ok=false if tt is not a binary operator token.
func binOpFor(tt lexer.TokenType) (ast.BinOp, int, bool) {
	switch tt {
	case lexer.STAR:
		return ast.Mul, 9, true
	case lexer.SLASH:
		return ast.Div, 9, true
	case lexer.PERCENT:
		return ast.Rem, 9, true
	case lexer.PLUS:
		return ast.Add, 8, true
	case lexer.MINUS:
		return ast.Sub, 8, true
	case lexer.SHL:
		return ast.Shl, 7, true
	case lexer.SHR:
		return ast.Shr, 7, true
	case lexer.AMP:
		return ast.BitAnd, 6, true
	case lexer.CARET:
		return ast.BitXor, 5, true
	case lexer.PIPE:
		return ast.BitOr, 4, true
	case lexer.EQ:
		return ast.Eq, 3, true
	case lexer.NEQ:
		return ast.Neq, 3, true
	case lexer.LT:
		return ast.Lt, 3, true
	case lexer.LTE:
		return ast.Lte, 3, true
	case lexer.GT:
		return ast.Gt, 3, true
	case lexer.GTE:
		return ast.Gte, 3, true
	case lexer.ANDAND:
		return ast.And, 2, true
	case lexer.OROR:
		return ast.Or, 1, true
	default:
		return 0, 0, false
	}
}

// parseExpr implements precedence climbing (spec §4.2 / §9): reads one
// Unary, then repeatedly folds in `op rhs` while op's precedence is at
// least minPrec. A following operator that strictly out-binds the one
// just folded is consumed by recursing with prec+1 as the new floor;
// equal precedence is handled by this same loop, which folds left
// (spec: "equal precedence folds left").
func (p *Parser) parseExpr(minPrec int) (*ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, prec, ok := binOpFor(p.cur.Type)
		if !ok || prec < minPrec {
			return lhs, nil
		}
		line := p.cur.Line
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &ast.Expr{Kind: ast.Binop, Op: op, Lhs: lhs, Rhs: rhs, Line: line}
	}
}

// parseUnary implements: Unary := '+'|'-'|'!'|'&'|'&&'|'*' Unary | Primary
func (p *Parser) parseUnary() (*ast.Expr, error) {
	var kind ast.ExprKind
	switch p.cur.Type {
	case lexer.PLUS:
		kind = ast.Pos
	case lexer.MINUS:
		kind = ast.Neg
	case lexer.BANG:
		kind = ast.Not
	case lexer.STAR:
		kind = ast.Deref
	case lexer.AMP:
		kind = ast.Ref
	case lexer.ANDAND:
		// '&&' as a prefix is sugar for a double reference: &(&inner).
		line := p.cur.Line
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.Ref, Line: line, X: &ast.Expr{Kind: ast.Ref, Line: line, X: inner}}, nil
	default:
		return p.parsePrimary()
	}

	line := p.cur.Line
	if err := p.advance(); err != nil {
		return nil, err
	}
	inner, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Expr{Kind: kind, Line: line, X: inner}, nil
}

// parsePrimary implements:
// Primary := IntLit | 'true' | 'false' | Ident | Ident '(' ArgExprs ')'
//
//	| 'if' Expr Block ('else' (Block|IfExpr))?
//	| Block
//	| '(' ')' | '(' Expr ')'
//	| 'return' Expr?
func (p *Parser) parsePrimary() (*ast.Expr, error) {
	switch p.cur.Type {
	case lexer.INTEGER:
		return p.parseIntLiteral()

	case lexer.TRUE, lexer.FALSE:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.BoolLiteral, BoolValue: tok.Type == lexer.TRUE, Line: tok.Line}, nil

	case lexer.IDENT:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type != lexer.LPAREN {
			return &ast.Expr{Kind: ast.Variable, Name: tok.Literal, Line: tok.Line}, nil
		}
		if err := p.advance(); err != nil { // consume '('
			return nil, err
		}
		args, err := p.parseArgExprs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.Call, Name: tok.Literal, Args: args, Line: tok.Line}, nil

	case lexer.IF:
		return p.parseIfExpr()

	case lexer.LBRACE:
		blk, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.BlockExpr, Line: blk.Line, Blk: blk}, nil

	case lexer.LPAREN:
		line := p.cur.Line
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type == lexer.RPAREN {
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &ast.Expr{Kind: ast.UnitLiteral, Line: line}, nil
		}
		inner, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil

	case lexer.RETURN:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.atStmtEnd() {
			return &ast.Expr{Kind: ast.Return, Line: tok.Line}, nil
		}
		inner, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.Return, X: inner, Line: tok.Line}, nil

	default:
		return nil, &UnexpectedTokenError{Found: p.cur.Type.String(), Expected: "expression", Line: p.cur.Line}
	}
}

// atStmtEnd reports whether cur ends a statement/block, used to decide
// whether a bare `return` has a trailing value expression.
func (p *Parser) atStmtEnd() bool {
	return p.cur.Type == lexer.SEMICOLON || p.cur.Type == lexer.RBRACE
}

func (p *Parser) parseArgExprs() ([]*ast.Expr, error) {
	var args []*ast.Expr
	if p.cur.Type == lexer.RPAREN {
		return args, nil
	}
	for {
		arg, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur.Type != lexer.COMMA {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// parseIfExpr implements: 'if' Expr Block ('else' (Block|IfExpr))?
func (p *Parser) parseIfExpr() (*ast.Expr, error) {
	ifTok, err := p.expect(lexer.IF)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(1)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	expr := &ast.Expr{Kind: ast.If, Line: ifTok.Line, Cond: cond, Then: then}

	if p.cur.Type == lexer.ELSE {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type == lexer.IF {
			elseExpr, err := p.parseIfExpr()
			if err != nil {
				return nil, err
			}
			expr.Else = elseExpr
		} else {
			blk, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			expr.Else = &ast.Expr{Kind: ast.BlockExpr, Line: blk.Line, Blk: blk}
		}
	}

	return expr, nil
}

// validSuffixes is the exact suffix table from spec §4.2.
var validSuffixes = map[string]bool{
	"": true, "s8": true, "s16": true, "s32": true, "s64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
}

func (p *Parser) parseIntLiteral() (*ast.Expr, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	if !validSuffixes[tok.Suffix] {
		return nil, &InvalidSuffixError{Suffix: tok.Suffix, Line: tok.Line}
	}
	value, err := strconv.ParseUint(tok.Literal, 10, 64)
	if err != nil {
		// The lexer only ever reads digit runs, so this cannot happen
		// for well-formed input; surface it as an internal compiler error.
		return nil, &UnexpectedTokenError{Found: tok.Literal, Expected: "integer literal", Line: tok.Line}
	}
	return &ast.Expr{Kind: ast.IntLiteral, IntValue: value, IntSuffix: tok.Suffix, Line: tok.Line}, nil
}
