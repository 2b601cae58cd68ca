// Package parser implements the recursive-descent, operator-precedence
// parser described in spec §4.2: 13 precedence tiers driven by a mutable
// cursor into the token sequence, producing the heterogeneous ast.Node tree.
package parser

import (
	"github.com/danielcimento/yacc/internal/ast"
	"github.com/danielcimento/yacc/internal/diag"
	"github.com/danielcimento/yacc/internal/token"
)

// Parser holds the token sequence and a cursor into it. Every parse<Tier>
// method advances the cursor and returns the subtree it parsed.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New returns a Parser over tokens, which must end with a token.EOF sentinel.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) current() token.Token { return p.tokens[p.pos] }

func (p *Parser) check(kind token.Kind) bool { return p.current().Kind == kind }

func (p *Parser) advance() token.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

// expect consumes the current token if it matches kind, otherwise raises a
// fatal Parse error quoting the offending token and its stream index, with
// an optional hint.
func (p *Parser) expect(kind token.Kind, hint string) (token.Token, error) {
	if !p.check(kind) {
		return token.Token{}, p.unexpected(hint)
	}
	return p.advance(), nil
}

func (p *Parser) unexpected(hint string) error {
	msg := p.current().String()
	if hint != "" {
		return diag.New(diag.Parse, "unexpected token %s at index %d (%s)", msg, p.pos, hint)
	}
	return diag.New(diag.Parse, "unexpected token %s at index %d", msg, p.pos)
}

// ParseProgram builds the synthetic root Scope (Descend = false, since no
// '{' in the source matches it) and accumulates top-level statements until
// EOF.
func (p *Parser) ParseProgram() (*ast.Node, error) {
	root := &ast.Node{Kind: ast.Scope, Descend: false}
	for !p.check(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		root.Statements = append(root.Statements, stmt)
	}
	return root, nil
}

// parseBlock parses a source-level '{' ... '}' block. The opening brace
// must already have been consumed by the caller.
func (p *Parser) parseBlock() (*ast.Node, error) {
	block := &ast.Node{Kind: ast.Scope, Descend: true}
	for !p.check(token.RBRACE) {
		if p.check(token.EOF) {
			return nil, p.unexpected("unclosed '{', expected a matching '}'")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.advance() // consume '}'
	return block, nil
}

func (p *Parser) parseStatement() (*ast.Node, error) {
	switch p.current().Kind {
	case token.LBRACE:
		p.advance()
		return p.parseBlock()

	case token.SEMI:
		p.advance()
		return &ast.Node{Kind: ast.Noop}, nil

	case token.BREAK:
		p.advance()
		if _, err := p.expect(token.SEMI, "you may be missing a semicolon"); err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.Break}, nil

	case token.CONTINUE:
		p.advance()
		if _, err := p.expect(token.SEMI, "you may be missing a semicolon"); err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.Continue}, nil

	case token.IF:
		return p.parseIf()

	case token.WHILE:
		return p.parseWhile()

	case token.DO:
		return p.parseDoWhile()

	case token.FOR:
		return p.parseFor()

	case token.GOTO:
		return nil, diag.New(diag.Parse, "'goto' is not yet implemented")

	case token.LABEL:
		return nil, diag.New(diag.Parse, "labels are not yet implemented")

	default:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI, "you may be missing a semicolon"); err != nil {
			return nil, err
		}
		return expr, nil
	}
}

func (p *Parser) parseIf() (*ast.Node, error) {
	p.advance() // 'if'
	if _, err := p.expect(token.LPAREN, ""); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "make sure all parentheses are properly enclosed"); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	elseBranch := &ast.Node{Kind: ast.Noop}
	if p.check(token.ELSE) {
		p.advance()
		elseBranch, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}

	return &ast.Node{Kind: ast.If, Left: cond, Middle: then, Right: elseBranch}, nil
}

func (p *Parser) parseWhile() (*ast.Node, error) {
	p.advance() // 'while'
	if _, err := p.expect(token.LPAREN, ""); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "make sure all parentheses are properly enclosed"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.While, Left: cond, Right: body}, nil
}

func (p *Parser) parseDoWhile() (*ast.Node, error) {
	p.advance() // 'do'
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHILE, "'do' must be followed by a 'while' condition"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, ""); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "make sure all parentheses are properly enclosed"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI, "you may be missing a semicolon"); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.DoWhile, Left: body, Right: cond}, nil
}

func (p *Parser) parseFor() (*ast.Node, error) {
	p.advance() // 'for'
	if _, err := p.expect(token.LPAREN, ""); err != nil {
		return nil, err
	}

	init := &ast.Node{Kind: ast.Noop}
	var err error
	if !p.check(token.SEMI) {
		init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMI, "you may be missing a semicolon"); err != nil {
		return nil, err
	}

	cond := &ast.Node{Kind: ast.Noop}
	if !p.check(token.SEMI) {
		cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMI, "you may be missing a semicolon"); err != nil {
		return nil, err
	}

	post := &ast.Node{Kind: ast.Noop}
	if !p.check(token.RPAREN) {
		post, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN, "make sure all parentheses are properly enclosed"); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	return &ast.Node{Kind: ast.For, Left: init, Middle: cond, Right: post, Extra: body}, nil
}

// parseExpression chains assignments: after parsing a tier-12 (ternary)
// expression, if the next token is '=', it recurses to consume the
// right-hand side and builds an Assign node. Lvalue-ness of the left-hand
// side is not checked here — that is deferred to CodeGen.
func (p *Parser) parseExpression() (*ast.Node, error) {
	lhs, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.check(token.ASSIGN) {
		p.advance()
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.Assign, Left: lhs, Right: rhs}, nil
	}
	return lhs, nil
}

// parseTernary is precedence tier 12, right-associative: `cond ? then : else`.
func (p *Parser) parseTernary() (*ast.Node, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if !p.check(token.QUESTION) {
		return cond, nil
	}
	p.advance()
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON, "ternary expressions require a ':' between the two branches"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.Ternary, Left: cond, Middle: then, Right: elseExpr}, nil
}

// Tiers 11/10/9/8/7 (||, &&, |, ^, &) are reserved precedence slots: the
// grammar deliberately passes each straight through to its child tier,
// keeping the slot without parsing any operator at it.
func (p *Parser) parseLogicalOr() (*ast.Node, error)  { return p.parseLogicalAnd() }
func (p *Parser) parseLogicalAnd() (*ast.Node, error) { return p.parseBitwiseOr() }
func (p *Parser) parseBitwiseOr() (*ast.Node, error)  { return p.parseBitwiseXor() }
func (p *Parser) parseBitwiseXor() (*ast.Node, error) { return p.parseBitwiseAnd() }
func (p *Parser) parseBitwiseAnd() (*ast.Node, error) { return p.parseEquality() }

// parseEquality is tier 6 (==, !=), parsed right-associatively.
func (p *Parser) parseEquality() (*ast.Node, error) {
	lhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	switch p.current().Kind {
	case token.EQ:
		p.advance()
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.Equal, Left: lhs, Right: rhs}, nil
	case token.NEQ:
		p.advance()
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.NotEqual, Left: lhs, Right: rhs}, nil
	default:
		return lhs, nil
	}
}

// parseRelational is tier 5 (<, >, <=, >=), parsed right-associatively.
func (p *Parser) parseRelational() (*ast.Node, error) {
	lhs, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	var kind ast.Kind
	switch p.current().Kind {
	case token.LEQ:
		kind = ast.LessEq
	case token.GEQ:
		kind = ast.GreaterEq
	case token.LT:
		kind = ast.Less
	case token.GT:
		kind = ast.Greater
	default:
		return lhs, nil
	}
	p.advance()
	rhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: kind, Left: lhs, Right: rhs}, nil
}

// parseShift is tier 4 (<<, >>): reserved, passes through to tier 3.
func (p *Parser) parseShift() (*ast.Node, error) { return p.parseAdditive() }

// parseAdditive is tier 3 (+, -), parsed right-associatively.
func (p *Parser) parseAdditive() (*ast.Node, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	var kind ast.Kind
	switch p.current().Kind {
	case token.PLUS:
		kind = ast.Add
	case token.MINUS:
		kind = ast.Sub
	default:
		return lhs, nil
	}
	p.advance()
	rhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: kind, Left: lhs, Right: rhs}, nil
}

// parseMultiplicative is tier 2 (*, /, %), parsed right-associatively.
func (p *Parser) parseMultiplicative() (*ast.Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	var kind ast.Kind
	switch p.current().Kind {
	case token.STAR:
		kind = ast.Mul
	case token.SLASH:
		kind = ast.Div
	case token.PERCENT:
		kind = ast.Mod
	default:
		return lhs, nil
	}
	p.advance()
	rhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: kind, Left: lhs, Right: rhs}, nil
}

// parseUnary is tier 1, right-to-left associative: prefix --/++/-/+/~/!
// recurse into the same tier; otherwise tier 0 is parsed and a trailing
// ++/-- is folded in as a postfix node.
func (p *Parser) parseUnary() (*ast.Node, error) {
	switch p.current().Kind {
	case token.INC:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.PreIncrement, Middle: operand}, nil
	case token.DEC:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.PreDecrement, Middle: operand}, nil
	case token.MINUS:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.UnaryNeg, Middle: operand}, nil
	case token.PLUS:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.UnaryPos, Middle: operand}, nil
	case token.TILDE:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.UnaryBitComplement, Middle: operand}, nil
	case token.BANG:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.UnaryBoolNot, Middle: operand}, nil
	}

	operand, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	switch p.current().Kind {
	case token.INC:
		p.advance()
		return &ast.Node{Kind: ast.PostIncrement, Middle: operand}, nil
	case token.DEC:
		p.advance()
		return &ast.Node{Kind: ast.PostDecrement, Middle: operand}, nil
	default:
		return operand, nil
	}
}

// parsePrimary is tier 0: a number, an identifier, or a parenthesized
// expression. Any other token is fatal.
func (p *Parser) parsePrimary() (*ast.Node, error) {
	tok := p.current()
	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.Node{Kind: ast.Number, Val: tok.Val}, nil
	case token.IDENT:
		p.advance()
		return &ast.Node{Kind: ast.Identifier, Name: tok.Name}, nil
	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "make sure all parentheses are properly enclosed"); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, p.unexpected("")
	}
}
