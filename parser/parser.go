// Package parser implements the minic recursive-descent, precedence
// climbing parser described in spec.md §4.2.
package parser

import (
	"fmt"
	"strconv"

	"github.com/go-minic/minic/ast"
	"github.com/go-minic/minic/cerrors"
	"github.com/go-minic/minic/lexer"
	"github.com/go-minic/minic/token"
)

// Parser consumes a token stream and builds an AST for one translation
// unit. It tokenizes eagerly (like the teacher's assembler parser) and
// keeps a current/peek pair of look-ahead tokens.
type Parser struct {
	tokens       []token.Token
	pos          int
	currentToken token.Token
	peekToken    token.Token
}

// New tokenizes input and prepares a Parser over it.
func New(input, filename string) (*Parser, error) {
	toks, err := lexer.TokenizeAll(input, filename)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: toks}
	p.nextToken()
	p.nextToken()
	return p, nil
}

func (p *Parser) nextToken() {
	p.currentToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
	} else {
		p.peekToken = token.Token{Type: token.EOF, Pos: p.currentToken.Pos}
	}
}

func (p *Parser) errorf(pos token.Position, format string, args ...interface{}) error {
	return cerrors.NewError(pos, cerrors.KindParse, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(tt token.Type) (token.Token, error) {
	if p.currentToken.Type != tt {
		return token.Token{}, p.errorf(p.currentToken.Pos, "expected %s, got %s (%q)", tt, p.currentToken.Type, p.currentToken.Literal)
	}
	tok := p.currentToken
	p.nextToken()
	return tok, nil
}

// Parse parses the entire translation unit: `int <name>(void) { ... }`.
func Parse(input, filename string) (*ast.Program, error) {
	p, err := New(input, filename)
	if err != nil {
		return nil, err
	}
	return p.parseProgram()
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	fn, err := p.parseFunction()
	if err != nil {
		return nil, err
	}
	if p.currentToken.Type != token.EOF {
		return nil, p.errorf(p.currentToken.Pos, "unexpected trailing token %s", p.currentToken.Type)
	}
	return &ast.Program{Function: fn}, nil
}

func (p *Parser) parseFunction() (*ast.Function, error) {
	if _, err := p.expect(token.KeywordInt); err != nil {
		return nil, err
	}
	name, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KeywordVoid); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	body, err := p.parseBlockItems()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return &ast.Function{Name: name.Literal, Body: body}, nil
}

func (p *Parser) parseBlockItems() ([]ast.BlockItem, error) {
	var items []ast.BlockItem
	for p.currentToken.Type != token.RBrace && p.currentToken.Type != token.EOF {
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *Parser) parseBlockItem() (ast.BlockItem, error) {
	if p.currentToken.Type == token.KeywordInt {
		return p.parseDeclaration()
	}
	return p.parseStatement()
}

func (p *Parser) parseDeclaration() (*ast.Declaration, error) {
	if _, err := p.expect(token.KeywordInt); err != nil {
		return nil, err
	}
	name, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	decl := &ast.Declaration{Name: name.Literal}
	if p.currentToken.Type == token.Equal {
		p.nextToken()
		init, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.currentToken.Type {
	case token.KeywordReturn:
		p.nextToken()
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Value: val}, nil

	case token.Semicolon:
		p.nextToken()
		return &ast.NullStmt{}, nil

	case token.KeywordBreak:
		p.nextToken()
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{}, nil

	case token.KeywordContinue:
		p.nextToken()
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{}, nil

	case token.LBrace:
		return p.parseCompound()

	case token.KeywordIf:
		return p.parseIf()

	case token.KeywordWhile:
		return p.parseWhile()

	case token.KeywordDo:
		return p.parseDoWhile()

	case token.KeywordFor:
		return p.parseFor()

	default:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.ExpressionStmt{Expr: expr}, nil
	}
}

func (p *Parser) parseCompound() (*ast.CompoundStmt, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	items, err := p.parseBlockItems()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return &ast.CompoundStmt{Body: items}, nil
}

func (p *Parser) parseIf() (*ast.IfStmt, error) {
	p.nextToken() // consume 'if'
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Cond: cond, Then: then}
	if p.currentToken.Type == token.KeywordElse {
		p.nextToken()
		elseStmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseStmt
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (*ast.WhileStmt, error) {
	p.nextToken() // consume 'while'
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body}, nil
}

func (p *Parser) parseDoWhile() (*ast.DoWhileStmt, error) {
	p.nextToken() // consume 'do'
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KeywordWhile); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.DoWhileStmt{Body: body, Cond: cond}, nil
}

func (p *Parser) parseFor() (*ast.ForStmt, error) {
	p.nextToken() // consume 'for'
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	var init ast.ForInit
	if p.currentToken.Type == token.KeywordInt {
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		init = decl
	} else if p.currentToken.Type != token.Semicolon {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		init = &ast.ExpressionStmt{Expr: expr}
	} else {
		p.nextToken() // consume bare ';'
	}

	var cond ast.Expression
	if p.currentToken.Type != token.Semicolon {
		c, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		cond = c
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}

	var post ast.Expression
	if p.currentToken.Type != token.RParen {
		pe, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		post = pe
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	return &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body}, nil
}

// precedence climbing, per the table in spec.md §4.2.
var binaryPrecedence = map[token.Type]int{
	token.Star:         50,
	token.Slash:        50,
	token.Percent:      50,
	token.Plus:         45,
	token.Minus:        45,
	token.Less:         35,
	token.LessEqual:    35,
	token.Greater:      35,
	token.GreaterEqual: 35,
	token.EqualEqual:   30,
	token.BangEqual:    30,
	token.AmpAmp:       10,
	token.PipePipe:     5,
	token.Equal:        1,
}

var binaryOpFor = map[token.Type]ast.BinaryOp{
	token.Star:         ast.Mul,
	token.Slash:        ast.Div,
	token.Percent:      ast.Rem,
	token.Plus:         ast.Add,
	token.Minus:        ast.Sub,
	token.Less:         ast.Lt,
	token.LessEqual:    ast.Le,
	token.Greater:      ast.Gt,
	token.GreaterEqual: ast.Ge,
	token.EqualEqual:   ast.Eq,
	token.BangEqual:    ast.Ne,
	token.AmpAmp:       ast.And,
	token.PipePipe:     ast.Or,
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseConditional()
}

func (p *Parser) parseConditional() (ast.Expression, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.currentToken.Type != token.Question {
		return cond, nil
	}
	p.nextToken()
	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ConditionalExpr{Cond: cond, Then: then, Else: elseExpr}, nil
}

// parseBinary implements precedence climbing: it only continues
// consuming an operator while its precedence is >= minPrec.
func (p *Parser) parseBinary(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnaryOrFactor()
	if err != nil {
		return nil, err
	}

	for {
		prec, ok := binaryPrecedence[p.currentToken.Type]
		if !ok || prec < minPrec {
			return left, nil
		}

		opTok := p.currentToken

		if opTok.Type == token.Equal {
			// right-associative: rhs parses starting at the same precedence
			p.nextToken()
			rhs, err := p.parseBinary(prec)
			if err != nil {
				return nil, err
			}
			left = &ast.AssignExpr{Lvalue: left, Rhs: rhs}
			continue
		}

		p.nextToken()
		right, err := p.parseBinary(prec + 1) // left-associative
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: binaryOpFor[opTok.Type], Left: left, Right: right}
	}
}

// parseUnaryOrFactor parses a "factor": a unary prefix operator, a
// parenthesized sub-expression, a constant, or an identifier.
func (p *Parser) parseUnaryOrFactor() (ast.Expression, error) {
	switch p.currentToken.Type {
	case token.Minus:
		p.nextToken()
		val, err := p.parseUnaryOrFactor()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.Negate, Val: val}, nil
	case token.Tilde:
		p.nextToken()
		val, err := p.parseUnaryOrFactor()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.Complement, Val: val}, nil
	case token.Bang:
		p.nextToken()
		val, err := p.parseUnaryOrFactor()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.Not, Val: val}, nil
	case token.LParen:
		p.nextToken()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return expr, nil
	case token.Constant:
		tok := p.currentToken
		p.nextToken()
		v, err := strconv.Atoi(tok.Literal)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid integer constant %q", tok.Literal)
		}
		return &ast.ConstantExpr{Value: v}, nil
	case token.Identifier:
		tok := p.currentToken
		p.nextToken()
		return &ast.VariableExpr{Name: tok.Literal}, nil
	default:
		return nil, p.errorf(p.currentToken.Pos, "expected expression, got %s", p.currentToken.Type)
	}
}
