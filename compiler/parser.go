package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/howl/vm"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for howl syntax
// ---------------------------------------------------------------------------

// Parser parses howl source code into an AST. Identifiers are interned into
// the given table as they are parsed.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	prevEnd   Position
	errors    []string
	idents    *vm.IdentTable
}

// NewParser creates a new parser for the given input.
func NewParser(input string, idents *vm.IdentTable) *Parser {
	p := &Parser{
		lexer:  NewLexer(input),
		idents: idents,
	}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// ParseError carries every error found in one source text.
type ParseError struct {
	Errors []string
}

func (e *ParseError) Error() string {
	return "parse error: " + strings.Join(e.Errors, "; ")
}

// Parse parses a whole program.
func Parse(src string, idents *vm.IdentTable) ([]Stmt, error) {
	p := NewParser(src, idents)
	stmts := p.ParseStatements()
	if len(p.errors) > 0 {
		return nil, &ParseError{Errors: p.errors}
	}
	return stmts, nil
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prevEnd = p.curEnd()
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// curEnd is the position just past the current token.
func (p *Parser) curEnd() Position {
	end := p.curToken.Pos
	n := len(p.curToken.Literal)
	if p.curToken.Type == TokenString {
		n += 2
	}
	end.Offset += n
	end.Column += n
	return end
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// peekTokenIs checks if the peek token is of the given type.
func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

// expect advances if the current token matches, otherwise records an error.
func (p *Parser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %s", t, p.curToken)
	return false
}

// errorf records a parse error.
func (p *Parser) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf("line %d: %s", p.curToken.Pos.Line, fmt.Sprintf(format, args...))
	p.errors = append(p.errors, msg)
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []string {
	return p.errors
}

// synchronize skips to just past the next ';' at the current nesting level,
// or to a closing ']' or EOF.
func (p *Parser) synchronize() {
	depth := 0
	for !p.curTokenIs(TokenEOF) {
		switch p.curToken.Type {
		case TokenLBracket, TokenLParen:
			depth++
		case TokenRParen:
			if depth > 0 {
				depth--
			}
		case TokenRBracket:
			if depth == 0 {
				return
			}
			depth--
		case TokenSemicolon:
			if depth == 0 {
				p.nextToken()
				return
			}
		}
		p.nextToken()
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ParseStatements parses statements until EOF.
func (p *Parser) ParseStatements() []Stmt {
	stmts := p.parseStatementsUntil(TokenEOF)
	if !p.curTokenIs(TokenEOF) {
		p.errorf("unexpected %s", p.curToken)
	}
	return stmts
}

func (p *Parser) parseStatementsUntil(end TokenType) []Stmt {
	var stmts []Stmt
	for !p.curTokenIs(end) && !p.curTokenIs(TokenEOF) {
		if p.curTokenIs(TokenRBracket) {
			// Stray ']' at top level.
			p.errorf("unexpected %s", p.curToken)
			p.nextToken()
			continue
		}
		stmt := p.ParseStatement()
		if stmt == nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

// ParseStatement parses `ident = execution ;` or `execution ;`.
func (p *Parser) ParseStatement() Stmt {
	start := p.curToken.Pos

	if p.curTokenIs(TokenTypeDef) {
		return p.parseTypeDef(start)
	}

	if p.curTokenIs(TokenIdentifier) && p.peekTokenIs(TokenAssign) {
		target := p.parseIdentifier()
		p.nextToken() // consume =
		value := p.parseExecution()
		if value == nil || !p.expect(TokenSemicolon) {
			return nil
		}
		return &Assignment{SpanVal: Span{Start: start, End: p.prevEnd}, Target: target, Value: value}
	}

	exec := p.parseExecution()
	if exec == nil || !p.expect(TokenSemicolon) {
		return nil
	}
	return &ExprStmt{SpanVal: Span{Start: start, End: p.prevEnd}, Exec: exec}
}

// ---------------------------------------------------------------------------
// Executions
// ---------------------------------------------------------------------------

// endsExecution reports whether the current token closes an execution.
// parseTypeDef parses `type Name (field, ...);`.
func (p *Parser) parseTypeDef(start Position) Stmt {
	p.nextToken() // consume type
	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected type name, got %s", p.curToken)
		return nil
	}
	name := p.parseIdentifier()
	if !p.expect(TokenLParen) {
		return nil
	}
	var fields []*Ident
	for !p.curTokenIs(TokenRParen) {
		if !p.curTokenIs(TokenIdentifier) {
			p.errorf("expected field name, got %s", p.curToken)
			return nil
		}
		fields = append(fields, p.parseIdentifier())
		if !p.curTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}
	if !p.expect(TokenRParen) || !p.expect(TokenSemicolon) {
		return nil
	}
	return &TypeDef{SpanVal: Span{Start: start, End: p.prevEnd}, Name: name, Fields: fields}
}

func (p *Parser) endsExecution() bool {
	switch p.curToken.Type {
	case TokenSemicolon, TokenRBracket, TokenRParen, TokenEOF:
		return true
	}
	return false
}

// parseExecution parses one expression, optionally followed by a message
// identifier and its arguments. The second position is always the message.
func (p *Parser) parseExecution() Execution {
	start := p.curToken.Pos
	recv := p.parseExpression()
	if recv == nil {
		return nil
	}
	if p.endsExecution() {
		return &Single{Value: recv}
	}

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected message name, got %s", p.curToken)
		return nil
	}
	msg := p.parseIdentifier()

	call := &Call{Receiver: recv, Message: msg}
	for !p.endsExecution() {
		arg := p.parseExpression()
		if arg == nil {
			return nil
		}
		call.Args = append(call.Args, arg)
	}
	call.SpanVal = Span{Start: start, End: p.prevEnd}
	return call
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *Parser) parseExpression() Expr {
	switch p.curToken.Type {
	case TokenIdentifier:
		return p.parseIdentifier()
	case TokenInteger:
		return p.parseInteger()
	case TokenFloat:
		return p.parseFloat()
	case TokenString:
		return p.parseString()
	case TokenTrue, TokenFalse:
		return p.parseBool()
	case TokenNil:
		n := &NilLiteral{SpanVal: p.tokenSpan()}
		p.nextToken()
		return n
	case TokenLBracket:
		return p.parseBlock()
	case TokenLParen:
		return p.parseGroup()
	case TokenError:
		p.errorf("%s", p.curToken.Literal)
		return nil
	case TokenAssign:
		p.errorf("unexpected '=': only identifiers can be assigned")
		return nil
	default:
		p.errorf("unexpected %s", p.curToken)
		return nil
	}
}

func (p *Parser) tokenSpan() Span {
	return Span{Start: p.curToken.Pos, End: p.curEnd()}
}

func (p *Parser) parseIdentifier() *Ident {
	id := &Ident{
		SpanVal: p.tokenSpan(),
		Name:    p.curToken.Literal,
		ID:      p.idents.Intern(p.curToken.Literal),
	}
	p.nextToken()
	return id
}

// parseInteger parses a decimal int32 literal.
func (p *Parser) parseInteger() Expr {
	n, err := strconv.ParseInt(p.curToken.Literal, 10, 32)
	if err != nil {
		p.errorf("integer literal %s out of range", p.curToken.Literal)
		return nil
	}
	lit := &IntLiteral{SpanVal: p.tokenSpan(), Value: int32(n)}
	p.nextToken()
	return lit
}

func (p *Parser) parseFloat() Expr {
	f, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errorf("could not parse float literal %s", p.curToken.Literal)
		return nil
	}
	lit := &FloatLiteral{SpanVal: p.tokenSpan(), Value: f}
	p.nextToken()
	return lit
}

func (p *Parser) parseString() Expr {
	lit := &StringLiteral{SpanVal: p.tokenSpan(), Value: p.curToken.Literal}
	p.nextToken()
	return lit
}

func (p *Parser) parseBool() Expr {
	lit := &BoolLiteral{SpanVal: p.tokenSpan(), Value: p.curTokenIs(TokenTrue)}
	p.nextToken()
	return lit
}

// parseBlock parses [ stmt* ].
func (p *Parser) parseBlock() Expr {
	start := p.curToken.Pos
	p.nextToken() // consume [

	stmts := p.parseStatementsUntil(TokenRBracket)
	if !p.expect(TokenRBracket) {
		return nil
	}
	return &Block{SpanVal: Span{Start: start, End: p.prevEnd}, Statements: stmts}
}

// parseGroup parses ( execution ).
func (p *Parser) parseGroup() Expr {
	start := p.curToken.Pos
	p.nextToken() // consume (

	inner := p.parseExecution()
	if inner == nil || !p.expect(TokenRParen) {
		return nil
	}
	return &Group{SpanVal: Span{Start: start, End: p.prevEnd}, Inner: inner}
}
