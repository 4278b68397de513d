package compiler

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for howl
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Ident is an identifier resolved to its id in the runtime's identifier
// table.
type Ident struct {
	SpanVal Span
	Name    string
	ID      int
}

func (n *Ident) Span() Span { return n.SpanVal }
func (n *Ident) node()      {}
func (n *Ident) expr()      {}

// IntLiteral represents an integer literal.
type IntLiteral struct {
	SpanVal Span
	Value   int32
}

func (n *IntLiteral) Span() Span { return n.SpanVal }
func (n *IntLiteral) node()      {}
func (n *IntLiteral) expr()      {}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	SpanVal Span
	Value   float64
}

func (n *FloatLiteral) Span() Span { return n.SpanVal }
func (n *FloatLiteral) node()      {}
func (n *FloatLiteral) expr()      {}

// StringLiteral represents a string literal.
type StringLiteral struct {
	SpanVal Span
	Value   string
}

func (n *StringLiteral) Span() Span { return n.SpanVal }
func (n *StringLiteral) node()      {}
func (n *StringLiteral) expr()      {}

// BoolLiteral represents true or false.
type BoolLiteral struct {
	SpanVal Span
	Value   bool
}

func (n *BoolLiteral) Span() Span { return n.SpanVal }
func (n *BoolLiteral) node()      {}
func (n *BoolLiteral) expr()      {}

// NilLiteral represents nil.
type NilLiteral struct {
	SpanVal Span
}

func (n *NilLiteral) Span() Span { return n.SpanVal }
func (n *NilLiteral) node()      {}
func (n *NilLiteral) expr()      {}

// Block represents a bracketed statement sequence: [ stmt; stmt; ].
type Block struct {
	SpanVal    Span
	Statements []Stmt
}

func (n *Block) Span() Span { return n.SpanVal }
func (n *Block) node()      {}
func (n *Block) expr()      {}

// Group is a parenthesised execution used as an expression.
type Group struct {
	SpanVal Span
	Inner   Execution
}

func (n *Group) Span() Span { return n.SpanVal }
func (n *Group) node()      {}
func (n *Group) expr()      {}

// ---------------------------------------------------------------------------
// Executions
// ---------------------------------------------------------------------------

// Execution is either a single expression or a message send.
type Execution interface {
	Node
	execution() // marker method
}

// Single evaluates one expression.
type Single struct {
	Value Expr
}

func (n *Single) Span() Span { return n.Value.Span() }
func (n *Single) node()      {}
func (n *Single) execution() {}

// Call sends Message to Receiver with Args.
type Call struct {
	SpanVal  Span
	Receiver Expr
	Message  *Ident
	Args     []Expr
}

func (n *Call) Span() Span { return n.SpanVal }
func (n *Call) node()      {}
func (n *Call) execution() {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// Assignment binds the result of Value to the global Target.
type Assignment struct {
	SpanVal Span
	Target  *Ident
	Value   Execution
}

func (n *Assignment) Span() Span { return n.SpanVal }
func (n *Assignment) node()      {}
func (n *Assignment) stmt()      {}

// ExprStmt evaluates an execution for its effect.
type ExprStmt struct {
	SpanVal Span
	Exec    Execution
}

func (n *ExprStmt) Span() Span { return n.SpanVal }
func (n *ExprStmt) node()      {}
func (n *ExprStmt) stmt()      {}

// TypeDef declares a record type with named fields.
type TypeDef struct {
	SpanVal Span
	Name    *Ident
	Fields  []*Ident
}

func (n *TypeDef) Span() Span { return n.SpanVal }
func (n *TypeDef) node()      {}
func (n *TypeDef) stmt()      {}

// ---------------------------------------------------------------------------
// Printing
// ---------------------------------------------------------------------------

// Format renders statements back to source text.
func Format(stmts []Stmt) string {
	var sb strings.Builder
	for i, s := range stmts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		formatStmt(&sb, s)
	}
	return sb.String()
}

func formatStmt(sb *strings.Builder, s Stmt) {
	switch s := s.(type) {
	case *Assignment:
		sb.WriteString(s.Target.Name)
		sb.WriteString(" = ")
		formatExec(sb, s.Value)
	case *ExprStmt:
		formatExec(sb, s.Exec)
	case *TypeDef:
		sb.WriteString("type ")
		sb.WriteString(s.Name.Name)
		sb.WriteString(" (")
		for i, f := range s.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(';')
}

func formatExec(sb *strings.Builder, e Execution) {
	switch e := e.(type) {
	case *Single:
		formatExpr(sb, e.Value)
	case *Call:
		formatExpr(sb, e.Receiver)
		sb.WriteByte(' ')
		sb.WriteString(e.Message.Name)
		for _, a := range e.Args {
			sb.WriteByte(' ')
			formatExpr(sb, a)
		}
	}
}

func formatExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *Ident:
		sb.WriteString(e.Name)
	case *IntLiteral:
		sb.WriteString(strconv.FormatInt(int64(e.Value), 10))
	case *FloatLiteral:
		sb.WriteString(formatFloat(e.Value))
	case *StringLiteral:
		sb.WriteByte('"')
		sb.WriteString(e.Value)
		sb.WriteByte('"')
	case *BoolLiteral:
		if e.Value {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case *NilLiteral:
		sb.WriteString("nil")
	case *Block:
		sb.WriteByte('[')
		sb.WriteString(Format(e.Statements))
		sb.WriteByte(']')
	case *Group:
		sb.WriteByte('(')
		formatExec(sb, e.Inner)
		sb.WriteByte(')')
	}
}

// formatFloat always includes a point so the text lexes as a float again.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
