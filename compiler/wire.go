package compiler

import (
	"crypto/sha256"
	"fmt"

	"github.com/chazu/howl/vm"
	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Wire format: CBOR encoding of parsed programs (.howlc)
// ---------------------------------------------------------------------------

// WireVersion is the current program encoding version.
const WireVersion = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Identifiers are stored as indexes into the program's own name table, so a
// decoded program can be re-interned into any runtime.
type wireProgram struct {
	Version int        `cbor:"1,keyasint"`
	Names   []string   `cbor:"2,keyasint"`
	Stmts   []wireStmt `cbor:"3,keyasint,omitempty"`
}

type wireStmt struct {
	Target int       `cbor:"1,keyasint"` // name index + 1; 0 for a bare execution
	Exec   wireExec  `cbor:"2,keyasint"`
	Type   *wireType `cbor:"3,keyasint,omitempty"`
}

type wireType struct {
	Name   int   `cbor:"1,keyasint"`
	Fields []int `cbor:"2,keyasint,omitempty"`
}

type wireExec struct {
	Receiver wireExpr   `cbor:"1,keyasint"`
	Message  int        `cbor:"2,keyasint,omitempty"` // name index + 1; 0 for a single expression
	Args     []wireExpr `cbor:"3,keyasint,omitempty"`
}

type wireKind uint8

const (
	wireIdent wireKind = iota + 1
	wireInt
	wireFloat
	wireString
	wireBool
	wireNil
	wireBlock
	wireGroup
)

type wireExpr struct {
	Kind  wireKind   `cbor:"1,keyasint"`
	Name  int        `cbor:"2,keyasint,omitempty"`
	Int   int32      `cbor:"3,keyasint,omitempty"`
	Float float64    `cbor:"4,keyasint,omitempty"`
	Str   string     `cbor:"5,keyasint,omitempty"`
	Bool  bool       `cbor:"6,keyasint,omitempty"`
	Block []wireStmt `cbor:"7,keyasint,omitempty"`
	Group *wireExec  `cbor:"8,keyasint,omitempty"`
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

type wireEncoder struct {
	names []string
	index map[string]int
}

// Encode serializes stmts to canonical CBOR.
func Encode(stmts []Stmt) ([]byte, error) {
	enc := &wireEncoder{index: make(map[string]int)}
	prog := wireProgram{Version: WireVersion}
	for _, s := range stmts {
		ws, err := enc.stmt(s)
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, ws)
	}
	prog.Names = enc.names
	return cborEncMode.Marshal(&prog)
}

func (e *wireEncoder) name(id *Ident) int {
	if i, ok := e.index[id.Name]; ok {
		return i + 1
	}
	e.index[id.Name] = len(e.names)
	e.names = append(e.names, id.Name)
	return len(e.names)
}

func (e *wireEncoder) stmt(s Stmt) (wireStmt, error) {
	switch s := s.(type) {
	case *Assignment:
		exec, err := e.exec(s.Value)
		return wireStmt{Target: e.name(s.Target), Exec: exec}, err
	case *ExprStmt:
		exec, err := e.exec(s.Exec)
		return wireStmt{Exec: exec}, err
	case *TypeDef:
		wt := &wireType{Name: e.name(s.Name)}
		for _, f := range s.Fields {
			wt.Fields = append(wt.Fields, e.name(f))
		}
		return wireStmt{Type: wt}, nil
	}
	return wireStmt{}, fmt.Errorf("compiler: encode: unknown statement %T", s)
}

func (e *wireEncoder) exec(x Execution) (wireExec, error) {
	switch x := x.(type) {
	case *Single:
		recv, err := e.expr(x.Value)
		return wireExec{Receiver: recv}, err
	case *Call:
		recv, err := e.expr(x.Receiver)
		if err != nil {
			return wireExec{}, err
		}
		we := wireExec{Receiver: recv, Message: e.name(x.Message)}
		for _, a := range x.Args {
			wa, err := e.expr(a)
			if err != nil {
				return wireExec{}, err
			}
			we.Args = append(we.Args, wa)
		}
		return we, nil
	}
	return wireExec{}, fmt.Errorf("compiler: encode: unknown execution %T", x)
}

func (e *wireEncoder) expr(x Expr) (wireExpr, error) {
	switch x := x.(type) {
	case *Ident:
		return wireExpr{Kind: wireIdent, Name: e.name(x)}, nil
	case *IntLiteral:
		return wireExpr{Kind: wireInt, Int: x.Value}, nil
	case *FloatLiteral:
		return wireExpr{Kind: wireFloat, Float: x.Value}, nil
	case *StringLiteral:
		return wireExpr{Kind: wireString, Str: x.Value}, nil
	case *BoolLiteral:
		return wireExpr{Kind: wireBool, Bool: x.Value}, nil
	case *NilLiteral:
		return wireExpr{Kind: wireNil}, nil
	case *Block:
		we := wireExpr{Kind: wireBlock}
		for _, s := range x.Statements {
			ws, err := e.stmt(s)
			if err != nil {
				return wireExpr{}, err
			}
			we.Block = append(we.Block, ws)
		}
		return we, nil
	case *Group:
		inner, err := e.exec(x.Inner)
		if err != nil {
			return wireExpr{}, err
		}
		return wireExpr{Kind: wireGroup, Group: &inner}, nil
	}
	return wireExpr{}, fmt.Errorf("compiler: encode: unknown expression %T", x)
}

// Hash returns the SHA-256 of the canonical encoding of stmts. Programs that
// differ only in layout or source positions hash the same.
func Hash(stmts []Stmt) ([32]byte, error) {
	data, err := Encode(stmts)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

type wireDecoder struct {
	names  []string
	idents *vm.IdentTable
}

// Decode deserializes a program, interning its identifiers into idents.
// Source positions are not preserved.
func Decode(data []byte, idents *vm.IdentTable) ([]Stmt, error) {
	var prog wireProgram
	if err := cbor.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("compiler: unmarshal program: %w", err)
	}
	if prog.Version != WireVersion {
		return nil, fmt.Errorf("compiler: unsupported program version %d", prog.Version)
	}
	d := &wireDecoder{names: prog.Names, idents: idents}
	stmts, err := d.stmts(prog.Stmts)
	if err != nil {
		return nil, fmt.Errorf("compiler: decode: %w", err)
	}
	return stmts, nil
}

func (d *wireDecoder) ident(ref int) (*Ident, error) {
	if ref < 1 || ref > len(d.names) {
		return nil, fmt.Errorf("name reference %d out of range", ref)
	}
	name := d.names[ref-1]
	return &Ident{Name: name, ID: d.idents.Intern(name)}, nil
}

func (d *wireDecoder) stmts(ws []wireStmt) ([]Stmt, error) {
	var out []Stmt
	for _, w := range ws {
		if w.Type != nil {
			td, err := d.typeDef(w.Type)
			if err != nil {
				return nil, err
			}
			out = append(out, td)
			continue
		}
		exec, err := d.exec(w.Exec)
		if err != nil {
			return nil, err
		}
		if w.Target == 0 {
			out = append(out, &ExprStmt{Exec: exec})
			continue
		}
		target, err := d.ident(w.Target)
		if err != nil {
			return nil, err
		}
		out = append(out, &Assignment{Target: target, Value: exec})
	}
	return out, nil
}

func (d *wireDecoder) typeDef(w *wireType) (*TypeDef, error) {
	name, err := d.ident(w.Name)
	if err != nil {
		return nil, err
	}
	td := &TypeDef{Name: name}
	for _, ref := range w.Fields {
		f, err := d.ident(ref)
		if err != nil {
			return nil, err
		}
		td.Fields = append(td.Fields, f)
	}
	return td, nil
}

func (d *wireDecoder) exec(w wireExec) (Execution, error) {
	recv, err := d.expr(w.Receiver)
	if err != nil {
		return nil, err
	}
	if w.Message == 0 {
		if len(w.Args) > 0 {
			return nil, fmt.Errorf("arguments without a message")
		}
		return &Single{Value: recv}, nil
	}
	msg, err := d.ident(w.Message)
	if err != nil {
		return nil, err
	}
	call := &Call{Receiver: recv, Message: msg}
	for _, a := range w.Args {
		arg, err := d.expr(a)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}
	return call, nil
}

func (d *wireDecoder) expr(w wireExpr) (Expr, error) {
	switch w.Kind {
	case wireIdent:
		id, err := d.ident(w.Name)
		if err != nil {
			return nil, err
		}
		return id, nil
	case wireInt:
		return &IntLiteral{Value: w.Int}, nil
	case wireFloat:
		return &FloatLiteral{Value: w.Float}, nil
	case wireString:
		return &StringLiteral{Value: w.Str}, nil
	case wireBool:
		return &BoolLiteral{Value: w.Bool}, nil
	case wireNil:
		return &NilLiteral{}, nil
	case wireBlock:
		stmts, err := d.stmts(w.Block)
		if err != nil {
			return nil, err
		}
		return &Block{Statements: stmts}, nil
	case wireGroup:
		if w.Group == nil {
			return nil, fmt.Errorf("group without an execution")
		}
		inner, err := d.exec(*w.Group)
		if err != nil {
			return nil, err
		}
		return &Group{Inner: inner}, nil
	}
	return nil, fmt.Errorf("unknown expression kind %d", w.Kind)
}
