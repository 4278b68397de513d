package vm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
type Opcode byte

const (
	OpPushLiteral Opcode = 0x01 // push the operand Value
	OpPushGlobal  Opcode = 0x02 // push global (identifier id)
	OpSetGlobal   Opcode = 0x03 // pop into global (identifier id)
	OpSendMessage Opcode = 0x04 // send message (identifier id, arg count)
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string // human-readable name
	StackEffect int    // net effect on stack (-1 = variable)
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpPushLiteral: {"PUSH_LITERAL", 1},
	OpPushGlobal:  {"PUSH_GLOBAL", 1},
	OpSetGlobal:   {"SET_GLOBAL", -1},
	OpSendMessage: {"SEND_MESSAGE", -1}, // variable: handler decides
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Info().Name
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

// InstructionSize is the encoded size of one instruction on the heap.
const InstructionSize = 16

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	Op Opcode
	// Operand is the literal's bits for OpPushLiteral and the identifier id
	// for the other opcodes.
	Operand uint64
	// ArgCount is only meaningful for OpSendMessage.
	ArgCount uint32
}

// PushLiteral builds an instruction pushing v.
func PushLiteral(v Value) Instruction {
	return Instruction{Op: OpPushLiteral, Operand: uint64(v)}
}

// PushGlobal builds an instruction pushing the global bound to id.
func PushGlobal(id int) Instruction {
	return Instruction{Op: OpPushGlobal, Operand: uint64(id)}
}

// SetGlobal builds an instruction popping into the global id.
func SetGlobal(id int) Instruction {
	return Instruction{Op: OpSetGlobal, Operand: uint64(id)}
}

// SendMessage builds an instruction sending message id with argc arguments.
func SendMessage(id int, argc int) Instruction {
	return Instruction{Op: OpSendMessage, Operand: uint64(id), ArgCount: uint32(argc)}
}

// Literal returns the operand of a PushLiteral as a Value.
func (in Instruction) Literal() Value { return Value(in.Operand) }

// Ident returns the identifier id operand.
func (in Instruction) Ident() int { return int(in.Operand) }

// Encode writes the instruction into buf, which must hold InstructionSize
// bytes. Word 0: opcode in the low byte, arg count in the high 32 bits.
// Word 1: operand.
func (in Instruction) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:], uint64(in.Op)|uint64(in.ArgCount)<<32)
	binary.LittleEndian.PutUint64(buf[8:], in.Operand)
}

// DecodeInstruction reads one instruction from buf.
func DecodeInstruction(buf []byte) (Instruction, error) {
	if len(buf) < InstructionSize {
		return Instruction{}, fmt.Errorf("%w: %d bytes", ErrBadInstruction, len(buf))
	}
	w0 := binary.LittleEndian.Uint64(buf[0:])
	in := Instruction{
		Op:       Opcode(w0 & 0xFF),
		ArgCount: uint32(w0 >> 32),
		Operand:  binary.LittleEndian.Uint64(buf[8:]),
	}
	if _, ok := opcodeTable[in.Op]; !ok {
		return Instruction{}, fmt.Errorf("%w: opcode %#02x", ErrBadInstruction, byte(in.Op))
	}
	return in, nil
}

// ---------------------------------------------------------------------------
// Heap-resident blocks
// ---------------------------------------------------------------------------

// Block body layout: [len u64][pad u64][len × 16-byte instructions].
const blockHeaderSize = 16

// StoreBlock copies code into a new TypeBlock object and returns its pointer.
func StoreBlock(h *Heap, code []Instruction) (Pointer, error) {
	size := uint64(blockHeaderSize + len(code)*InstructionSize)
	p, err := h.Allocate(size, DefaultAlign, TypeBlock)
	if err != nil {
		return 0, err
	}
	body, err := h.Body(p)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(body, uint64(len(code)))
	for i, in := range code {
		in.Encode(body[blockHeaderSize+i*InstructionSize:])
	}
	return p, nil
}

// LoadBlock decodes the instructions of the block at p.
func LoadBlock(h *Heap, p Pointer) ([]Instruction, error) {
	body, err := h.Expect(p, TypeBlock)
	if err != nil {
		return nil, err
	}
	if len(body) < blockHeaderSize {
		return nil, fmt.Errorf("%w: block at %#x has no length header", ErrBadPointer, uint64(p))
	}
	n := binary.LittleEndian.Uint64(body)
	if n > uint64(len(body)-blockHeaderSize)/InstructionSize {
		return nil, fmt.Errorf("%w: block at %#x claims %d instructions", ErrBadPointer, uint64(p), n)
	}
	code := make([]Instruction, n)
	for i := range code {
		in, err := DecodeInstruction(body[blockHeaderSize+i*InstructionSize:])
		if err != nil {
			return nil, fmt.Errorf("block at %#x, instruction %d: %w", uint64(p), i, err)
		}
		code[i] = in
	}
	return code, nil
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleInstruction renders a single instruction. idents may be nil.
func DisassembleInstruction(pc int, in Instruction, idents *IdentTable) string {
	name := func(id int) string {
		if idents != nil {
			if s := idents.Name(id); s != "" {
				return s
			}
		}
		return fmt.Sprintf("#%d", id)
	}
	switch in.Op {
	case OpPushLiteral:
		return fmt.Sprintf("%04d  %s %s", pc, in.Op, in.Literal())
	case OpPushGlobal, OpSetGlobal:
		return fmt.Sprintf("%04d  %s %s", pc, in.Op, name(in.Ident()))
	case OpSendMessage:
		return fmt.Sprintf("%04d  %s %s argc=%d", pc, in.Op, name(in.Ident()), in.ArgCount)
	default:
		return fmt.Sprintf("%04d  %s", pc, in.Op)
	}
}

// Disassemble returns a full listing of code. When h is non-nil, block
// literals are listed, indented, under the instruction that pushes them.
func Disassemble(code []Instruction, idents *IdentTable, h *Heap) string {
	var sb strings.Builder
	disassemble(&sb, code, idents, h, "")
	return strings.TrimSuffix(sb.String(), "\n")
}

func disassemble(sb *strings.Builder, code []Instruction, idents *IdentTable, h *Heap, indent string) {
	for pc, in := range code {
		sb.WriteString(indent)
		sb.WriteString(DisassembleInstruction(pc, in, idents))
		sb.WriteByte('\n')
		if h == nil || in.Op != OpPushLiteral || !in.Literal().IsPointer() {
			continue
		}
		p := in.Literal().AsPointer()
		if t, err := h.TypeOf(p); err != nil || t != TypeBlock {
			continue
		}
		if inner, err := LoadBlock(h, p); err == nil {
			disassemble(sb, inner, idents, h, indent+"    ")
		}
	}
}
