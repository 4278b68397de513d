package vm

import "fmt"

// TypeID identifies the runtime type of a value. Messages are dispatched on it.
type TypeID uint32

// Primitive types are answered from the Value tag; the rest live in heap
// headers.
const (
	TypeNil TypeID = iota
	TypeInt
	TypeFloat
	TypeFalse
	TypeTrue

	TypeString
	TypeBlock
	TypeMap
	TypeMapSlots
	TypeHandler

	// FirstUserType is the first id available to library-defined kinds.
	FirstUserType TypeID = 32
)

var typeNames = map[TypeID]string{
	TypeNil:      "Nil",
	TypeInt:      "Int",
	TypeFloat:    "Float",
	TypeFalse:    "False",
	TypeTrue:     "True",
	TypeString:   "String",
	TypeBlock:    "Block",
	TypeMap:      "Map",
	TypeMapSlots: "MapSlots",
	TypeHandler:  "Handler",
}

func (t TypeID) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint32(t))
}

// key returns the registry key for t.
func (t TypeID) key() Value {
	return FromInt(int32(t))
}
