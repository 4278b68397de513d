package vm

import (
	"errors"
	"fmt"
	"strings"
)

// Inspector provides debugging inspection of howl Values. It follows heap
// pointers into strings, blocks and maps, giving a structured view of any
// value on the runtime's heap.
type Inspector struct {
	rt *Runtime
}

// InspectionResult contains structured information about an inspected value.
type InspectionResult struct {
	Type    string         `yaml:"type"`
	Value   string         `yaml:"value"`
	Size    int            `yaml:"size,omitempty"`
	Entries []MapEntryInfo `yaml:"entries,omitempty"`
}

// MapEntryInfo is one inspected key/value pair of a map, or one field of a
// record.
type MapEntryInfo struct {
	Key   *InspectionResult `yaml:"key"`
	Value *InspectionResult `yaml:"value"`
}

// GlobalInfo is one inspected global binding.
type GlobalInfo struct {
	Name  string            `yaml:"name"`
	Value *InspectionResult `yaml:"value"`
}

// MaxElementPreview is the maximum number of map entries to preview.
const MaxElementPreview = 10

// DefaultMaxDepth is the default recursion depth for inspection.
const DefaultMaxDepth = 3

// NewInspector creates a new Inspector attached to the given runtime.
func NewInspector(rt *Runtime) *Inspector {
	return &Inspector{rt: rt}
}

// Inspect inspects a value with the default maximum depth.
func (i *Inspector) Inspect(v Value) *InspectionResult {
	return i.InspectDepth(v, DefaultMaxDepth)
}

// InspectDepth inspects a value with a specified maximum recursion depth.
// When depth reaches 0, maps are shown as summaries only.
func (i *Inspector) InspectDepth(v Value, depth int) *InspectionResult {
	result := &InspectionResult{}

	switch {
	case v == Nil:
		result.Type = "Nil"
		result.Value = "nil"

	case v == True:
		result.Type = "True"
		result.Value = "true"

	case v == False:
		result.Type = "False"
		result.Value = "false"

	case v.IsInt():
		result.Type = "Int"
		result.Value = fmt.Sprintf("%d", v.AsInt())

	case v.IsFloat():
		result.Type = "Float"
		result.Value = fmt.Sprintf("%g", v.AsFloat())

	case v.IsPointer():
		return i.inspectPointer(v, depth)

	default:
		result.Type = "Unknown"
		result.Value = fmt.Sprintf("<unknown:0x%016x>", v.Bits())
	}

	return result
}

func (i *Inspector) inspectPointer(v Value, depth int) *InspectionResult {
	h := i.rt.Heap
	t, err := h.TypeOf(v.AsPointer())
	if err != nil {
		return &InspectionResult{Type: "Invalid", Value: err.Error()}
	}
	result := &InspectionResult{Type: i.rt.TypeName(t)}

	switch t {
	case TypeString:
		s, err := StringContent(h, v)
		if err != nil {
			result.Value = "<invalid string>"
			break
		}
		result.Value = fmt.Sprintf("%q", s)
		result.Size = len(s)

	case TypeBlock:
		code, err := LoadBlock(h, v.AsPointer())
		if err != nil {
			result.Value = "<invalid block>"
			break
		}
		result.Value = fmt.Sprintf("a Block (%d instructions)", len(code))
		result.Size = len(code)

	case TypeMap:
		return i.inspectMap(v, depth)

	default:
		if fields, ok := i.rt.RecordFields(t); ok {
			return i.inspectRecord(result, v, fields, depth)
		}
		size, _ := h.SizeOf(v.AsPointer())
		result.Value = fmt.Sprintf("a %s at %#x (%d bytes)", t, uint64(v.AsPointer()), size)
	}
	return result
}

func (i *Inspector) inspectMap(v Value, depth int) *InspectionResult {
	result := &InspectionResult{Type: "Map"}

	m, err := OpenHeapMap(i.rt.Heap, v.AsPointer())
	if err != nil {
		result.Value = "<invalid map>"
		return result
	}
	result.Size = int(m.Len())
	result.Value = fmt.Sprintf("a Map (size: %d, capacity: %d)", m.Len(), m.Cap())
	if depth <= 0 {
		return result
	}

	_ = m.Each(func(k, val Value) error {
		if len(result.Entries) >= MaxElementPreview {
			return errStopEach
		}
		result.Entries = append(result.Entries, MapEntryInfo{
			Key:   i.InspectDepth(k, depth-1),
			Value: i.InspectDepth(val, depth-1),
		})
		return nil
	})
	return result
}

var errStopEach = errors.New("stop")

// inspectRecord lists a record's fields as entries keyed by field name.
func (i *Inspector) inspectRecord(result *InspectionResult, v Value, fields []string, depth int) *InspectionResult {
	result.Value = fmt.Sprintf("a %s", result.Type)
	result.Size = len(fields)
	if depth <= 0 {
		return result
	}
	for n, f := range fields {
		w, err := i.rt.Heap.ReadWord(v.AsPointer(), uint64(n))
		if err != nil {
			break
		}
		result.Entries = append(result.Entries, MapEntryInfo{
			Key:   &InspectionResult{Type: "Field", Value: f},
			Value: i.InspectDepth(Value(w), depth-1),
		})
	}
	return result
}

// Globals inspects every global binding, sorted by name.
func (i *Inspector) Globals() []GlobalInfo {
	var out []GlobalInfo
	for _, b := range i.rt.Globals() {
		out = append(out, GlobalInfo{Name: b.Name, Value: i.Inspect(b.Value)})
	}
	return out
}

// String returns a pretty-printed representation of the inspection result.
func (r *InspectionResult) String() string {
	return r.stringWithIndent(0)
}

func (r *InspectionResult) stringWithIndent(indent int) string {
	var sb strings.Builder
	prefix := strings.Repeat("  ", indent)

	sb.WriteString(prefix)
	sb.WriteString(r.Type)
	sb.WriteString(": ")
	sb.WriteString(r.Value)
	sb.WriteString("\n")

	for _, e := range r.Entries {
		sb.WriteString(prefix)
		sb.WriteString("  key:\n")
		sb.WriteString(e.Key.stringWithIndent(indent + 2))
		sb.WriteString(prefix)
		sb.WriteString("  value:\n")
		sb.WriteString(e.Value.stringWithIndent(indent + 2))
	}
	return sb.String()
}
