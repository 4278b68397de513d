package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineRecord(t *testing.T) {
	rt, out := newTestRuntime(t)

	typ, err := rt.DefineRecord("Pair", []string{"left", "right"})
	require.NoError(t, err)
	assert.True(t, typ >= FirstUserType, "type id %d", typ)
	assert.Equal(t, "Pair", rt.TypeName(typ))
	fields, ok := rt.RecordFields(typ)
	require.True(t, ok)
	assert.Equal(t, []string{"left", "right"}, fields)

	proto, ok := rt.GlobalByName("Pair")
	require.True(t, ok)
	label, err := rt.NewString("hi")
	require.NoError(t, err)

	left := rt.Idents.Intern("left")
	require.NoError(t, rt.Run([]Instruction{
		PushLiteral(proto),
		PushLiteral(FromInt(1)),
		PushLiteral(label),
		SendMessage(rt.Idents.Intern("new"), 2),
		SetGlobal(rt.Idents.Intern("p")),
		PushGlobal(rt.Idents.Intern("p")),
		SendMessage(left, 0),
		SetGlobal(rt.Idents.Intern("l")),
		PushGlobal(rt.Idents.Intern("p")),
		SendMessage(rt.Idents.Intern("display"), 0),
	}))

	l, _ := rt.GlobalByName("l")
	assert.Equal(t, FromInt(1), l)
	assert.Equal(t, "(Pair) left=1 right=\"hi\"\n", out.String())
}

func TestDefineRecordSkipsTakenTypeIDs(t *testing.T) {
	rt, _ := newTestRuntime(t)
	require.NoError(t, rt.DefineType(FirstUserType))

	typ, err := rt.DefineRecord("Unit", nil)
	require.NoError(t, err)
	assert.Equal(t, FirstUserType+1, typ)

	other, err := rt.DefineRecord("Other", []string{"v"})
	require.NoError(t, err)
	assert.Equal(t, FirstUserType+2, other)
}

func TestDefineRecordRejects(t *testing.T) {
	rt, _ := newTestRuntime(t)
	_, err := rt.DefineRecord("P", []string{"a"})
	require.NoError(t, err)

	_, err = rt.DefineRecord("P", []string{"b"})
	assert.ErrorIs(t, err, ErrTypeExists)
	_, err = rt.DefineRecord("Q", []string{"a", "a"})
	assert.Error(t, err)
	_, err = rt.DefineRecord("R", []string{"display"})
	assert.Error(t, err)
}

func TestInspectRecord(t *testing.T) {
	rt, _ := newTestRuntime(t)
	_, err := rt.DefineRecord("Cell", []string{"value"})
	require.NoError(t, err)
	proto, _ := rt.GlobalByName("Cell")

	r := NewInspector(rt).Inspect(proto)
	assert.Equal(t, "Cell", r.Type)
	require.Len(t, r.Entries, 1)
	assert.Equal(t, "value", r.Entries[0].Key.Value)
	assert.Equal(t, "nil", r.Entries[0].Value.Value)
}

func TestRecordSetterAndNestedDisplay(t *testing.T) {
	rt, out := newTestRuntime(t)
	_, err := rt.DefineRecord("Box", []string{"value"})
	require.NoError(t, err)
	proto, _ := rt.GlobalByName("Box")
	m, err := NewHeapMap(rt.Heap, 4)
	require.NoError(t, err)

	require.NoError(t, rt.Run([]Instruction{
		PushLiteral(proto),
		PushLiteral(m.Value()),
		SendMessage(rt.Idents.Intern("value="), 1),
		PushLiteral(proto),
		SendMessage(rt.Idents.Intern("display"), 0),
	}))
	assert.Equal(t, "(Box) value=a Map\n", out.String())
	assert.Equal(t, 0, rt.StackDepth())
}
