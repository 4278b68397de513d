package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/howl/vm"
)

const wireProgramSrc = `
	total = 0;
	add = [total = total + step;];
	step = 3;
	4 timesRepeat add;
	label = "done";
	half = (total asFloat) / 2;
	flag = (total > 10) not;
	nothing = nil;
	type Pair (left, right);
	pair = Pair new step total;
	gap = (pair right) - (pair left);
`

func TestWireRoundTripPreservesBehaviour(t *testing.T) {
	src, _ := newTestRuntime(t)
	stmts, err := Parse(wireProgramSrc, src.Idents)
	require.NoError(t, err)

	data, err := Encode(stmts)
	require.NoError(t, err)

	// Intern unrelated names first so identifier ids differ between runtimes.
	dst, _ := newTestRuntime(t)
	for _, name := range []string{"zz", "yy", "step", "xx"} {
		dst.Idents.Intern(name)
	}
	decoded, err := Decode(data, dst.Idents)
	require.NoError(t, err)
	assert.Equal(t, Format(stmts), Format(decoded))

	code, err := Compile(dst, decoded)
	require.NoError(t, err)
	require.NoError(t, dst.Run(code))

	total, ok := dst.GlobalByName("total")
	require.True(t, ok)
	assert.Equal(t, int32(12), total.AsInt())
	half, _ := dst.GlobalByName("half")
	assert.Equal(t, 6.0, half.AsFloat())
	flag, _ := dst.GlobalByName("flag")
	assert.Equal(t, vm.False, flag)
	label, _ := dst.GlobalByName("label")
	text, err := dst.StringContent(label)
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	nothing, ok := dst.GlobalByName("nothing")
	assert.True(t, ok)
	assert.Equal(t, vm.Nil, nothing)
	gap, _ := dst.GlobalByName("gap")
	assert.Equal(t, int32(9), gap.AsInt())
}

func TestWireEncodingIsDeterministic(t *testing.T) {
	a, err := Parse("x = 1; y = [x display;];", vm.NewIdentTable())
	require.NoError(t, err)
	b, err := Parse("x   =  1 ;\n y = [ x display ; ] ;", vm.NewIdentTable())
	require.NoError(t, err)

	ea, err := Encode(a)
	require.NoError(t, err)
	eb, err := Encode(b)
	require.NoError(t, err)
	assert.Equal(t, ea, eb)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestWireDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{0xff, 0x00, 0x13}, vm.NewIdentTable())
	assert.Error(t, err)
}

func TestWireDecodeRejectsBadNameReference(t *testing.T) {
	data, err := cborEncMode.Marshal(&wireProgram{
		Version: WireVersion,
		Names:   []string{"x"},
		Stmts:   []wireStmt{{Target: 5, Exec: wireExec{Receiver: wireExpr{Kind: wireInt, Int: 1}}}},
	})
	require.NoError(t, err)
	_, err = Decode(data, vm.NewIdentTable())
	assert.ErrorContains(t, err, "out of range")
}

func TestWireDecodeRejectsVersion(t *testing.T) {
	data, err := cborEncMode.Marshal(&wireProgram{Version: 99})
	require.NoError(t, err)
	_, err = Decode(data, vm.NewIdentTable())
	assert.ErrorContains(t, err, "version")
}
