package bytefmt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/cmel/internal/compiler"
	"github.com/kristofer/cmel/internal/vm"
)

func TestEncodeDecodeRoundTripsTopLevelScript(t *testing.T) {
	v := vm.New()
	fn, ok := compiler.Compile(v, `var x = 1; print x + 2;`)
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, Encode(fn, &buf))

	v2 := vm.New()
	decoded, err := Decode(v2, &buf)
	require.NoError(t, err)

	assert.Equal(t, fn.Arity, decoded.Arity)
	assert.Equal(t, fn.UpvalueCount, decoded.UpvalueCount)
	assert.Equal(t, fn.Chunk.Code, decoded.Chunk.Code)
	assert.Equal(t, fn.Chunk.Lines, decoded.Chunk.Lines)
	assert.Equal(t, len(fn.Chunk.Constants), len(decoded.Chunk.Constants))
}

func TestEncodeDecodeRoundTripsNestedFunctions(t *testing.T) {
	v := vm.New()
	fn, ok := compiler.Compile(v, `
		fun outer(a) {
			fun inner(b) { return a + b; }
			return inner(1);
		}
		print outer(2);
	`)
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, Encode(fn, &buf))

	v2 := vm.New()
	decoded, err := Decode(v2, &buf)
	require.NoError(t, err)
	assert.Equal(t, len(fn.Chunk.Constants), len(decoded.Chunk.Constants))
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	v := vm.New()
	_, err := Decode(v, bytes.NewReader([]byte{0, 0, 0, 0, 1, 0, 0, 0}))
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	v := vm.New()
	var buf bytes.Buffer
	fn, ok := compiler.Compile(v, `print 1;`)
	require.True(t, ok)
	require.NoError(t, Encode(fn, &buf))

	raw := buf.Bytes()
	raw[4] = 0xFF // stomp the version field, leaving magic intact
	_, err := Decode(v, bytes.NewReader(raw))
	assert.Error(t, err)
}
