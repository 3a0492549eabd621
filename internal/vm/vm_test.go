package vm

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternDeduplicatesByContent(t *testing.T) {
	v := New()
	a := v.Intern("hello")
	b := v.Intern("hello")
	assert.Same(t, a, b, "two interns of the same bytes must return the same object")
}

func TestInternDistinguishesDifferentContent(t *testing.T) {
	v := New()
	a := v.Intern("hello")
	b := v.Intern("world")
	assert.NotSame(t, a, b)
}

func TestSetHeapTunablesAffectsNextCollectionThreshold(t *testing.T) {
	v := New()
	v.SetHeapTunables(4096, 3.0)
	assert.Equal(t, uint64(4096), v.nextGC)
	assert.Equal(t, uint64(4096), v.minHeap)
	assert.Equal(t, 3.0, v.heapGrowthFactor)
}

func TestInterpretRunsSimpleProgram(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	v := New()
	v.Stdout = w

	res := v.Interpret(`print 1 + 2;`)
	w.Close()
	assert.Equal(t, InterpretOK, res)

	buf := make([]byte, 64)
	n, _ := r.Read(buf)
	assert.Equal(t, "3\n", string(buf[:n]))
}

func TestInterpretReportsCompileError(t *testing.T) {
	v := New()
	v.Stdout = os.Stderr
	res := v.Interpret(`var x = ;`)
	assert.Equal(t, InterpretCompileError, res)
}

func TestInterpretReportsRuntimeError(t *testing.T) {
	v := New()
	v.Stdout = os.Stderr
	res := v.Interpret(`print 1 + true;`)
	assert.Equal(t, InterpretRuntimeError, res)
}
