package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/cmel/internal/chunk"
	"github.com/kristofer/cmel/internal/vm"
)

func TestCompileValidProgramSucceeds(t *testing.T) {
	v := vm.New()
	fn, ok := Compile(v, `var x = 1 + 2; print x;`)
	require.True(t, ok)
	assert.NotNil(t, fn)
	assert.NotEmpty(t, fn.Chunk.Code)
}

func TestCompileSyntaxErrorFails(t *testing.T) {
	v := vm.New()
	_, ok := Compile(v, `var x = ;`)
	assert.False(t, ok)
}

func TestCompileUnterminatedBlockFails(t *testing.T) {
	v := vm.New()
	_, ok := Compile(v, `fun f() { print 1;`)
	assert.False(t, ok)
}

func TestCompileFunctionDeclarationEmitsClosure(t *testing.T) {
	v := vm.New()
	fn, ok := Compile(v, `fun add(a, b) { return a + b; } print add(1, 2);`)
	require.True(t, ok)

	found := false
	for _, c := range fn.Chunk.Code {
		if chunk.OpCode(c) == chunk.OpClosure {
			found = true
		}
	}
	assert.True(t, found, "top-level function declaration should emit OpClosure")
}

func TestCompileClassDeclarationEmitsClass(t *testing.T) {
	v := vm.New()
	fn, ok := Compile(v, `class Point { init(x) { this.x = x; } }`)
	require.True(t, ok)

	found := false
	for _, c := range fn.Chunk.Code {
		if chunk.OpCode(c) == chunk.OpClass {
			found = true
		}
	}
	assert.True(t, found, "class declaration should emit OpClass")
}
