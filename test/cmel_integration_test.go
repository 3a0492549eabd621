// Package test holds cross-package integration tests, the way the
// teacher's test/integration_test.go does for its own language: each
// case here drives the lexer/compiler/vm/natives stack end to end from
// source text to stdout, reproducing spec.md's eight concrete
// scenarios plus a couple of round-trip/idempotence checks.
package test

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/kristofer/cmel/internal/compiler"
	"github.com/kristofer/cmel/internal/natives"
	"github.com/kristofer/cmel/internal/vm"
)

// newTestVM builds a VM with natives registered and stdout redirected
// to an in-memory pipe so tests can assert on printed output.
func newTestVM(t *testing.T) (*vm.VM, func() string) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	v := vm.New()
	v.Stdout = w
	natives.Register(v)

	return v, func() string {
		w.Close()
		out, err := io.ReadAll(r)
		require.NoError(t, err)
		return string(out)
	}
}

func TestScenarioAddition(t *testing.T) {
	v, read := newTestVM(t)
	res := v.Interpret("print 1 + 2;")
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "3\n", read())
}

func TestScenarioStringConcatWithNumber(t *testing.T) {
	v, read := newTestVM(t)
	res := v.Interpret(`var s = "hi"; print s + " " + 2;`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "hi 2\n", read())
}

func TestScenarioClassInitAndMethod(t *testing.T) {
	v, read := newTestVM(t)
	res := v.Interpret(`class A { init(x){ this.x = x; } get(){ return this.x; } } print A(7).get();`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "7\n", read())
}

func TestScenarioInheritanceAndSuper(t *testing.T) {
	v, read := newTestVM(t)
	res := v.Interpret(`
		class A { init(x){ this.x = x; } get(){ return this.x; } }
		class B < A { get(){ return super.get() + 1; } }
		print B(4).get();
	`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "5\n", read())
}

func TestScenarioClosureSharedUpvalue(t *testing.T) {
	v, read := newTestVM(t)
	res := v.Interpret(`
		fun make(){ var i = 0; fun inc(){ i = i + 1; return i; } return inc; }
		var f = make();
		print f();
		print f();
	`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "1\n2\n", read())
}

func TestScenarioListMapAndSum(t *testing.T) {
	v, read := newTestVM(t)
	res := v.Interpret(`var xs = [1,2,3]; print xs.map(fn(x) -> x*x).sum();`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "14\n", read())
}

func TestScenarioModuleImportFrom(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/math.cmel", []byte(`fun square(x) { return x*x; } export square;`), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	v, read := newTestVM(t)
	res := v.Interpret(`import square from "math"; print square(9);`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "81\n", read())
}

func TestScenarioTypeMismatchRuntimeError(t *testing.T) {
	v, _ := newTestVM(t)
	res := v.Interpret("print 1 + true;")
	assert.Equal(t, vm.InterpretRuntimeError, res)
}

func TestRoundTripNumberCoercionIsIdempotent(t *testing.T) {
	v, read := newTestVM(t)
	res := v.Interpret(`print number(number("3.50")) == number("3.50");`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "true\n", read())
}

func TestRoundTripListReverseReverse(t *testing.T) {
	v, read := newTestVM(t)
	res := v.Interpret(`
		var xs = [1,2,3];
		var back = xs.reverse().reverse();
		print back[0]; print back[1]; print back[2];
	`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "1\n2\n3\n", read())
}
