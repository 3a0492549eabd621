package main

import (
	"github.com/kristofer/cmel/internal/compiler"
	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/vm"
)

// compileSource is the direct (non-executing) entry point build and
// disasm need; run/repl never call this directly, they go through
// vm.Interpret, which reaches the same compiler via the compile hook
// package compiler installs in its init().
func compileSource(v *vm.VM, source string) (*object.Function, bool) {
	return compiler.Compile(v, source)
}
