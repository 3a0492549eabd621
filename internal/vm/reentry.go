package vm

import "github.com/kristofer/cmel/internal/object"

// CallClosure pushes a new call frame for closure. The caller must
// already have pushed the closure itself (as the call's "slot 0") and
// then argCount arguments on top of it, exactly as OP_CALL expects.
// Returns false if the call failed (arity mismatch or stack overflow);
// the runtime error has already been recorded in that case.
func (vm *VM) CallClosure(closure *object.Closure, argCount int) bool {
	_, ok := vm.call(closure, argCount)
	return ok
}

// RunReentrant drives the interpreter loop until the frame pushed by
// the most recent CallClosure returns, then leaves its result on top
// of the stack for the caller to Pop. This is how higher-order
// natives (map/filter/find, see package natives) call back into user
// bytecode: they push a closure and its arguments, call CallClosure,
// then RunReentrant, exactly mirroring what OP_CALL does for ordinary
// calls (spec.md §4.8, §4.10).
func (vm *VM) RunReentrant() InterpretResult {
	return vm.run(vm.frameCount)
}
