package vm

import "github.com/kristofer/cmel/internal/value"

// Test mode is an alternate error-reporting path for a self-hosted
// test-runner module (spec.md §7): instead of being printed, runtime
// errors are appended to a normal, GC-rooted List (vm.testFailures) so
// a .cmel test harness can inspect them after the fact. Errors still
// unwind: runtimeError resets the stack and the current run ends with
// InterpretRuntimeError, exactly as outside test mode. This replaces the raw, write-barrier-bypassing list
// the original C implementation used (see spec.md's design notes and
// SPEC_FULL.md's supplemented-features section).
func (vm *VM) EnterTestMode() {
	vm.testMode = true
	vm.testFailures = vm.NewList(nil)
}

func (vm *VM) ExitTestMode() {
	vm.testMode = false
}

func (vm *VM) InTestMode() bool { return vm.testMode }

func (vm *VM) recordTestFailure(msg string) {
	entry := vm.NewMap()
	nameKey := vm.Intern("test")
	msgKey := vm.Intern("message")
	testName := value.NilValue
	if vm.currentTest != nil {
		testName = value.FromObj(vm.currentTest)
	}
	entry.Entries.Set(nameKey, testName)
	entry.Entries.Set(msgKey, value.FromObj(vm.Intern(msg)))
	vm.testFailures.Items = append(vm.testFailures.Items, value.FromObj(entry))
}

func (vm *VM) TestFailures() value.Value {
	return value.FromObj(vm.testFailures)
}

func (vm *VM) SetCurrentTestName(name string) {
	vm.currentTest = vm.Intern(name)
}

func (vm *VM) ClearCurrentTestName() {
	vm.currentTest = nil
}
