// Package vm implements the cmel bytecode interpreter: the value
// stack, call frames, opcode dispatch, the allocator and its
// mark-and-sweep garbage collector, string interning, closures and
// upvalues, class/instance dispatch, and the module loader.
//
// Everything the runtime needs to stay memory-safe funnels through
// this package: it is the only place that creates heap objects (via
// its New* methods, which register every allocation with the GC) and
// the only place that knows the full root set a collection cycle must
// trace from.
package vm

import (
	"fmt"
	"os"

	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/table"
	"github.com/kristofer/cmel/internal/value"
)

const (
	FramesMax = 64
	StackMax  = FramesMax * 256
)

// CallFrame is one activation record: the closure being executed, its
// instruction pointer, and the base stack slot its locals start at.
type CallFrame struct {
	closure *object.Closure
	ip      int
	slots   int // base index into vm.stack
}

// VM owns every piece of process state the interpreter touches: the
// value stack, call frames, globals, the string-intern set, the
// module cache, the open-upvalues list, and the allocator/GC
// bookkeeping. There is exactly one VM per running program; it is not
// safe for concurrent use (see spec.md §5 -- the language is
// single-threaded by design).
type VM struct {
	stack    []value.Value
	stackTop int

	frames     []CallFrame
	frameCount int

	globals *table.Table
	strings *table.Table
	modules *table.Table

	currentModule *object.Module
	initString    *object.String
	openUpvalues  *object.Upvalue

	stringClass *object.Class
	numberClass *object.Class
	listClass   *object.Class
	mapClass    *object.Class

	bytesAllocated   uint64
	nextGC           uint64
	minHeap          uint64
	heapGrowthFactor float64
	objects          object.Obj

	grayStack []object.Obj

	tempRoots []value.Value

	testMode     bool
	testFailures *object.List
	currentTest  *object.String

	// unwound is set by runtimeError right after it resets the stack, so
	// that a native which re-entered run() (map/filter/find, see
	// package natives) and hit a failure there knows the entire call
	// stack -- not just its own re-entrant frame -- has already been
	// unwound and reported. Without this, the native's own call wrapper
	// would try to adjust a stack that no longer matches its
	// expectations and would print a second, garbled diagnostic.
	unwound bool

	lastNativeError string

	DebugGC bool
	Stdout  *os.File
	Stdin   *os.File
}

// New constructs a VM with empty stacks/tables and the GC threshold
// spec.md §4.5 specifies (1 MiB before the first collection).
func New() *VM {
	vm := &VM{
		stack:   make([]value.Value, StackMax),
		frames:  make([]CallFrame, FramesMax),
		globals:          table.New(),
		strings:          table.New(),
		modules:          table.New(),
		nextGC:           1 << 20,
		minHeap:          1 << 20,
		heapGrowthFactor: 2.0,
		Stdout:           os.Stdout,
		Stdin:            os.Stdin,
	}
	vm.initString = vm.Intern("init")
	vm.stringClass = vm.NewClass(vm.Intern("String"))
	vm.numberClass = vm.NewClass(vm.Intern("Number"))
	vm.listClass = vm.NewClass(vm.Intern("List"))
	vm.mapClass = vm.NewClass(vm.Intern("Map"))
	vm.testFailures = vm.NewList(nil)
	return vm
}

// SetHeapTunables overrides the GC's initial threshold and growth
// factor (package config reads these from a TOML file). It rewrites
// nextGC directly rather than waiting for the next collection, so it
// is normally called right after New, before any program runs.
func (vm *VM) SetHeapTunables(initialBytes uint64, growthFactor float64) {
	vm.nextGC = initialBytes
	vm.minHeap = initialBytes
	vm.heapGrowthFactor = growthFactor
}

func (vm *VM) StringClass() *object.Class { return vm.stringClass }
func (vm *VM) NumberClass() *object.Class { return vm.numberClass }
func (vm *VM) ListClass() *object.Class   { return vm.listClass }
func (vm *VM) MapClass() *object.Class    { return vm.mapClass }

// DefineGlobal installs name -> v in whatever table is currently
// "globals" -- the top-level script's table normally, or a module's
// temporary loading table during an import (see module.go).
func (vm *VM) DefineGlobal(name string, v value.Value) {
	vm.globals.Set(vm.Intern(name), v)
}

func (vm *VM) DefineNative(name string, arity int, fn object.NativeFn) {
	vm.DefineGlobal(name, value.FromObj(vm.NewNative(name, arity, fn)))
}

func (vm *VM) DefineMethod(class *object.Class, name string, arity int, fn object.NativeFn) {
	class.Methods.Set(vm.Intern(name), value.FromObj(vm.NewNative(name, arity, fn)))
}

// ---- stack ----

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) Push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) Pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) Peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) PushTempRoot(v value.Value) {
	vm.tempRoots = append(vm.tempRoots, v)
}

func (vm *VM) PopTempRoot() {
	vm.tempRoots = vm.tempRoots[:len(vm.tempRoots)-1]
}

// eprintf is a small helper so error paths below read uniformly.
func (vm *VM) eprintf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// NativeError is how a native function signals failure: it records
// the message that will become the runtime error once the caller
// unwinds, then returns the Error sentinel. See package natives for
// every call site.
func (vm *VM) NativeError(format string, args ...interface{}) value.Value {
	vm.lastNativeError = fmt.Sprintf(format, args...)
	return value.ErrorValue
}
