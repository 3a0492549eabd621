package vm

import (
	"github.com/kristofer/cmel/internal/chunk"
	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/value"
)

// approxSize is a rough per-object footprint used purely to decide
// when to run a collection; it does not need to be exact, only
// monotonic with real allocation so nextGC eventually trips.
const approxSize = 64

// track registers a freshly-allocated object with the VM: it is
// linked into the head of the allocation list (so sweep can walk every
// live-or-not object ever created) and its size is added to
// bytesAllocated. This is the single choke point every New* constructor
// below runs through, which is what makes the "allocate -> root" rule
// in spec.md §3 enforceable: the threshold check and any resulting
// collectGarbage() run before o is linked into vm.objects, so a
// collection can never see o -- it isn't on the list yet, isn't
// reachable from any root, and can't be mistaken for garbage. Only
// once that's settled does o get linked in and counted.
func (vm *VM) track(o object.Obj) {
	if vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}
	o.SetNext(vm.objects)
	vm.objects = o
	vm.bytesAllocated += approxSize
}

func (vm *VM) NewClass(name *object.String) *object.Class {
	c := object.NewClass(name)
	vm.track(c)
	return c
}

func (vm *VM) NewInstance(class *object.Class) *object.Instance {
	i := object.NewInstance(class)
	vm.track(i)
	return i
}

func (vm *VM) NewNative(name string, arity int, fn object.NativeFn) *object.Native {
	n := object.NewNative(name, arity, fn)
	vm.track(n)
	return n
}

func (vm *VM) NewBoundMethod(receiver value.Value, method *object.Closure) *object.BoundMethod {
	b := object.NewBoundMethod(receiver, method)
	vm.track(b)
	return b
}

func (vm *VM) NewBoundNative(receiver value.Value, method *object.Native) *object.BoundNative {
	b := object.NewBoundNative(receiver, method)
	vm.track(b)
	return b
}

func (vm *VM) NewList(items []value.Value) *object.List {
	l := object.NewList(items)
	vm.track(l)
	return l
}

func (vm *VM) NewMap() *object.Map {
	m := object.NewMap()
	vm.track(m)
	return m
}

func (vm *VM) NewModule(name *object.String) *object.Module {
	m := object.NewModule(name)
	vm.track(m)
	return m
}

func (vm *VM) NewFunction() *object.Function {
	f := object.NewFunction()
	vm.track(f)
	return f
}

func (vm *VM) NewClosure(fn *object.Function, module *object.Module) *object.Closure {
	c := object.NewClosure(fn, module)
	vm.track(c)
	return c
}

func (vm *VM) captureUpvalue(slot *value.Value) *object.Upvalue {
	var prev *object.Upvalue
	cur := vm.openUpvalues
	for cur != nil && slotAddr(cur.Location) > slotAddr(slot) {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Location == slot {
		return cur
	}
	created := object.NewUpvalue(slot)
	vm.track(created)
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// slotAddr compares stack-slot addresses. Go pointers into a slice
// backing array compare validly with ==, but we need ordering too (the
// open-upvalues list is kept sorted by descending stack address per
// spec.md §3); converting to uintptr lets us order them. The slice
// backing array is never reallocated after VM.New (stack is
// pre-sized to StackMax), so these pointers stay stable for the life
// of the VM.
func slotAddr(v *value.Value) uintptr {
	return uintptr(ptrOf(v))
}

// closeUpvalues closes every open upvalue whose watched slot is at or
// above the given stack slot, per spec.md §4.6: called on
// OP_CLOSE_UPVALUE and on every return.
func (vm *VM) closeUpvalues(fromSlot int) {
	from := &vm.stack[fromSlot]
	for vm.openUpvalues != nil && slotAddr(vm.openUpvalues.Location) >= slotAddr(from) {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.Next
	}
}

// Intern canonicalizes s: if a live string with identical bytes
// already exists, that object is returned and no new allocation
// happens; otherwise a new String is allocated, registered with the
// GC, and inserted into the intern set. Per spec.md §4.3, hashing uses
// FNV-1a with the fixed seed/prime in package object.
func (vm *VM) Intern(s string) *object.String {
	hash := object.HashString(s)
	if existing := vm.strings.FindString(s, hash); existing != nil {
		return existing
	}
	str := object.NewString(s)
	vm.track(str)
	vm.Push(value.FromObj(str))
	vm.strings.Set(str, true)
	vm.Pop()
	return str
}

// AddConstant adds v to ch's constant pool, rooting v on the value
// stack for the duration of the call so that a GC triggered by the
// pool's own growth (or by allocating v in the first place) cannot
// reclaim it before it is reachable from the chunk. Per spec.md §4.4.
func (vm *VM) AddConstant(ch *chunk.Chunk, v value.Value) int {
	vm.Push(v)
	idx := ch.AddConstant(v)
	vm.Pop()
	return idx
}
