package vm

import (
	"fmt"
	"os"

	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/table"
	"github.com/kristofer/cmel/internal/value"
)

// collectGarbage runs one stop-the-world mark-and-sweep cycle. It is
// only ever invoked from track(), i.e. only at an allocation site,
// which is what makes the root set below exhaustive: every value the
// running program still cares about is reachable from the stack, the
// open call frames, the open-upvalues list, or one of the tables
// enumerated here.
func (vm *VM) collectGarbage() {
	if vm.DebugGC {
		fmt.Fprintf(os.Stderr, "-- gc begin (bytesAllocated=%d)\n", vm.bytesAllocated)
	}

	vm.markRoots()
	vm.traceReferences()
	vm.sweep()

	vm.nextGC = uint64(float64(vm.bytesAllocated) * vm.heapGrowthFactor)
	if vm.nextGC < vm.minHeap {
		vm.nextGC = vm.minHeap
	}

	if vm.DebugGC {
		fmt.Fprintf(os.Stderr, "-- gc end (bytesAllocated=%d, nextGC=%d)\n", vm.bytesAllocated, vm.nextGC)
	}
}

func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		vm.markObject(uv)
	}
	for _, v := range vm.tempRoots {
		vm.markValue(v)
	}

	vm.markValueTable(vm.globals)
	vm.markStringSet(vm.strings)
	vm.markModulesTable()

	vm.markObject(vm.initString)
	vm.markObject(vm.stringClass)
	vm.markObject(vm.numberClass)
	vm.markObject(vm.listClass)
	vm.markObject(vm.mapClass)
	vm.markObject(vm.currentModule)
	vm.markObject(vm.testFailures)
	vm.markObject(vm.currentTest)
}

func (vm *VM) markModulesTable() {
	vm.modules.Each(func(k *object.String, v interface{}) {
		vm.markObject(k)
		if mod, ok := v.(*object.Module); ok {
			vm.markObject(mod)
		}
	})
}

// markValueTable marks every key (a string) and every value (a
// value.Value) of a table whose values are language-level Values:
// globals, exports, instance fields, map entries.
func (vm *VM) markValueTable(t *table.Table) {
	t.Each(func(k *object.String, val interface{}) {
		vm.markObject(k)
		if mv, ok := val.(value.Value); ok {
			vm.markValue(mv)
		}
	})
}

// markStringSet marks only the keys of a table used as a set (the
// string-intern table stores a bool sentinel as its value).
func (vm *VM) markStringSet(t *table.Table) {
	t.Each(func(k *object.String, _ interface{}) {
		vm.markObject(k)
	})
}

// markValue marks v grey (pushes it onto the gray worklist) if it is a
// heap reference and not already marked.
func (vm *VM) markValue(v value.Value) {
	if v.IsObj() {
		if o, ok := v.AsObj().(object.Obj); ok {
			vm.markObject(o)
		}
	}
}

func (vm *VM) markObject(o object.Obj) {
	if o == nil {
		return
	}
	// nil interface check: a typed nil pointer stored in the Obj
	// interface still compares != nil above, so guard per-type too.
	if isNilObj(o) {
		return
	}
	if o.Marked() {
		return
	}
	o.SetMarked(true)
	vm.grayStack = append(vm.grayStack, o)
}

func isNilObj(o object.Obj) bool {
	switch v := o.(type) {
	case *object.String:
		return v == nil
	case *object.Function:
		return v == nil
	case *object.Closure:
		return v == nil
	case *object.Upvalue:
		return v == nil
	case *object.Native:
		return v == nil
	case *object.BoundMethod:
		return v == nil
	case *object.BoundNative:
		return v == nil
	case *object.Class:
		return v == nil
	case *object.Instance:
		return v == nil
	case *object.List:
		return v == nil
	case *object.Map:
		return v == nil
	case *object.Module:
		return v == nil
	default:
		return false
	}
}

// traceReferences pops grey objects and blackens them (marks every
// object they reference) until the worklist is empty.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		o := vm.grayStack[len(vm.grayStack)-1]
		vm.grayStack = vm.grayStack[:len(vm.grayStack)-1]
		vm.blacken(o)
	}
}

func (vm *VM) blacken(o object.Obj) {
	switch v := o.(type) {
	case *object.String:
		// no outgoing references
	case *object.Function:
		vm.markObject(v.Name)
		for _, c := range v.Chunk.Constants {
			vm.markValue(c)
		}
	case *object.Closure:
		vm.markObject(v.Function)
		vm.markObject(v.Module)
		for _, uv := range v.Upvalues {
			vm.markObject(uv)
		}
	case *object.Upvalue:
		vm.markValue(v.Closed)
	case *object.Native:
		// no outgoing references
	case *object.BoundMethod:
		vm.markValue(v.Receiver)
		vm.markObject(v.Method)
	case *object.BoundNative:
		vm.markValue(v.Receiver)
		vm.markObject(v.Method)
	case *object.Class:
		vm.markObject(v.Name)
		vm.markValueTable(v.Methods)
	case *object.Instance:
		vm.markObject(v.Class)
		vm.markValueTable(v.Fields)
	case *object.List:
		for _, it := range v.Items {
			vm.markValue(it)
		}
	case *object.Map:
		vm.markValueTable(v.Entries)
	case *object.Module:
		vm.markObject(v.Name)
		vm.markValueTable(v.Globals)
		vm.markValueTable(v.Exports)
	}
}

// sweep walks the allocation list, freeing unmarked objects (removing
// their entry from the string-intern set first, per spec.md §4.5) and
// clearing the mark bit of survivors.
func (vm *VM) sweep() {
	var prev object.Obj
	cur := vm.objects
	for cur != nil {
		if cur.Marked() {
			cur.SetMarked(false)
			prev = cur
			cur = cur.Next()
			continue
		}
		unreached := cur
		cur = cur.Next()
		if prev != nil {
			prev.SetNext(cur)
		} else {
			vm.objects = cur
		}
		if s, ok := unreached.(*object.String); ok {
			vm.strings.Delete(s)
		}
		vm.bytesAllocated -= approxSize
	}
}
