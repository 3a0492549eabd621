package vm

import (
	"math"

	"github.com/kristofer/cmel/internal/chunk"
	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/table"
	"github.com/kristofer/cmel/internal/value"
)

// Interpret is the executable entry point (spec.md §6): compile
// source, wrap the result in a closure with no owning module, push it,
// and run.
func (vm *VM) Interpret(source string) InterpretResult {
	vm.unwound = false
	if compileHook == nil {
		vm.eprintf("No compiler installed.\n")
		return InterpretRuntimeError
	}
	fn, ok := compileHook(vm, source)
	if !ok {
		return InterpretCompileError
	}

	closure := vm.NewClosure(fn, nil)
	vm.Push(value.FromObj(closure))
	if _, ok := vm.call(closure, 0); !ok {
		return InterpretRuntimeError
	}
	return vm.run(vm.frameCount)
}

// InterpretFunction runs an already-compiled top-level function
// (loaded from a .cmelc cache via package bytefmt) exactly as
// Interpret runs a freshly-compiled one, skipping the compile step.
func (vm *VM) InterpretFunction(fn *object.Function) InterpretResult {
	vm.unwound = false
	closure := vm.NewClosure(fn, nil)
	vm.Push(value.FromObj(closure))
	if _, ok := vm.call(closure, 0); !ok {
		return InterpretRuntimeError
	}
	return vm.run(vm.frameCount)
}

// run executes instructions until the frame count drops back below
// initialFrameCount, i.e. until the invocation that called run (either
// Interpret, a module load, or a re-entrant native like map/filter)
// has returned. This is what makes higher-order natives able to call
// back into user closures: they invoke run() at a deeper frame depth
// and it returns control once that depth unwinds (spec.md §4.8).
func (vm *VM) run(initialFrameCount int) InterpretResult {
	frame := &vm.frames[vm.frameCount-1]
	code := frame.closure.Function.Chunk.Code

	readByte := func() byte {
		b := code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() int {
		hi := int(readByte())
		lo := int(readByte())
		return hi<<8 | lo
	}
	readConstant := func() value.Value {
		return frame.closure.Function.Chunk.Constants[readByte()]
	}
	readConstantLong := func() value.Value {
		idx := int(readByte()) | int(readByte())<<8 | int(readByte())<<16
		return frame.closure.Function.Chunk.Constants[idx]
	}
	readString := func() *object.String {
		return readConstant().AsObj().(*object.String)
	}

	for {
		op := chunk.OpCode(readByte())
		switch op {
		case chunk.OpConstant:
			vm.Push(readConstant())
		case chunk.OpConstantLong:
			vm.Push(readConstantLong())
		case chunk.OpNil:
			vm.Push(value.NilValue)
		case chunk.OpTrue:
			vm.Push(value.Bool_(true))
		case chunk.OpFalse:
			vm.Push(value.Bool_(false))
		case chunk.OpPop:
			vm.Pop()

		case chunk.OpGetLocal:
			slot := int(readByte())
			vm.Push(vm.stack[frame.slots+slot])
		case chunk.OpSetLocal:
			slot := int(readByte())
			vm.stack[frame.slots+slot] = vm.Peek(0)

		case chunk.OpGetGlobal:
			name := readString()
			v, ok := vm.lookupGlobal(frame, name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.Push(v)
		case chunk.OpDefineGlobal:
			name := readString()
			vm.activeGlobals(frame).Set(name, vm.Peek(0))
			vm.Pop()
		case chunk.OpSetGlobal:
			name := readString()
			if !vm.setGlobal(frame, name, vm.Peek(0)) {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case chunk.OpGetUpvalue:
			slot := int(readByte())
			vm.Push(*frame.closure.Upvalues[slot].Location)
		case chunk.OpSetUpvalue:
			slot := int(readByte())
			*frame.closure.Upvalues[slot].Location = vm.Peek(0)

		case chunk.OpGetProperty:
			name := readString()
			if res, ok := vm.getProperty(name); !ok {
				return res
			}

		case chunk.OpSetProperty:
			name := readString()
			instVal := vm.Peek(1)
			inst, ok := asInstance(instVal)
			if !ok {
				return vm.runtimeError("Only instances have settable fields.")
			}
			inst.Fields.Set(name, vm.Peek(0))
			v := vm.Pop()
			vm.Pop()
			vm.Push(v)

		case chunk.OpGetSuper:
			name := readString()
			superVal := vm.Pop()
			super := superVal.AsObj().(*object.Class)
			if !vm.bindMethod(super, name) {
				return vm.runtimeError("Undefined property '%s'.", name.Chars)
			}

		case chunk.OpEqual:
			b := vm.Pop()
			a := vm.Pop()
			vm.Push(value.Bool_(value.Equal(a, b)))
		case chunk.OpGreater:
			if res, ok := vm.numericCompare(func(a, b float64) bool { return a > b }); !ok {
				return res
			}
		case chunk.OpLess:
			if res, ok := vm.numericCompare(func(a, b float64) bool { return a < b }); !ok {
				return res
			}

		case chunk.OpAdd:
			if res, ok := vm.add(); !ok {
				return res
			}
		case chunk.OpSubtract:
			if res, ok := vm.arith(func(a, b float64) float64 { return a - b }); !ok {
				return res
			}
		case chunk.OpMultiply:
			if res, ok := vm.arith(func(a, b float64) float64 { return a * b }); !ok {
				return res
			}
		case chunk.OpDivide:
			if res, ok := vm.arith(func(a, b float64) float64 { return a / b }); !ok {
				return res
			}
		case chunk.OpModulo:
			if res, ok := vm.arith(modulo); !ok {
				return res
			}
		case chunk.OpNegate:
			if !vm.Peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.Push(value.Num(-vm.Pop().AsNumber()))
		case chunk.OpNot:
			vm.Push(value.Bool_(vm.Pop().IsFalsey()))

		case chunk.OpPrint:
			vm.printValue(vm.Pop())

		case chunk.OpJump:
			offset := readShort()
			frame.ip += offset
		case chunk.OpJumpIfFalse:
			offset := readShort()
			if vm.Peek(0).IsFalsey() {
				frame.ip += offset
			}
		case chunk.OpLoop:
			offset := readShort()
			frame.ip -= offset

		case chunk.OpCall:
			argCount := int(readByte())
			callee := vm.Peek(argCount)
			res, ok := vm.callValue(callee, argCount)
			if !ok {
				return res
			}
			frame = &vm.frames[vm.frameCount-1]
			code = frame.closure.Function.Chunk.Code

		case chunk.OpInvoke:
			name := readString()
			argCount := int(readByte())
			res, ok := vm.invoke(name, argCount)
			if !ok {
				return res
			}
			frame = &vm.frames[vm.frameCount-1]
			code = frame.closure.Function.Chunk.Code

		case chunk.OpSuperInvoke:
			name := readString()
			argCount := int(readByte())
			superVal := vm.Pop()
			super := superVal.AsObj().(*object.Class)
			closure, ok := lookupMethod(super, name)
			if !ok {
				return vm.runtimeError("Undefined property '%s'.", name.Chars)
			}
			res, ok := vm.call(closure, argCount)
			if !ok {
				return res
			}
			frame = &vm.frames[vm.frameCount-1]
			code = frame.closure.Function.Chunk.Code

		case chunk.OpClosure:
			fnVal := readConstant()
			fn := fnVal.AsObj().(*object.Function)
			closure := vm.NewClosure(fn, frame.closure.Module)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte() != 0
				index := readByte()
				if isLocal {
					closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[frame.slots+int(index)])
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.Push(value.FromObj(closure))

		case chunk.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.Pop()

		case chunk.OpReturn:
			result := vm.Pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount < initialFrameCount {
				vm.stackTop = frame.slots
				vm.Push(result)
				return InterpretOK
			}
			vm.stackTop = frame.slots
			vm.Push(result)
			frame = &vm.frames[vm.frameCount-1]
			code = frame.closure.Function.Chunk.Code

		case chunk.OpClass:
			name := readString()
			vm.Push(value.FromObj(vm.NewClass(name)))

		case chunk.OpInherit:
			superVal := vm.Peek(1)
			superClass, ok := superVal.AsObj().(*object.Class)
			if !ok {
				return vm.runtimeError("Superclass must be a class.")
			}
			subClass := vm.Peek(0).AsObj().(*object.Class)
			table_AddAllMethods(superClass, subClass)
			vm.Pop()

		case chunk.OpMethod:
			name := readString()
			method := vm.Peek(0)
			class := vm.Peek(1).AsObj().(*object.Class)
			class.Methods.Set(name, method)
			vm.Pop()

		case chunk.OpBuildList:
			count := int(readByte())
			items := make([]value.Value, count)
			copy(items, vm.stack[vm.stackTop-count:vm.stackTop])
			vm.stackTop -= count
			vm.Push(value.FromObj(vm.NewList(items)))

		case chunk.OpBuildMap:
			count := int(readByte())
			m := vm.NewMap()
			base := vm.stackTop - count*2
			for i := 0; i < count; i++ {
				keyVal := vm.stack[base+i*2]
				val := vm.stack[base+i*2+1]
				key, ok := keyVal.AsObj().(*object.String)
				if !ok {
					return vm.runtimeError("Map keys must be strings.")
				}
				m.Entries.Set(key, val)
			}
			vm.stackTop = base
			vm.Push(value.FromObj(m))

		case chunk.OpIndex:
			if res, ok := vm.index(); !ok {
				return res
			}

		case chunk.OpStore:
			if res, ok := vm.store(); !ok {
				return res
			}

		case chunk.OpImport:
			path := readString()
			if res := vm.importAll(path.Chars); res != InterpretOK {
				return res
			}
			frame = &vm.frames[vm.frameCount-1]
			code = frame.closure.Function.Chunk.Code

		case chunk.OpImportFrom:
			path := readString()
			name := readString()
			if res := vm.importFrom(path.Chars, name.Chars); res != InterpretOK {
				return res
			}
			frame = &vm.frames[vm.frameCount-1]
			code = frame.closure.Function.Chunk.Code

		case chunk.OpExport:
			name := readString()
			if res := vm.export(name.Chars); res != InterpretOK {
				return res
			}

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

func modulo(a, b float64) float64 {
	r := math.Mod(a, b)
	return r
}

func asInstance(v value.Value) (*object.Instance, bool) {
	if !v.IsObj() {
		return nil, false
	}
	inst, ok := v.AsObj().(*object.Instance)
	return inst, ok
}

// table_AddAllMethods copies every method from super into sub, giving
// OP_INHERIT its flattened-inheritance semantics (spec.md §4.7): no
// method-resolution chain is walked at call time.
func table_AddAllMethods(super, sub *object.Class) {
	super.Methods.Each(func(k *object.String, v interface{}) {
		sub.Methods.Set(k, v)
	})
}

// lookupGlobal resolves GET_GLOBAL: the frame's module globals first
// (if the closure belongs to a module), falling back to vm.globals.
func (vm *VM) lookupGlobal(frame *CallFrame, name *object.String) (value.Value, bool) {
	if frame.closure.Module != nil {
		if v, ok := frame.closure.Module.Globals.Get(name); ok {
			return v.(value.Value), true
		}
	}
	if v, ok := vm.globals.Get(name); ok {
		return v.(value.Value), true
	}
	return value.NilValue, false
}

func (vm *VM) setGlobal(frame *CallFrame, name *object.String, v value.Value) bool {
	if frame.closure.Module != nil {
		if frame.closure.Module.Globals.Has(name) {
			frame.closure.Module.Globals.Set(name, v)
			return true
		}
	}
	if vm.globals.Has(name) {
		vm.globals.Set(name, v)
		return true
	}
	return false
}

// activeGlobals is the table OP_DEFINE_GLOBAL writes into: whatever
// is currently "globals" per spec.md §3's note on vm.globals being
// swapped during module load.
func (vm *VM) activeGlobals(frame *CallFrame) *table.Table {
	return vm.globals
}
