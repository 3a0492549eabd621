package vm

import (
	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/value"
)

// callValue dispatches a call instruction: callee is whatever sits at
// Peek(argCount) (the call target), and argCount values above it on
// the stack are its arguments. Each branch follows spec.md §4.7's
// dispatch table exactly.
func (vm *VM) callValue(callee value.Value, argCount int) (InterpretResult, bool) {
	if !callee.IsObj() {
		return vm.runtimeError("Can only call functions and classes."), false
	}

	switch fn := callee.AsObj().(type) {
	case *object.Closure:
		return vm.call(fn, argCount)
	case *object.BoundMethod:
		vm.stack[vm.stackTop-argCount-1] = fn.Receiver
		return vm.call(fn.Method, argCount)
	case *object.BoundNative:
		return vm.callBoundNative(fn.Receiver, fn.Method, argCount)
	case *object.Native:
		return vm.callNative(fn, argCount)
	case *object.Class:
		return vm.instantiate(fn, argCount)
	default:
		return vm.runtimeError("Can only call functions and classes."), false
	}
}

func (vm *VM) call(closure *object.Closure, argCount int) (InterpretResult, bool) {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount), false
	}
	if vm.frameCount == FramesMax {
		return vm.runtimeError("Stack overflow."), false
	}
	vm.frames[vm.frameCount] = CallFrame{
		closure: closure,
		ip:      0,
		slots:   vm.stackTop - argCount - 1,
	}
	vm.frameCount++
	return InterpretOK, true
}

func (vm *VM) callNative(native *object.Native, argCount int) (InterpretResult, bool) {
	if native.Arity >= 0 && argCount != native.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", native.Arity, argCount), false
	}
	args := vm.stack[vm.stackTop-argCount : vm.stackTop]
	result := native.Fn(argCount, args)
	if vm.unwound {
		return InterpretRuntimeError, false
	}
	vm.stackTop -= argCount + 1
	if result.IsError() {
		return vm.runtimeError("%s", vm.lastNativeError), false
	}
	vm.Push(result)
	return InterpretOK, true
}

func (vm *VM) callBoundNative(receiver value.Value, native *object.Native, argCount int) (InterpretResult, bool) {
	total := argCount + 1
	if native.Arity >= 0 && total != native.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", native.Arity-1, argCount), false
	}
	args := make([]value.Value, total)
	args[0] = receiver
	copy(args[1:], vm.stack[vm.stackTop-argCount:vm.stackTop])
	result := native.Fn(total, args)
	if vm.unwound {
		return InterpretRuntimeError, false
	}
	vm.stackTop -= argCount + 1
	if result.IsError() {
		return vm.runtimeError("%s", vm.lastNativeError), false
	}
	vm.Push(result)
	return InterpretOK, true
}

// instantiate implements class-as-constructor calling (spec.md §4.7):
// the callee slot on the stack is replaced by a fresh Instance; if the
// class defines `init`, it is invoked as the constructor with the
// given arguments, otherwise the call must have zero arguments.
func (vm *VM) instantiate(class *object.Class, argCount int) (InterpretResult, bool) {
	instance := vm.NewInstance(class)
	vm.stack[vm.stackTop-argCount-1] = value.FromObj(instance)

	if initVal, ok := class.Methods.Get(vm.initString); ok {
		init := initVal.(value.Value).AsObj().(*object.Closure)
		return vm.call(init, argCount)
	}
	if argCount != 0 {
		return vm.runtimeError("Expected 0 arguments but got %d.", argCount), false
	}
	return InterpretOK, true
}

// bindMethod looks up name on class's method table and, if found,
// replaces the top of stack (the instance, left by the caller) with a
// BoundMethod. Returns false if the method does not exist.
func (vm *VM) bindMethod(class *object.Class, name *object.String) bool {
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		return false
	}
	closure := methodVal.(value.Value).AsObj().(*object.Closure)
	bound := vm.NewBoundMethod(vm.Peek(0), closure)
	vm.Pop()
	vm.Push(value.FromObj(bound))
	return true
}

// lookupMethod finds a closure by name in class's (flattened) method
// table.
func lookupMethod(class *object.Class, name *object.String) (*object.Closure, bool) {
	v, ok := class.Methods.Get(name)
	if !ok {
		return nil, false
	}
	return v.(value.Value).AsObj().(*object.Closure), true
}

// primitiveClassFor returns the synthetic class that carries native
// methods for number, string, list and map receivers, or nil for any
// other value (nil, bool, Error, and every other object type).
func (vm *VM) primitiveClassFor(v value.Value) *object.Class {
	switch v.Kind() {
	case value.Number:
		return vm.numberClass
	case value.Obj:
		switch v.AsObj().(type) {
		case *object.String:
			return vm.stringClass
		case *object.List:
			return vm.listClass
		case *object.Map:
			return vm.mapClass
		}
	}
	return nil
}

// invoke fuses a property read with a call, skipping the BoundMethod
// allocation (spec.md §4.7, OP_INVOKE). The receiver sits at
// Peek(argCount).
func (vm *VM) invoke(name *object.String, argCount int) (InterpretResult, bool) {
	receiver := vm.Peek(argCount)

	if receiver.IsObj() {
		if instance, ok := receiver.AsObj().(*object.Instance); ok {
			if fieldVal, ok := instance.Fields.Get(name); ok {
				vm.stack[vm.stackTop-argCount-1] = fieldVal.(value.Value)
				return vm.callValue(fieldVal.(value.Value), argCount)
			}
			if closure, ok := lookupMethod(instance.Class, name); ok {
				return vm.call(closure, argCount)
			}
			return vm.runtimeError("Undefined property '%s'.", name.Chars), false
		}
		if mod, ok := receiver.AsObj().(*object.Module); ok {
			exported, ok := mod.Exports.Get(name)
			if !ok {
				return vm.runtimeError("Undefined export '%s'.", name.Chars), false
			}
			vm.stack[vm.stackTop-argCount-1] = exported.(value.Value)
			return vm.callValue(exported.(value.Value), argCount)
		}
	}

	class := vm.primitiveClassFor(receiver)
	if class == nil {
		return vm.runtimeError("Only instances and primitive values have methods."), false
	}
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined method '%s'.", name.Chars), false
	}
	native := methodVal.(value.Value).AsObj().(*object.Native)
	return vm.callBoundNative(receiver, native, argCount)
}
