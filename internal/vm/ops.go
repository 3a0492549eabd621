package vm

import (
	"fmt"

	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/value"
)

func isString(v value.Value) (*object.String, bool) {
	if !v.IsObj() {
		return nil, false
	}
	s, ok := v.AsObj().(*object.String)
	return s, ok
}

// stringifyValue implements the single canonical "how does this print
// or concatenate" conversion spec.md's design notes call for (the
// source this was distilled from had two slightly different
// implementations for PRINT vs string coercion; this is used by both).
func (vm *VM) stringifyValue(v value.Value) string {
	switch v.Kind() {
	case value.Nil:
		return "nil"
	case value.Bool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case value.Number:
		return value.FormatNumber(v.AsNumber())
	case value.Obj:
		switch o := v.AsObj().(type) {
		case *object.String:
			return o.Chars
		case *object.Function:
			return o.DisplayName()
		case *object.Closure:
			return o.Function.DisplayName()
		case *object.Native:
			return fmt.Sprintf("<native %s>", o.Name)
		case *object.Class:
			return o.Name.Chars
		case *object.Instance:
			return o.Class.Name.Chars + " instance"
		case *object.BoundMethod:
			return o.Method.Function.DisplayName()
		case *object.BoundNative:
			return fmt.Sprintf("<native %s>", o.Method.Name)
		case *object.List:
			return vm.stringifyList(o)
		case *object.Map:
			return "<map>"
		case *object.Module:
			return "<module " + o.Name.Chars + ">"
		}
	}
	return "<error>"
}

func (vm *VM) stringifyList(l *object.List) string {
	s := "["
	for i, it := range l.Items {
		if i > 0 {
			s += ", "
		}
		if str, ok := isString(it); ok {
			s += "\"" + str.Chars + "\""
		} else {
			s += vm.stringifyValue(it)
		}
	}
	return s + "]"
}

func (vm *VM) printValue(v value.Value) {
	fmt.Fprintln(vm.Stdout, vm.stringifyValue(v))
}

func (vm *VM) numericCompare(cmp func(a, b float64) bool) (InterpretResult, bool) {
	if !vm.Peek(0).IsNumber() || !vm.Peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers."), false
	}
	b := vm.Pop().AsNumber()
	a := vm.Pop().AsNumber()
	vm.Push(value.Bool_(cmp(a, b)))
	return InterpretOK, true
}

func (vm *VM) arith(fn func(a, b float64) float64) (InterpretResult, bool) {
	if !vm.Peek(0).IsNumber() || !vm.Peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers."), false
	}
	b := vm.Pop().AsNumber()
	a := vm.Pop().AsNumber()
	vm.Push(value.Num(fn(a, b)))
	return InterpretOK, true
}

// add implements OP_ADD's dual numeric/string semantics (spec.md
// §4.8): two numbers add; if either side is a string, the other is
// stringified and the two are concatenated; any other combination is
// a runtime error.
func (vm *VM) add() (InterpretResult, bool) {
	bv := vm.Peek(0)
	av := vm.Peek(1)

	if av.IsNumber() && bv.IsNumber() {
		vm.Pop()
		vm.Pop()
		vm.Push(value.Num(av.AsNumber() + bv.AsNumber()))
		return InterpretOK, true
	}

	_, aIsStr := isString(av)
	_, bIsStr := isString(bv)
	if aIsStr || bIsStr {
		vm.Pop()
		vm.Pop()
		concatenated := vm.stringifyValue(av) + vm.stringifyValue(bv)
		vm.Push(value.FromObj(vm.Intern(concatenated)))
		return InterpretOK, true
	}

	return vm.runtimeError("Operands must be two numbers or two strings."), false
}

func (vm *VM) getProperty(name *object.String) (InterpretResult, bool) {
	receiver := vm.Peek(0)
	if !receiver.IsObj() {
		return vm.runtimeError("Only instances and primitive values have properties."), false
	}

	switch r := receiver.AsObj().(type) {
	case *object.Instance:
		if v, ok := r.Fields.Get(name); ok {
			vm.Pop()
			vm.Push(v.(value.Value))
			return InterpretOK, true
		}
		if !vm.bindMethod(r.Class, name) {
			return vm.runtimeError("Undefined property '%s'.", name.Chars), false
		}
		return InterpretOK, true

	case *object.Module:
		v, ok := r.Exports.Get(name)
		if !ok {
			return vm.runtimeError("Undefined export '%s'.", name.Chars), false
		}
		vm.Pop()
		vm.Push(v.(value.Value))
		return InterpretOK, true

	default:
		class := vm.primitiveClassFor(receiver)
		if class == nil {
			return vm.runtimeError("Only instances and primitive values have properties."), false
		}
		methodVal, ok := class.Methods.Get(name)
		if !ok {
			return vm.runtimeError("Undefined property '%s'.", name.Chars), false
		}
		native := methodVal.(value.Value).AsObj().(*object.Native)
		bound := vm.NewBoundNative(receiver, native)
		vm.Pop()
		vm.Push(value.FromObj(bound))
		return InterpretOK, true
	}
}

func (vm *VM) index() (InterpretResult, bool) {
	idx := vm.Pop()
	container := vm.Pop()
	if !container.IsObj() {
		return vm.runtimeError("Only lists and maps can be indexed."), false
	}
	switch c := container.AsObj().(type) {
	case *object.List:
		if !idx.IsNumber() {
			return vm.runtimeError("List index must be a number."), false
		}
		i := int(idx.AsNumber())
		if i < 0 || i >= len(c.Items) {
			return vm.runtimeError("List index out of range."), false
		}
		vm.Push(c.Items[i])
		return InterpretOK, true
	case *object.Map:
		key, ok := isString(idx)
		if !ok {
			return vm.runtimeError("Map key must be a string."), false
		}
		v, found := c.Entries.Get(key)
		if !found {
			vm.Push(value.NilValue)
			return InterpretOK, true
		}
		vm.Push(v.(value.Value))
		return InterpretOK, true
	default:
		return vm.runtimeError("Only lists and maps can be indexed."), false
	}
}

func (vm *VM) store() (InterpretResult, bool) {
	val := vm.Pop()
	idx := vm.Pop()
	container := vm.Pop()
	if !container.IsObj() {
		return vm.runtimeError("Only lists and maps can be indexed."), false
	}
	switch c := container.AsObj().(type) {
	case *object.List:
		if !idx.IsNumber() {
			return vm.runtimeError("List index must be a number."), false
		}
		i := int(idx.AsNumber())
		if i < 0 || i >= len(c.Items) {
			return vm.runtimeError("List index out of range."), false
		}
		c.Items[i] = val
		vm.Push(val)
		return InterpretOK, true
	case *object.Map:
		key, ok := isString(idx)
		if !ok {
			return vm.runtimeError("Map key must be a string."), false
		}
		c.Entries.Set(key, val)
		vm.Push(val)
		return InterpretOK, true
	default:
		return vm.runtimeError("Only lists and maps can be indexed."), false
	}
}
