package natives

import (
	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/value"
	"github.com/kristofer/cmel/internal/vm"
)

// registerListMethods attaches List's primitive methods (spec.md
// §4.10): add/remove/length/map/filter/find/contains/reverse/sum.
// map/filter/find take a closure argument and must call back into
// user bytecode; they follow the rooting discipline spec.md §5
// requires (push the in-progress accumulator to tempRoots across
// every allocation point) and the re-entrancy convention of package
// vm's CallClosure/RunReentrant pair.
func registerListMethods(v *vm.VM) {
	class := v.ListClass()

	v.DefineMethod(class, "add", 2, func(argCount int, args []value.Value) value.Value {
		l, _ := asList(args[0])
		l.Items = append(l.Items, args[1])
		return args[0]
	})

	v.DefineMethod(class, "remove", 2, func(argCount int, args []value.Value) value.Value {
		l, _ := asList(args[0])
		if !args[1].IsNumber() {
			return v.NativeError("remove() expects a number index.")
		}
		i := int(args[1].AsNumber())
		if i < 0 || i >= len(l.Items) {
			return v.NativeError("List index out of range.")
		}
		removed := l.Items[i]
		l.Items = append(l.Items[:i], l.Items[i+1:]...)
		return removed
	})

	v.DefineMethod(class, "length", 1, func(argCount int, args []value.Value) value.Value {
		l, _ := asList(args[0])
		return value.Num(float64(len(l.Items)))
	})

	v.DefineMethod(class, "contains", 2, func(argCount int, args []value.Value) value.Value {
		l, _ := asList(args[0])
		for _, item := range l.Items {
			if value.Equal(item, args[1]) {
				return value.Bool_(true)
			}
		}
		return value.Bool_(false)
	})

	v.DefineMethod(class, "reverse", 1, func(argCount int, args []value.Value) value.Value {
		l, _ := asList(args[0])
		reversed := make([]value.Value, len(l.Items))
		for i, item := range l.Items {
			reversed[len(l.Items)-1-i] = item
		}
		return value.FromObj(v.NewList(reversed))
	})

	v.DefineMethod(class, "sum", 1, func(argCount int, args []value.Value) value.Value {
		l, _ := asList(args[0])
		total := 0.0
		for _, item := range l.Items {
			if !item.IsNumber() {
				return v.NativeError("sum() requires every element to be a number.")
			}
			total += item.AsNumber()
		}
		return value.Num(total)
	})

	v.DefineMethod(class, "map", 2, func(argCount int, args []value.Value) value.Value {
		l, _ := asList(args[0])
		closure, ok := asClosure(args[1])
		if !ok {
			return v.NativeError("map() expects a function argument.")
		}
		result := v.NewList(make([]value.Value, 0, len(l.Items)))
		v.PushTempRoot(value.FromObj(result))
		for _, item := range l.Items {
			mapped, ok := callBack(v, closure, item)
			if !ok {
				v.PopTempRoot()
				return value.ErrorValue
			}
			result.Items = append(result.Items, mapped)
		}
		v.PopTempRoot()
		return value.FromObj(result)
	})

	v.DefineMethod(class, "filter", 2, func(argCount int, args []value.Value) value.Value {
		l, _ := asList(args[0])
		closure, ok := asClosure(args[1])
		if !ok {
			return v.NativeError("filter() expects a function argument.")
		}
		result := v.NewList(nil)
		v.PushTempRoot(value.FromObj(result))
		for _, item := range l.Items {
			keep, ok := callBack(v, closure, item)
			if !ok {
				v.PopTempRoot()
				return value.ErrorValue
			}
			if !keep.IsFalsey() {
				result.Items = append(result.Items, item)
			}
		}
		v.PopTempRoot()
		return value.FromObj(result)
	})

	v.DefineMethod(class, "find", 2, func(argCount int, args []value.Value) value.Value {
		l, _ := asList(args[0])
		closure, ok := asClosure(args[1])
		if !ok {
			return v.NativeError("find() expects a function argument.")
		}
		for _, item := range l.Items {
			found, ok := callBack(v, closure, item)
			if !ok {
				return value.ErrorValue
			}
			if !found.IsFalsey() {
				return item
			}
		}
		return value.NilValue
	})
}

func asClosure(v value.Value) (*object.Closure, bool) {
	if !v.IsObj() {
		return nil, false
	}
	c, ok := v.AsObj().(*object.Closure)
	return c, ok
}

// callBack invokes closure with a single argument by re-entering the
// interpreter loop, exactly as OP_CALL would (spec.md §4.8, §4.10).
// The bool result is false if the callback raised a runtime error, in
// which case the caller must unwind without further stack surgery --
// vm.unwound is now set and the enclosing native call wrapper will
// notice it.
func callBack(v *vm.VM, closure *object.Closure, arg value.Value) (value.Value, bool) {
	v.Push(value.FromObj(closure))
	v.Push(arg)
	if !v.CallClosure(closure, 1) {
		return value.NilValue, false
	}
	if res := v.RunReentrant(); res != vm.InterpretOK {
		return value.NilValue, false
	}
	return v.Pop(), true
}
