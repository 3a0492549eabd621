package natives

import (
	"strings"

	"github.com/kristofer/cmel/internal/value"
	"github.com/kristofer/cmel/internal/vm"
)

// registerStringMethods attaches String's primitive methods (spec.md
// §4.10): length, split, charAt, slice. Each native's args[0] is
// always the receiver (see vm.callBoundNative), so Arity counts the
// receiver too.
func registerStringMethods(v *vm.VM) {
	class := v.StringClass()

	v.DefineMethod(class, "length", 1, func(argCount int, args []value.Value) value.Value {
		s, _ := asString(args[0])
		return value.Num(float64(len(s.Chars)))
	})

	v.DefineMethod(class, "split", 2, func(argCount int, args []value.Value) value.Value {
		s, _ := asString(args[0])
		sep, ok := asString(args[1])
		if !ok {
			return v.NativeError("split() expects a string separator.")
		}
		parts := strings.Split(s.Chars, sep.Chars)
		items := make([]value.Value, len(parts))
		for i, part := range parts {
			items[i] = value.FromObj(v.Intern(part))
		}
		return value.FromObj(v.NewList(items))
	})

	v.DefineMethod(class, "charAt", 2, func(argCount int, args []value.Value) value.Value {
		s, _ := asString(args[0])
		if !args[1].IsNumber() {
			return v.NativeError("charAt() expects a number index.")
		}
		i := int(args[1].AsNumber())
		if i < 0 || i >= len(s.Chars) {
			return v.NativeError("String index out of range.")
		}
		return value.FromObj(v.Intern(string(s.Chars[i])))
	})

	v.DefineMethod(class, "slice", 3, func(argCount int, args []value.Value) value.Value {
		s, _ := asString(args[0])
		if !args[1].IsNumber() || !args[2].IsNumber() {
			return v.NativeError("slice() expects two number indices.")
		}
		start := int(args[1].AsNumber())
		end := int(args[2].AsNumber())
		if start < 0 || end > len(s.Chars) || start > end {
			return v.NativeError("String slice out of range.")
		}
		return value.FromObj(v.Intern(s.Chars[start:end]))
	})
}
