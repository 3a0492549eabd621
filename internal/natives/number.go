package natives

import (
	"github.com/kristofer/cmel/internal/value"
	"github.com/kristofer/cmel/internal/vm"
)

// registerNumberMethods attaches Number's sole primitive method,
// add, per spec.md §4.10.
func registerNumberMethods(v *vm.VM) {
	class := v.NumberClass()

	v.DefineMethod(class, "add", 2, func(argCount int, args []value.Value) value.Value {
		if !args[0].IsNumber() || !args[1].IsNumber() {
			return v.NativeError("add() expects a number argument.")
		}
		return value.Num(args[0].AsNumber() + args[1].AsNumber())
	})
}
