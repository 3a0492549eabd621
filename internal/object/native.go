package object

import "github.com/kristofer/cmel/internal/value"

// NativeFn is the signature every built-in function and primitive
// method implements. argCount/args describe exactly the arguments the
// call site passed (for a bound native, args[0] is the receiver and
// argCount includes it, per spec.md §4.7). A native signals failure by
// returning value.ErrorValue after arranging for the VM to have
// recorded a runtime error message (see the VM.NativeError helper).
type NativeFn func(argCount int, args []value.Value) value.Value

// Native is a built-in function or primitive method. Arity is the
// exact argument count required, or -1 for variadic natives that
// accept any count.
type Native struct {
	Header
	Name  string
	Arity int
	Fn    NativeFn
}

func NewNative(name string, arity int, fn NativeFn) *Native {
	return &Native{
		Header: NewHeader(TypeNative),
		Name:   name,
		Arity:  arity,
		Fn:     fn,
	}
}
