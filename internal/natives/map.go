package natives

import (
	"github.com/kristofer/cmel/internal/value"
	"github.com/kristofer/cmel/internal/vm"
)

// registerMapMethods attaches Map's primitive methods (spec.md
// §4.10): keys/values/has/remove/length. Map keys are always interned
// strings (spec.md §4.3), so every method here rejects a non-string
// key argument rather than silently coercing it.
func registerMapMethods(v *vm.VM) {
	class := v.MapClass()

	v.DefineMethod(class, "keys", 1, func(argCount int, args []value.Value) value.Value {
		m, _ := asMap(args[0])
		keys := m.Entries.Keys()
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = value.FromObj(k)
		}
		return value.FromObj(v.NewList(items))
	})

	v.DefineMethod(class, "values", 1, func(argCount int, args []value.Value) value.Value {
		m, _ := asMap(args[0])
		keys := m.Entries.Keys()
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			val, _ := m.Entries.Get(k)
			items[i] = val.(value.Value)
		}
		return value.FromObj(v.NewList(items))
	})

	v.DefineMethod(class, "has", 2, func(argCount int, args []value.Value) value.Value {
		m, _ := asMap(args[0])
		key, ok := asString(args[1])
		if !ok {
			return v.NativeError("Map keys must be strings.")
		}
		return value.Bool_(m.Entries.Has(key))
	})

	v.DefineMethod(class, "remove", 2, func(argCount int, args []value.Value) value.Value {
		m, _ := asMap(args[0])
		key, ok := asString(args[1])
		if !ok {
			return v.NativeError("Map keys must be strings.")
		}
		m.Entries.Delete(key)
		return args[0]
	})

	v.DefineMethod(class, "length", 1, func(argCount int, args []value.Value) value.Value {
		m, _ := asMap(args[0])
		return value.Num(float64(m.Entries.Count()))
	})
}
