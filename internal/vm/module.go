package vm

import (
	"os"

	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/table"
	"github.com/kristofer/cmel/internal/value"
)

// CompileFunc is supplied by package compiler at program start-up (its
// init() calls SetCompileHook) to break the import cycle that would
// otherwise exist between vm (which needs to compile imported modules)
// and compiler (which needs vm to allocate objects while compiling).
type CompileFunc func(vm *VM, source string) (*object.Function, bool)

var compileHook CompileFunc

// SetCompileHook installs the compiler entry point. Package compiler
// calls it from its init(), so importing that package is enough; until
// a hook is installed, Interpret and every IMPORT fail.
func SetCompileHook(fn CompileFunc) { compileHook = fn }

// loadModule implements spec.md §4.9. It is re-entrant-safe: it saves
// and restores globals/stackTop/currentModule around the nested call
// into run(), so a module that itself imports another module nests
// correctly.
func (vm *VM) loadModule(path string) (*object.Module, InterpretResult) {
	pathStr := vm.Intern(path)

	if existing, ok := vm.modules.Get(pathStr); ok {
		return existing.(*object.Module), InterpretOK
	}

	source, err := os.ReadFile(path + ".cmel")
	if err != nil {
		vm.runtimeError("Could not load module '%s': %v", path, err)
		return nil, InterpretRuntimeError
	}

	if compileHook == nil {
		vm.runtimeError("No compiler installed; cannot load module '%s'.", path)
		return nil, InterpretRuntimeError
	}

	fn, ok := compileHook(vm, string(source))
	if !ok {
		return nil, InterpretCompileError
	}

	savedGlobals := vm.globals
	savedStackTop := vm.stackTop
	savedModule := vm.currentModule

	module := vm.NewModule(pathStr)
	vm.currentModule = module

	loadingGlobals := table.New()
	seedModuleGlobals(savedGlobals, loadingGlobals)
	vm.globals = loadingGlobals

	closure := vm.NewClosure(fn, module)
	vm.Push(value.FromObj(closure))
	_, ok = vm.call(closure, 0)
	var result InterpretResult
	if ok {
		result = vm.run(vm.frameCount)
	} else {
		result = InterpretRuntimeError
	}

	if result == InterpretOK {
		table.AddAll(vm.globals, module.Globals)
		vm.modules.Set(pathStr, module)
	}

	vm.globals = savedGlobals
	vm.stackTop = savedStackTop
	vm.currentModule = savedModule

	if result != InterpretOK {
		return nil, result
	}
	return module, InterpretOK
}

// seedModuleGlobals copies only the Natives and Classes out of src into
// dst, per spec.md §4.9 step 5: a module's top-level scope starts with
// the caller's built-ins but none of the caller's user-defined
// variables. table.AddAll has no such filter (it is also used to seed
// a table from another table's full contents elsewhere), so this walks
// src by hand instead of calling it directly.
func seedModuleGlobals(src, dst *table.Table) {
	src.Each(func(key *object.String, val interface{}) {
		v, ok := val.(value.Value)
		if !ok || !v.IsObj() {
			return
		}
		switch v.AsObj().(type) {
		case *object.Native, *object.Class:
			dst.Set(key, val)
		}
	})
}

// importAll copies every export of the module at path into whatever
// table is currently active as "globals" (OP_IMPORT).
func (vm *VM) importAll(path string) InterpretResult {
	module, result := vm.loadModule(path)
	if result != InterpretOK {
		return result
	}
	table.AddAll(module.Exports, vm.globals)
	return InterpretOK
}

// importFrom imports a single named export (OP_IMPORT_FROM).
func (vm *VM) importFrom(path, name string) InterpretResult {
	module, result := vm.loadModule(path)
	if result != InterpretOK {
		return result
	}
	nameStr := vm.Intern(name)
	v, ok := module.Exports.Get(nameStr)
	if !ok {
		return vm.runtimeError("Module '%s' does not export '%s'.", path, name)
	}
	vm.globals.Set(nameStr, v)
	return InterpretOK
}

// export copies the current value of global `name` into the active
// module's exports table; this is the only mechanism that exposes a
// module's symbols (spec.md §4.9).
func (vm *VM) export(name string) InterpretResult {
	nameStr := vm.Intern(name)
	v, ok := vm.globals.Get(nameStr)
	if !ok {
		return vm.runtimeError("Undefined variable '%s'.", name)
	}
	if vm.currentModule == nil {
		return vm.runtimeError("Cannot export '%s' outside of a module.", name)
	}
	vm.currentModule.Exports.Set(nameStr, v)
	return InterpretOK
}
