package vm

import "unsafe"

// ptrOf exposes the address of a *value.Value purely for ordering
// comparisons in the open-upvalues list (see alloc.go). It never
// dereferences the raw pointer it returns.
func ptrOf[T any](p *T) unsafe.Pointer {
	return unsafe.Pointer(p)
}
