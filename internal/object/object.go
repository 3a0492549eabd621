// Package object defines every heap-allocated value in the cmel VM:
// strings, functions, closures, upvalues, natives, bound methods,
// classes, instances, lists, maps, and modules.
//
// Every object carries a common Header (type tag, GC mark bit, and a
// link to the next object in the VM's allocation list). The allocation
// list is what the sweep phase of the collector walks; nothing here
// reaches back into the VM or GC packages, keeping the dependency
// direction strictly value <- object <- vm.
package object

import "github.com/kristofer/cmel/internal/value"

// Type discriminates the concrete kind of heap object.
type Type byte

const (
	TypeString Type = iota
	TypeFunction
	TypeClosure
	TypeUpvalue
	TypeNative
	TypeBoundMethod
	TypeBoundNative
	TypeClass
	TypeInstance
	TypeList
	TypeMap
	TypeModule
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeFunction:
		return "function"
	case TypeClosure:
		return "closure"
	case TypeUpvalue:
		return "upvalue"
	case TypeNative:
		return "native"
	case TypeBoundMethod:
		return "bound method"
	case TypeBoundNative:
		return "bound native"
	case TypeClass:
		return "class"
	case TypeInstance:
		return "instance"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypeModule:
		return "module"
	default:
		return "unknown"
	}
}

// Obj is implemented by every heap object. It is the interface the GC
// and the allocation list operate on; Value.AsObj() narrows it to the
// concrete type via a type switch or assertion at each use site.
type Obj interface {
	value.ObjRef
	Type() Type
	Marked() bool
	SetMarked(bool)
	Next() Obj
	SetNext(Obj)
}

// Header is embedded by every concrete object type. It implements all
// of Obj, including Type and ObjTypeName, from a per-value type tag set
// by NewHeader (the tag is fixed per concrete type, but storing it in
// Header keeps Header reusable and avoids code generation).
type Header struct {
	typ    Type
	marked bool
	next   Obj
}

func NewHeader(t Type) Header { return Header{typ: t} }

func (h *Header) Type() Type        { return h.typ }
func (h *Header) Marked() bool      { return h.marked }
func (h *Header) SetMarked(m bool)  { h.marked = m }
func (h *Header) Next() Obj         { return h.next }
func (h *Header) SetNext(o Obj)     { h.next = o }
func (h *Header) ObjTypeName() string { return h.typ.String() }
