// Package value defines the tagged-union Value type that flows through
// every stage of the cmel virtual machine: constant pools, the operand
// stack, locals, upvalues, and table entries all hold a Value.
//
// A Value is deliberately small and copyable. Anything bigger than a
// bool/float64/pointer lives on the heap as an Obj (see package object)
// and is referenced through the Obj variant.
package value

import "fmt"

// Kind discriminates the variant held by a Value.
type Kind byte

const (
	Nil Kind = iota
	Bool
	Number
	Obj
	// Error is a sentinel used only to signal a native call failure up
	// one level. It is never stored in user-visible data and has no
	// equality relation.
	Error
)

// ObjRef is the interface implemented by every heap object (package object).
// It is declared here, rather than in package object, so that Value does
// not import object (object imports value instead, to build Values).
type ObjRef interface {
	// ObjTypeName reports a short, stable name used in error messages
	// ("string", "function", "instance", ...).
	ObjTypeName() string
}

// Value is a tagged union: exactly one of the fields below is
// meaningful, selected by Kind.
type Value struct {
	kind Kind
	b    bool
	n    float64
	o    ObjRef
}

// NilValue is the canonical Nil value.
var NilValue = Value{kind: Nil}

// ErrorValue is the canonical native-failure sentinel.
var ErrorValue = Value{kind: Error}

func Bool_(b bool) Value   { return Value{kind: Bool, b: b} }
func Num(n float64) Value  { return Value{kind: Number, n: n} }
func FromObj(o ObjRef) Value { return Value{kind: Obj, o: o} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool    { return v.kind == Nil }
func (v Value) IsBool() bool   { return v.kind == Bool }
func (v Value) IsNumber() bool { return v.kind == Number }
func (v Value) IsObj() bool    { return v.kind == Obj }
func (v Value) IsError() bool  { return v.kind == Error }

// AsBool returns the bool payload; for a Value that is not a Bool it
// returns false. Callers must check Kind or rely on the interpreter's
// own opcode-level type checks first.
func (v Value) AsBool() bool { return v.b }

func (v Value) AsNumber() float64 { return v.n }

func (v Value) AsObj() ObjRef { return v.o }

// IsFalsey implements the language's truthiness rule: only Nil and
// Bool(false) are falsey, everything else -- including 0 and the empty
// string -- is truthy.
func (v Value) IsFalsey() bool {
	switch v.kind {
	case Nil:
		return true
	case Bool:
		return !v.b
	default:
		return false
	}
}

// Equal implements value equality. Values of different kinds are
// never equal. Obj equality is reference equality, which combined with
// string interning gives content equality for strings. Error has no
// equality and always compares false, including to itself.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Nil:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		return a.n == b.n
	case Obj:
		return a.o == b.o
	default: // Error
		return false
	}
}

func (v Value) TypeName() string {
	switch v.kind {
	case Nil:
		return "nil"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case Obj:
		return v.o.ObjTypeName()
	default:
		return "error"
	}
}

// GoString supports %#v and debugging; it is never used for the
// language's own PRINT opcode, see package natives/vm for that.
func (v Value) GoString() string {
	switch v.kind {
	case Nil:
		return "nil"
	case Bool:
		return fmt.Sprintf("%t", v.b)
	case Number:
		return fmt.Sprintf("%g", v.n)
	case Obj:
		return fmt.Sprintf("%v", v.o)
	default:
		return "<error>"
	}
}
