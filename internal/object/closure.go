package object

import "github.com/kristofer/cmel/internal/value"

// Upvalue is a shared mutable cell that lets closures capture a
// variable from an enclosing scope rather than a copy of its value.
//
// It starts "open": Location points at a live slot in the VM's value
// stack. When the enclosing scope ends (the local is about to be
// popped), the interpreter "closes" the upvalue: it copies the
// current value into Closed and retargets Location to point at that
// field instead. From then on reads/writes through the Upvalue are
// indistinguishable to calling code -- only Location's target moved.
type Upvalue struct {
	Header
	Location *value.Value // points into the stack (open) or at Closed (closed)
	Closed   value.Value
	Next     *Upvalue // next entry in the VM's open-upvalues list
}

func NewUpvalue(slot *value.Value) *Upvalue {
	u := &Upvalue{Header: NewHeader(TypeUpvalue)}
	u.Location = slot
	return u
}

// Close detaches the upvalue from the stack slot it was watching,
// copying its current value into owned storage.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// Closure pairs a Function template with the upvalue cells it
// captured at creation time, plus the Module it was created in (used
// to resolve OP_GET_GLOBAL/OP_SET_GLOBAL/OP_DEFINE_GLOBAL against that
// module's own globals rather than the top-level script's). Module is
// nil only for the script's own top-level closure.
type Closure struct {
	Header
	Function *Function
	Upvalues []*Upvalue
	Module   *Module
}

func NewClosure(fn *Function, module *Module) *Closure {
	return &Closure{
		Header:   NewHeader(TypeClosure),
		Function: fn,
		Upvalues: make([]*Upvalue, fn.UpvalueCount),
		Module:   module,
	}
}
