package object

import "github.com/kristofer/cmel/internal/chunk"

// Function is a compiled function template: its arity, how many
// upvalues it captures, an optional name (top-level script functions
// are anonymous), and its bytecode. Functions are never called
// directly; the interpreter always calls through a Closure, which
// pairs a Function with captured variable cells and an owning Module.
type Function struct {
	Header
	Arity        int
	UpvalueCount int
	Name         *String // nil for the implicit top-level script function
	Chunk        *chunk.Chunk
	Upvalues     []UpvalueDesc
}

func NewFunction() *Function {
	return &Function{
		Header: NewHeader(TypeFunction),
		Chunk:  chunk.New(),
	}
}

func (f *Function) DisplayName() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}

// UpvalueDesc describes, for one slot of a Closure's upvalue array,
// whether OP_CLOSURE should capture a local from the *enclosing*
// frame (IsLocal) or simply copy a slot from the enclosing closure's
// own upvalue array.
type UpvalueDesc struct {
	IsLocal bool
	Index   uint8
}
