// Package chunk defines the bytecode container produced by the
// compiler and executed by the VM: a flat byte stream, a parallel line
// table for diagnostics, and a constant pool.
package chunk

import "github.com/kristofer/cmel/internal/value"

// OpCode enumerates every instruction the VM understands. Values below
// follow the ordering of spec.md §4.8's opcode table; grouping matters
// only for readability, not for the wire format (bytecode caches store
// these numerically, see package bytefmt).
type OpCode byte

const (
	OpConstant OpCode = iota
	OpConstantLong
	OpNil
	OpTrue
	OpFalse
	OpPop

	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpGetProperty
	OpSetProperty
	OpGetSuper

	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpNegate
	OpNot

	OpPrint

	OpJump
	OpJumpIfFalse
	OpLoop

	OpCall
	OpInvoke
	OpSuperInvoke

	OpClosure
	OpCloseUpvalue
	OpReturn

	OpClass
	OpInherit
	OpMethod

	OpBuildList
	OpBuildMap
	OpIndex
	OpStore

	OpImport
	OpImportFrom
	OpExport
)

var names = map[OpCode]string{
	OpConstant:     "OP_CONSTANT",
	OpConstantLong: "OP_CONSTANT_LONG",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpGetProperty:  "OP_GET_PROPERTY",
	OpSetProperty:  "OP_SET_PROPERTY",
	OpGetSuper:     "OP_GET_SUPER",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpModulo:       "OP_MODULO",
	OpNegate:       "OP_NEGATE",
	OpNot:          "OP_NOT",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpInvoke:       "OP_INVOKE",
	OpSuperInvoke:  "OP_SUPER_INVOKE",
	OpClosure:      "OP_CLOSURE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn:       "OP_RETURN",
	OpClass:        "OP_CLASS",
	OpInherit:      "OP_INHERIT",
	OpMethod:       "OP_METHOD",
	OpBuildList:    "OP_BUILD_LIST",
	OpBuildMap:     "OP_BUILD_MAP",
	OpIndex:        "OP_INDEX",
	OpStore:        "OP_STORE",
	OpImport:       "OP_IMPORT",
	OpImportFrom:   "OP_IMPORT_FROM",
	OpExport:       "OP_EXPORT",
}

func (op OpCode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "OP_UNKNOWN"
}

// Chunk is a function's compiled body: bytecode, one source line per
// byte (for error reporting), and the constants the bytecode indexes
// into.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

func New() *Chunk {
	return &Chunk{}
}

// Write appends a single byte with the source line it came from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp is Write for an OpCode, to avoid byte(op) at every call site.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends value to the constant pool and returns its
// index. The caller is responsible for emitting OP_CONSTANT (index
// fits in a byte) or OP_CONSTANT_LONG (24-bit little-endian index)
// depending on the returned index.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// WriteConstant emits the correct constant-load instruction for idx:
// OP_CONSTANT with an 8-bit operand below 256, OP_CONSTANT_LONG with a
// 24-bit little-endian operand otherwise.
func (c *Chunk) WriteConstant(v value.Value, line int) {
	idx := c.AddConstant(v)
	if idx < 256 {
		c.WriteOp(OpConstant, line)
		c.Write(byte(idx), line)
		return
	}
	c.WriteOp(OpConstantLong, line)
	c.Write(byte(idx), line)
	c.Write(byte(idx>>8), line)
	c.Write(byte(idx>>16), line)
}
