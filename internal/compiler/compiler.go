// Package compiler turns source text into a top-level Function in a
// single pass: no intermediate AST, no separate parse/codegen phases.
// Expression parsing uses Pratt's operator-precedence technique;
// statements are handled by straight-line recursive descent. Every
// "compiler" in the nested sense (one per function/method being
// compiled) shares the single Parser's token stream and links back to
// its enclosing compiler so upvalues can be resolved across nesting.
package compiler

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kristofer/cmel/internal/chunk"
	"github.com/kristofer/cmel/internal/lexer"
	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/value"
	"github.com/kristofer/cmel/internal/vm"
)

func init() {
	vm.SetCompileHook(Compile)
}

// Compile is the vm.CompileFunc hook: it compiles source into a
// top-level Function, or returns ok=false after printing diagnostics
// to stderr if the source has syntax errors.
func Compile(v *vm.VM, source string) (*object.Function, bool) {
	p := &Parser{vm: v, lex: lexer.New(source)}
	p.current = newFuncState(nil, v.NewFunction(), typeScript)
	p.advance()

	for !p.match(lexer.TokenEOF) {
		p.declaration()
	}

	fn := p.endFunction()
	return fn, !p.hadError
}

// functionType distinguishes the four shapes a compiled Function can
// take; only the initializer variant gets its implicit "return this".
type functionType int

const (
	typeFunction functionType = iota
	typeMethod
	typeInitializer
	typeScript
)

const thisName = "this"

// local is one declared name visible in the function currently being
// compiled. depth of -1 means "declared but not yet initialized" (its
// own initializer expression is still being compiled).
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// funcState is the per-function compilation frame: its own locals,
// scope depth, and upvalue descriptors, linked to the function whose
// body is currently being emitted into. One exists per nested
// function/method/closure literal; funcState.enclosing chains outward
// to whatever is lexically surrounding it.
type funcState struct {
	enclosing *funcState
	function  *object.Function
	fnType    functionType

	locals     []local
	upvalues   []object.UpvalueDesc
	scopeDepth int
}

func newFuncState(enclosing *funcState, fn *object.Function, fnType functionType) *funcState {
	fs := &funcState{enclosing: enclosing, function: fn, fnType: fnType}
	// Slot 0 is reserved for the receiver ("this" in methods/initializers)
	// or is simply unused/anonymous for plain functions and the script.
	name := ""
	if fnType == typeMethod || fnType == typeInitializer {
		name = thisName
	}
	fs.locals = append(fs.locals, local{name: name, depth: 0})
	return fs
}

// classState tracks the class currently being compiled, so `this` and
// `super` resolve correctly inside method bodies and nested classes
// restore the enclosing one on exit.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Parser drives the whole single-pass compile: token stream, error
// state, and the (nested) function/class being built.
type Parser struct {
	vm  *vm.VM
	lex *lexer.Lexer

	previous lexer.Token
	curTok   lexer.Token

	hadError  bool
	panicMode bool

	current *funcState
	class   *classState
}

func (p *Parser) chunk() *chunk.Chunk { return p.current.function.Chunk }

// ---- token stream ----

func (p *Parser) advance() {
	p.previous = p.curTok
	for {
		p.curTok = p.lex.Next()
		if p.curTok.Type != lexer.TokenError {
			break
		}
		p.errorAtCurrent(p.curTok.Lexeme)
	}
}

func (p *Parser) check(t lexer.TokenType) bool { return p.curTok.Type == t }

func (p *Parser) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(t lexer.TokenType, msg string) {
	if p.curTok.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *Parser) errorAtCurrent(msg string) { p.errorAt(p.curTok, msg) }
func (p *Parser) error(msg string)          { p.errorAt(p.previous, msg) }

func (p *Parser) errorAt(tok lexer.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	where := ""
	switch tok.Type {
	case lexer.TokenEOF:
		where = " at end"
	case lexer.TokenError:
	default:
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(os.Stderr, "[line %d] Error%s: %s\n", tok.Line, where, msg)
	p.hadError = true
}

// synchronize discards tokens after a parse error until something
// that plausibly starts a new statement, so one mistake doesn't
// cascade into a wall of spurious errors.
func (p *Parser) synchronize() {
	p.panicMode = false
	for p.curTok.Type != lexer.TokenEOF {
		if p.previous.Type == lexer.TokenSemicolon {
			return
		}
		switch p.curTok.Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn,
			lexer.TokenImport, lexer.TokenExport:
			return
		}
		p.advance()
	}
}

// ---- emission helpers ----

func (p *Parser) line() int { return p.previous.Line }

func (p *Parser) emit(b byte)            { p.chunk().Write(b, p.line()) }
func (p *Parser) emitOp(op chunk.OpCode) { p.chunk().WriteOp(op, p.line()) }

func (p *Parser) emitBytes(op chunk.OpCode, b byte) {
	p.emitOp(op)
	p.emit(b)
}

// emitConstant routes the value through vm.AddConstant (stack-rooted)
// rather than chunk.WriteConstant directly, so an object constant
// cannot be reclaimed by a collection triggered while the pool itself
// grows (spec.md §4.4).
func (p *Parser) emitConstant(v value.Value) {
	idx := p.vm.AddConstant(p.chunk(), v)
	if idx < 256 {
		p.emitBytes(chunk.OpConstant, byte(idx))
		return
	}
	p.emitOp(chunk.OpConstantLong)
	p.emit(byte(idx))
	p.emit(byte(idx >> 8))
	p.emit(byte(idx >> 16))
}

func (p *Parser) identifierConstant(name string) byte {
	idx := p.vm.AddConstant(p.chunk(), value.FromObj(p.vm.Intern(name)))
	if idx > 255 {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(chunk.OpLoop)
	offset := len(p.chunk().Code) - loopStart + 2
	if offset > 1<<16-1 {
		p.error("Loop body too large.")
	}
	p.emit(byte(offset >> 8))
	p.emit(byte(offset))
}

// emitJump writes the jump opcode with a placeholder offset and
// returns the index of the first placeholder byte, to be fixed up by
// patchJump once the jump target is known.
func (p *Parser) emitJump(op chunk.OpCode) int {
	p.emitOp(op)
	p.emit(0xff)
	p.emit(0xff)
	return len(p.chunk().Code) - 2
}

func (p *Parser) patchJump(offset int) {
	jump := len(p.chunk().Code) - offset - 2
	if jump > 1<<16-1 {
		p.error("Too much code to jump over.")
	}
	p.chunk().Code[offset] = byte(jump >> 8)
	p.chunk().Code[offset+1] = byte(jump)
}

func (p *Parser) emitReturn() {
	if p.current.fnType == typeInitializer {
		p.emitBytes(chunk.OpGetLocal, 0)
	} else {
		p.emitOp(chunk.OpNil)
	}
	p.emitOp(chunk.OpReturn)
}

// endFunction closes out the function currently being compiled and
// pops back to the enclosing one, mirroring clox's compiler stack.
func (p *Parser) endFunction() *object.Function {
	p.emitReturn()
	fn := p.current.function
	fn.UpvalueCount = len(p.current.upvalues)
	fn.Upvalues = p.current.upvalues
	p.current = p.current.enclosing
	return fn
}

func numberValue(lexeme string) value.Value {
	n, _ := strconv.ParseFloat(lexeme, 64)
	return value.Num(n)
}
