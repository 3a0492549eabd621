package compiler

import (
	"github.com/kristofer/cmel/internal/chunk"
	"github.com/kristofer/cmel/internal/lexer"
	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/value"
)

// declaration is the top of the statement grammar: anything that can
// introduce a new binding (var/fun/class) falls through to statement
// otherwise. A parse error here triggers panic-mode recovery so one
// bad statement doesn't poison the rest of the file.
func (p *Parser) declaration() {
	switch {
	case p.match(lexer.TokenClass):
		p.classDeclaration()
	case p.match(lexer.TokenFun):
		p.funDeclaration()
	case p.match(lexer.TokenVar):
		p.varDeclaration()
	case p.match(lexer.TokenImport):
		p.importDeclaration()
	case p.match(lexer.TokenExport):
		p.exportDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(lexer.TokenPrint):
		p.printStatement()
	case p.match(lexer.TokenIf):
		p.ifStatement()
	case p.match(lexer.TokenWhile):
		p.whileStatement()
	case p.match(lexer.TokenFor):
		p.forStatement()
	case p.match(lexer.TokenReturn):
		p.returnStatement()
	case p.match(lexer.TokenLeftBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(lexer.TokenRightBrace) && !p.check(lexer.TokenEOF) {
		p.declaration()
	}
	p.consume(lexer.TokenRightBrace, "Expect '}' after block.")
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(lexer.TokenSemicolon, "Expect ';' after expression.")
	p.emitOp(chunk.OpPop)
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(lexer.TokenSemicolon, "Expect ';' after value.")
	p.emitOp(chunk.OpPrint)
}

func (p *Parser) returnStatement() {
	if p.current.fnType == typeScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(lexer.TokenSemicolon) {
		p.emitReturn()
		return
	}
	if p.current.fnType == typeInitializer {
		p.error("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(lexer.TokenSemicolon, "Expect ';' after return value.")
	p.emitOp(chunk.OpReturn)
}

func (p *Parser) ifStatement() {
	p.consume(lexer.TokenLeftParen, "Expect '(' after 'if'.")
	p.expression()
	p.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	thenJump := p.emitJump(chunk.OpJumpIfFalse)
	p.emitOp(chunk.OpPop)
	p.statement()

	elseJump := p.emitJump(chunk.OpJump)
	p.patchJump(thenJump)
	p.emitOp(chunk.OpPop)

	if p.match(lexer.TokenElse) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.chunk().Code)
	p.consume(lexer.TokenLeftParen, "Expect '(' after 'while'.")
	p.expression()
	p.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	exitJump := p.emitJump(chunk.OpJumpIfFalse)
	p.emitOp(chunk.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(chunk.OpPop)
}

// forStatement desugars the three-clause C-style for loop into the
// while-loop bytecode shape clox uses: init; then a condition-guarded
// loop with the increment spliced in right before the jump back.
func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(lexer.TokenLeftParen, "Expect '(' after 'for'.")

	switch {
	case p.match(lexer.TokenSemicolon):
	case p.match(lexer.TokenVar):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.chunk().Code)
	exitJump := -1
	if !p.match(lexer.TokenSemicolon) {
		p.expression()
		p.consume(lexer.TokenSemicolon, "Expect ';' after loop condition.")
		exitJump = p.emitJump(chunk.OpJumpIfFalse)
		p.emitOp(chunk.OpPop)
	}

	if !p.match(lexer.TokenRightParen) {
		bodyJump := p.emitJump(chunk.OpJump)
		incrementStart := len(p.chunk().Code)
		p.expression()
		p.emitOp(chunk.OpPop)
		p.consume(lexer.TokenRightParen, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(chunk.OpPop)
	}
	p.endScope()
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(lexer.TokenEqual) {
		p.expression()
	} else {
		p.emitOp(chunk.OpNil)
	}
	p.consume(lexer.TokenSemicolon, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

// parseVariable consumes the name token and, for a local, declares it
// immediately (uninitialized); for a global it returns the constant
// index defineVariable will need. The return value is meaningless for
// locals (defineVariable ignores it in that case).
func (p *Parser) parseVariable(errMsg string) byte {
	p.consume(lexer.TokenIdentifier, errMsg)
	name := p.previous.Lexeme
	p.declareVariable(name)
	if p.current.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(name)
}

func (p *Parser) defineVariable(global byte) {
	if p.current.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitBytes(chunk.OpDefineGlobal, global)
}

// importDeclaration compiles the two import forms spec.md §4.9
// supports: `import "path";` pulls every export into scope (OP_IMPORT);
// `import name from "path";` pulls a single named export
// (OP_IMPORT_FROM).
func (p *Parser) importDeclaration() {
	if p.check(lexer.TokenIdentifier) {
		p.advance()
		name := p.previous.Lexeme
		p.consume(lexer.TokenFrom, "Expect 'from' after imported name.")
		p.consume(lexer.TokenString, "Expect module path string.")
		raw := p.previous.Lexeme
		path := raw[1 : len(raw)-1]
		p.consume(lexer.TokenSemicolon, "Expect ';' after import.")
		p.emitBytes(chunk.OpImportFrom, p.identifierConstant(path))
		p.emit(p.identifierConstant(name))
		return
	}

	p.consume(lexer.TokenString, "Expect module path string.")
	raw := p.previous.Lexeme
	path := raw[1 : len(raw)-1]
	p.consume(lexer.TokenSemicolon, "Expect ';' after module path.")
	p.emitBytes(chunk.OpImport, p.identifierConstant(path))
}

func (p *Parser) exportDeclaration() {
	p.consume(lexer.TokenIdentifier, "Expect identifier after 'export'.")
	name := p.previous.Lexeme
	p.consume(lexer.TokenSemicolon, "Expect ';' after export.")
	p.emitBytes(chunk.OpExport, p.identifierConstant(name))
}

// funDeclaration parses `fun name(params) { body }` (or `fn`, its
// alias), compiling the body as a nested function and leaving a
// closure-producing value bound to name in the enclosing scope.
func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	name := p.previous.Lexeme
	p.markInitialized()
	p.function(typeFunction, name)
	p.defineVariable(global)
}

// function compiles a parameter list and body into a brand-new
// funcState, then emits OP_CLOSURE (with its trailing
// isLocal/index pairs) into the *enclosing* function's chunk once the
// nested one is done.
func (p *Parser) function(fnType functionType, name string) {
	fn := p.vm.NewFunction()
	if name != "" {
		fn.Name = p.vm.Intern(name)
	}
	p.current = newFuncState(p.current, fn, fnType)
	p.beginScope()

	p.consume(lexer.TokenLeftParen, "Expect '(' after function name.")
	p.compileParamList()
	p.consume(lexer.TokenRightParen, "Expect ')' after parameters.")

	if p.match(lexer.TokenArrow) {
		p.expression()
		// Only a named declaration ends its arrow body with ';'; an
		// anonymous fn literal is an expression inside a larger one.
		if name != "" {
			p.consume(lexer.TokenSemicolon, "Expect ';' after expression body.")
		}
		p.emitOp(chunk.OpReturn)
	} else {
		p.consume(lexer.TokenLeftBrace, "Expect '{' before function body.")
		p.block()
	}

	compiled := p.endFunction()
	p.emitClosure(compiled)
}

// functionExpr compiles an anonymous function literal used as an
// expression: `fn(params) -> expr` or `fn(params) { body }`.
func (p *Parser) functionExpr(canAssign bool) {
	p.function(typeFunction, "")
}

func (p *Parser) compileParamList() {
	fn := p.current.function
	if !p.check(lexer.TokenRightParen) {
		for {
			fn.Arity++
			if fn.Arity > 255 {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := p.parseVariable("Expect parameter name.")
			p.defineVariable(constant)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
}

// emitClosure emits OP_CLOSURE for a function just finished compiling,
// followed by one {isLocal, index} byte pair per upvalue it captures,
// into the function that was being compiled *before* it (now current
// again, since endFunction already popped back).
func (p *Parser) emitClosure(fn *object.Function) {
	idx := p.vm.AddConstant(p.chunk(), value.FromObj(fn))
	if idx > 255 {
		p.error("Too many constants in one chunk.")
	}
	p.emitBytes(chunk.OpClosure, byte(idx))
	for _, uv := range fn.Upvalues {
		if uv.IsLocal {
			p.emit(1)
		} else {
			p.emit(0)
		}
		p.emit(uv.Index)
	}
}
