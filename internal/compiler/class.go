package compiler

import (
	"github.com/kristofer/cmel/internal/chunk"
	"github.com/kristofer/cmel/internal/lexer"
)

// classDeclaration compiles `class Name { ... }` or `class Name <
// Super { ... }`. Methods have no leading `fun`; an "init" method
// compiles as typeInitializer so `return;` inside it implicitly
// returns `this` (spec.md §4.7).
func (p *Parser) classDeclaration() {
	p.consume(lexer.TokenIdentifier, "Expect class name.")
	nameTok := p.previous
	nameConst := p.identifierConstant(nameTok.Lexeme)
	p.declareVariable(nameTok.Lexeme)

	p.emitBytes(chunk.OpClass, nameConst)
	p.defineVariable(nameConst)

	cs := &classState{enclosing: p.class}
	p.class = cs

	if p.match(lexer.TokenLess) {
		p.consume(lexer.TokenIdentifier, "Expect superclass name.")
		if p.previous.Lexeme == nameTok.Lexeme {
			p.error("A class can't inherit from itself.")
		}
		p.variableNamed(p.previous.Lexeme, false)

		p.beginScope()
		p.addLocal(superName)
		p.markInitialized()

		p.variableNamed(nameTok.Lexeme, false)
		p.emitOp(chunk.OpInherit)
		cs.hasSuperclass = true
	}

	p.variableNamed(nameTok.Lexeme, false)
	p.consume(lexer.TokenLeftBrace, "Expect '{' before class body.")
	for !p.check(lexer.TokenRightBrace) && !p.check(lexer.TokenEOF) {
		p.method()
	}
	p.consume(lexer.TokenRightBrace, "Expect '}' after class body.")
	p.emitOp(chunk.OpPop) // the class value pushed for OP_METHOD's benefit

	if cs.hasSuperclass {
		p.endScope()
	}
	p.class = cs.enclosing
}

func (p *Parser) method() {
	p.consume(lexer.TokenIdentifier, "Expect method name.")
	name := p.previous.Lexeme
	nameConst := p.identifierConstant(name)

	fnType := typeMethod
	if name == "init" {
		fnType = typeInitializer
	}
	p.function(fnType, name)
	p.emitBytes(chunk.OpMethod, nameConst)
}
