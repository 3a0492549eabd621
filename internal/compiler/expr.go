package compiler

import (
	"github.com/kristofer/cmel/internal/chunk"
	"github.com/kristofer/cmel/internal/lexer"
	"github.com/kristofer/cmel/internal/value"
)

// precedence levels, lowest to highest, mirroring clox's table; "or"
// binds loosest among operators, "call"/"." binds tightest below
// primary.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * / %
	precUnary                 // ! -
	precCall                  // . () []
	precPrimary
)

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.TokenLeftParen:    {prefix: (*Parser).grouping, infix: (*Parser).call, precedence: precCall},
		lexer.TokenLeftBracket:  {prefix: (*Parser).listLiteral, infix: (*Parser).indexing, precedence: precCall},
		lexer.TokenLeftBrace:    {prefix: (*Parser).mapLiteral},
		lexer.TokenDot:          {infix: (*Parser).dot, precedence: precCall},
		lexer.TokenMinus:        {prefix: (*Parser).unary, infix: (*Parser).binary, precedence: precTerm},
		lexer.TokenPlus:         {infix: (*Parser).binary, precedence: precTerm},
		lexer.TokenSlash:        {infix: (*Parser).binary, precedence: precFactor},
		lexer.TokenStar:         {infix: (*Parser).binary, precedence: precFactor},
		lexer.TokenPercent:      {infix: (*Parser).binary, precedence: precFactor},
		lexer.TokenBang:         {prefix: (*Parser).unary},
		lexer.TokenBangEqual:    {infix: (*Parser).binary, precedence: precEquality},
		lexer.TokenEqualEqual:   {infix: (*Parser).binary, precedence: precEquality},
		lexer.TokenGreater:      {infix: (*Parser).binary, precedence: precComparison},
		lexer.TokenGreaterEqual: {infix: (*Parser).binary, precedence: precComparison},
		lexer.TokenLess:         {infix: (*Parser).binary, precedence: precComparison},
		lexer.TokenLessEqual:    {infix: (*Parser).binary, precedence: precComparison},
		lexer.TokenIdentifier:   {prefix: (*Parser).variable},
		lexer.TokenString:       {prefix: (*Parser).stringLiteral},
		lexer.TokenNumber:       {prefix: (*Parser).number},
		lexer.TokenAnd:          {infix: (*Parser).and_, precedence: precAnd},
		lexer.TokenOr:           {infix: (*Parser).or_, precedence: precOr},
		lexer.TokenFalse:        {prefix: (*Parser).literal},
		lexer.TokenTrue:         {prefix: (*Parser).literal},
		lexer.TokenNil:          {prefix: (*Parser).literal},
		lexer.TokenThis:         {prefix: (*Parser).this_},
		lexer.TokenSuper:        {prefix: (*Parser).super_},
		lexer.TokenFun:          {prefix: (*Parser).functionExpr},
	}
}

func (p *Parser) getRule(t lexer.TokenType) parseRule { return rules[t] }

// expression parses a full expression at precAssignment, the lowest
// real precedence (everything but a bare comma list).
func (p *Parser) expression() { p.parsePrecedence(precAssignment) }

func (p *Parser) parsePrecedence(prec precedence) {
	p.advance()
	rule := p.getRule(p.previous.Type)
	if rule.prefix == nil {
		p.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(p, canAssign)

	for prec <= p.getRule(p.curTok.Type).precedence {
		p.advance()
		infix := p.getRule(p.previous.Type).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(lexer.TokenEqual) {
		p.error("Invalid assignment target.")
	}
}

func (p *Parser) number(canAssign bool) { p.emitConstant(numberValue(p.previous.Lexeme)) }

func (p *Parser) literal(canAssign bool) {
	switch p.previous.Type {
	case lexer.TokenFalse:
		p.emitOp(chunk.OpFalse)
	case lexer.TokenTrue:
		p.emitOp(chunk.OpTrue)
	case lexer.TokenNil:
		p.emitOp(chunk.OpNil)
	}
}

// stringLiteral strips the surrounding quotes the lexer leaves in
// place and interns the result, per spec.md §4.3 (pointer equality for
// content equality).
func (p *Parser) stringLiteral(canAssign bool) {
	raw := p.previous.Lexeme
	s := raw[1 : len(raw)-1]
	p.emitConstant(value.FromObj(p.vm.Intern(s)))
}

func (p *Parser) grouping(canAssign bool) {
	p.expression()
	p.consume(lexer.TokenRightParen, "Expect ')' after expression.")
}

func (p *Parser) unary(canAssign bool) {
	opType := p.previous.Type
	p.parsePrecedence(precUnary)
	switch opType {
	case lexer.TokenMinus:
		p.emitOp(chunk.OpNegate)
	case lexer.TokenBang:
		p.emitOp(chunk.OpNot)
	}
}

func (p *Parser) binary(canAssign bool) {
	opType := p.previous.Type
	rule := p.getRule(opType)
	p.parsePrecedence(rule.precedence + 1)

	switch opType {
	case lexer.TokenBangEqual:
		p.emitOp(chunk.OpEqual)
		p.emitOp(chunk.OpNot)
	case lexer.TokenEqualEqual:
		p.emitOp(chunk.OpEqual)
	case lexer.TokenGreater:
		p.emitOp(chunk.OpGreater)
	case lexer.TokenGreaterEqual:
		p.emitOp(chunk.OpLess)
		p.emitOp(chunk.OpNot)
	case lexer.TokenLess:
		p.emitOp(chunk.OpLess)
	case lexer.TokenLessEqual:
		p.emitOp(chunk.OpGreater)
		p.emitOp(chunk.OpNot)
	case lexer.TokenPlus:
		p.emitOp(chunk.OpAdd)
	case lexer.TokenMinus:
		p.emitOp(chunk.OpSubtract)
	case lexer.TokenStar:
		p.emitOp(chunk.OpMultiply)
	case lexer.TokenSlash:
		p.emitOp(chunk.OpDivide)
	case lexer.TokenPercent:
		p.emitOp(chunk.OpModulo)
	}
}

func (p *Parser) and_(canAssign bool) {
	endJump := p.emitJump(chunk.OpJumpIfFalse)
	p.emitOp(chunk.OpPop)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *Parser) or_(canAssign bool) {
	elseJump := p.emitJump(chunk.OpJumpIfFalse)
	endJump := p.emitJump(chunk.OpJump)
	p.patchJump(elseJump)
	p.emitOp(chunk.OpPop)
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func (p *Parser) argumentList() byte {
	count := 0
	if !p.check(lexer.TokenRightParen) {
		for {
			p.expression()
			if count == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			count++
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRightParen, "Expect ')' after arguments.")
	return byte(count)
}

func (p *Parser) call(canAssign bool) {
	argCount := p.argumentList()
	p.emitBytes(chunk.OpCall, argCount)
}

// dot handles both plain property access/assignment and, when the
// property read is immediately called, fuses it into OP_INVOKE so the
// common "receiver.method(args)" pattern never materializes a bound
// method object (spec.md §4.7).
func (p *Parser) dot(canAssign bool) {
	p.consume(lexer.TokenIdentifier, "Expect property name after '.'.")
	name := p.identifierConstant(p.previous.Lexeme)

	if canAssign && p.match(lexer.TokenEqual) {
		p.expression()
		p.emitBytes(chunk.OpSetProperty, name)
		return
	}
	if p.match(lexer.TokenLeftParen) {
		argCount := p.argumentList()
		p.emitBytes(chunk.OpInvoke, name)
		p.emit(argCount)
		return
	}
	p.emitBytes(chunk.OpGetProperty, name)
}

// indexing compiles `[` ... `]` following a primary, either as a read
// (OP_INDEX) or, if followed by `=`, a store (OP_STORE).
func (p *Parser) indexing(canAssign bool) {
	p.expression()
	p.consume(lexer.TokenRightBracket, "Expect ']' after index.")
	if canAssign && p.match(lexer.TokenEqual) {
		p.expression()
		p.emitOp(chunk.OpStore)
		return
	}
	p.emitOp(chunk.OpIndex)
}

func (p *Parser) listLiteral(canAssign bool) {
	count := 0
	if !p.check(lexer.TokenRightBracket) {
		for {
			if p.check(lexer.TokenRightBracket) {
				break
			}
			p.expression()
			count++
			if count > 255 {
				p.error("Can't have more than 255 elements in a list literal.")
			}
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRightBracket, "Expect ']' after list elements.")
	p.emitBytes(chunk.OpBuildList, byte(count))
}

// mapLiteral compiles `{ "key": value, ... }`. Keys must be string
// literals; this is a compile-time restriction, not just a runtime one
// (OP_BUILD_MAP also checks each key and reports a non-string key as a
// runtime error).
func (p *Parser) mapLiteral(canAssign bool) {
	count := 0
	if !p.check(lexer.TokenRightBrace) {
		for {
			if p.check(lexer.TokenRightBrace) {
				break
			}
			if !p.check(lexer.TokenString) {
				p.error("Map keys must be string literals.")
				return
			}
			p.advance()
			p.stringLiteral(false)
			p.consume(lexer.TokenColon, "Expect ':' after map key.")
			p.expression()
			count++
			if count > 255 {
				p.error("Can't have more than 255 entries in a map literal.")
			}
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRightBrace, "Expect '}' after map entries.")
	p.emitBytes(chunk.OpBuildMap, byte(count))
}

func (p *Parser) this_(canAssign bool) {
	if p.class == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	p.variableNamed(thisName, false)
}

// super_ handles `super.method` (bound, not called) and
// `super.method(args)` (fused OP_SUPER_INVOKE).
func (p *Parser) super_(canAssign bool) {
	if p.class == nil {
		p.error("Can't use 'super' outside of a class.")
	} else if !p.class.hasSuperclass {
		p.error("Can't use 'super' in a class with no superclass.")
	}
	p.consume(lexer.TokenDot, "Expect '.' after 'super'.")
	p.consume(lexer.TokenIdentifier, "Expect superclass method name.")
	name := p.identifierConstant(p.previous.Lexeme)

	p.variableNamed(thisName, false)
	if p.match(lexer.TokenLeftParen) {
		argCount := p.argumentList()
		p.variableNamed(superName, false)
		p.emitBytes(chunk.OpSuperInvoke, name)
		p.emit(argCount)
		return
	}
	p.variableNamed(superName, false)
	p.emitBytes(chunk.OpGetSuper, name)
}

const superName = "super"

func (p *Parser) variable(canAssign bool) { p.variableNamed(p.previous.Lexeme, canAssign) }

// variableNamed resolves name to a local/upvalue/global and emits the
// matching GET or, if canAssign and an '=' follows, SET opcode.
func (p *Parser) variableNamed(name string, canAssign bool) {
	var getOp, setOp chunk.OpCode
	var arg int

	if slot := resolveLocal(p.current, name); slot >= 0 {
		getOp, setOp, arg = chunk.OpGetLocal, chunk.OpSetLocal, slot
	} else if slot == -2 {
		p.error("Can't read local variable in its own initializer.")
		return
	} else if up := resolveUpvalue(p.current, name); up >= 0 {
		getOp, setOp, arg = chunk.OpGetUpvalue, chunk.OpSetUpvalue, up
	} else {
		getOp, setOp, arg = chunk.OpGetGlobal, chunk.OpSetGlobal, int(p.identifierConstant(name))
	}

	if canAssign && p.match(lexer.TokenEqual) {
		p.expression()
		p.emitBytes(setOp, byte(arg))
		return
	}
	p.emitBytes(getOp, byte(arg))
}
