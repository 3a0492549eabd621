package compiler

import (
	"github.com/kristofer/cmel/internal/chunk"
	"github.com/kristofer/cmel/internal/object"
)

func (p *Parser) beginScope() { p.current.scopeDepth++ }

// endScope pops every local declared in the scope just closed,
// emitting OP_CLOSE_UPVALUE instead of OP_POP for any local that an
// inner closure captured (spec.md §4.6), so the upvalue is promoted to
// its own heap cell before the stack slot goes away.
func (p *Parser) endScope() {
	p.current.scopeDepth--
	locals := p.current.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.current.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emitOp(chunk.OpCloseUpvalue)
		} else {
			p.emitOp(chunk.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	p.current.locals = locals
}

func (p *Parser) addLocal(name string) {
	if len(p.current.locals) >= 256 {
		p.error("Too many local variables in function.")
		return
	}
	p.current.locals = append(p.current.locals, local{name: name, depth: -1})
}

// declareVariable registers the variable named by p.previous as a
// local if we're inside a scope (globals need no declaration step:
// they're resolved by name at runtime). Shadowing a name already
// declared in the *same* scope is an error.
func (p *Parser) declareVariable(name string) {
	if p.current.scopeDepth == 0 {
		return
	}
	for i := len(p.current.locals) - 1; i >= 0; i-- {
		l := p.current.locals[i]
		if l.depth != -1 && l.depth < p.current.scopeDepth {
			break
		}
		if l.name == name {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *Parser) markInitialized() {
	if p.current.scopeDepth == 0 {
		return
	}
	p.current.locals[len(p.current.locals)-1].depth = p.current.scopeDepth
}

// resolveLocal returns the stack slot of name in fs, -1 if it is not a
// local of this function (global or upvalue instead), or -2 if it is a
// local whose own initializer is still being compiled.
func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				return -2 // used as a "being read in its own initializer" sentinel by caller
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue walks outward through enclosing function states
// looking for name as a local (capturing it) or as an upvalue of an
// ancestor (chaining through), per clox's upvalue-resolution
// algorithm, deduplicating repeated captures of the same source.
func resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if slot := resolveLocal(fs.enclosing, name); slot >= 0 {
		fs.enclosing.locals[slot].isCaptured = true
		return addUpvalue(fs, uint8(slot), true)
	}
	if up := resolveUpvalue(fs.enclosing, name); up >= 0 {
		return addUpvalue(fs, uint8(up), false)
	}
	return -1
}

func addUpvalue(fs *funcState, index uint8, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, object.UpvalueDesc{IsLocal: isLocal, Index: index})
	return len(fs.upvalues) - 1
}
