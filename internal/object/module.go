package object

import "github.com/kristofer/cmel/internal/table"

// Module is the isolated global scope produced by loading a source
// file at import time. Globals holds every binding visible at the
// module's own top level; Exports holds only what OP_EXPORT explicitly
// copied out, which is the only way a module's symbols become visible
// to an importer.
type Module struct {
	Header
	Name    *String
	Globals *table.Table
	Exports *table.Table
}

func NewModule(name *String) *Module {
	return &Module{
		Header:  NewHeader(TypeModule),
		Name:    name,
		Globals: table.New(),
		Exports: table.New(),
	}
}
