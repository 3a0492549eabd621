package object

import (
	"github.com/kristofer/cmel/internal/table"
	"github.com/kristofer/cmel/internal/value"
)

// List is a dynamic, order-preserving array of Values. Native methods
// (add/remove/length/map/filter/find/contains/reverse/sum, see package
// natives) are attached to the VM's synthetic List primitive class.
type List struct {
	Header
	Items []value.Value
}

func NewList(items []value.Value) *List {
	return &List{Header: NewHeader(TypeList), Items: items}
}

// Map is a hash map keyed by interned strings, backed directly by
// package table's Table (values stored as value.Value).
type Map struct {
	Header
	Entries *table.Table
}

func NewMap() *Map {
	return &Map{Header: NewHeader(TypeMap), Entries: table.New()}
}
