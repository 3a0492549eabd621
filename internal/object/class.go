package object

import "github.com/kristofer/cmel/internal/table"

// Class is a named bag of methods. Inheritance is flattened at
// OP_INHERIT time: the subclass's method table is seeded with a copy
// of every entry from the superclass, so there is no method-resolution
// chain to walk at call time -- a single table lookup always suffices.
type Class struct {
	Header
	Name    *String
	Methods *table.Table
}

func NewClass(name *String) *Class {
	return &Class{Header: NewHeader(TypeClass), Name: name, Methods: table.New()}
}

// Instance is an object created from a Class: a fields table seeded
// lazily (fields spring into existence on first SET_PROPERTY, there is
// no fixed field list) plus a back-pointer to the Class for method
// lookup.
type Instance struct {
	Header
	Class  *Class
	Fields *table.Table
}

func NewInstance(class *Class) *Instance {
	return &Instance{Header: NewHeader(TypeInstance), Class: class, Fields: table.New()}
}
