// Package table implements the open-addressed hash table used
// throughout the cmel VM: globals, method tables, instance fields, map
// entries, and the string-intern set all share this implementation.
//
// Keys are always interned *object.String pointers, so lookup is
// pointer-hash plus pointer-equality -- the one exception is
// FindString, used only during interning itself, which must probe by
// raw byte content since the whole point of that call is to find out
// whether an equal string already exists.
package table

import "github.com/kristofer/cmel/internal/object"

const maxLoadFactor = 0.75

type entry struct {
	key   *object.String // nil means empty; tombstone marked separately
	value interface{}
	used  bool // false + key==nil => never used; true + key==nil => tombstone
}

// Table is an open-addressed hash table with linear probing.
// Values are stored as interface{} so the same implementation serves
// value.Value entries (globals, fields, map values) and *object.String
// style sets (the intern set stores a sentinel value).
type Table struct {
	count   int // live entries, not counting tombstones
	entries []entry
}

func New() *Table {
	return &Table{}
}

// Count reports the number of live (non-tombstone) entries.
func (t *Table) Count() int { return t.count }

// Set inserts or overwrites key -> value. It returns true iff key was
// not already present (i.e. this call grew the table's live key set).
func (t *Table) Set(key *object.String, val interface{}) bool {
	if len(t.entries) == 0 || float64(t.count+1) > float64(len(t.entries))*maxLoadFactor {
		t.grow()
	}
	e := t.findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew {
		t.count++
	}
	e.key = key
	e.value = val
	e.used = true
	return isNew
}

// Get looks up key, returning its value and whether it was found.
func (t *Table) Get(key *object.String) (interface{}, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return nil, false
	}
	return e.value, true
}

// Has reports whether key is present without returning its value.
func (t *Table) Has(key *object.String) bool {
	_, ok := t.Get(key)
	return ok
}

// Delete removes key, leaving a tombstone so later probes for other
// keys that hashed into the same bucket chain still terminate
// correctly.
func (t *Table) Delete(key *object.String) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = nil
	e.used = true // tombstone: used but key==nil
	t.count--
	return true
}

// AddAll shallow-copies every entry of src into dst, overwriting
// existing keys. Used to copy a loaded module's top-level globals into
// its Module, and to copy a module's exports into the importer's
// globals (OP_IMPORT).
func AddAll(src, dst *Table) {
	for _, e := range src.entries {
		if e.key != nil {
			dst.Set(e.key, e.value)
		}
	}
}

// Keys returns every live key, in bucket order (not insertion order).
func (t *Table) Keys() []*object.String {
	keys := make([]*object.String, 0, t.count)
	for _, e := range t.entries {
		if e.key != nil {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// FindString probes the table by raw byte content, hash, and length
// rather than by pointer. This is the single operation the string
// interner needs: "does a live String with these exact bytes already
// exist?" Everything else in the table probes by pointer.
func (t *Table) FindString(chars string, hash uint32) *object.String {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if !e.used {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) findEntry(entries []entry, key *object.String) *entry {
	mask := uint32(len(entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &entries[idx]
		if e.key == nil {
			if !e.used {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) grow() {
	newCap := 8
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	newEntries := make([]entry, newCap)
	t.count = 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		dst := t.findEntry(newEntries, e.key)
		dst.key = e.key
		dst.value = e.value
		dst.used = true
		t.count++
	}
	t.entries = newEntries
}

// Each invokes fn for every live entry, passing its key string and its
// stored value. The vm package uses this to blacken a table's contents
// during mark.
func (t *Table) Each(fn func(key *object.String, val interface{})) {
	for _, e := range t.entries {
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}
