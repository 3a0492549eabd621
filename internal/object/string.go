package object

// String is a heap-allocated, immutable byte string. Every String in
// a running VM is interned: the VM's string-intern table guarantees
// that two Strings with equal bytes are the same heap object, which
// lets the rest of the runtime use pointer equality as string
// equality (method tables, map keys, globals keyed by name).
type String struct {
	Header
	Chars string
	Hash  uint32
}

// FNV-1a 32-bit, exactly the constants spec.md §4.3 names: seed
// 2166136261, prime 16777619.
const (
	fnvOffsetBasis uint32 = 2166136261
	fnvPrime       uint32 = 16777619
)

// HashString computes the FNV-1a hash of s the same way for every
// caller (allocation, interning lookup) so that identical bytes always
// hash identically.
func HashString(s string) uint32 {
	h := fnvOffsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

// NewString allocates an un-interned String object. Callers almost
// always want the VM's Intern(s) instead, which deduplicates against
// the live string set; NewString exists so the intern path itself has
// something to allocate before it knows whether the string is new.
func NewString(s string) *String {
	return &String{
		Header: NewHeader(TypeString),
		Chars:  s,
		Hash:   HashString(s),
	}
}
