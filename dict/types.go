// Package dict implements an in-memory associative map with incremental
// rehashing between two backing tables and both safe and unsafe iteration,
// following the design of a classic two-table open-chained hash table:
// growth and shrinkage migrate one bucket at a time, interleaved with
// ordinary operations, so no single call pays for a full-table rehash.
package dict

// Type supplies the polymorphic behavior a Dict needs for its opaque keys
// and values: hashing, optional duplication on insert, optional comparison,
// and optional destruction on removal. A nil optional field degrades to
// identity semantics — no copy, pointer/value equality via ==, no cleanup —
// exactly as documented for the external map-type vtable.
type Type struct {
	// Hash computes the 64-bit hash of a key. Required.
	Hash func(key any) uint64

	// KeyDup copies a key on insert. If nil, the key is stored verbatim.
	KeyDup func(priv any, key any) any

	// ValDup copies a value on insert/replace. If nil, the value is stored
	// verbatim.
	ValDup func(priv any, val any) any

	// KeyCompare reports whether a and b are the same key. If nil, keys are
	// compared with ==.
	KeyCompare func(priv any, a, b any) bool

	// KeyDestructor releases a key on removal. If nil, no-op.
	KeyDestructor func(priv any, key any)

	// ValDestructor releases a value on removal or replacement. If nil,
	// no-op.
	ValDestructor func(priv any, val any)
}

// Entry is one key/value node in a bucket chain.
type Entry struct {
	key  any
	val  any
	next *Entry
}

// Key returns the entry's key.
func (e *Entry) Key() any { return e.key }

// Val returns the entry's value as stored.
func (e *Entry) Val() any { return e.val }

// SetVal overwrites the entry's value directly, bypassing Type.ValDup.
// Available to callers of AddRaw that want to install a value themselves.
func (e *Entry) SetVal(v any) { e.val = v }

// Int64 returns the value asserted as an int64, matching the header's
// dictGetSignedIntegerVal accessor for callers that store integers in the
// value slot instead of a pointer.
func (e *Entry) Int64() int64 { return e.val.(int64) }

// SetInt64 stores a signed integer value, matching dictSetSignedIntegerVal.
func (e *Entry) SetInt64(v int64) { e.val = v }

// Uint64 returns the value asserted as a uint64, matching
// dictGetUnsignedIntegerVal.
func (e *Entry) Uint64() uint64 { return e.val.(uint64) }

// SetUint64 stores an unsigned integer value, matching
// dictSetUnsignedIntegerVal.
func (e *Entry) SetUint64(v uint64) { e.val = v }

// Float64 returns the value asserted as a float64, matching
// dictGetDoubleVal.
func (e *Entry) Float64() float64 { return e.val.(float64) }

// SetFloat64 stores a double value, matching dictSetDoubleVal.
func (e *Entry) SetFloat64(v float64) { e.val = v }
