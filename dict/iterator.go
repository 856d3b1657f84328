package dict

import (
	"reflect"
	"sync/atomic"
)

// Iterator walks every live entry of a Dict, visiting ht[0] then, if a
// rehash is in progress, ht[1]; bucket order is ascending index and entries
// within a bucket are visited in chain order.
//
// A safe iterator (GetIterator(true)) pins the dictionary against
// opportunistic rehashing for its lifetime, so Add/Delete/Replace may be
// called while it is live. An unsafe iterator (GetIterator(false)) does not
// pin anything — only Next may be called while it lives — and instead
// records a structural fingerprint on its first Next call, checked again at
// Release to detect illegal mutation. An unsafe iterator released without
// any Next call performs no fingerprint check.
type Iterator struct {
	d     *Dict
	table int
	index int64 // -1 before the first Next call

	entry, nextEntry *Entry

	safe        bool
	started     bool
	fingerprint uint64
	released    bool
}

// GetIterator returns a new Iterator over d. If safe is true the iterator
// pins d against incremental rehashing from its first Next call until
// Release.
func GetIterator(d *Dict, safe bool) *Iterator {
	return &Iterator{d: d, index: -1, safe: safe}
}

// Next advances the iterator and returns the next entry, or (nil, false)
// when exhausted. The successor is cached before returning so the caller
// may Unlink the yielded entry without losing the rest of its chain.
func (it *Iterator) Next() (*Entry, bool) {
	if !it.started {
		it.started = true
		if it.safe {
			atomic.AddInt64(&it.d.iterators, 1)
		} else {
			it.fingerprint = it.d.fingerprint()
		}
	}

	for {
		if it.entry == nil {
			ht := &it.d.ht[it.table]
			it.index++
			if uint64(it.index) >= ht.size {
				if it.d.IsRehashing() && it.table == 0 {
					it.table = 1
					it.index = 0
					ht = &it.d.ht[1]
					if ht.size == 0 {
						return nil, false
					}
				} else {
					return nil, false
				}
			}
			it.entry = ht.buckets[it.index]
		} else {
			it.entry = it.nextEntry
		}
		if it.entry != nil {
			it.nextEntry = it.entry.next
			return it.entry, true
		}
	}
}

// Release ends the iteration. For a safe iterator it unpins the
// dictionary. For an unsafe iterator it recomputes the structural
// fingerprint and returns ErrFingerprintMismatch if the dictionary was
// mutated since the first Next call.
func (it *Iterator) Release() error {
	if it.released {
		return nil
	}
	it.released = true
	if it.safe {
		if it.started {
			atomic.AddInt64(&it.d.iterators, -1)
		}
		return nil
	}
	if it.started && it.fingerprint != it.d.fingerprint() {
		return ErrFingerprintMismatch
	}
	return nil
}

// MustRelease calls Release and panics on ErrFingerprintMismatch, matching
// the contract that a fingerprint mismatch is a programmer error that
// should abort the process rather than be silently tolerated.
func (it *Iterator) MustRelease() {
	if err := it.Release(); err != nil {
		panic(err)
	}
}

// fingerprint mixes six structural words covering both tables'
// bucket-array identities, sizes and used counts. Any avalanching mix over
// small state works; this one is a standard 64-bit integer hash (Thomas
// Wang's 64-bit integer mix), chosen because it is cheap and
// has no dependency beyond reflect for the slice-header address.
func (d *Dict) fingerprint() uint64 {
	words := [6]uint64{
		sliceAddr(d.ht[0].buckets), d.ht[0].size, d.ht[0].used,
		sliceAddr(d.ht[1].buckets), d.ht[1].size, d.ht[1].used,
	}
	var hash uint64
	for _, w := range words {
		hash += w
		hash = ^hash + (hash << 21)
		hash ^= hash >> 24
		hash += (hash << 3) + (hash << 8)
		hash ^= hash >> 14
		hash += (hash << 2) + (hash << 4)
		hash ^= hash >> 28
		hash += hash << 31
	}
	return hash
}

func sliceAddr(s []*Entry) uint64 {
	if s == nil {
		return 0
	}
	return uint64(reflect.ValueOf(s).Pointer())
}
