package dict

import "math/bits"

// EntryFunc is invoked once per visited entry during Scan.
type EntryFunc func(priv any, e *Entry)

// BucketFunc is invoked once per visited bucket, before its entries, during
// Scan. May be nil.
type BucketFunc func(priv any, bucketHead *Entry)

// Scan visits a slice of the dictionary's entries and returns the cursor
// to pass on the next call. Start with cursor 0; the scan is complete when
// Scan returns 0. Every entry present for the whole scan is visited at
// least once and at most twice (the second visit only possible across an
// intervening resize); entries inserted or removed mid-scan may or may not
// be visited. The cursor is reverse-binary incremented so that growing or
// shrinking the table between calls does not skip a range of buckets.
//
// The cursor is meaningless across a different Dict; passing one dict's
// cursor to another's Scan (or replacing the dict entirely mid-scan) loses
// the coverage guarantee.
func (d *Dict) Scan(cursor uint64, entryFn EntryFunc, bucketFn BucketFunc) uint64 {
	if d.Size() == 0 {
		return 0
	}

	if !d.IsRehashing() {
		t := &d.ht[0]
		visitBucket(d.priv, t, cursor&t.mask, entryFn, bucketFn)
		cursor |= ^t.mask
		cursor = reverseIncrement(cursor)
		return cursor
	}

	t0, t1 := &d.ht[0], &d.ht[1]
	if t0.size > t1.size {
		t0, t1 = t1, t0
	}

	visitBucket(d.priv, t0, cursor&t0.mask, entryFn, bucketFn)
	for {
		visitBucket(d.priv, t1, cursor&t1.mask, entryFn, bucketFn)
		cursor |= ^t1.mask
		cursor = reverseIncrement(cursor)
		if cursor&(t0.mask^t1.mask) == 0 {
			break
		}
	}
	return cursor
}

func visitBucket(priv any, t *table, idx uint64, entryFn EntryFunc, bucketFn BucketFunc) {
	head := t.buckets[idx]
	if bucketFn != nil {
		bucketFn(priv, head)
	}
	for e := head; e != nil; {
		next := e.next
		if entryFn != nil {
			entryFn(priv, e)
		}
		e = next
	}
}

// reverseIncrement increments v as if its bits were reversed, then reverses
// the result back — the classic trick that lets a scan cursor survive a
// table resize between calls.
func reverseIncrement(v uint64) uint64 {
	v = bits.Reverse64(v)
	v++
	return bits.Reverse64(v)
}
