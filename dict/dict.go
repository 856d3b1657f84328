package dict

import (
	"sync/atomic"
	"time"

	"github.com/vireldb/core/internal/telemetry"
	"github.com/vireldb/core/pool"
)

// Dict is an in-memory map keyed by opaque values, supporting incremental
// rehashing between two backing tables. ht[1] is empty unless a rehash is
// in progress. The zero value is not usable; construct with New.
type Dict struct {
	typ  *Type
	priv any

	ht        [2]table
	rehashIdx int64 // -1 when not rehashing, else next ht[0] bucket to migrate
	iterators int64 // live safe-iterator count; >0 disables opportunistic rehash

	resizeEnabled      bool
	highWatermarkRatio uint64

	entryPool *pool.SyncPool[*Entry]
	log       *telemetry.Logger
}

// Option configures a Dict at construction.
type Option func(*Dict)

// WithResizeEnabled toggles opportunistic growth triggered by the
// used>=size watermark. Growth past HighWatermarkRatio*size happens
// unconditionally either way. Defaults to true.
func WithResizeEnabled(enabled bool) Option {
	return func(d *Dict) { d.resizeEnabled = enabled }
}

// WithHighWatermarkRatio sets the used/size ratio above which growth is
// forced regardless of WithResizeEnabled. Defaults to 5.
func WithHighWatermarkRatio(ratio uint64) Option {
	return func(d *Dict) { d.highWatermarkRatio = ratio }
}

// WithLogger attaches structured logging for rehash lifecycle events.
func WithLogger(log *telemetry.Logger) Option {
	return func(d *Dict) { d.log = log }
}

// New creates an empty Dict. ht[0]'s buckets are allocated lazily on first
// insert, at dictInitialSize.
func New(typ *Type, priv any, opts ...Option) *Dict {
	d := &Dict{
		typ:                typ,
		priv:               priv,
		rehashIdx:          -1,
		resizeEnabled:      true,
		highWatermarkRatio: 5,
		entryPool:          pool.NewSyncPool(func() *Entry { return &Entry{} }),
		log:                telemetry.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsRehashing reports whether a rehash is currently in progress.
func (d *Dict) IsRehashing() bool { return d.rehashIdx != -1 }

// EntryPoolStats returns lifetime Get/Put/allocation counts for this
// dictionary's entry pool, for wiring into a telemetry probe registry.
func (d *Dict) EntryPoolStats() pool.Stats { return d.entryPool.Stats() }

// Size returns the total number of live entries across both tables.
func (d *Dict) Size() uint64 { return d.ht[0].used + d.ht[1].used }

// Slots returns the total bucket capacity across both tables.
func (d *Dict) Slots() uint64 { return d.ht[0].size + d.ht[1].size }

func (d *Dict) compareKeys(a, b any) bool {
	if d.typ.KeyCompare != nil {
		return d.typ.KeyCompare(d.priv, a, b)
	}
	return a == b
}

func (d *Dict) hash(key any) uint64 { return d.typ.Hash(key) }

func (d *Dict) newEntry() *Entry {
	e := d.entryPool.Get()
	e.key, e.val, e.next = nil, nil, nil
	return e
}

func (d *Dict) freeEntry(e *Entry) {
	if d.typ.KeyDestructor != nil {
		d.typ.KeyDestructor(d.priv, e.key)
	}
	if d.typ.ValDestructor != nil {
		d.typ.ValDestructor(d.priv, e.val)
	}
	e.key, e.val, e.next = nil, nil, nil
	d.entryPool.Put(e)
}

// rehashStepIfAllowed performs a single-bucket rehash step before a
// mutating or lookup operation, provided no safe iterator is live. This is
// the "incremental rehash hook" every Add/Delete/Find call makes.
func (d *Dict) rehashStepIfAllowed() {
	if d.IsRehashing() && atomic.LoadInt64(&d.iterators) == 0 {
		d.rehash(1)
	}
}

// expandIfNeeded grows the table when the load factor crosses the
// configured thresholds. A no-op while a rehash is already in progress.
func (d *Dict) expandIfNeeded() error {
	if d.IsRehashing() {
		return nil
	}
	if d.ht[0].size == 0 {
		return d.expand(dictInitialSize)
	}
	overWatermark := d.ht[0].used >= d.highWatermarkRatio*d.ht[0].size
	overCapacity := d.ht[0].used >= d.ht[0].size && d.resizeEnabled
	if overCapacity || overWatermark {
		return d.expand(d.ht[0].used + 1)
	}
	return nil
}

// expand allocates a new table sized to the next power of two >= size and
// either installs it directly (first allocation) or starts an incremental
// rehash into it.
func (d *Dict) expand(size uint64) error {
	if d.IsRehashing() {
		return ErrAlreadyRehashing
	}
	if size < d.ht[0].used {
		return ErrSizeTooSmall
	}
	realSize := nextPower(size)
	if d.ht[0].buckets == nil {
		d.ht[0] = newTable(realSize)
		return nil
	}
	if realSize == d.ht[0].size {
		return ErrSameSize
	}
	d.ht[1] = newTable(realSize)
	d.rehashIdx = 0
	d.log.Debugw("dict: rehash started", "from_size", d.ht[0].size, "to_size", realSize)
	return nil
}

// Expand grows the table to hold at least size entries without waiting for
// the opportunistic watermark. Fails while a rehash is already running or
// if size is smaller than the current used count.
func (d *Dict) Expand(size uint64) error {
	return d.expand(size)
}

// Resize shrinks (or grows) the table to a load factor of 1, targeting the
// current used count. Fails if ResizeEnabled is false or a rehash is
// already in progress.
func (d *Dict) Resize() error {
	if !d.resizeEnabled {
		return ErrResizeDisabled
	}
	minimal := d.ht[0].used
	if minimal < dictInitialSize {
		minimal = dictInitialSize
	}
	return d.expand(minimal)
}

// rehash migrates up to n non-empty buckets from ht[0] into ht[1], skipping
// empty buckets up to an auxiliary cap of 10*n visits so a sparse table
// cannot stall the caller indefinitely. Returns true if more work remains.
func (d *Dict) rehash(n int) bool {
	emptyVisits := n * 10
	for ; n > 0 && d.ht[0].used != 0; n-- {
		for d.ht[0].buckets[d.rehashIdx] == nil {
			d.rehashIdx++
			emptyVisits--
			if emptyVisits == 0 {
				return true
			}
		}
		entry := d.ht[0].buckets[d.rehashIdx]
		for entry != nil {
			next := entry.next
			idx := d.hash(entry.key) & d.ht[1].mask
			entry.next = d.ht[1].buckets[idx]
			d.ht[1].buckets[idx] = entry
			d.ht[0].used--
			d.ht[1].used++
			entry = next
		}
		d.ht[0].buckets[d.rehashIdx] = nil
		d.rehashIdx++
	}
	if d.ht[0].used == 0 {
		d.ht[0] = d.ht[1]
		d.ht[1] = table{}
		d.rehashIdx = -1
		d.log.Debugw("dict: rehash complete", "size", d.ht[0].size)
		return false
	}
	return true
}

// RehashN advances rehashing by up to n buckets, or is a no-op if no
// rehash is in progress. Returns true if more work remains. Exposed for
// callers that want to drive rehashing explicitly (e.g. a reactor timer)
// rather than relying on the per-operation single-step hook.
func (d *Dict) RehashN(n int) bool {
	if !d.IsRehashing() {
		return false
	}
	return d.rehash(n)
}

// RehashForDuration drives rehashing in steps of 100 buckets until either
// the rehash completes or budget elapses, whichever comes first. Returns
// true if more work remains when it returns. A no-op, returning false, if
// no rehash is in progress.
func (d *Dict) RehashForDuration(budget time.Duration) bool {
	if !d.IsRehashing() {
		return false
	}
	deadline := time.Now().Add(budget)
	for d.rehash(100) {
		if !time.Now().Before(deadline) {
			return true
		}
	}
	return false
}

// keyIndex locates the bucket index a key belongs in (the target table's
// index if rehashing) or, if the key is already present, returns (0,
// existing entry).
func (d *Dict) keyIndex(key any, hash uint64) (idx uint64, existing *Entry) {
	if err := d.expandIfNeeded(); err != nil && err != ErrSameSize {
		d.log.Debugw("dict: expand skipped", "err", err.Error())
	}
	for t := 0; t <= 1; t++ {
		if d.ht[t].buckets == nil {
			continue
		}
		i := hash & d.ht[t].mask
		for e := d.ht[t].buckets[i]; e != nil; e = e.next {
			if d.compareKeys(key, e.key) {
				return 0, e
			}
		}
		idx = i
		if !d.IsRehashing() {
			break
		}
	}
	return idx, nil
}

// AddRaw inserts key with no value set and returns the new entry, or
// returns (nil, existing) if the key is already present. Callers install
// the value via one of Entry's setters.
func (d *Dict) AddRaw(key any) (entry *Entry, existing *Entry) {
	d.rehashStepIfAllowed()

	hash := d.hash(key)
	idx, existing := d.keyIndex(key, hash)
	if existing != nil {
		return nil, existing
	}

	ht := &d.ht[0]
	if d.IsRehashing() {
		ht = &d.ht[1]
	}
	e := d.newEntry()
	e.next = ht.buckets[idx]
	ht.buckets[idx] = e
	ht.used++

	if d.typ.KeyDup != nil {
		e.key = d.typ.KeyDup(d.priv, key)
	} else {
		e.key = key
	}
	return e, nil
}

// Add inserts key/val, returning ErrKeyExists if key is already present.
func (d *Dict) Add(key, val any) error {
	entry, existing := d.AddRaw(key)
	if existing != nil {
		return ErrKeyExists
	}
	d.setEntryVal(entry, val)
	return nil
}

// Replace inserts key/val if absent, or updates the existing entry's value
// in place. The old value is destroyed only after the new one is
// installed, so self-referential updates (a ValDestructor that inspects
// other entries) observe a consistent dictionary. Returns true if a new
// entry was inserted.
func (d *Dict) Replace(key, val any) bool {
	entry, existing := d.AddRaw(key)
	if existing == nil {
		d.setEntryVal(entry, val)
		return true
	}
	oldVal := existing.val
	d.setEntryVal(existing, val)
	if d.typ.ValDestructor != nil {
		d.typ.ValDestructor(d.priv, oldVal)
	}
	return false
}

func (d *Dict) setEntryVal(e *Entry, val any) {
	if d.typ.ValDup != nil {
		e.val = d.typ.ValDup(d.priv, val)
	} else {
		e.val = val
	}
}

// genericDelete implements both Delete and Unlink; if unlink is true the
// entry is detached but not destroyed/freed.
func (d *Dict) genericDelete(key any, unlink bool) (*Entry, error) {
	if d.ht[0].used == 0 && d.ht[1].used == 0 {
		return nil, ErrKeyNotFound
	}
	d.rehashStepIfAllowed()

	hash := d.hash(key)
	for t := 0; t <= 1; t++ {
		if d.ht[t].buckets == nil {
			continue
		}
		idx := hash & d.ht[t].mask
		var prev *Entry
		for e := d.ht[t].buckets[idx]; e != nil; e = e.next {
			if d.compareKeys(key, e.key) {
				if prev != nil {
					prev.next = e.next
				} else {
					d.ht[t].buckets[idx] = e.next
				}
				d.ht[t].used--
				e.next = nil
				if !unlink {
					d.freeEntry(e)
				}
				return e, nil
			}
			prev = e
		}
		if !d.IsRehashing() {
			break
		}
	}
	return nil, ErrKeyNotFound
}

// Delete removes and destroys the entry for key.
func (d *Dict) Delete(key any) error {
	_, err := d.genericDelete(key, false)
	return err
}

// Unlink detaches the entry for key from its chain without destroying it,
// letting the caller inspect it before calling FreeUnlinkedEntry.
func (d *Dict) Unlink(key any) (*Entry, error) {
	return d.genericDelete(key, true)
}

// FreeUnlinkedEntry destroys an entry previously returned by Unlink.
func (d *Dict) FreeUnlinkedEntry(e *Entry) {
	if e == nil {
		return
	}
	d.freeEntry(e)
}

// Find looks up key, returning (entry, true) or (nil, false).
func (d *Dict) Find(key any) (*Entry, bool) {
	if d.Size() == 0 {
		return nil, false
	}
	d.rehashStepIfAllowed()

	hash := d.hash(key)
	for t := 0; t <= 1; t++ {
		if d.ht[t].buckets == nil {
			continue
		}
		idx := hash & d.ht[t].mask
		for e := d.ht[t].buckets[idx]; e != nil; e = e.next {
			if d.compareKeys(key, e.key) {
				return e, true
			}
		}
		if !d.IsRehashing() {
			break
		}
	}
	return nil, false
}

// FetchValue is a convenience wrapper returning just the stored value.
func (d *Dict) FetchValue(key any) (any, bool) {
	e, ok := d.Find(key)
	if !ok {
		return nil, false
	}
	return e.val, true
}
