package dict

import "math/rand"

// GetRandomKey returns an arbitrary live entry, or (nil, false) if the
// dictionary is empty. A bucket is chosen uniformly at random and its
// chain head returned; this is biased against entries that sit in longer
// chains, since every chain contributes exactly one candidate (its head)
// regardless of length. Use GetFairRandomKey to also reach entries past
// the chain head.
func (d *Dict) GetRandomKey() (*Entry, bool) {
	if d.Size() == 0 {
		return nil, false
	}
	d.rehashStepIfAllowed()

	if d.IsRehashing() {
		for {
			span := d.ht[0].size + d.ht[1].size - uint64(d.rehashIdx)
			h := uint64(d.rehashIdx) + uint64(rand.Int63())%span
			var e *Entry
			if h >= d.ht[0].size {
				e = d.ht[1].buckets[h-d.ht[0].size]
			} else {
				e = d.ht[0].buckets[h]
			}
			if e != nil {
				return e, true
			}
		}
	}
	for {
		h := uint64(rand.Int63()) & d.ht[0].mask
		if e := d.ht[0].buckets[h]; e != nil {
			return e, true
		}
	}
}

// GetFairRandomKey returns a random live entry: a non-empty bucket is
// chosen uniformly, then a uniformly random position within that bucket's
// chain, so every entry can be returned, not only chain heads. The result
// is uniform over entries only when all non-empty chains have the same
// length; an entry in a longer chain is less likely to be picked.
func (d *Dict) GetFairRandomKey() (*Entry, bool) {
	if d.Size() == 0 {
		return nil, false
	}
	d.rehashStepIfAllowed()

	var head *Entry
	if d.IsRehashing() {
		for head == nil {
			span := d.ht[0].size + d.ht[1].size - uint64(d.rehashIdx)
			h := uint64(d.rehashIdx) + uint64(rand.Int63())%span
			if h >= d.ht[0].size {
				head = d.ht[1].buckets[h-d.ht[0].size]
			} else {
				head = d.ht[0].buckets[h]
			}
		}
	} else {
		for head == nil {
			h := uint64(rand.Int63()) & d.ht[0].mask
			head = d.ht[0].buckets[h]
		}
	}

	length := 0
	for e := head; e != nil; e = e.next {
		length++
	}
	pick := rand.Intn(length)
	e := head
	for ; pick > 0; pick-- {
		e = e.next
	}
	return e, true
}

// GetSomeKeys fills dest with up to len(dest) entries sampled
// approximately uniformly, walking a random starting bucket forward across
// both tables when a rehash is in progress so entries already migrated to
// ht[1] are as likely to be sampled as those still in ht[0]. Returns the
// number of entries written. Intended for cheap approximate sampling (e.g.
// eviction candidate selection), not exact uniform sampling.
func (d *Dict) GetSomeKeys(dest []*Entry) int {
	size := d.Size()
	if size == 0 || len(dest) == 0 {
		return 0
	}
	want := len(dest)
	if uint64(want) > size {
		want = int(size)
	}

	maxSteps := want * 10
	tables := 1
	if d.IsRehashing() {
		tables = 2
	}
	maxMask := d.ht[0].mask
	if tables == 2 && d.ht[1].mask > maxMask {
		maxMask = d.ht[1].mask
	}

	i := uint64(rand.Int63()) & maxMask
	stored := 0
	for steps := 0; stored < want && steps < maxSteps; steps++ {
		for t := 0; t < tables; t++ {
			if tables == 2 && t == 0 && i < uint64(d.rehashIdx) {
				// This ht[0] bucket has already migrated to ht[1]; skip it
				// here, it will be covered when t==1.
				continue
			}
			if i > d.ht[t].mask {
				continue
			}
			for e := d.ht[t].buckets[i&d.ht[t].mask]; e != nil; e = e.next {
				dest[stored] = e
				stored++
				if stored == want {
					return stored
				}
			}
		}
		i = (i + 1) & maxMask
	}
	return stored
}
