// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package openhash

import (
	"github.com/openhash-go/openhash/internal/bitpair"
)

const (
	defaultLoadFactor   = 0.8
	defaultGrowthFactor = 1.2
)

// core is the probe engine shared by every container variant: a key array, a
// dual-bit occupancy tracker, and linear probing over them.  For mutable
// containers the key array and tracker are heap-owned; for mapped ones they
// alias the mapping and must never be written.
type core[K comparable] struct {
	keys         []K
	flags        *bitpair.Set
	size         int
	loadFactor   float64
	growthFactor float64
	hash         Hasher[K]
}

func newCore[K comparable](hash Hasher[K]) core[K] {
	return core[K]{
		flags:        bitpair.New(0),
		loadFactor:   defaultLoadFactor,
		growthFactor: defaultGrowthFactor,
		hash:         hash,
	}
}

// find returns the occupied slot holding key.  A slot whose historical bit is
// set and whose stale key equals the probe key terminates the scan: the key
// was erased and cannot live further down the chain.
func (c *core[K]) find(key K) (slot int, ok bool) {
	n := len(c.keys)
	if n == 0 {
		return 0, false
	}
	idx := int(c.hash(key) % uint64(n))
	start := idx
	for {
		occupied, ever := c.flags.Get(int64(idx))
		if !occupied && !ever {
			return 0, false
		}
		if c.keys[idx] == key {
			if occupied {
				return idx, true
			}
			return 0, false
		}
		idx++
		if idx == n {
			idx = 0
		}
		if idx == start {
			// every slot occupied or touched; definitively absent
			return 0, false
		}
	}
}

func (c *core[K]) contains(key K) bool {
	_, ok := c.find(key)
	return ok
}

// nextCapacity computes the capacity for the next rehash.  requested > 0 is
// an explicit reserve: no-op (returns 0) when it is below the current count,
// otherwise at least requested/loadFactor.  Either way the table grows by at
// least one slot; capacity never shrinks.
func (c *core[K]) nextCapacity(requested int) int {
	cur := len(c.keys)
	base := cur
	if base < 1 {
		base = 1
	}
	grown := int(float64(base) * c.growthFactor)
	if grown < cur+1 {
		grown = cur + 1
	}
	if requested > 0 {
		if requested < c.size {
			return 0
		}
		if want := int(float64(requested) / c.loadFactor); want > grown {
			return want
		}
	}
	return grown
}

// rehashInto reallocates at newCap and reinserts every occupied slot by plain
// linear probing.  Erased slots are dropped; this is the only point where
// historical bits reset.  moved, if non-nil, is called with each live entry's
// old and new slot so parallel value storage can follow.
func (c *core[K]) rehashInto(newCap int, moved func(oldSlot, newSlot int)) {
	newKeys := make([]K, newCap)
	newFlags := bitpair.New(int64(newCap))
	for i := 0; i < len(c.keys); i++ {
		if !c.flags.IsOccupied(int64(i)) {
			continue
		}
		k := c.keys[i]
		idx := int(c.hash(k) % uint64(newCap))
		for newFlags.IsOccupied(int64(idx)) {
			idx++
			if idx == newCap {
				idx = 0
			}
		}
		newFlags.SetBoth(int64(idx))
		newKeys[idx] = k
		if moved != nil {
			moved(i, idx)
		}
	}
	c.keys = newKeys
	c.flags = newFlags
}

// insertSlot places key and returns its slot.  added is false when the key
// was already present.  When the insert trips the load factor the table is
// rehashed first; onRehash, if non-nil, is told the new capacity before
// entries move and returns the per-entry move hook handed to rehashInto.
func (c *core[K]) insertSlot(key K, onRehash func(newCap int) func(oldSlot, newSlot int)) (slot int, added bool) {
	n := len(c.keys)
	idx := 0
	firstFree, hasFree := 0, false
	if n > 0 {
		idx = int(c.hash(key) % uint64(n))
		start := idx
		for {
			occupied, ever := c.flags.Get(int64(idx))
			if !occupied && !ever {
				break
			}
			if !hasFree && !occupied {
				firstFree, hasFree = idx, true
			}
			if c.keys[idx] == key {
				if occupied {
					return idx, false
				}
				// erased here; reuse the tombstone
				break
			}
			idx++
			if idx == n {
				idx = 0
			}
			if idx == start {
				break
			}
		}
	}

	if float64(c.size) >= float64(n)*c.loadFactor {
		newCap := c.nextCapacity(0)
		var moved func(int, int)
		if onRehash != nil {
			moved = onRehash(newCap)
		}
		c.rehashInto(newCap, moved)
		n = len(c.keys)
		idx = int(c.hash(key) % uint64(n))
		for c.flags.IsOccupied(int64(idx)) {
			idx++
			if idx == n {
				idx = 0
			}
		}
	} else if hasFree {
		idx = firstFree
	}

	c.flags.SetBoth(int64(idx))
	c.keys[idx] = key
	c.size++
	return idx, true
}

// erase clears the occupied bit for key's slot, leaving the historical bit
// so probe chains through it survive.  Reports whether a key was removed.
func (c *core[K]) erase(key K) bool {
	n := len(c.keys)
	if n == 0 {
		return false
	}
	idx := int(c.hash(key) % uint64(n))
	start := idx
	for {
		occupied, ever := c.flags.Get(int64(idx))
		if !occupied && !ever {
			return false
		}
		if c.keys[idx] == key {
			if occupied {
				c.flags.UnsetOccupied(int64(idx))
				c.size--
				return true
			}
			return false
		}
		idx++
		if idx == n {
			idx = 0
		}
		if idx == start {
			return false
		}
	}
}

// reserve grows capacity so n entries fit under the load factor.  No-op when
// n is below the current count.
func (c *core[K]) reserve(n int, onRehash func(newCap int) func(oldSlot, newSlot int)) {
	newCap := c.nextCapacity(n)
	if newCap <= 0 {
		return
	}
	var moved func(int, int)
	if onRehash != nil {
		moved = onRehash(newCap)
	}
	c.rehashInto(newCap, moved)
}

func (c *core[K]) clear() {
	c.flags.Clear()
	c.size = 0
}

// nextOccupied returns the first occupied slot at or after idx, or len(keys).
func (c *core[K]) nextOccupied(idx int) int {
	for idx < len(c.keys) && !c.flags.IsOccupied(int64(idx)) {
		idx++
	}
	return idx
}
