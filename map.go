// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package openhash

import (
	"bufio"
	"fmt"

	"github.com/openhash-go/openhash/internal/unsafeslice"
)

// Map is a mutable open-addressing hash map whose fixed-width values are
// stored inline, positionally parallel to the keys.  Not safe for concurrent
// use.  Variable-length values belong in a Builder/BlobMap instead.
type Map[K comparable, V any] struct {
	core core[K]
	vals []V
}

// NewMap returns an empty map hashing keys with hash.  It panics if K or V
// is not fixed-width and pointer-free.
func NewMap[K comparable, V any](hash Hasher[K]) *Map[K, V] {
	if err := unsafeslice.Check[K](); err != nil {
		panic(fmt.Sprintf("openhash.NewMap: %s", err))
	}
	if err := unsafeslice.Check[V](); err != nil {
		panic(fmt.Sprintf("openhash.NewMap: %s", err))
	}
	return &Map[K, V]{core: newCore[K](hash)}
}

// onRehash returns the hook that keeps the value array aligned with the key
// array across a rehash.
func (m *Map[K, V]) onRehash() func(newCap int) func(oldSlot, newSlot int) {
	return func(newCap int) func(int, int) {
		old := m.vals
		m.vals = make([]V, newCap)
		vals := m.vals
		return func(oldSlot, newSlot int) {
			vals[newSlot] = old[oldSlot]
		}
	}
}

// Put inserts or overwrites the value for key.
func (m *Map[K, V]) Put(key K, value V) {
	slot, _ := m.core.insertSlot(key, m.onRehash())
	m.vals[slot] = value
}

// Get returns the value for key, or ErrKeyNotFound.
func (m *Map[K, V]) Get(key K) (V, error) {
	slot, ok := m.core.find(key)
	if !ok {
		var zero V
		return zero, ErrKeyNotFound
	}
	return m.vals[slot], nil
}

// Contains reports whether key is in the map.
func (m *Map[K, V]) Contains(key K) bool {
	return m.core.contains(key)
}

// Erase removes key if present.  The value slot is left as-is; it is dead
// until the slot is reused or the next rehash drops it.
func (m *Map[K, V]) Erase(key K) {
	m.core.erase(key)
}

// Reserve grows capacity so n entries fit without rehashing.  No-op if n is
// less than the current size.
func (m *Map[K, V]) Reserve(n int) {
	m.core.reserve(n, m.onRehash())
}

// Clear removes every entry without releasing capacity.
func (m *Map[K, V]) Clear() {
	m.core.clear()
}

// Size returns the number of entries.
func (m *Map[K, V]) Size() int {
	return m.core.size
}

// Clone returns an independent copy.
func (m *Map[K, V]) Clone() *Map[K, V] {
	n := NewMap[K, V](m.core.hash)
	n.core.loadFactor = m.core.loadFactor
	n.core.growthFactor = m.core.growthFactor
	n.Reserve(m.core.size)
	it := m.Iter()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		n.Put(k, v)
	}
	return n
}

// Iter returns an iterator over entries in slot order.  Mutating the map
// invalidates the iterator.
func (m *Map[K, V]) Iter() *MapIter[K, V] {
	return &MapIter[K, V]{c: &m.core, vals: m.vals}
}

// MapIter yields each entry of an inline-value map once.
type MapIter[K comparable, V any] struct {
	c    *core[K]
	vals []V
	idx  int
}

// Next returns the next entry, or ok == false when exhausted.
func (it *MapIter[K, V]) Next() (key K, value V, ok bool) {
	it.idx = it.c.nextOccupied(it.idx)
	if it.idx >= len(it.c.keys) {
		var zk K
		var zv V
		return zk, zv, false
	}
	key = it.c.keys[it.idx]
	value = it.vals[it.idx]
	it.idx++
	return key, value, true
}

// Write serializes the map to path in the mappable layout OpenMap reads.
func (m *Map[K, V]) Write(path string) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		return writeTable(w, &m.core, unsafeslice.Bytes(m.vals), nil)
	})
}
