// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package openhash

import (
	"bufio"
	"fmt"

	"github.com/openhash-go/openhash/internal/bitpair"
	"github.com/openhash-go/openhash/internal/unsafeslice"
)

// MarshalFunc appends a self-delimiting byte encoding of v to dst and
// returns the extended slice.  "Self-delimiting" means the matching ViewFunc
// can find the encoding's end from its bytes alone, typically via a length
// prefix.
type MarshalFunc[V any] func(dst []byte, v V) []byte

// ViewFunc reconstructs a value in place from the encoding at the start of
// b.  It must only interpret the bytes, never copy them; the returned View
// borrows from b and is invalid once the backing mapping closes.
type ViewFunc[View any] func(b []byte) View

// Builder accumulates entries for a blob-valued table without committing to
// a layout.  Values are serialized and slots assigned only in Write; the
// builder is good for exactly one Write, which consumes it.  For a duplicate
// key the last Put wins.
type Builder[K comparable, V any] struct {
	hash         Hasher[K]
	marshal      MarshalFunc[V]
	keys         []K // insertion order
	vals         []V
	index        map[K]int
	loadFactor   float64
	growthFactor float64
}

// NewBuilder returns an empty builder.  It panics if K is not fixed-width
// and pointer-free; V has no such restriction, its bytes come from marshal.
func NewBuilder[K comparable, V any](hash Hasher[K], marshal MarshalFunc[V]) *Builder[K, V] {
	if err := unsafeslice.Check[K](); err != nil {
		panic(fmt.Sprintf("openhash.NewBuilder: %s", err))
	}
	return &Builder[K, V]{
		hash:         hash,
		marshal:      marshal,
		index:        make(map[K]int),
		loadFactor:   defaultLoadFactor,
		growthFactor: defaultGrowthFactor,
	}
}

// Put records key and value.  Putting a key again replaces its value.
func (b *Builder[K, V]) Put(key K, value V) {
	if i, ok := b.index[key]; ok {
		b.vals[i] = value
		return
	}
	b.index[key] = len(b.keys)
	b.keys = append(b.keys, key)
	b.vals = append(b.vals, value)
}

// Delete drops a staged key.  No-op if the key was never Put (or already
// deleted); a later Put stages it again.
func (b *Builder[K, V]) Delete(key K) {
	delete(b.index, key)
}

// Len returns the number of distinct keys recorded so far.
func (b *Builder[K, V]) Len() int {
	return len(b.index)
}

// Write computes the final layout and serializes the table to path, then
// consumes the builder.  Slot capacity comes from the entry count and load
// factor, always leaving at least one never-occupied slot so probe scans for
// absent keys terminate early.  Values are serialized in slot order into one
// contiguous region, each encoding starting 8-byte aligned, with a per-slot
// offset (relative to the region start) recorded in the offset table.
func (b *Builder[K, V]) Write(path string) error {
	n := len(b.index)
	capacity := 0
	if n > 0 {
		capacity = int(float64(n) / b.loadFactor)
		if capacity < n+1 {
			capacity = n + 1
		}
	}

	c := core[K]{
		keys:         make([]K, capacity),
		flags:        bitpair.New(int64(capacity)),
		size:         n,
		loadFactor:   b.loadFactor,
		growthFactor: b.growthFactor,
		hash:         b.hash,
	}
	entryAt := make([]int, capacity)
	for i, k := range b.keys {
		if j, ok := b.index[k]; !ok || j != i {
			// deleted, or re-Put later in insertion order
			continue
		}
		idx := int(b.hash(k) % uint64(capacity))
		for c.flags.IsOccupied(int64(idx)) {
			idx++
			if idx == capacity {
				idx = 0
			}
		}
		c.flags.SetBoth(int64(idx))
		c.keys[idx] = k
		entryAt[idx] = i
	}

	offsets := make([]uint64, capacity)
	var blob []byte
	for slot := 0; slot < capacity; slot++ {
		if !c.flags.IsOccupied(int64(slot)) {
			continue
		}
		for int64(len(blob)) != pad8(int64(len(blob))) {
			blob = append(blob, 0)
		}
		offsets[slot] = uint64(len(blob))
		blob = b.marshal(blob, b.vals[entryAt[slot]])
	}

	err := writeAtomic(path, func(w *bufio.Writer) error {
		return writeTable(w, &c, unsafeslice.Bytes(offsets), blob)
	})
	if err != nil {
		return err
	}

	// consumed; further Puts would silently miss the written file
	b.keys = nil
	b.vals = nil
	b.index = nil
	return nil
}
