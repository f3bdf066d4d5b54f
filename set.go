// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package openhash

import (
	"bufio"
	"fmt"

	"github.com/openhash-go/openhash/internal/unsafeslice"
)

// Set is a mutable open-addressing hash set over a fixed-width, pointer-free
// key type.  Not safe for concurrent use.
type Set[K comparable] struct {
	core core[K]
}

// NewSet returns an empty set hashing keys with hash.  It panics if K is not
// fixed-width and pointer-free; that is a property of the program, not of
// its input.
func NewSet[K comparable](hash Hasher[K]) *Set[K] {
	if err := unsafeslice.Check[K](); err != nil {
		panic(fmt.Sprintf("openhash.NewSet: %s", err))
	}
	return &Set[K]{core: newCore[K](hash)}
}

// Insert adds key to the set.  Inserting a present key is a no-op.
func (s *Set[K]) Insert(key K) {
	s.core.insertSlot(key, nil)
}

// Contains reports whether key is in the set.
func (s *Set[K]) Contains(key K) bool {
	return s.core.contains(key)
}

// Erase removes key if present.
func (s *Set[K]) Erase(key K) {
	s.core.erase(key)
}

// Reserve grows capacity so n keys fit without rehashing.  No-op if n is
// less than the current size.
func (s *Set[K]) Reserve(n int) {
	s.core.reserve(n, nil)
}

// Clear removes every key without releasing capacity.
func (s *Set[K]) Clear() {
	s.core.clear()
}

// Size returns the number of keys in the set.
func (s *Set[K]) Size() int {
	return s.core.size
}

// Clone returns an independent copy.
func (s *Set[K]) Clone() *Set[K] {
	n := &Set[K]{core: newCore[K](s.core.hash)}
	n.core.loadFactor = s.core.loadFactor
	n.core.growthFactor = s.core.growthFactor
	n.Reserve(s.core.size)
	it := s.Iter()
	for k, ok := it.Next(); ok; k, ok = it.Next() {
		n.Insert(k)
	}
	return n
}

// Iter returns an iterator over the keys in slot order, which is unrelated
// to insertion order.  Mutating the set invalidates the iterator.
func (s *Set[K]) Iter() *SetIter[K] {
	return &SetIter[K]{c: &s.core}
}

// SetIter yields each key of a set once.
type SetIter[K comparable] struct {
	c   *core[K]
	idx int
}

// Next returns the next key, or ok == false when the set is exhausted.
func (it *SetIter[K]) Next() (key K, ok bool) {
	it.idx = it.c.nextOccupied(it.idx)
	if it.idx >= len(it.c.keys) {
		var zero K
		return zero, false
	}
	key = it.c.keys[it.idx]
	it.idx++
	return key, true
}

// Write serializes the set to path in the mappable layout OpenSet reads.
// The file is written to a temp file and atomically renamed into place.
func (s *Set[K]) Write(path string) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		return writeTable(w, &s.core, nil, nil)
	})
}

// writeTable emits the shared layout: header, keys, optional value region,
// padding, tracker.  values and blob are nil for sets; blob is nil for
// inline maps.
func writeTable[K comparable](w *bufio.Writer, c *core[K], values []byte, blob []byte) error {
	capacity := int64(len(c.keys))
	keyBytes := unsafeslice.Bytes(c.keys)

	off := int64(headerSize) + int64(len(keyBytes))
	if values != nil {
		off = pad8(off) + int64(len(values))
	}
	if blob != nil {
		off += int64(len(blob))
	}
	flagsOff := pad8(off)

	h := header{
		count:        uint64(c.size),
		capacity:     uint64(capacity),
		loadFactor:   c.loadFactor,
		growthFactor: c.growthFactor,
		flagsOff:     uint64(flagsOff),
	}
	var headerBuf [headerSize]byte
	if err := h.marshal(headerBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(headerBuf[:]); err != nil {
		return fmt.Errorf("bufio.Write: %w", err)
	}

	if _, err := w.Write(keyBytes); err != nil {
		return fmt.Errorf("bufio.Write: %w", err)
	}
	written := int64(headerSize) + int64(len(keyBytes))

	if values != nil {
		if err := writePad(w, pad8(written)-written); err != nil {
			return fmt.Errorf("bufio.Write: %w", err)
		}
		written = pad8(written)
		if _, err := w.Write(values); err != nil {
			return fmt.Errorf("bufio.Write: %w", err)
		}
		written += int64(len(values))
	}
	if blob != nil {
		if _, err := w.Write(blob); err != nil {
			return fmt.Errorf("bufio.Write: %w", err)
		}
		written += int64(len(blob))
	}

	if err := writePad(w, flagsOff-written); err != nil {
		return fmt.Errorf("bufio.Write: %w", err)
	}
	return c.flags.Write(w)
}
