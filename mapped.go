// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package openhash

import (
	"fmt"

	"github.com/openhash-go/openhash/internal/bitpair"
	"github.com/openhash-go/openhash/internal/mmap"
	"github.com/openhash-go/openhash/internal/unsafeslice"
)

// openCore maps path, parses the header, and returns key and tracker views
// aliasing the mapping.  Every derived offset is bounds-checked against the
// mapping before anything trusts it; callers additionally verify the tracker
// offset against the region arithmetic for their variant's value storage.
func openCore[K comparable](path string, hash Hasher[K], mapper mmap.Mapper) (core[K], *header, *mmap.File, error) {
	var c core[K]
	m, err := mmap.OpenWith(path, mapper)
	if err != nil {
		return c, nil, nil, err
	}
	data := m.Data()

	var h header
	if err := h.unmarshal(data); err != nil {
		_ = m.Close()
		return c, nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	capacity := int64(h.capacity)
	keyBytes := capacity * int64(unsafeslice.Sizeof[K]())
	if headerSize+keyBytes > int64(h.flagsOff) {
		_ = m.Close()
		return c, nil, nil, fmt.Errorf("%s: %d keys don't fit before tracker offset %d", path, capacity, h.flagsOff)
	}

	flags, err := bitpair.FromBytes(data[h.flagsOff:])
	if err != nil {
		_ = m.Close()
		return c, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if flags.Len() != capacity {
		_ = m.Close()
		return c, nil, nil, fmt.Errorf("%s: tracker covers %d slots, capacity is %d", path, flags.Len(), capacity)
	}

	c = core[K]{
		keys:         unsafeslice.Of[K](data[headerSize:], int(capacity)),
		flags:        flags,
		size:         int(h.count),
		loadFactor:   h.loadFactor,
		growthFactor: h.growthFactor,
		hash:         hash,
	}
	return c, &h, m, nil
}

// MappedSet is a read-only set backed by a memory-mapped file written by
// Set.Write.  Concurrent readers are safe; the mapping is never written.
// Duplication goes through Clone, which detaches from the mapping.
type MappedSet[K comparable] struct {
	core core[K]
	m    *mmap.File
}

// OpenSet maps the file at path.  hash must be the Hasher the set was built
// with.
func OpenSet[K comparable](path string, hash Hasher[K]) (*MappedSet[K], error) {
	return OpenSetWith(path, hash, mmap.Default)
}

// OpenSetWith is OpenSet with an explicit mapping capability, for tests that
// need to force mapping failures.
func OpenSetWith[K comparable](path string, hash Hasher[K], mapper mmap.Mapper) (*MappedSet[K], error) {
	if err := unsafeslice.Check[K](); err != nil {
		panic(fmt.Sprintf("openhash.OpenSet: %s", err))
	}
	c, h, m, err := openCore[K](path, hash, mapper)
	if err != nil {
		return nil, err
	}
	// a set has nothing between the keys and the tracker
	if want := pad8(headerSize + int64(h.capacity)*int64(unsafeslice.Sizeof[K]())); int64(h.flagsOff) != want {
		_ = m.Close()
		return nil, fmt.Errorf("%s: tracker offset %d, expected %d: not a set file for this key type", path, h.flagsOff, want)
	}
	return &MappedSet[K]{core: c, m: m}, nil
}

// Contains reports whether key is in the set.
func (s *MappedSet[K]) Contains(key K) bool {
	return s.core.contains(key)
}

// Size returns the number of keys.
func (s *MappedSet[K]) Size() int {
	return s.core.size
}

// Iter returns an iterator over the keys in slot order.
func (s *MappedSet[K]) Iter() *SetIter[K] {
	return &SetIter[K]{c: &s.core}
}

// Clone scans the mapping and rebuilds an owned, mutable set with the same
// contents, independent of the mapping's lifetime.
func (s *MappedSet[K]) Clone() *Set[K] {
	n := NewSet[K](s.core.hash)
	n.Reserve(s.core.size)
	it := s.Iter()
	for k, ok := it.Next(); ok; k, ok = it.Next() {
		n.Insert(k)
	}
	return n
}

// Insert always returns ErrImmutable; the mapping is never written.
func (s *MappedSet[K]) Insert(K) error { return ErrImmutable }

// Erase always returns ErrImmutable.
func (s *MappedSet[K]) Erase(K) error { return ErrImmutable }

// Clear always returns ErrImmutable.
func (s *MappedSet[K]) Clear() error { return ErrImmutable }

// Reserve always returns ErrImmutable.
func (s *MappedSet[K]) Reserve(int) error { return ErrImmutable }

// Close releases the mapping.  Keys handed out by Iter are invalid after
// Close.
func (s *MappedSet[K]) Close() error {
	s.core = core[K]{}
	return s.m.Close()
}

// MappedMap is a read-only inline-value map backed by a memory-mapped file
// written by Map.Write.
type MappedMap[K comparable, V any] struct {
	core core[K]
	vals []V
	m    *mmap.File
}

// OpenMap maps the file at path.  hash must be the Hasher the map was built
// with, and K and V must match the writing side exactly.
func OpenMap[K comparable, V any](path string, hash Hasher[K]) (*MappedMap[K, V], error) {
	return OpenMapWith[K, V](path, hash, mmap.Default)
}

// OpenMapWith is OpenMap with an explicit mapping capability.
func OpenMapWith[K comparable, V any](path string, hash Hasher[K], mapper mmap.Mapper) (*MappedMap[K, V], error) {
	if err := unsafeslice.Check[K](); err != nil {
		panic(fmt.Sprintf("openhash.OpenMap: %s", err))
	}
	if err := unsafeslice.Check[V](); err != nil {
		panic(fmt.Sprintf("openhash.OpenMap: %s", err))
	}
	c, h, m, err := openCore[K](path, hash, mapper)
	if err != nil {
		return nil, err
	}
	capacity := int64(h.capacity)
	valsOff := pad8(headerSize + capacity*int64(unsafeslice.Sizeof[K]()))
	if want := pad8(valsOff + capacity*int64(unsafeslice.Sizeof[V]())); int64(h.flagsOff) != want {
		_ = m.Close()
		return nil, fmt.Errorf("%s: tracker offset %d, expected %d: not a map file for these key/value types", path, h.flagsOff, want)
	}
	var vals []V
	if capacity > 0 {
		vals = unsafeslice.Of[V](m.Data()[valsOff:], int(capacity))
	}
	return &MappedMap[K, V]{core: c, vals: vals, m: m}, nil
}

// Get returns the value for key, or ErrKeyNotFound.  The value is copied out
// of the mapping, so it stays valid after Close.
func (mm *MappedMap[K, V]) Get(key K) (V, error) {
	slot, ok := mm.core.find(key)
	if !ok {
		var zero V
		return zero, ErrKeyNotFound
	}
	return mm.vals[slot], nil
}

// Contains reports whether key is in the map.
func (mm *MappedMap[K, V]) Contains(key K) bool {
	return mm.core.contains(key)
}

// Size returns the number of entries.
func (mm *MappedMap[K, V]) Size() int {
	return mm.core.size
}

// Iter returns an iterator over entries in slot order.
func (mm *MappedMap[K, V]) Iter() *MapIter[K, V] {
	return &MapIter[K, V]{c: &mm.core, vals: mm.vals}
}

// Clone scans the mapping and rebuilds an owned, mutable map with the same
// contents, independent of the mapping's lifetime.
func (mm *MappedMap[K, V]) Clone() *Map[K, V] {
	n := NewMap[K, V](mm.core.hash)
	n.Reserve(mm.core.size)
	it := mm.Iter()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		n.Put(k, v)
	}
	return n
}

// Put always returns ErrImmutable; the mapping is never written.
func (mm *MappedMap[K, V]) Put(K, V) error { return ErrImmutable }

// Erase always returns ErrImmutable.
func (mm *MappedMap[K, V]) Erase(K) error { return ErrImmutable }

// Clear always returns ErrImmutable.
func (mm *MappedMap[K, V]) Clear() error { return ErrImmutable }

// Reserve always returns ErrImmutable.
func (mm *MappedMap[K, V]) Reserve(int) error { return ErrImmutable }

// Close releases the mapping.
func (mm *MappedMap[K, V]) Close() error {
	mm.core = core[K]{}
	mm.vals = nil
	return mm.m.Close()
}
