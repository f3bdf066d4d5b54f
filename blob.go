// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package openhash

import (
	"fmt"

	"github.com/openhash-go/openhash/internal/mmap"
	"github.com/openhash-go/openhash/internal/unsafeslice"
)

// BlobMap is a read-only, blob-valued map backed by a memory-mapped file
// written by Builder.Write.  Get returns views reconstructed in place over
// the mapped bytes; a view must not be used after Close.
type BlobMap[K comparable, View any] struct {
	core    core[K]
	view    ViewFunc[View]
	offsets []uint64 // aliases the mapping
	blob    []byte   // aliases the mapping
	m       *mmap.File
}

// OpenBlobMap maps the file at path.  hash must be the Hasher the builder
// used, and view must understand the encoding its MarshalFunc produced.
func OpenBlobMap[K comparable, View any](path string, hash Hasher[K], view ViewFunc[View]) (*BlobMap[K, View], error) {
	return OpenBlobMapWith(path, hash, view, mmap.Default)
}

// OpenBlobMapWith is OpenBlobMap with an explicit mapping capability.
func OpenBlobMapWith[K comparable, View any](path string, hash Hasher[K], view ViewFunc[View], mapper mmap.Mapper) (*BlobMap[K, View], error) {
	if err := unsafeslice.Check[K](); err != nil {
		panic(fmt.Sprintf("openhash.OpenBlobMap: %s", err))
	}
	c, h, m, err := openCore[K](path, hash, mapper)
	if err != nil {
		return nil, err
	}
	capacity := int64(h.capacity)
	offsetsOff := pad8(headerSize + capacity*int64(unsafeslice.Sizeof[K]()))
	blobOff := offsetsOff + 8*capacity
	if blobOff > int64(h.flagsOff) {
		_ = m.Close()
		return nil, fmt.Errorf("%s: offset table at %d runs past tracker offset %d", path, offsetsOff, h.flagsOff)
	}
	data := m.Data()
	var offsets []uint64
	if capacity > 0 {
		offsets = unsafeslice.Of[uint64](data[offsetsOff:], int(capacity))
	}
	blob := data[blobOff:h.flagsOff]
	for slot, off := range offsets {
		if c.flags.IsOccupied(int64(slot)) && off > uint64(len(blob)) {
			_ = m.Close()
			return nil, fmt.Errorf("%s: slot %d value offset %d outside blob region of %d bytes", path, slot, off, len(blob))
		}
	}
	return &BlobMap[K, View]{
		core:    c,
		view:    view,
		offsets: offsets,
		blob:    blob,
		m:       m,
	}, nil
}

// Get returns a view of the value for key, or ErrKeyNotFound.  The view
// borrows from the mapping and is invalid after Close.
func (bm *BlobMap[K, View]) Get(key K) (View, error) {
	slot, ok := bm.core.find(key)
	if !ok {
		var zero View
		return zero, ErrKeyNotFound
	}
	return bm.view(bm.blob[bm.offsets[slot]:]), nil
}

// Contains reports whether key is in the map.
func (bm *BlobMap[K, View]) Contains(key K) bool {
	return bm.core.contains(key)
}

// Size returns the number of entries.
func (bm *BlobMap[K, View]) Size() int {
	return bm.core.size
}

// Iter returns an iterator over entries in slot order.  Yielded views are
// invalid after Close.
func (bm *BlobMap[K, View]) Iter() *BlobIter[K, View] {
	return &BlobIter[K, View]{bm: bm}
}

// BlobIter yields each entry of a blob map once.
type BlobIter[K comparable, View any] struct {
	bm  *BlobMap[K, View]
	idx int
}

// Next returns the next entry, or ok == false when exhausted.
func (it *BlobIter[K, View]) Next() (key K, value View, ok bool) {
	it.idx = it.bm.core.nextOccupied(it.idx)
	if it.idx >= len(it.bm.core.keys) {
		var zk K
		var zv View
		return zk, zv, false
	}
	key = it.bm.core.keys[it.idx]
	value = it.bm.view(it.bm.blob[it.bm.offsets[it.idx]:])
	it.idx++
	return key, value, true
}

// Clone returns a builder seeded with every entry's raw value bytes, copied
// out of the mapping.  Blob values are immutable once written, so the
// mutable counterpart of a blob map is a rebuild: mutate by Putting into the
// returned builder and writing a new file.  The builder remains valid after
// the map is closed.
func (bm *BlobMap[K, View]) Clone() *Builder[K, []byte] {
	b := NewBuilder[K, []byte](bm.core.hash, func(dst []byte, v []byte) []byte {
		return append(dst, v...)
	})
	b.loadFactor = bm.core.loadFactor
	b.growthFactor = bm.core.growthFactor
	for slot := 0; slot < len(bm.core.keys); slot++ {
		if !bm.core.flags.IsOccupied(int64(slot)) {
			continue
		}
		raw := bm.rawValue(slot)
		b.Put(bm.core.keys[slot], append([]byte(nil), raw...))
	}
	return b
}

// rawValue returns the serialized bytes for an occupied slot: from its
// recorded offset to the next occupied slot's offset in slot order (values
// were written in slot order), or to the region's end for the last one.
func (bm *BlobMap[K, View]) rawValue(slot int) []byte {
	start := bm.offsets[slot]
	end := uint64(len(bm.blob))
	for next := slot + 1; next < len(bm.core.keys); next++ {
		if bm.core.flags.IsOccupied(int64(next)) {
			end = bm.offsets[next]
			break
		}
	}
	return bm.blob[start:end]
}

// Erase always returns ErrImmutable; blob tables are rebuilt, not mutated.
func (bm *BlobMap[K, View]) Erase(K) error { return ErrImmutable }

// Clear always returns ErrImmutable.
func (bm *BlobMap[K, View]) Clear() error { return ErrImmutable }

// Close releases the mapping, invalidating every view handed out.
func (bm *BlobMap[K, View]) Close() error {
	bm.core = core[K]{}
	bm.offsets = nil
	bm.blob = nil
	return bm.m.Close()
}
