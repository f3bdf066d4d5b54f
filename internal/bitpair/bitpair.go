// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitpair tracks two bits per table slot: whether the slot currently
// holds a key, and whether it has held one since the last rehash.  The second
// bit is what keeps linear probing correct across erases: a probe scan must
// keep going past a slot that used to hold a key, and may stop only at a slot
// that never held one.
package bitpair

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/openhash-go/openhash/internal/unsafeslice"
)

// SlotsPerWord is the number of 2-bit slot records packed into one uint32.
const SlotsPerWord = 16

const sectionHeaderSize = 16 // u64 slot count + u64 word count

// Set is the per-slot occupancy tracker.  It either owns its word storage or
// is a read-only view over words that live in a memory-mapped file; mutating
// a view corrupts the mapping-backed table, so callers must only mutate sets
// they constructed with New.
type Set struct {
	words []uint32
	n     int64 // logical slot count
}

// New returns an owned, zeroed tracker for n slots.
func New(n int64) *Set {
	return &Set{
		words: make([]uint32, wordCount(n)),
		n:     n,
	}
}

// View returns a tracker over externally owned words, typically aliasing a
// memory-mapped region.  The words must hold at least wordCount(n) entries.
func View(words []uint32, n int64) *Set {
	return &Set{
		words: words,
		n:     n,
	}
}

func wordCount(n int64) int64 {
	return (n + SlotsPerWord - 1) / SlotsPerWord
}

func getOffsets(slot int64) (wordOff int64, bitOff uint32) {
	wordOff = slot / SlotsPerWord
	bitOff = uint32(slot%SlotsPerWord) * 2
	return
}

// Get returns both bits for slot: whether it currently holds a key, and
// whether it has held one since the last rehash.
func (s *Set) Get(slot int64) (occupied, everOccupied bool) {
	if slot >= s.n {
		return false, false
	}
	wordOff, bitOff := getOffsets(slot)
	w := s.words[wordOff] >> bitOff
	return w&1 != 0, w&2 != 0
}

// IsOccupied is the fast path for callers that don't care about history.
func (s *Set) IsOccupied(slot int64) bool {
	if slot >= s.n {
		return false
	}
	wordOff, bitOff := getOffsets(slot)
	return s.words[wordOff]>>bitOff&1 != 0
}

// SetBoth marks slot as occupied now and as touched since the last rehash.
func (s *Set) SetBoth(slot int64) {
	if slot >= s.n {
		return
	}
	wordOff, bitOff := getOffsets(slot)
	s.words[wordOff] |= 3 << bitOff
}

// UnsetOccupied clears only the occupied bit.  The historical bit stays set
// so probe chains running through this slot remain intact.
func (s *Set) UnsetOccupied(slot int64) {
	if slot >= s.n {
		return
	}
	wordOff, bitOff := getOffsets(slot)
	s.words[wordOff] &^= 1 << bitOff
}

// Clear zeroes every bit, both current and historical.
func (s *Set) Clear() {
	for i := range s.words {
		s.words[i] = 0
	}
}

// Len returns the logical slot count.
func (s *Set) Len() int64 {
	return s.n
}

// SerializedSize returns the byte length Write will produce.
func (s *Set) SerializedSize() int64 {
	return sectionHeaderSize + 4*int64(len(s.words))
}

// Write emits the slot count, the packed word count, and the words, all
// little-endian, so that Read (or FromBytes over a mapping) reconstructs a
// bit-exact tracker.
func (s *Set) Write(w io.Writer) error {
	var buf [sectionHeaderSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(s.n))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(s.words)))
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, s.words); err != nil {
		return fmt.Errorf("binary.Write: %w", err)
	}
	return nil
}

// Read reconstructs an owned tracker from the format Write produces.
func Read(r io.Reader) (*Set, error) {
	var buf [sectionHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("io.ReadFull: %w", err)
	}
	n := int64(binary.LittleEndian.Uint64(buf[0:8]))
	nWords := int64(binary.LittleEndian.Uint64(buf[8:16]))
	if n < 0 || nWords < wordCount(n) {
		return nil, fmt.Errorf("corrupt tracker section: %d slots in %d words", n, nWords)
	}
	words := make([]uint32, nWords)
	if err := binary.Read(r, binary.LittleEndian, words); err != nil {
		return nil, fmt.Errorf("binary.Read: %w", err)
	}
	return &Set{words: words, n: n}, nil
}

// FromBytes returns a read-only view over a serialized tracker at the start
// of b, typically a slice of a memory-mapped file.  The words alias b.
func FromBytes(b []byte) (*Set, error) {
	if len(b) < sectionHeaderSize {
		return nil, fmt.Errorf("tracker section too short: %d < %d", len(b), sectionHeaderSize)
	}
	n := int64(binary.LittleEndian.Uint64(b[0:8]))
	nWords := int64(binary.LittleEndian.Uint64(b[8:16]))
	if n < 0 || nWords < wordCount(n) {
		return nil, fmt.Errorf("corrupt tracker section: %d slots in %d words", n, nWords)
	}
	if int64(len(b)-sectionHeaderSize) < 4*nWords {
		return nil, fmt.Errorf("tracker section too short: %d words don't fit in %d bytes", nWords, len(b)-sectionHeaderSize)
	}
	words := unsafeslice.Of[uint32](b[sectionHeaderSize:], int(nWords))
	return View(words, n), nil
}
