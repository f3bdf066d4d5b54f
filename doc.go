// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package openhash implements open-addressing hash tables over fixed-width,
// pointer-free keys and values, built for two things general-purpose maps are
// bad at: duplicating and destroying whole tables at near-memcpy speed, and
// persisting a table to a file that can later be opened as a read-only,
// zero-copy memory-mapped view with no deserialization pass.
//
// Three variants share one probe engine:
//
//   - Set[K]: a mutable set of keys.
//   - Map[K, V]: a mutable map with fixed-width values stored inline.
//   - Builder[K, V] / BlobMap[K, View]: a write-once map whose values are
//     variable-length byte encodings, read back through caller-supplied
//     zero-copy views.
//
// Each mutable container writes a file that the corresponding Mapped type
// (MappedSet, MappedMap, BlobMap) opens without copying.  Mapped containers
// are safe for concurrent readers; mutable ones are single-threaded.
//
// Slots carry two occupancy bits, current and historical.  Erasing a key
// clears only the current bit, so probe chains that run past the erased slot
// stay intact until the next rehash resets history.
package openhash
