// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package openhash

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-farm"

	"github.com/openhash-go/openhash/internal/unsafeslice"
)

// Hasher computes a 64-bit hash of a key.  A container hashes through the
// same Hasher for its whole life, and a file must be opened with the Hasher
// that built it.
type Hasher[K any] func(K) uint64

// HashOf returns the default Hasher for K: farmhash over the key's in-memory
// bytes.  K must not contain padding, or equal keys could hash differently.
func HashOf[K any]() Hasher[K] {
	return func(k K) uint64 {
		return farm.Hash64(unsafeslice.ValueBytes(&k))
	}
}

// XXHashOf returns an xxhash-based Hasher for K, for callers standardized on
// xxhash.  Same padding caveat as HashOf.
func XXHashOf[K any]() Hasher[K] {
	return func(k K) uint64 {
		return xxhash.Sum64(unsafeslice.ValueBytes(&k))
	}
}
