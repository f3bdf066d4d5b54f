// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package openhash

import "errors"

var (
	// ErrKeyNotFound is returned by Get when the key is absent, whether the
	// table is empty, the key was never inserted, or it was erased.
	ErrKeyNotFound = errors.New("key not found")

	// ErrImmutable is returned by any mutating call on a memory-mapped
	// container.  The call has no side effects; Clone is the way to get a
	// mutable copy.
	ErrImmutable = errors.New("container is memory-mapped and read-only")
)
