// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap opens files as read-only memory mappings.  The mapping call
// itself is an injectable capability so tests can exercise mapping-failure
// paths without touching process-wide state.
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mapper maps length bytes of the file behind fd read-only.  Default is the
// real implementation; tests substitute one that fails.
type Mapper func(fd int, length int) ([]byte, error)

// Default maps the file with a shared, read-only mapping.
func Default(fd int, length int) ([]byte, error) {
	return unix.Mmap(fd, 0, length, unix.PROT_READ, unix.MAP_SHARED)
}

// File is an open read-only mapping of an entire file.
type File struct {
	data []byte
}

// Open maps the file at path read-only.
func Open(path string) (*File, error) {
	return OpenWith(path, Default)
}

// OpenWith is Open with an explicit mapping capability.
func OpenWith(path string, mapper Mapper) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		// the mapping outlives the descriptor
		_ = f.Close()
	}()

	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := stats.Size()
	if size == 0 {
		return nil, fmt.Errorf("file %s is empty", path)
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("file %s too large to map", path)
	}

	data, err := mapper(int(f.Fd()), int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap(%s): %w", path, err)
	}
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("madvise: %w", err)
	}

	return &File{data: data}, nil
}

// Data returns the mapped bytes.  Any slice derived from them is invalid
// after Close.
func (f *File) Data() []byte {
	return f.data
}

// Len returns the length of the mapping in bytes.
func (f *File) Len() int {
	return len(f.data)
}

// Close unmaps the file.  Safe to call twice.
func (f *File) Close() error {
	if f == nil || f.data == nil {
		return nil
	}
	data := f.data
	f.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
