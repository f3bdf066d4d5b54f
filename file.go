// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package openhash

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// On-disk layout, all regions located by arithmetic over these header fields
// so a mapped reader never parses anything beyond the header:
//
//	offset 0  u64 logical entry count
//	offset 8  u64 slot capacity
//	offset 16 f64 load factor
//	offset 24 f64 growth factor
//	offset 32 u64 byte offset of the occupancy tracker section
//	offset 40 [capacity]K keys
//	          inline maps: <pad to 8> [capacity]V values
//	          blob maps:   <pad to 8> [capacity]u64 value offsets, blob bytes
//	<pad to 8>
//	tracker section: u64 slot count, u64 word count, [word count]u32 words
//
// The header and tracker words are little-endian; key and value payloads are
// raw in-memory bytes, so a file is only readable on a host with the same
// byte order as its writer.
const (
	headerSize        = 40
	defaultBufferSize = 4 * 1024 * 1024
)

type header struct {
	count        uint64
	capacity     uint64
	loadFactor   float64
	growthFactor float64
	flagsOff     uint64
}

func (h *header) marshal(b []byte) error {
	if len(b) < headerSize {
		return fmt.Errorf("buffer too short for header: %d < %d", len(b), headerSize)
	}
	binary.LittleEndian.PutUint64(b[0:8], h.count)
	binary.LittleEndian.PutUint64(b[8:16], h.capacity)
	binary.LittleEndian.PutUint64(b[16:24], math.Float64bits(h.loadFactor))
	binary.LittleEndian.PutUint64(b[24:32], math.Float64bits(h.growthFactor))
	binary.LittleEndian.PutUint64(b[32:40], h.flagsOff)
	return nil
}

func (h *header) unmarshal(b []byte) error {
	if len(b) < headerSize {
		return fmt.Errorf("file too short: %d < %d", len(b), headerSize)
	}
	h.count = binary.LittleEndian.Uint64(b[0:8])
	h.capacity = binary.LittleEndian.Uint64(b[8:16])
	h.loadFactor = math.Float64frombits(binary.LittleEndian.Uint64(b[16:24]))
	h.growthFactor = math.Float64frombits(binary.LittleEndian.Uint64(b[24:32]))
	h.flagsOff = binary.LittleEndian.Uint64(b[32:40])

	if h.count > h.capacity {
		return fmt.Errorf("corrupt header: count %d exceeds capacity %d", h.count, h.capacity)
	}
	if !(h.loadFactor > 0 && h.loadFactor <= 1) {
		return fmt.Errorf("corrupt header: load factor %f out of range", h.loadFactor)
	}
	if !(h.growthFactor >= 1) {
		return fmt.Errorf("corrupt header: growth factor %f out of range", h.growthFactor)
	}
	if h.flagsOff < headerSize || h.flagsOff > uint64(len(b)) {
		return fmt.Errorf("corrupt header: tracker offset %d outside file of %d bytes", h.flagsOff, len(b))
	}
	return nil
}

// pad8 rounds n up to the host's natural 8-byte alignment.  Regions are
// padded so a mapped reader can hand out typed views by pointer arithmetic.
func pad8(n int64) int64 {
	return (n + 7) &^ 7
}

var padding [8]byte

func writePad(w *bufio.Writer, n int64) error {
	if n == 0 {
		return nil
	}
	_, err := w.Write(padding[:n])
	return err
}

// writeAtomic streams a serialized table into a temp file next to path, then
// publishes it read-only with an atomic rename.
func writeAtomic(path string, write func(w *bufio.Writer) error) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("filepath.Abs: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "openhash.*.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}
	defer func() {
		if f != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	w := bufio.NewWriterSize(f, defaultBufferSize)
	if err := write(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("f.Sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("f.Close: %w", err)
	}
	if err := os.Chmod(f.Name(), 0444); err != nil {
		return fmt.Errorf("os.Chmod(0444): %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}
	f = nil
	return nil
}
