// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command openhash-info prints the header of a serialized table file, for
// eyeballing what a writer produced without opening it as a table.
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const headerSize = 40

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <table-file>\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	defer f.Close()

	stats, err := f.Stat()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stat: %s\n", err)
		os.Exit(1)
	}

	var header [headerSize]byte
	if _, err := f.ReadAt(header[:], 0); err != nil {
		fmt.Fprintf(os.Stderr, "read header: %s\n", err)
		os.Exit(1)
	}

	count := binary.LittleEndian.Uint64(header[0:8])
	capacity := binary.LittleEndian.Uint64(header[8:16])
	loadFactor := math.Float64frombits(binary.LittleEndian.Uint64(header[16:24]))
	growthFactor := math.Float64frombits(binary.LittleEndian.Uint64(header[24:32]))
	flagsOff := binary.LittleEndian.Uint64(header[32:40])

	fmt.Printf("%s: %d bytes\n", path, stats.Size())
	fmt.Printf("  entries:       %d\n", count)
	fmt.Printf("  capacity:      %d\n", capacity)
	fmt.Printf("  load factor:   %g\n", loadFactor)
	fmt.Printf("  growth factor: %g\n", growthFactor)
	fmt.Printf("  tracker at:    %d\n", flagsOff)

	var tracker [16]byte
	if _, err := f.ReadAt(tracker[:], int64(flagsOff)); err != nil {
		fmt.Fprintf(os.Stderr, "read tracker header: %s\n", err)
		os.Exit(1)
	}
	slots := binary.LittleEndian.Uint64(tracker[0:8])
	words := binary.LittleEndian.Uint64(tracker[8:16])
	fmt.Printf("  tracker:       %d slots in %d words\n", slots, words)
}
