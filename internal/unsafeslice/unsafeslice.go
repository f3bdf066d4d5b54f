// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package unsafeslice reinterprets memory between byte slices and slices of
// fixed-width types.  It is what lets key and value arrays be written to disk
// in one call and read back as typed views straight out of a mapping.
package unsafeslice

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Bytes returns a byte slice aliasing the contents of ts.
// SAFETY: the returned slice must not outlive ts, and writing through it
// bypasses the type system.
func Bytes[T any](ts []T) []byte {
	if len(ts) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&ts[0])), len(ts)*int(unsafe.Sizeof(ts[0])))
}

// ValueBytes returns a byte slice aliasing the memory of *t.
// SAFETY: read-only, and must not outlive *t.
func ValueBytes[T any](t *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(t)), unsafe.Sizeof(*t))
}

// Of returns a []T of count elements aliasing the start of b.  The caller
// must have checked that b holds at least count*Sizeof[T]() bytes.
// SAFETY: the returned slice must not outlive b; if b is a read-only
// mapping, writing through the result faults.
func Of[T any](b []byte, count int) []T {
	if count == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), count)
}

// Sizeof returns the in-memory byte width of T.
func Sizeof[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

// Check reports whether T is fixed-width and pointer-free, i.e. safe to
// persist byte-for-byte and alias out of a mapping.  Types that fail the
// check (pointers, slices, strings, maps, interfaces, chans, funcs) would
// serialize addresses instead of data.
func Check[T any]() error {
	return check(reflect.TypeOf((*T)(nil)).Elem())
}

func check(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return check(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if err := check(t.Field(i).Type); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%s is not a fixed-width, pointer-free type", t)
	}
}
