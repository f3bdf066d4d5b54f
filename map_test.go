// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package openhash

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapPutGetErase(t *testing.T) {
	m := NewMap[int64, float64](HashOf[int64]())

	_, err := m.Get(1)
	require.ErrorIs(t, err, ErrKeyNotFound)

	m.Put(1, 1.5)
	v, err := m.Get(1)
	require.NoError(t, err)
	require.Equal(t, 1.5, v)

	// overwriting doesn't change size
	m.Put(1, 2.5)
	require.Equal(t, 1, m.Size())
	v, err = m.Get(1)
	require.NoError(t, err)
	require.Equal(t, 2.5, v)

	m.Put(2, 7.0)
	m.Erase(1)
	require.Equal(t, 1, m.Size())
	_, err = m.Get(1)
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.False(t, m.Contains(1))
	require.True(t, m.Contains(2))
}

func TestMapRehashKeepsValues(t *testing.T) {
	m := NewMap[uint64, uint64](XXHashOf[uint64]())
	const n = 2000
	for i := uint64(0); i < n; i++ {
		m.Put(i, i*i)
	}
	require.Equal(t, n, m.Size())
	for i := uint64(0); i < n; i++ {
		v, err := m.Get(i)
		require.NoError(t, err)
		require.Equal(t, i*i, v, "key %d", i)
	}
}

func TestMapStructKeyAndValue(t *testing.T) {
	type point struct {
		X int32
		Y int32
	}
	type box struct {
		Min point
		Max point
	}
	m := NewMap[point, box](HashOf[point]())
	rng := rand.New(rand.NewSource(7))
	oracle := make(map[point]box)
	for i := 0; i < 500; i++ {
		k := point{X: rng.Int31n(100), Y: rng.Int31n(100)}
		v := box{Min: k, Max: point{X: k.X + 1, Y: k.Y + 1}}
		m.Put(k, v)
		oracle[k] = v
	}
	require.Equal(t, len(oracle), m.Size())
	for k, want := range oracle {
		got, err := m.Get(k)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestMapTombstoneChain(t *testing.T) {
	m := NewMap[int64, int64](identityHash)
	m.Reserve(10) // capacity 12

	m.Put(0, 100)
	m.Put(12, 112) // collides with 0, placed one slot down
	m.Erase(0)

	v, err := m.Get(12)
	require.NoError(t, err)
	require.Equal(t, int64(112), v)
}

func TestMapClear(t *testing.T) {
	m := NewMap[int64, int64](HashOf[int64]())
	for i := int64(0); i < 10; i++ {
		m.Put(i, i)
	}
	m.Clear()
	require.Equal(t, 0, m.Size())
	_, err := m.Get(3)
	require.ErrorIs(t, err, ErrKeyNotFound)
	m.Put(3, 33)
	v, err := m.Get(3)
	require.NoError(t, err)
	require.Equal(t, int64(33), v)
}

func TestMapIterAndClone(t *testing.T) {
	m := NewMap[int64, int64](HashOf[int64]())
	for i := int64(0); i < 50; i++ {
		m.Put(i, i*10)
	}
	m.Erase(13)

	got := make(map[int64]int64)
	it := m.Iter()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		_, seen := got[k]
		require.False(t, seen, "iterator yielded %d twice", k)
		got[k] = v
	}
	require.Equal(t, m.Size(), len(got))

	c := m.Clone()
	require.Equal(t, m.Size(), c.Size())
	for k, v := range got {
		cv, err := c.Get(k)
		require.NoError(t, err)
		require.Equal(t, v, cv)
	}
	c.Put(1, -1)
	v, err := m.Get(1)
	require.NoError(t, err)
	require.Equal(t, int64(10), v)
}

func TestMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.bin")

	hash := HashOf[int64]()
	m := NewMap[int64, float64](hash)
	for i := int64(0); i < 500; i++ {
		m.Put(i, float64(i)/3)
	}
	require.NoError(t, m.Write(path))

	mm, err := OpenMap[int64, float64](path, hash)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, mm.Close())
	}()

	require.Equal(t, m.Size(), mm.Size())
	for i := int64(0); i < 500; i++ {
		want, err := m.Get(i)
		require.NoError(t, err)
		got, err := mm.Get(i)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err = mm.Get(500)
	require.ErrorIs(t, err, ErrKeyNotFound)

	c := mm.Clone()
	require.Equal(t, m.Size(), c.Size())
	it := c.Iter()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		want, err := m.Get(k)
		require.NoError(t, err)
		require.Equal(t, want, v)
	}
}

func TestMapEraseThenRewrite(t *testing.T) {
	dir := t.TempDir()
	hash := identityHash
	m := NewMap[int64, int64](hash)
	m.Put(0, 10)
	m.Put(3, 13)
	m.Put(4, 14)

	first := filepath.Join(dir, "first.bin")
	require.NoError(t, m.Write(first))
	mm, err := OpenMap[int64, int64](first, hash)
	require.NoError(t, err)
	require.Equal(t, 3, mm.Size())
	v, err := mm.Get(4)
	require.NoError(t, err)
	require.Equal(t, int64(14), v)
	require.NoError(t, mm.Close())

	m.Erase(4)
	second := filepath.Join(dir, "second.bin")
	require.NoError(t, m.Write(second))
	mm, err = OpenMap[int64, int64](second, hash)
	require.NoError(t, err)
	defer mm.Close()
	require.Equal(t, 2, mm.Size())
	require.False(t, mm.Contains(4))
	_, err = mm.Get(4)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMappedMapIsImmutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.bin")

	hash := HashOf[int64]()
	m := NewMap[int64, int64](hash)
	m.Put(1, 11)
	require.NoError(t, m.Write(path))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	mm, err := OpenMap[int64, int64](path, hash)
	require.NoError(t, err)
	defer mm.Close()

	require.ErrorIs(t, mm.Put(2, 22), ErrImmutable)
	require.ErrorIs(t, mm.Erase(1), ErrImmutable)
	require.ErrorIs(t, mm.Clear(), ErrImmutable)
	require.ErrorIs(t, mm.Reserve(100), ErrImmutable)

	require.Equal(t, 1, mm.Size())
	require.False(t, mm.Contains(2))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestMapEmptyReserveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")

	hash := identityHash
	m := NewMap[int64, int64](hash)
	m.Reserve(10)
	require.NoError(t, m.Write(path))

	mm, err := OpenMap[int64, int64](path, hash)
	require.NoError(t, err)
	defer mm.Close()

	require.Equal(t, 0, mm.Size())
	require.False(t, mm.Contains(4))
	_, err = mm.Get(4)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestOpenMapFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenMap[int64, int64](filepath.Join(dir, "nope.bin"), HashOf[int64]())
	require.Error(t, err)

	path := filepath.Join(dir, "map.bin")
	m := NewMap[int64, int64](HashOf[int64]())
	m.Put(1, 1)
	m.Put(2, 2)
	m.Put(3, 3)
	require.NoError(t, m.Write(path))

	mapErr := errors.New("synthetic mapping failure")
	_, err = OpenMapWith[int64, int64](path, HashOf[int64](), func(fd, length int) ([]byte, error) {
		return nil, mapErr
	})
	require.ErrorIs(t, err, mapErr)

	// wrong value width for the file
	_, err = OpenMap[int64, int32](path, HashOf[int64]())
	require.Error(t, err)
}
