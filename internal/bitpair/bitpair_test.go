// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitpair

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitPair(t *testing.T) {
	s := New(40)

	require.Equal(t, 3, len(s.words))
	require.Equal(t, int64(40), s.Len())

	occupied, ever := s.Get(7)
	require.False(t, occupied)
	require.False(t, ever)

	s.SetBoth(7)
	occupied, ever = s.Get(7)
	require.True(t, occupied)
	require.True(t, ever)
	require.True(t, s.IsOccupied(7))

	// erase keeps the historical bit
	s.UnsetOccupied(7)
	occupied, ever = s.Get(7)
	require.False(t, occupied)
	require.True(t, ever)
	require.False(t, s.IsOccupied(7))

	// neighbors in the same word are independent
	s.SetBoth(6)
	s.SetBoth(8)
	require.True(t, s.IsOccupied(6))
	require.False(t, s.IsOccupied(7))
	require.True(t, s.IsOccupied(8))

	// out of range is a no-op
	s.SetBoth(40)
	require.False(t, s.IsOccupied(40))
	occupied, ever = s.Get(41)
	require.False(t, occupied)
	require.False(t, ever)

	s.Clear()
	for i := int64(0); i < 40; i++ {
		occupied, ever = s.Get(i)
		require.False(t, occupied)
		require.False(t, ever)
	}
}

func TestBitPairAllSlots(t *testing.T) {
	const n = 100
	s := New(n)
	for i := int64(0); i < n; i += 2 {
		s.SetBoth(i)
	}
	for i := int64(0); i < n; i++ {
		require.Equal(t, i%2 == 0, s.IsOccupied(i))
	}
	for i := int64(0); i < n; i += 4 {
		s.UnsetOccupied(i)
	}
	for i := int64(0); i < n; i++ {
		occupied, ever := s.Get(i)
		require.Equal(t, i%2 == 0 && i%4 != 0, occupied)
		require.Equal(t, i%2 == 0, ever)
	}
}

func TestBitPairRoundTrip(t *testing.T) {
	s := New(33)
	s.SetBoth(0)
	s.SetBoth(16)
	s.SetBoth(32)
	s.UnsetOccupied(16)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	require.Equal(t, s.SerializedSize(), int64(buf.Len()))

	restored, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, s.n, restored.n)
	require.Equal(t, s.words, restored.words)

	view, err := FromBytes(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, int64(33), view.Len())
	for i := int64(0); i < 33; i++ {
		wantOcc, wantEver := s.Get(i)
		occ, ever := view.Get(i)
		require.Equal(t, wantOcc, occ)
		require.Equal(t, wantEver, ever)
	}
}

func TestBitPairFromBytesErrors(t *testing.T) {
	_, err := FromBytes(nil)
	require.Error(t, err)

	_, err = FromBytes(make([]byte, 8))
	require.Error(t, err)

	// claims 33 slots but carries no words
	s := New(33)
	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	_, err = FromBytes(buf.Bytes()[:sectionHeaderSize])
	require.Error(t, err)
}
