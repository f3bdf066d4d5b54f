// Copyright 2025 The openhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mmap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	content := []byte("hello, mapping")
	require.NoError(t, os.WriteFile(path, content, 0644))

	f, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, len(content), f.Len())
	require.Equal(t, content, f.Data())

	require.NoError(t, f.Close())
	// closing twice is fine
	require.NoError(t, f.Close())
}

func TestOpenNonexistent(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	_, err := Open(path)
	require.Error(t, err)
}

func TestOpenWithFailingMapper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))

	mapErr := errors.New("synthetic mapping failure")
	_, err := OpenWith(path, func(fd int, length int) ([]byte, error) {
		return nil, mapErr
	})
	require.Error(t, err)
	require.ErrorIs(t, err, mapErr)
}
