// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushPullRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir(), "blk", 1<<20, nil)
	require.NoError(t, err)
	defer s.Close()

	loc, err := s.Push([]byte("hello segmented store"))
	require.NoError(t, err)
	require.Equal(t, uint32(0), loc.FileIdx)
	require.Equal(t, uint32(0), loc.Offset)

	got, err := s.Pull(loc)
	require.NoError(t, err)
	require.Equal(t, "hello segmented store", string(got))
}

func TestPushRollsToNewFileWhenFull(t *testing.T) {
	s, err := Open(t.TempDir(), "blk", 16, nil)
	require.NoError(t, err)
	defer s.Close()

	first, err := s.Push([]byte("0123456789ABCDEF"))
	require.NoError(t, err)
	require.Equal(t, uint32(0), first.FileIdx)

	second, err := s.Push([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, uint32(1), second.FileIdx)
	require.Equal(t, uint32(0), second.Offset)

	gotFirst, err := s.Pull(first)
	require.NoError(t, err)
	require.Equal(t, "0123456789ABCDEF", string(gotFirst))

	gotSecond, err := s.Pull(second)
	require.NoError(t, err)
	require.Equal(t, "x", string(gotSecond))
}

func TestPushRejectsOversizeRecord(t *testing.T) {
	s, err := Open(t.TempDir(), "blk", 8, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Push([]byte("way too big for one file"))
	require.ErrorIs(t, err, ErrStoreFull)
}

func TestPullShortReadReportsIO(t *testing.T) {
	s, err := Open(t.TempDir(), "blk", 1<<20, nil)
	require.NoError(t, err)
	defer s.Close()

	loc, err := s.Push([]byte("short"))
	require.NoError(t, err)

	loc.Len = 100
	_, err = s.Pull(loc)
	require.ErrorIs(t, err, ErrIO)
}

func TestOpenResumesFromExistingFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "blk", 1<<20, nil)
	require.NoError(t, err)

	locA, err := s.Push([]byte("a"))
	require.NoError(t, err)
	locB, err := s.Push([]byte("b"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(dir, "blk", 1<<20, nil)
	require.NoError(t, err)
	defer reopened.Close()

	gotA, err := reopened.Pull(locA)
	require.NoError(t, err)
	require.Equal(t, "a", string(gotA))

	gotB, err := reopened.Pull(locB)
	require.NoError(t, err)
	require.Equal(t, "b", string(gotB))

	// A further push must continue appending to the resumed file, not
	// clobber what's already there.
	locC, err := reopened.Push([]byte("c"))
	require.NoError(t, err)
	require.Equal(t, uint32(2), locC.Offset)
}

func TestHandleCacheEvictsLRU(t *testing.T) {
	s, err := Open(t.TempDir(), "blk", 4, nil)
	require.NoError(t, err)
	defer s.Close()

	const fileCount = maxOpenHandles + 4
	locs := make([]Loc, 0, fileCount)
	for i := 0; i < fileCount; i++ {
		loc, err := s.Push([]byte("abcd"))
		require.NoError(t, err)
		locs = append(locs, loc)
	}

	// Every record, including ones long evicted from the handle cache,
	// must still be readable by reopening their file on demand.
	for _, loc := range locs {
		got, err := s.Pull(loc)
		require.NoError(t, err)
		require.Equal(t, "abcd", string(got))
	}
	require.LessOrEqual(t, s.handles.order.Len(), maxOpenHandles)
}
