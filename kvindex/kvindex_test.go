// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *KvIndex {
	t.Helper()
	k, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { k.Close() })
	return k
}

func TestPutGetDel(t *testing.T) {
	k := openTestIndex(t)

	require.NoError(t, k.Put([]byte("a"), []byte("1")))
	v, err := k.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, "1", string(v))

	require.NoError(t, k.Del([]byte("a")))
	_, err = k.Get([]byte("a"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPutRejectsOversizeKeyOrValue(t *testing.T) {
	k := openTestIndex(t)
	bigKey := make([]byte, MaxKeyLen+1)
	require.ErrorIs(t, k.Put(bigKey, []byte("x")), ErrKeyTooLarge)

	bigVal := make([]byte, MaxValueLen+1)
	require.ErrorIs(t, k.Put([]byte("k"), bigVal), ErrValueTooLarge)
}

func TestBatchCommitAtomic(t *testing.T) {
	k := openTestIndex(t)

	batch := NewBatch(false)
	require.NoError(t, batch.Put([]byte("x"), []byte("1"), nil))
	require.NoError(t, batch.Put([]byte("y"), []byte("2"), nil))
	require.NoError(t, k.Write(batch, true))

	vx, err := k.Get([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, "1", string(vx))
	vy, err := k.Get([]byte("y"))
	require.NoError(t, err)
	require.Equal(t, "2", string(vy))
}

func TestIteratePrefix(t *testing.T) {
	k := openTestIndex(t)

	require.NoError(t, k.Put([]byte("addr1\x00txA"), []byte("1")))
	require.NoError(t, k.Put([]byte("addr1\x00txB"), []byte("2")))
	require.NoError(t, k.Put([]byte("addr2\x00txC"), []byte("3")))

	it := k.Iterate([]byte("addr1\x00"))
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.ElementsMatch(t, []string{"txA", "txB"}, keys)
}

func TestIterateReverse(t *testing.T) {
	k := openTestIndex(t)
	require.NoError(t, k.Put([]byte("p\x00001"), []byte("a")))
	require.NoError(t, k.Put([]byte("p\x00002"), []byte("b")))
	require.NoError(t, k.Put([]byte("p\x00003"), []byte("c")))

	it := k.Iterate([]byte("p\x00"))
	defer it.Close()

	require.True(t, it.Last())
	require.Equal(t, "003", string(it.Key()))
	require.True(t, it.Prev())
	require.Equal(t, "002", string(it.Key()))
}

func TestBatchInverseRoundTrip(t *testing.T) {
	k := openTestIndex(t)
	require.NoError(t, k.Put([]byte("k1"), []byte("old1")))

	fwd := NewBatch(true)
	require.NoError(t, fwd.Put([]byte("k1"), []byte("new1"), []byte("old1")))
	require.NoError(t, fwd.Put([]byte("k2"), []byte("new2"), nil))
	require.NoError(t, k.Write(fwd, true))

	v1, err := k.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "new1", string(v1))

	raw, err := fwd.Serialize()
	require.NoError(t, err)

	undo, err := ParseInverseBatch(raw)
	require.NoError(t, err)
	require.NoError(t, k.Write(undo, true))

	gotK1, err := k.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "old1", string(gotK1))

	_, err = k.Get([]byte("k2"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBatchDelInverseIsPutBack(t *testing.T) {
	k := openTestIndex(t)
	require.NoError(t, k.Put([]byte("k"), []byte("v")))

	fwd := NewBatch(true)
	fwd.Del([]byte("k"), []byte("v"))
	require.NoError(t, k.Write(fwd, true))

	_, err := k.Get([]byte("k"))
	require.ErrorIs(t, err, ErrNotFound)

	raw, err := fwd.Serialize()
	require.NoError(t, err)
	undo, err := ParseInverseBatch(raw)
	require.NoError(t, err)
	require.NoError(t, k.Write(undo, true))

	v, err := k.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, "v", string(v))
}

func TestPutUntrackedHasNoInverse(t *testing.T) {
	fwd := NewBatch(true)
	require.NoError(t, fwd.PutUntracked([]byte("tracked-free"), []byte("v")))
	raw, err := fwd.Serialize()
	require.NoError(t, err)
	require.Empty(t, raw)
}
