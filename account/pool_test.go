// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"testing"

	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/chainutil"
	"github.com/stretchr/testify/require"
)

func TestNewTestPoolPopulatesThreeAccounts(t *testing.T) {
	p, err := NewTestPool(3)
	require.NoError(t, err)
	require.Equal(t, 3, p.Len())
	require.Len(t, p.Keys(), 3)
}

func TestMemPoolAddAndResolve(t *testing.T) {
	p := NewMemPool()
	acc, err := chainutil.NewAccount(1, 1, false)
	require.NoError(t, err)
	require.NoError(t, p.Add(acc))

	addr, err := acc.Address()
	require.NoError(t, err)

	resolved, ok := p.Resolve(addr)
	require.True(t, ok)
	require.Same(t, acc, resolved)

	var unknown chainhash.Hash
	unknown[0] = 0xFF
	_, ok = p.Resolve(unknown)
	require.False(t, ok)
}

func TestMemPoolAddOverwritesSameAddressWithoutDuplicatingKeys(t *testing.T) {
	p := NewMemPool()
	acc, err := chainutil.NewAccount(1, 1, false)
	require.NoError(t, err)
	require.NoError(t, p.Add(acc))
	require.NoError(t, p.Add(acc))
	require.Equal(t, 1, p.Len())
}

func TestMemPoolIndex(t *testing.T) {
	p, err := NewTestPool(2)
	require.NoError(t, err)

	acc, ok := p.Index(0)
	require.True(t, ok)
	require.NotNil(t, acc)

	_, ok = p.Index(2)
	require.False(t, ok)
	_, ok = p.Index(-1)
	require.False(t, ok)
}
