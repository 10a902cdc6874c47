// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"testing"

	"github.com/btxsuite/btx/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// TestRegTestGenesisBlock checks that the regression-network genesis block
// is internally consistent: its id matches Params.Genesis, its merkle root
// matches its transaction ids, and its sole transaction is a coinbase.
func TestRegTestGenesisBlock(t *testing.T) {
	block := RegressionNetParams.GenesisBlock
	require.NotNil(t, block)

	require.Equal(t, RegressionNetParams.Genesis, block.ID())

	ids, err := block.TxIDs()
	require.NoError(t, err)
	require.Equal(t, wire.MerkleRoot(ids), block.Header.Merkle)

	require.True(t, block.Txs[0].IsCoinbase())
	require.Len(t, block.Txs, 1)
}

// TestRegTestGenesisBlockBytes checks that the regression-network genesis
// block round-trips through its wire encoding byte for byte. On mismatch it
// dumps both sides with spew for a readable diff, since a plain %v on raw
// bytes is unreadable.
func TestRegTestGenesisBlockBytes(t *testing.T) {
	block := RegressionNetParams.GenesisBlock
	require.NotNil(t, block)

	raw, err := block.Bytes()
	require.NoError(t, err)

	got, err := wire.BlockFromBytes(raw)
	require.NoError(t, err)

	gotRaw, err := got.Bytes()
	require.NoError(t, err)

	if !require.ObjectsAreEqual(raw, gotRaw) {
		t.Fatalf("genesis block did not survive a round trip through its wire encoding\ngot:\n%swant:\n%s",
			spew.Sdump(gotRaw), spew.Sdump(raw))
	}
}
