// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/chainutil"
	"github.com/btxsuite/btx/wire"
	"github.com/stretchr/testify/require"
)

func makeCoinbaseBlock(t *testing.T, nTxs int) *wire.Block {
	t.Helper()

	cb, err := wire.CBScript(1, []byte("merkle test"))
	require.NoError(t, err)
	var addr [32]byte
	out, err := wire.OUTScript(addr)
	require.NoError(t, err)

	txs := make([]wire.Tx, nTxs)
	txs[0] = wire.Tx{
		Ver:  1,
		Ins:  []wire.TxIn{{Idx: 0, Script: cb, Seq: 0xffffffff}},
		Outs: []wire.TxOut{{Value: 50_000_000, Script: out}},
	}
	for i := 1; i < nTxs; i++ {
		txs[i] = wire.Tx{
			Ver: 1,
			Ins: []wire.TxIn{{Out: chainhash.Hash{byte(i)}, Idx: 0, Script: mustIN(t)}},
			Outs: []wire.TxOut{{Value: int64(i), Script: out}},
		}
	}
	return &wire.Block{Txs: txs}
}

func mustIN(t *testing.T) wire.Script {
	t.Helper()
	acc, err := chainutil.NewAccount(1, 1, false)
	require.NoError(t, err)
	s, err := wire.INScript(acc)
	require.NoError(t, err)
	return s
}

// TestMerkleRootEvenOdd checks that the merkle root computed over an odd
// leaf count equals the root computed after duplicating the final leaf,
// per the right-sibling duplication rule.
func TestMerkleRootEvenOdd(t *testing.T) {
	odd := makeCoinbaseBlock(t, 3)
	idsOdd, err := odd.TxIDs()
	require.NoError(t, err)
	rootOdd := wire.MerkleRoot(idsOdd)

	idsPadded := append(append([]chainhash.Hash{}, idsOdd...), idsOdd[len(idsOdd)-1])
	rootPadded := wire.MerkleRoot(idsPadded)

	require.Equal(t, rootPadded, rootOdd)
}

// TestMerkleRootSingle checks that a single-transaction block's merkle
// root is simply that transaction's id.
func TestMerkleRootSingle(t *testing.T) {
	block := makeCoinbaseBlock(t, 1)
	ids, err := block.TxIDs()
	require.NoError(t, err)
	require.Equal(t, ids[0], wire.MerkleRoot(ids))
}

// TestCheckBlockSanityMerkle checks that CheckBlockSanity rejects a block
// whose header merkle root does not match its transactions.
func TestCheckBlockSanityMerkle(t *testing.T) {
	block := makeCoinbaseBlock(t, 2)
	ids, err := block.TxIDs()
	require.NoError(t, err)
	block.Header.Merkle = wire.MerkleRoot(ids)

	require.NoError(t, CheckBlockSanity(block))

	block.Header.Merkle[0] ^= 0xFF
	err = CheckBlockSanity(block)
	require.ErrorIs(t, err, RuleError{Code: ErrMerkleMismatch})
}
