// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"math/big"
	"testing"

	"github.com/btxsuite/btx/blockchain"
	"github.com/btxsuite/btx/chaincfg"
	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/chainutil"
	"github.com/btxsuite/btx/wire"
	"github.com/stretchr/testify/require"
)

// mine searches for a nonce making block.ID() satisfy proof-of-work under
// powLimit, the way a miner would for a low-difficulty test network.
func mine(t *testing.T, block *wire.Block, powLimit *big.Int) {
	t.Helper()
	for nonce := uint32(0); nonce < 1<<20; nonce++ {
		block.Header.Nonce = nonce
		if err := blockchain.CheckProofOfWork(block.ID(), block.Header.Bits, powLimit); err == nil {
			return
		}
	}
	t.Fatal("failed to mine a block satisfying proof-of-work within the search bound")
}

// testAccount returns a fresh single-key account and its address.
func testAccount(t *testing.T) (*chainutil.Account, chainhash.Hash) {
	t.Helper()
	acc, err := chainutil.NewAccount(1, 1, false)
	require.NoError(t, err)
	addr, err := acc.Address()
	require.NoError(t, err)
	return acc, addr
}

// testParams builds a regression-network configuration with its own mined
// genesis block, owned by minerAddr, and coinbase maturity relaxed to 0 so
// tests can spend a coinbase output the very next block.
func testParams(t *testing.T, minerAddr chainhash.Hash) *chaincfg.Params {
	t.Helper()
	params := chaincfg.RegressionNetParams
	params.CoinbaseMaturity = 0

	var addrBytes [32]byte
	copy(addrBytes[:], minerAddr[:])
	cbScript, err := wire.CBScript(0, []byte("test genesis"))
	require.NoError(t, err)
	outScript, err := wire.OUTScript(addrBytes)
	require.NoError(t, err)
	tx := wire.Tx{
		Ver:  1,
		Ins:  []wire.TxIn{{Idx: 0, Script: cbScript, Seq: 0xffffffff}},
		Outs: []wire.TxOut{{Value: 50_000_000, Script: outScript}},
	}
	ids, err := (&wire.Block{Txs: []wire.Tx{tx}}).TxIDs()
	require.NoError(t, err)
	genesis := &wire.Block{
		Header: wire.Header{Ver: wire.PackVer(0, 1), Merkle: wire.MerkleRoot(ids), Bits: params.PowLimitBits},
		Txs:    []wire.Tx{tx},
	}
	mine(t, genesis, params.PowLimit)

	params.GenesisBlock = genesis
	params.Genesis = genesis.ID()
	return &params
}

func openTestIndexer(t *testing.T, params *chaincfg.Params) *ChainIndexer {
	t.Helper()
	idx, err := Open(t.TempDir(), params, nil)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestChainIndexerLinkGenesis(t *testing.T) {
	_, minerAddr := testAccount(t)
	params := testParams(t, minerAddr)
	idx := openTestIndexer(t, params)

	best, err := idx.Best()
	require.NoError(t, err)
	require.Nil(t, best)

	bits, err := idx.NextBits()
	require.NoError(t, err)
	require.Equal(t, params.PowLimitBits, bits)

	newBest, err := idx.Link(params.GenesisBlock)
	require.NoError(t, err)
	require.EqualValues(t, 0, newBest.Height)
	require.Equal(t, params.Genesis, newBest.ID)

	best, err = idx.Best()
	require.NoError(t, err)
	require.Equal(t, newBest, best)

	cb, err := idx.GetByHeight(0)
	require.NoError(t, err)
	require.Equal(t, params.Genesis, cb.Block.ID())

	genesisTxID, err := params.GenesisBlock.Txs[0].ID()
	require.NoError(t, err)
	coin, ok := idx.Coin(genesisTxID, 0)
	require.True(t, ok)
	require.Equal(t, minerAddr, coin.Owner)
	require.EqualValues(t, 50_000_000, coin.Value)
	require.True(t, coin.Coinbase)
}

func TestChainIndexerCoinsEnumeratesConfirmedOutputs(t *testing.T) {
	minerAcc, minerAddr := testAccount(t)
	_, recvAddr := testAccount(t)
	params := testParams(t, minerAddr)
	idx := openTestIndexer(t, params)

	_, err := idx.Link(params.GenesisBlock)
	require.NoError(t, err)

	genesisTxID, err := params.GenesisBlock.Txs[0].ID()
	require.NoError(t, err)

	minerCoins, err := idx.Coins(minerAddr)
	require.NoError(t, err)
	require.Len(t, minerCoins, 1)
	require.Equal(t, genesisTxID, minerCoins[0].TxID)
	require.EqualValues(t, 0, minerCoins[0].Idx)
	require.EqualValues(t, 50_000_000, minerCoins[0].Value)
	require.True(t, minerCoins[0].Coinbase)

	recvCoins, err := idx.Coins(recvAddr)
	require.NoError(t, err)
	require.Empty(t, recvCoins)

	// Spending the genesis coin to recvAddr moves it out of minerAddr's
	// enumeration and into recvAddr's.
	coin, ok := idx.Coin(genesisTxID, 0)
	require.True(t, ok)
	spendTx := wire.Tx{
		Ver:  1,
		Ins:  []wire.TxIn{{Out: genesisTxID, Idx: 0, Script: mustINScript(t, minerAcc)}},
		Outs: []wire.TxOut{{Value: 50_000_000 - 1000, Script: outScriptFor(t, recvAddr)}},
	}
	signAndAttach(t, &spendTx, 0, coin, minerAcc)

	cbScript, err := wire.CBScript(1, nil)
	require.NoError(t, err)
	coinbaseTx := wire.Tx{
		Ver:  1,
		Ins:  []wire.TxIn{{Idx: 0, Script: cbScript, Seq: 0xffffffff}},
		Outs: []wire.TxOut{{Value: 50_000_000, Script: outScriptFor(t, minerAddr)}},
	}

	ids, err := (&wire.Block{Txs: []wire.Tx{coinbaseTx, spendTx}}).TxIDs()
	require.NoError(t, err)
	nextBits, err := idx.NextBits()
	require.NoError(t, err)
	block1 := &wire.Block{
		Header: wire.Header{Ver: wire.PackVer(0, 1), Prev: params.Genesis, Merkle: wire.MerkleRoot(ids), Bits: nextBits},
		Txs:    []wire.Tx{coinbaseTx, spendTx},
	}
	mine(t, block1, params.PowLimit)
	_, err = idx.Link(block1)
	require.NoError(t, err)

	minerCoins, err = idx.Coins(minerAddr)
	require.NoError(t, err)
	require.Len(t, minerCoins, 1, "the spent genesis coin must be gone, the new coinbase must appear")
	require.True(t, minerCoins[0].Coinbase)

	recvCoins, err = idx.Coins(recvAddr)
	require.NoError(t, err)
	require.Len(t, recvCoins, 1)
	require.EqualValues(t, 50_000_000-1000, recvCoins[0].Value)
}

func outScriptFor(t *testing.T, addr chainhash.Hash) wire.Script {
	t.Helper()
	s, err := wire.OUTScript(toAddrArray(addr))
	require.NoError(t, err)
	return s
}

func TestChainIndexerRelinkingExistingBlockFails(t *testing.T) {
	_, minerAddr := testAccount(t)
	params := testParams(t, minerAddr)
	idx := openTestIndexer(t, params)

	_, err := idx.Link(params.GenesisBlock)
	require.NoError(t, err)

	_, err = idx.Link(params.GenesisBlock)
	require.ErrorIs(t, err, blockchain.RuleError{Code: blockchain.ErrBlockExists})
}

func TestChainIndexerLinkSpendAndPop(t *testing.T) {
	minerAcc, minerAddr := testAccount(t)
	_, recvAddr := testAccount(t)
	params := testParams(t, minerAddr)
	idx := openTestIndexer(t, params)

	_, err := idx.Link(params.GenesisBlock)
	require.NoError(t, err)

	genesisTxID, err := params.GenesisBlock.Txs[0].ID()
	require.NoError(t, err)

	coin, ok := idx.Coin(genesisTxID, 0)
	require.True(t, ok)

	// Build the coinbase for block 1.
	cbScript, err := wire.CBScript(1, nil)
	require.NoError(t, err)
	cbOut, err := wire.OUTScript(toAddrArray(minerAddr))
	require.NoError(t, err)
	coinbaseTx := wire.Tx{
		Ver:  1,
		Ins:  []wire.TxIn{{Idx: 0, Script: cbScript, Seq: 0xffffffff}},
		Outs: []wire.TxOut{{Value: 50_000_000, Script: cbOut}},
	}

	// Build a transaction spending the genesis coin to recvAddr, leaving a fee.
	const fee = 1000
	const spendValue = 50_000_000 - fee
	recvOut, err := wire.OUTScript(toAddrArray(recvAddr))
	require.NoError(t, err)
	spendTx := wire.Tx{
		Ver:  1,
		Ins:  []wire.TxIn{{Out: genesisTxID, Idx: 0, Script: mustINScript(t, minerAcc)}},
		Outs: []wire.TxOut{{Value: spendValue, Script: recvOut}},
	}
	signAndAttach(t, &spendTx, 0, coin, minerAcc)

	ids, err := (&wire.Block{Txs: []wire.Tx{coinbaseTx, spendTx}}).TxIDs()
	require.NoError(t, err)
	nextBits, err := idx.NextBits()
	require.NoError(t, err)
	block1 := &wire.Block{
		Header: wire.Header{Ver: wire.PackVer(0, 1), Prev: params.Genesis, Merkle: wire.MerkleRoot(ids), Bits: nextBits},
		Txs:    []wire.Tx{coinbaseTx, spendTx},
	}
	mine(t, block1, params.PowLimit)

	newBest, err := idx.Link(block1)
	require.NoError(t, err)
	require.EqualValues(t, 1, newBest.Height)

	_, ok = idx.Coin(genesisTxID, 0)
	require.False(t, ok, "spent coin must no longer resolve")

	spendTxID, err := spendTx.ID()
	require.NoError(t, err)
	newCoin, ok := idx.Coin(spendTxID, 0)
	require.True(t, ok)
	require.Equal(t, recvAddr, newCoin.Owner)
	require.EqualValues(t, spendValue, newCoin.Value)
	require.False(t, newCoin.Coinbase)

	popped, err := idx.Pop()
	require.NoError(t, err)
	require.Equal(t, block1.ID(), popped.ID())

	best, err := idx.Best()
	require.NoError(t, err)
	require.EqualValues(t, 0, best.Height)
	require.Equal(t, params.Genesis, best.ID)

	restored, ok := idx.Coin(genesisTxID, 0)
	require.True(t, ok, "popping must restore the spent coin")
	require.Equal(t, minerAddr, restored.Owner)

	_, ok = idx.Coin(spendTxID, 0)
	require.False(t, ok, "popping must remove the coin the popped block created")

	_, err = idx.Pop()
	require.ErrorIs(t, err, blockchain.RuleError{Code: blockchain.ErrGenesisPopAttempted})
}

func toAddrArray(h chainhash.Hash) [32]byte {
	var addr [32]byte
	copy(addr[:], h[:])
	return addr
}

func mustINScript(t *testing.T, acc *chainutil.Account) wire.Script {
	t.Helper()
	s, err := wire.INScript(acc)
	require.NoError(t, err)
	return s
}

// signAndAttach signs tx's inIdx-th input against coin with acc and
// re-embeds the signed account into that input's script.
func signAndAttach(t *testing.T, tx *wire.Tx, inIdx int, coin blockchain.CoinRef, acc *chainutil.Account) {
	t.Helper()
	msg := blockchain.BuildSignMessage(tx, tx.Ins[inIdx], coin)
	require.NoError(t, acc.SignAll(msg))
	s, err := wire.INScript(acc)
	require.NoError(t, err)
	tx.Ins[inIdx].Script = s
}
