// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"github.com/btxsuite/btx/wire"
)

// genesisCoinbaseData is the arbitrary miner data embedded in the
// regression-network genesis block's coinbase script.
const genesisCoinbaseData = "regtest genesis"

// genesisSubsidy is the block 0 coinbase reward, in base units.
const genesisSubsidy = 50_000_000

func generateGenesisBlock(bits, nonce uint32, addr [32]byte) *wire.Block {
	cbScript, err := wire.CBScript(0, []byte(genesisCoinbaseData))
	if err != nil {
		panic(err)
	}
	outScript, err := wire.OUTScript(addr)
	if err != nil {
		panic(err)
	}
	tx := wire.Tx{
		Ver: 1,
		Ins: []wire.TxIn{{
			Idx:    0,
			Script: cbScript,
			Seq:    0xffffffff,
		}},
		Outs: []wire.TxOut{{
			Value:  genesisSubsidy,
			Script: outScript,
		}},
	}
	ids, err := (&wire.Block{Txs: []wire.Tx{tx}}).TxIDs()
	if err != nil {
		panic(err)
	}
	header := wire.Header{
		Ver:    wire.PackVer(0, 1),
		Merkle: wire.MerkleRoot(ids),
		Time:   0,
		Bits:   bits,
		Nonce:  nonce,
	}
	return &wire.Block{Header: header, Txs: []wire.Tx{tx}}
}

func init() {
	// The zero address: the regression-network genesis coin is not
	// meant to be spendable by any real account, only to exercise the
	// genesis-link path in tests.
	var zeroAddr [32]byte
	block := generateGenesisBlock(RegressionNetParams.PowLimitBits, 0, zeroAddr)
	RegressionNetParams.GenesisBlock = block
	RegressionNetParams.Genesis = block.ID()
}
