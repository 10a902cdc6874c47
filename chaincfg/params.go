// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg holds the network-wide constants a node is configured
// with: the genesis id, the proof-of-work limit, and the retarget and
// subsidy schedule, stripped of the multi-network DNS-seed and checkpoint
// machinery this core has no use for — a single node is configured with
// one Params at a time.
package chaincfg

import (
	"math/big"

	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/wire"
)

// Params holds the consensus-critical constants a ChainIndexer is
// configured with.
type Params struct {
	// Name identifies the configuration, for logging only.
	Name string

	// Genesis is the id the block at height 0 must equal.
	Genesis chainhash.Hash

	// GenesisBlock is the fully-formed block a fresh node links at
	// height 0. Nil for configurations that accept any externally
	// supplied genesis matching Genesis.
	GenesisBlock *wire.Block

	// PowLimit is the highest (easiest) proof-of-work target permitted.
	PowLimit *big.Int

	// PowLimitBits is PowLimit in its compact encoding.
	PowLimitBits uint32

	// PowSpan is the retarget boundary spacing in blocks.
	PowSpan int32

	// PowTargetTimespan is the expected wall-clock duration, in seconds,
	// of one PowSpan-block span.
	PowTargetTimespan int64

	// SubsidyHalvingInterval is the number of blocks between subsidy
	// halvings.
	SubsidyHalvingInterval int32

	// CoinbaseMaturity is the number of confirmations a coinbase output
	// needs before it may be spent.
	CoinbaseMaturity int32

	// EpochBase is the multiplier unit added to Header.Time to recover a
	// block's real Unix timestamp.
	EpochBase int64
}

// MinRetargetTimespan is the lower clamp on an observed span duration:
// PowTargetTimespan / 4.
func (p *Params) MinRetargetTimespan() int64 {
	return p.PowTargetTimespan / 4
}

// MaxRetargetTimespan is the upper clamp on an observed span duration:
// PowTargetTimespan * 4.
func (p *Params) MaxRetargetTimespan() int64 {
	return p.PowTargetTimespan * 4
}

// RegressionNetParams is a low-difficulty, fast-retarget configuration
// suited to tests and local development, with its own genesis and
// subsidy schedule.
var RegressionNetParams = Params{
	Name:                    "regtest",
	PowLimit:                regtestPowLimit(),
	PowLimitBits:            0x207fffff,
	PowSpan:                 2016,
	PowTargetTimespan:       1_209_600,
	SubsidyHalvingInterval:  210_000,
	CoinbaseMaturity:        100,
	EpochBase:               1_577_836_800,
}

func regtestPowLimit() *big.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), 255)
	return limit.Sub(limit, big.NewInt(1))
}
