// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainutil

// COIN is the number of base units in one whole coin.
const COIN = 1_000_000

// MaxMoney is the maximum transaction amount allowed in base units, and is
// the maximum number of base units that can ever exist.
const MaxMoney = 21_000_000 * COIN

// EpochBase is subtracted out of the real Unix time to form the header's
// packed, multiplier-scaled timestamp field. See wire.Header for the
// packing scheme.
const EpochBase = 1_577_836_800

// MaxAccountKeySize is the maximum number of key slots (n) an Account may
// declare.
const MaxAccountKeySize = 16

// CoinbaseMaturity is the number of confirmations a coinbase output must
// accumulate before it becomes spendable.
const CoinbaseMaturity = 100

// MaxBlockSize is the maximum permitted encoded size of a block, in bytes.
const MaxBlockSize = 4_000_000

// BaseSubsidy is the block subsidy at height 0, in base units. It halves
// every SubsidyHalvingInterval blocks, per chaincfg.Params.
const BaseSubsidy = 50 * COIN

// MaxHalvings is the number of halvings after which the subsidy is defined
// to be zero rather than keep halving a tiny integer towards 1 forever.
const MaxHalvings = 64
