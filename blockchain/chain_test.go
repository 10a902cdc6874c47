// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"testing"
	"time"

	"github.com/btxsuite/btx/chaincfg"
	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/chainutil"
	"github.com/btxsuite/btx/wire"
	"github.com/stretchr/testify/require"
)

func TestCalcSubsidy(t *testing.T) {
	tests := []struct {
		name   string
		height int32
		want   int64
	}{
		{"genesis", 0, chainutil.BaseSubsidy},
		{"just before first halving", 209_999, chainutil.BaseSubsidy},
		{"first halving", 210_000, chainutil.BaseSubsidy / 2},
		{"second halving", 420_000, chainutil.BaseSubsidy / 4},
		{"exhausted", 210_000 * chainutil.MaxHalvings, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CalcSubsidy(tc.height, 210_000))
		})
	}
}

func TestCompactBigRoundTrip(t *testing.T) {
	tests := []uint32{0x1d00ffff, 0x207fffff, 0x1b0404cb, 0x01010000}
	for _, bits := range tests {
		n := CompactToBig(bits)
		require.Equal(t, bits, BigToCompact(n))
	}
}

func TestCalcWorkMonotonic(t *testing.T) {
	easy := CalcWork(0x207fffff)
	hard := CalcWork(0x1d00ffff)
	require.Equal(t, 1, hard.Cmp(easy), "a lower target (harder) must accumulate more work")
}

func TestCheckProofOfWork(t *testing.T) {
	powLimit := chaincfg.RegressionNetParams.PowLimit
	bits := chaincfg.RegressionNetParams.PowLimitBits

	var low chainhash.Hash
	low[31] = 0x01
	require.NoError(t, CheckProofOfWork(low, bits, powLimit))

	var high chainhash.Hash
	for i := range high {
		high[i] = 0xff
	}
	err := CheckProofOfWork(high, bits, powLimit)
	require.ErrorIs(t, err, RuleError{Code: ErrPowInsufficient})

	overLimit := new(big.Int).Add(powLimit, big.NewInt(1))
	err = CheckProofOfWork(low, BigToCompact(overLimit), powLimit)
	require.ErrorIs(t, err, RuleError{Code: ErrPowInsufficient})
}

func TestCalcNextBitsClampsSpan(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	lastBits := params.PowLimitBits

	// A span far shorter than expected should tighten the target (lower
	// value), clamped at MinRetargetTimespan.
	tightened := CalcNextBits(lastBits, 1000, 0, params)
	tightTarget := CompactToBig(tightened)
	require.True(t, tightTarget.Cmp(params.PowLimit) <= 0)

	// A span far longer than expected should loosen the target, but never
	// past PowLimit, whose compact encoding is PowLimitBits.
	loosened := CalcNextBits(lastBits, params.PowTargetTimespan*100, 0, params)
	require.Equal(t, params.PowLimitBits, loosened)
}

func TestCheckHeaderSanity(t *testing.T) {
	epochBase := chaincfg.RegressionNetParams.EpochBase
	now := time.Unix(epochBase+1000, 0)

	h := &wire.Header{Ver: wire.PackVer(1, 1), Time: 500}
	require.NoError(t, CheckHeaderSanity(h, now, epochBase))

	future := &wire.Header{Ver: wire.PackVer(1, 1), Time: 5000}
	err := CheckHeaderSanity(future, now, epochBase)
	require.ErrorIs(t, err, RuleError{Code: ErrBadTimestamp})
}

func TestCheckHeaderContextual(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	h := &wire.Header{Bits: params.PowLimitBits}

	var id chainhash.Hash
	id[31] = 1
	require.NoError(t, CheckHeaderContextual(h, id, params.PowLimitBits, params))

	err := CheckHeaderContextual(h, id, params.PowLimitBits+1, params)
	require.ErrorIs(t, err, RuleError{Code: ErrBitsMismatch})
}

// fakeCoinSource is an in-memory CoinSource for validator tests.
type fakeCoinSource map[chainhash.Hash]CoinRef

func (f fakeCoinSource) key(txid chainhash.Hash, idx uint16) chainhash.Hash {
	k := txid
	k[0] ^= byte(idx)
	k[1] ^= byte(idx >> 8)
	return k
}

func (f fakeCoinSource) Coin(txid chainhash.Hash, idx uint16) (CoinRef, bool) {
	c, ok := f[f.key(txid, idx)]
	return c, ok
}

func (f fakeCoinSource) put(txid chainhash.Hash, idx uint16, c CoinRef) {
	f[f.key(txid, idx)] = c
}

// buildSpendingTx creates a single-input, single-output transaction spending
// coin from acc, signs it, and returns both the tx and the outpoint the
// caller should register in a fakeCoinSource.
func buildSpendingTx(t *testing.T, acc *chainutil.Account, value int64) (*wire.Tx, chainhash.Hash) {
	t.Helper()

	var spentTxid chainhash.Hash
	spentTxid[0] = 0xAB

	inScript, err := wire.INScript(acc)
	require.NoError(t, err)

	var payout [32]byte
	payout[0] = 0xCD
	outScript, err := wire.OUTScript(payout)
	require.NoError(t, err)

	tx := &wire.Tx{
		Ver:  1,
		Ins:  []wire.TxIn{{Out: spentTxid, Idx: 0, Script: inScript, Seq: 0xffffffff}},
		Outs: []wire.TxOut{{Value: value - 1000, Script: outScript}},
	}

	addr, err := acc.Address()
	require.NoError(t, err)
	coin := CoinRef{Value: value, Owner: addr, Height: 1}
	msg := buildSignMessage(tx, tx.Ins[0], coin)
	require.NoError(t, acc.SignAll(msg))

	signedScript, err := wire.INScript(acc)
	require.NoError(t, err)
	tx.Ins[0].Script = signedScript

	return tx, spentTxid
}

func TestCheckTxMonetaryAndScriptAcceptsValidSpend(t *testing.T) {
	acc, err := chainutil.NewAccount(1, 1, false)
	require.NoError(t, err)

	tx, spentTxid := buildSpendingTx(t, acc, 100_000)
	addr, err := acc.Address()
	require.NoError(t, err)

	coins := fakeCoinSource{}
	coins.put(spentTxid, 0, CoinRef{Value: 100_000, Owner: addr, Height: 1})

	fee, err := CheckTxMonetaryAndScript(tx, 10, coins, 100)
	require.NoError(t, err)
	require.Equal(t, int64(1000), fee)
}

func TestCheckTxMonetaryAndScriptRejectsImmatureCoinbase(t *testing.T) {
	acc, err := chainutil.NewAccount(1, 1, false)
	require.NoError(t, err)

	tx, spentTxid := buildSpendingTx(t, acc, 100_000)
	addr, err := acc.Address()
	require.NoError(t, err)

	coins := fakeCoinSource{}
	coins.put(spentTxid, 0, CoinRef{Value: 100_000, Owner: addr, Height: 1, Coinbase: true})

	_, err = CheckTxMonetaryAndScript(tx, 10, coins, 100)
	require.ErrorIs(t, err, RuleError{Code: ErrCoinImmature})
}

func TestCheckTxMonetaryAndScriptRejectsMissingCoin(t *testing.T) {
	acc, err := chainutil.NewAccount(1, 1, false)
	require.NoError(t, err)

	tx, _ := buildSpendingTx(t, acc, 100_000)

	_, err = CheckTxMonetaryAndScript(tx, 10, fakeCoinSource{}, 100)
	require.ErrorIs(t, err, RuleError{Code: ErrCoinMissing})
}

func TestCheckTxMonetaryAndScriptRejectsBadSignature(t *testing.T) {
	acc, err := chainutil.NewAccount(1, 1, false)
	require.NoError(t, err)

	tx, spentTxid := buildSpendingTx(t, acc, 100_000)
	addr, err := acc.Address()
	require.NoError(t, err)

	// Tamper with the output value after signing, invalidating the sole
	// signature's message binding.
	tx.Outs[0].Value--

	coins := fakeCoinSource{}
	coins.put(spentTxid, 0, CoinRef{Value: 100_000, Owner: addr, Height: 1})

	_, err = CheckTxMonetaryAndScript(tx, 10, coins, 100)
	require.ErrorIs(t, err, RuleError{Code: ErrScriptFailed})
}

func TestCheckTxShapeRejectsDuplicateInputs(t *testing.T) {
	acc, err := chainutil.NewAccount(1, 1, false)
	require.NoError(t, err)
	inScript, err := wire.INScript(acc)
	require.NoError(t, err)

	var payout [32]byte
	outScript, err := wire.OUTScript(payout)
	require.NoError(t, err)

	var txid chainhash.Hash
	tx := &wire.Tx{
		Ver: 1,
		Ins: []wire.TxIn{
			{Out: txid, Idx: 0, Script: inScript, Seq: 1},
			{Out: txid, Idx: 0, Script: inScript, Seq: 2},
		},
		Outs: []wire.TxOut{{Value: 1, Script: outScript}},
	}
	err = CheckTxShape(tx)
	require.ErrorIs(t, err, RuleError{Code: ErrDuplicateOutpoint})
}

func TestCheckTxShapeRejectsValueOutOfRange(t *testing.T) {
	acc, err := chainutil.NewAccount(1, 1, false)
	require.NoError(t, err)
	inScript, err := wire.INScript(acc)
	require.NoError(t, err)

	var payout [32]byte
	outScript, err := wire.OUTScript(payout)
	require.NoError(t, err)

	var txid chainhash.Hash
	txid[0] = 1
	tx := &wire.Tx{
		Ver:  1,
		Ins:  []wire.TxIn{{Out: txid, Idx: 0, Script: inScript, Seq: 1}},
		Outs: []wire.TxOut{{Value: -1, Script: outScript}},
	}
	err = CheckTxShape(tx)
	require.ErrorIs(t, err, RuleError{Code: ErrValueOutOfRange})
}

func TestRuleErrorIs(t *testing.T) {
	err := ruleError(ErrOversize, "block too big")
	require.ErrorIs(t, err, RuleError{Code: ErrOversize})
	require.NotErrorIs(t, err, RuleError{Code: ErrMerkleMismatch})
}
