// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain implements the structural, monetary, and script
// validation a block or transaction must pass before the indexer accepts
// it, plus the proof-of-work and retarget arithmetic (difficulty.go) that
// gates acceptance. Neither depends on how the caller stores its chain
// state; CoinSource is the only capability the validator asks for.
package blockchain

import (
	"time"

	"github.com/btxsuite/btx/chaincfg"
	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/chainutil"
	"github.com/btxsuite/btx/txvm"
	"github.com/btxsuite/btx/wire"
)

// CoinRef is the subset of a UTXO record the validator needs: enough to
// check maturity, ownership, and value without depending on the indexer's
// storage types.
type CoinRef struct {
	Value    int64
	Owner    chainhash.Hash
	Height   int32
	Coinbase bool
	Mempool  bool
}

// CoinSource resolves the unspent coin an input references. Implementations
// report ok=false for anything spent or unknown; a coin that exists only in
// the mempool is either reported with ok=false or returned with Mempool set,
// which the validator rejects as missing.
type CoinSource interface {
	Coin(txid chainhash.Hash, idx uint16) (CoinRef, bool)
}

// CalcSubsidy computes the block subsidy at height, halving every
// halvingInterval blocks and going to zero once MaxHalvings is reached.
func CalcSubsidy(height int32, halvingInterval int32) int64 {
	halvings := uint(height) / uint(halvingInterval)
	if halvings >= chainutil.MaxHalvings {
		return 0
	}
	return chainutil.BaseSubsidy >> halvings
}

// CheckHeaderSanity validates everything about a header that can be checked
// without chain context beyond the current wall clock: bits and merkle are
// checked contextually, against the computed block.
func CheckHeaderSanity(h *wire.Header, now time.Time, epochBase int64) error {
	if h.RealTime(epochBase) > now.Unix() {
		return ruleError(ErrBadTimestamp, "block timestamp is too far in the future")
	}
	return nil
}

// CheckHeaderContextual checks a header's bits against the value the
// retarget rule computes, and its proof-of-work against the decoded target.
func CheckHeaderContextual(h *wire.Header, id chainhash.Hash, expectedBits uint32, params *chaincfg.Params) error {
	if h.Bits != expectedBits {
		return ruleError(ErrBitsMismatch, "header bits does not match retarget rule")
	}
	return CheckProofOfWork(id, h.Bits, params.PowLimit)
}

// CheckBlockSanity validates everything about a block that does not
// require chain context: size, shape, coinbase placement, duplicate
// outpoints, and the merkle root.
func CheckBlockSanity(b *wire.Block) error {
	size, err := b.SerializeSize()
	if err != nil {
		return err
	}
	if size > chainutil.MaxBlockSize {
		return ruleError(ErrOversize, "block size exceeds the maximum permitted")
	}
	if len(b.Txs) == 0 || len(b.Txs) > wire.MaxTxPerBlock {
		return ruleError(ErrEmptyInOut, "block has no transactions")
	}
	if !b.Txs[0].IsCoinbase() {
		return ruleError(ErrCoinbaseMissing, "first transaction is not a coinbase")
	}
	for i := 1; i < len(b.Txs); i++ {
		if b.Txs[i].IsCoinbase() {
			return ruleError(ErrCoinbaseMissing, "coinbase transaction found outside first position")
		}
	}

	seen := make(map[chainhash.Hash]struct{})
	for ti := range b.Txs {
		tx := &b.Txs[ti]
		if err := CheckTxShape(tx); err != nil {
			return err
		}
		if tx.IsCoinbase() {
			continue
		}
		for _, in := range tx.Ins {
			key := outpointKey(in.Out, in.Idx)
			if _, dup := seen[key]; dup {
				return ruleError(ErrDuplicateOutpoint, "duplicate spent outpoint across block")
			}
			seen[key] = struct{}{}
		}
	}

	ids, err := b.TxIDs()
	if err != nil {
		return err
	}
	root := wire.MerkleRoot(ids)
	var zero chainhash.Hash
	if root == zero {
		return ruleError(ErrMerkleMismatch, "merkle root must not be zero")
	}
	if b.Header.Merkle != root {
		return ruleError(ErrMerkleMismatch, "header merkle root does not match computed root")
	}
	return nil
}

// outpointKey folds a (txid, idx) pair into a single map key.
func outpointKey(txid chainhash.Hash, idx uint16) chainhash.Hash {
	k := txid
	k[0] ^= byte(idx)
	k[1] ^= byte(idx >> 8)
	return k
}

// CheckTxShape validates the structural rules that apply to a single
// transaction in isolation: non-empty inputs/outputs, per-output value
// range, no duplicate inputs, and script kinds matching their role.
func CheckTxShape(tx *wire.Tx) error {
	if len(tx.Outs) == 0 {
		return ruleError(ErrEmptyInOut, "transaction has no outputs")
	}
	if tx.IsCoinbase() {
		if len(tx.Ins) != 1 {
			return ruleError(ErrCoinbaseMissing, "coinbase transaction must have exactly one input")
		}
	} else if len(tx.Ins) == 0 {
		return ruleError(ErrEmptyInOut, "non-coinbase transaction has no inputs")
	}

	seen := make(map[chainhash.Hash]struct{}, len(tx.Ins))
	for _, in := range tx.Ins {
		if !tx.IsCoinbase() {
			key := outpointKey(in.Out, in.Idx)
			if _, dup := seen[key]; dup {
				return ruleError(ErrDuplicateOutpoint, "duplicate input within transaction")
			}
			seen[key] = struct{}{}
		}
		kind, err := in.Script.Kind()
		if err != nil {
			return ruleError(ErrBadScriptKind, "input script missing type prefix")
		}
		if tx.IsCoinbase() {
			if kind != wire.KindCB {
				return ruleError(ErrBadScriptKind, "coinbase input must use CB script kind")
			}
		} else if kind != wire.KindIN {
			return ruleError(ErrBadScriptKind, "non-coinbase input must use IN script kind")
		}
	}

	for _, out := range tx.Outs {
		if out.Value < 0 || out.Value > chainutil.MaxMoney {
			return ruleError(ErrValueOutOfRange, "output value out of range")
		}
		kind, err := out.Script.Kind()
		if err != nil || kind != wire.KindOUT {
			return ruleError(ErrBadScriptKind, "output script must use OUT script kind")
		}
	}
	return nil
}

// CheckTxMonetaryAndScript resolves tx's inputs against coins, checks
// maturity and value arithmetic, executes the script VM for every input,
// and returns the transaction's fee (inputs minus outputs). height is the
// height tx would be confirmed at.
func CheckTxMonetaryAndScript(tx *wire.Tx, height int32, coins CoinSource, maturity int32) (int64, error) {
	if tx.IsCoinbase() {
		var sum int64
		for _, out := range tx.Outs {
			sum += out.Value
		}
		return 0, checkOverflow(sum)
	}

	var inSum int64
	for _, in := range tx.Ins {
		coin, ok := coins.Coin(in.Out, in.Idx)
		if !ok {
			return 0, ruleError(ErrCoinMissing, "referenced coin does not exist")
		}
		if coin.Mempool {
			return 0, ruleError(ErrCoinMissing, "referenced coin is mempool-only")
		}
		if coin.Coinbase && height-coin.Height < maturity {
			return 0, ruleError(ErrCoinImmature, "referenced coinbase coin is not yet mature")
		}
		inSum += coin.Value
		if err := checkOverflow(inSum); err != nil {
			return 0, err
		}

		env := &signEnv{message: buildSignMessage(tx, in, coin)}
		if err := txvm.Execute(in.Script, outputScriptFor(coin), env); err != nil {
			return 0, ruleError(ErrScriptFailed, "script execution failed: "+err.Error())
		}
	}

	var outSum int64
	for _, out := range tx.Outs {
		outSum += out.Value
		if err := checkOverflow(outSum); err != nil {
			return 0, err
		}
	}
	if outSum > inSum {
		return 0, ruleError(ErrFeeNegative, "transaction outputs exceed inputs")
	}
	return inSum - outSum, nil
}

func checkOverflow(v int64) error {
	if v < 0 || v > chainutil.MaxMoney {
		return ruleError(ErrValueOutOfRange, "value arithmetic out of range")
	}
	return nil
}

// outputScriptFor reconstructs the OUT script redeemed by an input from its
// resolved coin's owner address, for use in script execution. The coin
// source is expected to have stored exactly this when the output was
// created; the validator never trusts the spender's claim about it.
func outputScriptFor(coin CoinRef) wire.Script {
	var addr [32]byte
	copy(addr[:], coin.Owner[:])
	s, _ := wire.OUTScript(addr)
	return s
}

// signEnv adapts a precomputed signing message to the txvm.Environment
// capability.
type signEnv struct {
	message []byte
}

func (e *signEnv) VerifySign(acc *chainutil.Account) bool {
	return acc.VerifyThreshold(e.message)
}

// BuildSignMessage exposes buildSignMessage to callers outside this package
// that need to produce the same signing message a spend's script execution
// will verify against — signer helpers preparing a transaction for an
// account to sign before it is ever submitted for validation.
func BuildSignMessage(tx *wire.Tx, in wire.TxIn, coin CoinRef) []byte {
	return buildSignMessage(tx, in, coin)
}

// buildSignMessage constructs the canonical per-input signing message:
//
//	message = tx.ver
//	        ‖ H(concat over ins of {out, idx})
//	        ‖ encode_sign(this input)
//	        ‖ encode_sign(this input's referenced output)
//	        ‖ H(concat over outs of encode_sign(out))
func buildSignMessage(tx *wire.Tx, in wire.TxIn, coin CoinRef) []byte {
	var buf []byte
	buf = appendUint32(buf, tx.Ver)
	buf = append(buf, refsDigest(tx)...)
	buf = append(buf, encodeSignInput(in)...)
	buf = append(buf, encodeSignOutput(coin)...)
	buf = append(buf, outsDigest(tx)...)
	return buf
}

func refsDigest(tx *wire.Tx) []byte {
	var acc []byte
	for _, in := range tx.Ins {
		acc = append(acc, in.Out[:]...)
		acc = appendUint16(acc, in.Idx)
	}
	h := chainhash.HashH(acc)
	return h[:]
}

func outsDigest(tx *wire.Tx) []byte {
	var acc []byte
	for _, out := range tx.Outs {
		acc = appendInt64(acc, out.Value)
		acc = append(acc, out.Script...)
	}
	h := chainhash.HashH(acc)
	return h[:]
}

// encodeSignInput encodes an input for signing: its embedded account's
// public keys, never its signatures, so the message a signer signs does
// not depend on signatures not yet produced.
func encodeSignInput(in wire.TxIn) []byte {
	raw, err := wire.AccountBytesFromINScript(in.Script)
	if err != nil {
		return append([]byte(nil), in.Script...)
	}
	acc, err := chainutil.DecodeAccount(raw)
	if err != nil {
		return append([]byte(nil), in.Script...)
	}
	var buf []byte
	buf = append(buf, acc.N, acc.M, acc.Arb)
	for _, pub := range acc.Pubs {
		if pub != nil {
			buf = append(buf, pub.Bytes()...)
		}
	}
	return buf
}

// encodeSignOutput encodes the referenced output for signing: value and
// owner address, the only facts the spender commits to about it.
func encodeSignOutput(coin CoinRef) []byte {
	var buf []byte
	buf = appendInt64(buf, coin.Value)
	buf = append(buf, coin.Owner[:]...)
	return buf
}

func appendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendInt64(b []byte, v int64) []byte {
	u := uint64(v)
	return append(b, byte(u), byte(u>>8), byte(u>>16), byte(u>>24),
		byte(u>>32), byte(u>>40), byte(u>>48), byte(u>>56))
}
