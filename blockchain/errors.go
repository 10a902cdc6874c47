// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "fmt"

// ErrorCode identifies a kind of rule violation detected while validating a
// header, block, or transaction, or while indexing a block into the chain.
type ErrorCode int

// Error codes. The first block covers structural, monetary, script, and
// proof-of-work failures raised by this package's validator and difficulty
// code; the indexer-level failures (ErrBlockExists, ErrPrevMismatch,
// ErrGenesisPopAttempted) are raised by package chain but share this type so
// callers can match on ErrorCode uniformly.
const (
	// ErrBlockExists indicates the block being linked is already present
	// in the index.
	ErrBlockExists ErrorCode = iota

	// ErrPrevMismatch indicates a block's header.prev does not match the
	// current tip's id.
	ErrPrevMismatch

	// ErrBitsMismatch indicates a header's bits field does not match the
	// value the retarget rule computes.
	ErrBitsMismatch

	// ErrPowInsufficient indicates a block's id does not satisfy its
	// declared target, or its target exceeds pow_limit.
	ErrPowInsufficient

	// ErrMerkleMismatch indicates a block's header merkle root does not
	// match the root computed from its transactions.
	ErrMerkleMismatch

	// ErrOversize indicates a block's encoded size exceeds MAX_BLOCK_SIZE.
	ErrOversize

	// ErrCoinbaseMissing indicates a block's first transaction is not a
	// coinbase, or a later transaction is.
	ErrCoinbaseMissing

	// ErrValueOutOfRange indicates an output value is negative or exceeds
	// MAX_MONEY.
	ErrValueOutOfRange

	// ErrFeeNegative indicates a non-coinbase transaction's outputs sum
	// to more than its inputs.
	ErrFeeNegative

	// ErrScriptFailed indicates script execution for some input did not
	// conclude in a verified signature.
	ErrScriptFailed

	// ErrCoinMissing indicates an input references an outpoint with no
	// corresponding unspent coin record.
	ErrCoinMissing

	// ErrCoinImmature indicates an input spends a coinbase output before
	// it has reached CoinbaseMaturity confirmations.
	ErrCoinImmature

	// ErrDuplicateOutpoint indicates two inputs, within a block or a
	// single transaction, reference the same outpoint.
	ErrDuplicateOutpoint

	// ErrGenesisPopAttempted indicates a pop was requested while the tip
	// is the genesis block.
	ErrGenesisPopAttempted

	// ErrBadTimestamp indicates a header's timestamp is after the
	// current wall-clock time.
	ErrBadTimestamp

	// ErrEmptyInOut indicates a transaction has no inputs or no outputs.
	ErrEmptyInOut

	// ErrBadScriptKind indicates a script's declared Kind does not match
	// the role it is used in (CB/IN/OUT).
	ErrBadScriptKind
)

var errorCodeNames = map[ErrorCode]string{
	ErrBlockExists:         "ErrBlockExists",
	ErrPrevMismatch:        "ErrPrevMismatch",
	ErrBitsMismatch:        "ErrBitsMismatch",
	ErrPowInsufficient:     "ErrPowInsufficient",
	ErrMerkleMismatch:      "ErrMerkleMismatch",
	ErrOversize:            "ErrOversize",
	ErrCoinbaseMissing:     "ErrCoinbaseMissing",
	ErrValueOutOfRange:     "ErrValueOutOfRange",
	ErrFeeNegative:         "ErrFeeNegative",
	ErrScriptFailed:        "ErrScriptFailed",
	ErrCoinMissing:         "ErrCoinMissing",
	ErrCoinImmature:        "ErrCoinImmature",
	ErrDuplicateOutpoint:   "ErrDuplicateOutpoint",
	ErrGenesisPopAttempted: "ErrGenesisPopAttempted",
	ErrBadTimestamp:        "ErrBadTimestamp",
	ErrEmptyInOut:          "ErrEmptyInOut",
	ErrBadScriptKind:       "ErrBadScriptKind",
}

// String returns the ErrorCode's symbolic name for logging.
func (e ErrorCode) String() string {
	if name, ok := errorCodeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(e))
}

// RuleError identifies a rule violation. It carries both a machine-
// comparable Code and a human Description.
type RuleError struct {
	Code        ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

// Is reports whether target is a RuleError with the same Code, letting
// callers use errors.Is(err, blockchain.RuleError{Code: blockchain.ErrOversize}).
func (e RuleError) Is(target error) bool {
	other, ok := target.(RuleError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// ruleError creates a RuleError for the given code and description.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{Code: c, Description: desc}
}
