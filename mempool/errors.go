// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import "fmt"

// TxRuleErrorCode identifies a mempool-only admission rule, as opposed to a
// consensus rule enforced by package blockchain.
type TxRuleErrorCode int

const (
	// ErrDuplicateTx indicates a transaction with this id is already in
	// the pool.
	ErrDuplicateTx TxRuleErrorCode = iota

	// ErrCoinbaseTx indicates a coinbase transaction was submitted for
	// admission; coinbases only ever arrive already confirmed in a
	// block.
	ErrCoinbaseTx

	// ErrMempoolDoubleSpend indicates an input collides with one already
	// spent by another pending transaction.
	ErrMempoolDoubleSpend

	// ErrOrphanInput indicates an input references an outpoint with no
	// corresponding coin in the confirmed UTXO set at all, as opposed to
	// one that exists but fails maturity or value checks. Not held for
	// later retry — this pool rejects orphans outright — but classified
	// distinctly so a caller relaying transactions from peers knows it
	// may simply be missing a still-unconfirmed parent, not malformed.
	ErrOrphanInput

	// ErrPoolFull indicates the pool is already holding its configured
	// maximum number of transactions.
	ErrPoolFull
)

var txRuleErrorCodeNames = map[TxRuleErrorCode]string{
	ErrDuplicateTx:        "ErrDuplicateTx",
	ErrCoinbaseTx:         "ErrCoinbaseTx",
	ErrMempoolDoubleSpend: "ErrMempoolDoubleSpend",
	ErrOrphanInput:        "ErrOrphanInput",
	ErrPoolFull:           "ErrPoolFull",
}

// String returns the code's symbolic name for logging.
func (e TxRuleErrorCode) String() string {
	if name, ok := txRuleErrorCodeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("TxRuleErrorCode(%d)", int(e))
}

// TxRuleError identifies a mempool-only admission rule violation.
type TxRuleError struct {
	Code        TxRuleErrorCode
	Description string
}

// Error satisfies the error interface.
func (e TxRuleError) Error() string { return e.Description }

// Is reports whether target is a TxRuleError with the same Code.
func (e TxRuleError) Is(target error) bool {
	other, ok := target.(TxRuleError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

func txRuleError(c TxRuleErrorCode, desc string) TxRuleError {
	return TxRuleError{Code: c, Description: desc}
}

// RuleError is the error Push returns for any admission failure. Err is
// either a TxRuleError (a rule this package alone enforces) or a
// blockchain.RuleError (a consensus rule package blockchain also enforces
// when linking a block), letting a caller distinguish the two classes by
// type-asserting Err.
type RuleError struct {
	Err error
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	if e.Err == nil {
		return "mempool: rule violation"
	}
	return e.Err.Error()
}

// Unwrap lets errors.Is/errors.As reach the wrapped TxRuleError or
// blockchain.RuleError.
func (e RuleError) Unwrap() error { return e.Err }

func ruleError(err error) RuleError { return RuleError{Err: err} }
