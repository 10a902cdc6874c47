// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mempool provides an in-memory pool of pending, fully validated
transactions awaiting confirmation.

A key responsibility of the chain's mining and relay path is having a
readily-available source of transactions to include in the next block. This
package satisfies that by holding transactions that have passed structural,
script, and monetary validation against the confirmed UTXO set, ordered by
fee for iteration, and tracking enough state to reject double spends and
duplicates before they ever reach consensus validation.

# Feature overview

  - Reject duplicate, coinbase, and double-spending transactions before
    paying for full validation.
  - Full script execution and monetary validation via package blockchain,
    identical to the checks a candidate block's transactions undergo.
  - Fee-descending iteration, ties broken by insertion order.
  - Address-keyed lookup of pending (not yet spendable) outputs, for callers
    that want to show a user their incoming change before confirmation.
  - A bounded recently-rejected-id cache, so a caller relaying transactions
    from peers can skip re-fetching and re-validating something already
    known bad without holding every rejected transaction's full body.

# Errors

Errors returned by Push are either the raw errors from underlying calls or
of type RuleError. Since there are two classes of rules — mempool admission
rules and blockchain consensus rules — RuleError wraps a single Err field
that is, in turn, either a TxRuleError (a mempool-only rule) or a
blockchain.RuleError (a consensus rule also enforced when linking a block).
This lets a caller distinguish "this will never be valid" from "this isn't
valid yet" by type-asserting Err.
*/
package mempool
