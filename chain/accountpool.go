// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/chainutil"
)

// AccountPool resolves an address to the Account capability that owns it.
// The core never persists accounts itself; this is the injection point a
// caller uses to provide signing keys to helpers and account resolution
// for verification.
type AccountPool interface {
	Resolve(addr chainhash.Hash) (*chainutil.Account, bool)
}
