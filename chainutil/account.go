// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainutil

import (
	"errors"

	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/crypto"
)

// ArbDisabled is the sentinel Arb value meaning no arbiter key is
// configured.
const ArbDisabled = 0xFF

// Account is a signing capability: a threshold multisignature key group of
// up to MaxAccountKeySize slots, with an optional arbiter slot that alone
// may authorize spending when present. Optional key slots are plain nil
// pointers rather than a tri-state wrapper.
type Account struct {
	N    uint8 // total key slots, 1..=16
	M    uint8 // signature threshold, 1..=n
	Arb  uint8 // arbiter key index, or ArbDisabled

	Pris []*crypto.PrivateKey // parallel to Pubs, entries may be nil
	Pubs []*crypto.PublicKey  // entries may be nil until generated
	Sigs []crypto.Signature   // entries may be nil until signed
}

// NewAccount builds an Account with n key slots, an m-of-n threshold, and
// generates fresh keypairs for every slot. If useArb is true the last slot
// (index n-1) becomes the arbiter.
func NewAccount(n, m uint8, useArb bool) (*Account, error) {
	acc := &Account{
		N:    n,
		M:    m,
		Arb:  ArbDisabled,
		Pris: make([]*crypto.PrivateKey, n),
		Pubs: make([]*crypto.PublicKey, n),
		Sigs: make([]crypto.Signature, n),
	}
	for i := range acc.Pris {
		pk, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		acc.Pris[i] = pk
		acc.Pubs[i] = pk.PubKey()
	}
	if useArb {
		acc.Arb = n - 1
	}
	if err := acc.Check(); err != nil {
		return nil, err
	}
	return acc, nil
}

// UseArb reports whether the arbiter slot is enabled.
func (a *Account) UseArb() bool {
	return a.Arb != ArbDisabled
}

// Check validates the account's structural invariants.
func (a *Account) Check() error {
	if a.N < 1 || a.N > MaxAccountKeySize {
		return errors.New("chainutil: account n out of range")
	}
	if a.M < 1 || a.M > a.N {
		return errors.New("chainutil: account m out of range")
	}
	if a.UseArb() {
		if a.N < 2 {
			return errors.New("chainutil: arbiter requires at least two keys")
		}
		if a.Arb != a.N-1 {
			return errors.New("chainutil: arbiter must be the last key slot")
		}
	}
	if len(a.Pubs) != int(a.N) {
		return errors.New("chainutil: public key slot count mismatch")
	}
	return nil
}

// Address derives the account's 32-byte address: the double hash of the
// tuple (n, m, arb, hash of each public key in order).
func (a *Account) Address() (chainhash.Hash, error) {
	buf := make([]byte, 0, 3+int(a.N)*chainhash.HashSize)
	buf = append(buf, a.N, a.M, a.Arb)
	for _, pub := range a.Pubs {
		if pub == nil {
			return chainhash.Hash{}, errors.New("chainutil: missing public key")
		}
		h := chainhash.HashH(pub.Bytes())
		buf = append(buf, h[:]...)
	}
	return chainhash.HashH(buf), nil
}

// SignAll signs message with every available private key slot, storing the
// result in Sigs at the same index. Slots without a private key are left
// untouched.
func (a *Account) SignAll(message []byte) error {
	for i, pk := range a.Pris {
		if pk == nil {
			continue
		}
		sig, err := crypto.Sign(pk, message)
		if err != nil {
			return err
		}
		a.Sigs[i] = sig
	}
	return nil
}

// VerifyThreshold evaluates the account's signature acceptance rule against
// message: if the arbiter is enabled, the verdict is the arbiter's signature
// verdict alone (other signatures are ignored, per the source's verify());
// otherwise at least M of the N public keys must each verify some present
// signature, consumed in positional order (sigs[i] is checked only against
// pubs[i] — the source does not permit cross-slot signature reuse).
func (a *Account) VerifyThreshold(message []byte) bool {
	if a.UseArb() {
		idx := int(a.Arb)
		if idx >= len(a.Pubs) || idx >= len(a.Sigs) {
			return false
		}
		if a.Pubs[idx] == nil || a.Sigs[idx] == nil {
			return false
		}
		return crypto.Verify(a.Pubs[idx], message, a.Sigs[idx])
	}

	var matched uint8
	for i := range a.Pubs {
		if a.Pubs[i] == nil || a.Sigs[i] == nil {
			continue
		}
		if crypto.Verify(a.Pubs[i], message, a.Sigs[i]) {
			matched++
		}
	}
	return matched >= a.M
}
