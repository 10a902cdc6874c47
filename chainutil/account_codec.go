// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainutil

import (
	"bytes"
	"errors"
	"io"

	"github.com/btxsuite/btx/crypto"
)

// Encode serializes the account for embedding in a script's IN push: never
// the private keys, only n/m/arb, the present public keys, and any present
// signatures. This is the form OP_HASHER and OP_CHECKSIG operate on.
func (a *Account) Encode() ([]byte, error) {
	if len(a.Pubs) != int(a.N) || len(a.Sigs) != int(a.N) {
		return nil, errors.New("chainutil: account slot length mismatch")
	}
	var buf bytes.Buffer
	buf.WriteByte(a.N)
	buf.WriteByte(a.M)
	buf.WriteByte(a.Arb)
	for _, pub := range a.Pubs {
		if pub == nil {
			buf.WriteByte(0)
			continue
		}
		buf.WriteByte(1)
		buf.Write(pub.Bytes())
	}
	for _, sig := range a.Sigs {
		if sig == nil {
			buf.WriteByte(0)
			continue
		}
		if len(sig) > 0xFF {
			return nil, errors.New("chainutil: signature too long")
		}
		buf.WriteByte(1)
		buf.WriteByte(byte(len(sig)))
		buf.Write(sig)
	}
	return buf.Bytes(), nil
}

// DecodeAccount parses the byte form produced by Account.Encode.
func DecodeAccount(data []byte) (*Account, error) {
	r := bytes.NewReader(data)
	var hdr [3]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, errors.New("chainutil: truncated account header")
	}
	n, m, arb := hdr[0], hdr[1], hdr[2]
	if n < 1 || n > MaxAccountKeySize || m < 1 || m > n {
		return nil, errors.New("chainutil: invalid account n/m")
	}

	acc := &Account{
		N:    n,
		M:    m,
		Arb:  arb,
		Pubs: make([]*crypto.PublicKey, n),
		Sigs: make([]crypto.Signature, n),
	}

	for i := 0; i < int(n); i++ {
		present, err := r.ReadByte()
		if err != nil {
			return nil, errors.New("chainutil: truncated account pubkey flags")
		}
		if present == 0 {
			continue
		}
		var pk [crypto.PublicKeySize]byte
		if _, err := io.ReadFull(r, pk[:]); err != nil {
			return nil, errors.New("chainutil: truncated account pubkey")
		}
		pub, err := crypto.PublicKeyFromBytes(pk[:])
		if err != nil {
			return nil, err
		}
		acc.Pubs[i] = pub
	}

	for i := 0; i < int(n); i++ {
		present, err := r.ReadByte()
		if err != nil {
			return nil, errors.New("chainutil: truncated account sig flags")
		}
		if present == 0 {
			continue
		}
		l, err := r.ReadByte()
		if err != nil {
			return nil, errors.New("chainutil: truncated account sig length")
		}
		sig := make([]byte, l)
		if _, err := io.ReadFull(r, sig); err != nil {
			return nil, errors.New("chainutil: truncated account sig")
		}
		acc.Sigs[i] = sig
	}

	if err := acc.Check(); err != nil {
		return nil, err
	}
	return acc, nil
}

