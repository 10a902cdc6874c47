// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crypto supplies the concrete signing primitive the core chain
// treats as opaque. The chain packages (txvm, blockchain, chain) never
// import this package directly; signature checks reach them through the
// txvm.Environment capability interface, and this package is the secp256k1
// implementation that chainutil.Account signs and verifies with.
package crypto

import (
	"crypto/rand"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/btxsuite/btx/chainhash"
)

// PrivateKeySize is the length in bytes of a serialized private key.
const PrivateKeySize = 32

// PublicKeySize is the length in bytes of a compressed serialized public
// key.
const PublicKeySize = 33

// SignatureMaxSize bounds the length of a DER-encoded ECDSA signature as
// produced by Sign.
const SignatureMaxSize = 72

// PrivateKey wraps a secp256k1 scalar.
type PrivateKey struct {
	key secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 point.
type PublicKey struct {
	key secp256k1.PublicKey
}

// GeneratePrivateKey returns a fresh, randomly generated private key.
func GeneratePrivateKey() (*PrivateKey, error) {
	var buf [PrivateKeySize]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, err
	}
	return PrivateKeyFromBytes(buf[:])
}

// PrivateKeyFromBytes parses a 32-byte scalar into a PrivateKey.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, errors.New("crypto: invalid private key length")
	}
	priv := secp256k1.PrivKeyFromBytes(b)
	return &PrivateKey{key: *priv}, nil
}

// Bytes returns the 32-byte serialized scalar.
func (p *PrivateKey) Bytes() []byte {
	b := p.key.Serialize()
	return b[:]
}

// PubKey derives the public key corresponding to p.
func (p *PrivateKey) PubKey() *PublicKey {
	pub := p.key.PubKey()
	return &PublicKey{key: *pub}
}

// PublicKeyFromBytes parses a compressed 33-byte public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, errors.New("crypto: invalid public key length")
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, err
	}
	return &PublicKey{key: *pub}, nil
}

// Bytes returns the 33-byte compressed serialization of the public key.
func (p *PublicKey) Bytes() []byte {
	return p.key.SerializeCompressed()
}

// Signature is a DER-encoded ECDSA signature.
type Signature []byte

// Sign produces a deterministic (RFC6979) ECDSA signature over msg's
// double-SHA256 digest, DER-encoded.
func Sign(priv *PrivateKey, msg []byte) (Signature, error) {
	digest := chainhash.HashB(msg)
	sig := ecdsa.Sign(&priv.key, digest)
	return Signature(sig.Serialize()), nil
}

// Verify reports whether sig is a valid signature by pub over msg's
// double-SHA256 digest.
func Verify(pub *PublicKey, msg []byte, sig Signature) bool {
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := chainhash.HashB(msg)
	return parsed.Verify(digest, &pub.key)
}
