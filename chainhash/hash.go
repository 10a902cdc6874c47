// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainhash provides the 32-byte hash type used throughout the
// chain: block and transaction identifiers, merkle nodes, and the target
// arithmetic proof-of-work depends on.
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// HashSize is the number of bytes in a hash.
const HashSize = 32

// MaxHashStringSize is the maximum length of a Hash hash string.
const MaxHashStringSize = HashSize * 2

// ErrHashStrSize describes an error that indicates the caller specified a
// hash string that has too many characters.
var ErrHashStrSize = fmt.Errorf("max hash string length is %v bytes", MaxHashStringSize)

// Hash is used in several of the chain's data structures and represents
// the double hash of data.
type Hash [HashSize]byte

// String returns the Hash as the hexadecimal string of the byte-reversed
// hash, matching the convention used when block and tx identifiers are
// displayed to humans.
func (h Hash) String() string {
	var hexHash Hash
	for i := 0; i < HashSize/2; i++ {
		hexHash[i], hexHash[HashSize-1-i] = h[HashSize-1-i], h[i]
	}
	return hex.EncodeToString(hexHash[:])
}

// CloneBytes returns a copy of the bytes which represent the hash as a byte
// slice.
func (h *Hash) CloneBytes() []byte {
	newHash := make([]byte, HashSize)
	copy(newHash, h[:])
	return newHash
}

// SetBytes sets the bytes which represent the hash. An error is returned if
// the number of bytes passed in is not HashSize.
func (h *Hash) SetBytes(newHash []byte) error {
	nhlen := len(newHash)
	if nhlen != HashSize {
		return fmt.Errorf("invalid hash length of %v, want %v", nhlen, HashSize)
	}
	copy(h[:], newHash)
	return nil
}

// IsEqual returns true if target is the same as the hash.
func (h *Hash) IsEqual(target *Hash) bool {
	if h == nil && target == nil {
		return true
	}
	if h == nil || target == nil {
		return false
	}
	return *h == *target
}

// NewHash returns a new Hash from a byte slice.
func NewHash(newHash []byte) (*Hash, error) {
	var sh Hash
	if err := sh.SetBytes(newHash); err != nil {
		return nil, err
	}
	return &sh, nil
}

// NewHashFromStr creates a Hash from a hash string. The string should be
// the hexadecimal string of a byte-reversed hash, but any missing
// characters result in zero padding at the end of the hash.
func NewHashFromStr(hash string) (*Hash, error) {
	ret := new(Hash)
	if err := Decode(ret, hash); err != nil {
		return nil, err
	}
	return ret, nil
}

// Decode decodes the byte-reversed hexadecimal string encoding of a Hash to
// a destination.
func Decode(dst *Hash, src string) error {
	if len(src) > MaxHashStringSize {
		return ErrHashStrSize
	}

	var srcBytes []byte
	if len(src)%2 == 0 {
		srcBytes = []byte(src)
	} else {
		srcBytes = make([]byte, 1+len(src))
		srcBytes[0] = '0'
		copy(srcBytes[1:], src)
	}

	var reversedHash Hash
	_, err := hex.Decode(reversedHash[HashSize-hex.DecodedLen(len(srcBytes)):], srcBytes)
	if err != nil {
		return err
	}

	for i, b := range reversedHash[:HashSize/2] {
		reversedHash[i], reversedHash[HashSize-1-i] = reversedHash[HashSize-1-i], b
	}
	*dst = reversedHash
	return nil
}

// HashB calculates the double SHA-256 hash of the passed byte slice and
// returns it. This is the "hash primitive" the rest of the chain treats as
// opaque, doubled per the double-invocation requirement.
func HashB(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// HashH calculates the double SHA-256 hash of the passed byte slice and
// returns it as a Hash.
func HashH(b []byte) Hash {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// Big interprets the hash as a 256-bit unsigned integer in little-endian
// byte order, as required for proof-of-work and difficulty comparisons.
func (h Hash) Big() *big.Int {
	buf := make([]byte, HashSize)
	for i := 0; i < HashSize; i++ {
		buf[i] = h[HashSize-1-i]
	}
	return new(big.Int).SetBytes(buf)
}

// SetBig stores n, interpreted as a little-endian 256-bit unsigned integer,
// into the hash. n must fit within HashSize bytes; larger values are
// truncated to their low-order bytes.
func (h *Hash) SetBig(n *big.Int) {
	buf := n.Bytes()
	for i, j := 0, len(buf)-1; i < HashSize; i++ {
		if j < 0 {
			h[i] = 0
			continue
		}
		h[i] = buf[j]
		j--
	}
}

// Cmp compares two hashes interpreted as little-endian 256-bit unsigned
// integers, returning -1, 0 or 1 as h is less than, equal to, or greater
// than o. This is used to compare a block identifier against a decoded
// proof-of-work target.
func (h Hash) Cmp(o Hash) int {
	for i := HashSize - 1; i >= 0; i-- {
		if h[i] != o[i] {
			if h[i] < o[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
