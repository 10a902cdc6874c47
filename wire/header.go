// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the binary encodings for the chain's durable and
// on-disk data types: headers, blocks, transactions and scripts. Every
// multi-byte integer is little-endian, per the encoding scheme the core
// indexer and segmented store depend on byte-for-byte.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/btxsuite/btx/chainhash"
)

// HeaderLen is the fixed encoded size of a Header: 4 (ver) + 32 (prev) +
// 32 (merkle) + 4 (time) + 4 (bits) + 4 (nonce).
const HeaderLen = 4 + chainhash.HashSize*2 + 4 + 4 + 4

// Header is a block header. Ver packs a timestamp-epoch multiplier in its
// high 16 bits and a body version in its low 16 bits; the real Unix
// timestamp of the block is Multiplier()*EpochBase + Time.
type Header struct {
	Ver    uint32
	Prev   chainhash.Hash
	Merkle chainhash.Hash
	Time   uint32
	Bits   uint32
	Nonce  uint32
}

// PackVer combines an epoch multiplier and a body version into the packed
// Ver field.
func PackVer(multiplier, bodyVersion uint16) uint32 {
	return uint32(multiplier)<<16 | uint32(bodyVersion)
}

// Multiplier returns the epoch multiplier packed into Ver.
func (h *Header) Multiplier() uint16 {
	return uint16(h.Ver >> 16)
}

// BodyVersion returns the transaction/body version packed into Ver.
func (h *Header) BodyVersion() uint16 {
	return uint16(h.Ver & 0xFFFF)
}

// RealTime returns the Unix timestamp the header represents.
func (h *Header) RealTime(epochBase int64) int64 {
	return int64(h.Multiplier())*epochBase + int64(h.Time)
}

// BlockID computes the block identifier: the double hash of the encoded
// header.
func (h *Header) BlockID() chainhash.Hash {
	buf, _ := h.Bytes()
	return chainhash.HashH(buf)
}

// Serialize writes the 80-byte encoded header to w.
func (h *Header) Serialize(w io.Writer) error {
	var buf [HeaderLen]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Ver)
	copy(buf[4:36], h.Prev[:])
	copy(buf[36:68], h.Merkle[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Time)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	_, err := w.Write(buf[:])
	return err
}

// Deserialize reads an 80-byte encoded header from r.
func (h *Header) Deserialize(r io.Reader) error {
	var buf [HeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	h.Ver = binary.LittleEndian.Uint32(buf[0:4])
	copy(h.Prev[:], buf[4:36])
	copy(h.Merkle[:], buf[36:68])
	h.Time = binary.LittleEndian.Uint32(buf[68:72])
	h.Bits = binary.LittleEndian.Uint32(buf[72:76])
	h.Nonce = binary.LittleEndian.Uint32(buf[76:80])
	return nil
}

// Bytes returns the encoded header.
func (h *Header) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HeaderFromBytes decodes a Header from its encoded form.
func HeaderFromBytes(b []byte) (*Header, error) {
	if len(b) < HeaderLen {
		return nil, errors.New("wire: truncated header")
	}
	h := new(Header)
	if err := h.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return h, nil
}
