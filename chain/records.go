// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain implements the chain indexer: tip tracking, the
// height-to-id and block/transaction attribute maps, UTXO maintenance, the
// reversible link/pop protocol, and the lock-guarded facade wrapping it.
// Built around a single writer-locked component gluing storage, cache,
// and validator together, with an explicit durable-record design.
package chain

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/store"
	"github.com/btxsuite/btx/wire"
)

// Best is the durable singleton recording the current tip.
type Best struct {
	ID     chainhash.Hash
	Height int32
}

// Bytes encodes Best: 32B id, i32 height.
func (b *Best) Bytes() []byte {
	buf := make([]byte, chainhash.HashSize+4)
	copy(buf, b.ID[:])
	binary.LittleEndian.PutUint32(buf[chainhash.HashSize:], uint32(b.Height))
	return buf
}

// BestFromBytes decodes a Best record.
func BestFromBytes(b []byte) (*Best, error) {
	if len(b) != chainhash.HashSize+4 {
		return nil, errors.New("chain: truncated best record")
	}
	best := &Best{}
	copy(best.ID[:], b[:chainhash.HashSize])
	best.Height = int32(binary.LittleEndian.Uint32(b[chainhash.HashSize:]))
	return best, nil
}

// locLen is the encoded size of a store.Loc: three little-endian uint32s.
const locLen = 12

func appendLoc(buf []byte, loc store.Loc) []byte {
	var b [locLen]byte
	binary.LittleEndian.PutUint32(b[0:4], loc.FileIdx)
	binary.LittleEndian.PutUint32(b[4:8], loc.Offset)
	binary.LittleEndian.PutUint32(b[8:12], loc.Len)
	return append(buf, b[:]...)
}

func readLoc(r io.Reader) (store.Loc, error) {
	var b [locLen]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return store.Loc{}, err
	}
	return store.Loc{
		FileIdx: binary.LittleEndian.Uint32(b[0:4]),
		Offset:  binary.LittleEndian.Uint32(b[4:8]),
		Len:     binary.LittleEndian.Uint32(b[8:12]),
	}, nil
}

// BlkAttr is the durable per-block record: its header, height, and the two
// segment locations holding its encoded body and undo batch.
type BlkAttr struct {
	Header wire.Header
	Height int32
	BlkLoc store.Loc
	RevLoc store.Loc
}

// Bytes encodes a BlkAttr: Header, i32 height, blk_loc, rev_loc.
func (a *BlkAttr) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Header.Serialize(&buf); err != nil {
		return nil, err
	}
	var h [4]byte
	binary.LittleEndian.PutUint32(h[:], uint32(a.Height))
	buf.Write(h[:])
	out := appendLoc(buf.Bytes(), a.BlkLoc)
	out = appendLoc(out, a.RevLoc)
	return out, nil
}

// BlkAttrFromBytes decodes a BlkAttr record.
func BlkAttrFromBytes(b []byte) (*BlkAttr, error) {
	r := bytes.NewReader(b)
	a := &BlkAttr{}
	if err := a.Header.Deserialize(r); err != nil {
		return nil, err
	}
	var h [4]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return nil, err
	}
	a.Height = int32(binary.LittleEndian.Uint32(h[:]))
	loc, err := readLoc(r)
	if err != nil {
		return nil, err
	}
	a.BlkLoc = loc
	loc, err = readLoc(r)
	if err != nil {
		return nil, err
	}
	a.RevLoc = loc
	return a, nil
}

// TxAttr is the durable per-transaction record: which block it confirmed in
// and its position there.
type TxAttr struct {
	BlockID    chainhash.Hash
	IdxInBlock uint16
}

// Bytes encodes a TxAttr: 32B block id, u16 index.
func (a *TxAttr) Bytes() []byte {
	buf := make([]byte, chainhash.HashSize+2)
	copy(buf, a.BlockID[:])
	binary.LittleEndian.PutUint16(buf[chainhash.HashSize:], a.IdxInBlock)
	return buf
}

// TxAttrFromBytes decodes a TxAttr record.
func TxAttrFromBytes(b []byte) (*TxAttr, error) {
	if len(b) != chainhash.HashSize+2 {
		return nil, errors.New("chain: truncated tx attr record")
	}
	a := &TxAttr{}
	copy(a.BlockID[:], b[:chainhash.HashSize])
	a.IdxInBlock = binary.LittleEndian.Uint16(b[chainhash.HashSize:])
	return a, nil
}

// Coin flag bits.
const (
	CoinFlagCoinbase uint8 = 1 << 0
	CoinFlagMempool  uint8 = 1 << 1
)

// CoinRecord is the persisted form of a UTXO entry. Resolving a spent coin
// from a TxIn only ever supplies (txid, idx), never the spending address,
// so the primary key here is the bare outpoint and Owner moves into the
// value instead of the key. See DESIGN.md for the full rationale.
type CoinRecord struct {
	Owner  chainhash.Hash
	Value  int64
	Flags  uint8
	Height int32
}

// Bytes encodes a CoinRecord: 32B owner, i64 value, u8 flags, i32 height.
func (c *CoinRecord) Bytes() []byte {
	buf := make([]byte, chainhash.HashSize+8+1+4)
	copy(buf, c.Owner[:])
	binary.LittleEndian.PutUint64(buf[chainhash.HashSize:], uint64(c.Value))
	buf[chainhash.HashSize+8] = c.Flags
	binary.LittleEndian.PutUint32(buf[chainhash.HashSize+9:], uint32(c.Height))
	return buf
}

// CoinRecordFromBytes decodes a CoinRecord.
func CoinRecordFromBytes(b []byte) (*CoinRecord, error) {
	const want = chainhash.HashSize + 8 + 1 + 4
	if len(b) != want {
		return nil, errors.New("chain: truncated coin record")
	}
	c := &CoinRecord{}
	copy(c.Owner[:], b[:chainhash.HashSize])
	c.Value = int64(binary.LittleEndian.Uint64(b[chainhash.HashSize:]))
	c.Flags = b[chainhash.HashSize+8]
	c.Height = int32(binary.LittleEndian.Uint32(b[chainhash.HashSize+9:]))
	return c, nil
}

// IsCoinbase reports whether the coin originated from a coinbase output.
func (c *CoinRecord) IsCoinbase() bool { return c.Flags&CoinFlagCoinbase != 0 }

// IsMempool reports whether the coin is a mempool-only, non-spendable
// projection rather than a confirmed UTXO.
func (c *CoinRecord) IsMempool() bool { return c.Flags&CoinFlagMempool != 0 }
