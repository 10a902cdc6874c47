// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"encoding/binary"

	"github.com/btxsuite/btx/chainhash"
)

// KvIndex key namespace. Six logical key families share the kvindex's
// single flat keyspace: the best-tip marker, height -> id, block id ->
// attributes, transaction id -> attributes, outpoint -> coin, and the
// per-owner coin markers. A block id and a
// transaction id are both 32-byte hashes from the same space, so naively
// keying by the raw hash alone would let them collide. Every key here
// instead carries a one-byte family tag ahead of the hash, keeping the
// namespaces disjoint; see DESIGN.md.
const (
	familyBest       byte = 0x00
	familyHeight     byte = 0x01
	familyBlkAttr    byte = 0x02
	familyTxAttr     byte = 0x03
	familyCoin       byte = 0x04
	familyCoinByAddr byte = 0x05
)

func bestKey() []byte {
	return []byte{familyBest}
}

func heightKey(h int32) []byte {
	b := make([]byte, 5)
	b[0] = familyHeight
	binary.LittleEndian.PutUint32(b[1:], uint32(h))
	return b
}

func blkAttrKey(id chainhash.Hash) []byte {
	b := make([]byte, 1+chainhash.HashSize)
	b[0] = familyBlkAttr
	copy(b[1:], id[:])
	return b
}

func txAttrKey(txid chainhash.Hash) []byte {
	b := make([]byte, 1+chainhash.HashSize)
	b[0] = familyTxAttr
	copy(b[1:], txid[:])
	return b
}

// coinKey is the primary UTXO key: resolvable from a TxIn's (out, idx)
// alone, since that is all a spending input ever supplies.
func coinKey(txid chainhash.Hash, idx uint16) []byte {
	b := make([]byte, 1+chainhash.HashSize+2)
	b[0] = familyCoin
	copy(b[1:], txid[:])
	binary.LittleEndian.PutUint16(b[1+chainhash.HashSize:], idx)
	return b
}

// coinByAddrKey is a secondary marker index over the same coin, keyed
// owner-first so it can be prefix-scanned per address: {owner, txid, idx}
// concatenated after the family tag.
func coinByAddrKey(owner, txid chainhash.Hash, idx uint16) []byte {
	b := make([]byte, 1+chainhash.HashSize+chainhash.HashSize+2)
	b[0] = familyCoinByAddr
	copy(b[1:], owner[:])
	copy(b[1+chainhash.HashSize:], txid[:])
	binary.LittleEndian.PutUint16(b[1+2*chainhash.HashSize:], idx)
	return b
}

func coinByAddrPrefix(owner chainhash.Hash) []byte {
	b := make([]byte, 1+chainhash.HashSize)
	b[0] = familyCoinByAddr
	copy(b[1:], owner[:])
	return b
}
