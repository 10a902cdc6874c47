// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"errors"
	"io"

	"github.com/btxsuite/btx/chainhash"
)

// MaxTxPerBlock is the maximum number of transactions a block may contain.
const MaxTxPerBlock = 65535

// Block is a header plus its transactions.
type Block struct {
	Header Header
	Txs    []Tx
}

// ID is the block identifier: the hash of the header.
func (b *Block) ID() chainhash.Hash {
	return b.Header.BlockID()
}

// Serialize writes the encoded block to w: Header, u16 tx_count, txs.
func (b *Block) Serialize(w io.Writer) error {
	if err := b.Header.Serialize(w); err != nil {
		return err
	}
	if len(b.Txs) > MaxTxPerBlock {
		return errors.New("wire: too many transactions in block")
	}
	if err := writeUint16(w, uint16(len(b.Txs))); err != nil {
		return err
	}
	for i := range b.Txs {
		if err := b.Txs[i].Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize reads an encoded block from r.
func (b *Block) Deserialize(r io.Reader) error {
	if err := b.Header.Deserialize(r); err != nil {
		return err
	}
	count, err := readUint16(r)
	if err != nil {
		return err
	}
	if count == 0 {
		return errors.New("wire: block has no transactions")
	}
	b.Txs = make([]Tx, count)
	for i := range b.Txs {
		if err := b.Txs[i].Deserialize(r); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the encoded block.
func (b *Block) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BlockFromBytes decodes a Block from its encoded form.
func BlockFromBytes(raw []byte) (*Block, error) {
	b := new(Block)
	if err := b.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return b, nil
}

// SerializeSize returns the byte length of the encoded block, for the
// MAX_BLOCK_SIZE check.
func (b *Block) SerializeSize() (int, error) {
	raw, err := b.Bytes()
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

// MerkleRoot computes the merkle tree root over a list of transaction
// identifiers, duplicating the right sibling on odd-length rows.
func MerkleRoot(ids []chainhash.Hash) chainhash.Hash {
	if len(ids) == 0 {
		return chainhash.Hash{}
	}
	level := make([]chainhash.Hash, len(ids))
	copy(level, ids)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := range next {
			var buf [chainhash.HashSize * 2]byte
			copy(buf[:chainhash.HashSize], level[2*i][:])
			copy(buf[chainhash.HashSize:], level[2*i+1][:])
			next[i] = chainhash.HashH(buf[:])
		}
		level = next
	}
	return level[0]
}

// TxIDs returns the transaction identifiers of every tx in b, in order.
func (b *Block) TxIDs() ([]chainhash.Hash, error) {
	ids := make([]chainhash.Hash, len(b.Txs))
	for i := range b.Txs {
		id, err := b.Txs[i].ID()
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
