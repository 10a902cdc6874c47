// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package kvindex

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// Inverse record type tags, used by the undo log to record how to
// reverse each write a batch applied.
const (
	invTagPut byte = 0x01
	invTagDel byte = 0x02
)

// Batch accumulates pending mutations for one atomic KvIndex.Write. When
// built with NewBatch(true), every tracked Put/Del also records its
// symmetric inverse, serializable via Serialize for the undo segment.
type Batch struct {
	ldb     *leveldb.Batch
	inverse bool
	invOps  []invOp
}

type invOp struct {
	tag   byte
	key   []byte
	value []byte
}

// NewBatch creates an empty batch. inverse enables inverse-record tracking
// for Put/Del, used when building the batch that links a block.
func NewBatch(inverse bool) *Batch {
	return &Batch{ldb: new(leveldb.Batch), inverse: inverse}
}

// Put stages key=value. priorValue is the value key held before this write,
// or nil if key did not previously exist; it determines the inverse
// operation (put-back vs delete) when the batch tracks inverses.
func (b *Batch) Put(key, value, priorValue []byte) error {
	if len(key) > MaxKeyLen {
		return ErrKeyTooLarge
	}
	if len(value) > MaxValueLen {
		return ErrValueTooLarge
	}
	b.ldb.Put(key, value)
	if b.inverse {
		if priorValue == nil {
			b.invOps = append(b.invOps, invOp{tag: invTagDel, key: clone(key)})
		} else {
			b.invOps = append(b.invOps, invOp{tag: invTagPut, key: clone(key), value: clone(priorValue)})
		}
	}
	return nil
}

// Del stages a deletion of key. priorValue is the value key held before
// this write; the inverse of a delete is always putting it back.
func (b *Batch) Del(key, priorValue []byte) {
	b.ldb.Delete(key)
	if b.inverse {
		b.invOps = append(b.invOps, invOp{tag: invTagPut, key: clone(key), value: clone(priorValue)})
	}
}

// PutUntracked stages key=value without recording an inverse entry, for
// writes the undo protocol deliberately does not reverse (the indexer's own
// BlkAttr entry on link).
func (b *Batch) PutUntracked(key, value []byte) error {
	if len(key) > MaxKeyLen {
		return ErrKeyTooLarge
	}
	if len(value) > MaxValueLen {
		return ErrValueTooLarge
	}
	b.ldb.Put(key, value)
	return nil
}

// DelUntracked stages a deletion of key without recording an inverse entry
// (pop's own deletion of the popped tip's BlkAttr).
func (b *Batch) DelUntracked(key []byte) {
	b.ldb.Delete(key)
}

// Serialize encodes the batch's accumulated inverse operations in a
// type-tagged stream format: {0x01, u16 klen, key, u16 vlen, value} for
// put, {0x02, u16 klen, key} for delete.
func (b *Batch) Serialize() ([]byte, error) {
	var out []byte
	for _, op := range b.invOps {
		if len(op.key) > MaxKeyLen || len(op.value) > MaxValueLen {
			return nil, errors.New("kvindex: inverse record exceeds length limit")
		}
		out = append(out, op.tag)
		out = appendUint16(out, uint16(len(op.key)))
		out = append(out, op.key...)
		if op.tag == invTagPut {
			out = appendUint16(out, uint16(len(op.value)))
			out = append(out, op.value...)
		}
	}
	return out, nil
}

// ParseInverseBatch decodes a serialized inverse stream back into a Batch
// ready to be replayed and committed: every 0x01 record becomes a staged
// Put, every 0x02 record a staged Del. The returned batch is not itself
// inverse-tracked — it is meant for a one-shot pop, not further undo.
func ParseInverseBatch(data []byte) (*Batch, error) {
	b := NewBatch(false)
	for len(data) > 0 {
		tag := data[0]
		data = data[1:]
		switch tag {
		case invTagPut:
			key, rest, err := readLenPrefixed(data)
			if err != nil {
				return nil, err
			}
			value, rest2, err := readLenPrefixed(rest)
			if err != nil {
				return nil, err
			}
			if err := b.PutUntracked(key, value); err != nil {
				return nil, err
			}
			data = rest2
		case invTagDel:
			key, rest, err := readLenPrefixed(data)
			if err != nil {
				return nil, err
			}
			b.DelUntracked(key)
			data = rest
		default:
			return nil, fmt.Errorf("kvindex: unknown inverse record tag 0x%02x", tag)
		}
	}
	return b, nil
}

func readLenPrefixed(data []byte) (value, rest []byte, err error) {
	if len(data) < 2 {
		return nil, nil, errors.New("kvindex: truncated inverse record")
	}
	l := binary.LittleEndian.Uint16(data[:2])
	data = data[2:]
	if len(data) < int(l) {
		return nil, nil, errors.New("kvindex: truncated inverse record")
	}
	return data[:l], data[l:], nil
}

func appendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
