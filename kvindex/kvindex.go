// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package kvindex implements the ordered key-to-bytes index the chain
// indexer keeps its tip, height map, block/tx attributes, and UTXO set in:
// get/put/del, atomic batch commit, and prefix-bounded iteration, backed by
// goleveldb. Prefix iteration wraps util.BytesPrefix and trims the prefix
// back off returned keys, generalized to the forward/reverse walk this
// package's bidirectional iterator needs.
package kvindex

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/btxsuite/btx/internal/blog"
)

// MaxKeyLen and MaxValueLen bound a single key or value.
const (
	MaxKeyLen   = 65535
	MaxValueLen = 65535
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = leveldb.ErrNotFound

// ErrKeyTooLarge and ErrValueTooLarge guard the configured size limits.
var (
	ErrKeyTooLarge   = errors.New("kvindex: key exceeds maximum length")
	ErrValueTooLarge = errors.New("kvindex: value exceeds maximum length")
)

// KvIndex is the ordered key-value store backing the chain indexer's
// durable records. It wraps a goleveldb database and enforces the
// configured key/value size limits at the call boundary.
type KvIndex struct {
	db  *leveldb.DB
	log *blog.Logger
}

// Open opens (creating if necessary) the goleveldb database rooted at dir.
func Open(dir string, log *blog.Logger) (*KvIndex, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("kvindex: open: %w", err)
	}
	return &KvIndex{db: db, log: log}, nil
}

// Close releases the underlying database.
func (k *KvIndex) Close() error {
	return k.db.Close()
}

// Get returns the value stored for key, or ErrNotFound.
func (k *KvIndex) Get(key []byte) ([]byte, error) {
	v, err := k.db.Get(key, nil)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Put stores a single key/value pair outside of a batch, synchronously.
func (k *KvIndex) Put(key, value []byte) error {
	if len(key) > MaxKeyLen {
		return ErrKeyTooLarge
	}
	if len(value) > MaxValueLen {
		return ErrValueTooLarge
	}
	return k.db.Put(key, value, &opt.WriteOptions{Sync: true})
}

// Del removes key outside of a batch, synchronously.
func (k *KvIndex) Del(key []byte) error {
	return k.db.Delete(key, &opt.WriteOptions{Sync: true})
}

// Write commits batch atomically. sync requests an fsync before returning,
// as the indexer's link/pop protocol requires.
func (k *KvIndex) Write(batch *Batch, sync bool) error {
	if k.log != nil {
		k.log.Tracef("committing batch of %d ops (sync=%v)", batch.ldb.Len(), sync)
	}
	return k.db.Write(batch.ldb, &opt.WriteOptions{Sync: sync})
}

// Iterator walks keys sharing a prefix, in either direction, trimming the
// prefix off the keys it returns — mirroring ldb.LevelDBCursor's contract.
type Iterator struct {
	it     iterator.Iterator
	prefix []byte
}

// Iterate opens an Iterator over every key beginning with prefix. Close
// must be called when done.
func (k *KvIndex) Iterate(prefix []byte) *Iterator {
	it := k.db.NewIterator(util.BytesPrefix(prefix), nil)
	return &Iterator{it: it, prefix: prefix}
}

// Next advances forward, returning false once exhausted.
func (it *Iterator) Next() bool { return it.it.Next() }

// Prev advances backward, returning false once exhausted.
func (it *Iterator) Prev() bool { return it.it.Prev() }

// Last seeks to the final key sharing the prefix.
func (it *Iterator) Last() bool { return it.it.Last() }

// First seeks to the first key sharing the prefix.
func (it *Iterator) First() bool { return it.it.First() }

// Key returns the current key with the iteration prefix trimmed off.
func (it *Iterator) Key() []byte {
	return bytes.TrimPrefix(it.it.Key(), it.prefix)
}

// Value returns the current value. The caller must not retain the slice
// past the next iterator call.
func (it *Iterator) Value() []byte {
	return it.it.Value()
}

// Close releases the iterator's resources.
func (it *Iterator) Close() {
	it.it.Release()
}
