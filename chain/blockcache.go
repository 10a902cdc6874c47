// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"container/list"

	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/store"
	"github.com/btxsuite/btx/wire"
)

// BlockCacheCapacity is the maximum number of decoded blocks the cache
// holds at once.
const BlockCacheCapacity = 10240

// CachedBlock is a decoded block together with the non-persisted fields
// Get reattaches: its height and the two segment locations its BlkAttr
// carries.
type CachedBlock struct {
	Block  *wire.Block
	Height int32
	BlkLoc store.Loc
	RevLoc store.Loc
}

// BlockCache is a bounded LRU of decoded blocks keyed by block id. It is
// not internally synchronized — it is protected by ChainFacade's write
// lock, not a lock of its own.
//
// decred/dcrd/lru's Cache[K] is a key-only membership LRU (Add/Contains/
// Delete, no associated value storage or eviction callback), so it cannot
// hold a CachedBlock under eviction without the pairing map leaking; it is
// wired instead in package mempool for the recently-rejected-id cache. This
// type is a plain container/list LRU, the same shape as store's read-handle
// cache.
type BlockCache struct {
	capacity int
	order    *list.List
	lookup   map[chainhash.Hash]*list.Element
}

type cacheEntry struct {
	id    chainhash.Hash
	block *CachedBlock
}

// NewBlockCache creates an empty cache bounded at BlockCacheCapacity.
func NewBlockCache() *BlockCache {
	return &BlockCache{
		capacity: BlockCacheCapacity,
		order:    list.New(),
		lookup:   make(map[chainhash.Hash]*list.Element),
	}
}

// Get returns the cached block for id, moving it to the front.
func (c *BlockCache) Get(id chainhash.Hash) (*CachedBlock, bool) {
	el, ok := c.lookup[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).block, true
}

// Put admits cb under id, evicting the least-recently-used entry if the
// cache is at capacity.
func (c *BlockCache) Put(id chainhash.Hash, cb *CachedBlock) {
	if el, ok := c.lookup[id]; ok {
		el.Value.(*cacheEntry).block = cb
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{id: id, block: cb})
	c.lookup[id] = el

	for c.order.Len() > c.capacity {
		tail := c.order.Back()
		if tail == nil {
			break
		}
		entry := tail.Value.(*cacheEntry)
		c.order.Remove(tail)
		delete(c.lookup, entry.id)
	}
}

// Delete evicts id from the cache, if present.
func (c *BlockCache) Delete(id chainhash.Hash) {
	if el, ok := c.lookup[id]; ok {
		c.order.Remove(el)
		delete(c.lookup, id)
	}
}

// Len reports the number of entries currently cached.
func (c *BlockCache) Len() int {
	return c.order.Len()
}
