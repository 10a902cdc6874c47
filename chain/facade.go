// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"sync"

	"github.com/btxsuite/btx/blockchain"
	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/chainutil"
	"github.com/btxsuite/btx/wire"
)

// ChainFacade wraps a ChainIndexer with a single readers-writer lock:
// Best/Coin/Coins/NextBits/AccountPool take the read lock; GetByID,
// GetByHeight, Link and Pop take the write lock. The indexer's block cache
// is only ever touched from inside the write-locked path (GetByID populates
// and reorders it, Pop evicts from it), so no read-locked call mutates it.
type ChainFacade struct {
	mu  sync.RWMutex
	idx *ChainIndexer
}

// NewFacade wraps idx.
func NewFacade(idx *ChainIndexer) *ChainFacade {
	return &ChainFacade{idx: idx}
}

// Best returns the current tip under the read lock.
func (f *ChainFacade) Best() (*Best, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.idx.Best()
}

// GetByID resolves a block by id under the write lock, since it consults
// and populates the block cache.
func (f *ChainFacade) GetByID(id chainhash.Hash) (*CachedBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idx.GetByID(id)
}

// GetByHeight resolves a block by height under the write lock, since it
// consults and populates the block cache.
func (f *ChainFacade) GetByHeight(h int32) (*CachedBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idx.GetByHeight(h)
}

// Coin resolves a confirmed UTXO under the read lock.
func (f *ChainFacade) Coin(txid chainhash.Hash, idx uint16) (blockchain.CoinRef, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.idx.Coin(txid, idx)
}

// Coins enumerates confirmed unspent outputs owned by addr, under the
// read lock.
func (f *ChainFacade) Coins(addr chainhash.Hash) ([]AddrCoin, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.idx.Coins(addr)
}

// NextBits reports the bits a candidate block must carry, under the read
// lock.
func (f *ChainFacade) NextBits() (uint32, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.idx.NextBits()
}

// Link validates and commits block under the write lock.
func (f *ChainFacade) Link(block *wire.Block) (*Best, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idx.Link(block)
}

// Pop undoes the current tip under the write lock.
func (f *ChainFacade) Pop() (*wire.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idx.Pop()
}

// AccountPool returns the account resolver the indexer was configured
// with, brokering it out to signer helpers.
func (f *ChainFacade) AccountPool() AccountPool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.idx.AccountPool()
}

// ResolveAccount is a convenience wrapper over AccountPool().Resolve for
// callers that don't need to distinguish "no pool installed" from
// "address unknown".
func (f *ChainFacade) ResolveAccount(addr chainhash.Hash) (*chainutil.Account, bool) {
	pool := f.AccountPool()
	if pool == nil {
		return nil, false
	}
	return pool.Resolve(addr)
}
