// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package account provides a reference implementation of chain.AccountPool:
// an in-memory, address-keyed store of signing accounts. The chain core
// never persists accounts itself, so callers that want signing capability
// available by address — a test harness, or a single-node deployment
// holding its own keys — inject a pool built from this package.
package account

import (
	"sync"

	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/chainutil"
)

// MemPool is an in-memory, address-keyed collection of accounts. It
// satisfies chain.AccountPool. Safe for concurrent use.
type MemPool struct {
	mu   sync.RWMutex
	pool map[chainhash.Hash]*chainutil.Account
	keys []chainhash.Hash
}

// NewMemPool returns an empty pool.
func NewMemPool() *MemPool {
	return &MemPool{pool: make(map[chainhash.Hash]*chainutil.Account)}
}

// NewTestPool returns a pool pre-populated with n freshly generated
// single-key accounts, for tests and local development that need
// addresses with usable signing capability without a real key-management
// flow.
func NewTestPool(n int) (*MemPool, error) {
	p := NewMemPool()
	for i := 0; i < n; i++ {
		acc, err := chainutil.NewAccount(1, 1, false)
		if err != nil {
			return nil, err
		}
		if err := p.Add(acc); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Add registers acc under its own address, overwriting any account
// previously registered under the same address.
func (p *MemPool) Add(acc *chainutil.Account) error {
	addr, err := acc.Address()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.pool[addr]; !exists {
		p.keys = append(p.keys, addr)
	}
	p.pool[addr] = acc
	return nil
}

// Resolve returns the account registered under addr, if any. Satisfies
// chain.AccountPool.
func (p *MemPool) Resolve(addr chainhash.Hash) (*chainutil.Account, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	acc, ok := p.pool[addr]
	return acc, ok
}

// Keys returns the addresses registered with the pool, in registration
// order.
func (p *MemPool) Keys() []chainhash.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]chainhash.Hash, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len reports how many accounts are registered.
func (p *MemPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.keys)
}

// Index returns the idx-th registered account, in registration order.
func (p *MemPool) Index(idx int) (*chainutil.Account, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if idx < 0 || idx >= len(p.keys) {
		return nil, false
	}
	return p.pool[p.keys[idx]], true
}
