// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"container/heap"
	"sort"
	"sync"

	"github.com/btxsuite/btx/blockchain"
	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/internal/blog"
	"github.com/btxsuite/btx/wire"
	"github.com/decred/dcrd/lru"
)

// rejectedCacheSize bounds the recently-rejected-id cache. Sized generously
// relative to a typical relay burst; the bound is fixed, and
// WasRecentlyRejected only reports membership in it.
const rejectedCacheSize = 4096

// outpoint identifies a spent coin for the pending-spend collision check.
type outpoint struct {
	txid chainhash.Hash
	idx  uint16
}

// poolEntry is a transaction admitted to the pool, its computed fee, and the
// insertion sequence used to break fee ties in Iter.
type poolEntry struct {
	tx  *wire.Tx
	fee int64
	seq uint64

	heapIdx int
}

// feeHeap orders poolEntry pointers fee-descending, ties broken by earlier
// insertion sequence: a container/heap.Interface with a pluggable Less,
// carrying an index back into each element so Remove can locate and fix
// it directly instead of rescanning.
type feeHeap []*poolEntry

func (h feeHeap) Len() int { return len(h) }

func (h feeHeap) Less(i, j int) bool {
	if h[i].fee != h[j].fee {
		return h[i].fee > h[j].fee
	}
	return h[i].seq < h[j].seq
}

func (h feeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}

func (h *feeHeap) Push(x any) {
	e := x.(*poolEntry)
	e.heapIdx = len(*h)
	*h = append(*h, e)
}

func (h *feeHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Mempool holds pending non-coinbase transactions, validated against a
// confirmed UTXO set but not yet linked into any block.
type Mempool struct {
	coins    blockchain.CoinSource
	maturity int32
	maxSize  int
	log      *blog.Logger

	mu       sync.Mutex
	byID     map[chainhash.Hash]*poolEntry
	byFee    feeHeap
	spent    map[outpoint]chainhash.Hash
	nextSeq  uint64
	rejected *lru.Cache[chainhash.Hash]
}

// New creates an empty pool. coins resolves confirmed UTXOs (a
// *chain.ChainIndexer or *chain.ChainFacade satisfies blockchain.CoinSource
// structurally); maturity is the configured CoinbaseMaturity.
func New(coins blockchain.CoinSource, maturity int32, log *blog.Logger) *Mempool {
	return &Mempool{
		coins:    coins,
		maturity: maturity,
		log:      log,
		byID:     make(map[chainhash.Hash]*poolEntry),
		spent:    make(map[outpoint]chainhash.Hash),
		rejected: lru.NewCache[chainhash.Hash](rejectedCacheSize),
	}
}

// SetMaxSize bounds how many transactions Push will admit; 0 (the default)
// means unbounded. Wired from a node's configured mempool limit.
func (m *Mempool) SetMaxSize(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSize = max
}

// Has reports whether id is currently pooled.
func (m *Mempool) Has(id chainhash.Hash) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok
}

// Len reports the number of pooled transactions.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// WasRecentlyRejected reports whether id was rejected by Push recently
// enough to still be in the bounded reject cache. A relay layer consults
// this before re-fetching a transaction it has already validated and
// discarded.
func (m *Mempool) WasRecentlyRejected(id chainhash.Hash) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rejected.Contains(id)
}

// Push validates tx against the confirmed UTXO set and the pool's own
// pending state at nextHeight (the height tx would confirm at if mined
// next), and admits it on success.
func (m *Mempool) Push(tx *wire.Tx, nextHeight int32) (fee int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := tx.ID()
	if err != nil {
		return 0, err
	}

	if _, ok := m.byID[id]; ok {
		return 0, ruleError(txRuleError(ErrDuplicateTx, "transaction already in pool"))
	}
	if m.maxSize > 0 && len(m.byID) >= m.maxSize {
		return 0, ruleError(txRuleError(ErrPoolFull, "mempool is at its configured transaction limit"))
	}
	if tx.IsCoinbase() {
		m.rejected.Add(id)
		return 0, ruleError(txRuleError(ErrCoinbaseTx, "coinbase transactions are never admitted to the pool"))
	}

	if err := blockchain.CheckTxShape(tx); err != nil {
		m.rejected.Add(id)
		return 0, ruleError(err)
	}

	for _, in := range tx.Ins {
		op := outpoint{txid: in.Out, idx: in.Idx}
		if conflict, ok := m.spent[op]; ok {
			m.rejected.Add(id)
			return 0, ruleError(txRuleError(ErrMempoolDoubleSpend,
				"input already spent by pending transaction "+conflict.String()))
		}
		if _, ok := m.coins.Coin(in.Out, in.Idx); !ok {
			m.rejected.Add(id)
			return 0, ruleError(txRuleError(ErrOrphanInput, "referenced coin does not exist in the confirmed UTXO set"))
		}
	}

	fee, err = blockchain.CheckTxMonetaryAndScript(tx, nextHeight, m.coins, m.maturity)
	if err != nil {
		m.rejected.Add(id)
		return 0, ruleError(err)
	}

	entry := &poolEntry{tx: tx, fee: fee, seq: m.nextSeq}
	m.nextSeq++
	m.byID[id] = entry
	heap.Push(&m.byFee, entry)
	for _, in := range tx.Ins {
		m.spent[outpoint{txid: in.Out, idx: in.Idx}] = id
	}

	if m.log != nil {
		m.log.Debugf("admitted transaction %s to mempool, fee %d", id, fee)
	}
	return fee, nil
}

// Remove evicts id from the pool for reason, a no-op if id is not pooled.
func (m *Mempool) Remove(id chainhash.Hash, reason RemovalReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id, reason)
}

func (m *Mempool) removeLocked(id chainhash.Hash, reason RemovalReason) {
	entry, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byID, id)
	heap.Remove(&m.byFee, entry.heapIdx)
	for _, in := range entry.tx.Ins {
		delete(m.spent, outpoint{txid: in.Out, idx: in.Idx})
	}
	if m.log != nil {
		m.log.Debugf("removed transaction %s from mempool (%v)", id, reason)
	}
}

// RemoveIncluded removes every transaction in ids, because a newly linked
// block confirmed them. Satisfies chain.MempoolRemover structurally.
func (m *Mempool) RemoveIncluded(ids []chainhash.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.removeLocked(id, RemovalReasonBlock)
	}
}

// Iter returns the pooled transactions fee-descending, ties broken by
// insertion order, without draining the pool. It copies the ordering
// fields out of each entry rather than sorting m.byFee's *poolEntry
// pointers directly, since those are shared with byID/removeLocked and
// any reordering of them (a heap pop, a sort) would leave their heapIdx
// fields pointing at the wrong slot in the live heap.
func (m *Mempool) Iter() []*wire.Tx {
	m.mu.Lock()
	defer m.mu.Unlock()

	type ordered struct {
		tx  *wire.Tx
		fee int64
		seq uint64
	}
	snapshot := make([]ordered, len(m.byFee))
	for i, e := range m.byFee {
		snapshot[i] = ordered{tx: e.tx, fee: e.fee, seq: e.seq}
	}
	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].fee != snapshot[j].fee {
			return snapshot[i].fee > snapshot[j].fee
		}
		return snapshot[i].seq < snapshot[j].seq
	})

	out := make([]*wire.Tx, len(snapshot))
	for i, e := range snapshot {
		out[i] = e.tx
	}
	return out
}

// PendingCoin is a not-yet-confirmed output a pooled transaction creates,
// returned by Coins. It is never spendable; this exists only so a caller
// can show a user their incoming change early.
type PendingCoin struct {
	TxID  chainhash.Hash
	Idx   uint16
	Value int64
}

// Coins enumerates pending outputs across every pooled transaction destined
// for addr.
func (m *Mempool) Coins(addr chainhash.Hash) []PendingCoin {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PendingCoin
	for id, entry := range m.byID {
		for i, o := range entry.tx.Outs {
			owner, err := wire.AddrFromOUTScript(o.Script)
			if err != nil {
				continue
			}
			var ownerHash chainhash.Hash
			copy(ownerHash[:], owner[:])
			if ownerHash != addr {
				continue
			}
			out = append(out, PendingCoin{TxID: id, Idx: uint16(i), Value: o.Value})
		}
	}
	return out
}
