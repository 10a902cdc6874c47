// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/btxsuite/btx/blockchain"
	"github.com/btxsuite/btx/chaincfg"
	"github.com/btxsuite/btx/chainhash"
	"github.com/btxsuite/btx/internal/blog"
	"github.com/btxsuite/btx/kvindex"
	"github.com/btxsuite/btx/store"
	"github.com/btxsuite/btx/wire"
)

// DefaultSegmentFileSize bounds each block/undo segment file. 128 MiB
// balances having few enough files to keep directory listings cheap
// against not losing too much to a half-full active file at shutdown.
const DefaultSegmentFileSize = 128 << 20

// ErrBlockNotFound is returned by Get when no block or height resolves to
// the requested key.
var ErrBlockNotFound = errors.New("chain: block not found")

// MempoolRemover is the capability Link uses to drop transactions the
// newly linked block confirmed. package mempool's Mempool satisfies this
// structurally; chain never imports mempool, avoiding an import cycle
// (mempool depends on blockchain.CoinSource, which a ChainIndexer
// satisfies, so the dependency only runs one way).
type MempoolRemover interface {
	RemoveIncluded(ids []chainhash.Hash)
}

// ChainIndexer is the hub tying together tip tracking, the
// height/attribute/UTXO maps, the bounded block cache, and the link/pop
// protocol connecting validation to durable storage.
type ChainIndexer struct {
	params *chaincfg.Params
	kv     *kvindex.KvIndex
	blk    *store.SegmentedStore
	rev    *store.SegmentedStore
	cache  *BlockCache
	log    *blog.Logger

	accounts AccountPool
	mempool  MempoolRemover
}

// Open opens (creating if necessary) the chain indexer rooted at dataDir:
// block/ holds the content and undo segments, index/ holds the KvIndex
// database.
func Open(dataDir string, params *chaincfg.Params, log *blog.Logger) (*ChainIndexer, error) {
	blockDir := filepath.Join(dataDir, "block")
	indexDir := filepath.Join(dataDir, "index")

	blk, err := store.Open(blockDir, "blk", DefaultSegmentFileSize, log)
	if err != nil {
		return nil, fmt.Errorf("chain: open block store: %w", err)
	}
	rev, err := store.Open(blockDir, "rev", DefaultSegmentFileSize, log)
	if err != nil {
		return nil, fmt.Errorf("chain: open undo store: %w", err)
	}
	kv, err := kvindex.Open(indexDir, log)
	if err != nil {
		return nil, fmt.Errorf("chain: open kv index: %w", err)
	}

	return &ChainIndexer{
		params: params,
		kv:     kv,
		blk:    blk,
		rev:    rev,
		cache:  NewBlockCache(),
		log:    log,
	}, nil
}

// Close releases the indexer's storage handles.
func (c *ChainIndexer) Close() error {
	if err := c.kv.Close(); err != nil {
		return err
	}
	if err := c.blk.Close(); err != nil {
		return err
	}
	return c.rev.Close()
}

// SetAccountPool installs the account resolver used by signer helpers and
// account-based verification. Optional; nil disables address resolution.
func (c *ChainIndexer) SetAccountPool(pool AccountPool) { c.accounts = pool }

// SetMempool installs the mempool whose included transactions Link removes
// on every successful block. Optional.
func (c *ChainIndexer) SetMempool(mp MempoolRemover) { c.mempool = mp }

// AccountPool returns the installed account resolver, or nil.
func (c *ChainIndexer) AccountPool() AccountPool { return c.accounts }

// Best returns the current tip, or nil if the chain is empty.
func (c *ChainIndexer) Best() (*Best, error) {
	raw, err := c.kv.Get(bestKey())
	if errors.Is(err, kvindex.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return BestFromBytes(raw)
}

// attrByID fetches the BlkAttr stored for id.
func (c *ChainIndexer) attrByID(id chainhash.Hash) (*BlkAttr, error) {
	raw, err := c.kv.Get(blkAttrKey(id))
	if errors.Is(err, kvindex.ErrNotFound) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, err
	}
	return BlkAttrFromBytes(raw)
}

// idAtHeight resolves the block id confirmed at height h.
func (c *ChainIndexer) idAtHeight(h int32) (chainhash.Hash, error) {
	raw, err := c.kv.Get(heightKey(h))
	if errors.Is(err, kvindex.ErrNotFound) {
		return chainhash.Hash{}, ErrBlockNotFound
	}
	if err != nil {
		return chainhash.Hash{}, err
	}
	var id chainhash.Hash
	if err := id.SetBytes(raw); err != nil {
		return chainhash.Hash{}, err
	}
	return id, nil
}

// NextBits computes the bits a candidate block at the next height must
// carry.
func (c *ChainIndexer) NextBits() (uint32, error) {
	best, err := c.Best()
	if err != nil {
		return 0, err
	}
	if best == nil || best.Height == 0 {
		return c.params.PowLimitBits, nil
	}

	nextHeight := best.Height + 1
	tipAttr, err := c.attrByID(best.ID)
	if err != nil {
		return 0, err
	}
	if nextHeight%c.params.PowSpan != 0 {
		return tipAttr.Header.Bits, nil
	}

	spanStartHeight := nextHeight - c.params.PowSpan
	spanStartID, err := c.idAtHeight(spanStartHeight)
	if err != nil {
		return 0, err
	}
	spanStartAttr, err := c.attrByID(spanStartID)
	if err != nil {
		return 0, err
	}

	lastTime := tipAttr.Header.RealTime(c.params.EpochBase)
	spanStartTime := spanStartAttr.Header.RealTime(c.params.EpochBase)
	return blockchain.CalcNextBits(tipAttr.Header.Bits, lastTime, spanStartTime, c.params), nil
}

// GetByID resolves a block by its id, consulting and populating the block
// cache.
func (c *ChainIndexer) GetByID(id chainhash.Hash) (*CachedBlock, error) {
	if cb, ok := c.cache.Get(id); ok {
		return cb, nil
	}
	attr, err := c.attrByID(id)
	if err != nil {
		return nil, err
	}
	raw, err := c.blk.Pull(attr.BlkLoc)
	if err != nil {
		return nil, err
	}
	block, err := wire.BlockFromBytes(raw)
	if err != nil {
		return nil, err
	}
	cb := &CachedBlock{Block: block, Height: attr.Height, BlkLoc: attr.BlkLoc, RevLoc: attr.RevLoc}
	c.cache.Put(id, cb)
	return cb, nil
}

// GetByHeight resolves a block by height.
func (c *ChainIndexer) GetByHeight(h int32) (*CachedBlock, error) {
	id, err := c.idAtHeight(h)
	if err != nil {
		return nil, err
	}
	return c.GetByID(id)
}

// chainCoinSource adapts the indexer's KvIndex-backed UTXO set to
// blockchain.CoinSource for use by the validator.
type chainCoinSource struct{ idx *ChainIndexer }

func (s chainCoinSource) Coin(txid chainhash.Hash, idx uint16) (blockchain.CoinRef, bool) {
	raw, err := s.idx.kv.Get(coinKey(txid, idx))
	if err != nil {
		return blockchain.CoinRef{}, false
	}
	rec, err := CoinRecordFromBytes(raw)
	if err != nil {
		return blockchain.CoinRef{}, false
	}
	return blockchain.CoinRef{
		Value:    rec.Value,
		Owner:    rec.Owner,
		Height:   rec.Height,
		Coinbase: rec.IsCoinbase(),
		Mempool:  rec.IsMempool(),
	}, true
}

// Coin exposes the confirmed UTXO set directly, for callers (the mempool)
// validating against confirmed coins rather than mempool-projected ones.
func (c *ChainIndexer) Coin(txid chainhash.Hash, idx uint16) (blockchain.CoinRef, bool) {
	return chainCoinSource{c}.Coin(txid, idx)
}

// AddrCoin is a confirmed unspent output, as returned by Coins.
type AddrCoin struct {
	TxID chainhash.Hash
	Idx  uint16
	blockchain.CoinRef
}

// Coins enumerates every confirmed unspent output owned by addr, by
// walking the coinByAddr secondary index and resolving each outpoint
// against the primary coin record.
func (c *ChainIndexer) Coins(addr chainhash.Hash) ([]AddrCoin, error) {
	it := c.kv.Iterate(coinByAddrPrefix(addr))
	defer it.Close()

	var out []AddrCoin
	for ok := it.First(); ok; ok = it.Next() {
		key := it.Key()
		if len(key) != chainhash.HashSize+2 {
			return nil, fmt.Errorf("chain: malformed coinByAddr key for %s", addr)
		}
		var txid chainhash.Hash
		copy(txid[:], key[:chainhash.HashSize])
		idx := binary.LittleEndian.Uint16(key[chainhash.HashSize:])

		ref, ok := c.Coin(txid, idx)
		if !ok {
			// The secondary index entry outlived the coin it points at
			// (spent between the iterator snapshot and this lookup);
			// skip rather than fail the whole enumeration.
			continue
		}
		out = append(out, AddrCoin{TxID: txid, Idx: idx, CoinRef: ref})
	}
	return out, nil
}

// marker is the value stored for a coinByAddr secondary-index entry: its
// presence is the only fact that matters.
var marker = []byte{0x01}

// Link validates block against the chain's current tip and, on success,
// durably commits it: the content segment, the inverse undo segment, and
// the atomic KvIndex batch covering the tip, height map, attributes, and
// UTXO deltas.
func (c *ChainIndexer) Link(block *wire.Block) (*Best, error) {
	best, err := c.Best()
	if err != nil {
		return nil, err
	}

	id := block.ID()
	if _, err := c.kv.Get(blkAttrKey(id)); err == nil {
		return nil, blockchain.RuleError{Code: blockchain.ErrBlockExists, Description: "block already linked"}
	}

	height := int32(0)
	if best != nil {
		height = best.Height + 1
	}

	if err := blockchain.CheckHeaderSanity(&block.Header, time.Now(), c.params.EpochBase); err != nil {
		return nil, err
	}
	expectedBits, err := c.NextBits()
	if err != nil {
		return nil, err
	}
	if err := blockchain.CheckHeaderContextual(&block.Header, id, expectedBits, c.params); err != nil {
		return nil, err
	}
	if err := blockchain.CheckBlockSanity(block); err != nil {
		return nil, err
	}

	if best == nil {
		if id != c.params.Genesis {
			return nil, blockchain.RuleError{Code: blockchain.ErrPrevMismatch, Description: "genesis block id does not match configured genesis"}
		}
	} else if block.Header.Prev != best.ID {
		return nil, blockchain.RuleError{Code: blockchain.ErrPrevMismatch, Description: "block prev does not match current tip"}
	}

	coins := chainCoinSource{c}
	var totalFees int64
	for i := 1; i < len(block.Txs); i++ {
		fee, err := blockchain.CheckTxMonetaryAndScript(&block.Txs[i], height, coins, c.params.CoinbaseMaturity)
		if err != nil {
			return nil, err
		}
		totalFees += fee
	}
	var coinbaseSum int64
	for _, out := range block.Txs[0].Outs {
		coinbaseSum += out.Value
	}
	subsidy := blockchain.CalcSubsidy(height, c.params.SubsidyHalvingInterval)
	if coinbaseSum > subsidy+totalFees {
		return nil, blockchain.RuleError{Code: blockchain.ErrValueOutOfRange, Description: "coinbase output sum exceeds subsidy plus fees"}
	}

	batch := kvindex.NewBatch(true)

	var priorBest []byte
	if best != nil {
		priorBest = best.Bytes()
	}
	newBest := &Best{ID: id, Height: height}
	if err := batch.Put(bestKey(), newBest.Bytes(), priorBest); err != nil {
		return nil, err
	}
	if err := batch.Put(heightKey(height), id[:], nil); err != nil {
		return nil, err
	}

	includedIDs := make([]chainhash.Hash, 0, len(block.Txs))
	for i := range block.Txs {
		tx := &block.Txs[i]
		txid, err := tx.ID()
		if err != nil {
			return nil, err
		}
		includedIDs = append(includedIDs, txid)
		attr := &TxAttr{BlockID: id, IdxInBlock: uint16(i)}
		if err := batch.Put(txAttrKey(txid), attr.Bytes(), nil); err != nil {
			return nil, err
		}

		if !tx.IsCoinbase() {
			for _, in := range tx.Ins {
				raw, err := c.kv.Get(coinKey(in.Out, in.Idx))
				if err != nil {
					return nil, fmt.Errorf("chain: spent coin vanished mid-link: %w", err)
				}
				rec, err := CoinRecordFromBytes(raw)
				if err != nil {
					return nil, err
				}
				batch.Del(coinKey(in.Out, in.Idx), raw)
				batch.Del(coinByAddrKey(rec.Owner, in.Out, in.Idx), marker)
			}
		}

		for outIdx, out := range tx.Outs {
			owner, err := wire.AddrFromOUTScript(out.Script)
			if err != nil {
				return nil, err
			}
			var ownerHash chainhash.Hash
			copy(ownerHash[:], owner[:])
			rec := &CoinRecord{Owner: ownerHash, Value: out.Value, Height: height}
			if tx.IsCoinbase() {
				rec.Flags |= CoinFlagCoinbase
			}
			if err := batch.Put(coinKey(txid, uint16(outIdx)), rec.Bytes(), nil); err != nil {
				return nil, err
			}
			if err := batch.Put(coinByAddrKey(ownerHash, txid, uint16(outIdx)), marker, nil); err != nil {
				return nil, err
			}
		}
	}

	blockBytes, err := block.Bytes()
	if err != nil {
		return nil, err
	}
	blkLoc, err := c.blk.Push(blockBytes)
	if err != nil {
		return nil, err
	}
	invBytes, err := batch.Serialize()
	if err != nil {
		return nil, err
	}
	revLoc, err := c.rev.Push(invBytes)
	if err != nil {
		return nil, err
	}

	attr := &BlkAttr{Header: block.Header, Height: height, BlkLoc: blkLoc, RevLoc: revLoc}
	attrBytes, err := attr.Bytes()
	if err != nil {
		return nil, err
	}
	if err := batch.PutUntracked(blkAttrKey(id), attrBytes); err != nil {
		return nil, err
	}

	if err := c.kv.Write(batch, true); err != nil {
		return nil, err
	}

	if c.mempool != nil {
		c.mempool.RemoveIncluded(includedIDs)
	}
	if c.log != nil {
		c.log.Infof("linked block %s at height %d", id, height)
	}
	return newBest, nil
}

// Pop undoes the current tip: it loads the block and its inverse batch
// from the undo segment, applies the inverse, deletes the tip's own attr
// entry, and returns the decoded block that was removed.
func (c *ChainIndexer) Pop() (*wire.Block, error) {
	best, err := c.Best()
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, blockchain.RuleError{Code: blockchain.ErrGenesisPopAttempted, Description: "chain is empty"}
	}
	if best.Height == 0 {
		return nil, blockchain.RuleError{Code: blockchain.ErrGenesisPopAttempted, Description: "cannot pop the genesis block"}
	}

	attr, err := c.attrByID(best.ID)
	if err != nil {
		return nil, err
	}
	blockBytes, err := c.blk.Pull(attr.BlkLoc)
	if err != nil {
		return nil, err
	}
	block, err := wire.BlockFromBytes(blockBytes)
	if err != nil {
		return nil, err
	}
	invBytes, err := c.rev.Pull(attr.RevLoc)
	if err != nil {
		return nil, err
	}
	batch, err := kvindex.ParseInverseBatch(invBytes)
	if err != nil {
		return nil, err
	}
	batch.DelUntracked(blkAttrKey(best.ID))

	if err := c.kv.Write(batch, true); err != nil {
		return nil, err
	}
	c.cache.Delete(best.ID)
	if c.log != nil {
		c.log.Infof("popped block %s at height %d", best.ID, best.Height)
	}
	return block, nil
}
