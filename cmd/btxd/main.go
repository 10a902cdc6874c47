// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command btxd wires the chain core (store, kvindex, chain, mempool,
// account) into a single-process node. It has no peer-to-peer networking
// or RPC server — this is the node core only — so today it simply opens
// the configured chain database, keeps it linked to its genesis block,
// and idles until asked to shut down.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/btxsuite/btx/account"
	"github.com/btxsuite/btx/chain"
	"github.com/btxsuite/btx/internal/blog"
	"github.com/btxsuite/btx/mempool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	level, ok := blog.LevelFromString(cfg.LogLevel)
	if !ok {
		level = blog.LevelInfo
	}
	_, loggers, err := initLogging(cfg.LogDir, level)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	log := loggers["BTXD"]

	params, err := cfg.netParams()
	if err != nil {
		return err
	}

	log.Infof("btxd %s starting, network %s, data dir %s", version(), params.Name, cfg.DataDir)

	idx, err := chain.Open(cfg.DataDir, params, loggers["CHAN"])
	if err != nil {
		return fmt.Errorf("opening chain indexer: %w", err)
	}
	defer idx.Close()

	accounts, err := account.NewTestPool(3)
	if err != nil {
		return fmt.Errorf("building account pool: %w", err)
	}
	idx.SetAccountPool(accounts)

	pool := mempool.New(idx, params.CoinbaseMaturity, loggers["MPOL"])
	pool.SetMaxSize(cfg.MaxMempoolTx)
	idx.SetMempool(pool)

	best, err := idx.Best()
	if err != nil {
		return fmt.Errorf("reading chain tip: %w", err)
	}
	if best == nil {
		if params.GenesisBlock == nil {
			return fmt.Errorf("no genesis block configured for network %s", params.Name)
		}
		if _, err := idx.Link(params.GenesisBlock); err != nil {
			return fmt.Errorf("linking genesis block: %w", err)
		}
		log.Infof("linked genesis block %s", params.Genesis)
	} else {
		log.Infof("resuming at height %d, tip %s", best.Height, best.ID)
	}

	log.Infof("btxd ready, accounts available: %d", accounts.Len())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	log.Infof("shutdown requested")
	return nil
}
