// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command btxctl is a small offline inspector for a btxd data directory:
// it opens the chain database (chain.Open creates the directories and empty
// segment files if they are absent, but btxctl links and pops nothing) and
// prints the current tip. There is no RPC server to talk to — this
// core has no networking layer — so btxctl operates directly on the
// on-disk chain database rather than over a wire protocol.
package main

import (
	"fmt"
	"os"

	"github.com/btxsuite/btx/chain"
	"github.com/btxsuite/btx/chaincfg"
	flags "github.com/jessevdk/go-flags"
)

type options struct {
	DataDir string `short:"b" long:"datadir" description:"Directory holding the chain's block and index data" required:"true"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	idx, err := chain.Open(opts.DataDir, &chaincfg.RegressionNetParams, nil)
	if err != nil {
		return fmt.Errorf("opening chain database: %w", err)
	}
	defer idx.Close()

	best, err := idx.Best()
	if err != nil {
		return fmt.Errorf("reading chain tip: %w", err)
	}
	if best == nil {
		fmt.Println("chain is empty: no genesis block linked")
		return nil
	}

	fmt.Printf("tip height: %d\ntip id:     %s\n", best.Height, best.ID)
	return nil
}
