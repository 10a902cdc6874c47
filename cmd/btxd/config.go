// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btxsuite/btx/chaincfg"
	"github.com/btxsuite/btx/chainutil"
	flags "github.com/jessevdk/go-flags"
)

var (
	btxdHomeDir       = chainutil.AppDataDir("btxd", false)
	defaultConfigFile = filepath.Join(btxdHomeDir, "btxd.conf")
	defaultDataDir    = filepath.Join(btxdHomeDir, "data")
	defaultLogDir     = filepath.Join(btxdHomeDir, "logs")
	defaultLogFile    = filepath.Join(defaultLogDir, "btxd.log")
)

// config defines the set of options btxd accepts on the command line or
// in its config file, trimmed to the single-node core's needs: no RPC
// credentials or peer-discovery flags, since there is no networking layer.
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir    string `short:"b" long:"datadir" description:"Directory to store block and index data"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
	LogLevel   string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical, off}"`
	RegressionTest bool `long:"regtest" description:"Use the regression test network configuration"`

	MaxMempoolTx int `long:"maxmempooltx" description:"Maximum number of transactions the mempool will hold at once"`

	ShowVersion bool `short:"V" long:"version" description:"Display version information and exit"`
}

// netParams resolves the chaincfg.Params the config selects. Only the
// regression network is implemented today; the switch form is kept so
// adding a second Params value later is a one-line addition rather than
// a restructure.
func (c *config) netParams() (*chaincfg.Params, error) {
	switch {
	case c.RegressionTest:
		return &chaincfg.RegressionNetParams, nil
	default:
		return &chaincfg.RegressionNetParams, nil
	}
}

// loadConfig applies defaults, then overlays a config file, then overlays
// command line flags, in that order, so CLI flags always win.
func loadConfig() (*config, []string, error) {
	cfg := config{
		ConfigFile:     defaultConfigFile,
		DataDir:        defaultDataDir,
		LogDir:         defaultLogDir,
		LogLevel:       "info",
		RegressionTest: true,
		MaxMempoolTx:   5000,
	}

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil, nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version())
		os.Exit(0)
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			return nil, nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	remainingArgs, err := parser.Parse()
	if err != nil {
		return nil, nil, err
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &cfg, remainingArgs, nil
}

// cleanAndExpandPath expands environment variables and a leading ~ in
// path, then cleans the result.
func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}
