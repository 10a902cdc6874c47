// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/btxsuite/btx/internal/blog"
)

// subsystemLoggers names every subsystem btxd configures a logger for,
// centralized so --debuglevel applies uniformly. CHAN's logger is shared
// by chain.Open's own store and kvindex layers, since chain.Open takes a
// single *blog.Logger for its whole database stack.
var subsystemLoggers = []string{"BTXD", "CHAN", "MPOL"}

// initLogging wires a shared blog.Backend writing to stdout and, once
// logDir is ready, a rotating log file, and returns one Logger per
// subsystem tagged per subsystemLoggers plus the backend they share.
func initLogging(logDir string, level blog.Level) (*blog.Backend, map[string]*blog.Logger, error) {
	backend := blog.NewBackend(os.Stdout)

	logFile := filepath.Join(logDir, "btxd.log")
	rotator, err := blog.InitLogRotator(logFile, 10*1024, 3)
	if err != nil {
		return nil, nil, err
	}
	backend.SetWriter(io.MultiWriter(os.Stdout, rotator))

	loggers := make(map[string]*blog.Logger, len(subsystemLoggers))
	for _, tag := range subsystemLoggers {
		l := backend.Logger(tag)
		l.SetLevel(level)
		loggers[tag] = l
	}
	return backend, loggers, nil
}
