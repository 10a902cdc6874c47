// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blog

import (
	"io"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
)

// InitLogRotator creates the rolling log file at logFile (creating its
// parent directory if needed) and returns an io.Writer suitable for
// Backend.SetWriter, keeping up to maxRolls uncompressed backups capped at
// maxRollSizeKB kilobytes each.
func InitLogRotator(logFile string, maxRollSizeKB int64, maxRolls int) (io.WriteCloser, error) {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, err
	}
	return rotator.New(logFile, maxRollSizeKB, false, maxRolls)
}
