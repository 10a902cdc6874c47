// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	backend := NewBackend(&buf)
	log := backend.Logger("TEST")
	log.SetLevel(LevelWarn)

	log.Debugf("should not appear")
	log.Warnf("should appear %d", 1)

	out := buf.String()
	require.NotContains(t, out, "should not appear")
	require.Contains(t, out, "should appear 1")
	require.True(t, strings.Contains(out, "[WRN] TEST:"))
}

func TestLoggerOffSuppressesEverything(t *testing.T) {
	var buf bytes.Buffer
	backend := NewBackend(&buf)
	log := backend.Logger("TEST")
	log.SetLevel(LevelOff)

	log.Criticalf("never")
	require.Empty(t, buf.String())
}

func TestLevelFromString(t *testing.T) {
	l, ok := LevelFromString("warn")
	require.True(t, ok)
	require.Equal(t, LevelWarn, l)

	_, ok = LevelFromString("bogus")
	require.False(t, ok)
}
