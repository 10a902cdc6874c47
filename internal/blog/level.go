// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blog is the leveled, subsystem-tagged logging backend every other
// package logs through, wiring jrick/logrotate for rotating file output.
package blog

import "strings"

// Level is the severity of a log message.
type Level uint8

// The supported levels, lowest to highest severity.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelStrings = map[Level]string{
	LevelTrace:    "TRC",
	LevelDebug:    "DBG",
	LevelInfo:     "INF",
	LevelWarn:     "WRN",
	LevelError:    "ERR",
	LevelCritical: "CRT",
	LevelOff:      "OFF",
}

// String returns the level's short display tag.
func (l Level) String() string {
	if s, ok := levelStrings[l]; ok {
		return s
	}
	return "INF"
}

// LevelFromString parses s into a Level, defaulting to LevelInfo with ok
// false when s is not recognized.
func LevelFromString(s string) (l Level, ok bool) {
	switch strings.ToLower(s) {
	case "trace", "trc":
		return LevelTrace, true
	case "debug", "dbg":
		return LevelDebug, true
	case "info", "inf":
		return LevelInfo, true
	case "warn", "wrn":
		return LevelWarn, true
	case "error", "err":
		return LevelError, true
	case "critical", "crt":
		return LevelCritical, true
	case "off":
		return LevelOff, true
	default:
		return LevelInfo, false
	}
}
