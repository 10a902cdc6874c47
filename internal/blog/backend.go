// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blog

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Backend multiplexes every subsystem Logger's output to a shared writer.
// A nil writer is a valid, fully functional backend that discards output;
// callers substitute a real io.Writer (os.Stdout, a logrotate.Rotator, or
// both via io.MultiWriter) once one is available.
type Backend struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBackend creates a backend writing to w. If w is nil, output is
// discarded until SetWriter is called.
func NewBackend(w io.Writer) *Backend {
	return &Backend{w: w}
}

// SetWriter replaces the backend's output writer. Used once the log
// rotator is ready, since loggers may be constructed before then.
func (b *Backend) SetWriter(w io.Writer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.w = w
}

// Logger returns a new Logger tagged with subsystem, defaulting to
// LevelInfo.
func (b *Backend) Logger(subsystem string) *Logger {
	return &Logger{backend: b, tag: subsystem, level: LevelInfo}
}

func (b *Backend) write(line string) {
	b.mu.Lock()
	w := b.w
	b.mu.Unlock()
	if w == nil {
		return
	}
	io.WriteString(w, line)
}

// Logger is a single subsystem's leveled log handle.
type Logger struct {
	backend *Backend
	tag     string

	mu    sync.Mutex
	level Level
}

// Level returns the logger's current minimum emitted level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel sets the logger's minimum emitted level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.Level() || l.Level() == LevelOff {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	line := fmt.Sprintf("%s [%s] %s: %s\n",
		time.Now().Format("2006-01-02 15:04:05.000"), level, l.tag, msg)
	l.backend.write(line)
}

func (l *Logger) Tracef(format string, args ...interface{})    { l.log(LevelTrace, format, args...) }
func (l *Logger) Debugf(format string, args ...interface{})    { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})     { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})     { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{})    { l.log(LevelError, format, args...) }
func (l *Logger) Criticalf(format string, args ...interface{}) { l.log(LevelCritical, format, args...) }
