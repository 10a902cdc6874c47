// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store implements the segmented, append-only binary log blocks
// and undo records are persisted in: a directory of fixed-capacity files,
// addressed by the stable (file index, offset, length) tuple a Loc
// carries, with files named "NNNNNNNN.ext" and rolled once the active
// file reaches its configured capacity.
package store

import (
	"container/list"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/btxsuite/btx/internal/blog"
)

// ErrStoreFull is returned by Push when a single record exceeds the
// store's per-file capacity and so can never fit in any file.
var ErrStoreFull = errors.New("store: record exceeds file capacity")

// ErrIO is returned by Pull when fewer bytes were read than Loc.Len
// declares.
var ErrIO = errors.New("store: short read")

// maxOpenHandles bounds the number of cached read-only file handles kept
// open at once.
const maxOpenHandles = 16

// Loc is the stable address of a record written by Push: which file it
// landed in, its byte offset within that file, and its length.
type Loc struct {
	FileIdx uint32
	Offset  uint32
	Len     uint32
}

// SegmentedStore persists unordered variable-length byte records across a
// directory of files capped at maxFileSize bytes each. A single writer may
// call Push at a time; Pull may be called concurrently with Push and with
// itself.
type SegmentedStore struct {
	dir         string
	ext         string
	maxFileSize uint32
	log         *blog.Logger

	mu         sync.Mutex
	activeIdx  uint32
	activeFile *os.File
	activeSize uint32

	handles handleCache
}

// Open opens (creating if necessary) the segmented store rooted at dir,
// using ext as the per-file extension ("blk", "rev", ...). It resumes from
// the highest-indexed existing file, rolling to a fresh one if that file
// is already at capacity.
func Open(dir, ext string, maxFileSize uint32, log *blog.Logger) (*SegmentedStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}

	s := &SegmentedStore{
		dir:         dir,
		ext:         ext,
		maxFileSize: maxFileSize,
		log:         log,
	}
	s.handles.init(maxOpenHandles, s.filePath)

	idx, err := s.lastFileIndex()
	if err != nil {
		return nil, err
	}
	if err := s.openActive(idx); err != nil {
		return nil, err
	}
	if s.activeSize >= s.maxFileSize {
		if err := s.rollTo(idx + 1); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close closes the active file and every cached read handle.
func (s *SegmentedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles.closeAll()
	if s.activeFile != nil {
		return s.activeFile.Close()
	}
	return nil
}

func (s *SegmentedStore) filePath(idx uint32) string {
	return filepath.Join(s.dir, fmt.Sprintf("%08d.%s", idx, s.ext))
}

// lastFileIndex scans dir for "NNNNNNNN.ext" files and returns the highest
// index found, or 0 if the directory has none yet.
func (s *SegmentedStore) lastFileIndex() (uint32, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("store: read directory: %w", err)
	}
	var max uint32
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, "."+s.ext) {
			continue
		}
		stem := strings.TrimSuffix(name, "."+s.ext)
		idx, err := strconv.ParseUint(stem, 10, 32)
		if err != nil {
			continue
		}
		if uint32(idx) > max {
			max = uint32(idx)
		}
	}
	return max, nil
}

func (s *SegmentedStore) openActive(idx uint32) error {
	f, err := os.OpenFile(s.filePath(idx), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("store: open active file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("store: stat active file: %w", err)
	}
	s.activeIdx = idx
	s.activeFile = f
	s.activeSize = uint32(info.Size())
	return nil
}

// rollTo closes the current active file (handing it to the read cache, so
// a Pull racing the roll still finds it) and opens idx as the new active
// file.
func (s *SegmentedStore) rollTo(idx uint32) error {
	if s.activeFile != nil {
		s.handles.adopt(s.activeIdx, s.activeFile)
	}
	return s.openActive(idx)
}

// Push appends data to the active file, rolling to a new file first if it
// would not fit, and fsyncs before returning data's location.
func (s *SegmentedStore) Push(data []byte) (Loc, error) {
	if uint32(len(data)) > s.maxFileSize {
		return Loc{}, ErrStoreFull
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeSize+uint32(len(data)) > s.maxFileSize {
		if err := s.rollTo(s.activeIdx + 1); err != nil {
			return Loc{}, err
		}
	}

	offset := s.activeSize
	n, err := s.activeFile.WriteAt(data, int64(offset))
	if err != nil {
		return Loc{}, fmt.Errorf("store: write: %w", err)
	}
	if err := s.activeFile.Sync(); err != nil {
		return Loc{}, fmt.Errorf("store: sync: %w", err)
	}
	s.activeSize += uint32(n)

	loc := Loc{FileIdx: s.activeIdx, Offset: offset, Len: uint32(n)}
	if s.log != nil {
		s.log.Tracef("pushed %d bytes at %+v", n, loc)
	}
	return loc, nil
}

// Pull reads exactly loc.Len bytes from the file loc.FileIdx names, at
// loc.Offset.
func (s *SegmentedStore) Pull(loc Loc) ([]byte, error) {
	s.mu.Lock()
	f, isActive := s.activeHandle(loc.FileIdx)
	s.mu.Unlock()

	if !isActive {
		var err error
		f, err = s.handles.get(loc.FileIdx)
		if err != nil {
			return nil, err
		}
	}

	buf := make([]byte, loc.Len)
	n, err := f.ReadAt(buf, int64(loc.Offset))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("store: read: %w", err)
	}
	if uint32(n) != loc.Len {
		return nil, ErrIO
	}
	return buf, nil
}

// activeHandle returns the active file handle if idx names it, avoiding a
// round trip through the read-handle cache for the common case of pulling
// something just pushed.
func (s *SegmentedStore) activeHandle(idx uint32) (*os.File, bool) {
	if s.activeFile != nil && s.activeIdx == idx {
		return s.activeFile, true
	}
	return nil, false
}

// handleCache is an LRU of up to max open read-only *os.File handles,
// keyed by file index.
type handleCache struct {
	mu     sync.Mutex
	max    int
	path   func(uint32) string
	order  *list.List
	lookup map[uint32]*list.Element
}

type handleEntry struct {
	idx  uint32
	file *os.File
}

func (c *handleCache) init(max int, path func(uint32) string) {
	c.max = max
	c.path = path
	c.order = list.New()
	c.lookup = make(map[uint32]*list.Element)
}

// get returns the handle for idx, opening it read-only and admitting it to
// the cache (evicting the least-recently-used entry first) if not already
// cached.
func (c *handleCache) get(idx uint32) (*os.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.lookup[idx]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*handleEntry).file, nil
	}

	f, err := os.Open(c.path(idx))
	if err != nil {
		return nil, fmt.Errorf("store: open file %d: %w", idx, err)
	}
	c.admit(idx, f)
	return f, nil
}

// adopt inserts an already-open handle (the just-rolled-off active file)
// directly into the cache without reopening it.
func (c *handleCache) adopt(idx uint32, f *os.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.admit(idx, f)
}

func (c *handleCache) admit(idx uint32, f *os.File) {
	if el, ok := c.lookup[idx]; ok {
		el.Value.(*handleEntry).file.Close()
		c.order.Remove(el)
		delete(c.lookup, idx)
	}
	el := c.order.PushFront(&handleEntry{idx: idx, file: f})
	c.lookup[idx] = el

	// Evicts the least-recently-used handle rather than the smallest index
	// other than the active segment; the active segment's handle is kept
	// open outside this cache (see adopt), so LRU order never picks it.
	for c.order.Len() > c.max {
		tail := c.order.Back()
		if tail == nil {
			break
		}
		entry := tail.Value.(*handleEntry)
		entry.file.Close()
		c.order.Remove(tail)
		delete(c.lookup, entry.idx)
	}
}

func (c *handleCache) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.order.Front(); el != nil; el = el.Next() {
		el.Value.(*handleEntry).file.Close()
	}
	c.order.Init()
	c.lookup = make(map[uint32]*list.Element)
}
