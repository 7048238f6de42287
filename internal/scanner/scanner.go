// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/bonial-oss/gtfo-suid/internal/types"
)

// DefaultRoot is the directory a scan starts from when none is configured.
const DefaultRoot = "/"

// ErrScan is returned when the traversal cannot start or is interrupted.
var ErrScan = errors.New("scanning filesystem")

// Config controls a filesystem scan.
type Config struct {
	// Root is the directory to traverse. Defaults to DefaultRoot.
	Root string
	// Workers bounds the number of directories read concurrently.
	// Values below 1 mean a single sequential walk.
	Workers int
	// Exclude holds path.Match patterns; matching entries are skipped and
	// matching directories are not descended.
	Exclude []string
	// OnDir, when set, is called once per directory entered. It may be
	// called from several goroutines.
	OnDir func(dir string)
}

// Stats holds traversal counters.
type Stats struct {
	dirs       atomic.Uint64
	files      atomic.Uint64
	errors     atomic.Uint64
	privileged atomic.Uint64
}

// Dirs returns the number of directories entered.
func (s *Stats) Dirs() uint64 { return s.dirs.Load() }

// Files returns the number of regular files inspected.
func (s *Stats) Files() uint64 { return s.files.Load() }

// Errors returns the number of entries skipped because they could not be read.
func (s *Stats) Errors() uint64 { return s.errors.Load() }

// Privileged returns the number of setuid or setgid files found.
func (s *Stats) Privileged() uint64 { return s.privileged.Load() }

// Scanner finds regular files with the setuid or setgid bit.
type Scanner struct {
	cfg   Config
	stats Stats

	mu      sync.Mutex
	results []types.PrivilegedFile
}

// New creates a Scanner from cfg.
func New(cfg Config) *Scanner {
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Scanner{cfg: cfg}
}

// Stats returns the counters of the last scan.
func (s *Scanner) Stats() *Stats {
	return &s.stats
}

// IsPrivileged reports whether mode describes a regular file with the setuid
// or setgid bit set.
func IsPrivileged(mode fs.FileMode) bool {
	return mode.IsRegular() && mode&(fs.ModeSetuid|fs.ModeSetgid) != 0
}

// Scan walks the configured root and returns every privileged file, sorted by
// path. Unreadable subdirectories and entries that vanish mid-walk are
// skipped and counted in Stats.
//
// The root itself may be a symlink to a directory; symlinks below it are
// never followed. A scan cancelled at any point returns no files and an error
// wrapping ErrScan and the context error.
func (s *Scanner) Scan(ctx context.Context) ([]types.PrivilegedFile, error) {
	s.reset()

	root, err := filepath.Abs(s.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving root %s: %w", ErrScan, s.cfg.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScan, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrScan, root)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScan, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	g.Go(func() error {
		s.visitEntries(gctx, g, root, entries)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScan, err)
	}
	// walk goroutines return nil; a cancel after dispatch shows up here
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScan, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sort.Slice(s.results, func(i, j int) bool {
		return s.results[i].Path < s.results[j].Path
	})
	return s.results, nil
}

func (s *Scanner) reset() {
	s.stats.dirs.Store(0)
	s.stats.files.Store(0)
	s.stats.errors.Store(0)
	s.stats.privileged.Store(0)
	s.mu.Lock()
	s.results = make([]types.PrivilegedFile, 0)
	s.mu.Unlock()
}

// walk reads dir and processes its entries.
func (s *Scanner) walk(ctx context.Context, g *errgroup.Group, dir string) {
	if ctx.Err() != nil {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil && len(entries) == 0 {
		s.stats.errors.Add(1)
		return
	}
	if err != nil {
		// partial listing: keep what was read
		s.stats.errors.Add(1)
	}
	s.visitEntries(ctx, g, dir, entries)
}

// visitEntries records privileged files in dir and descends into its
// subdirectories. A subdirectory is handed to the worker pool when a slot is
// free, otherwise it is walked inline so a saturated pool cannot deadlock.
func (s *Scanner) visitEntries(ctx context.Context, g *errgroup.Group, dir string, entries []fs.DirEntry) {
	s.stats.dirs.Add(1)
	if s.cfg.OnDir != nil {
		s.cfg.OnDir(dir)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		p := filepath.Join(dir, entry.Name())
		if s.isExcluded(p) {
			continue
		}

		switch typ := entry.Type(); {
		case typ.IsDir():
			sub := p
			if !g.TryGo(func() error {
				s.walk(ctx, g, sub)
				return nil
			}) {
				s.walk(ctx, g, sub)
			}
		case typ.IsRegular():
			s.inspect(p, entry)
		}
		// symlinks, devices, sockets and pipes are never candidates
	}
}

// inspect stats a regular file and records it when privileged.
func (s *Scanner) inspect(p string, entry fs.DirEntry) {
	s.stats.files.Add(1)
	info, err := entry.Info()
	if err != nil {
		s.stats.errors.Add(1)
		return
	}
	if !IsPrivileged(info.Mode()) {
		return
	}
	s.stats.privileged.Add(1)

	s.mu.Lock()
	s.results = append(s.results, types.PrivilegedFile{Path: p, Mode: info.Mode()})
	s.mu.Unlock()
}

func (s *Scanner) isExcluded(p string) bool {
	for _, pattern := range s.cfg.Exclude {
		if matched, _ := path.Match(pattern, p); matched {
			return true
		}
	}
	return false
}
