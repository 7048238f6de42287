// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package matcher

import (
	"path/filepath"
	"unicode/utf8"

	"github.com/bonial-oss/gtfo-suid/internal/types"
)

// Config holds matching options.
type Config struct {
	// Dedupe collapses matches with the same name and URL into one row,
	// keeping the first. Without it every (file, entry) pair is reported,
	// so two privileged files named sudo produce two rows.
	Dedupe bool
}

// Result holds the matches and the rendering width derived from the catalog.
type Result struct {
	Matches []types.Match
	// NameWidth is the longest catalog entry name in runes, taken over the
	// whole catalog rather than only the matched entries.
	NameWidth int
}

// Empty reports whether nothing matched.
func (r *Result) Empty() bool {
	return len(r.Matches) == 0
}

// Match intersects catalog entries and privileged files by exact,
// case-sensitive basename equality.
//
// Matches are emitted in file order; for each file, in catalog order.
func Match(catalog []types.CatalogEntry, files []types.PrivilegedFile, cfg Config) *Result {
	res := &Result{
		Matches:   make([]types.Match, 0),
		NameWidth: nameWidth(catalog),
	}
	if len(catalog) == 0 || len(files) == 0 {
		return res
	}

	byName := make(map[string][]int, len(catalog))
	for i, entry := range catalog {
		byName[entry.Name] = append(byName[entry.Name], i)
	}

	type key struct{ name, url string }
	seen := make(map[key]struct{})

	for _, f := range files {
		for _, i := range byName[filepath.Base(f.Path)] {
			entry := catalog[i]
			if cfg.Dedupe {
				k := key{entry.Name, entry.URL}
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
			}
			res.Matches = append(res.Matches, types.Match{
				Name: entry.Name,
				URL:  entry.URL,
				Path: f.Path,
				Bits: f.Bits(),
			})
		}
	}

	return res
}

func nameWidth(catalog []types.CatalogEntry) int {
	width := 0
	for _, entry := range catalog {
		if n := utf8.RuneCountInString(entry.Name); n > width {
			width = n
		}
	}
	return width
}
