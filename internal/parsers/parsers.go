// Package parsers defines the CLIParser capability contract and the
// generic bulk operations (parse_all, parse_recent_files) derived from it.
// Concrete vendor parsers live in the claude/codex/gemini/opencode
// subpackages; Registry enumerates them the way the teacher's
// internal/providers.AllProviders does for its own adapters.
package parsers

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wfarley16/toktrack/internal/types"
)

// CLIParser is the capability every vendor adapter implements: a stable
// name, a default data directory under the user's home, a glob pattern for
// discovery, and a per-file parse function. Implementations must be safe
// for concurrent ParseFile calls across distinct files.
type CLIParser interface {
	Name() string
	DataDir() string
	FilePattern() string
	ParseFile(path string) ([]types.UsageRecord, error)
}

// maxParallelism bounds the work-stealing pool used to parse files
// concurrently; Codex-style files still parse strictly sequentially inside
// ParseFile because their line-to-line state machine requires it (see
// internal/parsers/codex).
const maxParallelism = 8

// ParseAll walks p.DataDir() for files matching p.FilePattern() and parses
// every one. Per-file failures are isolated: they are logged as a warning
// and do not abort the scan.
func ParseAll(p CLIParser) ([]types.UsageRecord, error) {
	files, err := discoverFiles(p.DataDir(), p.FilePattern())
	if err != nil {
		return nil, nil //nolint:nilerr // missing/unreadable data dir: no files for this vendor, not an error
	}
	return parseFilesConcurrently(p, files)
}

// ParseRecentFiles restricts ParseAll to files whose OS modification time is
// at or after since. Files with an unknown mtime are included
// conservatively (treated as recent).
func ParseRecentFiles(p CLIParser, since time.Time) ([]types.UsageRecord, error) {
	files, err := discoverFiles(p.DataDir(), p.FilePattern())
	if err != nil {
		return nil, nil //nolint:nilerr
	}

	var recent []string
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			recent = append(recent, f) // unknown mtime: conservative inclusion
			continue
		}
		if !info.ModTime().Before(since) {
			recent = append(recent, f)
		}
	}
	return parseFilesConcurrently(p, recent)
}

func discoverFiles(dataDir, pattern string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtree: skip it, keep walking
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return nil
		}
		ok, err := filepath.Match(pattern, rel)
		if err != nil {
			return nil
		}
		if !ok {
			// filepath.Match has no "**" support; also try matching just the
			// base name against the pattern's final path segment.
			ok, _ = filepath.Match(filepath.Base(pattern), filepath.Base(path))
		}
		if ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// parseFilesConcurrently fans out ParseFile across a bounded worker pool.
// Files parse in no particular order; within a file, parsing remains
// whatever sequential discipline the parser itself implements.
func parseFilesConcurrently(p CLIParser, files []string) ([]types.UsageRecord, error) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([][]types.UsageRecord, len(files))
	g := new(errgroup.Group)
	g.SetLimit(maxParallelism)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			entries, err := p.ParseFile(f)
			if err != nil {
				log.Printf("[toktrack] Warning: %s: failed to parse %s: %v", p.Name(), f, err)
				return nil
			}
			results[i] = entries
			return nil
		})
	}
	_ = g.Wait() // per-file errors are already swallowed above with a warning

	var all []types.UsageRecord
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
