package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoverFiles walks rootDir applying include/exclude globs from cfg.
// Patterns are matched against slash-separated paths relative to rootDir.
// Directories no include pattern can reach are not entered.
// Returns a sorted slice of absolute file paths for deterministic output.
func DiscoverFiles(rootDir string, cfg ScanConfig) ([]string, error) {
	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range cfg.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}
	scope := newWalkScope(cfg.Include)

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil // Unreadable entries are skipped.
		}
		if path == absRoot {
			return nil
		}

		rel := relativeTo(absRoot, path)
		if matchAny(cfg.Exclude, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !scope.enter(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(cfg.Include) > 0 && !matchAny(cfg.Include, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", absRoot, err)
	}

	sort.Strings(files)
	return files, nil
}

// walkScope decides which directories can hold a match for the include
// patterns. An empty scope enters everything.
type walkScope struct {
	all   bool
	roots []scopeRoot
}

// scopeRoot is the literal directory prefix of one include pattern.
type scopeRoot struct {
	base string // "." for patterns without a literal prefix
	deep bool   // the rest of the pattern can match below base
}

func newWalkScope(include []string) walkScope {
	if len(include) == 0 {
		return walkScope{all: true}
	}
	var s walkScope
	for _, pattern := range include {
		base, rest := doublestar.SplitPattern(pattern)
		s.roots = append(s.roots, scopeRoot{
			base: base,
			deep: strings.Contains(rest, "/") || strings.Contains(rest, "**"),
		})
	}
	return s
}

// enter reports whether the walk should descend into the directory rel.
func (s walkScope) enter(rel string) bool {
	if s.all {
		return true
	}
	for _, r := range s.roots {
		switch {
		case r.base == ".":
			if r.deep {
				return true
			}
		case rel == r.base, strings.HasPrefix(r.base, rel+"/"):
			return true
		case r.deep && strings.HasPrefix(rel, r.base+"/"):
			return true
		}
	}
	return false
}

func matchAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}

// relativeTo returns path relative to root in slash form.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
