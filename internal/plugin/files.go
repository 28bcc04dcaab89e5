package plugin

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

var skippedDirs = map[string]bool{".git": true, "node_modules": true}

// expandFiles resolves glob patterns against fsys and returns the sorted,
// de-duplicated list of matching regular files.
func expandFiles(fsys afero.Fs, patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, raw := range patterns {
		pattern := cleanPattern(raw)
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid file pattern %q", raw)
		}
		if !strings.ContainsAny(pattern, "*?[{\\") {
			info, err := fsys.Stat(pattern)
			if err == nil && info.Mode().IsRegular() {
				add(pattern)
			} else if err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to stat %s: %w", pattern, err)
			}
			continue
		}
		base, _ := doublestar.SplitPattern(pattern)
		if _, err := fsys.Stat(base); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", base, err)
		}
		err := afero.Walk(fsys, base, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel := filepath.ToSlash(p)
			if info.IsDir() {
				if rel != base && skippedDirs[info.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if ok, _ := doublestar.Match(pattern, rel); ok && info.Mode().IsRegular() {
				add(rel)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", raw, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func cleanPattern(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	p = strings.TrimPrefix(p, "./")
	if p == "" {
		return "."
	}
	return path.Clean(p)
}
