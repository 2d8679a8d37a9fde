package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// renameFile replaces path with the freshly written tmp snapshot,
// removing any previous snapshot first.
func renameFile(tmp, path string) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing previous snapshot: %w", err)
		}
	}
	return os.Rename(tmp, path)
}

// SessionDBPaths lists recorded session databases in dir, newest last.
func SessionDBPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading session dir %q: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".db") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
