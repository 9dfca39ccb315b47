// Package traversal implements single-pass directory enumeration and
// depth-first walking (C7), grounded on mutagen's own
// pkg/filesystem/walk.go but reworked as an explicit-stack iterative walk so
// arbitrarily deep trees never grow the Go call stack, and as a single
// scandir-equivalent read per directory rather than the separate stat calls
// filepath.Walk performs.
package traversal

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry is one name read from a single directory listing, still unstat'd
// beyond the type bits os.File.ReadDir already reports.
type Entry struct {
	Name        string
	IsDirectory bool
	IsSymlink   bool
}

// Exclusions gates which names a directory listing drops before it's
// returned: an exact (case-insensitive) name set, plus doublestar glob
// patterns matched against the entry's path relative to the traversal root.
type Exclusions struct {
	Names []string
	Globs []string
}

func (e Exclusions) excludesName(name string) bool {
	for _, n := range e.Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func (e Exclusions) excludesPath(relativePath string) bool {
	lower := strings.ToLower(relativePath)
	for _, glob := range e.Globs {
		if matched, err := doublestar.Match(strings.ToLower(glob), lower); err == nil && matched {
			return true
		}
	}
	return false
}

// ListDirectory performs the one scandir-equivalent read for path, applying
// exclusions and returning entries sorted deterministically: files before
// directories, case-insensitive name order within each group.
func ListDirectory(path, relativeToRoot string, exclusions Exclusions) ([]Entry, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open directory: %w", err)
	}
	defer handle.Close()

	raw, err := handle.ReadDir(0)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory contents: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, info := range raw {
		name := info.Name()
		if exclusions.excludesName(name) {
			continue
		}
		childRelative := name
		if relativeToRoot != "" {
			childRelative = relativeToRoot + "/" + name
		}
		if exclusions.excludesPath(childRelative) {
			continue
		}
		entries = append(entries, Entry{
			Name:        name,
			IsDirectory: info.Type().IsDir(),
			IsSymlink:   info.Type()&os.ModeSymlink != 0,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDirectory != entries[j].IsDirectory {
			return !entries[i].IsDirectory
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	return entries, nil
}
