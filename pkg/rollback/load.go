// Package rollback implements the rollback engine (C12): reversing a prior
// rename+merge+delete run from the sidecars it emitted. Loading flattens a
// sidecar, an aggregate, or a directory of sidecars into a flat list of
// entries (canonical and absorbed duplicates alike); planning turns that
// list into an ordered, side-effect-free RollbackPlan; execution carries the
// plan out with verification and conflict handling.
package rollback

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/shruggietech/indexer/pkg/index"
	"github.com/shruggietech/indexer/pkg/pathutil"
)

// FlatEntry is one entry recovered from a loaded sidecar tree: either a
// canonical entry (Duplicate == false) or one of its absorbed duplicates.
type FlatEntry struct {
	Entry       *index.IndexEntry
	Duplicate   bool
	Canonical   *index.IndexEntry // set only when Duplicate is true
	SessionID   string
}

// Load reads path — a single sidecar file, an aggregate file, or a
// directory of sidecar files — and flattens every entry it (transitively)
// describes, via Items and Duplicates, into a single list. recursive
// controls whether a directory argument is searched below its immediate
// contents for sidecar files.
func Load(path string, recursive bool) ([]FlatEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to stat %s", path)
	}

	if !info.IsDir() {
		root, err := readEntry(path)
		if err != nil {
			return nil, err
		}
		return flatten(root), nil
	}

	sidecarPaths, err := findSidecars(path, recursive)
	if err != nil {
		return nil, err
	}
	// Sort shallowest-first so a directory aggregate (which nests its whole
	// subtree) is read before any of the individual sidecars it already
	// covers, letting the dedup below (keyed on id plus relative path, since
	// an absorbed duplicate shares its canonical's id) skip the redundant
	// ones.
	sort.Slice(sidecarPaths, func(i, j int) bool {
		return strings.Count(sidecarPaths[i], string(filepath.Separator)) < strings.Count(sidecarPaths[j], string(filepath.Separator))
	})

	seen := make(map[string]bool)
	var all []FlatEntry
	for _, sc := range sidecarPaths {
		root, err := readEntry(sc)
		if err != nil {
			return nil, err
		}
		for _, fe := range flatten(root) {
			key := fe.Entry.ID + "\x00" + fe.Entry.FileSystem.Relative
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, fe)
		}
	}
	return all, nil
}

func readEntry(path string) (*index.IndexEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read sidecar %s", path)
	}
	var entry index.IndexEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, errors.Wrapf(err, "unable to parse sidecar %s", path)
	}
	return &entry, nil
}

func findSidecars(root string, recursive bool) ([]string, error) {
	var found []string
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read directory %s", root)
	}
	for _, e := range entries {
		full := filepath.Join(root, e.Name())
		if e.IsDir() {
			if recursive {
				nested, err := findSidecars(full, recursive)
				if err != nil {
					return nil, err
				}
				found = append(found, nested...)
			}
			continue
		}
		if pathutil.IsSidecarSuffixed(e.Name()) {
			found = append(found, full)
		}
	}
	return found, nil
}

// flatten walks root's tree (via Items) and every canonical entry's
// Duplicates array, producing one FlatEntry per node encountered.
func flatten(root *index.IndexEntry) []FlatEntry {
	var out []FlatEntry
	var walk func(e *index.IndexEntry)
	walk = func(e *index.IndexEntry) {
		out = append(out, FlatEntry{Entry: e, SessionID: e.SessionID})
		for _, dup := range e.Duplicates {
			out = append(out, FlatEntry{Entry: dup, Duplicate: true, Canonical: e, SessionID: e.SessionID})
		}
		for _, child := range e.Items {
			walk(child)
		}
	}
	walk(root)
	return out
}

// SessionIDs returns the distinct session_id values present across entries,
// used to raise the mixed-session advisory in structured mode.
func SessionIDs(entries []FlatEntry) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, fe := range entries {
		if fe.SessionID == "" || seen[fe.SessionID] {
			continue
		}
		seen[fe.SessionID] = true
		ids = append(ids, fe.SessionID)
	}
	return ids
}
