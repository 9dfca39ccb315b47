// Package rename implements the rename/deduplication engine (C9): within-tree
// content deduplication and collision-safe, content-addressed renaming of
// indexed files and directories.
package rename

import (
	"github.com/shruggietech/indexer/pkg/hashing"
	"github.com/shruggietech/indexer/pkg/index"
	"github.com/shruggietech/indexer/pkg/logging"
)

// PathIndex maps a tree entry to the absolute filesystem path it was built
// from. IndexEntry itself only carries the root-relative path recorded at
// build time, so the caller that walked the filesystem to build the tree
// populates this alongside it, for every file and directory entry including
// ones later absorbed as duplicates.
type PathIndex map[*index.IndexEntry]string

// Dedup groups file entries in root's tree by content hash under
// idAlgorithm, absorbing every group member after the first into the first's
// Duplicates list and pruning it from its parent's Items. "First" means
// first encountered walking the tree depth-first from root, matching the
// traversal order that built it, per the canonical-entry rule.
//
// Directory entries are never deduplicated — only file content is compared.
// It returns the number of files absorbed.
func Dedup(root *index.IndexEntry, idAlgorithm hashing.Algorithm, logger *logging.Logger) int {
	var files []*index.IndexEntry
	collectFiles(root, &files)

	groups := make(map[string][]*index.IndexEntry)
	var order []string
	for _, entry := range files {
		if entry.Hashes == nil {
			continue
		}
		digest, ok := entry.Hashes.Get(idAlgorithm)
		if !ok || digest == "" {
			continue
		}
		if _, seen := groups[digest]; !seen {
			order = append(order, digest)
		}
		groups[digest] = append(groups[digest], entry)
	}

	removed := make(map[*index.IndexEntry]bool)
	var absorbed int
	for _, digest := range order {
		members := groups[digest]
		if len(members) < 2 {
			continue
		}
		canonical := members[0]
		for _, duplicate := range members[1:] {
			canonical.Duplicates = append(canonical.Duplicates, duplicate)
			removed[duplicate] = true
			absorbed++
			if logger != nil {
				logger.Infof("absorbing duplicate %s into canonical %s", duplicate.FileSystem.Relative, canonical.FileSystem.Relative)
			}
		}
	}

	if len(removed) > 0 {
		pruneRemoved(root, removed)
	}
	return absorbed
}

func collectFiles(node *index.IndexEntry, out *[]*index.IndexEntry) {
	if node.Type == index.TypeFile {
		*out = append(*out, node)
		return
	}
	for _, child := range node.Items {
		collectFiles(child, out)
	}
}

// pruneRemoved drops every entry in removed from its parent's Items,
// recursing into whatever survives.
func pruneRemoved(node *index.IndexEntry, removed map[*index.IndexEntry]bool) {
	if node.Type != index.TypeDirectory {
		return
	}
	kept := node.Items[:0]
	for _, child := range node.Items {
		if removed[child] {
			continue
		}
		pruneRemoved(child, removed)
		kept = append(kept, child)
	}
	node.Items = kept
}
