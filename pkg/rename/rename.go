package rename

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/shruggietech/indexer/pkg/hashing"
	"github.com/shruggietech/indexer/pkg/index"
	"github.com/shruggietech/indexer/pkg/logging"
	"github.com/shruggietech/indexer/pkg/pathutil"
)

// Options configures the rename pass.
type Options struct {
	DryRun           bool
	DeleteDuplicates bool
	IDAlgorithm      hashing.Algorithm
	Algorithms       []hashing.Algorithm
	Logger           *logging.Logger
}

// Result tallies what the rename pass did, for the caller's exit-status
// decision and summary logging.
type Result struct {
	Renamed           int
	Skipped           int
	Collisions        []string
	DuplicatesDeleted int
}

// Rename walks root's tree — expected to already have run through Dedup, so
// every remaining file entry is canonical — renaming each file and directory
// whose current path doesn't already match its content-derived storage name.
// Every real rename is followed by an in-place sidecar write using the new
// name, and, when enabled, deletion of the source files of any duplicates
// that were absorbed into the entry just renamed.
//
// The indexed target itself is never renamed: when it is a directory, only
// its contents go through the rename pass (renaming the directory a user
// pointed the tool at would be a surprising side effect of an indexing run);
// when the target is a single file, that file is the whole tree and is
// renamed like any other entry.
//
// paths supplies each entry's current absolute path and is updated in place
// as entries move, so path lookups after Rename returns reflect the new
// layout.
func Rename(root *index.IndexEntry, paths PathIndex, opts Options) (Result, error) {
	var result Result
	if root.Type == index.TypeFile {
		err := renameNode(root, paths, opts, &result)
		return result, err
	}
	for _, child := range root.Items {
		if err := renameNode(child, paths, opts, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func renameNode(entry *index.IndexEntry, paths PathIndex, opts Options, result *Result) error {
	if err := renameOne(entry, paths, opts, result); err != nil {
		return err
	}
	if entry.Type == index.TypeDirectory {
		for _, child := range entry.Items {
			if err := renameNode(child, paths, opts, result); err != nil {
				return err
			}
		}
	}
	return nil
}

func renameOne(entry *index.IndexEntry, paths PathIndex, opts Options, result *Result) error {
	current, ok := paths[entry]
	if !ok {
		return errors.Errorf("no tracked path for entry %s", entry.ID)
	}

	target := pathutil.BuildStoragePath(current, entry.Attributes.StorageName)
	if target == current {
		result.Skipped++
		return nil
	}

	collision, err := collides(current, target, entry, opts.Algorithms)
	if err != nil {
		return err
	}
	if collision {
		opts.Logger.Warnf("rename target %s already exists with different content; skipping %s", target, current)
		result.Collisions = append(result.Collisions, current)
		return nil
	}

	if opts.DryRun {
		opts.Logger.Infof("would rename %s to %s", current, target)
		result.Renamed++
		return nil
	}

	if err := os.Rename(current, target); err != nil {
		return errors.Wrapf(err, "unable to rename %s to %s", current, target)
	}
	paths[entry] = target
	result.Renamed++

	if entry.Type == index.TypeDirectory {
		updateDescendantPaths(entry, paths, current, target)
	}

	sidecarPath := pathutil.BuildSidecarPath(target, entry.Type == index.TypeDirectory)
	if err := index.WriteInPlaceSidecar(sidecarPath, entry, opts.Logger); err != nil {
		opts.Logger.Warnf("unable to write rename sidecar for %s: %v", target, err)
	}

	if opts.DeleteDuplicates {
		deleteDuplicates(entry, paths, opts, result)
	}

	return nil
}

// updateDescendantPaths rewrites the tracked path of every descendant of
// entry (and the duplicates absorbed into any of them) after entry itself —
// a directory — moved from oldPrefix to newPrefix, so later rename steps
// deeper in the same walk see current locations rather than paths rooted
// under the old directory name.
func updateDescendantPaths(entry *index.IndexEntry, paths PathIndex, oldPrefix, newPrefix string) {
	for _, child := range entry.Items {
		rewritePath(child, paths, oldPrefix, newPrefix)
		for _, duplicate := range child.Duplicates {
			rewritePath(duplicate, paths, oldPrefix, newPrefix)
		}
		updateDescendantPaths(child, paths, oldPrefix, newPrefix)
	}
}

func rewritePath(entry *index.IndexEntry, paths PathIndex, oldPrefix, newPrefix string) {
	if p, ok := paths[entry]; ok && (p == oldPrefix || strings.HasPrefix(p, oldPrefix+string(os.PathSeparator))) {
		paths[entry] = newPrefix + strings.TrimPrefix(p, oldPrefix)
	}
}

// deleteDuplicates removes the source files of every duplicate absorbed into
// entry, logged at INFO per item; failures are logged and counted against
// neither Renamed nor aborting the walk.
func deleteDuplicates(entry *index.IndexEntry, paths PathIndex, opts Options, result *Result) {
	for _, duplicate := range entry.Duplicates {
		path, ok := paths[duplicate]
		if !ok {
			continue
		}
		if err := os.Remove(path); err != nil {
			opts.Logger.Warnf("unable to delete absorbed duplicate %s: %v", path, err)
			continue
		}
		opts.Logger.Infof("deleted absorbed duplicate %s", path)
		result.DuplicatesDeleted++
	}
}

// collides reports whether target already exists and is neither the same
// file as current (a no-op rename racing with its own prior output) nor
// identical in content to entry — the condition under which the rename pass
// aborts this one item rather than overwriting something it doesn't own.
func collides(current, target string, entry *index.IndexEntry, algorithms []hashing.Algorithm) (bool, error) {
	targetInfo, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, errors.Wrapf(err, "unable to stat rename target %s", target)
	}

	if currentInfo, err := os.Lstat(current); err == nil && os.SameFile(currentInfo, targetInfo) {
		return false, nil
	}

	if entry.Type == index.TypeDirectory || entry.Hashes == nil {
		return true, nil
	}

	targetHashes, err := hashing.HashFile(target, algorithms)
	if err != nil {
		return true, nil
	}
	return targetHashes.MD5 != entry.Hashes.MD5 || targetHashes.SHA256 != entry.Hashes.SHA256, nil
}
