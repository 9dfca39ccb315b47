// Package pathutil implements the canonicalization, decomposition, and
// sidecar/storage path derivation rules shared by the traversal, entry
// builder, and rename engine. It mirrors the small, dependency-free style of
// mutagen's own pkg/filesystem/paths.go, generalized from data-directory
// bookkeeping to index-specific path derivation.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// metaSuffix is the suffix appended to a file's absolute path to derive its
// in-place sidecar path.
const metaSuffix = "_meta2.json"

// directoryMetaSuffix is the suffix appended to a directory's own leaf name
// to derive its in-place sidecar file name.
const directoryMetaSuffix = "_directorymeta2.json"

// Resolve canonicalizes an input path to an absolute path. It first attempts
// strict resolution (symlink evaluation via the OS), and if that fails — most
// commonly because the path is a dangling symlink or doesn't exist — falls
// back to lexical normalization so that indexing can still proceed and
// classify the target as whatever it turns out to be (including "doesn't
// exist", which is a TargetError the caller surfaces distinctly).
func Resolve(input string) (string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", errors.Wrap(err, "unable to compute absolute path")
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	// Strict resolution failed (dangling symlink, permission error on an
	// intermediate component, or a path that doesn't exist yet). Fall back to
	// lexical normalization without requiring existence.
	return filepath.Clean(abs), nil
}

// ExtractComponents splits an absolute path into its parent directory, file
// stem, and lowercase extension (without the leading dot). Extensionless
// names and dotfiles report an empty extension; the path is not inspected on
// disk, so a directory name containing a dot reports an extension too.
func ExtractComponents(path string) (parent, stem, extension string) {
	parent = filepath.Dir(path)
	base := filepath.Base(path)

	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		// filepath.Ext returns the full name for dotfiles like ".gitignore"
		// (no stem remains); treat that as extensionless, matching the
		// classifier's expectation that extension is a meaningful suffix, not
		// a dotfile's entire name.
		return parent, base, ""
	}

	stem = strings.TrimSuffix(base, ext)
	extension = strings.ToLower(strings.TrimPrefix(ext, "."))
	return parent, stem, extension
}

// BuildSidecarPath derives the in-place sidecar path for an item. Files get a
// sibling "<name>_meta2.json"; directories get a "<leaf>_directorymeta2.json"
// inside themselves, keyed off the directory's own leaf name (not "index" or
// any other fixed name), per the open question in spec.md resolved in favor
// of preserving the original source's behavior.
func BuildSidecarPath(itemPath string, isDirectory bool) string {
	if isDirectory {
		leaf := filepath.Base(itemPath)
		return filepath.Join(itemPath, leaf+directoryMetaSuffix)
	}
	return itemPath + metaSuffix
}

// BuildStoragePath joins an item's parent directory with a storage name,
// producing the path a rename operation should target.
func BuildStoragePath(itemPath, storageName string) string {
	return filepath.Join(filepath.Dir(itemPath), storageName)
}

// RelativeOf computes the path of item relative to root, always using
// forward slashes regardless of host OS (invariant I5).
func RelativeOf(item, root string) (string, error) {
	rel, err := filepath.Rel(root, item)
	if err != nil {
		return "", errors.Wrapf(err, "unable to compute relative path of %s under %s", item, root)
	}
	return filepath.ToSlash(rel), nil
}

// IsSidecarSuffixed reports whether name looks like one of the in-place
// sidecar files this package produces, so traversal and rollback can tell
// index output apart from user content.
func IsSidecarSuffixed(name string) bool {
	return strings.HasSuffix(name, metaSuffix) || strings.HasSuffix(name, directoryMetaSuffix)
}
