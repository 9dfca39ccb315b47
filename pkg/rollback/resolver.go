package rollback

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shruggietech/indexer/pkg/hashing"
	"github.com/shruggietech/indexer/pkg/index"
)

// SourceResolver locates the current on-disk file backing an entry's
// content, so the rollback plan can copy bytes from it into place. It's
// pluggable so a future resolver could, for example, pull content from a
// remote blob store; the default looks only on the local filesystem.
type SourceResolver interface {
	Resolve(entry *index.IndexEntry, searchDir string) (string, bool)
}

// DefaultResolver implements the local-filesystem lookup spec.md §4.12
// describes: look for the entry's storage_name first (the common case,
// since rename leaves files under that name), directly in searchDir and
// then anywhere below it (rename also renames subdirectories, so a file's
// renamed parent directory no longer has its old name); otherwise look for the
// entry's original name and verify it by content hash before trusting it,
// since a same-named file in searchDir is not necessarily the same file the
// sidecar describes.
type DefaultResolver struct{}

func (DefaultResolver) Resolve(entry *index.IndexEntry, searchDir string) (string, bool) {
	if entry.Attributes.StorageName != "" {
		candidate := filepath.Join(searchDir, entry.Attributes.StorageName)
		if fileExists(candidate) {
			return candidate, true
		}
		var found string
		filepath.WalkDir(searchDir, func(p string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() && d.Name() == entry.Attributes.StorageName {
				found = p
				return fs.SkipAll
			}
			return nil
		})
		if found != "" {
			return found, true
		}
	}

	if entry.Name.Text == nil {
		return "", false
	}
	candidate := filepath.Join(searchDir, *entry.Name.Text)
	if !fileExists(candidate) {
		return "", false
	}
	if entry.Hashes == nil {
		return candidate, true
	}

	algorithms := algorithmsPresent(*entry.Hashes)
	if len(algorithms) == 0 {
		return candidate, true
	}
	sum, err := hashing.HashFile(candidate, algorithms)
	if err != nil || !hashSetMatches(sum, *entry.Hashes) {
		return "", false
	}
	return candidate, true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// algorithmsPresent reports which algorithms a HashSet actually populated,
// so verification only compares digests that were recorded.
func algorithmsPresent(set hashing.HashSet) []hashing.Algorithm {
	var algorithms []hashing.Algorithm
	if set.MD5 != "" {
		algorithms = append(algorithms, hashing.MD5)
	}
	if set.SHA256 != "" {
		algorithms = append(algorithms, hashing.SHA256)
	}
	if set.SHA512 != "" {
		algorithms = append(algorithms, hashing.SHA512)
	}
	return algorithms
}

func hashSetMatches(a, b hashing.HashSet) bool {
	if a.MD5 != "" && b.MD5 != "" && a.MD5 != b.MD5 {
		return false
	}
	if a.SHA256 != "" && b.SHA256 != "" && a.SHA256 != b.SHA256 {
		return false
	}
	if a.SHA512 != "" && b.SHA512 != "" && a.SHA512 != b.SHA512 {
		return false
	}
	return true
}
