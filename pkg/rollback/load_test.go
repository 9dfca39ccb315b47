package rollback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shruggietech/indexer/pkg/index"
	"github.com/shruggietech/indexer/pkg/logging"
)

func TestLoadSingleSidecarFlattensItemsAndDuplicates(t *testing.T) {
	dir := t.TempDir()

	canonical := fileEntry("a.txt", "a.txt")
	canonical.ID = "y-canonical"
	canonical.SessionID = "session-1"
	canonical.Duplicates = []*index.IndexEntry{
		{Type: index.TypeFile, ID: "y-dup", Name: index.NameObject{Text: textPtr("a-copy.txt")}, SessionID: "session-1"},
	}
	root := &index.IndexEntry{
		Type:      index.TypeDirectory,
		ID:        "x-root",
		SessionID: "session-1",
		Items:     []*index.IndexEntry{canonical},
	}

	sidecarPath := filepath.Join(dir, "root_directorymeta2.json")
	require.NoError(t, index.WriteInPlaceSidecar(sidecarPath, root, logging.RootLogger))

	entries, err := Load(sidecarPath, false)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var sawCanonical, sawDuplicate bool
	for _, fe := range entries {
		if fe.Entry.ID == "y-canonical" {
			sawCanonical = true
			require.False(t, fe.Duplicate)
		}
		if fe.Entry.ID == "y-dup" {
			sawDuplicate = true
			require.True(t, fe.Duplicate)
			require.Equal(t, "y-canonical", fe.Canonical.ID)
		}
	}
	require.True(t, sawCanonical)
	require.True(t, sawDuplicate)
}

func TestLoadDirectoryDedupsAcrossOverlappingSidecars(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	child := fileEntry("b.txt", "sub/b.txt")
	child.ID = "y-child"
	root := &index.IndexEntry{
		Type:  index.TypeDirectory,
		ID:    "x-root",
		Items: []*index.IndexEntry{child},
	}

	require.NoError(t, index.WriteInPlaceSidecar(filepath.Join(dir, "root_directorymeta2.json"), root, logging.RootLogger))
	// A redundant per-file sidecar for the same child, as if both an
	// aggregate and an in-place sidecar exist side by side.
	require.NoError(t, index.WriteInPlaceSidecar(filepath.Join(dir, "sub", "b.txt_meta2.json"), child, logging.RootLogger))

	entries, err := Load(dir, true)
	require.NoError(t, err)

	count := 0
	for _, fe := range entries {
		if fe.Entry.ID == "y-child" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestSessionIDsReturnsDistinctIDsInFirstSeenOrder(t *testing.T) {
	entries := []FlatEntry{
		{Entry: fileEntry("a.txt", "a.txt"), SessionID: "s1"},
		{Entry: fileEntry("b.txt", "b.txt"), SessionID: "s2"},
		{Entry: fileEntry("c.txt", "c.txt"), SessionID: "s1"},
	}
	require.Equal(t, []string{"s1", "s2"}, SessionIDs(entries))
}
