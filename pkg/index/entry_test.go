package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shruggietech/indexer/pkg/hashing"
	"github.com/shruggietech/indexer/pkg/logging"
	"github.com/shruggietech/indexer/pkg/sidecar"
)

func testContext() *BuildContext {
	return &BuildContext{
		Algorithms:  hashing.DefaultAlgorithms,
		IDAlgorithm: hashing.MD5,
		SessionID:   "11111111-1111-1111-1111-111111111111",
		Logger:      logging.RootLogger,
	}
}

// TestS1SingleFileDefaults implements scenario S1: a 5-byte file containing
// "hello" must hash and identify exactly as the literal MD5 of "hello".
func TestS1SingleFileDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	ctx := testContext()
	entry, degraded, err := ctx.BuildFile(context.Background(), path, "hello.txt", "", filepath.Base(dir), nil)
	require.NoError(t, err)
	require.False(t, degraded)

	require.Equal(t, "y5D41402ABC4B2A76B9719D911017C592", entry.ID)
	require.Equal(t, TypeFile, entry.Type)
	require.NotNil(t, entry.Extension)
	require.Equal(t, "txt", *entry.Extension)
	require.Equal(t, "y5D41402ABC4B2A76B9719D911017C592.txt", entry.Attributes.StorageName)
	require.NotNil(t, entry.Hashes)
	require.Equal(t, "5D41402ABC4B2A76B9719D911017C592", entry.Hashes.MD5)
	require.Nil(t, entry.Items)
}

// TestS2EmptyDirectory implements scenario S2: an empty directory's id is
// the two-layer hash of its own name and an empty parent name.
func TestS2EmptyDirectory(t *testing.T) {
	root := t.TempDir()
	dirPath := filepath.Join(root, "D")
	require.NoError(t, os.Mkdir(dirPath, 0o755))

	ctx := testContext()
	entry, err := ctx.BuildDirectory(dirPath, "D", "", nil, nil, nil)
	require.NoError(t, err)

	require.Equal(t, TypeDirectory, entry.Type)
	require.Nil(t, entry.Hashes)
	require.NotNil(t, entry.Items)
	require.Len(t, entry.Items, 0)
	require.Equal(t, byte('x'), entry.ID[0])

	innerSelf, err := hashing.HashName("D", ctx.Algorithms)
	require.NoError(t, err)
	innerParent := hashing.NullHashes()
	expectedOuter, err := hashing.HashBytes([]byte(idHex(innerSelf, ctx.IDAlgorithm)+idHex(innerParent, ctx.IDAlgorithm)), ctx.Algorithms)
	require.NoError(t, err)
	// BuildDirectory hashes the literal (possibly empty) parentName string,
	// not the precomputed null hashes, for its inner-parent component;
	// confirm those two routes agree for an empty parent name.
	parentHashSet, err := hashing.HashName("", ctx.Algorithms)
	require.NoError(t, err)
	require.Equal(t, idHex(parentHashSet, ctx.IDAlgorithm), idHex(innerParent, ctx.IDAlgorithm))
	require.Equal(t, "x"+idHex(expectedOuter, ctx.IDAlgorithm), entry.ID)
}

// TestS5DanglingSymlink implements scenario S5: a symlink with a missing
// target must still be emitted, identified by its own name hash, with no
// metadata and no error.
func TestS5DanglingSymlink(t *testing.T) {
	dir := t.TempDir()
	linkPath := filepath.Join(dir, "dangling")
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing-target"), linkPath))

	ctx := testContext()
	entry, degraded, err := ctx.BuildFile(context.Background(), linkPath, "dangling", "", filepath.Base(dir), nil)
	require.NoError(t, err)
	require.False(t, degraded)

	require.True(t, entry.Attributes.IsLink)
	require.NotNil(t, entry.Hashes)

	nameHashes, err := hashing.HashName("dangling", ctx.Algorithms)
	require.NoError(t, err)
	require.Equal(t, nameHashes.MD5, entry.Hashes.MD5)
	require.Equal(t, "y"+idHex(nameHashes, ctx.IDAlgorithm), entry.ID)
	require.Empty(t, entry.Metadata)
}

func TestDirectorySortsItemsFilesFirstCaseInsensitive(t *testing.T) {
	ctx := testContext()
	children := []*IndexEntry{
		mustNamedEntry(t, ctx, "Zdir", TypeDirectory),
		mustNamedEntry(t, ctx, "banana.txt", TypeFile),
		mustNamedEntry(t, ctx, "Apple.txt", TypeFile),
		mustNamedEntry(t, ctx, "adir", TypeDirectory),
	}
	sortItems(children)

	var names []string
	for _, c := range children {
		names = append(names, nameText(c))
	}
	require.Equal(t, []string{"Apple.txt", "banana.txt", "adir", "Zdir"}, names)
}

func mustNamedEntry(t *testing.T, ctx *BuildContext, name, typ string) *IndexEntry {
	t.Helper()
	nameObj, err := nameObject(name, ctx.Algorithms)
	require.NoError(t, err)
	return &IndexEntry{Type: typ, Name: nameObj}
}

func TestMetadataEntrySidecarMergeAndDeleteQueue(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "movie.mp4")
	subsPath := filepath.Join(dir, "movie.srt")
	require.NoError(t, os.WriteFile(videoPath, []byte("binary-ish video bytes"), 0o644))
	require.NoError(t, os.WriteFile(subsPath, []byte("1\n00:00:01 --> 00:00:02\nHello\n"), 0o644))

	var queue []string
	ctx := testContext()
	ctx.SidecarConfig = sidecar.DefaultConfig()
	ctx.MergeSidecars = true
	ctx.MergeDelete = true
	ctx.DeleteQueue = &queue

	siblings := []sidecar.Sibling{
		{Name: "movie.mp4", Stem: "movie", Extension: "mp4"},
		{Name: "movie.srt", Stem: "movie", Extension: "srt"},
	}

	entry, degraded, err := ctx.BuildFile(context.Background(), videoPath, "movie.mp4", "", filepath.Base(dir), siblings)
	require.NoError(t, err)
	require.False(t, degraded)
	require.Len(t, entry.Metadata, 1)
	require.Equal(t, OriginSidecar, entry.Metadata[0].Origin)
	require.Equal(t, "subtitles", entry.Metadata[0].Attributes.Type)
	require.Contains(t, queue, subsPath)
}

func TestTimePairRoundTrips(t *testing.T) {
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pair := timePair(when)
	require.Equal(t, when.UnixMilli(), pair.Unix)
}
