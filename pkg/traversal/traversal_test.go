package traversal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListDirectorySortsFilesBeforeDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zzz-dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Banana.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apple.txt"), []byte("x"), 0o644))

	entries, err := ListDirectory(dir, "", Exclusions{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.False(t, entries[0].IsDirectory)
	require.False(t, entries[1].IsDirectory)
	require.True(t, entries[2].IsDirectory)
	require.Equal(t, "apple.txt", entries[0].Name)
	require.Equal(t, "Banana.txt", entries[1].Name)
}

func TestListDirectoryExcludesByNameAndGlob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thumbs.db"), []byte("x"), 0o644))

	entries, err := ListDirectory(dir, "", Exclusions{
		Names: []string{".ds_store"},
		Globs: []string{"*.db"},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "keep.txt", entries[0].Name)
}

func TestWalkRecursiveVisitsEveryEntry(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("x"), 0o644))

	var visited []string
	err := Walk(context.Background(), root, true, Exclusions{}, func(path, relative string, entry Entry) error {
		visited = append(visited, relative)
		return nil
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.txt", "sub", "sub/b.txt"}, visited)
}

func TestWalkNonRecursiveStaysAtRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	var visited []string
	err := Walk(context.Background(), root, false, Exclusions{}, func(path, relative string, entry Entry) error {
		visited = append(visited, relative)
		return nil
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.txt", "sub"}, visited)
}

func TestWalkSkipDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "skip-me"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip-me", "hidden.txt"), []byte("x"), 0o644))

	var visited []string
	err := Walk(context.Background(), root, true, Exclusions{}, func(path, relative string, entry Entry) error {
		visited = append(visited, relative)
		if entry.IsDirectory {
			return ErrSkipDirectory
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"skip-me"}, visited)
}

func TestWalkRespectsDepth(t *testing.T) {
	root := t.TempDir()
	current := root
	const depth = 50
	for i := 0; i < depth; i++ {
		current = filepath.Join(current, "d")
		require.NoError(t, os.Mkdir(current, 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(current, "leaf.txt"), []byte("x"), 0o644))

	count := 0
	err := Walk(context.Background(), root, true, Exclusions{}, func(path, relative string, entry Entry) error {
		count++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, depth+1, count)
}

func TestWalkStopsOnCancelledContext(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Walk(ctx, root, true, Exclusions{}, func(path, relative string, entry Entry) error {
		return nil
	})
	require.Error(t, err)
}
