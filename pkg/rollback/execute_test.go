package rollback

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shruggietech/indexer/pkg/hashing"
	"github.com/shruggietech/indexer/pkg/index"
)

func entryForContent(t *testing.T, name string, content []byte, modified time.Time) *index.IndexEntry {
	t.Helper()
	sum, err := hashing.HashBytes(content, hashing.DefaultAlgorithms)
	require.NoError(t, err)
	return &index.IndexEntry{
		Type:       index.TypeFile,
		Name:       index.NameObject{Text: textPtr(name)},
		FileSystem: index.FileSystemInfo{Relative: name},
		Hashes:     &sum,
		Attributes: index.Attributes{StorageName: name},
		Timestamps: index.Timestamps{
			Modified: index.TimePair{Unix: modified.UnixMilli()},
			Accessed: index.TimePair{Unix: modified.UnixMilli()},
		},
	}
}

func TestExecuteRestoresFileContentAndTimestamps(t *testing.T) {
	searchDir := t.TempDir()
	targetDir := t.TempDir()

	content := []byte("hello rollback")
	modified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.WriteFile(filepath.Join(searchDir, "a.txt"), content, 0o644))

	entry := entryForContent(t, "a.txt", content, modified)
	plan := &Plan{Actions: []Action{
		{Kind: ActionRestore, Path: filepath.Join(targetDir, "a.txt"), Entry: entry},
	}}

	report, err := Execute(plan, ExecuteOptions{SearchDir: searchDir})
	require.NoError(t, err)
	require.Empty(t, report.Conflicts)
	require.Contains(t, report.Created, filepath.Join(targetDir, "a.txt"))

	restored, err := os.ReadFile(filepath.Join(targetDir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, content, restored)

	info, err := os.Stat(filepath.Join(targetDir, "a.txt"))
	require.NoError(t, err)
	require.WithinDuration(t, modified, info.ModTime(), time.Second)
}

func TestExecuteSkipsIdenticalConflictWithoutForce(t *testing.T) {
	searchDir := t.TempDir()
	targetDir := t.TempDir()

	content := []byte("same bytes")
	require.NoError(t, os.WriteFile(filepath.Join(searchDir, "a.txt"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(targetDir, "a.txt"), content, 0o644))

	entry := entryForContent(t, "a.txt", content, time.Now())
	plan := &Plan{Actions: []Action{
		{Kind: ActionRestore, Path: filepath.Join(targetDir, "a.txt"), Entry: entry},
	}}

	report, err := Execute(plan, ExecuteOptions{SearchDir: searchDir})
	require.NoError(t, err)
	require.Empty(t, report.Conflicts)
	require.Contains(t, report.Skipped, filepath.Join(targetDir, "a.txt"))
}

func TestExecuteReportsConflictOnDivergentContentWithoutForce(t *testing.T) {
	searchDir := t.TempDir()
	targetDir := t.TempDir()

	content := []byte("new bytes")
	require.NoError(t, os.WriteFile(filepath.Join(searchDir, "a.txt"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(targetDir, "a.txt"), []byte("old bytes"), 0o644))

	entry := entryForContent(t, "a.txt", content, time.Now())
	plan := &Plan{Actions: []Action{
		{Kind: ActionRestore, Path: filepath.Join(targetDir, "a.txt"), Entry: entry},
	}}

	report, err := Execute(plan, ExecuteOptions{SearchDir: searchDir})
	require.NoError(t, err)
	require.Contains(t, report.Conflicts, filepath.Join(targetDir, "a.txt"))

	existing, err := os.ReadFile(filepath.Join(targetDir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte("old bytes"), existing)
}

func TestExecuteForceOverwritesConflict(t *testing.T) {
	searchDir := t.TempDir()
	targetDir := t.TempDir()

	content := []byte("new bytes")
	require.NoError(t, os.WriteFile(filepath.Join(searchDir, "a.txt"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(targetDir, "a.txt"), []byte("old bytes"), 0o644))

	entry := entryForContent(t, "a.txt", content, time.Now())
	plan := &Plan{Actions: []Action{
		{Kind: ActionRestore, Path: filepath.Join(targetDir, "a.txt"), Entry: entry},
	}}

	report, err := Execute(plan, ExecuteOptions{SearchDir: searchDir, Force: true})
	require.NoError(t, err)
	require.Empty(t, report.Conflicts)
	require.Contains(t, report.Created, filepath.Join(targetDir, "a.txt"))

	restored, err := os.ReadFile(filepath.Join(targetDir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, content, restored)
}

func TestExecuteDryRunMakesNoFilesystemChanges(t *testing.T) {
	searchDir := t.TempDir()
	targetDir := t.TempDir()

	content := []byte("hello")
	require.NoError(t, os.WriteFile(filepath.Join(searchDir, "a.txt"), content, 0o644))

	entry := entryForContent(t, "a.txt", content, time.Now())
	plan := &Plan{Actions: []Action{
		{Kind: ActionMkdir, Path: filepath.Join(targetDir, "sub")},
		{Kind: ActionRestore, Path: filepath.Join(targetDir, "sub", "a.txt"), Entry: entry},
	}}

	report, err := Execute(plan, ExecuteOptions{SearchDir: searchDir, DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Created, 2)

	_, err = os.Stat(filepath.Join(targetDir, "sub"))
	require.True(t, os.IsNotExist(err))
}

func TestExecuteSidecarRestoreReconstructsTextJSONAndLines(t *testing.T) {
	targetDir := t.TempDir()

	lines := []interface{}{"first", "second"}
	plan := &Plan{Actions: []Action{
		{Kind: ActionSidecarRestore, Path: filepath.Join(targetDir, "note.txt"), Metadata: &index.MetadataEntry{
			Attributes: index.MetadataAttributes{Format: "text"},
			Data:       "plain note",
		}},
		{Kind: ActionSidecarRestore, Path: filepath.Join(targetDir, "data.json"), Metadata: &index.MetadataEntry{
			Attributes: index.MetadataAttributes{Format: "json"},
			Data:       map[string]interface{}{"key": "value"},
		}},
		{Kind: ActionSidecarRestore, Path: filepath.Join(targetDir, "list.txt"), Metadata: &index.MetadataEntry{
			Attributes: index.MetadataAttributes{Format: "lines"},
			Data:       lines,
		}},
	}}

	report, err := Execute(plan, ExecuteOptions{})
	require.NoError(t, err)
	require.Len(t, report.Created, 3)

	note, err := os.ReadFile(filepath.Join(targetDir, "note.txt"))
	require.NoError(t, err)
	require.Equal(t, "plain note", string(note))

	data, err := os.ReadFile(filepath.Join(targetDir, "data.json"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"key": "value"`)

	list, err := os.ReadFile(filepath.Join(targetDir, "list.txt"))
	require.NoError(t, err)
	require.Equal(t, "first\nsecond\n", string(list))
}

func TestExecuteSidecarRestoreReconstructsURLShortcut(t *testing.T) {
	targetDir := t.TempDir()
	mediaType := "url"

	plan := &Plan{Actions: []Action{
		{Kind: ActionSidecarRestore, Path: filepath.Join(targetDir, "link.url"), Metadata: &index.MetadataEntry{
			Attributes: index.MetadataAttributes{Format: "text", SourceMediaType: &mediaType},
			Data:       "https://example.com",
		}},
	}}

	report, err := Execute(plan, ExecuteOptions{})
	require.NoError(t, err)
	require.Len(t, report.Created, 1)

	data, err := os.ReadFile(filepath.Join(targetDir, "link.url"))
	require.NoError(t, err)
	require.Equal(t, "[InternetShortcut]\r\nURL=https://example.com\r\n", string(data))
}

func TestExecuteSkipsUnreconstructableLnkSidecar(t *testing.T) {
	targetDir := t.TempDir()
	mediaType := "lnk"

	plan := &Plan{Actions: []Action{
		{Kind: ActionSidecarRestore, Path: filepath.Join(targetDir, "shortcut.lnk"), Metadata: &index.MetadataEntry{
			Attributes: index.MetadataAttributes{Format: "base64", SourceMediaType: &mediaType},
			Data:       "irrelevant",
		}},
	}}

	report, err := Execute(plan, ExecuteOptions{})
	require.NoError(t, err)
	require.Empty(t, report.Created)
	require.Contains(t, report.Skipped, filepath.Join(targetDir, "shortcut.lnk"))
	require.Len(t, report.Warnings, 1)
	require.Contains(t, report.Warnings[0], "cannot be losslessly reconstructed")
}

func TestExecuteMkdirCreatesDirectory(t *testing.T) {
	targetDir := t.TempDir()
	plan := &Plan{Actions: []Action{
		{Kind: ActionMkdir, Path: filepath.Join(targetDir, "nested", "deep")},
	}}

	report, err := Execute(plan, ExecuteOptions{})
	require.NoError(t, err)
	require.Contains(t, report.Created, filepath.Join(targetDir, "nested", "deep"))

	info, err := os.Stat(filepath.Join(targetDir, "nested", "deep"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
