package rollback

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shruggietech/indexer/pkg/config"
	"github.com/shruggietech/indexer/pkg/orchestrator"
)

// TestRollbackRoundTripRestoresRenamedFiles exercises the full rename ->
// in-place sidecar -> rollback cycle end to end: a session renames two
// files (one of them a duplicate, absorbed into the other) to their
// content-hash storage names and writes in-place sidecars, then rollback
// reads those sidecars back and restores everything under its original
// relative path and name into a fresh directory.
func TestRollbackRoundTripRestoresRenamedFiles(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(source, "sub"), 0o755))

	contentA := []byte("unique content for file a")
	contentB := []byte("duplicated content")
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), contentA, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "sub", "b.txt"), contentB, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "sub", "b-copy.txt"), contentB, 0o644))

	raw := config.Defaults()
	raw.Metadata.ExtractEXIF = false
	raw.Rename.Enabled = true
	raw.Output.Stdout = false
	raw.Output.WriteDirectoryMeta = true
	compiled, err := orchestrator.Compile(raw)
	require.NoError(t, err)

	result, err := orchestrator.Run(context.Background(), source, compiled, orchestrator.RunOptions{})
	require.NoError(t, err)
	require.Equal(t, orchestrator.StatusSuccess, result.Status)
	require.Equal(t, 1, result.DedupAbsorbed)

	entries, err := Load(source, true)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	restoreDir := t.TempDir()
	plan := BuildPlan(entries, restoreDir, Options{})
	require.Empty(t, plan.Warnings)

	report, err := Execute(plan, ExecuteOptions{SearchDir: source})
	require.NoError(t, err)
	require.Empty(t, report.Conflicts)

	restoredA, err := os.ReadFile(filepath.Join(restoreDir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, contentA, restoredA)

	restoredB, err := os.ReadFile(filepath.Join(restoreDir, "sub", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, contentB, restoredB)

	restoredBCopy, err := os.ReadFile(filepath.Join(restoreDir, "sub", "b-copy.txt"))
	require.NoError(t, err)
	require.Equal(t, contentB, restoredBCopy)
}
