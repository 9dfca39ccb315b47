package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shruggietech/indexer/pkg/config"
	"github.com/shruggietech/indexer/pkg/index"
)

func testConfig(t *testing.T, mutate func(*config.Config)) *Config {
	t.Helper()
	raw := config.Defaults()
	raw.Metadata.ExtractEXIF = false
	if mutate != nil {
		mutate(raw)
	}
	compiled, err := Compile(raw)
	require.NoError(t, err)
	return compiled
}

func TestRunBuildsTreeAndWritesStdout(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("world"), 0o644))

	cfg := testConfig(t, func(c *config.Config) {
		c.Output.Stdout = true
	})

	var out bytes.Buffer
	result, err := Run(context.Background(), root, cfg, RunOptions{
		SessionID: "22222222-2222-2222-2222-222222222222",
		Stdout:    &out,
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.NotNil(t, result.Root)
	require.Equal(t, index.TypeDirectory, result.Root.Type)
	require.Len(t, result.Root.Items, 2)

	var decoded index.IndexEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, result.Root.ID, decoded.ID)
}

func TestRunWritesAggregateFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))

	outputPath := filepath.Join(t.TempDir(), "index.json")
	cfg := testConfig(t, func(c *config.Config) {
		c.Output.Stdout = false
		c.Output.File = outputPath
	})

	result, err := Run(context.Background(), root, cfg, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.FileExists(t, outputPath)
}

func TestRunRejectsMissingTarget(t *testing.T) {
	cfg := testConfig(t, nil)

	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), cfg, RunOptions{})
	require.Error(t, err)
	target, ok := err.(*TargetError)
	require.True(t, ok)
	require.NotEmpty(t, target.Path)
}

func TestRunSafetyGateRejectsMergeDeleteWithoutOutput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))

	// A hand-built Config bypasses Compile's implication chain entirely, so
	// this exercises Run's own defensive re-check of the safety gate.
	cfg := &Config{MetaMergeDelete: true}

	_, err := Run(context.Background(), root, cfg, RunOptions{})
	require.Error(t, err)
	_, ok := err.(*ConfigurationError)
	require.True(t, ok)
}

func TestRunHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "file"+string(rune('a'+i))+".txt"), []byte("x"), 0o644))
	}

	cfg := testConfig(t, nil)

	var calls int
	_, err := Run(context.Background(), root, cfg, RunOptions{
		Cancel: func() bool {
			calls++
			return calls > 1
		},
	})
	require.Error(t, err)
	_, ok := err.(*Cancelled)
	require.True(t, ok)
}

func TestRunRenameEnabledProducesSidecars(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("identical"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("identical"), 0o644))

	cfg := testConfig(t, func(c *config.Config) {
		c.Rename.Enabled = true
		c.Output.Stdout = false
	})

	result, err := Run(context.Background(), root, cfg, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.DedupAbsorbed)
	require.True(t, result.RenameResult.Renamed > 0)
	require.FileExists(t, filepath.Join(root, result.Root.Items[0].Attributes.StorageName+"_meta2.json"))
}
