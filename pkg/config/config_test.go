package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.Traversal.Recursive)
	require.Equal(t, "md5", cfg.Traversal.IDAlgorithm)
	require.True(t, cfg.Output.Stdout)
}

func TestLoadOverlaysOnlySpecifiedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "indexer.toml")
	contents := `
[traversal]
id_algorithm = "sha256"
compute_sha512 = true

[rename]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "sha256", cfg.Traversal.IDAlgorithm)
	require.True(t, cfg.Traversal.ComputeSHA512)
	require.True(t, cfg.Rename.Enabled)
	// Untouched keys still carry their defaults.
	require.True(t, cfg.Traversal.Recursive)
	require.True(t, cfg.Output.Stdout)
	require.NotEmpty(t, cfg.ExtensionGroups["video"])
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}

func TestApplyEnvOverridesOnlySetsPresentVariables(t *testing.T) {
	cfg := Defaults()
	t.Setenv(envOutputFile, "/tmp/index.json")
	t.Setenv(envRenameEnabled, "true")

	ApplyEnvOverrides(cfg)

	require.Equal(t, "/tmp/index.json", cfg.Output.File)
	require.True(t, cfg.Rename.Enabled)
	require.False(t, cfg.Metadata.MetaMergeDelete)
}

func TestLoadEnvFileIgnoresMissingFile(t *testing.T) {
	err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}
