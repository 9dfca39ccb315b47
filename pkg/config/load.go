package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Load reads path as TOML over top of Defaults(), so a file that sets only a
// handful of keys still produces a fully populated Config. An empty path
// returns the defaults unmodified.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read configuration file %s", path)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, errors.Wrapf(err, "unable to parse configuration file %s", path)
	}
	return cfg, nil
}

// environment variable names consulted by ApplyEnvOverrides, namespaced
// under INDEXER_ to avoid colliding with unrelated process environment.
const (
	envOutputFile      = "INDEXER_OUTPUT_FILE"
	envRenameEnabled   = "INDEXER_RENAME_ENABLED"
	envMetaMergeDelete = "INDEXER_META_MERGE_DELETE"
)

// LoadEnvFile loads a .env-style file into the process environment via
// godotenv, ignoring a missing file (the overlay is optional), so a
// deployment can drop deployment-specific secrets or flags into .env
// without checking them into the TOML configuration file itself.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "unable to load environment file %s", path)
	}
	return nil
}

// ApplyEnvOverrides overlays a small set of process-environment variables
// onto cfg, for values operators commonly want to flip per-deployment
// without editing the checked-in TOML file (e.g. a container setting the
// output path, or a CI job enabling rename for a one-off cleanup pass).
// Unset variables leave cfg untouched.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envOutputFile); v != "" {
		cfg.Output.File = v
	}
	if v, ok := parseBoolEnv(envRenameEnabled); ok {
		cfg.Rename.Enabled = v
	}
	if v, ok := parseBoolEnv(envMetaMergeDelete); ok {
		cfg.Metadata.MetaMergeDelete = v
	}
}

func parseBoolEnv(name string) (bool, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return false, false
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return parsed, true
}
