// Package config implements the CLI-facing configuration surface: the TOML
// file shape a user edits, its built-in defaults, and the .env-driven
// environment overlay for deployment-specific overrides. It is deliberately
// a thin, unvalidated data carrier — pkg/orchestrator's core.Config compiles
// a loaded Config into the regexes, tables, and algorithm lists the indexing
// engine actually runs with, applying the implication chain and safety gate
// along the way.
package config

// Config mirrors the configuration table laid out in the external
// interfaces section: one struct field per named group, one nested struct
// per group's keys.
type Config struct {
	Traversal          TraversalConfig                `toml:"traversal"`
	Output             OutputConfig                   `toml:"output"`
	Metadata           MetadataConfig                 `toml:"metadata"`
	Rename             RenameConfig                    `toml:"rename"`
	Extensions         ExtensionsConfig                `toml:"extensions"`
	FilesystemExcludes FilesystemExcludesConfig         `toml:"filesystem_excludes"`
	ExifTool           ExifToolConfig                   `toml:"exiftool"`
	ExtensionGroups    map[string][]string              `toml:"extension_groups"`
	MetadataParser     map[string]MetadataParserConfig  `toml:"metadata_parser"`
}

// TraversalConfig controls how the filesystem is walked and which digest is
// used to derive identity.
type TraversalConfig struct {
	Recursive     bool   `toml:"recursive"`
	IDAlgorithm   string `toml:"id_algorithm"`
	ComputeSHA512 bool   `toml:"compute_sha512"`
}

// OutputConfig controls where the indexed tree is written.
type OutputConfig struct {
	Stdout             bool   `toml:"stdout"`
	File               string `toml:"file"`
	Inplace            bool   `toml:"inplace"`
	WriteDirectoryMeta bool   `toml:"write_directory_meta"`
}

// MetadataConfig controls EXIF extraction and sidecar merge/delete.
type MetadataConfig struct {
	ExtractEXIF     bool `toml:"extract_exif"`
	MetaMerge       bool `toml:"meta_merge"`
	MetaMergeDelete bool `toml:"meta_merge_delete"`
}

// RenameConfig controls the rename/dedup pass.
type RenameConfig struct {
	Enabled bool `toml:"enabled"`
	DryRun  bool `toml:"dry_run"`
}

// ExtensionsConfig carries the regex gating well-formed extensions.
type ExtensionsConfig struct {
	ValidationPattern string `toml:"validation_pattern"`
}

// FilesystemExcludesConfig carries traversal exclusion rules.
type FilesystemExcludesConfig struct {
	Names []string `toml:"names"`
	Globs []string `toml:"globs"`
}

// ExifToolConfig carries everything governing the external exiftool
// subprocess: which extensions never get invoked on, which extracted keys
// are dropped, and the fixed base argument vector.
type ExifToolConfig struct {
	ExcludeExtensions []string `toml:"exclude_extensions"`
	ExcludeKeys       []string `toml:"exclude_keys"`
	ExcludeKeysAppend []string `toml:"exclude_keys_append"`
	BaseArgs          []string `toml:"base_args"`
}

// MetadataParserConfig describes one sidecar type's identification patterns
// and payload-format expectations, keyed by type name in Config.MetadataParser.
type MetadataParserConfig struct {
	Patterns             []string `toml:"patterns"`
	ExpectJSON           bool     `toml:"expect_json"`
	ExpectText           bool     `toml:"expect_text"`
	ExpectBinary         bool     `toml:"expect_binary"`
	ParentCanBeFile      bool     `toml:"parent_can_be_file"`
	ParentCanBeDirectory bool     `toml:"parent_can_be_directory"`
}

// Defaults returns the built-in configuration a user's TOML file overlays.
// Every value here is conservative: traversal and EXIF extraction on,
// rename and merge-delete off, stdout as the sole output.
func Defaults() *Config {
	return &Config{
		Traversal: TraversalConfig{
			Recursive:   true,
			IDAlgorithm: "md5",
		},
		Output: OutputConfig{
			Stdout: true,
		},
		Metadata: MetadataConfig{
			ExtractEXIF: true,
		},
		Extensions: ExtensionsConfig{
			ValidationPattern: `^([a-z0-9]{1,2}|[a-z0-9][a-z0-9-]{1,12}[a-z0-9])$`,
		},
		FilesystemExcludes: FilesystemExcludesConfig{
			Names: []string{".git", ".svn", ".hg", "node_modules"},
		},
		ExifTool: ExifToolConfig{
			ExcludeExtensions: []string{"csv", "htm", "html", "json", "tsv", "xml"},
			BaseArgs:          []string{"-json", "-n"},
		},
		ExtensionGroups: map[string][]string{
			"archive":   {"zip", "tar", "gz", "bz2", "xz", "7z", "rar"},
			"audio":     {"mp3", "flac", "wav", "ogg", "m4a", "aac"},
			"video":     {"mp4", "mkv", "avi", "mov", "webm"},
			"image":     {"jpg", "jpeg", "png", "gif", "bmp", "webp", "tiff"},
			"font":      {"ttf", "otf", "woff", "woff2"},
			"subtitles": {"srt", "vtt", "ass", "ssa", "sub"},
			"link":      {"url", "lnk"},
		},
	}
}
