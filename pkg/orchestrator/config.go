// Package orchestrator implements the merge/delete orchestrator (C10): the
// fixed six-stage pipeline that wires the traversal, entry builder,
// rename/dedup engine, and serializer together, plus the configuration
// validation (implication chain and safety gate) that must pass before any
// of it runs.
package orchestrator

import (
	"fmt"
	"regexp"
	"time"

	"github.com/pkg/errors"

	"github.com/shruggietech/indexer/pkg/config"
	"github.com/shruggietech/indexer/pkg/exiftool"
	"github.com/shruggietech/indexer/pkg/extension"
	"github.com/shruggietech/indexer/pkg/hashing"
	"github.com/shruggietech/indexer/pkg/sidecar"
	"github.com/shruggietech/indexer/pkg/traversal"
)

// ConfigurationError reports a configuration that failed validation before
// any file was read. It is the only error kind the orchestrator can return
// without having mutated anything on disk.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// defaultEXIFExcludeKeys are dropped from every EXIF extraction unless the
// configuration supplies its own exclude_keys list, chosen because they
// duplicate information the index already records independently (file size,
// permissions, path) or vary run to run in ways that would defeat content
// addressing if ever merged back into identity.
var defaultEXIFExcludeKeys = []string{
	"Directory", "FileName", "FilePermissions", "FileModifyDate",
	"FileAccessDate", "FileInodeChangeDate",
}

// Config is the fully resolved, validated configuration the pipeline runs
// with: config.Config compiled into concrete runtime types, with the
// implication chain and safety gate already applied.
type Config struct {
	Recursive   bool
	IDAlgorithm hashing.Algorithm
	Algorithms  []hashing.Algorithm

	OutputStdout       bool
	OutputFile         string
	OutputInplace      bool
	WriteDirectoryMeta bool

	ExtractEXIF     bool
	MetaMerge       bool
	MetaMergeDelete bool

	RenameEnabled    bool
	RenameDryRun     bool
	DeleteDuplicates bool

	Exclusions traversal.Exclusions

	ExtensionPattern *regexp.Regexp
	ExtensionIndex   *extension.Index

	SidecarConfig *sidecar.Config

	EXIFOverridePath      string
	EXIFTimeout           time.Duration
	EXIFExcludeKeys       map[string]bool
	EXIFExcludeExtensions map[string]bool
}

// Compile converts a loaded config.Config into a validated Config. It
// applies the implication chain exactly once — meta_merge_delete implies
// meta_merge implies extract_exif; rename implies output.inplace — and then
// the safety gate, returning a *ConfigurationError for anything that fails
// rather than letting an inconsistent configuration reach the pipeline.
func Compile(raw *config.Config) (*Config, error) {
	cfg := &Config{
		Recursive:          raw.Traversal.Recursive,
		OutputStdout:       raw.Output.Stdout,
		OutputFile:         raw.Output.File,
		OutputInplace:      raw.Output.Inplace,
		WriteDirectoryMeta: raw.Output.WriteDirectoryMeta,
		ExtractEXIF:        raw.Metadata.ExtractEXIF,
		MetaMerge:          raw.Metadata.MetaMerge,
		MetaMergeDelete:    raw.Metadata.MetaMergeDelete,
		RenameEnabled:      raw.Rename.Enabled,
		RenameDryRun:       raw.Rename.DryRun,
		DeleteDuplicates:   raw.Rename.Enabled,
		Exclusions: traversal.Exclusions{
			Names: raw.FilesystemExcludes.Names,
			Globs: raw.FilesystemExcludes.Globs,
		},
		EXIFTimeout: exiftool.DefaultTimeout,
	}

	switch raw.Traversal.IDAlgorithm {
	case "md5", "":
		cfg.IDAlgorithm = hashing.MD5
	case "sha256":
		cfg.IDAlgorithm = hashing.SHA256
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf(
			"traversal.id_algorithm must be %q or %q, got %q", hashing.MD5, hashing.SHA256, raw.Traversal.IDAlgorithm)}
	}
	if raw.Traversal.ComputeSHA512 {
		cfg.Algorithms = hashing.WithSHA512()
	} else {
		cfg.Algorithms = hashing.DefaultAlgorithms
	}

	pattern, err := extension.CompilePattern(raw.Extensions.ValidationPattern)
	if err != nil {
		return nil, &ConfigurationError{Reason: errors.Wrap(err, "extensions.validation_pattern does not compile").Error()}
	}
	cfg.ExtensionPattern = pattern

	groupTable := make(extension.GroupTable, len(raw.ExtensionGroups))
	for group, extensions := range raw.ExtensionGroups {
		groupTable[extension.Group(group)] = extensions
	}
	cfg.ExtensionIndex = extension.NewIndex(groupTable)

	sidecarConfig, err := compileSidecarConfig(raw.MetadataParser)
	if err != nil {
		return nil, err
	}
	cfg.SidecarConfig = sidecarConfig

	cfg.EXIFExcludeExtensions = toSet(raw.ExifTool.ExcludeExtensions)
	excludeKeys := raw.ExifTool.ExcludeKeys
	if excludeKeys == nil {
		excludeKeys = defaultEXIFExcludeKeys
	}
	excludeKeys = append(append([]string{}, excludeKeys...), raw.ExifTool.ExcludeKeysAppend...)
	cfg.EXIFExcludeKeys = toSet(excludeKeys)

	// Implication chain — applied once, here, not re-checked downstream.
	if cfg.MetaMergeDelete {
		cfg.MetaMerge = true
	}
	if cfg.MetaMerge {
		cfg.ExtractEXIF = true
	}
	if cfg.RenameEnabled {
		cfg.OutputInplace = true
	}

	// Safety gate.
	if cfg.MetaMergeDelete && cfg.OutputFile == "" && !cfg.OutputInplace {
		return nil, &ConfigurationError{
			Reason: "metadata.meta_merge_delete requires output.file or output.inplace",
		}
	}

	return cfg, nil
}

// compileSidecarConfig overlays a configuration's metadata_parser entries
// onto the built-in sidecar type table: known types have their patterns and
// flags replaced wholesale (a TOML entry is a complete redefinition, not a
// merge), and entirely new type names are appended to the end of Order,
// classified only after every built-in type has had a chance to match.
func compileSidecarConfig(parsers map[string]config.MetadataParserConfig) (*sidecar.Config, error) {
	base := sidecar.DefaultConfig()
	if len(parsers) == 0 {
		return base, nil
	}

	for name, parser := range parsers {
		t := sidecar.Type(name)
		patterns := make([]*regexp.Regexp, 0, len(parser.Patterns))
		for _, expr := range parser.Patterns {
			compiled, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, &ConfigurationError{Reason: fmt.Sprintf(
					"metadata_parser.%s pattern %q does not compile: %v", name, expr, err)}
			}
			patterns = append(patterns, compiled)
		}

		existing, known := base.Types[t]
		tc := sidecar.TypeConfig{
			Patterns:                    patterns,
			ExpectJSON:                  parser.ExpectJSON,
			ExpectText:                  parser.ExpectText,
			ExpectBinary:                parser.ExpectBinary,
			ParentCanBeFile:             parser.ParentCanBeFile,
			ParentCanBeDirectory:        parser.ParentCanBeDirectory,
			LineOriented:                existing.LineOriented,
			IsLink:                      existing.IsLink,
			ParentIsContainingDirectory: existing.ParentIsContainingDirectory,
			PreferredParentGroups:       existing.PreferredParentGroups,
		}
		base.Types[t] = tc
		if !known {
			base.Order = append(base.Order, t)
		}
	}

	return base, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
