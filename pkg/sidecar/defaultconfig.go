package sidecar

import "regexp"

func pat(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// DefaultConfig returns the built-in sidecar type table. A CLI configuration
// loader may use this as the base it overlays TOML overrides onto, but this
// package never reads configuration itself — it only compiles and applies
// whatever Config it is handed.
//
// Order matters: a name is classified by the first type (in this order) that
// has a matching pattern, so more specific suffixes are listed ahead of
// generic ones they could otherwise be swallowed by (e.g. "*.info.json"
// ahead of "*.json").
func DefaultConfig() *Config {
	return &Config{
		Order: []Type{
			TypeDesktopINI,
			TypeHash,
			TypeTorrent,
			TypeLink,
			TypeSubtitles,
			TypeThumbnail,
			TypeScreenshot,
			TypeJSONMetadata,
			TypeDescription,
			TypeGenericMetadata,
		},
		Types: map[Type]TypeConfig{
			TypeDesktopINI: {
				Patterns:                    []*regexp.Regexp{pat(`^desktop\.ini$`)},
				ExpectText:                  true,
				ParentIsContainingDirectory: true,
			},
			TypeHash: {
				Patterns:             []*regexp.Regexp{pat(`\.(md5|sha1|sha256|sha512)$`)},
				LineOriented:         true,
				ParentCanBeFile:      true,
				ParentCanBeDirectory: true,
			},
			TypeTorrent: {
				Patterns:             []*regexp.Regexp{pat(`\.torrent$`)},
				ExpectBinary:         true,
				ParentCanBeFile:      true,
				ParentCanBeDirectory: true,
			},
			TypeLink: {
				Patterns:             []*regexp.Regexp{pat(`\.(url|lnk)$`)},
				IsLink:               true,
				ParentCanBeFile:      true,
				ParentCanBeDirectory: true,
			},
			TypeSubtitles: {
				Patterns:              []*regexp.Regexp{pat(`\.(srt|vtt|ass|ssa|sub)$`)},
				LineOriented:          true,
				ParentCanBeFile:       true,
				PreferredParentGroups: []string{"video", "audio"},
			},
			TypeThumbnail: {
				Patterns: []*regexp.Regexp{
					pat(`-thumb\.(jpg|jpeg|png|bmp|webp)$`),
					pat(`\.thumbnail\.(jpg|jpeg|png|bmp|webp)$`),
				},
				ExpectBinary:         true,
				ParentCanBeFile:      true,
				ParentCanBeDirectory: true,
			},
			TypeScreenshot: {
				Patterns: []*regexp.Regexp{
					pat(`-screenshot\.(jpg|jpeg|png|bmp|webp)$`),
					pat(`\.screenshot\.(jpg|jpeg|png|bmp|webp)$`),
				},
				ExpectBinary:    true,
				ParentCanBeFile: true,
			},
			TypeJSONMetadata: {
				Patterns: []*regexp.Regexp{
					pat(`\.info\.json$`),
					pat(`\.json$`),
				},
				ExpectJSON:           true,
				ExpectText:           true,
				ParentCanBeFile:      true,
				ParentCanBeDirectory: true,
			},
			TypeDescription: {
				Patterns: []*regexp.Regexp{
					pat(`\.description$`),
					pat(`\.nfo$`),
				},
				ExpectJSON:           true,
				ExpectText:           true,
				ParentCanBeFile:      true,
				ParentCanBeDirectory: true,
			},
			TypeGenericMetadata: {
				Patterns: []*regexp.Regexp{
					pat(`\.metadata$`),
					pat(`\.meta$`),
				},
				ExpectJSON:           true,
				ExpectText:           true,
				ExpectBinary:         true,
				ParentCanBeFile:      true,
				ParentCanBeDirectory: true,
			},
		},
	}
}
