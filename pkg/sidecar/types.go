// Package sidecar implements sidecar identification, association, and
// reading (C5): an ordered, regex-gated type table classifies a filename,
// resolves which sibling it describes, and reads its payload in a
// format-appropriate way (JSON, line-oriented text, or base64-encoded
// binary). The classifier never deletes anything — deletion is the
// orchestrator's call, gated on whether merge-delete is enabled.
package sidecar

import "regexp"

// Type identifies one of the recognized sidecar kinds.
type Type string

const (
	TypeDescription     Type = "description"
	TypeDesktopINI      Type = "desktop_ini"
	TypeGenericMetadata Type = "generic_metadata"
	TypeHash            Type = "hash"
	TypeJSONMetadata    Type = "json_metadata"
	TypeLink            Type = "link"
	TypeScreenshot      Type = "screenshot"
	TypeSubtitles       Type = "subtitles"
	TypeThumbnail       Type = "thumbnail"
	TypeTorrent         Type = "torrent"
)

// TypeConfig describes how to identify, associate, and read one sidecar
// type.
type TypeConfig struct {
	// Patterns are tried in order; the first that matches the filename,
	// anchored at the end of the string, wins.
	Patterns []*regexp.Regexp

	// ExpectJSON, ExpectText, and ExpectBinary describe the formats this
	// type's reader should be willing to try, in the order spec.md lays
	// out: JSON first (falling through to text, then binary, on failure).
	ExpectJSON   bool
	ExpectText   bool
	ExpectBinary bool

	// LineOriented overrides JSON/text handling entirely: the payload is
	// split into non-empty lines, preserved in order (hash, subtitles).
	LineOriented bool

	// IsLink marks the .url/.lnk shortcut-parsing type, which resolves a
	// target rather than reading a payload directly.
	IsLink bool

	// ParentCanBeFile and ParentCanBeDirectory gate which sibling kinds
	// this type's parent resolution will consider.
	ParentCanBeFile      bool
	ParentCanBeDirectory bool

	// ParentIsContainingDirectory is set for types like desktop_ini whose
	// single instance lives inside the directory it describes, rather than
	// alongside a sibling of the same base name.
	ParentIsContainingDirectory bool

	// PreferredParentGroups breaks ties between multiple same-named file
	// siblings, tried in order (e.g. subtitles prefer a video sibling, then
	// an audio sibling).
	PreferredParentGroups []string
}

// Config is the ordered, compiled sidecar type table. Order determines which
// type wins when more than one type's patterns could match the same name;
// the first type (in Order) with a matching pattern wins.
type Config struct {
	Order []Type
	Types map[Type]TypeConfig
}
