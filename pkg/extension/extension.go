// Package extension implements the extension validator and group classifier
// (C4): a regex gate on well-formed extensions, and group membership lookup
// (audio/video/image/...) against a frozen table supplied by configuration.
package extension

import (
	"regexp"
	"strings"
)

// Group identifies a broad media/content category an extension belongs to.
type Group string

const (
	GroupArchive   Group = "archive"
	GroupAudio     Group = "audio"
	GroupFont      Group = "font"
	GroupImage     Group = "image"
	GroupLink      Group = "link"
	GroupSubtitles Group = "subtitles"
	GroupVideo     Group = "video"
	GroupOther     Group = "other"
)

// validPattern is the regex gating well-formed lowercase extensions: one or
// two alphanumerics, or a longer alphanumeric run that may contain internal
// hyphens but must not start or end with one.
var validPattern = regexp.MustCompile(`^([a-z0-9]{1,2}|[a-z0-9][a-z0-9-]{1,12}[a-z0-9])$`)

// Validate reports whether ext (already lowercased, without a leading dot)
// is a well-formed extension, against the built-in default pattern.
func Validate(ext string) bool {
	return validPattern.MatchString(ext)
}

// CompilePattern compiles a configured extensions.validation_pattern,
// letting configuration construction fail fast (a ConfigError) on a pattern
// that doesn't compile rather than at first use deep in a traversal.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	return regexp.Compile(expr)
}

// ValidateWith reports whether ext matches pattern, falling back to the
// built-in default when pattern is nil.
func ValidateWith(ext string, pattern *regexp.Regexp) bool {
	if pattern == nil {
		return Validate(ext)
	}
	return pattern.MatchString(ext)
}

// GroupTable maps a Group to the extensions belonging to it, as supplied by
// configuration's extension_groups section.
type GroupTable map[Group][]string

// Index is a compiled, read-only reverse lookup from extension to Group,
// built once from a GroupTable at configuration-validation time.
type Index struct {
	byExtension map[string]Group
}

// NewIndex compiles a GroupTable into an Index. Extensions are lowercased on
// insertion so lookups can assume normalized input.
func NewIndex(table GroupTable) *Index {
	byExtension := make(map[string]Group)
	for group, extensions := range table {
		for _, ext := range extensions {
			byExtension[strings.ToLower(ext)] = group
		}
	}
	return &Index{byExtension: byExtension}
}

// GroupOf reports the Group for a lowercase extension (without leading dot),
// and whether it was found. Unrecognized extensions are the caller's
// responsibility to treat as GroupOther.
func (i *Index) GroupOf(ext string) (Group, bool) {
	if i == nil {
		return GroupOther, false
	}
	group, ok := i.byExtension[ext]
	return group, ok
}
