package exiftool

import "strings"

// ShouldExtract reports whether extraction is worth attempting for a file
// with the given extension. extra carries the configured
// exiftool.exclude_extensions set (nil is treated as empty) — the single
// configurable exclusion set spec.md's external interface describes;
// there is no second, hidden baseline layered on top of it. Symbolic
// links are excluded by the caller before this is ever consulted —
// exiftool would otherwise follow the link itself, which this package
// must never allow.
func ShouldExtract(ext string, extra map[string]bool) bool {
	lower := strings.ToLower(ext)
	return !extra[lower]
}
