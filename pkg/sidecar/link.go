package sidecar

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/pkg/errors"
)

// ResolveLinkTarget extracts the target of a .url (Internet Shortcut,
// INI-formatted) or .lnk (Windows Shell Link, binary) sidecar. Both formats
// are platform shortcuts rather than filesystem symlinks, so they go through
// their own resolution instead of fsmeta's symlink handling.
func ResolveLinkTarget(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to read link sidecar")
	}

	if strings.HasSuffix(strings.ToLower(path), ".url") {
		return resolveURLShortcut(data)
	}
	return resolveShellLink(data)
}

// resolveURLShortcut extracts the URL= value from an Internet Shortcut's INI
// body.
func resolveURLShortcut(data []byte) (string, error) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if target, ok := strings.CutPrefix(line, "URL="); ok {
			return strings.TrimSpace(target), nil
		}
	}
	return "", errors.New("sidecar: no URL= line found in .url shortcut")
}

// shellLinkMagic is the HeaderSize field (0x4C) followed by the LinkCLSID
// GUID, the 20 bytes that open every well-formed .lnk file.
var shellLinkMagic = []byte{
	0x4C, 0x00, 0x00, 0x00,
	0x01, 0x14, 0x02, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0xC0, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x46,
}

// resolveShellLink extracts a best-effort target path from a Windows Shell
// Link binary. The full shell-link format carries optional LinkInfo and
// StringData structures whose presence varies by how the shortcut was
// authored; rather than implement the entire binary layout, this scans the
// body for the first plausible null-terminated UTF-16LE path string, which
// covers the common case of a shortcut pointing at a local file.
func resolveShellLink(data []byte) (string, error) {
	if len(data) < 20 || !bytes.Equal(data[:20], shellLinkMagic) {
		return "", errors.New("sidecar: not a well-formed .lnk shortcut")
	}

	body := data[20:]
	for offset := 0; offset+4 <= len(body); offset += 2 {
		end := offset
		for end+2 <= len(body) {
			if body[end] == 0 && body[end+1] == 0 {
				break
			}
			end += 2
		}
		if end <= offset || end+2 > len(body) {
			continue
		}
		units := make([]uint16, (end-offset)/2)
		for i := range units {
			units[i] = uint16(body[offset+2*i]) | uint16(body[offset+2*i+1])<<8
		}
		candidate := string(utf16.Decode(units))
		if looksLikePath(candidate) {
			return candidate, nil
		}
		offset = end
	}
	return "", errors.New("sidecar: no path string found in .lnk shortcut")
}

// looksLikePath applies a loose heuristic: a drive letter, a UNC prefix, or
// at least one path separator alongside a plausible file extension.
func looksLikePath(s string) bool {
	if len(s) < 3 {
		return false
	}
	if len(s) >= 2 && s[1] == ':' {
		return true
	}
	if strings.HasPrefix(s, `\\`) {
		return true
	}
	return strings.ContainsAny(s, `\/`) && strings.Contains(s, ".")
}
