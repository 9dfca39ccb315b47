package sidecar

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ReadResult is a sidecar's payload after format-appropriate reading.
type ReadResult struct {
	// Format is one of "json", "text", "lines", or "base64".
	Format string
	// Transforms records, in order, the lossy or encoding transforms applied
	// to get from raw bytes to Data — e.g. "base64_encode" when binary
	// content had to be represented as a string.
	Transforms []string
	// Data holds the payload: a decoded interface{} tree for "json", a
	// string for "text" or "base64", or a []string for "lines".
	Data interface{}
}

// Read reads path's content in the manner its classified type and suffix
// dictate. Link sidecars (.url, .lnk) are never read as payloads — the
// caller should use ResolveLinkTarget instead.
func Read(path string, tc TypeConfig) (ReadResult, error) {
	if tc.IsLink {
		return ReadResult{}, errors.New("sidecar: link types do not have a payload, use ResolveLinkTarget")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ReadResult{}, errors.Wrap(err, "unable to read sidecar content")
	}

	if tc.LineOriented {
		return ReadResult{Format: "lines", Transforms: []string{"line_split"}, Data: splitNonEmptyLines(data)}, nil
	}

	if tc.ExpectJSON && json.Valid(data) {
		var parsed interface{}
		if err := json.Unmarshal(data, &parsed); err == nil {
			return ReadResult{Format: "json", Transforms: []string{"json_decode"}, Data: parsed}, nil
		}
	}

	if (tc.ExpectJSON || tc.ExpectText) && utf8.Valid(data) {
		return ReadResult{Format: "text", Data: string(data)}, nil
	}

	return ReadResult{
		Format:     "base64",
		Transforms: []string{"base64_encode"},
		Data:       base64.StdEncoding.EncodeToString(data),
	}, nil
}

// splitNonEmptyLines splits raw sidecar bytes on newlines, trims carriage
// returns, and drops blank lines, preserving the remaining lines' order.
func splitNonEmptyLines(data []byte) []string {
	var lines []string
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSuffix(raw, "\r")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
