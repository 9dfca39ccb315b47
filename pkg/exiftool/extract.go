package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds a single exiftool invocation. A hung or pathological
// file must never stall the whole traversal.
const DefaultTimeout = 30 * time.Second

// Extract runs exiftool against path with -json -n and a fixed, minimal
// argument vector — no arg files, no user-supplied flags — and returns the
// decoded tag map with group prefixes stripped from keys (e.g.
// "EXIF:Model" becomes "Model"). Symbolic links are the caller's
// responsibility to filter before calling Extract; this function always
// passes path straight through to exiftool, which would follow it.
func Extract(ctx context.Context, exiftoolPath, path string, timeout time.Duration) (map[string]interface{}, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, exiftoolPath, "-json", "-n", "--", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Errorf("exiftool timed out after %s", timeout)
		}
		return nil, errors.Wrapf(err, "exiftool failed: %s", strings.TrimSpace(stderr.String()))
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		return nil, errors.Wrap(err, "unable to decode exiftool output")
	}
	if len(records) == 0 {
		return nil, errors.New("exiftool returned no records")
	}

	return stripGroupPrefixes(records[0]), nil
}

// stripGroupPrefixes removes the "Group:" prefix exiftool's -json output
// attaches to each tag name, keeping the bare tag as the key. When two tags
// share a bare name, one of them overwrites the other; which one survives
// is not defined, since the record is a map iterated in random order.
func stripGroupPrefixes(record map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(record))
	for key, value := range record {
		if idx := strings.LastIndex(key, ":"); idx >= 0 {
			key = key[idx+1:]
		}
		result[key] = value
	}
	delete(result, "SourceFile")
	return result
}
