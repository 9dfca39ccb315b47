package rollback

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/shruggietech/indexer/pkg/hashing"
	"github.com/shruggietech/indexer/pkg/index"
	"github.com/shruggietech/indexer/pkg/logging"
)

// ExecuteOptions configures one Execute call.
type ExecuteOptions struct {
	DryRun    bool
	NoVerify  bool // skip the content-hash check before restore
	Force     bool // overwrite a conflicting target instead of skipping it
	SearchDir string
	Resolver  SourceResolver
	Logger    *logging.Logger
}

// Report summarizes what Execute did (or, under DryRun, would do).
type Report struct {
	Created   []string
	Skipped   []string
	Warnings  []string
	Conflicts []string
}

// Execute carries out plan's actions in order against targetDir. mkdir
// actions always precede the restores that depend on them, since Plan
// produced them in that order.
func Execute(plan *Plan, opts ExecuteOptions) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.RootLogger
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = DefaultResolver{}
	}

	report := &Report{Warnings: append([]string(nil), plan.Warnings...)}

	for _, action := range plan.Actions {
		var err error
		switch action.Kind {
		case ActionMkdir:
			err = execMkdir(action, opts, report)
		case ActionRestore:
			err = execRestore(action, action.Entry, opts, resolver, report, logger)
		case ActionDuplicateRestore:
			err = execRestore(action, action.Canonical, opts, resolver, report, logger)
		case ActionSidecarRestore:
			err = execSidecarRestore(action, opts, report, logger)
		default:
			err = errors.Errorf("rollback: unknown action kind %q", action.Kind)
		}
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

func execMkdir(action Action, opts ExecuteOptions, report *Report) error {
	if opts.DryRun {
		report.Created = append(report.Created, action.Path)
		return nil
	}
	if err := os.MkdirAll(action.Path, 0o755); err != nil {
		return errors.Wrapf(err, "unable to create directory %s", action.Path)
	}
	report.Created = append(report.Created, action.Path)
	return nil
}

// execRestore handles both ActionRestore and ActionDuplicateRestore: both
// copy bytes from a resolved source file into action.Path, differing only
// in which entry's identity the source is resolved from (the entry itself,
// or — for a duplicate, whose own source file no longer exists once
// absorbed — its canonical).
func execRestore(action Action, source *index.IndexEntry, opts ExecuteOptions, resolver SourceResolver, report *Report, logger *logging.Logger) error {
	conflict, identical, err := checkConflict(action.Path, action.Entry)
	if err != nil {
		return err
	}
	if conflict && !identical && !opts.Force {
		report.Conflicts = append(report.Conflicts, action.Path)
		report.Skipped = append(report.Skipped, action.Path)
		return nil
	}
	if conflict && identical {
		report.Skipped = append(report.Skipped, action.Path)
		return nil
	}

	srcPath, ok := resolver.Resolve(source, opts.SearchDir)
	if !ok {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"no source file found to restore %s", action.Path))
		report.Skipped = append(report.Skipped, action.Path)
		return nil
	}

	if !opts.NoVerify && action.Entry.Hashes != nil {
		algorithms := algorithmsPresent(*action.Entry.Hashes)
		if len(algorithms) > 0 {
			sum, hashErr := hashing.HashFile(srcPath, algorithms)
			if hashErr != nil || !hashSetMatches(sum, *action.Entry.Hashes) {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"content hash mismatch verifying %s before restore, proceeding anyway", srcPath))
			}
		}
	}

	if opts.DryRun {
		report.Created = append(report.Created, action.Path)
		return nil
	}

	if err := copyFile(srcPath, action.Path); err != nil {
		return errors.Wrapf(err, "unable to restore %s", action.Path)
	}
	restoreTimestamps(action.Path, action.Entry.Timestamps, logger)
	report.Created = append(report.Created, action.Path)
	return nil
}

// execSidecarRestore reconstructs an absorbed sidecar's original bytes from
// its MetadataEntry.Data, according to attributes.format.
func execSidecarRestore(action Action, opts ExecuteOptions, report *Report, logger *logging.Logger) error {
	m := action.Metadata

	if m.Attributes.SourceMediaType != nil && *m.Attributes.SourceMediaType == "lnk" {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"skipping %s: .lnk shortcuts cannot be losslessly reconstructed from their extracted target alone", action.Path))
		report.Skipped = append(report.Skipped, action.Path)
		return nil
	}

	content, err := reconstructSidecarBytes(m)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"unable to reconstruct %s: %v", action.Path, err))
		report.Skipped = append(report.Skipped, action.Path)
		return nil
	}

	exists := fileExists(action.Path)
	if exists && !opts.Force {
		existing, readErr := os.ReadFile(action.Path)
		if readErr == nil && string(existing) == string(content) {
			report.Skipped = append(report.Skipped, action.Path)
			return nil
		}
		report.Conflicts = append(report.Conflicts, action.Path)
		report.Skipped = append(report.Skipped, action.Path)
		return nil
	}

	if opts.DryRun {
		report.Created = append(report.Created, action.Path)
		return nil
	}

	if err := os.WriteFile(action.Path, content, 0o644); err != nil {
		return errors.Wrapf(err, "unable to write restored sidecar %s", action.Path)
	}
	if m.Timestamps != nil {
		restoreTimestamps(action.Path, *m.Timestamps, logger)
	}
	report.Created = append(report.Created, action.Path)
	return nil
}

// reconstructSidecarBytes reverses the format-specific encoding a sidecar
// payload was read with (spec.md §4.12): json is re-marshaled with
// indentation, text and link targets are written as UTF-8, base64 is
// decoded back to raw bytes, and lines are rejoined with "\n".
func reconstructSidecarBytes(m *index.MetadataEntry) ([]byte, error) {
	switch m.Attributes.Format {
	case "json":
		return json.MarshalIndent(m.Data, "", "  ")
	case "text":
		if m.Attributes.SourceMediaType != nil && *m.Attributes.SourceMediaType == "url" {
			target, ok := m.Data.(string)
			if !ok {
				return nil, errors.New("url shortcut payload is not a string")
			}
			return []byte("[InternetShortcut]\r\nURL=" + target + "\r\n"), nil
		}
		text, ok := m.Data.(string)
		if !ok {
			return nil, errors.New("text payload is not a string")
		}
		return []byte(text), nil
	case "base64":
		text, ok := m.Data.(string)
		if !ok {
			return nil, errors.New("base64 payload is not a string")
		}
		return base64.StdEncoding.DecodeString(text)
	case "lines":
		items, ok := m.Data.([]interface{})
		if !ok {
			return nil, errors.New("lines payload is not an array")
		}
		var b strings.Builder
		for _, item := range items {
			line, ok := item.(string)
			if !ok {
				return nil, errors.New("lines payload contains a non-string element")
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		return []byte(b.String()), nil
	default:
		return nil, errors.Errorf("unrecognized sidecar format %q", m.Attributes.Format)
	}
}

// checkConflict reports whether path already exists and, if so, whether its
// current content hash matches entry's recorded hash (a harmless no-op
// restore rather than a true conflict).
func checkConflict(path string, entry *index.IndexEntry) (conflict, identical bool, err error) {
	if !fileExists(path) {
		return false, false, nil
	}
	if entry == nil || entry.Hashes == nil {
		return true, false, nil
	}
	algorithms := algorithmsPresent(*entry.Hashes)
	if len(algorithms) == 0 {
		return true, false, nil
	}
	sum, hashErr := hashing.HashFile(path, algorithms)
	if hashErr != nil {
		return true, false, nil
	}
	return true, hashSetMatches(sum, *entry.Hashes), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "unable to open source %s", src)
	}
	defer in.Close()

	tmp := dst + ".rollback-tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", tmp)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "unable to copy %s to %s", src, dst)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "unable to sync restored file")
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "unable to close restored file")
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "unable to rename %s into place", dst)
	}
	return nil
}

// restoreTimestamps applies the sidecar-recorded mtime/atime to path via the
// platform's utime equivalent. Creation time has no portable Go API to set
// it and is silently skipped, per spec.md §4.12.
func restoreTimestamps(path string, ts index.Timestamps, logger *logging.Logger) {
	modified := time.UnixMilli(ts.Modified.Unix)
	accessed := time.UnixMilli(ts.Accessed.Unix)
	if err := os.Chtimes(path, accessed, modified); err != nil {
		logger.Warnf("unable to restore timestamps on %s: %v", path, err)
	}
}
