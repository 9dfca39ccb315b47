package index

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/shruggietech/indexer/pkg/logging"
	"github.com/shruggietech/indexer/pkg/must"
)

// Marshal serializes entry using the field order the data model requires.
// encoding/json already preserves struct declaration order, so this is a
// thin, indent-controlling wrapper rather than a custom encoder.
func Marshal(entry *IndexEntry, indent string) ([]byte, error) {
	if indent == "" {
		return json.Marshal(entry)
	}
	return json.MarshalIndent(entry, "", indent)
}

// WriteAggregateAtomic writes entry's full tree to path as a single JSON
// document using a sibling temporary file, fsync, and a same-filesystem
// rename into place — the same pattern mutagen's WriteFileAtomic uses for
// its configuration writes, so a process killed mid-write never leaves a
// half-written aggregate.
func WriteAggregateAtomic(path string, entry *IndexEntry, logger *logging.Logger) error {
	data, err := Marshal(entry, "  ")
	if err != nil {
		return errors.Wrap(err, "unable to serialize index")
	}

	directory := filepath.Dir(path)
	temporary, err := os.CreateTemp(directory, "indexer-aggregate-")
	if err != nil {
		return errors.Wrap(err, "unable to create temporary aggregate file")
	}

	if _, err := temporary.Write(data); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return errors.Wrap(err, "unable to write temporary aggregate file")
	}
	if err := temporary.Sync(); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return errors.Wrap(err, "unable to fsync temporary aggregate file")
	}
	if err := temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return errors.Wrap(err, "unable to close temporary aggregate file")
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return errors.Wrap(err, "unable to rename temporary aggregate file into place")
	}

	return nil
}

// WriteInPlaceSidecar streams entry's own JSON (no nested items/metadata
// beyond what's already been stripped by the caller) to its sidecar path,
// using the same atomic temp-file-then-rename pattern as the aggregate
// writer, since every in-place sidecar must itself be crash-safe even
// though the overall in-place output as a whole is not transactional.
func WriteInPlaceSidecar(sidecarPath string, entry *IndexEntry, logger *logging.Logger) error {
	return WriteAggregateAtomic(sidecarPath, entry, logger)
}

// WriteStdout writes entry's complete tree to w in a single flush, per the
// output contract: stdout always carries the whole tree, never streamed
// incrementally.
func WriteStdout(w io.Writer, entry *IndexEntry) error {
	data, err := Marshal(entry, "  ")
	if err != nil {
		return errors.Wrap(err, "unable to serialize index")
	}
	var buffer bytes.Buffer
	buffer.Write(data)
	buffer.WriteByte('\n')
	_, err = w.Write(buffer.Bytes())
	return err
}
