// Package must provides best-effort wrappers around cleanup operations whose
// errors can't sensibly propagate (e.g. a Close called from inside a defer
// after a write has already failed). Each wrapper logs a warning rather than
// swallowing the error outright or panicking.
package must

import (
	"fmt"
	"io"
	"os"

	"github.com/shruggietech/indexer/pkg/logging"
)

// Fprint writes to w, logging a warning if the write fails or is short.
func Fprint(w io.Writer, logger *logging.Logger, a ...any) {
	s := fmt.Sprint(a...)
	n, err := fmt.Fprint(w, s)
	if err != nil {
		logger.Warnf("unable to write '%s': %s", s, err.Error())
	} else if n < len(s) {
		logger.Warnf("unable to write all of '%s'; wrote only %d of %d bytes", s, n, len(s))
	}
}

// Close closes c, logging a warning on failure.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// Remove removes path via r, logging a warning on failure. It's used for
// interfaces that expose a scoped Remove method distinct from os.Remove.
func Remove(r interface{ Remove(string) error }, path string, logger *logging.Logger) {
	if err := r.Remove(path); err != nil {
		logger.Warnf("unable to remove '%s': %s", path, err.Error())
	}
}

// OSRemove removes name via os.Remove, logging a warning on failure. Used to
// clean up temporary files on write-failure paths where the original error
// already takes precedence over whatever happens during cleanup.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}
