// Package fsmeta implements the symlink-safe stat adapter: lstat-based
// classification and attribute extraction that never follows a symlink to
// its target. This is the one place in the indexer that talks to raw
// platform stat structures; everything above it works with the platform-
// independent StatData and Kind types defined here.
package fsmeta

import (
	"os"
	"sync"
	"time"

	"github.com/shruggietech/indexer/pkg/logging"
)

// Kind classifies a filesystem entry as observed by lstat (never following a
// symlink to inspect what it points at).
type Kind uint8

const (
	// KindOther covers anything that isn't a regular file, directory, or
	// symbolic link (device nodes, sockets, FIFOs, ...). The indexer records
	// these as skipped rather than attempting to build an entry for them.
	KindOther Kind = iota
	KindRegular
	KindDirectory
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// StatData is the platform-independent view of a filesystem entry's
// attributes, always derived from lstat (or the platform equivalent) so that
// a symlink is described by its own metadata, never its target's.
type StatData struct {
	// Size is the entry's size in bytes as reported by lstat. For a symbolic
	// link this is the size of the link's target-path string (POSIX) or 0
	// (Windows) — documented behavior, not a bug.
	Size uint64
	// ModificationTime is the entry's mtime.
	ModificationTime time.Time
	// AccessTime is the entry's atime.
	AccessTime time.Time
	// CreationTime is the entry's birth time if the platform exposes one,
	// otherwise a fallback value (see CreationTimeIsFallback).
	CreationTime time.Time
	// CreationTimeIsFallback is true when CreationTime could not be sourced
	// from a native birth-time field and was instead derived from ctime
	// (Linux) or from the modification time (other platforms).
	CreationTimeIsFallback bool
}

// classifyMode maps an os.FileMode (as produced by Lstat, so link bits are
// preserved) to a Kind.
func classifyMode(mode os.FileMode) Kind {
	switch {
	case mode&os.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDirectory
	case mode.IsRegular():
		return KindRegular
	default:
		return KindOther
	}
}

// CreationTimeFallbackGate gates the "using ctime fallback" debug message to
// once per invocation, per spec.md's requirement that the fallback be noted
// but not spammed across every file in a large tree. A caller constructs one
// fresh value per invocation and passes it by reference down the call chain
// — this replaces a package-level mutable flag, which would both persist the
// "already logged" state across unrelated invocations in the same process
// and race under the concurrent fan-out spec.md §5 anticipates.
type CreationTimeFallbackGate struct {
	mu     sync.Mutex
	logged bool
}

// logOnce emits the fallback debug message the first time it's called for
// this gate, and is a no-op thereafter. A nil gate tracks nothing, so it
// emits the message on every call.
func (g *CreationTimeFallbackGate) logOnce(logger *logging.Logger) {
	if g == nil {
		logger.Debug("native creation time unavailable; falling back to change time for this invocation")
		return
	}
	g.mu.Lock()
	alreadyLogged := g.logged
	g.logged = true
	g.mu.Unlock()
	if !alreadyLogged {
		logger.Debug("native creation time unavailable; falling back to change time for this invocation")
	}
}

// Classify performs an lstat on path and reports its Kind without following
// any symbolic link.
func Classify(path string) (Kind, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return KindOther, err
	}
	return classifyMode(info.Mode()), nil
}

// ReadStat performs an lstat on path and extracts size, timestamps, and kind.
// Creation time uses the OS-native birth time where available; if the
// platform or filesystem doesn't expose one, it falls back to ctime (Linux)
// or the modification time (other platforms) and logs
// a single debug event for the whole invocation (not per file), tracked via
// gate rather than process-global state.
func ReadStat(path string, logger *logging.Logger, gate *CreationTimeFallbackGate) (StatData, Kind, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return StatData{}, KindOther, err
	}

	data := extractPlatformStat(path, info)
	if data.CreationTimeIsFallback {
		gate.logOnce(logger)
	}

	return data, classifyMode(info.Mode()), nil
}
