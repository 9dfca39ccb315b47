package fsmeta

import "os"

// ReadSymbolicLink reads the target of a symbolic link without resolving it.
// Callers must never chase this target further: a symlink's identity is its
// own name, not its target's content, so descending into the target or
// hashing it is always wrong.
func ReadSymbolicLink(path string) (string, error) {
	return os.Readlink(path)
}
