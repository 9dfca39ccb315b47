package traversal

import (
	"context"
	"errors"
	"path/filepath"
)

// ErrSkipDirectory, returned by a Visitor, causes Walk to skip descending
// into the directory just visited without aborting the rest of the walk.
var ErrSkipDirectory = errors.New("traversal: skip this directory")

// Visitor is invoked once per entry encountered during Walk. path is the
// entry's full filesystem path; relative is its path relative to the walk
// root, using forward slashes regardless of platform.
type Visitor func(path, relative string, entry Entry) error

// frame is one explicit stack entry for the iterative walk: a directory
// whose children still need visiting.
type frame struct {
	path     string
	relative string
}

// Walk performs a single-pass, depth-first traversal of root. When
// recursive is false, only root's immediate children are visited — no
// frame is ever pushed for a subdirectory. The walk uses an explicit stack
// rather than recursion so trees far deeper than the platform's default
// goroutine stack size (spec scenarios exercise depths beyond 10,000) never
// risk a stack overflow.
//
// ctx is checked between directories so a cancelled context stops the walk
// promptly rather than running to completion.
func Walk(ctx context.Context, root string, recursive bool, exclusions Exclusions, visit Visitor) error {
	stack := []frame{{path: root, relative: ""}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := ListDirectory(current.path, current.relative, exclusions)
		if err != nil {
			return err
		}

		// Directories are pushed in reverse so that, popped off the stack,
		// they're processed in the same sorted order ListDirectory returned.
		var toDescend []frame
		for _, entry := range entries {
			childRelative := entry.Name
			if current.relative != "" {
				childRelative = current.relative + "/" + entry.Name
			}
			childPath := filepath.Join(current.path, entry.Name)

			err := visit(childPath, childRelative, entry)
			if err == ErrSkipDirectory {
				continue
			} else if err != nil {
				return err
			}

			if recursive && entry.IsDirectory && !entry.IsSymlink {
				toDescend = append(toDescend, frame{path: childPath, relative: childRelative})
			}
		}

		for i := len(toDescend) - 1; i >= 0; i-- {
			stack = append(stack, toDescend[i])
		}
	}

	return nil
}
