package orchestrator

import (
	"context"
	"path/filepath"

	"github.com/shruggietech/indexer/pkg/fsmeta"
	"github.com/shruggietech/indexer/pkg/index"
	"github.com/shruggietech/indexer/pkg/pathutil"
	"github.com/shruggietech/indexer/pkg/rename"
	"github.com/shruggietech/indexer/pkg/sidecar"
	"github.com/shruggietech/indexer/pkg/traversal"
)

// CancelFunc is a caller-supplied cancellation flag, consulted between each
// entry's construction (spec.md §5) — never mid-item. A true return stops
// the scan and reports a *Cancelled error.
type CancelFunc func() bool

// siblingsOf converts a directory listing into the []sidecar.Sibling shape
// the classifier/associator needs, splitting each name into stem and
// extension once so every sidecar match in that directory reuses the work.
func siblingsOf(entries []traversal.Entry) []sidecar.Sibling {
	siblings := make([]sidecar.Sibling, 0, len(entries))
	for _, e := range entries {
		_, stem, ext := pathutil.ExtractComponents(e.Name)
		siblings = append(siblings, sidecar.Sibling{
			Name:        e.Name,
			Stem:        stem,
			IsDirectory: e.IsDirectory,
			Extension:   ext,
		})
	}
	return siblings
}

// frame is one explicit stack entry in the iterative, post-order tree
// builder: a directory whose listing has been read but whose children are
// still being visited one at a time. Using an explicit stack rather than
// recursive calls is what lets the scan tolerate directory trees far deeper
// than the platform's default goroutine stack (spec.md §5 requires at least
// 10,000).
type frame struct {
	path       string
	relative   string
	parentName string
	entries    []traversal.Entry
	siblings   []sidecar.Sibling
	cursor     int
	children   []*index.IndexEntry

	// parentSiblings is the enclosing directory's own listing, at the point
	// this frame was pushed — used, when this directory is popped, to find
	// sidecars that sit alongside it (e.g. "D.json" describing "D/") rather
	// than inside it.
	parentSiblings []sidecar.Sibling
}

// Scan performs the complete single-pass-per-directory traversal and entry
// assembly (C7+C8): it walks target depth-first, building a file IndexEntry
// for every leaf and a directory IndexEntry — with its children already
// sorted and attached — for every directory, bottom-up, so a parent's
// two-layer id hash and sorted Items are always computed from fully built
// children.
//
// paths is populated with every entry's tracked absolute path, consumed by
// the rename pass afterward. degraded is true if any per-item error
// downgraded the run from Success to PartialFailure without aborting it.
func Scan(ctx context.Context, target string, cfg *Config, build *index.BuildContext, cancel CancelFunc) (root *index.IndexEntry, paths rename.PathIndex, degraded bool, err error) {
	paths = make(rename.PathIndex)

	kind, statErr := fsmeta.Classify(target)
	if statErr != nil {
		return nil, nil, false, &TargetError{Path: target, Reason: statErr.Error()}
	}

	if kind == fsmeta.KindRegular || kind == fsmeta.KindSymlink {
		parentDir := filepath.Dir(target)
		entries, listErr := traversal.ListDirectory(parentDir, "", cfg.Exclusions)
		if listErr != nil {
			return nil, nil, false, &TargetError{Path: target, Reason: listErr.Error()}
		}
		siblings := siblingsOf(entries)

		entry, itemDegraded, buildErr := build.BuildFile(ctx, target, filepath.Base(target), "", filepath.Base(parentDir), siblings)
		if buildErr != nil {
			return nil, nil, false, &TargetError{Path: target, Reason: buildErr.Error()}
		}
		paths[entry] = target
		return entry, paths, itemDegraded, nil
	}

	if kind != fsmeta.KindDirectory {
		return nil, nil, false, &TargetError{Path: target, Reason: "target is neither a regular file nor a directory"}
	}

	stack := []*frame{{path: target, relative: "", parentName: ""}}
	processed := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, false, err
		}
		if cancel != nil && cancel() {
			return nil, nil, false, &Cancelled{}
		}

		top := stack[len(stack)-1]

		if top.entries == nil && top.cursor == 0 {
			entries, listErr := traversal.ListDirectory(top.path, top.relative, cfg.Exclusions)
			if listErr != nil {
				degraded = true
				build.Logger.Warnf("unable to list directory %s: %v", top.path, listErr)
				entries = nil
			}
			top.entries = entries
			top.siblings = siblingsOf(entries)
		}

		if top.cursor >= len(top.entries) {
			stack = stack[:len(stack)-1]

			var ownChildren []sidecar.Sibling
			if !cfg.Recursive {
				// In flat mode the only frame is the target root; its
				// listing is not swept for ParentIsContainingDirectory
				// sidecars.
				ownChildren = nil
			} else {
				ownChildren = top.siblings
			}

			entry, buildErr := build.BuildDirectory(top.path, top.relative, top.parentName, top.children, top.parentSiblings, ownChildren)
			if buildErr != nil {
				return nil, nil, false, &TargetError{Path: top.path, Reason: buildErr.Error()}
			}
			paths[entry] = top.path
			processed++
			if build.Progress != nil {
				build.Progress(index.ProgressEvent{Path: top.path, Relative: top.relative, IsDirectory: true, Processed: processed})
			}

			if len(stack) == 0 {
				root = entry
				break
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, entry)
			continue
		}

		childEntry := top.entries[top.cursor]
		top.cursor++

		childPath := filepath.Join(top.path, childEntry.Name)
		childRelative := childEntry.Name
		if top.relative != "" {
			childRelative = top.relative + "/" + childEntry.Name
		}

		if childEntry.IsDirectory && !childEntry.IsSymlink {
			if cfg.Recursive {
				stack = append(stack, &frame{
					path:           childPath,
					relative:       childRelative,
					parentName:     filepath.Base(top.path),
					parentSiblings: top.siblings,
				})
				continue
			}

			// Flat mode: still produce an entry for the immediate
			// subdirectory, but never enumerate its contents.
			entry, buildErr := build.BuildDirectory(childPath, childRelative, filepath.Base(top.path), nil, top.siblings, nil)
			if buildErr != nil {
				degraded = true
				build.Logger.Warnf("unable to build directory entry for %s: %v", childPath, buildErr)
				continue
			}
			paths[entry] = childPath
			top.children = append(top.children, entry)
			processed++
			if build.Progress != nil {
				build.Progress(index.ProgressEvent{Path: childPath, Relative: childRelative, IsDirectory: true, Processed: processed})
			}
			continue
		}

		entry, itemDegraded, buildErr := build.BuildFile(ctx, childPath, childRelative, filepath.Base(top.path), filepath.Base(top.path), top.siblings)
		if buildErr != nil {
			degraded = true
			build.Logger.Warnf("unable to build entry for %s: %v", childPath, buildErr)
			continue
		}
		if itemDegraded {
			degraded = true
		}
		paths[entry] = childPath
		top.children = append(top.children, entry)
		processed++
		if build.Progress != nil {
			build.Progress(index.ProgressEvent{Path: childPath, Relative: childRelative, IsDirectory: false, Processed: processed})
		}
	}

	return root, paths, degraded, nil
}
