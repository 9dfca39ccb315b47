package rollback

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shruggietech/indexer/pkg/index"
)

// ActionKind identifies one step of a RollbackPlan.
type ActionKind string

const (
	ActionMkdir            ActionKind = "mkdir"
	ActionRestore          ActionKind = "restore"
	ActionDuplicateRestore ActionKind = "duplicate_restore"
	ActionSidecarRestore   ActionKind = "sidecar_restore"
)

// Action is one ordered step of a RollbackPlan.
type Action struct {
	Kind ActionKind
	Path string

	// Entry is set for Restore/DuplicateRestore: the entry whose content
	// this action reconstructs.
	Entry *index.IndexEntry
	// Canonical is set for DuplicateRestore: the canonical entry whose
	// resolved source file bytes are copied, since a duplicate's own
	// source file no longer exists on disk once absorbed.
	Canonical *index.IndexEntry
	// Metadata is set for SidecarRestore: the absorbed MetadataEntry whose
	// original bytes are being reconstructed.
	Metadata *index.MetadataEntry
}

// Plan is an ordered, side-effect-free sequence of actions: every mkdir
// precedes the restores that depend on it, and restores precede the
// sidecar-restore actions that sit alongside them.
type Plan struct {
	Actions  []Action
	Warnings []string
}

// Options configures planning.
type Options struct {
	// Flat restores every file directly into the target directory by
	// name, ignoring file_system.relative. Structured (the default)
	// recreates the original relative directory layout.
	Flat bool
}

// BuildPlan turns a flattened entry list into an ordered RollbackPlan.
// Planning never touches the filesystem; it only computes paths and
// guards against entries whose file_system.relative would escape
// targetDir after normalization.
func BuildPlan(entries []FlatEntry, targetDir string, opts Options) *Plan {
	plan := &Plan{}
	mkdirSeen := make(map[string]bool)
	nameSeen := make(map[string]bool)
	restorePaths := make(map[*index.IndexEntry]string)

	restorePathOf := func(e *index.IndexEntry) (string, bool) {
		if opts.Flat {
			if e.Name.Text == nil {
				return "", false
			}
			key := strings.ToLower(*e.Name.Text)
			if nameSeen[key] {
				plan.Warnings = append(plan.Warnings, fmt.Sprintf(
					"flat mode: name collision on %q, skipping later entry", *e.Name.Text))
				return "", false
			}
			nameSeen[key] = true
			return filepath.Join(targetDir, *e.Name.Text), true
		}

		rel := e.FileSystem.Relative
		if rel == "" {
			return targetDir, true
		}
		restore := filepath.Join(targetDir, filepath.FromSlash(rel))
		if !withinDir(targetDir, restore) {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf(
				"rejecting entry with relative path %q: escapes target directory", rel))
			return "", false
		}
		return restore, true
	}

	addAncestorMkdirs := func(path string) {
		var chain []string
		for dir := filepath.Dir(path); len(dir) > len(targetDir) && dir != "." && !mkdirSeen[dir]; dir = filepath.Dir(dir) {
			chain = append(chain, dir)
			mkdirSeen[dir] = true
			if filepath.Dir(dir) == dir {
				break
			}
		}
		for i := len(chain) - 1; i >= 0; i-- {
			plan.Actions = append(plan.Actions, Action{Kind: ActionMkdir, Path: chain[i]})
		}
	}

	for _, fe := range entries {
		if fe.Entry.Type == index.TypeDirectory {
			if opts.Flat {
				continue // flat mode ignores directory structure entirely
			}
			path, ok := restorePathOf(fe.Entry)
			if !ok || path == targetDir {
				if ok {
					restorePaths[fe.Entry] = path
				}
				continue
			}
			if !mkdirSeen[path] {
				mkdirSeen[path] = true
				plan.Actions = append(plan.Actions, Action{Kind: ActionMkdir, Path: path})
			}
			restorePaths[fe.Entry] = path
			continue
		}

		path, ok := restorePathOf(fe.Entry)
		if !ok {
			continue
		}
		addAncestorMkdirs(path)
		restorePaths[fe.Entry] = path

		if fe.Duplicate {
			plan.Actions = append(plan.Actions, Action{Kind: ActionDuplicateRestore, Path: path, Entry: fe.Entry, Canonical: fe.Canonical})
		} else {
			plan.Actions = append(plan.Actions, Action{Kind: ActionRestore, Path: path, Entry: fe.Entry})
		}
	}

	// Sidecar-origin metadata entries are placed alongside (or, for
	// desktop.ini-style types, inside) the entry that owns them.
	for _, fe := range entries {
		if fe.Duplicate {
			continue // duplicates carry no metadata of their own
		}
		ownerPath, ok := restorePaths[fe.Entry]
		if !ok {
			continue
		}
		for _, m := range fe.Entry.Metadata {
			if m.Origin != index.OriginSidecar || m.Name.Text == nil {
				continue
			}
			dir := filepath.Dir(ownerPath)
			if fe.Entry.Type == index.TypeDirectory && m.Attributes.Type == "desktop_ini" {
				dir = ownerPath
			}
			plan.Actions = append(plan.Actions, Action{
				Kind:     ActionSidecarRestore,
				Path:     filepath.Join(dir, *m.Name.Text),
				Metadata: m,
			})
		}
	}

	return plan
}

// withinDir reports whether candidate, once cleaned, resolves to a path at
// or below root — the path-traversal guard spec.md §4.12 requires.
func withinDir(root, candidate string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(candidate))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel))
}
