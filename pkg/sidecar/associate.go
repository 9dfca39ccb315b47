package sidecar

import "strings"

// Sibling describes one entry seen alongside a sidecar during parent
// resolution.
type Sibling struct {
	Name string
	// Stem is Name without its final extension (e.g. "movie" for
	// "movie.mp4"), used because sidecar conventions vary on whether the
	// suffix they strip leaves the full sibling filename (extension and
	// all, as with "report.pdf.description") or just its stem (as with
	// "movie.srt" describing "movie.mp4"). A sidecar's base is matched
	// against both.
	Stem        string
	IsDirectory bool
	// Extension is the sibling's lowercase extension without a leading dot,
	// used only to break ties via TypeConfig.PreferredParentGroups.
	Extension string
}

// GroupLookup reports the group an extension belongs to, matching the shape
// of extension.Index.GroupOf without importing package extension directly —
// callers pass their own extension.Index.GroupOf method value.
type GroupLookup func(ext string) (group string, ok bool)

// Association is the resolved outcome of matching a sidecar to its parent.
type Association struct {
	ParentName  string
	IsDirectory bool
	Orphan      bool
}

// ResolveParent determines which sibling a sidecar describes.
//
// containingDirectoryName is the name of the directory the sidecar itself
// lives in, used only when tc.ParentIsContainingDirectory is set (desktop.ini
// describes the folder it sits inside, not a same-named sibling).
//
// When more than one same-named file sibling exists, groupOf breaks the tie
// using tc.PreferredParentGroups, tried in order; if no candidate matches
// any preferred group, the first candidate encountered wins.
func ResolveParent(cls Classification, containingDirectoryName string, tc TypeConfig, siblings []Sibling, groupOf GroupLookup) Association {
	if tc.ParentIsContainingDirectory {
		return Association{ParentName: containingDirectoryName, IsDirectory: true}
	}

	if cls.Base == "" {
		return Association{Orphan: true}
	}

	var fileCandidates, dirCandidates []Sibling
	for _, s := range siblings {
		if !strings.EqualFold(s.Name, cls.Base) && !strings.EqualFold(s.Stem, cls.Base) {
			continue
		}
		if s.IsDirectory {
			dirCandidates = append(dirCandidates, s)
		} else {
			fileCandidates = append(fileCandidates, s)
		}
	}

	if tc.ParentCanBeFile && len(fileCandidates) > 0 {
		if chosen, ok := pickPreferred(fileCandidates, tc.PreferredParentGroups, groupOf); ok {
			return Association{ParentName: chosen.Name}
		}
		return Association{ParentName: fileCandidates[0].Name}
	}

	if tc.ParentCanBeDirectory && len(dirCandidates) > 0 {
		return Association{ParentName: dirCandidates[0].Name, IsDirectory: true}
	}

	return Association{Orphan: true}
}

// Match pairs a sidecar sibling with its classification, returned by
// FindForParent for every sidecar resolved to a given parent.
type Match struct {
	Sibling        Sibling
	Classification Classification
}

// FindForParent scans siblingNames for every sidecar whose resolved
// association names parentName (with matching directory-ness) as its
// parent. directoryName is the enclosing directory's own name, needed for
// types with ParentIsContainingDirectory set.
func FindForParent(parentName string, parentIsDirectory bool, directoryName string, siblingNames []Sibling, cfg *Config, groupOf GroupLookup) []Match {
	var matches []Match
	for _, candidate := range siblingNames {
		if candidate.IsDirectory {
			continue
		}
		cls, ok := Classify(candidate.Name, cfg)
		if !ok {
			continue
		}
		tc := cfg.Types[cls.Type]
		assoc := ResolveParent(cls, directoryName, tc, siblingNames, groupOf)
		if assoc.Orphan {
			continue
		}
		if assoc.IsDirectory != parentIsDirectory {
			continue
		}
		if !strings.EqualFold(assoc.ParentName, parentName) {
			continue
		}
		matches = append(matches, Match{Sibling: candidate, Classification: cls})
	}
	return matches
}

func pickPreferred(candidates []Sibling, preferredGroups []string, groupOf GroupLookup) (Sibling, bool) {
	if len(candidates) < 2 || len(preferredGroups) == 0 || groupOf == nil {
		return Sibling{}, false
	}
	for _, wantGroup := range preferredGroups {
		for _, c := range candidates {
			if group, ok := groupOf(c.Extension); ok && group == wantGroup {
				return c, true
			}
		}
	}
	return Sibling{}, false
}
