package rollback

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shruggietech/indexer/pkg/index"
)

func textPtr(s string) *string { return &s }

func fileEntry(name, relative string) *index.IndexEntry {
	return &index.IndexEntry{
		Type:       index.TypeFile,
		Name:       index.NameObject{Text: textPtr(name)},
		FileSystem: index.FileSystemInfo{Relative: relative, Parent: filepath.Dir(relative)},
	}
}

func dirEntry(name, relative string) *index.IndexEntry {
	return &index.IndexEntry{
		Type:       index.TypeDirectory,
		Name:       index.NameObject{Text: textPtr(name)},
		FileSystem: index.FileSystemInfo{Relative: relative, Parent: filepath.Dir(relative)},
	}
}

func TestBuildPlanStructuredCreatesAncestorsBeforeRestore(t *testing.T) {
	target := "/restore"
	entries := []FlatEntry{
		{Entry: dirEntry("sub", "sub")},
		{Entry: fileEntry("a.txt", "sub/a.txt")},
	}

	plan := BuildPlan(entries, target, Options{})
	require.Len(t, plan.Actions, 2)
	require.Equal(t, ActionMkdir, plan.Actions[0].Kind)
	require.Equal(t, filepath.Join(target, "sub"), plan.Actions[0].Path)
	require.Equal(t, ActionRestore, plan.Actions[1].Kind)
	require.Equal(t, filepath.Join(target, "sub", "a.txt"), plan.Actions[1].Path)
}

func TestBuildPlanRejectsPathTraversal(t *testing.T) {
	target := "/restore"
	entries := []FlatEntry{
		{Entry: fileEntry("evil.txt", "../../etc/evil.txt")},
	}

	plan := BuildPlan(entries, target, Options{})
	require.Empty(t, plan.Actions)
	require.Len(t, plan.Warnings, 1)
	require.Contains(t, plan.Warnings[0], "escapes target directory")
}

func TestBuildPlanFlatModeIgnoresDirectoriesAndDetectsCollisions(t *testing.T) {
	target := "/restore"
	entries := []FlatEntry{
		{Entry: dirEntry("sub", "sub")},
		{Entry: fileEntry("a.txt", "sub/a.txt")},
		{Entry: fileEntry("A.txt", "other/A.txt")},
	}

	plan := BuildPlan(entries, target, Options{Flat: true})
	require.Len(t, plan.Actions, 1)
	require.Equal(t, ActionRestore, plan.Actions[0].Kind)
	require.Equal(t, filepath.Join(target, "a.txt"), plan.Actions[0].Path)
	require.Len(t, plan.Warnings, 1)
	require.Contains(t, plan.Warnings[0], "name collision")
}

func TestBuildPlanPlacesAlongsideSidecarNextToOwner(t *testing.T) {
	target := "/restore"
	owner := fileEntry("photo.jpg", "photo.jpg")
	owner.Metadata = []*index.MetadataEntry{
		{
			Origin:     index.OriginSidecar,
			Name:       index.NameObject{Text: textPtr("photo.jpg.meta.txt")},
			Attributes: index.MetadataAttributes{Type: "sidecar_text", Format: "text"},
			Data:       "hand-written caption",
		},
	}
	entries := []FlatEntry{{Entry: owner}}

	plan := BuildPlan(entries, target, Options{})

	var sidecar *Action
	for i := range plan.Actions {
		if plan.Actions[i].Kind == ActionSidecarRestore {
			sidecar = &plan.Actions[i]
		}
	}
	require.NotNil(t, sidecar)
	require.Equal(t, filepath.Join(target, "photo.jpg.meta.txt"), sidecar.Path)
}

func TestBuildPlanPlacesDesktopIniSidecarInsideOwningDirectory(t *testing.T) {
	target := "/restore"
	owner := dirEntry("Pictures", "Pictures")
	owner.Metadata = []*index.MetadataEntry{
		{
			Origin:     index.OriginSidecar,
			Name:       index.NameObject{Text: textPtr("desktop.ini")},
			Attributes: index.MetadataAttributes{Type: "desktop_ini", Format: "text"},
			Data:       "[.ShellClassInfo]\r\n",
		},
	}
	entries := []FlatEntry{{Entry: owner}}

	plan := BuildPlan(entries, target, Options{})

	var sidecar *Action
	for i := range plan.Actions {
		if plan.Actions[i].Kind == ActionSidecarRestore {
			sidecar = &plan.Actions[i]
		}
	}
	require.NotNil(t, sidecar)
	require.Equal(t, filepath.Join(target, "Pictures", "desktop.ini"), sidecar.Path)
}

func TestBuildPlanDuplicateRestoresAgainstCanonical(t *testing.T) {
	target := "/restore"
	canonical := fileEntry("a.txt", "a.txt")
	duplicate := fileEntry("a-copy.txt", "a-copy.txt")
	entries := []FlatEntry{
		{Entry: canonical},
		{Entry: duplicate, Duplicate: true, Canonical: canonical},
	}

	plan := BuildPlan(entries, target, Options{})
	require.Len(t, plan.Actions, 2)
	require.Equal(t, ActionRestore, plan.Actions[0].Kind)
	require.Equal(t, ActionDuplicateRestore, plan.Actions[1].Kind)
	require.Same(t, canonical, plan.Actions[1].Canonical)
	require.Same(t, duplicate, plan.Actions[1].Entry)
}
