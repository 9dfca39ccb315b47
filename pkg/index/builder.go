package index

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/shruggietech/indexer/pkg/exiftool"
	"github.com/shruggietech/indexer/pkg/extension"
	"github.com/shruggietech/indexer/pkg/fsmeta"
	"github.com/shruggietech/indexer/pkg/hashing"
	"github.com/shruggietech/indexer/pkg/logging"
	"github.com/shruggietech/indexer/pkg/pathutil"
	"github.com/shruggietech/indexer/pkg/sidecar"
)

// BuildContext carries every dependency and configuration value the entry
// builder needs, constructed once per invocation and passed down by
// reference — never mutated after construction.
type BuildContext struct {
	Algorithms  []hashing.Algorithm
	IDAlgorithm hashing.Algorithm

	SessionID string

	SidecarConfig    *sidecar.Config
	ExtensionIndex   *extension.Index
	ExtensionPattern *regexp.Regexp

	ExtractEXIF           bool
	EXIFProbe             *exiftool.Probe
	EXIFTimeout           time.Duration
	EXIFExcludeKeys       map[string]bool
	EXIFExcludeExtensions map[string]bool

	MergeSidecars bool
	MergeDelete   bool
	DeleteQueue   *[]string

	// CreationTimeFallback gates the "using ctime fallback" debug log to
	// once per invocation; constructed fresh per BuildContext rather than
	// held as package-level state in pkg/fsmeta.
	CreationTimeFallback *fsmeta.CreationTimeFallbackGate

	// Progress, if non-nil, is invoked once per item (file or directory)
	// the builder finishes constructing — a seam for a CLI progress bar or
	// GUI status line to drive its display without polling internal state.
	Progress func(ProgressEvent)

	Logger *logging.Logger
}

// ProgressEvent is reported once per item processed during traversal.
type ProgressEvent struct {
	Path        string
	Relative    string
	IsDirectory bool
	Processed   int
}

func (c *BuildContext) groupOf(ext string) (string, bool) {
	if c.ExtensionIndex == nil {
		return "", false
	}
	group, ok := c.ExtensionIndex.GroupOf(ext)
	return string(group), ok
}

// now is a seam for tests that need deterministic timestamps; production
// code always uses the real clock.
var now = time.Now

func timePair(t time.Time) TimePair {
	return TimePair{ISO: t.UTC().Format(time.RFC3339Nano), Unix: t.UnixMilli()}
}

func sizeOf(bytes uint64) Size {
	return Size{Text: humanize.Bytes(bytes), Bytes: bytes}
}

// idHex extracts the hex digest for a specific algorithm from a HashSet,
// returning an empty string if that algorithm wasn't computed.
func idHex(set hashing.HashSet, algorithm hashing.Algorithm) string {
	hex, _ := set.Get(algorithm)
	return hex
}

func nameObject(name string, algorithms []hashing.Algorithm) (NameObject, error) {
	hashes, err := hashing.HashName(name, algorithms)
	if err != nil {
		return NameObject{}, err
	}
	text := name
	return NameObject{Text: &text, Hashes: &hashes}, nil
}

// BuildFile assembles an IndexEntry for a single file or symlink.
//
// siblings lists every entry (files and directories) seen in the same
// directory, used for sidecar association; directoryName is that
// directory's own name.
func (c *BuildContext) BuildFile(ctx context.Context, path, relative, parentName, directoryName string, siblings []sidecar.Sibling) (*IndexEntry, bool, error) {
	degraded := false

	stat, kind, err := fsmeta.ReadStat(path, c.Logger, c.CreationTimeFallback)
	if err != nil {
		return nil, true, err
	}
	if kind == fsmeta.KindOther {
		return nil, true, errors.New("not a regular file, directory, or symbolic link")
	}

	name := filepath.Base(path)
	_, _, extRaw := pathutil.ExtractComponents(path)
	var ext *string
	if extRaw != "" && extension.ValidateWith(extRaw, c.ExtensionPattern) {
		lower := strings.ToLower(extRaw)
		ext = &lower
	}

	nameObj, err := nameObject(name, c.Algorithms)
	if err != nil {
		return nil, true, err
	}

	isLink := kind == fsmeta.KindSymlink

	var contentHashes hashing.HashSet
	if isLink {
		contentHashes = *nameObj.Hashes
	} else {
		contentHashes, err = hashing.HashFile(path, c.Algorithms)
		if err != nil {
			degraded = true
			c.Logger.Warnf("unable to hash %s: %v", path, err)
		}
	}

	var hashesField *hashing.HashSet
	var id string
	if !degraded {
		h := contentHashes
		hashesField = &h
		id = IDPrefixFile + idHex(contentHashes, c.IDAlgorithm)
	}

	storageName := ""
	if id != "" {
		if ext != nil {
			storageName = id + "." + *ext
		} else {
			storageName = id
		}
	}

	entry := &IndexEntry{
		SchemaVersion: SchemaVersion,
		ID:            id,
		IDAlgorithm:   string(c.IDAlgorithm),
		Type:          TypeFile,
		Name:          nameObj,
		Extension:     ext,
		Size:          sizeOf(stat.Size),
		Hashes:        hashesField,
		FileSystem: FileSystemInfo{
			Relative: relative,
			Parent:   parentName,
		},
		Timestamps: Timestamps{
			Created:  timePair(stat.CreationTime),
			Modified: timePair(stat.ModificationTime),
			Accessed: timePair(stat.AccessTime),
		},
		Attributes: Attributes{IsLink: isLink, StorageName: storageName},
		Metadata:   []*MetadataEntry{},
		SessionID:  c.SessionID,
		IndexedAt:  timePair(now()),
	}

	if !isLink {
		if metaEntry := c.extractEXIF(ctx, path, name, extRaw); metaEntry != nil {
			entry.Metadata = append(entry.Metadata, metaEntry)
		}
	}

	if c.MergeSidecars {
		sidecarEntries, err := c.collectSidecars(filepath.Dir(path), name, false, directoryName, siblings)
		if err != nil {
			c.Logger.Warnf("sidecar sweep failed for %s: %v", path, err)
		}
		entry.Metadata = append(entry.Metadata, sidecarEntries...)
	}

	return entry, degraded, nil
}

// BuildDirectory assembles an IndexEntry for a directory, given its already
// constructed children. The two-layer id hash requires both the
// directory's own name hash and its parent's name hash.
// ownChildren lists the directory's own contents as siblings, used only to
// catch sidecars that live inside the directory they describe (desktop.ini)
// rather than alongside it — distinct from siblings, which is this
// directory's own siblings in its parent, used for sidecars like "D.json"
// that sit next to D.
func (c *BuildContext) BuildDirectory(path, relative, parentName string, children []*IndexEntry, siblings, ownChildren []sidecar.Sibling) (*IndexEntry, error) {
	stat, _, err := fsmeta.ReadStat(path, c.Logger, c.CreationTimeFallback)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	nameObj, err := nameObject(name, c.Algorithms)
	if err != nil {
		return nil, err
	}

	parentHashSet, err := hashing.HashName(parentName, c.Algorithms)
	if err != nil {
		return nil, err
	}

	innerSelf := idHex(*nameObj.Hashes, c.IDAlgorithm)
	innerParent := idHex(parentHashSet, c.IDAlgorithm)
	outer, err := hashing.HashBytes([]byte(innerSelf+innerParent), c.Algorithms)
	if err != nil {
		return nil, err
	}
	id := IDPrefixDirectory + idHex(outer, c.IDAlgorithm)

	if children == nil {
		children = []*IndexEntry{}
	}
	sortItems(children)

	entry := &IndexEntry{
		SchemaVersion: SchemaVersion,
		ID:            id,
		IDAlgorithm:   string(c.IDAlgorithm),
		Type:          TypeDirectory,
		Name:          nameObj,
		Extension:     nil,
		Size:          sizeOf(stat.Size),
		Hashes:        nil,
		FileSystem: FileSystemInfo{
			Relative: relative,
			Parent:   parentName,
		},
		Timestamps: Timestamps{
			Created:  timePair(stat.CreationTime),
			Modified: timePair(stat.ModificationTime),
			Accessed: timePair(stat.AccessTime),
		},
		Attributes: Attributes{IsLink: false, StorageName: id},
		Items:      children,
		SessionID:  c.SessionID,
		IndexedAt:  timePair(now()),
	}

	if c.MergeSidecars {
		sidecarEntries, err := c.collectSidecars(filepath.Dir(path), name, true, parentName, siblings)
		if err != nil {
			c.Logger.Warnf("sidecar sweep failed for directory %s: %v", path, err)
		}
		entry.Metadata = append(entry.Metadata, sidecarEntries...)

		if len(ownChildren) > 0 {
			contained, err := c.collectSidecars(path, name, true, name, ownChildren)
			if err != nil {
				c.Logger.Warnf("contained sidecar sweep failed for directory %s: %v", path, err)
			}
			entry.Metadata = append(entry.Metadata, contained...)
		}
	}

	return entry, nil
}

// sortItems orders a directory's children files-first, then directories,
// each group case-insensitive lexicographic by name.
func sortItems(items []*IndexEntry) {
	less := func(i, j int) bool {
		a, b := items[i], items[j]
		if (a.Type == TypeDirectory) != (b.Type == TypeDirectory) {
			return a.Type != TypeDirectory
		}
		return strings.ToLower(nameText(a)) < strings.ToLower(nameText(b))
	}
	insertionSort(items, less)
}

func nameText(e *IndexEntry) string {
	if e.Name.Text == nil {
		return ""
	}
	return *e.Name.Text
}

func insertionSort(items []*IndexEntry, less func(i, j int) bool) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func (c *BuildContext) extractEXIF(ctx context.Context, path, name, ext string) *MetadataEntry {
	if !c.ExtractEXIF || c.EXIFProbe == nil || !c.EXIFProbe.Available() {
		return nil
	}
	if !exiftool.ShouldExtract(ext, c.EXIFExcludeExtensions) {
		return nil
	}
	exiftoolPath, err := c.EXIFProbe.Resolve()
	if err != nil {
		return nil
	}

	data, err := exiftool.Extract(ctx, exiftoolPath, path, c.EXIFTimeout)
	if err != nil {
		c.Logger.Debugf("exif extraction skipped for %s: %v", path, err)
		return nil
	}
	for key := range c.EXIFExcludeKeys {
		delete(data, key)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	payloadHashes, err := hashing.HashBytes(payload, c.Algorithms)
	if err != nil {
		return nil
	}
	nameHashes, err := hashing.HashName(name, c.Algorithms)
	if err != nil {
		return nil
	}

	id := IDPrefixGeneratedMeta + idHex(payloadHashes, c.IDAlgorithm)
	text := name

	return &MetadataEntry{
		ID:     id,
		Origin: OriginGenerated,
		Name:   NameObject{Text: &text, Hashes: &nameHashes},
		Hashes: &payloadHashes,
		Attributes: MetadataAttributes{
			Type:       "exif",
			Format:     "json",
			Transforms: []string{"json_decode"},
		},
		Data: data,
	}
}

// collectSidecars runs the sidecar sweep for one parent (file or
// directory), reading and assembling a MetadataEntry for every sidecar that
// resolves to it, and enqueuing it for deletion if merge-delete is active.
func (c *BuildContext) collectSidecars(directory, parentName string, parentIsDirectory bool, directoryName string, siblings []sidecar.Sibling) ([]*MetadataEntry, error) {
	matches := sidecar.FindForParent(parentName, parentIsDirectory, directoryName, siblings, c.SidecarConfig, c.groupOf)

	var entries []*MetadataEntry
	for _, match := range matches {
		tc := c.SidecarConfig.Types[match.Classification.Type]
		sidecarPath := filepath.Join(directory, match.Sibling.Name)

		stat, kind, err := fsmeta.ReadStat(sidecarPath, c.Logger, c.CreationTimeFallback)
		if err != nil || kind != fsmeta.KindRegular {
			continue
		}

		var (
			format     string
			transforms []string
			data       interface{}
			sourceMediaType *string
		)

		if tc.IsLink {
			target, err := sidecar.ResolveLinkTarget(sidecarPath)
			if err != nil {
				c.Logger.Warnf("unable to resolve link sidecar %s: %v", sidecarPath, err)
				continue
			}
			format = "text"
			data = target
			mt := strings.TrimPrefix(strings.ToLower(filepath.Ext(match.Sibling.Name)), ".")
			sourceMediaType = &mt
		} else {
			result, err := sidecar.Read(sidecarPath, tc)
			if err != nil {
				c.Logger.Warnf("unable to read sidecar %s: %v", sidecarPath, err)
				continue
			}
			format = result.Format
			transforms = result.Transforms
			data = result.Data
		}

		// Hashed from the sidecar's own raw bytes on disk, not from the
		// (possibly lossy) decoded representation in data.
		contentHashes, err := hashing.HashFile(sidecarPath, c.Algorithms)
		if err != nil {
			continue
		}
		nameHashes, err := hashing.HashName(match.Sibling.Name, c.Algorithms)
		if err != nil {
			continue
		}

		text := match.Sibling.Name
		size := sizeOf(stat.Size)
		fsInfo := FileSystemInfo{Relative: match.Sibling.Name, Parent: directoryName}
		timestamps := Timestamps{
			Created:  timePair(stat.CreationTime),
			Modified: timePair(stat.ModificationTime),
			Accessed: timePair(stat.AccessTime),
		}

		entries = append(entries, &MetadataEntry{
			ID:     IDPrefixFile + idHex(contentHashes, c.IDAlgorithm),
			Origin: OriginSidecar,
			Name:   NameObject{Text: &text, Hashes: &nameHashes},
			Hashes: &contentHashes,
			Attributes: MetadataAttributes{
				Type:            string(match.Classification.Type),
				Format:          format,
				Transforms:      transforms,
				SourceMediaType: sourceMediaType,
			},
			Data:       data,
			FileSystem: &fsInfo,
			Size:       &size,
			Timestamps: &timestamps,
		})

		if c.MergeDelete && c.DeleteQueue != nil {
			*c.DeleteQueue = append(*c.DeleteQueue, sidecarPath)
		}
	}

	return entries, nil
}
