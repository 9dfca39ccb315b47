// Package index implements the entry data model, tree builder, and
// serializer (C8/C11): the IndexEntry/MetadataEntry types that make up an
// indexed tree, the construction logic that derives identity for a single
// file or directory, and the ordered, deterministic JSON output those
// entries are written as.
package index

import (
	"github.com/shruggietech/indexer/pkg/hashing"
)

// TimePair is a timestamp represented two ways: human-readable ISO 8601 and
// unix milliseconds, so downstream consumers never need to parse one to get
// the other.
type TimePair struct {
	ISO  string `json:"iso"`
	Unix int64  `json:"unix"`
}

// Size pairs a decimal-SI human string with the exact byte count.
type Size struct {
	Text  string `json:"text"`
	Bytes uint64 `json:"bytes"`
}

// NameObject carries a name and its hash set together; Text and Hashes are
// co-nullable, always both present or both null.
type NameObject struct {
	Text   *string          `json:"text"`
	Hashes *hashing.HashSet `json:"hashes"`
}

// FileSystemInfo locates an entry relative to the indexed root and names
// its parent directory.
type FileSystemInfo struct {
	Relative string `json:"relative"`
	Parent   string `json:"parent"`
}

// Timestamps bundles an entry's three lstat-derived times.
type Timestamps struct {
	Created  TimePair `json:"created"`
	Modified TimePair `json:"modified"`
	Accessed TimePair `json:"accessed"`
}

// Attributes carries the symlink flag and the entry's deterministic storage
// name.
type Attributes struct {
	IsLink      bool   `json:"is_link"`
	StorageName string `json:"storage_name"`
}

// IndexEntry is one file or directory node in an indexed tree. Field order
// here is load-bearing: encoding/json serializes struct fields in
// declaration order, and this order is schema_version first, then exactly
// the order the output format requires.
type IndexEntry struct {
	SchemaVersion int    `json:"schema_version"`
	ID            string `json:"id"`
	IDAlgorithm   string `json:"id_algorithm"`
	Type          string `json:"type"`

	Name       NameObject `json:"name"`
	Extension  *string    `json:"extension"`
	Size       Size       `json:"size"`
	Hashes     *hashing.HashSet `json:"hashes"`
	FileSystem FileSystemInfo   `json:"file_system"`
	Timestamps Timestamps       `json:"timestamps"`
	Attributes Attributes       `json:"attributes"`

	Items    []*IndexEntry    `json:"items"`
	Metadata []*MetadataEntry `json:"metadata"`

	MimeType *string `json:"mime_type"`

	Duplicates []*IndexEntry `json:"duplicates"`

	SessionID string   `json:"session_id"`
	IndexedAt TimePair `json:"indexed_at"`
}

const (
	TypeFile      = "file"
	TypeDirectory = "directory"

	IDPrefixFile             = "y"
	IDPrefixDirectory        = "x"
	IDPrefixGeneratedMeta    = "z"
	IDAlgorithmMD5           = "md5"
	IDAlgorithmSHA256        = "sha256"
	OriginGenerated          = "generated"
	OriginSidecar            = "sidecar"
	MetadataTypeError        = "error"
	SchemaVersion      = 2
)

// MetadataAttributes describes a MetadataEntry's payload shape.
type MetadataAttributes struct {
	Type             string   `json:"type"`
	Format           string   `json:"format"`
	Transforms       []string `json:"transforms"`
	SourceMediaType  *string  `json:"source_media_type,omitempty"`
}

// MetadataEntry is one item in an IndexEntry's metadata list: either a
// generated entry (EXIF extraction) or an absorbed sidecar file.
type MetadataEntry struct {
	ID     string     `json:"id"`
	Origin string     `json:"origin"`
	Name   NameObject `json:"name"`

	Hashes *hashing.HashSet `json:"hashes"`

	Attributes MetadataAttributes `json:"attributes"`
	Data       interface{}        `json:"data"`

	// FileSystem, Size, and Timestamps are present only for origin=sidecar
	// entries — provenance needed to reverse the merge during rollback.
	FileSystem *FileSystemInfo `json:"file_system,omitempty"`
	Size       *Size           `json:"size,omitempty"`
	Timestamps *Timestamps     `json:"timestamps,omitempty"`
}
