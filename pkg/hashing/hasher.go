package hashing

import (
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// chunkSize is the fixed read buffer size used when hashing file contents,
// scaled up from the 32 KiB copy buffer mutagen's own scanner uses for
// file digesting.
const chunkSize = 64 * 1024

// HashSet holds the digests produced for a single byte source. Field order
// here is load-bearing: it's the order in which HashSet serializes, and it
// must always be md5, sha256, then an optional sha512. An absent SHA-512 is
// omitted from JSON entirely rather than marshaled as null.
type HashSet struct {
	MD5    string `json:"md5"`
	SHA256 string `json:"sha256"`
	SHA512 string `json:"sha512,omitempty"`
}

// Get returns the uppercase hex digest for the given algorithm and whether it
// was present in the set.
func (h HashSet) Get(a Algorithm) (string, bool) {
	switch a {
	case MD5:
		return h.MD5, h.MD5 != ""
	case SHA256:
		return h.SHA256, h.SHA256 != ""
	case SHA512:
		return h.SHA512, h.SHA512 != ""
	default:
		return "", false
	}
}

// multiHasher bundles one hash.Hash state per requested algorithm so a single
// read pass can feed all of them via io.MultiWriter.
type multiHasher struct {
	algorithms []Algorithm
	states     []hash.Hash
	writer     io.Writer
}

func newMultiHasher(algorithms []Algorithm) (*multiHasher, error) {
	if len(algorithms) == 0 {
		return nil, errors.New("no hashing algorithms specified")
	}
	states := make([]hash.Hash, len(algorithms))
	writers := make([]io.Writer, len(algorithms))
	for i, a := range algorithms {
		ctor, err := factory(a)
		if err != nil {
			return nil, err
		}
		states[i] = ctor()
		writers[i] = states[i]
	}
	return &multiHasher{
		algorithms: algorithms,
		states:     states,
		writer:     io.MultiWriter(writers...),
	}, nil
}

func (m *multiHasher) sum() HashSet {
	var set HashSet
	for i, a := range m.algorithms {
		digest := strings.ToUpper(hex.EncodeToString(m.states[i].Sum(nil)))
		switch a {
		case MD5:
			set.MD5 = digest
		case SHA256:
			set.SHA256 = digest
		case SHA512:
			set.SHA512 = digest
		}
	}
	return set
}

// HashFile computes a HashSet for a file's contents, reading it exactly once
// regardless of how many algorithms are requested. This is mandatory per the
// spec, not an optimization: a file is read once and fanned out to every
// active digest state in the same pass.
func HashFile(path string, algorithms []Algorithm) (HashSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return HashSet{}, errors.Wrapf(err, "unable to open %s for hashing", path)
	}
	defer file.Close()

	hasher, err := newMultiHasher(algorithms)
	if err != nil {
		return HashSet{}, err
	}

	buffer := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(hasher.writer, file, buffer); err != nil {
		return HashSet{}, errors.Wrapf(err, "unable to read %s for hashing", path)
	}

	return hasher.sum(), nil
}

// HashBytes computes a HashSet for an in-memory byte slice.
func HashBytes(data []byte, algorithms []Algorithm) (HashSet, error) {
	hasher, err := newMultiHasher(algorithms)
	if err != nil {
		return HashSet{}, err
	}
	if _, err := hasher.writer.Write(data); err != nil {
		return HashSet{}, errors.Wrap(err, "unable to hash byte content")
	}
	return hasher.sum(), nil
}

// HashName computes a HashSet for a name string. Per invariant I7, the bytes
// hashed are always the NFC-normalized UTF-8 encoding of the string: this is
// what guarantees the same name hashes identically whether it arrived from an
// HFS+ volume (which stores names in NFD) or any other filesystem.
func HashName(name string, algorithms []Algorithm) (HashSet, error) {
	normalized := norm.NFC.String(name)
	return HashBytes([]byte(normalized), algorithms)
}

// nullHashes caches the digests of the empty byte sequence per algorithm,
// computed once at package initialization.
var nullHashes HashSet

func init() {
	set, err := HashBytes(nil, WithSHA512())
	if err != nil {
		panic(errors.Wrap(err, "unable to precompute null hashes"))
	}
	nullHashes = set
}

// NullHashes returns the precomputed digests of the empty byte sequence. It
// is used, for example, as the inner hash of a root directory's empty parent
// name component when deriving a two-layer directory identifier.
func NullHashes() HashSet {
	return nullHashes
}
