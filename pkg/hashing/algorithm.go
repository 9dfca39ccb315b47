// Package hashing implements the multi-algorithm content and name hashing
// used to derive entry identity throughout the index: one hashing module
// consumed everywhere, reading each input exactly once and fanning the bytes
// out to every active algorithm's digest state.
package hashing

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
)

// Algorithm identifies a supported digest algorithm.
type Algorithm string

// Supported algorithms. SHA-1 is deliberately absent: it is never emitted by
// this package and must never become one of the algorithms a HashSet
// reports, even though crypto/sha1 remains available in the standard
// library.
const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// DefaultAlgorithms is the set of algorithms computed unless SHA-512 is
// explicitly requested as an addition.
var DefaultAlgorithms = []Algorithm{MD5, SHA256}

// WithSHA512 returns DefaultAlgorithms plus SHA-512, used when configuration
// requests compute_sha512.
func WithSHA512() []Algorithm {
	return []Algorithm{MD5, SHA256, SHA512}
}

// factory returns the constructor for the given algorithm's hash.Hash state.
func factory(a Algorithm) (func() hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New, nil
	case SHA256:
		return sha256.New, nil
	case SHA512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("unsupported hashing algorithm: %q", a)
	}
}

// HexLength returns the expected uppercase hex digest length for the
// algorithm, used by tests and validators that check HashSet shape.
func HexLength(a Algorithm) int {
	switch a {
	case MD5:
		return 32
	case SHA256:
		return 64
	case SHA512:
		return 128
	default:
		return 0
	}
}
