package hashing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashBytesMD5SHA256(t *testing.T) {
	set, err := HashBytes([]byte("hello"), DefaultAlgorithms)
	require.NoError(t, err)
	require.Equal(t, "5D41402ABC4B2A76B9719D911017C592", set.MD5)
	require.Equal(t, "2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824", set.SHA256)
	require.Empty(t, set.SHA512)
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	fileSet, err := HashFile(path, WithSHA512())
	require.NoError(t, err)

	bytesSet, err := HashBytes([]byte("hello"), WithSHA512())
	require.NoError(t, err)

	require.Equal(t, bytesSet, fileSet)
}

func TestHashNameNormalizesNFC(t *testing.T) {
	// "e" + combining acute accent (U+0301), the NFD form HFS+ stores names
	// in, versus its single precomposed NFC codepoint (U+00E9).
	nfd := "café"
	nfc := "café"

	nfdHash, err := HashName(nfd, DefaultAlgorithms)
	require.NoError(t, err)
	nfcHash, err := HashName(nfc, DefaultAlgorithms)
	require.NoError(t, err)

	require.Equal(t, nfcHash, nfdHash)
}

func TestNullHashes(t *testing.T) {
	set := NullHashes()
	expected, err := HashBytes(nil, WithSHA512())
	require.NoError(t, err)
	require.Equal(t, expected, set)
}

func TestHashSetUppercase(t *testing.T) {
	set, err := HashBytes([]byte("x"), WithSHA512())
	require.NoError(t, err)
	for _, digest := range []string{set.MD5, set.SHA256, set.SHA512} {
		require.Equal(t, digest, upper(digest))
	}
}

func upper(s string) string {
	out := []byte(s)
	for i, b := range out {
		if b >= 'a' && b <= 'z' {
			out[i] = b - ('a' - 'A')
		}
	}
	return string(out)
}
