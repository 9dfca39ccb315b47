//go:build !linux && !darwin && !windows

package fsmeta

import "os"

// extractPlatformStat provides a portable fallback for platforms without a
// dedicated implementation (e.g. the various BSDs). It uses only what
// os.FileInfo guarantees, so creation time always falls back to
// modification time.
func extractPlatformStat(path string, info os.FileInfo) StatData {
	return StatData{
		Size:                   uint64(info.Size()),
		ModificationTime:       info.ModTime(),
		AccessTime:             info.ModTime(),
		CreationTime:           info.ModTime(),
		CreationTimeIsFallback: true,
	}
}
