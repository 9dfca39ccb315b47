//go:build darwin

package fsmeta

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// extractPlatformStat extracts StatData via a raw lstat(2) on Darwin. APFS
// and HFS+ both expose a native birth time via st_birthtimespec, so no
// fallback is needed here.
func extractPlatformStat(path string, info os.FileInfo) StatData {
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		return StatData{
			Size:                   uint64(info.Size()),
			ModificationTime:       info.ModTime(),
			AccessTime:             info.ModTime(),
			CreationTime:           info.ModTime(),
			CreationTimeIsFallback: true,
		}
	}

	return StatData{
		Size:             uint64(stat.Size),
		ModificationTime: time.Unix(stat.Mtimespec.Sec, stat.Mtimespec.Nsec),
		AccessTime:       time.Unix(stat.Atimespec.Sec, stat.Atimespec.Nsec),
		CreationTime:     time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec),
	}
}
