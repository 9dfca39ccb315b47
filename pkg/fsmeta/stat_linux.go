//go:build linux

package fsmeta

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// extractPlatformStat extracts StatData via a raw lstat(2) on Linux. Classic
// stat(2) has no birth-time field, so creation time always falls back to
// ctime here. TODO: attempt statx(2) with STATX_BTIME on filesystems that
// support it (ext4, xfs, btrfs) instead of always falling back.
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
		Size:                   uint64(stat.Size),
		ModificationTime:       time.Unix(stat.Mtim.Sec, stat.Mtim.Nsec),
		AccessTime:             time.Unix(stat.Atim.Sec, stat.Atim.Nsec),
		CreationTime:           time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec),
		CreationTimeIsFallback: true,
	}
}
