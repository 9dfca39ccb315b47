//go:build windows

package fsmeta

import (
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// extractPlatformStat extracts StatData via GetFileAttributesEx on Windows.
// Windows exposes a native creation time directly, so no fallback is needed.
// Note that lstat-equivalent size for a symlink (reparse point) may read as 0
// here, which is expected, not a bug.
func extractPlatformStat(path string, info os.FileInfo) StatData {
	pointer, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fallbackStat(info)
	}

	var data windows.Win32FileAttributeData
	if err := windows.GetFileAttributesEx(pointer, windows.GetFileExInfoStandard, (*byte)(unsafe.Pointer(&data))); err != nil {
		return fallbackStat(info)
	}

	return StatData{
		Size:             uint64(info.Size()),
		ModificationTime: timeFromFiletime(data.LastWriteTime),
		AccessTime:       timeFromFiletime(data.LastAccessTime),
		CreationTime:     timeFromFiletime(data.CreationTime),
	}
}

func fallbackStat(info os.FileInfo) StatData {
	return StatData{
		Size:                   uint64(info.Size()),
		ModificationTime:       info.ModTime(),
		AccessTime:             info.ModTime(),
		CreationTime:           info.ModTime(),
		CreationTimeIsFallback: true,
	}
}

func timeFromFiletime(ft windows.Filetime) time.Time {
	return time.Unix(0, ft.Nanoseconds())
}
