//go:build !windows

package dupscan

import (
	"os"
	"syscall"
)

// fileIdentity returns the inode number for POSIX platforms, where
// mid-read identity changes (the classic symlink-swap TOCTOU) can be
// detected by re-stating and comparing.
func fileIdentity(info os.FileInfo) (uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Ino), true
}

func sameIdentity(info os.FileInfo, ino uint64) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return true
	}
	return uint64(st.Ino) == ino
}
