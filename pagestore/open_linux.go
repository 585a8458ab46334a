//go:build linux

package pagestore

import (
	"os"

	"golang.org/x/sys/unix"
)

// openDirect tries to open path with O_DIRECT so the kernel never caches
// its contents; if that fails with EINVAL (common on tmpfs, some overlay
// and network filesystems, and odd block sizes), it falls back to a
// buffered open and reports direct=false so the caller knows to use the
// drop-from-cache advisory instead.
func openDirect(path string, flags int, perm os.FileMode) (f *os.File, direct bool, err error) {
	fd, oerr := unix.Open(path, flags|unix.O_DIRECT, uint32(perm))
	if oerr == nil {
		return os.NewFile(uintptr(fd), path), true, nil
	}
	if oerr != unix.EINVAL {
		return nil, false, oerr
	}

	fd, oerr = unix.Open(path, flags, uint32(perm))
	if oerr != nil {
		return nil, false, oerr
	}
	return os.NewFile(uintptr(fd), path), false, nil
}

// dropCache advises the kernel that [off, off+length) of fd will not be
// needed again soon. The advisory is best-effort: errors are ignored.
func dropCache(fd uintptr, off, length int64) {
	_ = unix.Fadvise(int(fd), off, length, unix.FADV_DONTNEED)
}
