//go:build darwin

package pagestore

import (
	"os"

	"golang.org/x/sys/unix"
)

// openDirect opens path normally and then applies F_NOCACHE, the Darwin
// analog of O_DIRECT: macOS has no O_DIRECT open flag, so bypassing the
// unified buffer cache is a per-descriptor fcntl hint set once after open
// rather than an open-time flag. The file is reported direct so that
// ReadPage/WritePage do not additionally issue a per-I/O drop advisory on
// top of the standing F_NOCACHE hint.
func openDirect(path string, flags int, perm os.FileMode) (f *os.File, direct bool, err error) {
	fd, oerr := unix.Open(path, flags, uint32(perm))
	if oerr != nil {
		return nil, false, oerr
	}
	file := os.NewFile(uintptr(fd), path)
	_, _ = unix.FcntlInt(uintptr(fd), unix.F_NOCACHE, 1)
	return file, true, nil
}

// dropCache is unused on Darwin: F_NOCACHE set at open time already keeps
// the file out of the unified buffer cache, so no per-I/O advisory follows.
func dropCache(fd uintptr, off, length int64) {}
