//go:build !linux && !darwin

package pagestore

import "os"

// openDirect has no direct-I/O bypass to offer on this platform; the
// fallback buffered open applies unconditionally, and the per-I/O
// cache-drop advisory below is a no-op.
func openDirect(path string, flags int, perm os.FileMode) (f *os.File, direct bool, err error) {
	file, err := os.OpenFile(path, flags, perm)
	if err != nil {
		return nil, false, err
	}
	return file, false, nil
}

// dropCache is a no-op: this platform has no advisory equivalent wired up.
func dropCache(fd uintptr, off, length int64) {}
