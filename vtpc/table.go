package vtpc

import (
	"os"

	"github.com/vtpc-project/vtpc/pagestore"
	"github.com/vtpc-project/vtpc/twoq"
)

const (
	// MaxHandles bounds the number of simultaneously open descriptors.
	MaxHandles = 1024

	// reservedHandles are never allocated, mirroring the reserved
	// stdin/stdout/stderr slots of a POSIX descriptor table.
	reservedHandles = 3
)

// handles is the process-wide table of open descriptors. Slot i holds the
// handle for descriptor i, or nil if the slot is free. Like config, it is a
// package-level singleton rather than a caller-constructed registry: a
// fd-style API (Open(path) int) is only convenient if callers never have to
// thread a registry value through every call site, which is the entire
// point of modeling a POSIX-like descriptor API instead of an
// object-owned one.
var handles [MaxHandles]*handle

// Open opens path with the given flags and permission bits, admitting it
// into a fresh per-handle 2Q cache sized by the process-wide
// VTPC_CACHE_PAGES configuration, and returns an integer descriptor.
//
// Open first attempts a direct-I/O bypass of the OS page cache; if the OS
// rejects that, it transparently falls back to a buffered open and marks
// the handle non-direct (see pagestore.Open).
func Open(path string, flags int, perm os.FileMode) (int, error) {
	return open(path, flags, perm, config())
}

// OpenWithConfig behaves like Open but uses cfg instead of the process-wide
// singleton configuration, so callers (notably tests) can control cache
// capacity without going through the environment.
func OpenWithConfig(path string, flags int, perm os.FileMode, cfg *Config) (int, error) {
	return open(path, flags, perm, cfg)
}

func open(path string, flags int, perm os.FileMode, cfg *Config) (int, error) {
	fd, err := allocSlot()
	if err != nil {
		return -1, err
	}

	f, err := pagestore.Open(path, flags, perm)
	if err != nil {
		return -1, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return -1, err
	}

	h := &handle{
		file:  f,
		flags: flags,
		pos:   0,
		size:  info.Size(),
		pool:  pagestore.NewBufferPool(int(f.PageSize())),
	}
	h.policy = twoq.New(&fileHooks{file: f, h: h}, int(f.PageSize()), cfg.CachePages, h.pool)

	handles[fd] = h
	return fd, nil
}

// Close flushes every dirty page, closes the OS descriptor, and frees the
// slot. Flushing is best-effort with respect to closing: the descriptor is
// closed even if the flush failed. The first error observed, flush before
// close, is returned.
func Close(fd int) error {
	h, err := lookup(fd)
	if err != nil {
		return err
	}

	flushErr := h.policy.Flush()
	closeErr := h.file.Close()
	handles[fd] = nil

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// allocSlot finds the lowest-numbered free slot at or past reservedHandles.
func allocSlot() (int, error) {
	for i := reservedHandles; i < MaxHandles; i++ {
		if handles[i] == nil {
			return i, nil
		}
	}
	return -1, ErrTooManyOpenFiles
}

// lookup resolves fd to its handle, or ErrBadDescriptor if fd is out of
// range or its slot is free.
func lookup(fd int) (*handle, error) {
	if fd < reservedHandles || fd >= MaxHandles {
		return nil, ErrBadDescriptor
	}
	h := handles[fd]
	if h == nil {
		return nil, ErrBadDescriptor
	}
	return h, nil
}
