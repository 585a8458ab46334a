// Package pagestore implements the page-granular I/O primitives that sit
// between the 2Q policy engine and the operating system: page-aligned
// buffer allocation, whole-page positioned reads and writes, direct I/O
// probing at open time, and the best-effort "drop this range from the OS
// cache" advisory used when direct I/O isn't available.
//
// All reads and writes through a File are page-sized and page-aligned; the
// store never touches a partial page.
package pagestore

import (
	"errors"
	"io"
	"os"
	"unsafe"
)

// File is an open backing file accessed one page at a time.
//
// File is not safe for concurrent use.
type File struct {
	f        *os.File
	direct   bool
	pageSize int64
}

// PageSize returns the OS page size sampled when the store was opened.
func (s *File) PageSize() int64 { return s.pageSize }

// Direct reports whether the file was opened in direct-I/O (OS
// page-cache-bypassing) mode.
func (s *File) Direct() bool { return s.direct }

// Fd returns the underlying OS file descriptor.
func (s *File) Fd() uintptr { return s.f.Fd() }

// Open opens path with the given flags and permissions, first attempting a
// direct-I/O bypass of the OS page cache. If the OS rejects that with
// "invalid argument", it transparently falls back to a buffered open and
// marks the file non-direct; Direct reports which mode won.
func Open(path string, flags int, perm os.FileMode) (*File, error) {
	f, direct, err := openDirect(path, flags, perm)
	if err != nil {
		return nil, err
	}
	return &File{
		f:        f,
		direct:   direct,
		pageSize: int64(os.Getpagesize()),
	}, nil
}

// Stat returns the FileInfo of the underlying file.
func (s *File) Stat() (os.FileInfo, error) { return s.f.Stat() }

// Sync commits the file's in-kernel buffers to stable storage.
func (s *File) Sync() error { return s.f.Sync() }

// Truncate changes the size of the underlying file.
func (s *File) Truncate(size int64) error { return s.f.Truncate(size) }

// Close closes the underlying OS file descriptor.
func (s *File) Close() error { return s.f.Close() }

// ReadPage issues a positioned read of exactly one page at pageNo into buf,
// which must be at least PageSize bytes long. It returns the number of
// bytes actually read (less than PageSize only at end of file); unlike
// io.ReaderAt, a short read at EOF is not reported as an error.
//
// After a successful read on a non-direct file, ReadPage issues a
// best-effort advisory to drop the range just read from the OS cache;
// failures of that advisory are ignored.
func (s *File) ReadPage(buf []byte, pageNo uint64) (int, error) {
	off := int64(pageNo) * s.pageSize
	n, err := s.f.ReadAt(buf[:s.pageSize], off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, err
	}
	if !s.direct {
		dropCache(s.f.Fd(), off, s.pageSize)
	}
	return n, nil
}

// WritePage issues a positioned write of exactly one page at pageNo from
// buf, which must be at least PageSize bytes long.
//
// After a successful write on a non-direct file, WritePage issues the same
// best-effort cache-drop advisory as ReadPage.
func (s *File) WritePage(buf []byte, pageNo uint64) error {
	off := int64(pageNo) * s.pageSize
	n, err := s.f.WriteAt(buf[:s.pageSize], off)
	if err != nil {
		return err
	}
	if int64(n) != s.pageSize {
		return io.ErrShortWrite
	}
	if !s.direct {
		dropCache(s.f.Fd(), off, s.pageSize)
	}
	return nil
}

// AlignedBuffer allocates a byte slice of the given size whose first byte
// sits on an align-byte boundary. Direct I/O requires aligned buffers on
// most platforms; Go's allocator gives no alignment guarantee for make([]byte,
// n), so the buffer is carved out of a slightly larger backing array.
func AlignedBuffer(size, align int) []byte {
	buf := make([]byte, size+align)
	offset := 0
	if rem := uintptr(unsafe.Pointer(&buf[0])) % uintptr(align); rem != 0 {
		offset = align - int(rem)
	}
	return buf[offset : offset+size : offset+size]
}

// BufferPool recycles page-aligned buffers released by evicted cache
// entries, so that a cache running at steady state does not allocate on
// every miss. This mirrors the free-page pool a sharded page cache keeps
// per bucket, generalized to a single pool per handle since vtpc caches are
// not sharded (each handle owns its cache outright).
type BufferPool struct {
	pageSize int
	free     [][]byte
}

// NewBufferPool constructs a pool of buffers sized to pageSize bytes.
func NewBufferPool(pageSize int) *BufferPool {
	return &BufferPool{pageSize: pageSize}
}

// Get returns a zero-filled, page-aligned buffer, reusing a freed one if
// available.
func (p *BufferPool) Get() []byte {
	if n := len(p.free); n > 0 {
		buf := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return buf
	}
	return AlignedBuffer(p.pageSize, p.pageSize)
}

// Put returns buf to the pool for reuse. buf must have been obtained from
// Get and must not be used again by the caller afterward.
func (p *BufferPool) Put(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	p.free = append(p.free, buf)
}
