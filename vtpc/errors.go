package vtpc

import "errors"

// Sentinel errors returned by the public API, mirroring the error kinds a
// POSIX implementation would report via errno. Wrap these with %w when
// adding OS-level detail; callers can still compare with errors.Is.
var (
	// ErrBadDescriptor is returned for an unknown or freed descriptor, or
	// for an access-mode violation (reading a write-only handle, writing a
	// read-only handle).
	ErrBadDescriptor = errors.New("vtpc: bad file descriptor")

	// ErrInvalidArgument is returned for a seek that would land before the
	// start of the file, or an unrecognized whence value. Read and Write take
	// their count from len(buf), so a nil buffer is a zero-length transfer,
	// not an error.
	ErrInvalidArgument = errors.New("vtpc: invalid argument")

	// ErrNoMemory is returned when a handle slot, cache structure, page
	// buffer, or hash table cannot be allocated. Go's allocator reports
	// exhaustion by panicking rather than by an error value, so this is
	// never raised by this implementation; it is kept to document the
	// error kind the API surface reserves for it.
	ErrNoMemory = errors.New("vtpc: cannot allocate memory")

	// ErrTooManyOpenFiles is returned when the handle table has no free
	// slot.
	ErrTooManyOpenFiles = errors.New("vtpc: too many open files")
)
