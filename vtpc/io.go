package vtpc

import "os"

// Seek whence values, matching io.Seeker's constants.
const (
	SeekStart   = 0
	SeekCurrent = 1
	SeekEnd     = 2
)

// oAccMode masks the access-mode bits (read-only/write-only/read-write) out
// of an open flags value. On the platforms this library targets (Linux and
// Darwin, via pagestore's build-tagged openers) those bits occupy the low
// two bits of the flags word, the same layout POSIX's O_ACCMODE assumes.
const oAccMode = 0x3

func isReadOnly(flags int) bool  { return flags&oAccMode == os.O_RDONLY }
func isWriteOnly(flags int) bool { return flags&oAccMode == os.O_WRONLY }

// Read reads up to len(buf) bytes from fd's cursor into buf, advancing the
// cursor by the number of bytes delivered. A short read only occurs at
// end of file. On a mid-operation error, bytes already delivered are
// returned with a nil error; the error resurfaces on the next call.
func Read(fd int, buf []byte) (int, error) {
	h, err := lookup(fd)
	if err != nil {
		return 0, err
	}
	if isWriteOnly(h.flags) {
		return 0, ErrBadDescriptor
	}

	pageSize := h.file.PageSize()
	delivered := 0
	count := len(buf)

	for delivered < count {
		pageNo := uint64(h.pos) / uint64(pageSize)
		inPage := int(uint64(h.pos) % uint64(pageSize))
		want := count - delivered
		if rem := int(pageSize) - inPage; want > rem {
			want = rem
		}

		entry, err := h.policy.Get(pageNo)
		if err != nil {
			if delivered > 0 {
				return delivered, nil
			}
			return 0, err
		}

		if inPage >= entry.ValidLen {
			break
		}

		avail := entry.ValidLen - inPage
		take := want
		if take > avail {
			take = avail
		}
		copy(buf[delivered:delivered+take], entry.Buf[inPage:inPage+take])

		h.pos += int64(take)
		delivered += take

		if take < want {
			break
		}
	}
	return delivered, nil
}

// Write writes len(buf) bytes from buf to fd's cursor, advancing the
// cursor and extending the logical file size (and the underlying file) as
// needed. On a mid-operation error, bytes already written are returned
// with a nil error.
func Write(fd int, buf []byte) (int, error) {
	h, err := lookup(fd)
	if err != nil {
		return 0, err
	}
	if isReadOnly(h.flags) {
		return 0, ErrBadDescriptor
	}
	if h.flags&os.O_APPEND != 0 {
		h.pos = h.size
	}

	pageSize := h.file.PageSize()
	written := 0
	count := len(buf)

	for written < count {
		pageNo := uint64(h.pos) / uint64(pageSize)
		inPage := int(uint64(h.pos) % uint64(pageSize))
		chunk := count - written
		if rem := int(pageSize) - inPage; chunk > rem {
			chunk = rem
		}

		entry, err := h.policy.Get(pageNo)
		if err != nil {
			if written > 0 {
				return written, nil
			}
			return 0, err
		}

		if inPage > entry.ValidLen {
			for i := entry.ValidLen; i < inPage; i++ {
				entry.Buf[i] = 0
			}
		}
		copy(entry.Buf[inPage:inPage+chunk], buf[written:written+chunk])
		if inPage+chunk > entry.ValidLen {
			entry.ValidLen = inPage + chunk
		}
		entry.MarkDirty()

		h.pos += int64(chunk)
		written += chunk

		if h.pos > h.size {
			h.size = h.pos
			if err := h.file.Truncate(h.size); err != nil {
				return written, nil
			}
		}
	}
	return written, nil
}

// Seek repositions fd's cursor according to whence and returns the new
// position. It performs no I/O.
func Seek(fd int, offset int64, whence int) (int64, error) {
	h, err := lookup(fd)
	if err != nil {
		return 0, err
	}

	var newPos int64
	switch whence {
	case SeekStart:
		newPos = offset
	case SeekCurrent:
		newPos = h.pos + offset
	case SeekEnd:
		newPos = h.size + offset
	default:
		return 0, ErrInvalidArgument
	}
	if newPos < 0 {
		return 0, ErrInvalidArgument
	}

	h.pos = newPos
	return newPos, nil
}

// Fsync writes back every dirty page, syncs the OS descriptor, and
// re-asserts the file's length, returning the first error encountered.
func Fsync(fd int) error {
	h, err := lookup(fd)
	if err != nil {
		return err
	}
	if err := h.policy.Flush(); err != nil {
		return err
	}
	if err := h.file.Sync(); err != nil {
		return err
	}
	return h.file.Truncate(h.size)
}
