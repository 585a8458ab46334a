package vtpc

import (
	"github.com/vtpc-project/vtpc/pagestore"
	"github.com/vtpc-project/vtpc/twoq"
)

// handle is the state owned by one open descriptor: the backing file, its
// cache, and the cursor/size bookkeeping the I/O path maintains.
type handle struct {
	file   *pagestore.File
	policy *twoq.Policy
	pool   *pagestore.BufferPool

	flags int
	pos   int64
	size  int64
}

// fileHooks adapts a pagestore.File to twoq.Hooks, so the policy engine can
// load and write back pages without knowing anything about files. Writeback
// re-truncates the file to the handle's logical size after every dirty
// page is persisted.
//
// That re-truncation on every writeback, not just on fsync or close, is
// carried over unchanged from the system this library reimplements: a
// later write_page can extend the underlying file past the logical size
// (a full page is always written, even past valid_len), and truncating it
// back down after each writeback keeps the OS-visible file length equal to
// the logical size at every point an eviction completes, not just at
// fsync boundaries. A crash between the page write and the truncate can
// still leave the file longer than its logical size; this implementation
// keeps that tradeoff rather than changing the observable behavior.
type fileHooks struct {
	file *pagestore.File
	h    *handle
}

func (fh *fileHooks) Load(pageNo uint64, buf []byte) (int, error) {
	return fh.file.ReadPage(buf, pageNo)
}

func (fh *fileHooks) Writeback(pageNo uint64, buf []byte, validLen int) error {
	if err := fh.file.WritePage(buf, pageNo); err != nil {
		return err
	}
	return fh.file.Truncate(fh.h.size)
}
