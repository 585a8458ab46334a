// Package vtpc implements a user-space page cache exposing a small,
// POSIX-file-descriptor-like API (Open, Read, Write, Seek, Fsync, Close)
// backed by a 2Q (twoq) replacement policy over page-aligned I/O
// (pagestore). The library bypasses the OS page cache — via direct I/O
// where the platform supports it, via a best-effort drop-from-cache
// advisory otherwise — so the handle's own cache is the only resident copy
// of the file's pages.
//
// vtpc is single-threaded and cooperative: it takes no internal locks, and
// a handle's cache, cursor, and file size are ordinary unguarded fields.
// Concurrent use of the same descriptor, or of the package-level handle
// table, from more than one goroutine at a time is unsafe; callers needing
// concurrent access must serialize it themselves.
package vtpc
