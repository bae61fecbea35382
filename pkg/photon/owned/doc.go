// Package owned provides single-owner wrappers for handles and buffers that
// cross into foreign code: a file descriptor, a C pointer, a pooled buffer.
//
// An Owned value runs its cleanup exactly once, when closed while it still
// owns its handle. Ownership can be given up (Release) or handed to another
// wrapper (Move); in both cases the source becomes null and its Close is a
// no-op:
//
//	fd := owned.New(rawFD, func(fd int) error { return syscall.Close(fd) })
//	defer fd.Close()
//
//	worker := fd.Move() // fd is now null; worker closes the descriptor
//
// The zero value of the handle type is the null handle, so New(zero, ...)
// yields a wrapper that owns nothing. Wrappers are not safe for concurrent
// use; transfer them between goroutines with Move.
package owned
