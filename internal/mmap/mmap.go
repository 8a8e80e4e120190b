package mmap

import (
	"errors"
	"io"
	"math"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned when a closed File is accessed.
	ErrClosed = errors.New("mmap: file is closed")
	// ErrTooLarge is returned for files that do not fit the address space.
	ErrTooLarge = errors.New("mmap: file too large")
	// ErrRange is returned for sections outside the mapping.
	ErrRange = errors.New("mmap: range out of bounds")
)

// File is a read-only mapping of a whole file. Empty files map to zero bytes
// without a kernel mapping.
type File struct {
	data   []byte
	unmap  func([]byte) error
	closed atomic.Bool
}

// Map maps the file at path.
func Map(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size > math.MaxInt {
		return nil, ErrTooLarge
	}
	if size == 0 {
		return &File{}, nil
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}
	return &File{data: data, unmap: unmap}, nil
}

// Len returns the mapped size.
func (m *File) Len() int64 { return int64(len(m.data)) }

// Bytes returns the whole mapping. The slice is invalid once Close returns.
func (m *File) Bytes() ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return m.data, nil
}

// Section returns the bytes in [off, end).
func (m *File) Section(off, end int64) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if off < 0 || end < off || end > m.Len() {
		return nil, ErrRange
	}
	return m.data[off:end], nil
}

// ReadAt copies from the mapping; it follows io.ReaderAt.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrRange
	}
	if off >= m.Len() {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Prefetch asks the kernel to read the mapping ahead. Segments are always
// consumed front to back in full.
func (m *File) Prefetch() error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return osPrefetch(m.data)
}

// Close unmaps the file. Calling it again is a no-op.
func (m *File) Close() error {
	if m.closed.Swap(true) || m.unmap == nil {
		return nil
	}
	return m.unmap(m.data)
}
