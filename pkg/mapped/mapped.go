//go:build unix

// Package mapped serves views straight out of a read-only memory mapping
// of a file. Fetches are zero-copy and unanchored: the Mapping must stay
// open while any view or span derived from it is in use.
package mapped

import (
	"errors"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/rawbytedev/memview"
)

var ErrClosed = errors.New("mapping closed")

type Mapping struct {
	mu     sync.RWMutex
	data   []byte
	size   int
	closed bool
}

// Open maps the whole of path read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	// the mapping outlives the descriptor
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(fi.Size())
	if size == 0 {
		// mmap rejects zero-length mappings
		return &Mapping{}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: err}
	}
	return &Mapping{data: data, size: size}, nil
}

func (m *Mapping) Size() int { return m.size }

func (m *Mapping) Fetch(begin, end int) (memview.Fetched, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return memview.Fetched{}, ErrClosed
	}
	return memview.Fetched{Data: m.data[begin:end:end]}, nil
}

// View returns a view over the whole mapping.
func (m *Mapping) View(opts memview.Options) memview.View {
	return memview.NewWithOptions(m, opts)
}

// Close unmaps the file. Views already resolved against the mapping must
// not be read afterwards.
func (m *Mapping) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
