package memview

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// BytesSource serves fetches straight out of a caller-owned buffer. It
// never copies and never anchors: the buffer must outlive every view
// built on it.
type BytesSource struct {
	b []byte
}

func NewBytesSource(b []byte) BytesSource {
	return BytesSource{b: b}
}

func (s BytesSource) Size() int { return len(s.b) }

func (s BytesSource) Fetch(begin, end int) (Fetched, error) {
	return Fetched{Data: s.b[begin:end:end]}, nil
}

// StreamSource reads each fetched range from a seekable stream into a
// fresh, anchored buffer. Nothing is cached across fetches.
type StreamSource struct {
	mu   sync.Mutex
	r    io.ReadSeeker
	size int
}

// NewStreamSource wraps r, whose readable length is size bytes.
func NewStreamSource(r io.ReadSeeker, size int) *StreamSource {
	return &StreamSource{r: r, size: size}
}

func (s *StreamSource) Size() int { return s.size }

func (s *StreamSource) Fetch(begin, end int) (Fetched, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.r.Seek(int64(begin), io.SeekStart); err != nil {
		return Fetched{}, fmt.Errorf("seek to %d: %w", begin, err)
	}
	buf := make([]byte, end-begin)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Fetched{}, err
	}
	return Fetched{Data: buf, Anchor: NewAnchor(buf)}, nil
}

// ReaderAtSource is the cursor-free counterpart of StreamSource; it is
// safe for concurrent fetches whenever the underlying ReaderAt is.
type ReaderAtSource struct {
	r    io.ReaderAt
	size int
}

func NewReaderAtSource(r io.ReaderAt, size int) *ReaderAtSource {
	return &ReaderAtSource{r: r, size: size}
}

func (s *ReaderAtSource) Size() int { return s.size }

func (s *ReaderAtSource) Fetch(begin, end int) (Fetched, error) {
	buf := make([]byte, end-begin)
	n, err := s.r.ReadAt(buf, int64(begin))
	if n == len(buf) {
		// ReadAt may report io.EOF alongside a full read at the end.
		return Fetched{Data: buf, Anchor: NewAnchor(buf)}, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return Fetched{}, err
}

// FileSource is a ReaderAtSource over an open file.
type FileSource struct {
	*ReaderAtSource
	f *os.File
}

// OpenFile opens path for lazy, range-by-range reads.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileSource{ReaderAtSource: NewReaderAtSource(f, int(fi.Size())), f: f}, nil
}

func (s *FileSource) Close() error {
	return s.f.Close()
}
