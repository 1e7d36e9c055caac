// Package compressed exposes the decompressed contents of a zstd blob as a
// memview source. The blob is decompressed on the first fetch; every
// fetch then hands out a slice of that buffer, anchored to it.
package compressed

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/rawbytedev/memview"
)

var ErrSizeMismatch = errors.New("decompressed size does not match frame header")

var decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
})

type Source struct {
	blob []byte
	size int

	once   sync.Once
	anchor *memview.Anchor
	err    error
}

// NewSource reads the content size from the first frame header of blob.
// Frames written without a content size are decompressed right away to
// learn it.
func NewSource(blob []byte) (*Source, error) {
	var h zstd.Header
	if err := h.Decode(blob); err != nil {
		return nil, fmt.Errorf("zstd header: %w", err)
	}
	s := &Source{blob: blob}
	if h.HasFCS {
		s.size = int(h.FrameContentSize)
		return s, nil
	}
	if err := s.materialize(); err != nil {
		return nil, err
	}
	s.size = s.anchor.Len()
	return s, nil
}

func (s *Source) Size() int { return s.size }

func (s *Source) Fetch(begin, end int) (memview.Fetched, error) {
	if err := s.materialize(); err != nil {
		return memview.Fetched{}, err
	}
	data := s.anchor.Bytes()
	return memview.Fetched{Data: data[begin:end:end], Anchor: s.anchor}, nil
}

func (s *Source) materialize() error {
	s.once.Do(func() {
		dec, err := decoder()
		if err != nil {
			s.err = err
			return
		}
		raw, err := dec.DecodeAll(s.blob, nil)
		if err != nil {
			s.err = fmt.Errorf("zstd decode: %w", err)
			return
		}
		if s.size != 0 && len(raw) != s.size {
			s.err = fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(raw), s.size)
			return
		}
		s.anchor = memview.NewAnchor(raw)
	})
	return s.err
}

// View returns a view over the decompressed contents of blob.
func View(blob []byte, opts memview.Options) (memview.View, error) {
	src, err := NewSource(blob)
	if err != nil {
		return memview.View{}, err
	}
	return memview.NewWithOptions(src, opts), nil
}

// Compress encodes raw as a single zstd frame. Empty input still yields a
// frame, so the result is always a valid source.
func Compress(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithZeroFrames(true))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}
