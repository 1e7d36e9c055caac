package memview

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/rs/zerolog"
)

var (
	ErrNoSource     = errors.New("view has no source")
	ErrNotStruct    = errors.New("expected struct")
	ErrNotStructPtr = errors.New("expected pointer to struct")
	ErrUnsupported  = errors.New("unsupported type")
	ErrBadVarint    = errors.New("malformed varint")
)

// Source is anything that can report its total size and produce the bytes
// of an arbitrary sub-range on demand. Callers guarantee
// 0 <= begin <= end <= Size().
type Source interface {
	Size() int
	Fetch(begin, end int) (Fetched, error)
}

// Fetched is the result of a single fetch. Data holds exactly end-begin
// bytes and must not be modified.
//
// When Anchor is nil the bytes belong to memory owned outside the view
// (a caller's buffer, a mapped file) and stay valid only as long as that
// owner keeps them alive.
type Fetched struct {
	Data   []byte
	Anchor *Anchor
}

// Anchor owns bytes materialized by a fetch. Any reference to it (a view's
// cache, a Span, a Fetched) keeps the buffer valid.
type Anchor struct {
	buf []byte
}

func NewAnchor(buf []byte) *Anchor {
	return &Anchor{buf: buf}
}

// NewAnchorFunc is NewAnchor with a release hook. release runs once, on a
// runtime goroutine, some time after the anchor becomes unreachable. Byte
// slices handed out without their anchor (View.Bytes, Fetched.Data) do not
// hold it, so release must leave buf readable.
func NewAnchorFunc(buf []byte, release func()) *Anchor {
	a := &Anchor{buf: buf}
	if release != nil {
		runtime.AddCleanup(a, func(f func()) { f() }, release)
	}
	return a
}

// Bytes returns the whole materialized buffer.
func (a *Anchor) Bytes() []byte {
	if a == nil {
		return nil
	}
	return a.buf
}

func (a *Anchor) Len() int {
	if a == nil {
		return 0
	}
	return len(a.buf)
}

// FetchError reports a failed fetch of [Begin, End).
type FetchError struct {
	Begin, End int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("memview: fetch [%d:%d]: %v", e.Begin, e.End, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// container erases the concrete source type. It is created once per root
// view and shared by pointer with every view sliced from it.
type container struct {
	src  Source
	size int
	log  zerolog.Logger
}

func newContainer(src Source, log zerolog.Logger) *container {
	return &container{src: src, size: src.Size(), log: log}
}

func (c *container) fetch(begin, end int) (Fetched, error) {
	f, err := c.src.Fetch(begin, end)
	if err == nil && len(f.Data) < end-begin {
		err = fmt.Errorf("source returned %d of %d bytes: %w", len(f.Data), end-begin, io.ErrUnexpectedEOF)
	}
	if err != nil {
		c.log.Debug().Err(err).Int("begin", begin).Int("end", end).Msg("fetch failed")
		return Fetched{}, &FetchError{Begin: begin, End: end, Err: err}
	}
	c.log.Debug().
		Int("begin", begin).
		Int("end", end).
		Bool("anchored", f.Anchor != nil).
		Msg("fetch")
	return f, nil
}
