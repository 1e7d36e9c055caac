package memview

import (
	"errors"
	"fmt"
)

var ErrOutOfRange = errors.New("out of range")

// RangeError describes a rejected request against a view of Size bytes.
type RangeError struct {
	Op         string
	Begin, End int
	Size       int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("memview: %s [%d:%d] out of range for view of size %d", e.Op, e.Begin, e.End, e.Size)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// Strict is the bounds-checked face of a View. Every slice and decode is
// validated against the window and fails with ErrOutOfRange instead of
// panicking.
type Strict struct {
	v View
}

func (v View) Strict() Strict { return Strict{v: v} }

// View returns the unchecked view underneath.
func (s Strict) View() View { return s.v }

func (s Strict) Size() int { return s.v.Size() }

func (s Strict) check(op string, begin, end int) error {
	if begin < 0 || begin > end || end > s.v.Size() {
		return &RangeError{Op: op, Begin: begin, End: end, Size: s.v.Size()}
	}
	// The window itself may come from an unchecked slice.
	if src := s.v.src; src != nil && (s.v.begin < 0 || s.v.end > src.size) {
		return &RangeError{Op: op, Begin: s.v.begin, End: s.v.end, Size: src.size}
	}
	return nil
}

func (s Strict) Slice(first, last int) (View, error) {
	if err := s.check("slice", first, last); err != nil {
		return View{}, err
	}
	return s.v.Slice(first, last), nil
}

func (s Strict) From(first int) (View, error) {
	if err := s.check("slice", first, s.v.Size()); err != nil {
		return View{}, err
	}
	return s.v.From(first), nil
}

func (s Strict) To(last int) (View, error) {
	if err := s.check("slice", 0, last); err != nil {
		return View{}, err
	}
	return s.v.To(last), nil
}

func (s Strict) Bytes() ([]byte, error) {
	if err := s.check("bytes", 0, s.v.Size()); err != nil {
		return nil, err
	}
	return s.v.Bytes()
}

// Unpack validates that the window holds the whole packed struct before
// decoding it.
func (s Strict) Unpack(out any) error {
	_, err := s.UnpackHead(out)
	return err
}

func (s Strict) UnpackHead(out any) (View, error) {
	n, err := PackedSize(out)
	if err != nil {
		return View{}, err
	}
	if err := s.check("unpack", 0, n); err != nil {
		return View{}, err
	}
	return UnpackHead(s.v, out)
}

// StrictAs is As with the window size checked first.
func StrictAs[T Scalar](s Strict) (T, error) {
	if err := s.check("as", 0, sizeOf[T]()); err != nil {
		var zero T
		return zero, err
	}
	return As[T](s.v)
}

func StrictAsSpan[T Scalar](s Strict) (Span[T], error) {
	if err := s.check("span", 0, s.v.Size()); err != nil {
		return Span[T]{}, err
	}
	return AsSpan[T](s.v)
}

func StrictUnpack2[A, B Scalar](s Strict) (a A, b B, err error) {
	if err = s.check("unpack", 0, sizeOf[A]()+sizeOf[B]()); err != nil {
		return a, b, err
	}
	return Unpack2[A, B](s.v)
}

func StrictUnpack3[A, B, C Scalar](s Strict) (a A, b B, c C, err error) {
	if err = s.check("unpack", 0, sizeOf[A]()+sizeOf[B]()+sizeOf[C]()); err != nil {
		return a, b, c, err
	}
	return Unpack3[A, B, C](s.v)
}

func StrictUnpack4[A, B, C, D Scalar](s Strict) (a A, b B, c C, d D, err error) {
	if err = s.check("unpack", 0, sizeOf[A]()+sizeOf[B]()+sizeOf[C]()+sizeOf[D]()); err != nil {
		return a, b, c, d, err
	}
	return Unpack4[A, B, C, D](s.v)
}
