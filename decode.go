package memview

import (
	"encoding/binary"
	"unsafe"

	"github.com/rawbytedev/memview/internal/common"
)

// Scalar is the set of fixed-size numeric types a view can be read as.
type Scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint | ~uintptr |
		~float32 | ~float64
}

// Span is a typed, read-only reading of a view's bytes. It holds the
// view's anchor, so it stays valid after the view is gone.
type Span[T Scalar] struct {
	Values []T
	Anchor *Anchor
}

func (s Span[T]) Len() int { return len(s.Values) }

func (s Span[T]) At(i int) T { return s.Values[i] }

func sizeOf[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

// load reads a T in host byte order from b at off.
func load[T Scalar](b []byte, off int) T {
	var out T
	n := int(unsafe.Sizeof(out))
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out)), n), b[off:off+n])
	return out
}

// As reinterprets the first sizeof(T) bytes of v as a T in host byte
// order. A window shorter than T is a caller error and panics.
func As[T Scalar](v View) (T, error) {
	b, err := v.Bytes()
	if err != nil {
		var zero T
		return zero, err
	}
	return load[T](b, 0), nil
}

// AsSpan exposes the window as Size()/sizeof(T) values of T; trailing
// bytes that do not fill a whole T are left out. Suitably aligned data is
// aliased, not copied.
func AsSpan[T Scalar](v View) (Span[T], error) {
	f, err := v.fetch()
	if err != nil {
		return Span[T]{}, err
	}
	size := sizeOf[T]()
	n := len(f.Data) / size
	if n == 0 {
		return Span[T]{Values: []T{}, Anchor: f.Anchor}, nil
	}
	p := unsafe.Pointer(unsafe.SliceData(f.Data))
	var zero T
	if uintptr(p)%unsafe.Alignof(zero) == 0 {
		return Span[T]{Values: unsafe.Slice((*T)(p), n), Anchor: f.Anchor}, nil
	}
	vals := make([]T, n)
	raw := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(vals))), n*size)
	copy(raw, f.Data)
	return Span[T]{Values: vals, Anchor: NewAnchor(raw)}, nil
}

// Unpack2 decodes two fields packed back to back from the start of v.
// Field offsets are the running sums of the preceding field sizes.
func Unpack2[A, B Scalar](v View) (a A, b B, err error) {
	buf, err := v.Bytes()
	if err != nil {
		return a, b, err
	}
	offA := 0
	offB := offA + sizeOf[A]()
	return load[A](buf, offA), load[B](buf, offB), nil
}

func Unpack3[A, B, C Scalar](v View) (a A, b B, c C, err error) {
	buf, err := v.Bytes()
	if err != nil {
		return a, b, c, err
	}
	offA := 0
	offB := offA + sizeOf[A]()
	offC := offB + sizeOf[B]()
	return load[A](buf, offA), load[B](buf, offB), load[C](buf, offC), nil
}

func Unpack4[A, B, C, D Scalar](v View) (a A, b B, c C, d D, err error) {
	buf, err := v.Bytes()
	if err != nil {
		return a, b, c, d, err
	}
	offA := 0
	offB := offA + sizeOf[A]()
	offC := offB + sizeOf[B]()
	offD := offC + sizeOf[C]()
	return load[A](buf, offA), load[B](buf, offB), load[C](buf, offC), load[D](buf, offD), nil
}

// UnpackHead1 decodes a leading A and returns it with the rest of v.
func UnpackHead1[A Scalar](v View) (a A, tail View, err error) {
	if a, err = As[A](v); err != nil {
		return a, View{}, err
	}
	return a, v.From(sizeOf[A]()), nil
}

func UnpackHead2[A, B Scalar](v View) (a A, b B, tail View, err error) {
	if a, b, err = Unpack2[A, B](v); err != nil {
		return a, b, View{}, err
	}
	return a, b, v.From(sizeOf[A]() + sizeOf[B]()), nil
}

func UnpackHead3[A, B, C Scalar](v View) (a A, b B, c C, tail View, err error) {
	if a, b, c, err = Unpack3[A, B, C](v); err != nil {
		return a, b, c, View{}, err
	}
	return a, b, c, v.From(sizeOf[A]() + sizeOf[B]() + sizeOf[C]()), nil
}

// Uvarint decodes a leading unsigned varint and returns the rest of v.
// Like UnpackHead it resolves v, so the rest comes back resolved.
func Uvarint(v View) (uint64, View, error) {
	b, err := v.Bytes()
	if err != nil {
		return 0, View{}, err
	}
	x, n := common.ReadVarUint(b[:min(len(b), binary.MaxVarintLen64)])
	if n == 0 {
		return 0, View{}, ErrBadVarint
	}
	return x, v.From(n), nil
}

// String returns a copy of the window as a string.
func String(v View) (string, error) {
	b, err := v.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
