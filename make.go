package memview

import "unsafe"

// FromBytes returns a view over b without copying. b must outlive the
// view and everything decoded from it.
func FromBytes(b []byte) View {
	return New(NewBytesSource(b))
}

// FromSlice returns a view over the memory of s, len(s)*sizeof(T) bytes,
// without copying.
func FromSlice[T Scalar](s []T) View {
	if len(s) == 0 {
		return FromBytes(nil)
	}
	n := len(s) * int(unsafe.Sizeof(s[0]))
	return FromBytes(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), n))
}

// FromString returns a view over the bytes of s without copying.
func FromString(s string) View {
	return FromBytes(unsafe.Slice(unsafe.StringData(s), len(s)))
}
