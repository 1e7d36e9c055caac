// Package memview provides View, a cheap, copyable, read-only window onto
// bytes that may live in a Go slice, a memory-mapped file, a compressed
// blob or a stream read on demand.
//
// A view is built over a Source, which only has to report its size and
// produce the bytes of a sub-range. Slicing a view is pure offset
// arithmetic. The first decode (As, AsSpan, Unpack and friends) fetches
// the window once; the result is cached on the view and inherited by its
// slices.
//
// Two tiers are offered. The plain View API trusts its caller: slice
// bounds are not validated and a decode wider than the window panics.
// View.Strict returns the checked tier, where the same operations fail
// with ErrOutOfRange.
//
//	v := memview.FromBytes([]byte{1, 2, 3, 4})
//	n, _ := memview.As[int32](v)             // 0x04030201 on little-endian hosts
//	a, b, c, _ := memview.Unpack3[int8, int8, int16](v)
//	tag, rest, _ := memview.UnpackHead1[uint8](v)
package memview
