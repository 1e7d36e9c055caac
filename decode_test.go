package memview

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func requireLittleEndian(t *testing.T) {
	t.Helper()
	if binary.NativeEndian.Uint16([]byte{1, 0}) != 1 {
		t.Skip("expected values assume a little-endian host")
	}
}

func TestAsInt(t *testing.T) {
	requireLittleEndian(t)
	v := FromBytes([]byte{1, 2, 3, 4})
	n, err := As[int32](v)
	require.NoError(t, err)
	require.Equal(t, int32(67305985), n)

	first, err := As[int8](v.Slice(1, 3))
	require.NoError(t, err)
	require.Equal(t, int8(2), first)
}

func TestAsTooShortPanics(t *testing.T) {
	v := FromBytes([]byte{1, 2})
	require.Panics(t, func() { _, _ = As[int64](v) })
}

func TestAsIntSpan(t *testing.T) {
	requireLittleEndian(t)
	span, err := AsSpan[int32](FromBytes([]byte{1, 2, 3, 4}))
	require.NoError(t, err)
	require.Equal(t, 1, span.Len())
	require.Equal(t, int32(67305985), span.At(0))
}

func TestAsInt8Span(t *testing.T) {
	span, err := AsSpan[int8](FromBytes([]byte{1, 2, 3, 4}))
	require.NoError(t, err)
	require.Equal(t, []int8{1, 2, 3, 4}, span.Values)
}

func TestSpanTruncatesRemainder(t *testing.T) {
	condition := func(b []byte) bool {
		span, err := AsSpan[uint32](FromBytes(b))
		require.NoError(t, err)
		return span.Len() == len(b)/4
	}
	require.NoError(t, quick.Check(condition, nil))
}

func TestSpanUnaligned(t *testing.T) {
	requireLittleEndian(t)
	// 16 bytes keeps the buffer out of the tiny allocator, so it is 8-aligned
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[1:], 0x0102030405060708)
	span, err := AsSpan[uint64](FromBytes(buf).Slice(1, 9))
	require.NoError(t, err)
	require.Equal(t, []uint64{0x0102030405060708}, span.Values)
	require.NotNil(t, span.Anchor, "copied spans own their buffer")
}

func TestByteSpanEqualsBuffer(t *testing.T) {
	condition := func(b []byte) bool {
		v := FromBytes(b)
		span, err := AsSpan[byte](v)
		require.NoError(t, err)
		return v.Size() == len(b) && bytes.Equal(span.Values, b)
	}
	require.NoError(t, quick.Check(condition, nil))
}

func TestUnpackInt8(t *testing.T) {
	a, b, c, d, err := Unpack4[int8, int8, int8, int8](FromBytes([]byte{1, 2, 3, 4}))
	require.NoError(t, err)
	require.Equal(t, []int8{1, 2, 3, 4}, []int8{a, b, c, d})
}

func TestUnpackDifferent(t *testing.T) {
	requireLittleEndian(t)
	a, b, c, err := Unpack3[int8, uint8, int16](FromBytes([]byte{1, 2, 3, 4}))
	require.NoError(t, err)
	require.Equal(t, int8(1), a)
	require.Equal(t, uint8(2), b)
	require.Equal(t, int16(1027), c)
}

func TestUnpackArray(t *testing.T) {
	var rec struct {
		N   int8
		Arr [3]byte
	}
	require.NoError(t, Unpack(FromBytes([]byte{1, 2, 3, 4}), &rec))
	require.Equal(t, int8(1), rec.N)
	require.Equal(t, [3]byte{2, 3, 4}, rec.Arr)
}

func TestUnpackHead(t *testing.T) {
	v := FromBytes([]byte{1, 2, 3, 4})
	n, tail, err := UnpackHead1[int8](v)
	require.NoError(t, err)
	require.Equal(t, int8(1), n)
	b, err := tail.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3, 4}, b)

	a, c, tail, err := UnpackHead2[uint8, uint8](v)
	require.NoError(t, err)
	require.Equal(t, []uint8{1, 2}, []uint8{a, c})
	require.Equal(t, 2, tail.Size())

	_, _, _, tail, err = UnpackHead3[uint8, uint8, uint16](v)
	require.NoError(t, err)
	require.True(t, tail.Empty())
}

func TestUnpackRoundTrip(t *testing.T) {
	type header struct {
		Kind  uint8
		Flags bool
		Len   uint32
		Pos   [2]int16
		Ratio float64
	}
	condition := func(h header, rest []byte) bool {
		packed, err := Pack(nil, h)
		require.NoError(t, err)
		size, err := PackedSize(h)
		require.NoError(t, err)
		require.Equal(t, size, len(packed))

		v := FromBytes(append(packed, rest...))
		var got header
		tail, err := UnpackHead(v, &got)
		require.NoError(t, err)
		again, err := Pack(nil, &got)
		require.NoError(t, err)
		tb, err := tail.Bytes()
		require.NoError(t, err)
		whole, err := v.Bytes()
		require.NoError(t, err)
		return bytes.Equal(again, packed) &&
			bytes.Equal(append(again, tb...), whole)
	}
	require.NoError(t, quick.Check(condition, nil))
}

func TestUnpackGenericRoundTrip(t *testing.T) {
	condition := func(a int16, b uint32, c float32, d int64) bool {
		packed, err := PackValues(nil, a, b, c, d)
		require.NoError(t, err)
		ga, gb, gc, gd, err := Unpack4[int16, uint32, float32, int64](FromBytes(packed))
		require.NoError(t, err)
		again, err := PackValues(nil, ga, gb, gc, gd)
		require.NoError(t, err)
		return bytes.Equal(again, packed)
	}
	require.NoError(t, quick.Check(condition, nil))
}

func TestUnpackValues(t *testing.T) {
	requireLittleEndian(t)
	var (
		a int8
		b [1]byte
		c uint16
	)
	require.NoError(t, UnpackValues(FromBytes([]byte{1, 2, 3, 4}), &a, &b, &c))
	require.Equal(t, int8(1), a)
	require.Equal(t, [1]byte{2}, b)
	require.Equal(t, uint16(1027), c)

	require.ErrorIs(t, UnpackValues(FromBytes([]byte{1}), a), ErrUnsupported)
	var s string
	require.ErrorIs(t, UnpackValues(FromBytes([]byte{1}), &s), ErrUnsupported)
}

func TestUnpackOrder(t *testing.T) {
	var be struct{ X uint32 }
	require.NoError(t, UnpackOrder(FromBytes([]byte{0, 0, 1, 2}), binary.BigEndian, &be))
	require.Equal(t, uint32(0x0102), be.X)

	out, err := PackOrder(nil, binary.BigEndian, be)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 1, 2}, out)
}

func TestUnpackErrors(t *testing.T) {
	v := FromBytes([]byte{1, 2, 3, 4})
	type rec struct{ A int8 }
	require.ErrorIs(t, Unpack(v, rec{}), ErrNotStructPtr)
	require.ErrorIs(t, Unpack(v, (*rec)(nil)), ErrNotStructPtr)

	type withString struct{ S string }
	require.ErrorIs(t, Unpack(v, &withString{}), ErrUnsupported)

	type private struct {
		A int8
		b int32
		C int8
	}
	var p private
	require.NoError(t, Unpack(v, &p))
	require.Equal(t, private{A: 1, C: 2}, p)

	_, err := Pack(nil, "abc")
	require.ErrorIs(t, err, ErrNotStruct)
	_, err = PackedSize(3)
	require.ErrorIs(t, err, ErrNotStruct)
}

func TestUvarint(t *testing.T) {
	buf := binary.AppendUvarint(nil, 300)
	buf = append(buf, 'h', 'i')
	x, rest, err := Uvarint(FromBytes(buf))
	require.NoError(t, err)
	require.Equal(t, uint64(300), x)
	s, err := String(rest)
	require.NoError(t, err)
	require.Equal(t, "hi", s)

	_, _, err = Uvarint(FromBytes([]byte{0x80}))
	require.ErrorIs(t, err, ErrBadVarint)
}

func TestUvarintRestIsResolved(t *testing.T) {
	buf := binary.AppendUvarint(nil, 1<<40)
	buf = append(buf, make([]byte, 21-len(buf))...)
	src := &countingSource{b: buf}

	x, rest, err := Uvarint(New(src))
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40), x)
	require.True(t, rest.Resolved())
	b, err := rest.Bytes()
	require.NoError(t, err)
	require.Len(t, b, 21-len(binary.AppendUvarint(nil, 1<<40)))
	require.Equal(t, 1, src.calls)
}

func TestFromSlice(t *testing.T) {
	vec := []int32{0, 1, 2, 3}
	v := FromSlice(vec)
	require.Equal(t, 16, v.Size())
	span, err := AsSpan[int32](v)
	require.NoError(t, err)
	require.Equal(t, vec, span.Values)

	require.True(t, FromSlice([]float64(nil)).Empty())

	s, err := String(FromString("hello").Slice(1, 4))
	require.NoError(t, err)
	require.Equal(t, "ell", s)
}

func TestStreamSource(t *testing.T) {
	requireLittleEndian(t)
	raw, err := PackValues(nil, int32(0), int32(1), int32(2), int32(3))
	require.NoError(t, err)

	src := NewStreamSource(bytes.NewReader(raw), 16)
	v := New(src)
	span, err := AsSpan[int32](v)
	require.NoError(t, err)
	require.Equal(t, []int32{0, 1, 2, 3}, span.Values)
	require.NotNil(t, span.Anchor)

	// every fetch materializes fresh memory
	f1, err := src.Fetch(4, 8)
	require.NoError(t, err)
	f2, err := src.Fetch(4, 8)
	require.NoError(t, err)
	require.Equal(t, f1.Data, f2.Data)
	require.NotSame(t, f1.Anchor, f2.Anchor)
}

func TestStreamSourceShortRead(t *testing.T) {
	v := New(NewStreamSource(bytes.NewReader([]byte{1, 2}), 8))
	_, err := v.Bytes()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReaderAtSource(t *testing.T) {
	v := New(NewReaderAtSource(bytes.NewReader([]byte{5, 6, 7, 8}), 4))
	b, err := v.From(2).Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{7, 8}, b)

	_, err = New(NewReaderAtSource(bytes.NewReader([]byte{5}), 4)).Bytes()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
