package common

import (
	"encoding/binary"
	"math"
	"reflect"
	"unsafe"
)

// IsFixedKind reports whether k is a fixed-size primitive kind.
func IsFixedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// FixedSize returns the byte width for fixed-size primitive kinds.
func FixedSize(k reflect.Kind) int {
	switch k {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return int(unsafe.Sizeof(uintptr(0)))
	default:
		return -1
	}
}

// TypeSize returns the packed width of t: primitives, and arrays of
// primitives (nested arrays included). It returns -1 for anything else.
func TypeSize(t reflect.Type) int {
	if IsFixedKind(t.Kind()) {
		return FixedSize(t.Kind())
	}
	if t.Kind() == reflect.Array {
		elem := TypeSize(t.Elem())
		if elem < 0 {
			return -1
		}
		return elem * t.Len()
	}
	return -1
}

// SetFixed decodes a packed value of dst's type from b using order.
// b must hold at least TypeSize(dst.Type()) bytes.
func SetFixed(dst reflect.Value, b []byte, order binary.ByteOrder) {
	switch dst.Kind() {
	case reflect.Bool:
		dst.SetBool(b[0] != 0)
	case reflect.Int8:
		dst.SetInt(int64(int8(b[0])))
	case reflect.Uint8:
		dst.SetUint(uint64(b[0]))
	case reflect.Int16:
		dst.SetInt(int64(int16(order.Uint16(b))))
	case reflect.Uint16:
		dst.SetUint(uint64(order.Uint16(b)))
	case reflect.Int32:
		dst.SetInt(int64(int32(order.Uint32(b))))
	case reflect.Uint32:
		dst.SetUint(uint64(order.Uint32(b)))
	case reflect.Int64:
		dst.SetInt(int64(order.Uint64(b)))
	case reflect.Uint64:
		dst.SetUint(order.Uint64(b))
	case reflect.Int:
		dst.SetInt(readWord(b, order))
	case reflect.Uint, reflect.Uintptr:
		dst.SetUint(uint64(readWord(b, order)))
	case reflect.Float32:
		dst.SetFloat(float64(math.Float32frombits(order.Uint32(b))))
	case reflect.Float64:
		dst.SetFloat(math.Float64frombits(order.Uint64(b)))
	case reflect.Array:
		sz := TypeSize(dst.Type().Elem())
		for i := 0; i < dst.Len(); i++ {
			SetFixed(dst.Index(i), b[i*sz:], order)
		}
	}
}

// AppendFixed appends the packed encoding of v to dst using order.
// It is the inverse of SetFixed.
func AppendFixed(dst []byte, v reflect.Value, order binary.AppendByteOrder) []byte {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return append(dst, 1)
		}
		return append(dst, 0)
	case reflect.Int8:
		return append(dst, byte(v.Int()))
	case reflect.Uint8:
		return append(dst, byte(v.Uint()))
	case reflect.Int16:
		return order.AppendUint16(dst, uint16(v.Int()))
	case reflect.Uint16:
		return order.AppendUint16(dst, uint16(v.Uint()))
	case reflect.Int32:
		return order.AppendUint32(dst, uint32(v.Int()))
	case reflect.Uint32:
		return order.AppendUint32(dst, uint32(v.Uint()))
	case reflect.Int64:
		return order.AppendUint64(dst, uint64(v.Int()))
	case reflect.Uint64:
		return order.AppendUint64(dst, v.Uint())
	case reflect.Int:
		return appendWord(dst, uint64(v.Int()), order)
	case reflect.Uint, reflect.Uintptr:
		return appendWord(dst, v.Uint(), order)
	case reflect.Float32:
		return order.AppendUint32(dst, math.Float32bits(float32(v.Float())))
	case reflect.Float64:
		return order.AppendUint64(dst, math.Float64bits(v.Float()))
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			dst = AppendFixed(dst, v.Index(i), order)
		}
		return dst
	default:
		panic("unsupported fixed kind")
	}
}

func readWord(b []byte, order binary.ByteOrder) int64 {
	if unsafe.Sizeof(uintptr(0)) == 4 {
		return int64(int32(order.Uint32(b)))
	}
	return int64(order.Uint64(b))
}

func appendWord(dst []byte, x uint64, order binary.AppendByteOrder) []byte {
	if unsafe.Sizeof(uintptr(0)) == 4 {
		return order.AppendUint32(dst, uint32(x))
	}
	return order.AppendUint64(dst, x)
}

// ReadVarUint decodes a varint from b returning value and bytes consumed.
// A truncated or overlong varint yields (0, 0).
func ReadVarUint(b []byte) (uint64, int) {
	var x uint64
	var s uint
	for i, c := range b {
		if i == binary.MaxVarintLen64 {
			return 0, 0
		}
		x |= uint64(c&0x7F) << s
		if c&0x80 == 0 {
			return x, i + 1
		}
		s += 7
	}
	return 0, 0
}
