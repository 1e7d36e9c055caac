// Package compactwire implements a small CRC-protected framing format on
// top of memview. Frames are parsed in place: payloads come back as
// sub-views of the input, so nothing is copied until a caller asks for
// bytes.
//
// Frame layout, little-endian, no padding:
//
//	magic   uint16
//	type    uint8
//	length  uint32  whole frame, CRC included
//	flags   uint8
//	body    ...
//	crc     uint32  CRC-32 (IEEE) of bytes [2, length-4)
package compactwire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rawbytedev/memview"
)

const (
	Magic uint16 = 0x5743 // "CW"

	TypeData      byte = 0x01
	TypeError     byte = 0x02
	TypeHandshake byte = 0x03

	FlagHasOffsetTable byte = 0x01

	HeaderSize = 8
	CRCSize    = 4
)

var (
	ErrBadMagic  = errors.New("bad frame magic")
	ErrBadLength = errors.New("bad frame length")
	ErrChecksum  = errors.New("crc mismatch")
	ErrWrongType = errors.New("unexpected frame type")
)

var order = binary.LittleEndian

type header struct {
	Magic  uint16
	Type   uint8
	Length uint32
	Flags  uint8
}

// Frame is a verified frame whose body has not been interpreted yet.
type Frame struct {
	Type  byte
	Flags byte
	Body  memview.View
}

type DataFrame struct {
	Flags   byte
	Offsets []uint32
	Payload memview.View
}

type ErrorFrame struct {
	Code byte
	Data memview.View
}

type HandshakeFrame struct {
	VersionMask uint16
	MTU         uint16
	TimeoutMS   uint32
	AlgCodes    []byte
}

// unpackHead decodes the little-endian struct out from the start of v,
// failing with memview.ErrOutOfRange when v is too short.
func unpackHead(v memview.View, out any) (memview.View, error) {
	n, err := memview.PackedSize(out)
	if err != nil {
		return memview.View{}, err
	}
	if _, err := v.Strict().To(n); err != nil {
		return memview.View{}, err
	}
	return memview.UnpackHeadOrder(v, order, out)
}

func wrongType(got, want byte) error {
	return fmt.Errorf("%w: got %#x, want %#x", ErrWrongType, got, want)
}
