package compactwire

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

func writeHeader(buf *bytes.Buffer, typ, flags byte) {
	binary.Write(buf, order, Magic)
	buf.WriteByte(typ)
	binary.Write(buf, order, uint32(0)) // length placeholder
	buf.WriteByte(flags)
}

// finish fills in the length and appends the CRC.
func finish(buf *bytes.Buffer) []byte {
	out := buf.Bytes()
	total := uint32(len(out) + CRCSize)
	order.PutUint32(out[3:], total)
	crc := crc32.ChecksumIEEE(out[2:])
	return order.AppendUint32(out, crc)
}

// EncodeDataFrame serializes a payload with an optional offset table.
func EncodeDataFrame(payload []byte, flags byte, offsets []uint32) ([]byte, error) {
	if len(offsets) > 0 {
		flags |= FlagHasOffsetTable
	}
	buf := &bytes.Buffer{}
	writeHeader(buf, TypeData, flags)
	if flags&FlagHasOffsetTable != 0 {
		binary.Write(buf, order, uint16(len(offsets)))
		for _, off := range offsets {
			binary.Write(buf, order, off)
		}
	}
	buf.Write(payload)
	return finish(buf), nil
}

// EncodeErrorFrame builds an error frame with code and custom data.
func EncodeErrorFrame(code byte, data []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	writeHeader(buf, TypeError, 0)
	buf.WriteByte(code)
	binary.Write(buf, order, uint16(len(data)))
	buf.Write(data)
	return finish(buf), nil
}

func EncodeHandshake(h HandshakeFrame) ([]byte, error) {
	buf := &bytes.Buffer{}
	writeHeader(buf, TypeHandshake, 0)
	binary.Write(buf, order, h.VersionMask)
	binary.Write(buf, order, h.MTU)
	binary.Write(buf, order, h.TimeoutMS)
	binary.Write(buf, order, uint16(len(h.AlgCodes)))
	buf.Write(h.AlgCodes)
	return finish(buf), nil
}
