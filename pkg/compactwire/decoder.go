package compactwire

import (
	"fmt"
	"hash/crc32"

	"github.com/rawbytedev/memview"
)

// ReadFrame verifies the frame at the start of v and returns it together
// with the bytes that follow it.
func ReadFrame(v memview.View) (Frame, memview.View, error) {
	var h header
	if _, err := unpackHead(v, &h); err != nil {
		return Frame{}, memview.View{}, err
	}
	if h.Magic != Magic {
		return Frame{}, memview.View{}, fmt.Errorf("%w: %#x", ErrBadMagic, h.Magic)
	}
	length := int(h.Length)
	if length < HeaderSize+CRCSize {
		return Frame{}, memview.View{}, fmt.Errorf("%w: %d", ErrBadLength, length)
	}
	frame, err := v.Strict().To(length)
	if err != nil {
		return Frame{}, memview.View{}, err
	}
	raw, err := frame.Bytes()
	if err != nil {
		return Frame{}, memview.View{}, err
	}
	want := order.Uint32(raw[length-CRCSize:])
	if crc32.ChecksumIEEE(raw[2:length-CRCSize]) != want {
		return Frame{}, memview.View{}, ErrChecksum
	}
	f := Frame{
		Type:  h.Type,
		Flags: h.Flags,
		Body:  frame.Slice(HeaderSize, length-CRCSize),
	}
	return f, v.From(length), nil
}

// DecodeDataFrame parses a data frame; the payload aliases the input.
func DecodeDataFrame(f Frame) (DataFrame, error) {
	if f.Type != TypeData {
		return DataFrame{}, wrongType(f.Type, TypeData)
	}
	d := DataFrame{Flags: f.Flags, Payload: f.Body}
	if f.Flags&FlagHasOffsetTable == 0 {
		return d, nil
	}
	var table struct{ Count uint16 }
	rest, err := unpackHead(f.Body, &table)
	if err != nil {
		return DataFrame{}, err
	}
	entries, err := rest.Strict().To(int(table.Count) * 4)
	if err != nil {
		return DataFrame{}, err
	}
	raw, err := entries.Bytes()
	if err != nil {
		return DataFrame{}, err
	}
	d.Offsets = make([]uint32, table.Count)
	for i := range d.Offsets {
		d.Offsets[i] = order.Uint32(raw[i*4:])
	}
	d.Payload = rest.From(entries.Size())
	return d, nil
}

func DecodeErrorFrame(f Frame) (ErrorFrame, error) {
	if f.Type != TypeError {
		return ErrorFrame{}, wrongType(f.Type, TypeError)
	}
	var head struct {
		Code uint8
		Len  uint16
	}
	rest, err := unpackHead(f.Body, &head)
	if err != nil {
		return ErrorFrame{}, err
	}
	data, err := rest.Strict().To(int(head.Len))
	if err != nil {
		return ErrorFrame{}, err
	}
	return ErrorFrame{Code: head.Code, Data: data}, nil
}

func DecodeHandshake(f Frame) (HandshakeFrame, error) {
	if f.Type != TypeHandshake {
		return HandshakeFrame{}, wrongType(f.Type, TypeHandshake)
	}
	var head struct {
		VersionMask uint16
		MTU         uint16
		TimeoutMS   uint32
		AlgLen      uint16
	}
	rest, err := unpackHead(f.Body, &head)
	if err != nil {
		return HandshakeFrame{}, err
	}
	algs, err := rest.Strict().To(int(head.AlgLen))
	if err != nil {
		return HandshakeFrame{}, err
	}
	raw, err := algs.Bytes()
	if err != nil {
		return HandshakeFrame{}, err
	}
	return HandshakeFrame{
		VersionMask: head.VersionMask,
		MTU:         head.MTU,
		TimeoutMS:   head.TimeoutMS,
		AlgCodes:    append([]byte(nil), raw...),
	}, nil
}

// Reader walks back-to-back frames in a view.
type Reader struct {
	rest  memview.View
	frame Frame
	err   error
}

func NewReader(v memview.View) *Reader {
	return &Reader{rest: v}
}

// Next advances to the next frame. It returns false at the end of the
// input or on the first malformed frame; check Err to tell them apart.
func (r *Reader) Next() bool {
	if r.err != nil || r.rest.Empty() {
		return false
	}
	f, rest, err := ReadFrame(r.rest)
	if err != nil {
		r.err = err
		return false
	}
	r.frame, r.rest = f, rest
	return true
}

func (r *Reader) Frame() Frame { return r.frame }

func (r *Reader) Err() error { return r.err }
