// Package layout decodes packed records whose shape is described at run
// time, typically in a YAML file, instead of by a Go struct.
//
//	name: header
//	order: little
//	fields:
//	  - {name: magic, type: uint32}
//	  - {name: flags, type: uint8}
//	  - {name: id, type: bytes, size: 16}
//
// Fields are laid out back to back in the order listed. Offsets are fixed
// when the layout is parsed.
package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/memview"
	"github.com/rawbytedev/memview/internal/common"
)

var (
	ErrUnknownType = errors.New("unknown field type")
	ErrBadLayout   = errors.New("invalid layout")
)

var scalarTypes = map[string]reflect.Type{
	"bool":    reflect.TypeFor[bool](),
	"int8":    reflect.TypeFor[int8](),
	"int16":   reflect.TypeFor[int16](),
	"int32":   reflect.TypeFor[int32](),
	"int64":   reflect.TypeFor[int64](),
	"uint8":   reflect.TypeFor[uint8](),
	"uint16":  reflect.TypeFor[uint16](),
	"uint32":  reflect.TypeFor[uint32](),
	"uint64":  reflect.TypeFor[uint64](),
	"float32": reflect.TypeFor[float32](),
	"float64": reflect.TypeFor[float64](),
}

type Field struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Size is only read for "bytes" fields.
	Size   int `yaml:"size,omitempty"`
	Offset int `yaml:"-"`

	typ reflect.Type
}

type Layout struct {
	Name   string  `yaml:"name"`
	Order  string  `yaml:"order,omitempty"` // little, big or host (default)
	Fields []Field `yaml:"fields"`
	Size   int     `yaml:"-"`

	order memview.ByteOrder
}

// Record maps field names to decoded values: Go scalars for numeric and
// bool fields, []byte for bytes fields.
type Record map[string]any

// Parse reads a layout description and computes field offsets.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLayout, err)
	}
	if err := l.compile(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Load parses the layout file at path.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (l *Layout) compile() error {
	switch l.Order {
	case "", "host":
		l.order = memview.HostOrder
	case "little":
		l.order = binary.LittleEndian
	case "big":
		l.order = binary.BigEndian
	default:
		return fmt.Errorf("%w: byte order %q", ErrBadLayout, l.Order)
	}
	if len(l.Fields) == 0 {
		return fmt.Errorf("%w: no fields", ErrBadLayout)
	}
	seen := make(map[string]bool, len(l.Fields))
	offset := 0
	for i := range l.Fields {
		f := &l.Fields[i]
		if f.Name == "" || seen[f.Name] {
			return fmt.Errorf("%w: field %d: missing or duplicate name %q", ErrBadLayout, i, f.Name)
		}
		seen[f.Name] = true
		if f.Type == "bytes" {
			if f.Size <= 0 {
				return fmt.Errorf("%w: field %q: bytes needs a positive size", ErrBadLayout, f.Name)
			}
		} else {
			t, ok := scalarTypes[f.Type]
			if !ok {
				return fmt.Errorf("%w: field %q: %q", ErrUnknownType, f.Name, f.Type)
			}
			f.typ = t
			f.Size = common.TypeSize(t)
		}
		f.Offset = offset
		offset += f.Size
	}
	l.Size = offset
	return nil
}

// Decode reads one record from the start of v and returns it with the
// bytes that follow. A window shorter than the layout fails with
// memview.ErrOutOfRange.
func (l *Layout) Decode(v memview.View) (Record, memview.View, error) {
	head, err := v.Strict().To(l.Size)
	if err != nil {
		return nil, memview.View{}, err
	}
	buf, err := head.Bytes()
	if err != nil {
		return nil, memview.View{}, err
	}
	rec := make(Record, len(l.Fields))
	for _, f := range l.Fields {
		b := buf[f.Offset : f.Offset+f.Size]
		if f.typ == nil {
			rec[f.Name] = b
			continue
		}
		val := reflect.New(f.typ).Elem()
		common.SetFixed(val, b, l.order)
		rec[f.Name] = val.Interface()
	}
	return rec, v.From(l.Size), nil
}

// DecodeAll reads back-to-back records until v is exhausted. Trailing
// bytes too short for a record are an error.
func (l *Layout) DecodeAll(v memview.View) ([]Record, error) {
	var out []Record
	for !v.Empty() {
		rec, rest, err := l.Decode(v)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
		v = rest
	}
	return out, nil
}
