package memview

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"

	"github.com/rawbytedev/memview/internal/common"
)

// Byte orders accepted by the *Order variants. Unpack and Pack use
// HostOrder, matching As and AsSpan.
type ByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

var HostOrder ByteOrder = binary.NativeEndian

type fieldPlan struct {
	idx    int
	offset int
	size   int
}

// structPlan lays the exported fields of a struct out back to back, in
// declaration order, with no padding.
type structPlan struct {
	fields []fieldPlan
	size   int
}

type planCache struct {
	mu   sync.RWMutex
	plan map[reflect.Type]*structPlan
}

var plans = &planCache{plan: make(map[reflect.Type]*structPlan)}

func (c *planCache) getPlan(t reflect.Type) (*structPlan, error) {
	c.mu.RLock()
	if plan, ok := c.plan[t]; ok {
		c.mu.RUnlock()
		return plan, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if plan, ok := c.plan[t]; ok {
		return plan, nil
	}

	plan := &structPlan{}
	offset := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		size := common.TypeSize(sf.Type)
		if size < 0 {
			return nil, fmt.Errorf("%w: field %s.%s of type %s", ErrUnsupported, t.Name(), sf.Name, sf.Type)
		}
		plan.fields = append(plan.fields, fieldPlan{idx: i, offset: offset, size: size})
		offset += size
	}
	plan.size = offset

	c.plan[t] = plan
	return plan, nil
}

func structTarget(out any) (reflect.Value, *structPlan, error) {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, ErrNotStructPtr
	}
	dst := v.Elem()
	plan, err := plans.getPlan(dst.Type())
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return dst, plan, nil
}

// PackedSize returns the number of bytes Unpack consumes for a struct of
// out's type. out may be a struct or a pointer to one.
func PackedSize(out any) (int, error) {
	t := reflect.TypeOf(out)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return 0, ErrNotStruct
	}
	plan, err := plans.getPlan(t)
	if err != nil {
		return 0, err
	}
	return plan.size, nil
}

// Unpack decodes the exported fields of the struct pointed to by out from
// the start of v, packed in declaration order in host byte order. Fields
// must be fixed-size scalars, bools, or arrays of those.
func Unpack(v View, out any) error {
	_, err := unpackStruct(v, out, HostOrder)
	return err
}

// UnpackOrder is Unpack with an explicit byte order, for wire formats.
func UnpackOrder(v View, order ByteOrder, out any) error {
	_, err := unpackStruct(v, out, order)
	return err
}

// UnpackHead is Unpack followed by the rest of v after the decoded fields.
func UnpackHead(v View, out any) (View, error) {
	return UnpackHeadOrder(v, HostOrder, out)
}

func UnpackHeadOrder(v View, order ByteOrder, out any) (View, error) {
	n, err := unpackStruct(v, out, order)
	if err != nil {
		return View{}, err
	}
	return v.From(n), nil
}

func unpackStruct(v View, out any, order ByteOrder) (int, error) {
	dst, plan, err := structTarget(out)
	if err != nil {
		return 0, err
	}
	buf, err := v.Bytes()
	if err != nil {
		return 0, err
	}
	buf = buf[:plan.size]
	for _, field := range plan.fields {
		common.SetFixed(dst.Field(field.idx), buf[field.offset:field.offset+field.size], order)
	}
	return plan.size, nil
}

// UnpackValues decodes one packed value into each pointer, in order.
func UnpackValues(v View, ptrs ...any) error {
	targets := make([]reflect.Value, len(ptrs))
	offsets := make([]int, len(ptrs)+1)
	for i, p := range ptrs {
		rv := reflect.ValueOf(p)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return ErrUnsupported
		}
		size := common.TypeSize(rv.Elem().Type())
		if size < 0 {
			return ErrUnsupported
		}
		targets[i] = rv.Elem()
		offsets[i+1] = offsets[i] + size
	}
	buf, err := v.Bytes()
	if err != nil {
		return err
	}
	buf = buf[:offsets[len(ptrs)]]
	for i, dst := range targets {
		common.SetFixed(dst, buf[offsets[i]:offsets[i+1]], HostOrder)
	}
	return nil
}

// Pack appends the packed encoding of val, a struct or pointer to one,
// to dst. It is the inverse of Unpack.
func Pack(dst []byte, val any) ([]byte, error) {
	return PackOrder(dst, HostOrder, val)
}

func PackOrder(dst []byte, order ByteOrder, val any) ([]byte, error) {
	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return dst, ErrNotStruct
	}
	plan, err := plans.getPlan(v.Type())
	if err != nil {
		return dst, err
	}
	for _, field := range plan.fields {
		dst = common.AppendFixed(dst, v.Field(field.idx), order)
	}
	return dst, nil
}

// PackValues appends the packed encoding of each value to dst.
func PackValues(dst []byte, vals ...any) ([]byte, error) {
	for _, val := range vals {
		v := reflect.ValueOf(val)
		if !v.IsValid() || common.TypeSize(v.Type()) < 0 {
			return dst, ErrUnsupported
		}
		dst = common.AppendFixed(dst, v, HostOrder)
	}
	return dst, nil
}
