package h5grove

import (
	"bytes"
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

// Array is an N-dimensional view over a byte buffer. Strides are in bytes
// and may be negative; element (i0, i1, ...) starts at
// Offset + i0*Strides[0] + i1*Strides[1] + ...
type Array struct {
	DType   DType
	Shape   []int
	Strides []int
	Offset  int
	Data    []byte
}

// NewArray returns a C-contiguous array over data. data must hold exactly
// the elements of shape.
func NewArray(dt DType, shape []int, data []byte) (*Array, error) {
	dt = dt.normalized()
	n := numElements(shape)
	if len(data) != n*dt.Size {
		return nil, errors.Errorf("buffer of %d bytes does not hold %d %s elements", len(data), n, dt)
	}
	return &Array{
		DType:   dt,
		Shape:   append([]int{}, shape...),
		Strides: cStrides(dt.Size, shape),
		Data:    data,
	}, nil
}

func (a *Array) NDim() int { return len(a.Shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return numElements(a.Shape) }

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func cStrides(itemsize int, shape []int) []int {
	strides := make([]int, len(shape))
	s := itemsize
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		if shape[i] > 0 {
			s *= shape[i]
		}
	}
	return strides
}

// IsCContiguous reports whether the elements are laid out row-major without
// gaps. As in NumPy, strides of dimensions of size 1 are ignored and empty
// arrays are always contiguous.
func (a *Array) IsCContiguous() bool {
	if a.Size() == 0 {
		return true
	}
	expected := a.DType.Size
	for i := len(a.Shape) - 1; i >= 0; i-- {
		if a.Shape[i] == 1 {
			continue
		}
		if a.Strides[i] != expected {
			return false
		}
		expected *= a.Shape[i]
	}
	return true
}

// each calls fn with the byte offset of every element, in C order.
func (a *Array) each(fn func(off int) error) error {
	n := a.Size()
	if n == 0 {
		return nil
	}
	idx := make([]int, len(a.Shape))
	off := a.Offset
	for k := 0; k < n; k++ {
		if err := fn(off); err != nil {
			return err
		}
		for d := len(a.Shape) - 1; d >= 0; d-- {
			idx[d]++
			off += a.Strides[d]
			if idx[d] < a.Shape[d] {
				break
			}
			off -= idx[d] * a.Strides[d]
			idx[d] = 0
		}
	}
	return nil
}

// Bytes returns the elements in C order. The result aliases Data when the
// array is already C-contiguous.
func (a *Array) Bytes() []byte {
	n := a.Size() * a.DType.Size
	if a.IsCContiguous() {
		if n == 0 {
			return []byte{}
		}
		return a.Data[a.Offset : a.Offset+n]
	}
	out := make([]byte, 0, n)
	_ = a.each(func(off int) error {
		out = append(out, a.Data[off:off+a.DType.Size]...)
		return nil
	})
	return out
}

// Reshape returns an array with the same elements in C order and a new
// shape. It shares Data when the array is C-contiguous.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if numElements(shape) != a.Size() {
		return nil, errors.Errorf("cannot reshape array of size %d into shape %v", a.Size(), shape)
	}
	return NewArray(a.DType, shape, a.Bytes())
}

// Flatten returns a 1-d array of all elements in C order.
func (a *Array) Flatten() *Array {
	flat, _ := a.Reshape(a.Size())
	return flat
}

// Equal reports whether a and b have the same dtype, shape and elements.
// Layout is not compared.
func (a *Array) Equal(b *Array) bool {
	if a.DType.normalized() != b.DType.normalized() || len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// Astype returns a new C-contiguous array with elements converted to dt.
// Integer narrowing wraps, like NumPy's astype.
func (a *Array) Astype(dt DType) (*Array, error) {
	dt = dt.normalized()
	src := a.DType.normalized()
	out := make([]byte, a.Size()*dt.Size)

	switch {
	case src == dt:
		copy(out, a.Bytes())
	case src.Kind == dt.Kind && src.Size == dt.Size && dt.IsNumeric() && dt.Size <= 8 &&
		isExplicitOrder(src.Order) && isExplicitOrder(dt.Order):
		// Same encoding in the other byte order.
		copy(out, a.Bytes())
		swapBytes(out, dt.Size)
	default:
		pos := 0
		err := a.each(func(off int) error {
			e, err := decodeElement(src, a.Data[off:off+src.Size])
			if err != nil {
				return err
			}
			if err := encodeElement(dt, out[pos:pos+dt.Size], e); err != nil {
				return err
			}
			pos += dt.Size
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return NewArray(dt, a.Shape, out)
}

func isExplicitOrder(order byte) bool {
	return order == LittleEndian || order == BigEndian
}

func swapBytes(b []byte, size int) {
	if size <= 1 {
		return
	}
	for i := 0; i+size <= len(b); i += size {
		e := b[i : i+size]
		for l, r := 0, size-1; l < r; l, r = l+1, r-1 {
			e[l], e[r] = e[r], e[l]
		}
	}
}

// AsArray coerces v to an Array without copying where possible.
//
// *Array and Array values are returned as is. Flat slices of Go numeric
// types are viewed in place with the host byte order. Nested slices,
// scalars, bools and strings are packed into a new buffer.
func AsArray(v interface{}) (*Array, error) {
	switch x := v.(type) {
	case *Array:
		if x.DType.Order == 0 {
			y := *x
			y.DType = x.DType.normalized()
			return &y, nil
		}
		return x, nil
	case Array:
		x.DType = x.DType.normalized()
		return &x, nil
	case []int8:
		return sliceView(x, 'i')
	case []int16:
		return sliceView(x, 'i')
	case []int32:
		return sliceView(x, 'i')
	case []int64:
		return sliceView(x, 'i')
	case []int:
		return sliceView(x, 'i')
	case []uint8:
		return sliceView(x, 'u')
	case []uint16:
		return sliceView(x, 'u')
	case []uint32:
		return sliceView(x, 'u')
	case []uint64:
		return sliceView(x, 'u')
	case []uint:
		return sliceView(x, 'u')
	case []float32:
		return sliceView(x, 'f')
	case []float64:
		return sliceView(x, 'f')
	case []complex64:
		return sliceView(x, 'c')
	case []complex128:
		return sliceView(x, 'c')
	}
	return packValue(reflect.ValueOf(v))
}

type viewable interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64 | ~complex64 | ~complex128
}

func sliceView[T viewable](s []T, kind byte) (*Array, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	dt := NewDType(kind, size, '=')
	if len(s) == 0 {
		return NewArray(dt, []int{0}, []byte{})
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size)
	return NewArray(dt, []int{len(s)}, data)
}

// packValue copies a scalar or a rectangular nest of slices and arrays
// into a new C-contiguous buffer in host byte order. Elements of different
// Go types are promoted to one dtype that holds all of them.
func packValue(v reflect.Value) (*Array, error) {
	if !v.IsValid() {
		return nil, errors.New("cannot convert nil to an array")
	}

	var shape []int
	leaf := unwrap(v)
	for leaf.Kind() == reflect.Slice || leaf.Kind() == reflect.Array {
		shape = append(shape, leaf.Len())
		if leaf.Len() == 0 {
			break
		}
		leaf = unwrap(leaf.Index(0))
	}

	dt, err := promoteLeaves(v)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, numElements(shape)*dt.Size)
	var walk func(v reflect.Value, depth int) error
	walk = func(v reflect.Value, depth int) error {
		v = unwrap(v)
		if depth == len(shape) {
			b, err := packLeaf(v, dt)
			if err != nil {
				return err
			}
			out = append(out, b...)
			return nil
		}
		if (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) || v.Len() != shape[depth] {
			return errors.Errorf("cannot convert ragged %s to an array", v.Type())
		}
		for i := 0; i < v.Len(); i++ {
			if err := walk(v.Index(i), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(v, 0); err != nil {
		return nil, err
	}
	return NewArray(dt, shape, out)
}

func unwrap(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

// leafKinds accumulates the widest encoding seen for each element kind.
type leafKinds struct {
	leaves      int
	bools       bool
	strings     bool
	strWidth    int
	intSize     int
	uintSize    int
	floatSize   int
	complexSize int
	other       reflect.Type
}

func (k *leafKinds) add(v reflect.Value) {
	k.leaves++
	size := 0
	if v.IsValid() {
		size = int(v.Type().Size())
	}
	switch v.Kind() {
	case reflect.Bool:
		k.bools = true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		k.intSize = max(k.intSize, size)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		k.uintSize = max(k.uintSize, size)
	case reflect.Float32, reflect.Float64:
		k.floatSize = max(k.floatSize, size)
	case reflect.Complex64, reflect.Complex128:
		k.complexSize = max(k.complexSize, size)
	case reflect.String:
		k.strings = true
		k.strWidth = max(k.strWidth, len([]rune(v.String())))
	default:
		if k.other == nil {
			if v.IsValid() {
				k.other = v.Type()
			} else {
				k.other = reflect.TypeOf((*interface{})(nil)).Elem()
			}
		}
	}
}

// promoteLeaves picks the dtype for packed elements, following NumPy's
// promotion rules: bools give way to numbers, signed and unsigned integers
// meet in a wider signed integer, and any float or complex element makes
// the whole array float or complex. Strings become 'U' arrays sized for
// the longest string and never mix with other kinds.
func promoteLeaves(root reflect.Value) (DType, error) {
	var k leafKinds
	visitLeaves(root, k.add)
	if k.leaves == 0 {
		typ := root.Type()
		for typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array {
			typ = typ.Elem()
		}
		if typ.Kind() == reflect.Interface {
			return NewDType('f', 8, '='), nil
		}
		k.add(reflect.Zero(typ))
	}

	numeric := k.intSize > 0 || k.uintSize > 0 || k.floatSize > 0 || k.complexSize > 0
	switch {
	case k.other != nil:
		return DType{}, errors.Errorf("cannot convert %s elements to an array", k.other)
	case k.strings && (numeric || k.bools):
		return DType{}, errors.Errorf("mixed element types: strings and numbers in %s", root.Type())
	case k.strings:
		return NewDType('U', 4*max(k.strWidth, 1), '='), nil
	case k.complexSize > 0:
		size := k.complexSize
		if 2*k.floatSize > size || k.intSize > 0 || k.uintSize > 0 {
			size = 16
		}
		return NewDType('c', size, '='), nil
	case k.floatSize > 0:
		size := k.floatSize
		if k.intSize > 0 || k.uintSize > 0 {
			size = 8
		}
		return NewDType('f', size, '='), nil
	case k.intSize > 0 && k.uintSize > 0:
		// No signed integer holds every uint64.
		if k.uintSize >= 8 {
			return NewDType('f', 8, '='), nil
		}
		return NewDType('i', max(k.intSize, 2*k.uintSize), '='), nil
	case k.intSize > 0:
		return NewDType('i', k.intSize, '='), nil
	case k.uintSize > 0:
		return NewDType('u', k.uintSize, '='), nil
	}
	return NewDType('b', 1, NotApplicable), nil
}

func visitLeaves(v reflect.Value, fn func(reflect.Value)) {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			fn(reflect.Value{})
			return
		}
		visitLeaves(v.Elem(), fn)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			visitLeaves(v.Index(i), fn)
		}
	default:
		fn(v)
	}
}

func packLeaf(v reflect.Value, dt DType) ([]byte, error) {
	b := make([]byte, dt.Size)
	order := dt.ByteOrder()
	switch dt.Kind {
	case 'b':
		if v.Bool() {
			b[0] = 1
		}
		return b, nil
	case 'U':
		for i, r := range []rune(v.String()) {
			order.PutUint32(b[4*i:], uint32(r))
		}
		return b, nil
	case 'c':
		var c complex128
		if v.Kind() == reflect.Complex64 || v.Kind() == reflect.Complex128 {
			c = v.Complex()
		} else {
			e, err := leafElement(v)
			if err != nil {
				return nil, err
			}
			c = complex(e.float(), 0)
		}
		half := DType{Kind: 'f', Size: dt.Size / 2, Order: dt.Order}
		if err := encodeElement(half, b[:half.Size], element{kind: 'f', f: real(c)}); err != nil {
			return nil, err
		}
		return b, encodeElement(half, b[half.Size:], element{kind: 'f', f: imag(c)})
	}

	e, err := leafElement(v)
	if err != nil {
		return nil, err
	}
	return b, encodeElement(dt, b, e)
}

func leafElement(v reflect.Value) (element, error) {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return element{kind: 'u', u: 1}, nil
		}
		return element{kind: 'u'}, nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return element{kind: 'i', i: v.Int()}, nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return element{kind: 'u', u: v.Uint()}, nil
	case reflect.Float32, reflect.Float64:
		return element{kind: 'f', f: v.Float()}, nil
	}
	return element{}, errors.Errorf("cannot pack %s as a number", v.Type())
}

// SanitizeArray returns v as a C-contiguous array in the sanitized dtype
// of its elements.
//
// With copy unset, the input buffer is shared when neither dtype nor
// layout has to change. A conversion always copies.
func SanitizeArray(v interface{}, copy bool) (*Array, error) {
	a, err := AsArray(v)
	if err != nil {
		return nil, err
	}
	dt, err := SanitizeDtype(a.DType)
	if err != nil {
		return nil, err
	}
	if !copy && dt == a.DType && a.IsCContiguous() {
		return a, nil
	}
	return a.Astype(dt)
}
