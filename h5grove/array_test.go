package h5grove

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsArrayViewsSlices(t *testing.T) {
	in := []float64{1, 2, 3}
	a, err := AsArray(in)
	require.NoError(t, err)

	assert.Equal(t, NewDType('f', 8, '='), a.DType)
	assert.Equal(t, []int{3}, a.Shape)
	assert.Same(t, (*byte)(unsafe.Pointer(&in[0])), &a.Data[0])

	in[1] = 42
	assert.Equal(t, []float64{1, 42, 3}, float64s(t, a))
}

func TestAsArrayPacksValues(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		dtype DType
		shape []int
		want  []float64
	}{
		{"nested", [][]int64{{1, 2, 3}, {4, 5, 6}}, NewDType('i', 8, '='), []int{2, 3}, []float64{1, 2, 3, 4, 5, 6}},
		{"go array", [2][2]uint16{{1, 2}, {3, 4}}, NewDType('u', 2, '='), []int{2, 2}, []float64{1, 2, 3, 4}},
		{"interfaces", []interface{}{[]float32{1, 2}, []float32{3, 4}}, NewDType('f', 4, '='), []int{2, 2}, []float64{1, 2, 3, 4}},
		{"scalar", float32(2.5), NewDType('f', 4, '='), []int{}, []float64{2.5}},
		{"int scalar", 7, NewDType('i', 8, '='), []int{}, []float64{7}},
		{"empty", [][]int32{}, NewDType('i', 4, '='), []int{0}, []float64{}},
		{"bools", []bool{true, false}, NewDType('b', 1, '|'), []int{2}, []float64{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := AsArray(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.dtype, a.DType)
			assert.Equal(t, tt.shape, a.Shape)
			assert.Equal(t, tt.want, float64s(t, a))
		})
	}
}

func TestAsArrayPromotesMixedLeaves(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		dtype DType
		want  []float64
	}{
		{"int then float", []interface{}{1, 2.5}, NewDType('f', 8, '='), []float64{1, 2.5}},
		{"float then int", []interface{}{2.5, 1}, NewDType('f', 8, '='), []float64{2.5, 1}},
		{"nested int and float", []interface{}{[]interface{}{1, 2}, []interface{}{3, 4.75}}, NewDType('f', 8, '='), []float64{1, 2, 3, 4.75}},
		{"float32 and int8", []interface{}{float32(0.5), int8(-3)}, NewDType('f', 8, '='), []float64{0.5, -3}},
		{"float32 and float64", []interface{}{float32(0.5), 1e300}, NewDType('f', 8, '='), []float64{0.5, 1e300}},
		{"int8 and int32", []interface{}{int8(1), int32(70000)}, NewDType('i', 4, '='), []float64{1, 70000}},
		{"int8 and uint8", []interface{}{int8(-1), uint8(255)}, NewDType('i', 2, '='), []float64{-1, 255}},
		{"int16 and uint32", []interface{}{int16(-1), uint32(math.MaxUint32)}, NewDType('i', 8, '='), []float64{-1, math.MaxUint32}},
		{"int and uint64", []interface{}{-1, uint64(1 << 40)}, NewDType('f', 8, '='), []float64{-1, 1 << 40}},
		{"bool and int", []interface{}{true, int16(300)}, NewDType('i', 2, '='), []float64{1, 300}},
		{"uint widths", []interface{}{uint8(1), uint16(513)}, NewDType('u', 2, '='), []float64{1, 513}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := AsArray(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.dtype, a.DType)
			assert.Equal(t, tt.want, float64s(t, a))
		})
	}
}

func TestSanitizeArrayMixedLeaves(t *testing.T) {
	got, err := SanitizeArray([]interface{}{1, 2.5}, true)
	require.NoError(t, err)
	assert.Equal(t, Float64, got.DType)
	assert.Equal(t, []float64{1, 2.5}, float64s(t, got))
}

func TestAsArrayComplexPromotion(t *testing.T) {
	a, err := AsArray([]interface{}{complex64(1 + 2i), 3})
	require.NoError(t, err)
	assert.Equal(t, NewDType('c', 16, '='), a.DType)
	order := a.DType.ByteOrder()
	b := a.Bytes()
	assert.Equal(t, 1.0, math.Float64frombits(order.Uint64(b[0:])))
	assert.Equal(t, 2.0, math.Float64frombits(order.Uint64(b[8:])))
	assert.Equal(t, 3.0, math.Float64frombits(order.Uint64(b[16:])))
	assert.Equal(t, 0.0, math.Float64frombits(order.Uint64(b[24:])))
}

func TestAsArrayErrors(t *testing.T) {
	for name, in := range map[string]interface{}{
		"nil":             nil,
		"ragged":          [][]int{{1}, {2, 3}},
		"mixed":           []interface{}{1, "a"},
		"bool and string": []interface{}{"a", true},
		"nil leaf":        []interface{}{1, nil},
		"map":             map[string]int{"a": 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := AsArray(in)
			assert.Error(t, err)
		})
	}
}

func TestSanitizeArray(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		dtype DType
		want  []float64
	}{
		{"int64 narrows", []int64{1, -2, 1<<32 + 5}, Int32, []float64{1, -2, 5}},
		{"uint64 narrows", []uint64{1, 1<<32 + 7}, Uint32, []float64{1, 7}},
		{"int overflow wraps", []int64{math.MaxInt32 + 1}, Int32, []float64{math.MinInt32}},
		{"float32 kept", []float32{0.5, -1.25}, Float32, []float64{0.5, -1.25}},
		{"float64 kept", []float64{0.1, 1e300}, Float64, []float64{0.1, 1e300}},
		{"int32 kept", []int32{-7, 7}, Int32, []float64{-7, 7}},
		{"nested", [][]uint32{{1, 2}, {3, 4}}, Uint32, []float64{1, 2, 3, 4}},
		{"uint8 passes through", []uint8{0, 255}, DType{Kind: 'u', Size: 1, Order: NotApplicable}, []float64{0, 255}},
		{"int16 becomes little-endian", []int16{-300}, DType{Kind: 'i', Size: 2, Order: LittleEndian}, []float64{-300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, copy := range []bool{true, false} {
				got, err := SanitizeArray(tt.in, copy)
				require.NoError(t, err)
				assert.Equal(t, tt.dtype, got.DType)
				assert.True(t, got.IsCContiguous())
				assert.Equal(t, tt.want, float64s(t, got))
			}
		})
	}
}

func TestSanitizeArrayByteOrder(t *testing.T) {
	raw := make([]byte, 16)
	binary.BigEndian.PutUint64(raw[0:], math.Float64bits(1.5))
	binary.BigEndian.PutUint64(raw[8:], math.Float64bits(-3))
	in, err := NewArray(DType{Kind: 'f', Size: 8, Order: BigEndian}, []int{2}, raw)
	require.NoError(t, err)

	got, err := SanitizeArray(in, false)
	require.NoError(t, err)
	assert.Equal(t, Float64, got.DType)
	assert.Equal(t, math.Float64bits(1.5), binary.LittleEndian.Uint64(got.Bytes()[0:]))
	assert.Equal(t, []float64{1.5, -3}, float64s(t, got))

	// The input buffer is left alone.
	assert.Equal(t, math.Float64bits(1.5), binary.BigEndian.Uint64(raw))
}

func TestSanitizeArrayMissingOrder(t *testing.T) {
	raw := make([]byte, 8)
	NewDType('f', 8, '=').ByteOrder().PutUint64(raw, math.Float64bits(1.5))
	in, err := NewArray(DType{Kind: 'f', Size: 8}, []int{1}, raw)
	require.NoError(t, err)
	assert.Equal(t, NativeOrder(), in.DType.Order)

	got, err := SanitizeArray(in, true)
	require.NoError(t, err)
	assert.Equal(t, Float64, got.DType)
	assert.Equal(t, []float64{1.5}, float64s(t, got))

	// A literal Array with no order is read in host order as well.
	lit := Array{DType: DType{Kind: 'i', Size: 4}, Shape: []int{1}, Strides: []int{4}, Data: make([]byte, 4)}
	NewDType('i', 4, '=').ByteOrder().PutUint32(lit.Data, 7)
	got, err = SanitizeArray(lit, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, float64s(t, got))
}

func TestSanitizeArrayHalfFloats(t *testing.T) {
	raw := []byte{0x00, 0x3c, 0x00, 0xc0, 0xff, 0x7b, 0x00, 0x7c, 0x01, 0x00}
	in, err := NewArray(DType{Kind: 'f', Size: 2, Order: LittleEndian}, []int{5}, raw)
	require.NoError(t, err)

	got, err := SanitizeArray(in, true)
	require.NoError(t, err)
	assert.Equal(t, Float32, got.DType)
	assert.Equal(t, []float64{1, -2, 65504, math.Inf(1), math.Ldexp(1, -24)}, float64s(t, got))
}

func TestExtendedToFloat64(t *testing.T) {
	le := func(mant uint64, se uint16, size int) []byte {
		b := make([]byte, size)
		binary.LittleEndian.PutUint64(b, mant)
		binary.LittleEndian.PutUint16(b[8:], se)
		return b
	}
	assert.Equal(t, 1.0, extendedToFloat64(le(1<<63, 0x3fff, 16), binary.LittleEndian))
	assert.Equal(t, -2.0, extendedToFloat64(le(1<<63, 0xc000, 12), binary.LittleEndian))
	assert.Equal(t, 0.75, extendedToFloat64(le(3<<62, 0x3ffe, 10), binary.LittleEndian))
	assert.True(t, math.IsInf(extendedToFloat64(le(1<<63, 0x7fff, 16), binary.LittleEndian), 1))
	assert.True(t, math.IsNaN(extendedToFloat64(le(3<<62, 0x7fff, 16), binary.LittleEndian)))

	be := make([]byte, 16)
	binary.BigEndian.PutUint16(be, 0x3fff)
	binary.BigEndian.PutUint64(be[2:], 1<<63)
	assert.Equal(t, 1.0, extendedToFloat64(be, binary.BigEndian))

	in, err := NewArray(DType{Kind: 'f', Size: 16, Order: LittleEndian}, []int{1}, le(1<<63, 0x4000, 16))
	require.NoError(t, err)
	got, err := SanitizeArray(in, false)
	require.NoError(t, err)
	assert.Equal(t, Float64, got.DType)
	assert.Equal(t, []float64{2}, float64s(t, got))
}

func TestSanitizeArrayNoCopy(t *testing.T) {
	if NativeOrder() != LittleEndian {
		t.Skip("host slices are big-endian and always converted")
	}

	in := []float32{1, 2, 3}
	shared, err := SanitizeArray(in, false)
	require.NoError(t, err)
	assert.Same(t, (*byte)(unsafe.Pointer(&in[0])), &shared.Data[0])

	copied, err := SanitizeArray(in, true)
	require.NoError(t, err)
	assert.NotSame(t, (*byte)(unsafe.Pointer(&in[0])), &copied.Data[0])
	assert.True(t, shared.Equal(copied))

	// A conversion always copies.
	wide := []int64{1, 2}
	narrowed, err := SanitizeArray(wide, false)
	require.NoError(t, err)
	assert.Equal(t, 8, len(narrowed.Data))
}

func TestSanitizeArrayLayout(t *testing.T) {
	// Transposed view of a 2x3 array.
	a := intArray(t, 2, 3)
	tr := &Array{DType: a.DType, Shape: []int{3, 2}, Strides: []int{4, 12}, Data: a.Data}
	require.False(t, tr.IsCContiguous())

	got, err := SanitizeArray(tr, false)
	require.NoError(t, err)
	assert.True(t, got.IsCContiguous())
	assert.Equal(t, []int{3, 2}, got.Shape)
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, float64s(t, got))
}

func TestSanitizeArrayUnsupported(t *testing.T) {
	for name, in := range map[string]interface{}{
		"complex64":  []complex64{1 + 2i},
		"complex128": []complex128{1},
		"strings":    []string{"a", "bc"},
		"bools":      []bool{true},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := SanitizeArray(in, true)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedDtype))
		})
	}
}

func TestSanitizeArrayIdempotent(t *testing.T) {
	inputs := []interface{}{
		[]int64{1, -1, 1 << 40},
		[]uint16{1, 2},
		[][]float32{{1, 2}, {3, 4}},
		[]float64{math.Pi},
		int8(-3),
	}
	for _, in := range inputs {
		once, err := SanitizeArray(in, true)
		require.NoError(t, err)
		twice, err := SanitizeArray(once, true)
		require.NoError(t, err)
		assert.True(t, once.Equal(twice), "%T", in)

		same, err := SanitizeArray(once, false)
		require.NoError(t, err)
		assert.Same(t, once, same)
	}
}

func TestArrayReshape(t *testing.T) {
	a := intArray(t, 2, 3)
	b, err := a.Reshape(3, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 4}, b.Strides)
	assert.Equal(t, float64s(t, a), float64s(t, b))

	_, err = a.Reshape(4, 2)
	assert.Error(t, err)

	flat := a.Flatten()
	assert.Equal(t, []int{6}, flat.Shape)
}

func TestIsCContiguous(t *testing.T) {
	tests := []struct {
		name    string
		shape   []int
		strides []int
		want    bool
	}{
		{"row major", []int{2, 3}, []int{12, 4}, true},
		{"column major", []int{2, 3}, []int{4, 8}, false},
		{"unit dim ignores stride", []int{1, 3}, []int{999, 4}, true},
		{"gap", []int{3}, []int{8}, false},
		{"empty", []int{0, 3}, []int{0, 0}, true},
		{"scalar", []int{}, []int{}, true},
		{"reversed", []int{3}, []int{-4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Array{DType: Int32, Shape: tt.shape, Strides: tt.strides}
			assert.Equal(t, tt.want, a.IsCContiguous())
		})
	}
}
