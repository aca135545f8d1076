package h5grove

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5grove/hdf5"
)

func TestParseDType(t *testing.T) {
	tests := []struct {
		in   string
		want DType
	}{
		{"<f4", Float32},
		{"<f8", Float64},
		{">i8", DType{Kind: 'i', Size: 8, Order: BigEndian}},
		{"|u1", DType{Kind: 'u', Size: 1, Order: NotApplicable}},
		{"<u1", DType{Kind: 'u', Size: 1, Order: NotApplicable}},
		{">f2", DType{Kind: 'f', Size: 2, Order: BigEndian}},
		{"<c16", DType{Kind: 'c', Size: 16, Order: LittleEndian}},
		{"|S10", DType{Kind: 'S', Size: 10, Order: NotApplicable}},
		{">S10", DType{Kind: 'S', Size: 10, Order: NotApplicable}},
		{"|O", DType{Kind: 'O', Size: 8, Order: NotApplicable}},
		{"|b1", DType{Kind: 'b', Size: 1, Order: NotApplicable}},
		{"f8", DType{Kind: 'f', Size: 8, Order: NativeOrder()}},
		{"=i4", DType{Kind: 'i', Size: 4, Order: NativeOrder()}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "<", "<f", "x4", "<i3", "<f0", "<fz", "|b2"} {
		_, err := ParseDType(bad)
		assert.Error(t, err, bad)
	}
}

func TestDTypeString(t *testing.T) {
	for _, s := range []string{"<f4", ">i8", "|u1", "<c8", "|S3", "<U4", "|O", "|V12"} {
		dt, err := ParseDType(s)
		require.NoError(t, err)
		assert.Equal(t, s, dt.String())
	}
	assert.Equal(t, "invalid", DType{}.String())
}

func TestSanitizeDtype(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<i8", "<i4"},
		{">i8", "<i4"},
		{"<u8", "<u4"},
		{">u8", "<u4"},
		{">i4", "<i4"},
		{"<u4", "<u4"},
		{">i2", "<i2"},
		{"|i1", "|i1"},
		{"|u1", "|u1"},
		{"<f2", "<f4"},
		{">f2", "<f4"},
		{"<f4", "<f4"},
		{">f8", "<f8"},
		{"<f16", "<f8"},
		{"<f12", "<f8"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			in, err := ParseDType(tt.in)
			require.NoError(t, err)
			got, err := SanitizeDtype(in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())

			again, err := SanitizeDtype(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestSanitizeDtypeUnsupported(t *testing.T) {
	for _, s := range []string{"<c8", "<c16", "|b1", "|S3", "<U4", "|O", "|V4"} {
		t.Run(s, func(t *testing.T) {
			dt, err := ParseDType(s)
			require.NoError(t, err)

			_, err = SanitizeDtype(dt)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedDtype))

			var dtErr *DtypeError
			require.True(t, errors.As(err, &dtErr))
			assert.Equal(t, dt, dtErr.DType)
		})
	}
}

func TestDatatypeDType(t *testing.T) {
	tests := []struct {
		name string
		in   hdf5.Datatype
		want string
	}{
		{"int64 be", hdf5.Datatype{Class: hdf5.ClassInteger, Size: 8, Signed: true, BigEndian: true}, ">i8"},
		{"uint8", hdf5.Datatype{Class: hdf5.ClassInteger, Size: 1}, "|u1"},
		{"float32", hdf5.Datatype{Class: hdf5.ClassFloat, Size: 4}, "<f4"},
		{"fixed string", hdf5.Datatype{Class: hdf5.ClassString, Size: 5}, "|S5"},
		{"vlen string", hdf5.Datatype{Class: hdf5.ClassVarLen, Size: 16, VarLenString: true}, "|O"},
		{"compound", hdf5.Datatype{Class: hdf5.ClassCompound, Size: 12}, "|V12"},
		{"enum", hdf5.Datatype{Class: hdf5.ClassEnum, Size: 1, Signed: true}, "|i1"},
		{"bitfield", hdf5.Datatype{Class: hdf5.ClassBitfield, Size: 2, BigEndian: true}, ">u2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DatatypeDType(tt.in).String())
		})
	}
}
