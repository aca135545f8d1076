package h5grove

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5grove/internal/fixture"
)

// sampleFile writes the fixture files into a fresh directory and returns
// the path of name within it.
func sampleFile(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := fixture.Sample(dir)
	require.NoError(t, err)
	return filepath.Join(dir, name)
}

func openContainer(t *testing.T, filename string) *FileContainer {
	t.Helper()
	c, err := OpenFile(sampleFile(t, filename))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// openBuilt writes f to a temporary file and opens it.
func openBuilt(t *testing.T, f *fixture.File) *FileContainer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "built.h5")
	require.NoError(t, f.Write(path))
	c, err := OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// float64s decodes every element of a in C order.
func float64s(t *testing.T, a *Array) []float64 {
	t.Helper()
	out := []float64{}
	require.NoError(t, a.each(func(off int) error {
		e, err := decodeElement(a.DType, a.Data[off:off+a.DType.Size])
		if err != nil {
			return err
		}
		out = append(out, e.float())
		return nil
	}))
	return out
}

// intArray returns a C-contiguous int32 array holding 0, 1, 2, ...
func intArray(t *testing.T, shape ...int) *Array {
	t.Helper()
	vals := make([]int32, numElements(shape))
	for i := range vals {
		vals[i] = int32(i)
	}
	a, err := AsArray(vals)
	require.NoError(t, err)
	a, err = a.Reshape(shape...)
	require.NoError(t, err)
	return a
}
