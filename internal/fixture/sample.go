package fixture

import (
	"path/filepath"
)

// Sample writes links.h5 and target.h5 into dir and returns the path of
// links.h5. The layout mirrors testdata/generate.py:
//
//	/                       NX_class, default
//	/entry                  NX_class
//	/entry/image            <f8 (4, 5) 0..19, contiguous; units, scale
//	/entry/counts           >i8 (10,) 0..9, contiguous
//	/entry/scalar           <f4 scalar 42, compact; origin (compound)
//	/entry/chunked          <f4 (100,) 0..1, chunks (10,), shuffle+deflate
//	/entry/grid             <i2 (6, 10) 0..59, chunks (4, 4), deflate, v2 B-tree
//	/entry/mask             |u1 (3, 4) i%3, one deflated chunk
//	/soft                   -> /entry/image
//	/soft_group             -> /entry
//	/dangling               -> /missing
//	/ext                    -> target.h5:/data
//	/ext_missing            -> missing.h5:/data
//	/ext_badkey             -> target.h5:/nope
//
// target.h5 holds /data, <i4 (3,) 1, 2, 3. Members and attributes are added
// out of name order.
func Sample(dir string) (string, error) {
	target := New()
	target.Root.Dataset("data", &Dataset{Type: Int32, Shape: []uint64{3}, Data: Ints(Int32, 1, 2, 3)})
	if err := target.Write(filepath.Join(dir, "target.h5")); err != nil {
		return "", err
	}

	f := New()
	f.Root.Attr(StringAttr("NX_class", "NXroot"))
	f.Root.Attr(StringAttr("default", "entry"))

	entry := f.Root.Group("entry")
	entry.Attr(StringAttr("NX_class", "NXentry"))

	entry.Dataset("image", &Dataset{
		Type:  Float64,
		Shape: []uint64{4, 5},
		Data:  Range(Float64, 20),
		Attrs: []Attr{
			StringAttr("units", "counts"),
			{Name: "scale", Type: Float32.BigEndian(), Shape: []uint64{2}, Data: Floats(Float32.BigEndian(), 1.5, 2.5)},
		},
	})
	entry.Dataset("counts", &Dataset{Type: Int64.BigEndian(), Shape: []uint64{10}, Data: Range(Int64.BigEndian(), 10)})

	origin := Compound(14,
		Member{Name: "x", Offset: 0, Type: Int32},
		Member{Name: "y", Offset: 4, Type: Float64},
		Member{Name: "tag", Offset: 12, Type: String(2)},
	)
	originData := append(Ints(Int32, 1), Floats(Float64, 2.5)...)
	entry.Dataset("scalar", &Dataset{
		Type:   Float32,
		Data:   Floats(Float32, 42),
		Layout: Compact,
		Attrs:  []Attr{{Name: "origin", Type: origin, Data: append(originData, 'a', 'b')}},
	})

	linspace := make([]float64, 100)
	for i := range linspace {
		linspace[i] = float64(i) / 99
	}
	entry.Dataset("chunked", &Dataset{
		Type:    Float32,
		Shape:   []uint64{100},
		Data:    Floats(Float32, linspace...),
		Layout:  Chunked,
		Chunks:  []uint64{10},
		Shuffle: true,
		Deflate: true,
	})
	entry.Dataset("grid", &Dataset{
		Type:    Int16,
		Shape:   []uint64{6, 10},
		Data:    Range(Int16, 60),
		Layout:  Chunked,
		Chunks:  []uint64{4, 4},
		Index:   BTreeV2Index,
		Deflate: true,
	})
	mask := make([]int64, 12)
	for i := range mask {
		mask[i] = int64(i % 3)
	}
	entry.Dataset("mask", &Dataset{
		Type:    Uint8,
		Shape:   []uint64{3, 4},
		Data:    Ints(Uint8, mask...),
		Layout:  Chunked,
		Chunks:  []uint64{3, 4},
		Deflate: true,
	})

	f.Root.SoftLink("soft", "/entry/image")
	f.Root.SoftLink("soft_group", "/entry")
	f.Root.SoftLink("dangling", "/missing")
	f.Root.ExternalLink("ext", "target.h5", "/data")
	f.Root.ExternalLink("ext_missing", "missing.h5", "/data")
	f.Root.ExternalLink("ext_badkey", "target.h5", "/nope")

	path := filepath.Join(dir, "links.h5")
	if err := f.Write(path); err != nil {
		return "", err
	}
	return path, nil
}
