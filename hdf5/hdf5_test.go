package hdf5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/robert-malhotra/h5grove/internal/fixture"
)

// sampleFile writes the fixture files into a fresh directory and returns
// the path of name within it.
func sampleFile(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := fixture.Sample(dir); err != nil {
		t.Fatalf("writing fixtures: %v", err)
	}
	return filepath.Join(dir, name)
}

// libraryFile returns a file written by testdata/generate.py, skipping the
// test when it has not been generated.
func libraryFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("..", "testdata", name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("%s not found; run 'python3 testdata/generate.py' to create it", name)
	}
	return path
}

func openTestdata(t *testing.T, filename string) *File {
	t.Helper()
	path := sampleFile(t, filename)
	if filename == "links_earliest.h5" {
		path = libraryFile(t, filename)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", filename, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestOpenInvalidHDF5Signature(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty file", []byte{}},
		{"random bytes", []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}},
		{"almost valid signature", []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, 'X'}},
		{"text file", []byte("This is not an HDF5 file")},
		{"binary garbage", bytes.Repeat([]byte{0xFF}, 1024)},
		{"signature only", []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "invalid.h5")
			if err := os.WriteFile(path, tt.content, 0o644); err != nil {
				t.Fatal(err)
			}

			if _, err := Open(path); err == nil {
				t.Error("expected error for invalid HDF5 file")
			}
		})
	}
}

func TestOpenNonExistentFile(t *testing.T) {
	_, err := Open("/nonexistent/path/to/file.h5")
	if err == nil {
		t.Fatal("expected error for non-existent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestOpenDirectory(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("expected error when opening directory as HDF5 file")
	}
}

func TestFileName(t *testing.T) {
	f := openTestdata(t, "links.h5")

	if f.Name() != "links.h5" {
		t.Errorf("Name() = %q, want %q", f.Name(), "links.h5")
	}
	if f.Root().Path() != "/" || f.Root().Name() != "/" {
		t.Errorf("root path/name = %q/%q, want /", f.Root().Path(), f.Root().Name())
	}
}

func TestLinkTypes(t *testing.T) {
	f := openTestdata(t, "links.h5")

	tests := []struct {
		path     string
		linkType LinkType
		target   string
		file     string
	}{
		{"/entry", HardLink, "", ""},
		{"/entry/image", HardLink, "", ""},
		{"/soft", SoftLink, "/entry/image", ""},
		{"/dangling", SoftLink, "/missing", ""},
		{"/ext", ExternalLink, "/data", "target.h5"},
		{"/ext_missing", ExternalLink, "/data", "missing.h5"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			link, err := f.Link(tt.path)
			if err != nil {
				t.Fatalf("Link(%q) failed: %v", tt.path, err)
			}
			if link.Type != tt.linkType {
				t.Errorf("type = %v, want %v", link.Type, tt.linkType)
			}
			if link.Target != tt.target {
				t.Errorf("target = %q, want %q", link.Target, tt.target)
			}
			if link.File != tt.file {
				t.Errorf("file = %q, want %q", link.File, tt.file)
			}
			if link.Path != tt.path {
				t.Errorf("path = %q, want %q", link.Path, tt.path)
			}
		})
	}
}

func TestLinkNotFound(t *testing.T) {
	f := openTestdata(t, "links.h5")

	for _, path := range []string{"/nope", "/entry/nope", "/nope/deeper"} {
		if _, err := f.Link(path); !errors.Is(err, ErrNotFound) {
			t.Errorf("Link(%q) error = %v, want ErrNotFound", path, err)
		}
	}

	if _, err := f.Link("/"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Link(/) error = %v, want ErrInvalidPath", err)
	}
}

func TestLinkThroughIntermediateLink(t *testing.T) {
	f := openTestdata(t, "links.h5")

	// /soft_group points at /entry, so its children are reachable through it.
	link, err := f.Link("/soft_group/image")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if link.Type != HardLink {
		t.Errorf("type = %v, want hard", link.Type)
	}
}

func TestObjectFollowsLinks(t *testing.T) {
	f := openTestdata(t, "links.h5")

	obj, err := f.Object("/soft")
	if err != nil {
		t.Fatalf("Object(/soft) failed: %v", err)
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		t.Fatalf("expected *Dataset, got %T", obj)
	}
	if shape := ds.Shape(); len(shape) != 2 || shape[0] != 4 || shape[1] != 5 {
		t.Errorf("shape = %v, want [4 5]", shape)
	}

	obj, err = f.Object("/ext")
	if err != nil {
		t.Fatalf("Object(/ext) failed: %v", err)
	}
	ext, ok := obj.(*Dataset)
	if !ok {
		t.Fatalf("expected *Dataset, got %T", obj)
	}
	if ext.File().Name() != "target.h5" {
		t.Errorf("external dataset file = %q, want target.h5", ext.File().Name())
	}
	raw, err := ext.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw failed: %v", err)
	}
	if !bytes.Equal(raw, fixture.Ints(fixture.Int32, 1, 2, 3)) {
		t.Errorf("external data = %v, want [1 2 3] as <i4", raw)
	}
}

func TestObjectDanglingLinks(t *testing.T) {
	f := openTestdata(t, "links.h5")

	if _, err := f.Object("/dangling"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Object(/dangling) error = %v, want ErrNotFound", err)
	}
	if _, err := f.Object("/ext_missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Object(/ext_missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestDatasetDatatype(t *testing.T) {
	f := openTestdata(t, "links.h5")

	tests := []struct {
		path string
		want Datatype
	}{
		{"/entry/image", Datatype{Class: ClassFloat, Size: 8}},
		{"/entry/counts", Datatype{Class: ClassInteger, Size: 8, Signed: true, BigEndian: true}},
		{"/entry/scalar", Datatype{Class: ClassFloat, Size: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ds, err := f.OpenDataset(tt.path)
			if err != nil {
				t.Fatalf("OpenDataset failed: %v", err)
			}
			if got := ds.Datatype(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Datatype() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChunksAndFilters(t *testing.T) {
	f := openTestdata(t, "links.h5")

	ds, err := f.OpenDataset("/entry/chunked")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	chunks := ds.Chunks()
	if len(chunks) != 1 || chunks[0] != 10 {
		t.Errorf("Chunks() = %v, want [10]", chunks)
	}
	want := []Filter{{ID: 2, Name: "shuffle"}, {ID: 1, Name: "deflate"}}
	if filters := ds.Filters(); !reflect.DeepEqual(filters, want) {
		t.Errorf("Filters() = %v, want %v", filters, want)
	}

	image, err := f.OpenDataset("/entry/image")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	if image.Chunks() != nil || image.Filters() != nil {
		t.Errorf("contiguous dataset reported chunks %v filters %v", image.Chunks(), image.Filters())
	}
}

func TestReadSliceRaw(t *testing.T) {
	f := openTestdata(t, "links.h5")

	ds, err := f.OpenDataset("/entry/image")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}

	raw, err := ds.ReadSliceRaw([]uint64{1, 2}, []uint64{2, 3})
	if err != nil {
		t.Fatalf("ReadSliceRaw failed: %v", err)
	}
	if len(raw) != 2*3*8 {
		t.Errorf("len(raw) = %d, want %d", len(raw), 2*3*8)
	}

	if _, err := ds.ReadSliceRaw([]uint64{0}, []uint64{1}); err == nil {
		t.Error("expected rank mismatch error")
	}
}

func TestReadSliceBTreeV2(t *testing.T) {
	f := openTestdata(t, "links.h5")

	ds, err := f.OpenDataset("/entry/grid")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	if chunks := ds.Chunks(); len(chunks) != 2 || chunks[0] != 4 || chunks[1] != 4 {
		t.Errorf("Chunks() = %v, want [4 4]", chunks)
	}

	// Rows 3-4, columns 5-8 straddle four chunks.
	raw, err := ds.ReadSliceRaw([]uint64{3, 5}, []uint64{2, 4})
	if err != nil {
		t.Fatalf("ReadSliceRaw failed: %v", err)
	}
	want := []int16{35, 36, 37, 38, 45, 46, 47, 48}
	if len(raw) != len(want)*2 {
		t.Fatalf("len(raw) = %d, want %d", len(raw), len(want)*2)
	}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(raw[2*i:])); got != w {
			t.Errorf("element %d = %d, want %d", i, got, w)
		}
	}
}

func TestV1SoftLinks(t *testing.T) {
	f := openTestdata(t, "links_earliest.h5")

	link, err := f.Link("/soft")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if link.Type != SoftLink || link.Target != "/entry/image" {
		t.Errorf("link = %+v, want soft link to /entry/image", link)
	}

	if _, err := f.OpenDataset("/soft"); err != nil {
		t.Errorf("OpenDataset via v1 soft link failed: %v", err)
	}
}

func TestOperationsAfterClose(t *testing.T) {
	f, err := Open(sampleFile(t, "links.h5"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	f.Close()
	if err := f.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}

	if _, err := f.Link("/entry"); !errors.Is(err, ErrClosed) {
		t.Errorf("Link after close: %v, want ErrClosed", err)
	}
	if _, err := f.Object("/entry"); !errors.Is(err, ErrClosed) {
		t.Errorf("Object after close: %v, want ErrClosed", err)
	}
}

func TestMembersKeepStorageOrder(t *testing.T) {
	f := openTestdata(t, "links.h5")

	names, err := f.Root().Members()
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	want := []string{"entry", "soft", "soft_group", "dangling", "ext", "ext_missing", "ext_badkey"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Members() = %v, want %v", names, want)
	}
}

func TestAttributeStrings(t *testing.T) {
	f := openTestdata(t, "links.h5")

	a := f.Root().Attr("NX_class")
	if a == nil {
		t.Fatal("root has no NX_class attribute")
	}
	if dt := a.Datatype(); dt.Class != ClassVarLen || !dt.VarLenString {
		t.Errorf("Datatype() = %+v, want variable-length string", dt)
	}
	if a.Shape() != nil || a.NumElements() != 1 {
		t.Errorf("shape %v with %d elements, want scalar", a.Shape(), a.NumElements())
	}
	strs, err := a.Strings()
	if err != nil {
		t.Fatalf("Strings failed: %v", err)
	}
	if len(strs) != 1 || strs[0] != "NXroot" {
		t.Errorf("Strings() = %q, want [NXroot]", strs)
	}

	image, err := f.OpenDataset("/entry/image")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	if got := image.Attrs(); !reflect.DeepEqual(got, []string{"units", "scale"}) {
		t.Errorf("Attrs() = %v, want [units scale]", got)
	}
	if _, err := image.Attr("scale").Strings(); err == nil {
		t.Error("expected error decoding a float attribute as strings")
	}
	raw, err := image.Attr("scale").Raw()
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	if !bytes.Equal(raw, fixture.Floats(fixture.Float32.BigEndian(), 1.5, 2.5)) {
		t.Errorf("Raw() = %v", raw)
	}
	if image.Attr("nope") != nil {
		t.Error("expected nil for a missing attribute")
	}
}

func TestCompoundAttributeType(t *testing.T) {
	f := openTestdata(t, "links.h5")

	ds, err := f.OpenDataset("/entry/scalar")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	dt := ds.Attr("origin").Datatype()
	want := []Member{
		{Name: "x", Offset: 0, Type: Datatype{Class: ClassInteger, Size: 4, Signed: true}},
		{Name: "y", Offset: 4, Type: Datatype{Class: ClassFloat, Size: 8}},
		{Name: "tag", Offset: 12, Type: Datatype{Class: ClassString, Size: 2}},
	}
	if dt.Class != ClassCompound || dt.Size != 14 || !reflect.DeepEqual(dt.Members, want) {
		t.Errorf("Datatype() = %+v", dt)
	}
}

func TestTrimString(t *testing.T) {
	tests := []struct {
		in          string
		spacePadded bool
		want        string
	}{
		{"abc\x00\x00", false, "abc"},
		{"abc", false, "abc"},
		{"ab  ", true, "ab"},
		{"ab  ", false, "ab  "},
		{"\x00", false, ""},
	}
	for _, tt := range tests {
		if got := TrimString([]byte(tt.in), tt.spacePadded); got != tt.want {
			t.Errorf("TrimString(%q, %v) = %q, want %q", tt.in, tt.spacePadded, got, tt.want)
		}
	}
}

func TestReadSingleFilteredChunk(t *testing.T) {
	f := openTestdata(t, "links.h5")

	ds, err := f.OpenDataset("/entry/mask")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	if filters := ds.Filters(); len(filters) != 1 || filters[0].Name != "deflate" {
		t.Errorf("Filters() = %v, want deflate", filters)
	}

	raw, err := ds.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw failed: %v", err)
	}
	want := []byte{0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2}
	if !bytes.Equal(raw, want) {
		t.Errorf("ReadRaw() = %v, want %v", raw, want)
	}

	col, err := ds.ReadSliceRaw([]uint64{0, 1}, []uint64{3, 1})
	if err != nil {
		t.Fatalf("ReadSliceRaw failed: %v", err)
	}
	if !bytes.Equal(col, []byte{1, 2, 0}) {
		t.Errorf("column = %v, want [1 2 0]", col)
	}
}

func TestReadFixedArrayChunks(t *testing.T) {
	f := openTestdata(t, "links.h5")

	ds, err := f.OpenDataset("/entry/chunked")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	raw, err := ds.ReadSliceRaw([]uint64{8}, []uint64{4})
	if err != nil {
		t.Fatalf("ReadSliceRaw failed: %v", err)
	}
	want := fixture.Floats(fixture.Float32, 8.0/99, 9.0/99, 10.0/99, 11.0/99)
	if !bytes.Equal(raw, want) {
		t.Errorf("ReadSliceRaw() = %v, want %v", raw, want)
	}
}

func TestReadUnallocatedFill(t *testing.T) {
	b := fixture.New()
	b.Root.Dataset("filled", &fixture.Dataset{Type: fixture.Int16, Shape: []uint64{2, 3}, Fill: fixture.Ints(fixture.Int16, -1)})
	b.Root.Dataset("zeros", &fixture.Dataset{Type: fixture.Float64, Shape: []uint64{2}})
	path := filepath.Join(t.TempDir(), "fill.h5")
	if err := b.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	tests := []struct {
		path string
		want []byte
	}{
		{"/filled", fixture.Ints(fixture.Int16, -1, -1, -1, -1, -1, -1)},
		{"/zeros", make([]byte, 16)},
	}
	for _, tt := range tests {
		ds, err := f.OpenDataset(tt.path)
		if err != nil {
			t.Fatalf("OpenDataset(%s) failed: %v", tt.path, err)
		}
		raw, err := ds.ReadRaw()
		if err != nil {
			t.Fatalf("ReadRaw(%s) failed: %v", tt.path, err)
		}
		if !bytes.Equal(raw, tt.want) {
			t.Errorf("ReadRaw(%s) = %v, want %v", tt.path, raw, tt.want)
		}
	}

	ds, _ := f.OpenDataset("/filled")
	row, err := ds.ReadSliceRaw([]uint64{1, 1}, []uint64{1, 2})
	if err != nil {
		t.Fatalf("ReadSliceRaw failed: %v", err)
	}
	if !bytes.Equal(row, fixture.Ints(fixture.Int16, -1, -1)) {
		t.Errorf("ReadSliceRaw() = %v, want two fill values", row)
	}
}

func writeFixture(t *testing.T, b *fixture.File, userBlock int) *File {
	t.Helper()
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "built.h5")
	if err := os.WriteFile(path, append(make([]byte, userBlock), data...), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRelativeSoftLinks(t *testing.T) {
	b := fixture.New()
	entry := b.Root.Group("entry")
	entry.Dataset("data", &fixture.Dataset{Type: fixture.Int32, Shape: []uint64{3}, Data: fixture.Ints(fixture.Int32, 7, 8, 9)})
	entry.SoftLink("alias", "data")
	sub := entry.Group("sub")
	sub.SoftLink("same", "./leaf")
	sub.Dataset("leaf", &fixture.Dataset{Type: fixture.Int32, Shape: []uint64{3}, Data: fixture.Ints(fixture.Int32, 7, 8, 9)})
	entry.SoftLink("nested", "sub/same")
	f := writeFixture(t, b, 0)

	for _, p := range []string{"/entry/alias", "/entry/nested", "/entry/sub/same"} {
		ds, err := f.OpenDataset(p)
		if err != nil {
			t.Fatalf("OpenDataset(%s) failed: %v", p, err)
		}
		if ds.Path() != p {
			t.Errorf("Path() = %q, want %q", ds.Path(), p)
		}
		raw, err := ds.ReadRaw()
		if err != nil {
			t.Fatalf("ReadRaw(%s) failed: %v", p, err)
		}
		if !bytes.Equal(raw, fixture.Ints(fixture.Int32, 7, 8, 9)) {
			t.Errorf("ReadRaw(%s) = %v", p, raw)
		}
	}
}

func TestSoftLinkCycle(t *testing.T) {
	b := fixture.New()
	b.Root.SoftLink("a", "/b")
	b.Root.SoftLink("b", "/a")
	b.Root.SoftLink("self", "self/x")
	f := writeFixture(t, b, 0)

	for _, p := range []string{"/a", "/self"} {
		if _, err := f.Object(p); err == nil {
			t.Errorf("Object(%s) succeeded on a link cycle", p)
		}
	}
	link, err := f.Link("/a")
	if err != nil {
		t.Fatalf("Link(/a) failed: %v", err)
	}
	if link.Type != SoftLink || link.Target != "/b" {
		t.Errorf("Link(/a) = %+v", link)
	}
}

func TestOpenWithUserBlock(t *testing.T) {
	b := fixture.New()
	b.Root.Group("entry").Dataset("x", &fixture.Dataset{Type: fixture.Int16, Shape: []uint64{2}, Data: fixture.Ints(fixture.Int16, 5, -5)})
	b.Root.SoftLink("alias", "/entry/x")
	f := writeFixture(t, b, 512)

	ds, err := f.OpenDataset("/alias")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	raw, err := ds.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw failed: %v", err)
	}
	if !bytes.Equal(raw, fixture.Ints(fixture.Int16, 5, -5)) {
		t.Errorf("ReadRaw() = %v, want [5 -5]", raw)
	}
}
