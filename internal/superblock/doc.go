// Package superblock locates and decodes the HDF5 superblock.
//
// The signature is searched at offset 0 and then at 512, 1024 and so on,
// since a user block may come first. Versions 0 and 1 point at the root
// group through a symbol table entry whose scratch pad may cache the root
// B-tree and local heap. Versions 2 and 3 point at the root object header
// directly and carry a checksum.
//
//	sb, err := superblock.Read(f)
//	r := binary.NewReader(f, sb.ReaderConfig())
package superblock
