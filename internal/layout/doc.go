// Package layout reads the raw elements of HDF5 datasets.
//
// A dataset stores its data in one of three layouts, each behind the
// [Layout] interface returned by [New]:
//
//   - [Compact]: the bytes live in the object header.
//   - [Contiguous]: one block of the file.
//   - [Chunked]: equally shaped chunks, possibly filtered, found through a
//     chunk index.
//
// Version 1 to 3 layout messages index chunks with a version 1 B-tree.
// Version 4 messages pick a single chunk, implicit (back to back) storage, a
// fixed array, an extensible array or a version 2 B-tree.
//
// ReadSlice visits only the storage overlapping the selection. Chunks
// missing from the index and unallocated contiguous blocks read as the
// dataset's fill value.
package layout
