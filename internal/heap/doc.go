// Package heap reads the two HDF5 heaps.
//
// A local heap ("HEAP") belongs to one old-style group and holds its
// member names as NUL-terminated strings addressed by offset. A global
// heap collection ("GCOL") holds numbered objects shared by the file,
// such as the values of variable-length strings, which datasets and
// attributes reference by [GlobalHeapID]:
//
//	id, err := heap.ParseGlobalHeapID(ref, offsetSize)
//	gh, err := heap.ReadGlobalHeap(r, id.CollectionAddress)
//	value, err := gh.GetObject(uint16(id.ObjectIndex))
package heap
