// Package object reads HDF5 object headers.
//
// A header is a list of messages describing one group, dataset or named
// datatype. Version 1 headers follow the 16 byte prefix used by files with
// superblock version 0 or 1. Version 2 headers start with "OHDR" and end
// each chunk with a checksum, which [Read] verifies. Messages found in
// continuation blocks are read in place of the continuation message:
//
//	h, err := object.Read(r, addr)
//	space := h.Dataspace()
//	attrs := h.GetMessages(message.TypeAttribute)
package object
