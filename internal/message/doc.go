// Package message decodes the header messages stored in HDF5 object
// headers.
//
// [Parse] dispatches on the message type. Dataspace, datatype, data layout,
// filter pipeline, fill value, attribute, link, symbol table and
// continuation messages have decoders; any other type comes back as
// [Unknown] so callers can skip it.
//
// Field widths for addresses and lengths come from the [binary.Reader]
// passed in, which carries the sizes declared by the superblock.
package message
