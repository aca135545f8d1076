// Package filter decodes chunk data written through an HDF5 filter pipeline.
//
// Chunks of a filtered dataset are stored after running each filter of the
// pipeline message in order. Reading undoes them last to first:
//
//	p, err := filter.NewPipeline(pipelineMsg)
//	raw, err := p.Decode(stored, chunkFilterMask)
//
// Deflate, shuffle and fletcher32 are decoded here. Other filters are
// named by [Name] so metadata can report them, and [New] rejects them
// unless the message marks them optional.
package filter
