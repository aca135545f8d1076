package filter

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/message"
)

// Filter undoes one stage of a pipeline.
type Filter interface {
	ID() uint16
	Decode(input []byte) ([]byte, error)
}

// decoders holds the filters this package can undo, keyed by filter ID.
var decoders = map[uint16]func(clientData []uint32) Filter{
	message.FilterDeflate:    func([]uint32) Filter { return NewDeflate() },
	message.FilterShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	message.FilterFletcher32: func([]uint32) Filter { return NewFletcher32() },
}

var names = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
	message.FilterLZF:         "lzf",
	message.FilterBlosc:       "blosc",
	message.FilterBZip2:       "bzip2",
	message.FilterLZ4:         "lz4",
}

// Name returns the name the HDF5 library registers a filter under, or
// "filter-<id>" for filters it does not know.
func Name(id uint16) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("filter-%d", id)
}

// New returns the decoder for info. An optional filter without a decoder
// yields a nil Filter and no error.
func New(info message.FilterInfo) (Filter, error) {
	if mk, ok := decoders[info.ID]; ok {
		return mk(info.ClientData), nil
	}
	if info.IsOptional() {
		return nil, nil
	}
	return nil, errors.Errorf("%s filter (ID %d) is not supported", Name(info.ID), info.ID)
}
