package filter

import (
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"

	ibinary "github.com/robert-malhotra/h5grove/internal/binary"
	"github.com/robert-malhotra/h5grove/internal/message"
)

// Fletcher32 checks and strips the checksum trailing each chunk.
type Fletcher32 struct{}

func NewFletcher32() *Fletcher32 {
	return &Fletcher32{}
}

func (*Fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (*Fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, errors.Errorf("%d bytes cannot hold a checksum", len(input))
	}
	data, tail := input[:len(input)-4], input[len(input)-4:]
	sum := ibinary.Fletcher32(data)
	// Files from HDF5 1.6.0 to 1.6.2 store the checksum byte-reversed.
	if stored := binary.LittleEndian.Uint32(tail); stored != sum && bits.ReverseBytes32(stored) != sum {
		return nil, errors.Errorf("checksum mismatch: stored %#08x, computed %#08x", stored, sum)
	}
	return data, nil
}
