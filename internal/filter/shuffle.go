package filter

import (
	"github.com/robert-malhotra/h5grove/internal/message"
)

// Shuffle regroups bytes that the shuffle filter split into planes: the
// first byte of every element, then the second byte, and so on.
type Shuffle struct {
	size int
}

// NewShuffle reads the element size from the first client data value.
func NewShuffle(clientData []uint32) *Shuffle {
	s := &Shuffle{size: 1}
	if len(clientData) > 0 && clientData[0] > 1 {
		s.size = int(clientData[0])
	}
	return s
}

func (*Shuffle) ID() uint16 { return message.FilterShuffle }

// Decode interleaves the planes back into elements. Bytes past the last
// whole element were never shuffled and are copied as they are.
func (s *Shuffle) Decode(input []byte) ([]byte, error) {
	n := len(input) / s.size
	if s.size == 1 || n < 2 {
		return input, nil
	}
	out := make([]byte, len(input))
	for plane := 0; plane < s.size; plane++ {
		src := input[plane*n : (plane+1)*n]
		for e, b := range src {
			out[e*s.size+plane] = b
		}
	}
	copy(out[n*s.size:], input[n*s.size:])
	return out, nil
}
