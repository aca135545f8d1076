package filter

import (
	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/message"
)

// Pipeline decodes chunks through the filters of one dataset.
type Pipeline struct {
	filters []Filter
	// stage maps a filter of the pipeline to its index in the message, so
	// chunk filter masks still line up when optional filters are dropped.
	stage []int
}

// NewPipeline builds the decoders for fp. A nil message gives an empty
// pipeline.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for i, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		p.filters = append(p.filters, f)
		p.stage = append(p.stage, i)
	}
	return p, nil
}

// Decode runs the filters last to first. Bit i of mask skips the i-th
// filter of the message.
func (p *Pipeline) Decode(input []byte, mask uint32) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		if mask&(1<<uint(p.stage[i])) != 0 {
			continue
		}
		out, err := p.filters[i].Decode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "%s filter", Name(p.filters[i].ID()))
		}
		data = out
	}
	return data, nil
}

// Empty reports whether the pipeline has nothing to decode.
func (p *Pipeline) Empty() bool {
	return len(p.filters) == 0
}
