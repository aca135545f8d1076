package h5grove

// axis is a selection member resolved against a dimension size: the
// first selected position, the number of positions and the step.
type axis struct {
	drop  bool
	start int
	n     int
	step  int
}

// resolve evaluates s against shape with NumPy indexing rules.
func (s Selection) resolve(shape []int) ([]axis, error) {
	if len(s) > len(shape) {
		return nil, sliceErrorf(s.String(), "too many indices: array is %d-dimensional, but %d were indexed", len(shape), len(s))
	}

	axes := make([]axis, len(shape))
	for i, dim := range shape {
		if i >= len(s) {
			axes[i] = axis{start: 0, n: dim, step: 1}
			continue
		}

		m := s[i]
		if m.Kind == IndexMember {
			idx := m.Index
			if idx < 0 {
				idx += dim
			}
			if idx < 0 || idx >= dim {
				return nil, sliceErrorf(s.String(), "index %d is out of bounds for axis %d with size %d", m.Index, i, dim)
			}
			axes[i] = axis{drop: true, start: idx, n: 1, step: 1}
			continue
		}

		if m.Step == 0 {
			return nil, sliceErrorf(s.String(), "slice step cannot be zero")
		}
		start, n := indices(m.Start, m.Stop, m.Step, dim)
		axes[i] = axis{start: start, n: n, step: m.Step}
	}
	return axes, nil
}

// indices clamps start and stop like Python's slice.indices and returns
// the first position and the number of selected positions.
func indices(start, stop, step, length int) (int, int) {
	lower, upper := 0, length
	if step < 0 {
		lower, upper = -1, length-1
	}
	clamp := func(v int) int {
		if v < 0 {
			v += length
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}
	start, stop = clamp(start), clamp(stop)

	switch {
	case step > 0 && start < stop:
		return start, (stop-start-1)/step + 1
	case step < 0 && start > stop:
		return start, (start-stop-1)/(-step) + 1
	}
	return start, 0
}

// view builds the strided view of a described by axes. Dropped axes do not
// appear in the result.
func view(a *Array, axes []axis) *Array {
	out := &Array{DType: a.DType, Offset: a.Offset, Data: a.Data}
	for i, ax := range axes {
		if ax.n > 0 {
			out.Offset += ax.start * a.Strides[i]
		}
		if ax.drop {
			continue
		}
		out.Shape = append(out.Shape, ax.n)
		out.Strides = append(out.Strides, a.Strides[i]*ax.step)
	}
	if out.Shape == nil {
		out.Shape, out.Strides = []int{}, []int{}
	}
	if out.Size() == 0 {
		out.Offset = 0
	}
	return out
}

// Apply selects from a with NumPy semantics and returns a view sharing its
// buffer. Index members drop their dimension; dimensions past the end of s
// are kept whole.
func (s Selection) Apply(a *Array) (*Array, error) {
	axes, err := s.resolve(a.Shape)
	if err != nil {
		return nil, err
	}
	return view(a, axes), nil
}

// hyperslab returns the bounding box of axes as start and count, and the
// axes rebased onto that box.
func hyperslab(axes []axis) (start, count []uint64, local []axis) {
	start = make([]uint64, len(axes))
	count = make([]uint64, len(axes))
	local = make([]axis, len(axes))
	for i, ax := range axes {
		local[i] = ax
		if ax.n == 0 {
			local[i].start = 0
			continue
		}
		lo, hi := ax.start, ax.start+(ax.n-1)*ax.step
		if hi < lo {
			lo, hi = hi, lo
		}
		start[i] = uint64(lo)
		count[i] = uint64(hi - lo + 1)
		local[i].start = ax.start - lo
	}
	return start, count, local
}
