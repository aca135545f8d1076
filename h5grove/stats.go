package h5grove

import (
	"math"

	"github.com/pkg/errors"
)

// statsKeys are the fields of a DataStats result, in output order.
var statsKeys = []string{"strict_positive_min", "positive_min", "min", "max", "mean", "std"}

// DataStats summarizes the values of a dataset selection: the smallest
// value above zero, the smallest value not below zero, minimum, maximum,
// mean and population standard deviation.
//
// NaN and infinite values are left out. A field with no qualifying value is
// nil, so an empty selection yields all nils. Extrema keep the integer type
// of integer datasets; mean and std are float64.
func DataStats(e Entity, selection string) (Dict, error) {
	arr, err := ReadData(e, DataOptions{Selection: selection})
	if err != nil {
		return nil, err
	}
	if !arr.DType.IsNumeric() {
		return nil, &DtypeError{DType: arr.DType}
	}

	var acc statsAccumulator
	err = arr.each(func(off int) error {
		v, err := decodeElement(arr.DType, arr.Data[off:off+arr.DType.Size])
		if err != nil {
			return err
		}
		acc.add(v)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "computing statistics of %s", e.Path())
	}
	return acc.dict(), nil
}

type statsAccumulator struct {
	n                 int
	min, max          element
	positive, strict  element
	hasPos, hasStrict bool
	mean, m2          float64
}

func (s *statsAccumulator) add(v element) {
	x := v.float()
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return
	}

	if s.n == 0 || v.less(s.min) {
		s.min = v
	}
	if s.n == 0 || s.max.less(v) {
		s.max = v
	}
	if x >= 0 && (!s.hasPos || v.less(s.positive)) {
		s.positive, s.hasPos = v, true
	}
	if x > 0 && (!s.hasStrict || v.less(s.strict)) {
		s.strict, s.hasStrict = v, true
	}

	// Welford's running mean and sum of squared deviations.
	s.n++
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

func (s *statsAccumulator) dict() Dict {
	values := make([]interface{}, len(statsKeys))
	if s.hasStrict {
		values[0] = s.strict.value()
	}
	if s.hasPos {
		values[1] = s.positive.value()
	}
	if s.n > 0 {
		values[2] = s.min.value()
		values[3] = s.max.value()
		values[4] = s.mean
		values[5] = math.Sqrt(s.m2 / float64(s.n))
	}

	d := make(Dict, len(statsKeys))
	for i, key := range statsKeys {
		d[i] = P(key, values[i])
	}
	return d
}

// less orders two elements of the same kind.
func (e element) less(o element) bool {
	switch e.kind {
	case 'i':
		return e.i < o.i
	case 'u':
		return e.u < o.u
	}
	return e.f < o.f
}

// value returns the element as the matching Go number.
func (e element) value() interface{} {
	switch e.kind {
	case 'i':
		return e.i
	case 'u':
		return e.u
	}
	return e.f
}
