package h5grove

import (
	"strconv"
	"strings"
)

// MemberKind tells an index member from a range member.
type MemberKind uint8

const (
	IndexMember MemberKind = iota
	RangeMember
)

// Member selects along one dimension: a single index, which drops the
// dimension, or a start:stop:step range, which keeps it.
type Member struct {
	Kind  MemberKind
	Index int

	Start, Stop, Step int
}

// Index returns an index member.
func Index(i int) Member {
	return Member{Kind: IndexMember, Index: i}
}

// Range returns a range member.
func Range(start, stop, step int) Member {
	return Member{Kind: RangeMember, Start: start, Stop: stop, Step: step}
}

// String renders m in slice syntax, e.g. "3" or "0:20:2". The step is
// omitted when it is 1.
func (m Member) String() string {
	if m.Kind == IndexMember {
		return strconv.Itoa(m.Index)
	}
	s := strconv.Itoa(m.Start) + ":" + strconv.Itoa(m.Stop)
	if m.Step != 1 {
		s += ":" + strconv.Itoa(m.Step)
	}
	return s
}

// Selection holds one member per selected dimension, leading dimensions
// first. Dimensions beyond its length are selected whole.
type Selection []Member

func (s Selection) String() string {
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}

// ParseSlice parses a comma-separated NumPy-style selection such as
// "2:5,:" or "3" against a dataset of the given shape and rank. Each member
// takes its default stop from its own dimension.
//
// A string without a comma is a single member for dimension 0.
func ParseSlice(shape []int, ndim int, s string) (Selection, error) {
	if len(shape) == 0 || ndim == 0 {
		return nil, sliceErrorf(s, "%s cannot be applied to a 0d dataset", s)
	}

	if !strings.Contains(s, ",") {
		m, err := ParseSliceMember(s, shape[0])
		if err != nil {
			return nil, err
		}
		return Selection{m}, nil
	}

	members := strings.Split(s, ",")
	if len(members) > ndim || len(members) > len(shape) {
		return nil, sliceErrorf(s, "%s is a %dd slice while the dataset is %dd", s, len(members), ndim)
	}

	sel := make(Selection, len(members))
	for i, member := range members {
		m, err := ParseSliceMember(member, shape[i])
		if err != nil {
			return nil, err
		}
		sel[i] = m
	}
	return sel, nil
}

// ParseSliceMember parses one member of a selection. Empty bounds default
// to 0, maxDim and 1.
func ParseSliceMember(member string, maxDim int) (Member, error) {
	if !strings.Contains(member, ":") {
		i, err := parseInt(member)
		if err != nil {
			return Member{}, &SliceError{Selection: member, Msg: member + " is not a valid index", Err: err}
		}
		return Index(i), nil
	}

	params := strings.Split(member, ":")
	if len(params) != 2 && len(params) != 3 {
		return Member{}, sliceErrorf(member, "%s is not a valid slice", member)
	}

	defaults := []int{0, maxDim, 1}
	values := make([]int, 3)
	values[2] = 1
	for i, p := range params {
		if p == "" {
			values[i] = defaults[i]
			continue
		}
		v, err := parseInt(p)
		if err != nil {
			return Member{}, &SliceError{Selection: member, Msg: member + " is not a valid slice", Err: err}
		}
		values[i] = v
	}
	return Range(values[0], values[1], values[2]), nil
}

// parseInt accepts surrounding spaces and a sign, like Python's int().
func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
