package h5grove

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/robert-malhotra/h5grove/hdf5"
)

// Attr is the part of an HDF5 attribute its metadata is read from.
// *hdf5.Attribute satisfies it.
type Attr interface {
	Name() string
	Shape() []uint64
	Datatype() hdf5.Datatype
}

// AttrMeta describes an attribute without its value.
type AttrMeta struct {
	Dtype string `json:"dtype"`
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
}

// AttrMetadata returns the dtype string, name and shape of attr. Scalar
// attributes have an empty shape.
func AttrMetadata(attr Attr) AttrMeta {
	return AttrMeta{
		Dtype: DatatypeDType(attr.Datatype()).String(),
		Name:  attr.Name(),
		Shape: intShape(attr.Shape()),
	}
}

func intShape(dims []uint64) []int {
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	return shape
}

// Pair is one key/value entry of a Dict.
type Pair struct {
	Key   string
	Value interface{}
}

// P is shorthand for Pair{key, value}.
func P(key string, value interface{}) Pair {
	return Pair{Key: key, Value: value}
}

// Dict is an ordered string-keyed dictionary. It marshals to a JSON object
// with keys in order.
type Dict []Pair

// SortedDict builds a Dict with keys in ascending order. When a key is
// given more than once, the value given last wins and keeps the key's
// slot. Values are never compared, so the outcome does not depend on
// their types.
func SortedDict(pairs ...Pair) Dict {
	d := make(Dict, 0, len(pairs))
	index := make(map[string]int, len(pairs))
	for _, p := range pairs {
		if i, ok := index[p.Key]; ok {
			d[i].Value = p.Value
			continue
		}
		index[p.Key] = len(d)
		d = append(d, p)
	}
	sort.SliceStable(d, func(i, j int) bool { return d[i].Key < d[j].Key })
	return d
}

// Get returns the value stored under key.
func (d Dict) Get(key string) (interface{}, bool) {
	for _, p := range d {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (d Dict) Keys() []string {
	keys := make([]string, len(d))
	for i, p := range d {
		keys[i] = p.Key
	}
	return keys
}

func (d Dict) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
