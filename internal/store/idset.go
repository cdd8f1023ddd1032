package store

import (
	"encoding/json"
	"sort"
)

// IDSet is a set of post ids. On disk it is a sorted JSON array.
type IDSet map[uint]struct{}

func NewIDSet(ids ...uint) IDSet { return DecodeIDSet(ids) }

func (s IDSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id uint)    { s[id] = struct{}{} }
func (s IDSet) Remove(id uint) { delete(s, id) }

// Set adds or removes id.
func (s IDSet) Set(id uint, member bool) {
	if member {
		s.Add(id)
	} else {
		s.Remove(id)
	}
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// EncodeIDSet returns the members in ascending order, never nil.
func EncodeIDSet(s IDSet) []uint {
	out := make([]uint, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DecodeIDSet builds a set from an array. Duplicates collapse.
func DecodeIDSet(ids []uint) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeIDSet(s))
}

func (s *IDSet) UnmarshalJSON(raw []byte) error {
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return err
	}
	*s = DecodeIDSet(ids)
	return nil
}
