package model

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"sort"
)

// BranchSet is a set of branch labels such as "L12:b0".
type BranchSet map[string]struct{}

// NewBranchSet builds a set from labels.
func NewBranchSet(labels ...string) BranchSet {
	s := make(BranchSet, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}

	return s
}

// Len returns the number of labels.
func (s BranchSet) Len() int {
	return len(s)
}

// Has reports whether label is in the set.
func (s BranchSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// Add inserts a label.
func (s BranchSet) Add(label string) {
	s[label] = struct{}{}
}

// Copy returns an independent copy. A nil set copies to an empty set.
func (s BranchSet) Copy() BranchSet {
	c := make(BranchSet, len(s))
	for l := range s {
		c[l] = struct{}{}
	}

	return c
}

// Merge adds every label of other to s.
func (s BranchSet) Merge(other BranchSet) {
	for l := range other {
		s[l] = struct{}{}
	}
}

// Diff returns the labels of s that are not in other.
func (s BranchSet) Diff(other BranchSet) BranchSet {
	d := make(BranchSet)
	for l := range s {
		if !other.Has(l) {
			d[l] = struct{}{}
		}
	}

	return d
}

// Intersect returns the labels present in both sets.
func (s BranchSet) Intersect(other BranchSet) BranchSet {
	d := make(BranchSet)
	for l := range s {
		if other.Has(l) {
			d[l] = struct{}{}
		}
	}

	return d
}

// Sorted returns the labels in lexical order.
func (s BranchSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}

	sort.Strings(out)

	return out
}

// MarshalJSON encodes the set as a sorted label list.
func (s BranchSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a label list.
func (s *BranchSet) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}

	*s = NewBranchSet(labels...)

	return nil
}

// MarshalYAML encodes the set as a sorted label list.
func (s BranchSet) MarshalYAML() (interface{}, error) {
	return s.Sorted(), nil
}

// GobEncode encodes the set as a sorted label list. gob cannot encode the
// empty struct values of the underlying map.
func (s BranchSet) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.Sorted()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GobDecode decodes a label list written by GobEncode.
func (s *BranchSet) GobDecode(data []byte) error {
	var labels []string
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&labels); err != nil {
		return err
	}

	*s = NewBranchSet(labels...)

	return nil
}
