package models

import (
	"encoding/json"
	"sort"
)

// Default reserved wildcard ids. A preference set containing the wildcard
// for an axis matches any value on that axis.
const (
	DefaultGradeWildcardID   int64 = 9
	DefaultSubjectWildcardID int64 = 8
)

// Wildcards names the reserved wildcard id per preference axis.
type Wildcards struct {
	Grade   int64
	Subject int64
}

// DefaultWildcards returns the stock wildcard ids.
func DefaultWildcards() Wildcards {
	return Wildcards{Grade: DefaultGradeWildcardID, Subject: DefaultSubjectWildcardID}
}

// IDSet is an unordered set of catalog ids.
type IDSet map[int64]struct{}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...int64) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Empty reports whether the set has no members.
func (s IDSet) Empty() bool {
	return len(s) == 0
}

// Intersects reports whether the two sets share at least one id.
func (s IDSet) Intersects(other IDSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if large.Has(id) {
			return true
		}
	}
	return false
}

// Slice returns the members in ascending order.
func (s IDSet) Slice() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON renders the set as a sorted array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON accepts an array of ids.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// PreferenceSet groups the grade, subject and site preferences of a staff member.
type PreferenceSet struct {
	Grades   IDSet `json:"grade_ids"`
	Subjects IDSet `json:"subject_ids"`
	Sites    IDSet `json:"site_ids"`
}
