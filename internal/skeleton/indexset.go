package skeleton

import (
	"fmt"
	"math/bits"
)

// IndexSet is a set of body keypoint indices stored as a bitmask. It is a
// plain value: copies never share state.
type IndexSet uint32

const allMask IndexSet = 1<<NumBody - 1

// IndexSetOf builds a set from indices; duplicates collapse. Any index
// outside 0..17 is an error.
func IndexSetOf(indices ...int) (IndexSet, error) {
	var s IndexSet
	for _, i := range indices {
		if !ValidBodyIndex(i) {
			return 0, fmt.Errorf("body index %d out of range 0..%d", i, NumBody-1)
		}
		s |= 1 << uint(i)
	}
	return s, nil
}

// mustSet is used for the compiled-in tables only.
func mustSet(indices ...int) IndexSet {
	s, err := IndexSetOf(indices...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s IndexSet) Has(i int) bool {
	return ValidBodyIndex(i) && s&(1<<uint(i)) != 0
}

// With returns s plus index i; out-of-range indices are ignored.
func (s IndexSet) With(i int) IndexSet {
	if !ValidBodyIndex(i) {
		return s
	}
	return s | 1<<uint(i)
}

func (s IndexSet) Union(other IndexSet) IndexSet {
	return s | other
}

func (s IndexSet) Len() int {
	return bits.OnesCount32(uint32(s & allMask))
}

func (s IndexSet) IsEmpty() bool {
	return s&allMask == 0
}

// Intersects reports whether the two sets share at least one index.
func (s IndexSet) Intersects(other IndexSet) bool {
	return s&other&allMask != 0
}

// Indices returns the members in ascending order.
func (s IndexSet) Indices() []int {
	out := make([]int, 0, s.Len())
	for i := range NumBody {
		if s.Has(i) {
			out = append(out, i)
		}
	}
	return out
}
