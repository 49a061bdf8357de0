package transform

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPersonIndex matches every *InvalidPersonIndexError.
	ErrInvalidPersonIndex = errors.New("invalid person index")
	// ErrInvalidOffsets matches every *InvalidOffsetSequenceError.
	ErrInvalidOffsets = errors.New("invalid offset sequence")
	// ErrInvalidPolicy is returned for an unrecognised mismatch policy name.
	ErrInvalidPolicy = errors.New("invalid mismatch policy")
)

// InvalidPersonIndexError is returned for indices below -1, and in strict
// mode for an index that does not exist in a frame.
type InvalidPersonIndexError struct {
	Index  int
	Frame  int
	People int
}

func (e *InvalidPersonIndexError) Error() string {
	if e.Index < AllPeople {
		return fmt.Sprintf("person index %d is invalid, use -1 for all people", e.Index)
	}
	return fmt.Sprintf("frame %d: person index %d out of range (%d people)", e.Frame, e.Index, e.People)
}

func (e *InvalidPersonIndexError) Is(target error) bool {
	return target == ErrInvalidPersonIndex
}

// InvalidOffsetSequenceError is returned when loop or repeat is asked to
// stretch an empty offset list.
type InvalidOffsetSequenceError struct {
	Axis   string
	Policy MismatchPolicy
}

func (e *InvalidOffsetSequenceError) Error() string {
	return fmt.Sprintf("%s offsets: policy %q needs at least one value", e.Axis, e.Policy)
}

func (e *InvalidOffsetSequenceError) Is(target error) bool {
	return target == ErrInvalidOffsets
}
