package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// MismatchPolicy decides how an offset list is mapped onto a sequence with a
// different number of frames.
type MismatchPolicy string

const (
	// Truncate offsets the first min(frames, len) frames; later frames get 0.
	Truncate MismatchPolicy = "truncate"
	// Loop cycles through the list: frame i gets list[i mod len].
	Loop MismatchPolicy = "loop"
	// Repeat holds the last value: frame i gets list[min(i, len-1)].
	Repeat MismatchPolicy = "repeat"
)

// Policies lists every accepted policy.
var Policies = []MismatchPolicy{Truncate, Loop, Repeat}

// ParsePolicy maps a name to a policy. The empty string is Truncate.
func ParsePolicy(name string) (MismatchPolicy, error) {
	if name == "" {
		return Truncate, nil
	}
	p := MismatchPolicy(name)
	if !slices.Contains(Policies, p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
	}
	return p, nil
}

// Offsets is either a single value applied to every frame or a list with one
// value per frame. The zero value is the scalar 0.
type Offsets struct {
	values []float64
	list   bool
}

// Scalar returns offsets applying v to every frame.
func Scalar(v float64) Offsets {
	return Offsets{values: []float64{v}}
}

// List returns per-frame offsets.
func List(vs ...float64) Offsets {
	return Offsets{values: slices.Clone(vs), list: true}
}

// IsList reports whether o was given as a list.
func (o Offsets) IsList() bool { return o.list }

// Values returns a copy of the configured values.
func (o Offsets) Values() []float64 {
	if !o.list && len(o.values) == 0 {
		return []float64{0}
	}
	return slices.Clone(o.values)
}

// Validate checks that the policy can produce a value for every frame.
func (o Offsets) Validate(axis string, policy MismatchPolicy) error {
	if o.list && len(o.values) == 0 && policy != Truncate {
		return &InvalidOffsetSequenceError{Axis: axis, Policy: policy}
	}
	return nil
}

// At returns the offset for frame i. It depends only on i and the
// configuration, so frames can be resolved independently. Validate must have
// passed for the policy.
func (o Offsets) At(i int, policy MismatchPolicy) float64 {
	n := len(o.values)
	switch n {
	case 0:
		return 0
	case 1:
		return o.values[0]
	}

	switch policy {
	case Loop:
		return o.values[i%n]
	case Repeat:
		return o.values[min(i, n-1)]
	default:
		if i < n {
			return o.values[i]
		}
		return 0
	}
}

// ForFrames resolves the offset of every frame in a sequence of n frames.
func (o Offsets) ForFrames(n int, axis string, policy MismatchPolicy) ([]float64, error) {
	if err := o.Validate(axis, policy); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = o.At(i, policy)
	}
	return out, nil
}

// UnmarshalJSON accepts a number or an array of numbers.
func (o *Offsets) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = Offsets{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var vs []float64
		if err := json.Unmarshal(data, &vs); err != nil {
			return fmt.Errorf("offsets: %w", err)
		}
		*o = List(vs...)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("offsets: %w", err)
	}
	*o = Scalar(v)
	return nil
}

func (o Offsets) MarshalJSON() ([]byte, error) {
	if o.list {
		if o.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(o.values)
	}
	return json.Marshal(o.At(0, Truncate))
}
