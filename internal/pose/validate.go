package pose

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

// Part names a keypoint set on a person.
type Part string

const (
	PartBody      Part = "body"
	PartFace      Part = "face"
	PartLeftHand  Part = "left_hand"
	PartRightHand Part = "right_hand"
)

// ExpectedLens returns the array lengths accepted for a part. Faces come in
// the 70-point OpenPose layout or the 68-point layout without pupils.
func ExpectedLens(part Part) []int {
	switch part {
	case PartBody:
		return []int{skeleton.NumBody * skeleton.Stride}
	case PartFace:
		return []int{skeleton.NumFace * skeleton.Stride, skeleton.NumFaceNoPupils * skeleton.Stride}
	case PartLeftHand, PartRightHand:
		return []int{skeleton.NumHand * skeleton.Stride}
	}
	return nil
}

// ErrShapeMismatch matches every *ShapeMismatchError.
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeMismatchError reports a keypoint array whose length breaks the fixed
// layout of its part.
type ShapeMismatchError struct {
	Frame  int
	Person int
	Part   Part
	Got    int
	// Want lists every accepted length.
	Want []int
}

func (e *ShapeMismatchError) Error() string {
	want := make([]string, len(e.Want))
	for i, n := range e.Want {
		want[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("frame %d person %d: %s has %d values, want %s",
		e.Frame, e.Person, e.Part, e.Got, strings.Join(want, " or "))
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// Parts returns the person's keypoint sets keyed by part.
func (p *Person) Parts() map[Part]*Keypoints {
	return map[Part]*Keypoints{
		PartBody:      &p.Body,
		PartFace:      &p.Face,
		PartLeftHand:  &p.LeftHand,
		PartRightHand: &p.RightHand,
	}
}

// Validate checks every present keypoint array against its accepted lengths.
// Absent and empty arrays are allowed. The first violation is returned.
func Validate(seq Sequence) error {
	for fi := range seq {
		for pi := range seq[fi].People {
			if err := validatePerson(&seq[fi].People[pi], fi, pi); err != nil {
				return err
			}
		}
	}
	return nil
}

func validatePerson(p *Person, frame, person int) error {
	parts := p.Parts()
	for _, part := range []Part{PartBody, PartFace, PartLeftHand, PartRightHand} {
		kp := *parts[part]
		if len(kp) == 0 {
			continue
		}
		if want := ExpectedLens(part); !slices.Contains(want, len(kp)) {
			return &ShapeMismatchError{Frame: frame, Person: person, Part: part, Got: len(kp), Want: want}
		}
	}
	return nil
}
