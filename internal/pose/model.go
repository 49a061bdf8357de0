// Package pose models 2D keypoint data in the OpenPose JSON layout: a
// sequence of frames, each holding people with flat [x, y, confidence] arrays
// for the body, face and both hands.
package pose

import (
	"maps"
	"slices"

	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

// JSON keys of the keypoint arrays on a person and of the people list on a
// frame.
const (
	KeyBody      = "pose_keypoints_2d"
	KeyFace      = "face_keypoints_2d"
	KeyLeftHand  = "hand_left_keypoints_2d"
	KeyRightHand = "hand_right_keypoints_2d"
	KeyPeople    = "people"
)

// Keypoints is a flat array of [x, y, confidence] triplets.
type Keypoints []float64

// Len returns the number of keypoints (not values).
func (k Keypoints) Len() int { return len(k) / skeleton.Stride }

// At returns the triplet of keypoint i. It panics when i is out of range.
func (k Keypoints) At(i int) (x, y, c float64) {
	j := i * skeleton.Stride
	return k[j], k[j+1], k[j+2]
}

// Visible reports whether keypoint i exists and has positive confidence.
func (k Keypoints) Visible(i int) bool {
	j := i*skeleton.Stride + 2
	return i >= 0 && j < len(k) && k[j] > 0
}

// Clone returns a copy sharing no memory with k. nil stays nil.
func (k Keypoints) Clone() Keypoints {
	if k == nil {
		return nil
	}
	return slices.Clone(k)
}

// Person is one detected person. Extra holds every JSON member other than
// the four keypoint arrays, kept as the original bytes.
type Person struct {
	Body      Keypoints
	Face      Keypoints
	LeftHand  Keypoints
	RightHand Keypoints
	Extra     map[string][]byte
}

// Clone deep-copies the person.
func (p Person) Clone() Person {
	return Person{
		Body:      p.Body.Clone(),
		Face:      p.Face.Clone(),
		LeftHand:  p.LeftHand.Clone(),
		RightHand: p.RightHand.Clone(),
		Extra:     cloneExtra(p.Extra),
	}
}

// Frame is one animation frame. A nil People means the frame carries no
// people list at all; such frames pass through every operation untouched.
type Frame struct {
	People []Person
	Extra  map[string][]byte
}

// Clone deep-copies the frame, keeping nil and empty People distinct.
func (f Frame) Clone() Frame {
	out := Frame{Extra: cloneExtra(f.Extra)}
	if f.People != nil {
		out.People = make([]Person, len(f.People))
		for i, p := range f.People {
			out.People[i] = p.Clone()
		}
	}
	return out
}

// Sequence is an ordered list of frames. A static pose is a sequence of one.
type Sequence []Frame

// Clone deep-copies every frame.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	for i, f := range s {
		out[i] = f.Clone()
	}
	return out
}

// PeopleCount returns the total number of people across all frames.
func (s Sequence) PeopleCount() int {
	n := 0
	for _, f := range s {
		n += len(f.People)
	}
	return n
}

func cloneExtra(m map[string][]byte) map[string][]byte {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}
