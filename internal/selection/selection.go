// Package selection turns a preset name or a set of region flags into a
// Selection: the body indices plus face and hand inclusion that the transform
// engine operates on.
package selection

import (
	"encoding/json"
	"fmt"

	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

// Selection is an immutable value. The zero Selection selects nothing.
type Selection struct {
	body      skeleton.IndexSet
	face      bool
	leftHand  bool
	rightHand bool
}

// New builds a Selection from explicit body indices. Duplicates collapse;
// indices outside 0..17 are rejected.
func New(indices []int, face, leftHand, rightHand bool) (Selection, error) {
	set, err := skeleton.IndexSetOf(indices...)
	if err != nil {
		return Selection{}, err
	}
	return Selection{body: set, face: face, leftHand: leftHand, rightHand: rightHand}, nil
}

// FromSet wraps an index set with the given face/hand flags.
func FromSet(set skeleton.IndexSet, face, leftHand, rightHand bool) Selection {
	return Selection{body: set, face: face, leftHand: leftHand, rightHand: rightHand}
}

func (s Selection) Body() skeleton.IndexSet { return s.body }
func (s Selection) Indices() []int          { return s.body.Indices() }
func (s Selection) Has(i int) bool          { return s.body.Has(i) }
func (s Selection) IncludeFace() bool       { return s.face }
func (s Selection) IncludeLeftHand() bool   { return s.leftHand }
func (s Selection) IncludeRightHand() bool  { return s.rightHand }

// IsEmpty reports whether the selection selects nothing at all.
func (s Selection) IsEmpty() bool {
	return s.body.IsEmpty() && !s.face && !s.leftHand && !s.rightHand
}

type wireSelection struct {
	BodyIndices      []int `json:"body_indices"`
	IncludeFace      bool  `json:"include_face"`
	IncludeLeftHand  bool  `json:"include_left_hand"`
	IncludeRightHand bool  `json:"include_right_hand"`
}

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSelection{
		BodyIndices:      s.body.Indices(),
		IncludeFace:      s.face,
		IncludeLeftHand:  s.leftHand,
		IncludeRightHand: s.rightHand,
	})
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var w wireSelection
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	sel, err := New(w.BodyIndices, w.IncludeFace, w.IncludeLeftHand, w.IncludeRightHand)
	if err != nil {
		return fmt.Errorf("invalid selection: %w", err)
	}
	*s = sel
	return nil
}
