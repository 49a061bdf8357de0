package skeleton

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownPreset matches every *UnknownPresetError.
var ErrUnknownPreset = errors.New("unknown preset")

// UnknownPresetError is returned when a preset or appendage name is not in
// the catalog.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q", e.Name)
}

func (e *UnknownPresetError) Is(target error) bool {
	return target == ErrUnknownPreset
}

// Single appendages and regions.
var (
	LeftUpperArm  = mustSet(LShoulder, LElbow)
	LeftForearm   = mustSet(LElbow, LWrist)
	LeftFullArm   = mustSet(LShoulder, LElbow, LWrist)
	RightUpperArm = mustSet(RShoulder, RElbow)
	RightForearm  = mustSet(RElbow, RWrist)
	RightFullArm  = mustSet(RShoulder, RElbow, RWrist)

	LeftUpperLeg  = mustSet(LHip, LKnee)
	LeftLowerLeg  = mustSet(LKnee, LAnkle)
	LeftFullLeg   = mustSet(LHip, LKnee, LAnkle)
	RightUpperLeg = mustSet(RHip, RKnee)
	RightLowerLeg = mustSet(RKnee, RAnkle)
	RightFullLeg  = mustSet(RHip, RKnee, RAnkle)

	// The 18-point layout has no foot keypoints; the ankle stands in.
	LeftFoot  = mustSet(LAnkle)
	RightFoot = mustSet(RAnkle)

	Torso     = mustSet(Neck, RShoulder, LShoulder, RHip, LHip)
	Shoulders = mustSet(RShoulder, LShoulder)
	Head      = mustSet(Nose, REye, LEye, REar, LEar)
	NeckOnly  = mustSet(Neck)
)

// Composite groups, spelled out as unions of the regions above.
var (
	Arms        = LeftFullArm.Union(RightFullArm)
	Legs        = LeftFullLeg.Union(RightFullLeg)
	HeadAndNeck = Head.Union(NeckOnly)
	// UpperBody is head, neck and both full arms. Hips belong to the lower
	// body, so the torso region is not part of it, and hands are never body
	// indices.
	UpperBody = HeadAndNeck.Union(Arms)
	LowerBody = Legs
	LeftSide  = LeftFullArm.Union(LeftFullLeg).Union(mustSet(LEye, LEar))
	RightSide = RightFullArm.Union(RightFullLeg).Union(mustSet(REye, REar))
	All       = allMask
)

var presets = map[string]IndexSet{
	"left_upper_arm":  LeftUpperArm,
	"left_forearm":    LeftForearm,
	"left_full_arm":   LeftFullArm,
	"right_upper_arm": RightUpperArm,
	"right_forearm":   RightForearm,
	"right_full_arm":  RightFullArm,

	"left_upper_leg":  LeftUpperLeg,
	"left_lower_leg":  LeftLowerLeg,
	"left_full_leg":   LeftFullLeg,
	"right_upper_leg": RightUpperLeg,
	"right_lower_leg": RightLowerLeg,
	"right_full_leg":  RightFullLeg,

	"left_foot":  LeftFoot,
	"right_foot": RightFoot,

	"torso":     Torso,
	"shoulders": Shoulders,

	"head":          Head,
	"head_and_neck": HeadAndNeck,
	"upper_body":    UpperBody,
	"lower_body":    LowerBody,
	"arms":          Arms,
	"legs":          Legs,
	"left_side":     LeftSide,
	"right_side":    RightSide,

	"all": All,
}

// Region names a body region that a custom selection can switch on.
type Region string

const (
	RegionHead     Region = "head"
	RegionNeck     Region = "neck"
	RegionTorso    Region = "torso"
	RegionLeftArm  Region = "left_arm"
	RegionRightArm Region = "right_arm"
	RegionLeftLeg  Region = "left_leg"
	RegionRightLeg Region = "right_leg"
)

var regions = map[Region]IndexSet{
	RegionHead:     Head,
	RegionNeck:     NeckOnly,
	RegionTorso:    Torso,
	RegionLeftArm:  LeftFullArm,
	RegionRightArm: RightFullArm,
	RegionLeftLeg:  LeftFullLeg,
	RegionRightLeg: RightFullLeg,
}

// Lookup returns the index set of a named preset.
func Lookup(name string) (IndexSet, error) {
	s, ok := presets[name]
	if !ok {
		return 0, &UnknownPresetError{Name: name}
	}
	return s, nil
}

// RegionSet returns the index set for a custom-selection region.
func RegionSet(r Region) (IndexSet, bool) {
	s, ok := regions[r]
	return s, ok
}

// Names returns every preset name, sorted.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
