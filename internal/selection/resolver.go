package selection

import (
	"fmt"
	"slices"

	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

// Custom is the selection type that composes a Selection from Flags instead
// of a catalog preset.
const Custom = "custom"

// Flags are the region switches of a custom selection.
type Flags struct {
	IncludeHead      bool `json:"include_head"`
	IncludeNeck      bool `json:"include_neck"`
	IncludeTorso     bool `json:"include_torso"`
	IncludeLeftArm   bool `json:"include_left_arm"`
	IncludeRightArm  bool `json:"include_right_arm"`
	IncludeLeftLeg   bool `json:"include_left_leg"`
	IncludeRightLeg  bool `json:"include_right_leg"`
	IncludeLeftHand  bool `json:"include_left_hand"`
	IncludeRightHand bool `json:"include_right_hand"`
	IncludeFace      bool `json:"include_face"`
}

// AllFlags has every region switched on.
var AllFlags = Flags{
	IncludeHead: true, IncludeNeck: true, IncludeTorso: true,
	IncludeLeftArm: true, IncludeRightArm: true,
	IncludeLeftLeg: true, IncludeRightLeg: true,
	IncludeLeftHand: true, IncludeRightHand: true, IncludeFace: true,
}

// FlagNames lists the keys accepted by FlagsFromMap.
var FlagNames = []string{
	"include_head", "include_neck", "include_torso",
	"include_left_arm", "include_right_arm",
	"include_left_leg", "include_right_leg",
	"include_left_hand", "include_right_hand", "include_face",
}

// FlagsFromMap converts a name→bool map into Flags. Missing keys are false;
// unknown keys are an error so typos do not silently drop a region.
func FlagsFromMap(m map[string]bool) (Flags, error) {
	var f Flags
	for key, v := range m {
		p := f.field(key)
		if p == nil {
			return Flags{}, fmt.Errorf("unknown selection flag %q", key)
		}
		*p = v
	}
	return f, nil
}

func (f *Flags) field(key string) *bool {
	switch key {
	case "include_head":
		return &f.IncludeHead
	case "include_neck":
		return &f.IncludeNeck
	case "include_torso":
		return &f.IncludeTorso
	case "include_left_arm":
		return &f.IncludeLeftArm
	case "include_right_arm":
		return &f.IncludeRightArm
	case "include_left_leg":
		return &f.IncludeLeftLeg
	case "include_right_leg":
		return &f.IncludeRightLeg
	case "include_left_hand":
		return &f.IncludeLeftHand
	case "include_right_hand":
		return &f.IncludeRightHand
	case "include_face":
		return &f.IncludeFace
	}
	return nil
}

func (f Flags) regions() []skeleton.Region {
	var out []skeleton.Region
	for _, r := range []struct {
		on     bool
		region skeleton.Region
	}{
		{f.IncludeHead, skeleton.RegionHead},
		{f.IncludeNeck, skeleton.RegionNeck},
		{f.IncludeTorso, skeleton.RegionTorso},
		{f.IncludeLeftArm, skeleton.RegionLeftArm},
		{f.IncludeRightArm, skeleton.RegionRightArm},
		{f.IncludeLeftLeg, skeleton.RegionLeftLeg},
		{f.IncludeRightLeg, skeleton.RegionRightLeg},
	} {
		if r.on {
			out = append(out, r.region)
		}
	}
	return out
}

// Resolve produces a Selection from a preset name or, for "custom", from the
// region flags. Presets never include face or hands; those are opt-in through
// custom flags. An unknown name yields *skeleton.UnknownPresetError and the
// zero Selection.
func Resolve(selectionType string, flags Flags) (Selection, error) {
	if selectionType == Custom {
		var body skeleton.IndexSet
		for _, r := range flags.regions() {
			set, _ := skeleton.RegionSet(r)
			body = body.Union(set)
		}
		return Selection{
			body:      body,
			face:      flags.IncludeFace,
			leftHand:  flags.IncludeLeftHand,
			rightHand: flags.IncludeRightHand,
		}, nil
	}

	set, err := skeleton.Lookup(selectionType)
	if err != nil {
		return Selection{}, err
	}
	return Selection{body: set}, nil
}

// ForAppendage resolves a single catalog entry with no face or hand flags.
// "custom" is not a catalog entry and is rejected like any unknown name.
func ForAppendage(name string) (Selection, error) {
	set, err := skeleton.Lookup(name)
	if err != nil {
		return Selection{}, err
	}
	return Selection{body: set}, nil
}

// Types returns every accepted selection type: "custom" followed by the
// catalog presets.
func Types() []string {
	return slices.Concat([]string{Custom}, skeleton.Names())
}
