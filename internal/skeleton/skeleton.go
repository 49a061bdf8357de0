// Package skeleton holds the body-part catalog for the 18-point body layout:
// keypoint indices, named presets and the regions used by custom selections.
package skeleton

/* body keypoints
0: Nose
1: Neck
2: RShoulder
3: RElbow
4: RWrist
5: LShoulder
6: LElbow
7: LWrist
8: RHip
9: RKnee
10: RAnkle
11: LHip
12: LKnee
13: LAnkle
14: REye
15: LEye
16: REar
17: LEar
*/
const (
	Nose = iota
	Neck
	RShoulder
	RElbow
	RWrist
	LShoulder
	LElbow
	LWrist
	RHip
	RKnee
	RAnkle
	LHip
	LKnee
	LAnkle
	REye
	LEye
	REar
	LEar

	NumBody = 18
)

const (
	// NumFace is the number of face landmarks in an OpenPose face keypoint
	// set: 68 contour points plus both pupils.
	NumFace = 70
	// NumFaceNoPupils is the 68-point face layout written by DWPose and
	// other COCO-WholeBody producers.
	NumFaceNoPupils = 68
	// NumHand is the number of landmarks in each hand keypoint set.
	NumHand = 21
	// Stride is the number of values per keypoint: x, y, confidence.
	Stride = 3
)

var bodyNames = [NumBody]string{
	"Nose", "Neck",
	"RShoulder", "RElbow", "RWrist",
	"LShoulder", "LElbow", "LWrist",
	"RHip", "RKnee", "RAnkle",
	"LHip", "LKnee", "LAnkle",
	"REye", "LEye", "REar", "LEar",
}

// BodyName returns the anatomical name of body keypoint i, or "" when i is
// outside the layout.
func BodyName(i int) string {
	if i < 0 || i >= NumBody {
		return ""
	}
	return bodyNames[i]
}

// ValidBodyIndex reports whether i addresses a body keypoint.
func ValidBodyIndex(i int) bool {
	return i >= 0 && i < NumBody
}
