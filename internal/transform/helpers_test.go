package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heimdex/heimdex-pose/internal/pose"
	"github.com/heimdex/heimdex-pose/internal/selection"
	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

// keypoints builds n visible points where point i sits at (base+i, base+10*i).
func keypoints(n int, base float64) pose.Keypoints {
	kp := make(pose.Keypoints, 0, n*skeleton.Stride)
	for i := range n {
		kp = append(kp, base+float64(i), base+10*float64(i), 1)
	}
	return kp
}

func testPerson(base float64) pose.Person {
	return pose.Person{
		Body:      keypoints(skeleton.NumBody, base),
		Face:      keypoints(skeleton.NumFace, base+1000),
		LeftHand:  keypoints(skeleton.NumHand, base+2000),
		RightHand: keypoints(skeleton.NumHand, base+3000),
	}
}

func testSequence(frames, people int) pose.Sequence {
	seq := make(pose.Sequence, frames)
	for fi := range seq {
		seq[fi].People = make([]pose.Person, people)
		for pi := range people {
			seq[fi].People[pi] = testPerson(float64(100*pi + fi))
		}
	}
	return seq
}

func preset(t *testing.T, name string) selection.Selection {
	t.Helper()
	sel, err := selection.Resolve(name, selection.Flags{})
	require.NoError(t, err)
	return sel
}
