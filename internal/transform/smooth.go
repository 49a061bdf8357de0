package transform

import (
	"context"
	"fmt"

	"github.com/heimdex/heimdex-pose/internal/pose"
	"github.com/heimdex/heimdex-pose/internal/selection"
	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

// NoFocus disables the focus keypoint in SmoothOptions.
const NoFocus = -1

// DefaultSmoothFactor is the factor callers use when none is given.
const DefaultSmoothFactor = 0.3

// SmoothOptions configures Smooth.
type SmoothOptions struct {
	// Factor is how far each frame moves toward its raw position: 0 freezes
	// the first frame, 1 leaves the sequence unchanged.
	Factor float64
	// Selection limits smoothing to its body indices; nil smooths all 18.
	Selection *selection.Selection
	// FocusIndex is smoothed first when set; NoFocus smooths points in index
	// order.
	FocusIndex  int
	PersonIndex int
	SmoothHands bool
	SmoothFace  bool
}

// Smooth applies exponential smoothing across frames:
// next = prev + factor*(raw - prev), where prev is the previous smoothed
// frame. A point moves only when it is visible in both frames. Unlike the
// other operations each frame depends on the one before it, so frames are
// processed in order.
func (e *Engine) Smooth(ctx context.Context, seq pose.Sequence, opts SmoothOptions) (pose.Sequence, error) {
	if opts.Factor < 0 || opts.Factor > 1 {
		return nil, fmt.Errorf("smoothing factor %v out of range [0, 1]", opts.Factor)
	}
	if opts.FocusIndex != NoFocus && !skeleton.ValidBodyIndex(opts.FocusIndex) {
		return nil, fmt.Errorf("focus index %d out of range 0..%d", opts.FocusIndex, skeleton.NumBody-1)
	}

	out, err := prepare(seq)
	if err != nil {
		return nil, err
	}
	if len(out) <= 1 {
		return out, nil
	}

	body := skeleton.All
	hands, face := opts.SmoothHands, opts.SmoothFace
	if opts.Selection != nil {
		body = opts.Selection.Body()
		hands = hands || opts.Selection.IncludeLeftHand() || opts.Selection.IncludeRightHand()
		face = face || opts.Selection.IncludeFace()
	}

	order := body.Indices()
	if opts.FocusIndex != NoFocus && body.Has(opts.FocusIndex) {
		order = append([]int{opts.FocusIndex}, without(order, opts.FocusIndex)...)
	}

	for fi := 1; fi < len(out); fi++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prev, cur := &out[fi-1], &out[fi]
		if prev.People == nil || cur.People == nil {
			continue
		}
		people, err := e.targets(cur, fi, opts.PersonIndex)
		if err != nil {
			return nil, err
		}
		for _, pi := range people {
			if pi >= len(prev.People) {
				continue
			}
			p, q := &prev.People[pi], &cur.People[pi]
			for _, i := range order {
				smoothPoint(p.Body, q.Body, i, opts.Factor)
			}
			if hands {
				smoothAll(p.LeftHand, q.LeftHand, opts.Factor)
				smoothAll(p.RightHand, q.RightHand, opts.Factor)
			}
			if face {
				smoothAll(p.Face, q.Face, opts.Factor)
			}
		}
	}

	e.logger.Debug("smooth applied", "frames", len(out), "factor", opts.Factor)
	return out, nil
}

func smoothPoint(prev, cur pose.Keypoints, i int, factor float64) {
	if !prev.Visible(i) || !cur.Visible(i) {
		return
	}
	j := i * skeleton.Stride
	cur[j] = prev[j] + factor*(cur[j]-prev[j])
	cur[j+1] = prev[j+1] + factor*(cur[j+1]-prev[j+1])
}

func smoothAll(prev, cur pose.Keypoints, factor float64) {
	if len(prev) != len(cur) {
		return
	}
	for i := 0; i < cur.Len(); i++ {
		smoothPoint(prev, cur, i, factor)
	}
}

func without(s []int, v int) []int {
	out := make([]int, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
