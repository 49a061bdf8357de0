package transform

import (
	"context"

	"github.com/heimdex/heimdex-pose/internal/pose"
	"github.com/heimdex/heimdex-pose/internal/selection"
	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

// DefaultAppendage is used by Move when neither a Selection nor an
// appendage name is given.
const DefaultAppendage = "all"

// MoveOptions configures Move.
type MoveOptions struct {
	X, Y Offsets
	// Selection takes precedence over Appendage when set.
	Selection *selection.Selection
	// Appendage is a catalog name resolved when Selection is nil.
	Appendage   string
	PersonIndex int
	Policy      MismatchPolicy
	// AffectHands moves a hand with the offset of its wrist when the wrist
	// is selected.
	AffectHands bool
	// AffectFace moves the face with the head when any head keypoint is
	// selected.
	AffectFace bool
	// IncludeHidden also moves keypoints whose confidence is 0.
	IncludeHidden bool
}

// movePlan is the per-call resolution of what moves, shared read-only by
// every frame.
type movePlan struct {
	body          skeleton.IndexSet
	face          bool
	leftHand      bool
	rightHand     bool
	includeHidden bool
}

func planMove(opts MoveOptions) (movePlan, error) {
	var sel selection.Selection
	if opts.Selection != nil {
		sel = *opts.Selection
	} else {
		name := opts.Appendage
		if name == "" {
			name = DefaultAppendage
		}
		var err error
		if sel, err = selection.ForAppendage(name); err != nil {
			return movePlan{}, err
		}
	}

	body := sel.Body()
	return movePlan{
		body:          body,
		face:          sel.IncludeFace() || (opts.AffectFace && body.Intersects(skeleton.Head)),
		leftHand:      sel.IncludeLeftHand() || (opts.AffectHands && body.Has(skeleton.LWrist)),
		rightHand:     sel.IncludeRightHand() || (opts.AffectHands && body.Has(skeleton.RWrist)),
		includeHidden: opts.IncludeHidden,
	}, nil
}

// Move translates the selected keypoints by a per-frame offset. Confidence
// is never changed and unselected keypoints are never touched. Hands and
// face follow the same per-frame offset as the body when selected or
// cascaded.
func (e *Engine) Move(ctx context.Context, seq pose.Sequence, opts MoveOptions) (pose.Sequence, error) {
	policy := opts.Policy
	if policy == "" {
		policy = Truncate
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if err := opts.X.Validate("x", policy); err != nil {
		return nil, err
	}
	if err := opts.Y.Validate("y", policy); err != nil {
		return nil, err
	}

	plan, err := planMove(opts)
	if err != nil {
		return nil, err
	}

	out, err := prepare(seq)
	if err != nil {
		return nil, err
	}

	err = e.eachFrame(ctx, out, func(fi int, f *pose.Frame) error {
		people, err := e.targets(f, fi, opts.PersonIndex)
		if err != nil {
			return err
		}
		dx, dy := opts.X.At(fi, policy), opts.Y.At(fi, policy)
		if dx == 0 && dy == 0 {
			return nil
		}
		for _, pi := range people {
			plan.apply(&f.People[pi], dx, dy)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("move applied",
		"frames", len(out),
		"body_indices", plan.body.Indices(),
		"policy", string(policy),
		"person_index", opts.PersonIndex,
	)
	return out, nil
}

func (m movePlan) apply(p *pose.Person, dx, dy float64) {
	for i := 0; i < p.Body.Len(); i++ {
		if m.body.Has(i) {
			m.shift(p.Body, i, dx, dy)
		}
	}
	if m.face {
		m.shiftAll(p.Face, dx, dy)
	}
	if m.leftHand {
		m.shiftAll(p.LeftHand, dx, dy)
	}
	if m.rightHand {
		m.shiftAll(p.RightHand, dx, dy)
	}
}

func (m movePlan) shift(kp pose.Keypoints, i int, dx, dy float64) {
	if !m.includeHidden && !kp.Visible(i) {
		return
	}
	j := i * skeleton.Stride
	kp[j] += dx
	kp[j+1] += dy
}

func (m movePlan) shiftAll(kp pose.Keypoints, dx, dy float64) {
	for i := 0; i < kp.Len(); i++ {
		m.shift(kp, i, dx, dy)
	}
}
