package transform

import (
	"context"

	"github.com/heimdex/heimdex-pose/internal/pose"
	"github.com/heimdex/heimdex-pose/internal/selection"
	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

// FilterOptions configures Filter.
type FilterOptions struct {
	PersonIndex int
	// Invert hides the selected keypoints instead of the unselected ones.
	Invert bool
}

// Filter hides every keypoint outside sel by setting its confidence to 0.
// Coordinates and array sizes never change. Face and hand sets are hidden
// as a whole when their selection flag (flipped by Invert) is false.
func (e *Engine) Filter(ctx context.Context, seq pose.Sequence, sel selection.Selection, opts FilterOptions) (pose.Sequence, error) {
	out, err := prepare(seq)
	if err != nil {
		return nil, err
	}

	err = e.eachFrame(ctx, out, func(fi int, f *pose.Frame) error {
		people, err := e.targets(f, fi, opts.PersonIndex)
		if err != nil {
			return err
		}
		for _, pi := range people {
			filterPerson(&f.People[pi], sel, opts.Invert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("filter applied",
		"frames", len(out),
		"body_indices", sel.Indices(),
		"person_index", opts.PersonIndex,
		"invert", opts.Invert,
	)
	return out, nil
}

func filterPerson(p *pose.Person, sel selection.Selection, invert bool) {
	for i := 0; i < p.Body.Len(); i++ {
		if sel.Has(i) == invert {
			hide(p.Body, i)
		}
	}
	if sel.IncludeFace() == invert {
		hideAll(p.Face)
	}
	if sel.IncludeLeftHand() == invert {
		hideAll(p.LeftHand)
	}
	if sel.IncludeRightHand() == invert {
		hideAll(p.RightHand)
	}
}

func hide(kp pose.Keypoints, i int) {
	kp[i*skeleton.Stride+2] = 0
}

func hideAll(kp pose.Keypoints) {
	for i := 0; i < kp.Len(); i++ {
		hide(kp, i)
	}
}
