package transform

import (
	"context"
	"fmt"

	"github.com/heimdex/heimdex-pose/internal/pose"
	"github.com/heimdex/heimdex-pose/internal/selection"
	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

// AttachOptions configures Attach.
type AttachOptions struct {
	// AnchorIndex is the body keypoint that stays at its base position.
	AnchorIndex int
	// Selection limits which attachment keypoints replace the base ones. When
	// nil, every visible attachment body keypoint is used.
	Selection        *selection.Selection
	BasePerson       int
	AttachmentPerson int
	AttachHands      bool
	AttachFace       bool
}

// Attach grafts keypoints from attachment onto base. Each attachment frame is
// translated so its anchor lands on the base anchor, then the chosen
// keypoints replace the base's. The output has as many frames as the longer
// input; the shorter one loops. Frames where either anchor is missing or a
// person slot does not exist come out as the base frame.
func (e *Engine) Attach(ctx context.Context, base, attachment pose.Sequence, opts AttachOptions) (pose.Sequence, error) {
	if !skeleton.ValidBodyIndex(opts.AnchorIndex) {
		return nil, fmt.Errorf("anchor index %d out of range 0..%d", opts.AnchorIndex, skeleton.NumBody-1)
	}
	if opts.BasePerson < 0 || opts.AttachmentPerson < 0 {
		return nil, &InvalidPersonIndexError{Index: min(opts.BasePerson, opts.AttachmentPerson)}
	}
	if err := pose.Validate(base); err != nil {
		return nil, err
	}
	if err := pose.Validate(attachment); err != nil {
		return nil, err
	}
	if len(base) == 0 || len(attachment) == 0 {
		return base.Clone(), nil
	}

	n := max(len(base), len(attachment))
	out := make(pose.Sequence, n)
	for i := range out {
		out[i] = base[i%len(base)].Clone()
	}

	err := e.eachFrame(ctx, out, func(fi int, f *pose.Frame) error {
		src := attachment[fi%len(attachment)]
		if src.People == nil {
			return nil
		}
		if opts.BasePerson >= len(f.People) {
			if e.strict {
				return &InvalidPersonIndexError{Index: opts.BasePerson, Frame: fi, People: len(f.People)}
			}
			return nil
		}
		if opts.AttachmentPerson >= len(src.People) {
			if e.strict {
				return &InvalidPersonIndexError{Index: opts.AttachmentPerson, Frame: fi, People: len(src.People)}
			}
			return nil
		}
		attachPerson(&f.People[opts.BasePerson], &src.People[opts.AttachmentPerson], opts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("attach applied", "frames", n, "anchor", skeleton.BodyName(opts.AnchorIndex))
	return out, nil
}

// attachPerson reads src and writes dst; src is never modified.
func attachPerson(dst, src *pose.Person, opts AttachOptions) {
	if !dst.Body.Visible(opts.AnchorIndex) || !src.Body.Visible(opts.AnchorIndex) {
		return
	}
	bx, by, _ := dst.Body.At(opts.AnchorIndex)
	ax, ay, _ := src.Body.At(opts.AnchorIndex)
	dx, dy := bx-ax, by-ay

	var indices skeleton.IndexSet
	hands, face := opts.AttachHands, opts.AttachFace
	if opts.Selection != nil {
		indices = opts.Selection.Body()
		hands = hands || opts.Selection.IncludeLeftHand() || opts.Selection.IncludeRightHand()
		face = face || opts.Selection.IncludeFace()
	} else {
		for i := 0; i < src.Body.Len(); i++ {
			if src.Body.Visible(i) {
				indices = indices.With(i)
			}
		}
	}

	for _, i := range indices.Indices() {
		if i >= src.Body.Len() || i >= dst.Body.Len() {
			continue
		}
		x, y, c := src.Body.At(i)
		j := i * skeleton.Stride
		dst.Body[j], dst.Body[j+1], dst.Body[j+2] = x+dx, y+dy, c
	}

	if hands {
		dst.LeftHand = translated(src.LeftHand, dst.LeftHand, dx, dy)
		dst.RightHand = translated(src.RightHand, dst.RightHand, dx, dy)
	}
	if face {
		dst.Face = translated(src.Face, dst.Face, dx, dy)
	}
}

// translated returns a shifted copy of src, or fallback when src is empty.
func translated(src, fallback pose.Keypoints, dx, dy float64) pose.Keypoints {
	if len(src) == 0 {
		return fallback
	}
	out := src.Clone()
	for i := 0; i < out.Len(); i++ {
		j := i * skeleton.Stride
		out[j] += dx
		out[j+1] += dy
	}
	return out
}
